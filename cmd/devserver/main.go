package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gadget1999/gobox/internal/devserver"
	"github.com/gadget1999/gobox/internal/remote/memstore"
	"github.com/gadget1999/gobox/internal/version"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	var addr string
	var token string
	var debug bool

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "devserver",
		Short:   "Serve the gobox file API over an in-memory store",
		Version: version.Detailed(),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "2006-01-02T15:04:05.000Z07:00",
				NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
			}))
			slog.SetDefault(logger)

			srv := devserver.New(&devserver.Config{Addr: addr, AccessToken: token}, memstore.New(), logger)
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	rootCmd.Flags().StringVarP(&addr, "addr", "a", devserver.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "Bearer token clients must send (empty disables auth)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
