package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/client"
	"github.com/gadget1999/gobox/internal/config"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errUnitsFailed marks a batch with failed units. The executor has already
// reported them.
var errUnitsFailed = errors.New("some units failed")

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}
	cmd := &cobra.Command{
		Use:   "gobox [flags] args...",
		Short: "Manage files in remote storage from the command line",
		Long: `gobox lists, transfers and synchronizes files between the local
filesystem and a box-style remote store (box.com, S3 or memory).

Exactly one mode flag selects the action; every argument (or argument pair
for rename, move, compare, push and pull) is processed independently.`,
		Version:       version.Detailed(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}
	flags.register(cmd)
	cmd.PersistentFlags().String("config", config.DefaultConfigPath, "config file")
	cmd.PersistentFlags().Bool("debug", false, "log debug output to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(execute(ctx, rootCmd, os.Args[1:], os.Stderr))
}

// execute runs cmd and maps the outcome to the process exit code.
func execute(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUnitsFailed) {
			fmt.Fprintln(stderr, red.Render("error: ")+err.Error())
		}
		return 1
	}
	return 0
}

func run(cmd *cobra.Command, flags *cliFlags, args []string) error {
	ctx := cmd.Context()
	target, err := action.ParseTarget(flags.target)
	if err != nil {
		return err
	}

	// --account-info and --what-id answer a single question and ignore modes
	query := flags.accountInfo || flags.whatID != ""

	var spec *action.Spec
	var units []action.Unit
	if !query {
		var mode action.Mode
		spec, mode, err = action.Resolve(flags.modes, target, flags.options(cmd))
		if err != nil {
			return err
		}
		if flags.fromFile != "" {
			if args, err = readArgsFile(flags.fromFile); err != nil {
				return err
			}
		}
		if units, err = action.PairArgs(mode, args); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, logCloser := newLogger(cfg.LogFile, debug, cmd.ErrOrStderr())
	defer logCloser.Close()
	slog.SetDefault(logger)
	logger.Debug("gobox start", "version", version.Short(), "backend", cfg.Backend, "config", cfg.Path)

	store, err := newRemoteStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	localStore, cacheCloser := newLocalStore(cfg.CacheDir, logger)
	defer cacheCloser.Close()

	c := client.New(store, localStore,
		client.WithLogger(logger),
		client.WithPlainNames(flags.plainName),
	)
	out := cmd.OutOrStdout()

	switch {
	case flags.accountInfo:
		account, err := c.AccountInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, heading.Render("account_info:"))
		return printYAML(out, account)
	case flags.whatID != "":
		msg, err := c.WhatID(ctx, flags.whatID, hintOf(target))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
		return nil
	}

	executor := &batch.Executor{
		Out:    out,
		Err:    cmd.ErrOrStderr(),
		Logger: logger,
		Jobs:   flags.jobs,
	}
	if report := executor.Run(ctx, spec, units, c.Handlers()); report.Failed() {
		return errUnitsFailed
	}
	return nil
}

func readArgsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &action.UsageError{Msg: fmt.Sprintf("read arguments: %v", err)}
	}
	defer f.Close()
	return action.ReadArgs(f)
}

// loadConfig merges the config file, .env, GOBOX_* variables and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	v := config.New()
	path, explicit := resolveConfigPath(cmd)
	return config.Load(v, path, explicit)
}

func hintOf(t action.Target) remote.Hint {
	switch t {
	case action.TargetFile:
		return remote.HintFile
	case action.TargetDir:
		return remote.HintFolder
	}
	return remote.HintAny
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
