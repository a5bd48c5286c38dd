// Package devserver serves the box-style file API over any remote.Store. It
// backs local development and the end-to-end tests of the API client.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gadget1999/gobox/internal/remote"
)

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	Addr        string
	AccessToken string
}

type Server struct {
	config *Config
	server *http.Server
	logger *slog.Logger
}

func New(config *Config, store remote.Store, logger *slog.Logger) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           SetupRoutes(store, config.AccessToken, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is done, then shuts down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("devserver start", "addr", ln.Addr().String(), "auth", s.config.AccessToken != "")
	defer s.logger.Info("devserver stop")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return s.Stop(context.Background())
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
