package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gadget1999/gobox/internal/boxsdk"
	"github.com/gadget1999/gobox/internal/config"
	"github.com/gadget1999/gobox/internal/hashcache"
	"github.com/gadget1999/gobox/internal/local"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/remote/memstore"
	"github.com/gadget1999/gobox/internal/s3store"
)

// newRemoteStore builds the store of the configured backend.
func newRemoteStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote.Store, error) {
	switch cfg.Backend {
	case config.BackendBox:
		sdk, err := boxsdk.New(&boxsdk.Config{
			APIURL:      cfg.APIURL,
			UploadURL:   cfg.UploadURL,
			AccessToken: cfg.AccessToken,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("box client: %w", err)
		}
		return boxsdk.NewStore(sdk), nil

	case config.BackendS3:
		s3cfg := &s3store.Config{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		}
		client, err := s3store.NewClient(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return s3store.New(client, s3cfg, logger), nil

	case config.BackendMemory:
		return memstore.New(), nil
	}
	return nil, &config.ConfigError{Field: "backend", Err: fmt.Errorf("unknown backend %q", cfg.Backend)}
}

// newLocalStore opens the hash cache in dir. A cache held by another gobox
// process is skipped and files are hashed every time.
func newLocalStore(dir string, logger *slog.Logger) (*local.Store, io.Closer) {
	if dir == "" {
		return local.NewStore(nil), nopCloser{}
	}
	cache, err := hashcache.Open(dir, logger)
	if errors.Is(err, hashcache.ErrLocked) {
		logger.Warn("hash cache in use, running without it", "dir", dir)
		return local.NewStore(nil), nopCloser{}
	}
	if err != nil {
		logger.Warn("hash cache unavailable", "dir", dir, "error", err)
		return local.NewStore(nil), nopCloser{}
	}
	return local.NewStore(cache), cache
}
