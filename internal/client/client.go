// Package client binds every action to its implementation over a remote
// store and the local filesystem.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/local"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/sync"
	"github.com/gadget1999/gobox/internal/utils"
)

type Client struct {
	store    remote.Store
	resolver *remote.Resolver
	local    *local.Store
	engine   *sync.Engine
	logger   *slog.Logger
	workDir  string
}

type Option func(*Client)

// WithLogger sets the logger handed to the resolver and the sync engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPlainNames treats numeric arguments as names instead of ids.
func WithPlainNames(plain bool) Option {
	return func(c *Client) { c.resolver = remote.NewResolver(c.store, remote.WithPlainNames(plain)) }
}

// WithWorkDir sets the directory relative local paths resolve against.
func WithWorkDir(dir string) Option {
	return func(c *Client) { c.workDir = dir }
}

func New(store remote.Store, localStore *local.Store, opts ...Option) *Client {
	c := &Client{
		store:    store,
		resolver: remote.NewResolver(store),
		local:    localStore,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workDir == "" {
		c.workDir, _ = os.Getwd()
	}
	c.engine = sync.NewEngine(c.logger)
	return c
}

// Handlers returns the handler of every action.
func (c *Client) Handlers() map[action.ID]batch.Handler {
	return map[action.ID]batch.Handler{
		action.List:         c.list,
		action.Info:         c.info,
		action.RemoveFile:   c.removeFile,
		action.RemoveDir:    c.removeDir,
		action.Mkdir:        c.mkdir,
		action.RenameFile:   c.rename(remote.HintFile),
		action.RenameDir:    c.rename(remote.HintFolder),
		action.MoveFile:     c.move(remote.HintFile),
		action.MoveDir:      c.move(remote.HintFolder),
		action.DownloadFile: c.downloadFile,
		action.DownloadDir:  c.downloadDir,
		action.Upload:       c.upload,
		action.CompareFile:  c.compareFile,
		action.CompareDir:   c.compareDir,
		action.Push:         c.push,
		action.Pull:         c.pull,
	}
}

// WhatID resolves ref and describes its id the way --what-id prints it.
func (c *Client) WhatID(ctx context.Context, ref string, hint remote.Hint) (string, error) {
	node, err := c.resolver.Resolve(ctx, ref, hint)
	if errors.Is(err, remote.ErrNotFound) || errors.Is(err, remote.ErrTypeMismatch) {
		return "", fmt.Errorf("no id found for %s(type: %s)", ref, hint)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s's id is %s", node.Kind, ref, node.ID), nil
}

// AccountInfo returns the owner of the store credentials.
func (c *Client) AccountInfo(ctx context.Context) (*remote.Account, error) {
	return c.store.AccountInfo(ctx)
}

// localPath resolves p against base, or the work dir when base is empty.
func (c *Client) localPath(p, base string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if base == "" {
		base = c.workDir
	}
	base, err := utils.ResolvePath(base)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, p), nil
}

// remoteFolder resolves the folder a --chdir value names, the root when unset.
func (c *Client) remoteFolder(ctx context.Context, chdir string) (*remote.Node, error) {
	if chdir == "" {
		chdir = "/"
	}
	return c.resolver.Resolve(ctx, chdir, remote.HintFolder)
}

func (c *Client) report(out batch.Output, verbose bool) *sync.Reporter {
	return sync.NewReporter(out.Out, out.Err, verbose)
}
