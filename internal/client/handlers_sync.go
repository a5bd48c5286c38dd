package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/sync"
)

// compareFile reports whether a local file and a remote file differ. Units
// are (local, remote).
func (c *Client) compareFile(ctx context.Context, u action.Unit, _ *action.Spec, _ batch.Output) (any, error) {
	path, err := c.localPath(u.Source, "")
	if err != nil {
		return nil, err
	}
	e, err := c.local.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if e.IsDir {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	node, err := c.resolver.Resolve(ctx, u.Destination, remote.HintFile)
	if err != nil {
		return nil, err
	}

	plan, err := c.engine.Plan(ctx, sync.NewLocalTree(c.local, path), sync.NewRemoteTree(c.store, node, u.Destination), sync.Policy{})
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return "identical", nil
	}
	return "different", nil
}

// compareDir prints the diff between a local directory and a remote folder.
func (c *Client) compareDir(ctx context.Context, u action.Unit, spec *action.Spec, out batch.Output) (any, error) {
	src, dst, err := c.syncTrees(ctx, u, spec.Sync, true, mustExist)
	if err != nil {
		return nil, err
	}
	m, err := sync.NewMatcher(spec.Sync.Excludes)
	if err != nil {
		return nil, err
	}
	_, err = c.engine.Run(ctx, src, dst, sync.RunOptions{Policy: sync.Policy{Exclude: m}, Diff: true}, c.report(out, false))
	return nil, err
}

// push makes the remote folder match the local directory. A missing remote
// folder is created, or planned against as empty under --dry-run.
func (c *Client) push(ctx context.Context, u action.Unit, spec *action.Spec, out batch.Output) (any, error) {
	root := createMissing
	if spec.Sync.DryRun {
		root = emptyIfMissing
	}
	localTree, remoteTree, err := c.syncTrees(ctx, u, spec.Sync, true, root)
	if err != nil {
		return nil, err
	}
	defer c.resolver.Purge()
	return nil, c.runSync(ctx, localTree, remoteTree, spec, out)
}

// pull makes the local directory match the remote folder.
func (c *Client) pull(ctx context.Context, u action.Unit, spec *action.Spec, out batch.Output) (any, error) {
	localTree, remoteTree, err := c.syncTrees(ctx, u, spec.Sync, false, mustExist)
	if err != nil {
		return nil, err
	}
	return nil, c.runSync(ctx, remoteTree, localTree, spec, out)
}

func (c *Client) runSync(ctx context.Context, src, dst sync.Tree, spec *action.Spec, out batch.Output) error {
	m, err := sync.NewMatcher(spec.Sync.Excludes)
	if err != nil {
		return err
	}
	_, err = c.engine.Run(ctx, src, dst, sync.RunOptions{
		Policy: sync.Policy{
			Exclude:        m,
			Delete:         spec.Sync.Delete,
			DeleteExcluded: spec.Sync.DeleteExcluded,
		},
		DryRun: spec.Sync.DryRun,
	}, c.report(out, spec.Sync.Verbose))
	return err
}

// remoteRoot says how syncTrees treats a missing remote folder.
type remoteRoot int

const (
	mustExist remoteRoot = iota
	createMissing
	emptyIfMissing
)

// syncTrees builds the trees of a (local, remote) unit. Relative local paths
// resolve against --chdir.
func (c *Client) syncTrees(ctx context.Context, u action.Unit, opts action.SyncOptions, localMustExist bool, root remoteRoot) (*sync.LocalTree, *sync.RemoteTree, error) {
	dir, err := c.localDir(ctx, u.Source, opts.Chdir, localMustExist)
	if err != nil {
		return nil, nil, err
	}

	var node *remote.Node
	switch root {
	case createMissing:
		node, err = c.resolver.ResolveOrCreateFolder(ctx, u.Destination)
	case emptyIfMissing:
		node, err = c.resolver.Resolve(ctx, u.Destination, remote.HintFolder)
		if errors.Is(err, remote.ErrNotFound) {
			node, err = nil, nil
		}
	default:
		node, err = c.resolver.Resolve(ctx, u.Destination, remote.HintFolder)
	}
	if err != nil {
		return nil, nil, err
	}
	return sync.NewLocalTree(c.local, dir), sync.NewRemoteTree(c.store, node, u.Destination), nil
}
