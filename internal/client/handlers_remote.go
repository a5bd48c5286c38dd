package client

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/remote"
)

func (c *Client) list(ctx context.Context, u action.Unit, spec *action.Spec, _ batch.Output) (any, error) {
	folder, err := c.resolver.Resolve(ctx, u.Source, remote.HintFolder)
	if err != nil {
		return nil, err
	}
	return c.store.List(ctx, folder.ID, remote.ListParams{
		Limit:  spec.List.Limit,
		Offset: spec.List.Offset,
		Fields: spec.List.Fields,
	})
}

func (c *Client) info(ctx context.Context, u action.Unit, spec *action.Spec, _ batch.Output) (any, error) {
	hint := remote.HintFolder
	if spec.Info.IsFile {
		hint = remote.HintFile
	}
	return c.resolver.Resolve(ctx, u.Source, hint)
}

func (c *Client) removeFile(ctx context.Context, u action.Unit, _ *action.Spec, _ batch.Output) (any, error) {
	node, err := c.resolver.Resolve(ctx, u.Source, remote.HintFile)
	if err != nil {
		return nil, err
	}
	defer c.resolver.Purge()
	return nil, c.store.Remove(ctx, node, false)
}

func (c *Client) removeDir(ctx context.Context, u action.Unit, spec *action.Spec, _ batch.Output) (any, error) {
	node, err := c.resolver.Resolve(ctx, u.Source, remote.HintFolder)
	if err != nil {
		return nil, err
	}
	if node.ID == remote.RootID {
		return nil, fmt.Errorf("refusing to remove the root folder")
	}
	defer c.resolver.Purge()
	return nil, c.store.Remove(ctx, node, spec.Remove.Recursive)
}

// mkdir creates a folder below --chdir, including missing parents. An
// existing folder is an error.
func (c *Client) mkdir(ctx context.Context, u action.Unit, spec *action.Spec, _ batch.Output) (any, error) {
	parent, err := c.remoteFolder(ctx, spec.Mkdir.Chdir)
	if err != nil {
		return nil, err
	}
	names := strings.Split(strings.Trim(path.Clean("/"+u.Source), "/"), "/")
	if len(names) == 1 && names[0] == "" {
		return nil, fmt.Errorf("mkdir: empty folder name")
	}

	cur := parent
	for i, name := range names {
		child, err := remote.ListAll(ctx, c.store, cur.ID)
		if err != nil {
			return nil, err
		}
		next := findByName(child, name)
		last := i == len(names)-1
		switch {
		case next != nil && next.IsFile():
			return nil, fmt.Errorf("%s: %w", name, remote.ErrTypeMismatch)
		case next != nil && last:
			return nil, fmt.Errorf("%s: %w", u.Source, remote.ErrAlreadyExists)
		case next == nil:
			next, err = c.store.Mkdir(ctx, cur.ID, name)
			if err != nil {
				return nil, err
			}
			c.logger.Debug("created folder", "name", name, "id", next.ID, "parent", cur.ID)
		}
		cur = next
	}
	c.resolver.Purge()
	return cur, nil
}

func (c *Client) rename(hint remote.Hint) batch.Handler {
	return func(ctx context.Context, u action.Unit, _ *action.Spec, _ batch.Output) (any, error) {
		if u.Destination == "" || strings.Contains(u.Destination, "/") {
			return nil, fmt.Errorf("invalid new name %q", u.Destination)
		}
		node, err := c.resolver.Resolve(ctx, u.Source, hint)
		if err != nil {
			return nil, err
		}
		defer c.resolver.Purge()
		return c.store.Rename(ctx, node, u.Destination)
	}
}

func (c *Client) move(hint remote.Hint) batch.Handler {
	return func(ctx context.Context, u action.Unit, _ *action.Spec, _ batch.Output) (any, error) {
		node, err := c.resolver.Resolve(ctx, u.Source, hint)
		if err != nil {
			return nil, err
		}
		dst, err := c.resolver.Resolve(ctx, u.Destination, remote.HintFolder)
		if err != nil {
			return nil, err
		}
		defer c.resolver.Purge()
		return c.store.Move(ctx, node, dst.ID)
	}
}

func findByName(nodes []*remote.Node, name string) *remote.Node {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}
