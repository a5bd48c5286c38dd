package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gadget1999/gobox/internal/action"
	"github.com/gadget1999/gobox/internal/batch"
	"github.com/gadget1999/gobox/internal/local"
	"github.com/gadget1999/gobox/internal/remote"
	"github.com/gadget1999/gobox/internal/sync"
)

// downloadFile writes a remote file into --chdir, or the work dir.
func (c *Client) downloadFile(ctx context.Context, u action.Unit, spec *action.Spec, _ batch.Output) (any, error) {
	node, err := c.resolver.Resolve(ctx, u.Source, remote.HintFile)
	if err != nil {
		return nil, err
	}
	dst, err := c.localPath(node.Name, spec.Transfer.Chdir)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(c.store.Download(ctx, node, pw))
	}()
	n, err := c.local.Write(ctx, dst, pr, node.ModifiedAt)
	pr.Close()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u.Source, err)
	}
	if spec.Transfer.Verbose {
		return fmt.Sprintf("downloaded %s (%s)", dst, humanize.Bytes(uint64(n))), nil
	}
	return nil, nil
}

// downloadDir mirrors a remote folder into <chdir>/<folder name> without
// deleting anything locally.
func (c *Client) downloadDir(ctx context.Context, u action.Unit, spec *action.Spec, out batch.Output) (any, error) {
	folder, err := c.resolver.Resolve(ctx, u.Source, remote.HintFolder)
	if err != nil {
		return nil, err
	}
	name := folder.Name
	if folder.ID == remote.RootID {
		name = ""
	}
	dst, err := c.localPath(name, spec.Transfer.Chdir)
	if err != nil {
		return nil, err
	}
	m, err := sync.NewMatcher(spec.Transfer.Excludes)
	if err != nil {
		return nil, err
	}

	src := sync.NewRemoteTree(c.store, folder, u.Source)
	_, err = c.engine.Run(ctx, src, sync.NewLocalTree(c.local, dst), sync.RunOptions{
		Policy: sync.Policy{Exclude: m},
	}, c.report(out, spec.Transfer.Verbose))
	return nil, err
}

// upload sends a local file, or a whole directory, into --chdir. An existing
// remote file of the same name gets a new version.
func (c *Client) upload(ctx context.Context, u action.Unit, spec *action.Spec, out batch.Output) (any, error) {
	src, err := c.localPath(u.Source, "")
	if err != nil {
		return nil, err
	}
	entry, err := c.local.Stat(ctx, src)
	if err != nil {
		return nil, err
	}
	chdir := spec.Transfer.Chdir
	if chdir == "" {
		chdir = "/"
	}

	if entry.IsDir {
		m, err := sync.NewMatcher(spec.Transfer.Excludes)
		if err != nil {
			return nil, err
		}
		target, err := c.resolver.ResolveOrCreateFolder(ctx, joinRemote(chdir, entry.Name))
		if err != nil {
			return nil, err
		}
		defer c.resolver.Purge()
		dst := sync.NewRemoteTree(c.store, target, joinRemote(chdir, entry.Name))
		_, err = c.engine.Run(ctx, sync.NewLocalTree(c.local, src), dst, sync.RunOptions{
			Policy: sync.Policy{Exclude: m},
		}, c.report(out, false))
		return nil, err
	}

	parent, err := c.resolver.ResolveOrCreateFolder(ctx, chdir)
	if err != nil {
		return nil, err
	}
	req := &remote.UploadRequest{ParentID: parent.ID, Name: entry.Name, Size: entry.Size, ModTime: entry.ModTime}
	existing, err := c.resolver.Resolve(ctx, joinRemote(chdir, entry.Name), remote.HintFile)
	switch {
	case err == nil:
		req.Existing = existing
	case !errors.Is(err, remote.ErrNotFound):
		return nil, err
	}

	f, err := c.local.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	req.Body = f

	defer c.resolver.Purge()
	return c.store.Upload(ctx, req)
}

func joinRemote(dir, name string) string {
	if dir == "/" || dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}

// localDir resolves a local path that must be a directory when it exists.
func (c *Client) localDir(ctx context.Context, p, base string, mustExist bool) (string, error) {
	dir, err := c.localPath(p, base)
	if err != nil {
		return "", err
	}
	e, err := c.local.Stat(ctx, dir)
	if errors.Is(err, local.ErrNotFound) && !mustExist {
		return dir, nil
	}
	if err != nil {
		return "", err
	}
	if !e.IsDir {
		return "", fmt.Errorf("%s is not a directory", filepath.Clean(dir))
	}
	return dir, nil
}
