package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/gadget1999/gobox/internal/local"
)

// LocalTree is a directory, or a single file, on the local filesystem. A
// missing root walks as an empty tree so pulls can create it.
type LocalTree struct {
	store *local.Store
	root  string
}

var _ Tree = (*LocalTree)(nil)

func NewLocalTree(store *local.Store, root string) *LocalTree {
	return &LocalTree{store: store, root: filepath.Clean(root)}
}

func (t *LocalTree) Side() Side         { return SideLocal }
func (t *LocalTree) Root() string       { return t.root }
func (t *LocalTree) NativeHash() string { return "" }

func (t *LocalTree) CanHash(algo string) bool {
	return algo == "sha1" || algo == "md5"
}

func (t *LocalTree) Walk(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		rootEntry, err := t.store.Stat(ctx, t.root)
		if errors.Is(err, local.ErrNotFound) {
			return
		}
		if err != nil {
			yield(Entry{}, err)
			return
		}
		if !rootEntry.IsDir {
			yield(t.entry("/", rootEntry), nil)
			return
		}
		t.walkDir(ctx, "/", yield)
	}
}

func (t *LocalTree) walkDir(ctx context.Context, rel string, yield func(Entry, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield(Entry{}, err)
		return false
	}
	children, err := t.store.List(ctx, t.abs(rel))
	if err != nil {
		yield(Entry{}, fmt.Errorf("list %s: %w", t.abs(rel), err))
		return false
	}
	for _, c := range children {
		childRel := joinRel(rel, c.Name)
		if !yield(t.entry(childRel, c), nil) {
			return false
		}
		if c.IsDir && !t.walkDir(ctx, childRel, yield) {
			return false
		}
	}
	return true
}

func (t *LocalTree) entry(rel string, e *local.Entry) Entry {
	return Entry{Path: rel, IsDir: e.IsDir, Size: e.Size, ModTime: e.ModTime}
}

func (t *LocalTree) Fingerprint(ctx context.Context, e Entry, algo string) (Fingerprint, error) {
	fp := Fingerprint{Size: e.Size, ModTime: e.ModTime}
	if algo == "" {
		return fp, nil
	}
	sum, err := t.store.Hash(ctx, &local.Entry{Path: t.abs(e.Path), Size: e.Size, ModTime: e.ModTime}, algo)
	if err != nil {
		return fp, err
	}
	fp.Algo, fp.Hash = algo, sum
	return fp, nil
}

func (t *LocalTree) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	return t.store.Open(ctx, t.abs(rel))
}

func (t *LocalTree) Mkdir(ctx context.Context, rel string) error {
	return t.store.Mkdir(ctx, t.abs(rel))
}

func (t *LocalTree) Write(ctx context.Context, rel string, r io.Reader, _ int64, modTime time.Time) error {
	_, err := t.store.Write(ctx, t.abs(rel), r, modTime)
	return err
}

func (t *LocalTree) Remove(ctx context.Context, rel string, _ bool) error {
	return t.store.Remove(ctx, t.abs(rel))
}

func (t *LocalTree) abs(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return t.root
	}
	return filepath.Join(t.root, filepath.FromSlash(rel))
}
