package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"
	"time"

	"github.com/gadget1999/gobox/internal/remote"
)

// RemoteTree is a folder, or a single file, on a remote store. Walk records
// the node behind every path so apply works on ids without listing again. A
// nil root walks as an empty tree; dry runs use it for folders that do not
// exist yet.
type RemoteTree struct {
	store remote.Store
	root  *remote.Node
	label string

	dirs  map[string]*remote.Node
	files map[string]*remote.Node
}

var _ Tree = (*RemoteTree)(nil)

func NewRemoteTree(store remote.Store, root *remote.Node, label string) *RemoteTree {
	t := &RemoteTree{
		store: store,
		root:  root,
		label: label,
		dirs:  make(map[string]*remote.Node),
		files: make(map[string]*remote.Node),
	}
	if root != nil {
		if root.IsFile() {
			t.files["/"] = root
		} else {
			t.dirs["/"] = root
		}
	}
	return t
}

func (t *RemoteTree) Side() Side         { return SideRemote }
func (t *RemoteTree) Root() string       { return t.label }
func (t *RemoteTree) NativeHash() string { return t.store.HashAlgo() }

func (t *RemoteTree) CanHash(algo string) bool {
	return algo != "" && algo == t.store.HashAlgo()
}

func (t *RemoteTree) Walk(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if t.root == nil {
			return
		}
		if t.root.IsFile() {
			yield(nodeEntry("/", t.root), nil)
			return
		}
		t.walkDir(ctx, "/", t.root, yield)
	}
}

func (t *RemoteTree) walkDir(ctx context.Context, rel string, dir *remote.Node, yield func(Entry, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield(Entry{}, err)
		return false
	}
	children, err := remote.ListAll(ctx, t.store, dir.ID)
	if err != nil {
		yield(Entry{}, fmt.Errorf("list %s: %w", t.display(rel), err))
		return false
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	for _, c := range children {
		childRel := joinRel(rel, c.Name)
		if c.IsFile() {
			t.files[childRel] = c
		} else {
			t.dirs[childRel] = c
		}
		if !yield(nodeEntry(childRel, c), nil) {
			return false
		}
		if !c.IsFile() && !t.walkDir(ctx, childRel, c, yield) {
			return false
		}
	}
	return true
}

func nodeEntry(rel string, n *remote.Node) Entry {
	e := Entry{Path: rel, IsDir: !n.IsFile(), ModTime: n.ModifiedAt}
	if n.IsFile() {
		e.Size = n.Size
		e.Hash = n.Hash
	}
	return e
}

func (t *RemoteTree) Fingerprint(_ context.Context, e Entry, algo string) (Fingerprint, error) {
	fp := Fingerprint{Size: e.Size, ModTime: e.ModTime}
	if algo == "" {
		return fp, nil
	}
	if !t.CanHash(algo) {
		return fp, fmt.Errorf("%s hash not available for %s", algo, t.display(e.Path))
	}
	fp.Algo, fp.Hash = algo, e.Hash
	return fp, nil
}

func (t *RemoteTree) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	node, ok := t.files[rel]
	if !ok {
		return nil, fmt.Errorf("%s: %w", t.display(rel), remote.ErrNotFound)
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(t.store.Download(ctx, node, pw))
	}()
	return pr, nil
}

func (t *RemoteTree) Mkdir(ctx context.Context, rel string) error {
	_, err := t.ensureDir(ctx, rel)
	return err
}

func (t *RemoteTree) ensureDir(ctx context.Context, rel string) (*remote.Node, error) {
	if node, ok := t.dirs[rel]; ok {
		return node, nil
	}
	if rel == "/" {
		return nil, fmt.Errorf("%s: %w", t.label, remote.ErrNotFound)
	}
	parent, err := t.ensureDir(ctx, parentRel(rel))
	if err != nil {
		return nil, err
	}
	name := baseRel(rel)
	node, err := t.store.Mkdir(ctx, parent.ID, name)
	if errors.Is(err, remote.ErrAlreadyExists) {
		node, err = findChild(ctx, t.store, parent.ID, name, remote.KindFolder)
	}
	if err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", t.display(rel), err)
	}
	t.dirs[rel] = node
	return node, nil
}

func (t *RemoteTree) Write(ctx context.Context, rel string, r io.Reader, size int64, modTime time.Time) error {
	req := &remote.UploadRequest{Body: r, Size: size, ModTime: modTime, Name: baseRel(rel)}
	if existing, ok := t.files[rel]; ok {
		req.Existing = existing
		req.ParentID = existing.ParentID
	} else {
		parent, err := t.ensureDir(ctx, parentRel(rel))
		if err != nil {
			return err
		}
		req.ParentID = parent.ID
	}
	node, err := t.store.Upload(ctx, req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", t.display(rel), err)
	}
	t.files[rel] = node
	return nil
}

func (t *RemoteTree) Remove(ctx context.Context, rel string, isDir bool) error {
	nodes := t.files
	if isDir {
		nodes = t.dirs
	}
	node, ok := nodes[rel]
	if !ok || rel == "/" {
		return fmt.Errorf("%s: %w", t.display(rel), remote.ErrNotFound)
	}
	if err := t.store.Remove(ctx, node, isDir); err != nil {
		return fmt.Errorf("remove %s: %w", t.display(rel), err)
	}
	delete(nodes, rel)
	return nil
}

func (t *RemoteTree) display(rel string) string {
	if rel == "/" {
		return t.label
	}
	return t.label + rel
}

func findChild(ctx context.Context, store remote.Store, parentID, name string, kind remote.Kind) (*remote.Node, error) {
	children, err := remote.ListAll(ctx, store, parentID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.Name == name && c.Kind == kind {
			return c, nil
		}
	}
	return nil, remote.ErrNotFound
}

func baseRel(p string) string {
	parts := splitRel(p)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
