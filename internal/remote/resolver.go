package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultResolverCacheSize = 4096

// Resolver maps user supplied references to nodes. A reference is either a
// numeric id or a slash separated path from the root folder. With plain names
// numeric references are treated as names too.
type Resolver struct {
	store  Store
	plain  bool
	cache  *lru.Cache[string, *Node]
	logger *slog.Logger
}

type ResolverOption func(*Resolver)

// WithPlainNames disables id lookups for numeric references.
func WithPlainNames(plain bool) ResolverOption {
	return func(r *Resolver) { r.plain = plain }
}

func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	cache, _ := lru.New[string, *Node](defaultResolverCacheSize)
	r := &Resolver{store: store, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store.
func (r *Resolver) Store() Store { return r.store }

// Purge drops every cached path. Callers purge after mutating the store.
func (r *Resolver) Purge() { r.cache.Purge() }

// Resolve returns the node ref points at, restricted to the hinted kind.
func (r *Resolver) Resolve(ctx context.Context, ref string, hint Hint) (*Node, error) {
	ref = strings.TrimSpace(ref)
	if !r.plain && isID(ref) {
		return r.byID(ctx, ref, hint)
	}
	return r.byPath(ctx, ref, hint)
}

// ResolveOrCreateFolder resolves a folder path, creating missing components.
func (r *Resolver) ResolveOrCreateFolder(ctx context.Context, ref string) (*Node, error) {
	ref = strings.TrimSpace(ref)
	if !r.plain && isID(ref) {
		return r.byID(ctx, ref, HintFolder)
	}

	cur, err := r.root(ctx)
	if err != nil {
		return nil, err
	}
	prefix := ""
	for _, name := range splitPath(ref) {
		prefix += "/" + name
		child, err := r.child(ctx, cur, name, HintFolder)
		if errors.Is(err, ErrNotFound) {
			child, err = r.store.Mkdir(ctx, cur.ID, name)
			switch {
			case errors.Is(err, ErrAlreadyExists):
				// created concurrently by another unit
				child, err = r.child(ctx, cur, name, HintFolder)
			case err != nil:
				return nil, fmt.Errorf("create folder %s: %w", prefix, err)
			default:
				r.logger.Debug("resolver created folder", "path", prefix, "id", child.ID)
			}
		}
		if err != nil {
			return nil, err
		}
		r.cache.Add(prefix, child)
		cur = child
	}
	return cur, nil
}

func (r *Resolver) byID(ctx context.Context, id string, hint Hint) (*Node, error) {
	switch hint {
	case HintFile:
		return r.store.Get(ctx, id, KindFile)
	case HintFolder:
		return r.store.Get(ctx, id, KindFolder)
	}
	node, err := r.store.Get(ctx, id, KindFile)
	if errors.Is(err, ErrNotFound) {
		return r.store.Get(ctx, id, KindFolder)
	}
	return node, err
}

func (r *Resolver) byPath(ctx context.Context, ref string, hint Hint) (*Node, error) {
	names := splitPath(ref)
	if len(names) == 0 {
		if hint == HintFile {
			return nil, fmt.Errorf("%s: %w", ref, ErrTypeMismatch)
		}
		return r.root(ctx)
	}

	key := "/" + strings.Join(names, "/")
	if node, ok := r.cache.Get(key); ok && hint.Accepts(node.Kind) {
		return node, nil
	}

	cur, err := r.root(ctx)
	if err != nil {
		return nil, err
	}
	prefix := ""
	for i, name := range names {
		prefix += "/" + name
		h := HintFolder
		if i == len(names)-1 {
			h = hint
		}
		if node, ok := r.cache.Get(prefix); ok && h.Accepts(node.Kind) {
			cur = node
			continue
		}
		child, err := r.child(ctx, cur, name, h)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", prefix, err)
		}
		r.cache.Add(prefix, child)
		cur = child
	}
	return cur, nil
}

func (r *Resolver) root(ctx context.Context) (*Node, error) {
	if node, ok := r.cache.Get("/"); ok {
		return node, nil
	}
	node, err := r.store.Get(ctx, RootID, KindFolder)
	if err != nil {
		return nil, fmt.Errorf("get root folder: %w", err)
	}
	r.cache.Add("/", node)
	return node, nil
}

func (r *Resolver) child(ctx context.Context, parent *Node, name string, hint Hint) (*Node, error) {
	children, err := ListAll(ctx, r.store, parent.ID)
	if err != nil {
		return nil, err
	}
	var mismatch bool
	for _, c := range children {
		if c.Name != name {
			continue
		}
		if hint.Accepts(c.Kind) {
			return c, nil
		}
		mismatch = true
	}
	if mismatch {
		return nil, ErrTypeMismatch
	}
	return nil, ErrNotFound
}

func splitPath(p string) []string {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(clean, "/"), "/")
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
