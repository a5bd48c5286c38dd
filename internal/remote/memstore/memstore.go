// Package memstore is an in-memory remote.Store. It backs the development
// server and the tests of every package that talks to a remote store.
package memstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gadget1999/gobox/internal/remote"
)

// Hooks let tests fail or observe individual operations.
type Hooks struct {
	BeforeUpload func(req *remote.UploadRequest) error
	BeforeRemove func(node *remote.Node) error
}

type item struct {
	node     remote.Node
	content  []byte
	children map[string]string // name -> id
}

type Store struct {
	mu     sync.RWMutex
	items  map[string]*item
	nextID int
	calls  map[string]int
	hooks  Hooks
	now    func() time.Time
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	s := &Store{
		items:  make(map[string]*item),
		nextID: 1,
		calls:  make(map[string]int),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	s.items[remote.RootID] = &item{
		node:     remote.Node{ID: remote.RootID, Name: "All Files", Kind: remote.KindFolder, ModifiedAt: s.now()},
		children: make(map[string]string),
	}
	return s
}

// SetHooks replaces the operation hooks.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Calls returns how many times each operation ran.
func (s *Store) Calls() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

// TotalCalls returns the number of operations that ran.
func (s *Store) TotalCalls() int {
	total := 0
	for _, v := range s.Calls() {
		total += v
	}
	return total
}

func (s *Store) HashAlgo() string { return "sha1" }

func (s *Store) Get(_ context.Context, id string, kind remote.Kind) (*remote.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get"]++
	it, ok := s.items[id]
	if !ok || it.node.Kind != kind {
		return nil, fmt.Errorf("%s %s: %w", kind, id, remote.ErrNotFound)
	}
	n := it.node
	return &n, nil
}

func (s *Store) List(_ context.Context, folderID string, params remote.ListParams) (*remote.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["list"]++
	dir, err := s.folder(folderID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dir.children))
	for name := range dir.children {
		names = append(names, name)
	}
	sort.Strings(names)

	offset, limit := 0, 100
	if params.Offset != nil {
		offset = *params.Offset
	}
	if params.Limit != nil {
		limit = *params.Limit
	}
	page := &remote.Page{TotalCount: len(names), Offset: offset, Limit: limit, Entries: []*remote.Node{}}
	for i := offset; i < len(names) && i < offset+limit; i++ {
		n := s.items[dir.children[names[i]]].node
		page.Entries = append(page.Entries, &n)
	}
	return page, nil
}

func (s *Store) Mkdir(_ context.Context, parentID, name string) (*remote.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["mkdir"]++
	parent, err := s.folder(parentID)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[name]; exists {
		return nil, fmt.Errorf("%s: %w", name, remote.ErrAlreadyExists)
	}
	it := &item{
		node:     remote.Node{ID: s.newID(), Name: name, Kind: remote.KindFolder, ParentID: parentID, ModifiedAt: s.now()},
		children: make(map[string]string),
	}
	s.items[it.node.ID] = it
	parent.children[name] = it.node.ID
	n := it.node
	return &n, nil
}

func (s *Store) Rename(_ context.Context, node *remote.Node, name string) (*remote.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["rename"]++
	it, err := s.lookup(node)
	if err != nil {
		return nil, err
	}
	parent := s.items[it.node.ParentID]
	if _, exists := parent.children[name]; exists {
		return nil, fmt.Errorf("%s: %w", name, remote.ErrAlreadyExists)
	}
	delete(parent.children, it.node.Name)
	it.node.Name = name
	parent.children[name] = it.node.ID
	n := it.node
	return &n, nil
}

func (s *Store) Move(_ context.Context, node *remote.Node, parentID string) (*remote.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["move"]++
	it, err := s.lookup(node)
	if err != nil {
		return nil, err
	}
	dst, err := s.folder(parentID)
	if err != nil {
		return nil, err
	}
	if _, exists := dst.children[it.node.Name]; exists {
		return nil, fmt.Errorf("%s: %w", it.node.Name, remote.ErrAlreadyExists)
	}
	for p := parentID; p != ""; p = s.items[p].node.ParentID {
		if p == it.node.ID {
			return nil, fmt.Errorf("move %s into itself: %w", it.node.Name, remote.ErrTypeMismatch)
		}
	}
	delete(s.items[it.node.ParentID].children, it.node.Name)
	it.node.ParentID = parentID
	dst.children[it.node.Name] = it.node.ID
	n := it.node
	return &n, nil
}

func (s *Store) Remove(_ context.Context, node *remote.Node, recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["remove"]++
	if s.hooks.BeforeRemove != nil {
		if err := s.hooks.BeforeRemove(node); err != nil {
			return err
		}
	}
	it, err := s.lookup(node)
	if err != nil {
		return err
	}
	if it.node.ID == remote.RootID {
		return fmt.Errorf("remove root folder: %w", remote.ErrTypeMismatch)
	}
	if it.node.Kind == remote.KindFolder && len(it.children) > 0 && !recursive {
		return fmt.Errorf("%s: %w", it.node.Name, remote.ErrNotEmpty)
	}
	delete(s.items[it.node.ParentID].children, it.node.Name)
	s.drop(it)
	return nil
}

func (s *Store) Download(_ context.Context, node *remote.Node, w io.Writer) error {
	s.mu.Lock()
	s.calls["download"]++
	it, err := s.lookup(node)
	var content []byte
	if err == nil {
		content = it.content
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if it.node.Kind != remote.KindFile {
		return fmt.Errorf("download %s: %w", it.node.Name, remote.ErrTypeMismatch)
	}
	_, err = io.Copy(w, bytes.NewReader(content))
	return err
}

func (s *Store) Upload(_ context.Context, req *remote.UploadRequest) (*remote.Node, error) {
	s.mu.Lock()
	hooks := s.hooks
	s.calls["upload"]++
	s.mu.Unlock()

	if hooks.BeforeUpload != nil {
		if err := hooks.BeforeUpload(req); err != nil {
			return nil, err
		}
	}

	content, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	sum := sha1.Sum(content)
	modTime := req.ModTime.UTC().Truncate(time.Second)
	if req.ModTime.IsZero() {
		modTime = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Existing != nil {
		it, err := s.lookup(req.Existing)
		if err != nil {
			return nil, err
		}
		if it.node.Kind != remote.KindFile {
			return nil, fmt.Errorf("upload version of %s: %w", it.node.Name, remote.ErrTypeMismatch)
		}
		it.content = content
		it.node.Size = int64(len(content))
		it.node.Hash = hex.EncodeToString(sum[:])
		it.node.ModifiedAt = modTime
		n := it.node
		return &n, nil
	}

	parent, err := s.folder(req.ParentID)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[req.Name]; exists {
		return nil, fmt.Errorf("%s: %w", req.Name, remote.ErrAlreadyExists)
	}
	it := &item{
		node: remote.Node{
			ID:         s.newID(),
			Name:       req.Name,
			Kind:       remote.KindFile,
			ParentID:   req.ParentID,
			Size:       int64(len(content)),
			Hash:       hex.EncodeToString(sum[:]),
			ModifiedAt: modTime,
		},
		content: content,
	}
	s.items[it.node.ID] = it
	parent.children[req.Name] = it.node.ID
	n := it.node
	return &n, nil
}

func (s *Store) AccountInfo(_ context.Context) (*remote.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["account"]++
	var used int64
	for _, it := range s.items {
		used += int64(len(it.content))
	}
	return &remote.Account{ID: "1", Name: "Dev User", Login: "dev@example.com", SpaceUsed: used, SpaceTotal: 10 << 30}, nil
}

func (s *Store) newID() string {
	id := strconv.Itoa(s.nextID)
	s.nextID++
	return id
}

func (s *Store) folder(id string) (*item, error) {
	it, ok := s.items[id]
	if !ok || it.node.Kind != remote.KindFolder {
		return nil, fmt.Errorf("folder %s: %w", id, remote.ErrNotFound)
	}
	return it, nil
}

func (s *Store) lookup(node *remote.Node) (*item, error) {
	if node == nil {
		return nil, remote.ErrNotFound
	}
	it, ok := s.items[node.ID]
	if !ok || it.node.Kind != node.Kind {
		return nil, fmt.Errorf("%s %s: %w", node.Kind, node.ID, remote.ErrNotFound)
	}
	return it, nil
}

func (s *Store) drop(it *item) {
	for _, id := range it.children {
		s.drop(s.items[id])
	}
	delete(s.items, it.node.ID)
}
