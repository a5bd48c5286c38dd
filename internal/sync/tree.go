// Package sync reconciles a local directory tree with a remote folder. Both
// sides are walked lazily in name order and merged by relative path; the
// result is a plan of transfers and deletes that push and pull apply and
// compare prints as a diff.
package sync

import (
	"context"
	"io"
	"iter"
	"strings"
	"time"
)

// Side tells which store a tree lives on.
type Side int

const (
	SideLocal Side = iota
	SideRemote
)

func (s Side) String() string {
	if s == SideRemote {
		return "remote"
	}
	return "local"
}

// Entry is one file or folder of a tree. Path is relative to the tree root
// and always starts with "/". A tree rooted at a single file yields one entry
// with Path "/".
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	// Hash is set when the store reports it without extra I/O.
	Hash string
}

// Fingerprint summarizes a file for change detection. Algo is empty when
// the two sides share no hash algorithm.
type Fingerprint struct {
	Size    int64
	ModTime time.Time
	Algo    string
	Hash    string
}

// Tree is one side of a reconciliation.
type Tree interface {
	Side() Side
	// Root describes the tree root for log lines.
	Root() string
	// Walk yields every entry below the root in depth-first pre-order with
	// the children of each folder sorted by name. The tree is listed once.
	Walk(ctx context.Context) iter.Seq2[Entry, error]
	// NativeHash names the hash the tree reports in Entry.Hash, or "".
	NativeHash() string
	// CanHash reports whether Fingerprint can produce the given hash.
	CanHash(algo string) bool
	Fingerprint(ctx context.Context, e Entry, algo string) (Fingerprint, error)
	Open(ctx context.Context, rel string) (io.ReadCloser, error)
	// Mkdir creates the folder and any missing parents.
	Mkdir(ctx context.Context, rel string) error
	// Write creates or replaces a file, creating missing parents.
	Write(ctx context.Context, rel string, r io.Reader, size int64, modTime time.Time) error
	// Remove deletes a file, or a folder with everything below it.
	Remove(ctx context.Context, rel string, isDir bool) error
}

// comparePaths orders relative paths component by component, which is the
// order a pre-order walk with name sorted children produces.
func comparePaths(a, b string) int {
	as := splitRel(a)
	bs := splitRel(b)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func splitRel(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// joinRel appends a child name to a relative path.
func joinRel(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// parentRel returns the parent of a relative path, "/" for top level entries.
func parentRel(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// isUnder reports whether p is a strict descendant of dir.
func isUnder(p, dir string) bool {
	if dir == "/" {
		return p != "/"
	}
	return strings.HasPrefix(p, dir+"/")
}

// ancestors returns the strict ancestors of p, excluding the root.
func ancestors(p string) []string {
	var out []string
	for q := parentRel(p); q != "/"; q = parentRel(q) {
		out = append(out, q)
	}
	return out
}
