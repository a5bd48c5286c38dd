package remote

import (
	"context"
	"io"
	"time"
)

// Store is the remote storage capability. Implementations are keyed by node
// id; rename, move and remove are not polymorphic over node kind, callers pass
// the resolved node.
type Store interface {
	// Get returns the node with the given id and kind.
	Get(ctx context.Context, id string, kind Kind) (*Node, error)
	// List returns one page of the folder's children.
	List(ctx context.Context, folderID string, params ListParams) (*Page, error)
	Mkdir(ctx context.Context, parentID, name string) (*Node, error)
	Rename(ctx context.Context, node *Node, name string) (*Node, error)
	Move(ctx context.Context, node *Node, parentID string) (*Node, error)
	// Remove deletes a file, or a folder. Non-empty folders need recursive.
	Remove(ctx context.Context, node *Node, recursive bool) error
	Download(ctx context.Context, node *Node, w io.Writer) error
	Upload(ctx context.Context, req *UploadRequest) (*Node, error)
	AccountInfo(ctx context.Context) (*Account, error)
	// HashAlgo names the content hash the store reports in Node.Hash, or ""
	// when none is available.
	HashAlgo() string
}

// UploadRequest creates a new file, or a new version of Existing when set.
type UploadRequest struct {
	ParentID string
	Name     string
	Body     io.Reader
	Size     int64
	ModTime  time.Time
	Existing *Node
}

// DefaultPageSize is used when a caller walks a folder page by page.
const DefaultPageSize = 1000

// ListAll returns every child of a folder, following pages.
func ListAll(ctx context.Context, store Store, folderID string) ([]*Node, error) {
	var out []*Node
	limit := DefaultPageSize
	offset := 0
	for {
		o := offset
		page, err := store.List(ctx, folderID, ListParams{Limit: &limit, Offset: &o})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Entries...)
		offset += len(page.Entries)
		if len(page.Entries) == 0 || offset >= page.TotalCount {
			return out, nil
		}
	}
}
