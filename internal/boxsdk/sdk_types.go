package boxsdk

import (
	"time"

	"github.com/gadget1999/gobox/internal/remote"
)

const (
	TypeFile   = "file"
	TypeFolder = "folder"
	TypeUser   = "user"
)

// DefaultFields are requested when listing a folder without explicit
// fields, so entries carry what the sync engine compares.
var DefaultFields = []string{"type", "id", "name", "size", "sha1", "modified_at", "content_modified_at", "parent"}

type ItemRef struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`
}

// Item is a file or folder as returned by the API.
type Item struct {
	Type              string     `json:"type"`
	ID                string     `json:"id"`
	Name              string     `json:"name,omitempty"`
	Size              int64      `json:"size,omitempty"`
	SHA1              string     `json:"sha1,omitempty"`
	ModifiedAt        *time.Time `json:"modified_at,omitempty"`
	ContentModifiedAt *time.Time `json:"content_modified_at,omitempty"`
	Parent            *ItemRef   `json:"parent,omitempty"`
}

// Node converts the item. Files report their content mtime.
func (i *Item) Node() *remote.Node {
	n := &remote.Node{
		ID:   i.ID,
		Name: i.Name,
		Kind: remote.KindFolder,
		Size: i.Size,
		Hash: i.SHA1,
	}
	if i.Type == TypeFile {
		n.Kind = remote.KindFile
	}
	if i.Parent != nil {
		n.ParentID = i.Parent.ID
	}
	switch {
	case i.ContentModifiedAt != nil:
		n.ModifiedAt = i.ContentModifiedAt.UTC()
	case i.ModifiedAt != nil:
		n.ModifiedAt = i.ModifiedAt.UTC()
	}
	return n
}

// ItemFromNode is the inverse of Item.Node.
func ItemFromNode(n *remote.Node) *Item {
	it := &Item{
		Type: TypeFolder,
		ID:   n.ID,
		Name: n.Name,
		Size: n.Size,
		SHA1: n.Hash,
	}
	if n.IsFile() {
		it.Type = TypeFile
	}
	if n.ParentID != "" {
		it.Parent = &ItemRef{Type: TypeFolder, ID: n.ParentID}
	}
	if !n.ModifiedAt.IsZero() {
		t := n.ModifiedAt
		it.ModifiedAt = &t
		if n.IsFile() {
			it.ContentModifiedAt = &t
		}
	}
	return it
}

type ItemCollection struct {
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
	Entries    []*Item `json:"entries"`
}

func (c *ItemCollection) Page() *remote.Page {
	page := &remote.Page{
		TotalCount: c.TotalCount,
		Offset:     c.Offset,
		Limit:      c.Limit,
		Entries:    make([]*remote.Node, 0, len(c.Entries)),
	}
	for _, it := range c.Entries {
		page.Entries = append(page.Entries, it.Node())
	}
	return page
}

type User struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Login       string `json:"login"`
	SpaceAmount int64  `json:"space_amount"`
	SpaceUsed   int64  `json:"space_used"`
}

func (u *User) Account() *remote.Account {
	return &remote.Account{
		ID:         u.ID,
		Name:       u.Name,
		Login:      u.Login,
		SpaceUsed:  u.SpaceUsed,
		SpaceTotal: u.SpaceAmount,
	}
}

type CreateFolderRequest struct {
	Name   string  `json:"name"`
	Parent ItemRef `json:"parent"`
}

// UpdateItemRequest renames and/or moves an item.
type UpdateItemRequest struct {
	Name   string   `json:"name,omitempty"`
	Parent *ItemRef `json:"parent,omitempty"`
}

// UploadAttributes is the "attributes" part of an upload.
type UploadAttributes struct {
	Name              string     `json:"name,omitempty"`
	Parent            *ItemRef   `json:"parent,omitempty"`
	ContentModifiedAt *time.Time `json:"content_modified_at,omitempty"`
}
