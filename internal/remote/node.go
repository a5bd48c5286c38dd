// Package remote defines the remote storage capability gobox works against and
// the resolver that turns user supplied names, paths and ids into nodes.
package remote

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// RootID is the id of the top level folder.
const RootID = "0"

var (
	ErrNotFound      = errors.New("remote: not found")
	ErrNotEmpty      = errors.New("remote: folder not empty")
	ErrAlreadyExists = errors.New("remote: item already exists")
	ErrTypeMismatch  = errors.New("remote: unexpected item type")
)

// Kind is the node type as reported by the store.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Hint narrows resolution to one node kind.
type Hint int

const (
	HintAny Hint = iota
	HintFile
	HintFolder
)

func (h Hint) String() string {
	switch h {
	case HintFile:
		return "f"
	case HintFolder:
		return "d"
	default:
		return "unspecified"
	}
}

// Accepts reports whether a node of kind k satisfies the hint.
func (h Hint) Accepts(k Kind) bool {
	switch h {
	case HintFile:
		return k == KindFile
	case HintFolder:
		return k == KindFolder
	default:
		return true
	}
}

// Node is a file or folder on the remote store.
type Node struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Kind       Kind      `json:"type" yaml:"type"`
	ParentID   string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Size       int64     `json:"size" yaml:"size"`
	Hash       string    `json:"hash,omitempty" yaml:"hash,omitempty"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
}

func (n *Node) IsFile() bool { return n.Kind == KindFile }

// ListParams are the optional list parameters. Absent values are not sent.
type ListParams struct {
	Limit  *int
	Offset *int
	Fields []string
}

// Query renders the params as query values, leaving out nil ones.
func (p ListParams) Query() map[string]string {
	q := make(map[string]string)
	if p.Limit != nil {
		q["limit"] = strconv.Itoa(*p.Limit)
	}
	if p.Offset != nil {
		q["offset"] = strconv.Itoa(*p.Offset)
	}
	if len(p.Fields) > 0 {
		q["fields"] = strings.Join(p.Fields, ",")
	}
	return q
}

// Page is one page of folder entries.
type Page struct {
	TotalCount int     `json:"total_count" yaml:"total_count"`
	Offset     int     `json:"offset" yaml:"offset"`
	Limit      int     `json:"limit" yaml:"limit"`
	Entries    []*Node `json:"entries" yaml:"entries"`
}

// Account describes the owner of the store credentials.
type Account struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Login      string `json:"login" yaml:"login"`
	SpaceUsed  int64  `json:"space_used" yaml:"space_used"`
	SpaceTotal int64  `json:"space_amount" yaml:"space_amount"`
}
