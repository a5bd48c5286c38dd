// Package action turns the mode flags and positional arguments of a gobox
// invocation into a resolved action and a list of units to run it on.
package action

import "fmt"

// ID names one action a batch can run. The set is closed; every ID has a
// handler registered by the client package.
type ID string

const (
	List         ID = "list"
	Info         ID = "get_file_info"
	RemoveFile   ID = "remove"
	RemoveDir    ID = "rmdir"
	Mkdir        ID = "mkdir"
	RenameFile   ID = "rename_file"
	RenameDir    ID = "rename_dir"
	MoveFile     ID = "move_file"
	MoveDir      ID = "move_dir"
	DownloadFile ID = "download_file"
	DownloadDir  ID = "download_dir"
	Upload       ID = "upload"
	CompareFile  ID = "compare_file"
	CompareDir   ID = "compare_dir"
	Push         ID = "push"
	Pull         ID = "pull"
)

// All lists every action ID in a stable order.
var All = []ID{
	List, Info, RemoveFile, RemoveDir, Mkdir,
	RenameFile, RenameDir, MoveFile, MoveDir,
	DownloadFile, DownloadDir, Upload,
	CompareFile, CompareDir, Push, Pull,
}

func (id ID) String() string { return string(id) }

// Target is the node kind requested with --target.
type Target string

const (
	TargetUnset Target = ""
	TargetFile  Target = "f"
	TargetDir   Target = "d"
)

// ParseTarget validates the value of --target.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetUnset, TargetFile, TargetDir:
		return Target(s), nil
	default:
		return TargetUnset, &UsageError{Msg: fmt.Sprintf("invalid target %q (f for file, d for directory)", s)}
	}
}

// ListOptions holds the optional paging parameters of a list call. Nil fields
// are left out of the request so the store applies its own defaults.
type ListOptions struct {
	Limit  *int
	Offset *int
	Fields []string
}

// InfoOptions selects between file and folder metadata.
type InfoOptions struct {
	IsFile bool
}

// RemoveOptions applies to remove_dir only.
type RemoveOptions struct {
	Recursive bool
}

// MkdirOptions holds the remote parent folder new folders are created in.
type MkdirOptions struct {
	Chdir string
}

// TransferOptions applies to download and upload.
type TransferOptions struct {
	Chdir    string
	Excludes Excludes
	Verbose  bool
}

// SyncOptions applies to compare, push and pull.
type SyncOptions struct {
	Chdir          string
	Excludes       Excludes
	Delete         bool
	DeleteExcluded bool
	DryRun         bool
	Verbose        bool
}

// Excludes carries the raw exclusion flags; the sync package compiles them.
type Excludes struct {
	Pattern string
	Glob    string
	From    string
}

// Empty reports whether no exclusion was requested.
func (e Excludes) Empty() bool {
	return e.Pattern == "" && e.Glob == "" && e.From == ""
}

// Spec is the resolved action for one invocation. Each action reads only the
// option struct that belongs to it.
type Spec struct {
	ID       ID
	Binary   bool
	List     ListOptions
	Info     InfoOptions
	Remove   RemoveOptions
	Mkdir    MkdirOptions
	Transfer TransferOptions
	Sync     SyncOptions
}
