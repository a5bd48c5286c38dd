package action

import (
	"fmt"
	"strings"
)

// Mode is one of the mutually exclusive mode flags.
type Mode string

const (
	ModeList     Mode = "list"
	ModeInfo     Mode = "info"
	ModeRemove   Mode = "remove"
	ModeMkdir    Mode = "mkdir"
	ModeRename   Mode = "rename"
	ModeMove     Mode = "move"
	ModeDownload Mode = "download"
	ModeUpload   Mode = "upload"
	ModeCompare  Mode = "compare"
	ModePush     Mode = "push"
	ModePull     Mode = "pull"
)

// Binary reports whether the mode takes (source, destination) pairs.
func (m Mode) Binary() bool {
	switch m {
	case ModeRename, ModeMove, ModeCompare, ModePush, ModePull:
		return true
	}
	return false
}

// Modes mirrors the mode flags of the command line.
type Modes struct {
	List     bool
	Info     bool
	Remove   bool
	Mkdir    bool
	Rename   bool
	Move     bool
	Download bool
	Upload   bool
	Compare  bool
	Push     bool
	Pull     bool
}

// Selected returns the modes that are set, in flag order.
func (m Modes) Selected() []Mode {
	flags := []struct {
		set  bool
		mode Mode
	}{
		{m.List, ModeList},
		{m.Info, ModeInfo},
		{m.Remove, ModeRemove},
		{m.Mkdir, ModeMkdir},
		{m.Rename, ModeRename},
		{m.Move, ModeMove},
		{m.Download, ModeDownload},
		{m.Upload, ModeUpload},
		{m.Compare, ModeCompare},
		{m.Push, ModePush},
		{m.Pull, ModePull},
	}
	var out []Mode
	for _, f := range flags {
		if f.set {
			out = append(out, f.mode)
		}
	}
	return out
}

// Options holds every modifier flag. Resolve copies the ones relevant to the
// selected mode into the Spec and ignores the rest.
type Options struct {
	Limit          *int
	Offset         *int
	Fields         string
	Recursive      bool
	Chdir          string
	Excludes       Excludes
	DryRun         bool
	Delete         bool
	DeleteExcluded bool
	Verbose        bool
}

// Resolve maps the mode flags and target type to exactly one Spec. It performs
// no I/O and returns the same Spec for the same inputs.
func Resolve(modes Modes, target Target, opts Options) (*Spec, Mode, error) {
	selected := modes.Selected()
	switch len(selected) {
	case 0:
		return nil, "", &UsageError{Msg: "too few options"}
	case 1:
	default:
		names := make([]string, len(selected))
		for i, m := range selected {
			names[i] = string(m)
		}
		return nil, "", &UsageError{Msg: fmt.Sprintf("options %s are mutually exclusive", strings.Join(names, ", "))}
	}

	mode := selected[0]
	dir := target == TargetDir
	spec := &Spec{Binary: mode.Binary()}

	switch mode {
	case ModeRename:
		spec.ID = pick(dir, RenameDir, RenameFile)
	case ModeMove:
		spec.ID = pick(dir, MoveDir, MoveFile)
	case ModeList:
		spec.ID = List
		spec.List = ListOptions{
			Limit:  opts.Limit,
			Offset: opts.Offset,
			Fields: splitFields(opts.Fields),
		}
	case ModeInfo:
		spec.ID = Info
		spec.Info = InfoOptions{IsFile: !dir}
	case ModeRemove:
		if dir {
			spec.ID = RemoveDir
			spec.Remove = RemoveOptions{Recursive: opts.Recursive}
		} else {
			spec.ID = RemoveFile
		}
	case ModeMkdir:
		spec.ID = Mkdir
		spec.Mkdir = MkdirOptions{Chdir: opts.Chdir}
	case ModeDownload:
		spec.ID = pick(dir, DownloadDir, DownloadFile)
		spec.Transfer = TransferOptions{Chdir: opts.Chdir, Excludes: opts.Excludes, Verbose: opts.Verbose}
	case ModeUpload:
		spec.ID = Upload
		spec.Transfer = TransferOptions{Chdir: opts.Chdir, Excludes: opts.Excludes}
	case ModeCompare:
		spec.ID = pick(dir, CompareDir, CompareFile)
		spec.Sync = SyncOptions{Excludes: opts.Excludes}
	case ModePush, ModePull:
		spec.ID = Push
		if mode == ModePull {
			spec.ID = Pull
		}
		spec.Sync = SyncOptions{
			Chdir:          opts.Chdir,
			Excludes:       opts.Excludes,
			Delete:         opts.Delete,
			DeleteExcluded: opts.DeleteExcluded,
			DryRun:         opts.DryRun,
			// verbose lines are only defined for transfers landing locally
			Verbose: mode == ModePull && opts.Verbose,
		}
	}
	return spec, mode, nil
}

func pick(dir bool, dirID, fileID ID) ID {
	if dir {
		return dirID
	}
	return fileID
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
