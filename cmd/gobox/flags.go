package main

import (
	"github.com/gadget1999/gobox/internal/action"
	"github.com/spf13/cobra"
)

type cliFlags struct {
	modes action.Modes

	limit          int
	offset         int
	fields         string
	recursive      bool
	chdir          string
	exclude        string
	excludeGlob    string
	excludeFrom    string
	dryRun         bool
	delete         bool
	deleteExcluded bool
	verbose        bool

	target      string
	fromFile    string
	plainName   bool
	jobs        int
	whatID      string
	accountInfo bool
}

func (f *cliFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.SortFlags = false

	fs.BoolVarP(&f.modes.List, "list", "l", false, "list folder contents")
	fs.BoolVarP(&f.modes.Info, "info", "i", false, "show file or folder info")
	fs.BoolVarP(&f.modes.Remove, "remove", "R", false, "remove files or folders")
	fs.BoolVarP(&f.modes.Mkdir, "mkdir", "M", false, "create folders")
	fs.BoolVarP(&f.modes.Rename, "rename", "r", false, "rename (path, new name) pairs")
	fs.BoolVarP(&f.modes.Move, "move", "m", false, "move (path, folder) pairs")
	fs.BoolVarP(&f.modes.Download, "download", "d", false, "download files or folders")
	fs.BoolVarP(&f.modes.Upload, "upload", "u", false, "upload local files or directories")
	fs.BoolVarP(&f.modes.Compare, "compare", "C", false, "compare (local, remote) pairs")
	fs.BoolVar(&f.modes.Push, "push", false, "make remote folders match (local, remote) pairs")
	fs.BoolVar(&f.modes.Pull, "pull", false, "make local directories match (local, remote) pairs")

	fs.IntVar(&f.limit, "limit", 0, "list: maximum number of items")
	fs.IntVar(&f.offset, "offset", 0, "list: index of the first item")
	fs.StringVarP(&f.fields, "fields", "F", "", "list: comma separated fields to return")
	fs.BoolVar(&f.recursive, "recursive", false, "remove: delete non-empty folders")
	fs.StringVarP(&f.chdir, "chdir", "c", "", "remote folder for mkdir/upload, local dir for download, local base dir for push/pull")
	fs.StringVarP(&f.exclude, "exclude", "x", "", "exclude entries whose path matches this regexp")
	fs.StringVar(&f.excludeGlob, "exclude-glob", "", "exclude entries whose path matches this glob")
	fs.StringVar(&f.excludeFrom, "exclude-from", "", "exclude entries listed in a gitignore style file")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "push/pull: print the plan without applying it")
	fs.BoolVar(&f.delete, "delete", false, "push/pull: delete destination entries missing from the source")
	fs.BoolVar(&f.deleteExcluded, "del-exclude", false, "push/pull: also delete excluded destination entries")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print transferred sizes")

	fs.StringVarP(&f.target, "target", "t", "", "node type: f for file, d for directory")
	fs.StringVarP(&f.fromFile, "from-file", "f", "", "read arguments from a file, one per line")
	fs.BoolVarP(&f.plainName, "plain-name", "P", false, "treat numeric arguments as names, not ids")
	fs.IntVarP(&f.jobs, "jobs", "j", 1, "number of units to run at a time")
	fs.StringVarP(&f.whatID, "what-id", "w", "", "print the id of a path")
	fs.BoolVarP(&f.accountInfo, "account-info", "I", false, "print the account of the credentials")
}

// options copies the modifier flags. Paging values are only set when given.
func (f *cliFlags) options(cmd *cobra.Command) action.Options {
	opts := action.Options{
		Fields:    f.fields,
		Recursive: f.recursive,
		Chdir:     f.chdir,
		Excludes: action.Excludes{
			Pattern: f.exclude,
			Glob:    f.excludeGlob,
			From:    f.excludeFrom,
		},
		DryRun:         f.dryRun,
		Delete:         f.delete,
		DeleteExcluded: f.deleteExcluded,
		Verbose:        f.verbose,
	}
	if cmd.Flags().Changed("limit") {
		limit := f.limit
		opts.Limit = &limit
	}
	if cmd.Flags().Changed("offset") {
		offset := f.offset
		opts.Offset = &offset
	}
	return opts
}
