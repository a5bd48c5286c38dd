package sync

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
)

// Reporter prints plans. Everything it prints is derived from the plan alone,
// so a dry run and a real run of the same plan print identical bytes.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// NewReporter writes plan lines to out and apply failures to errOut. Verbose
// adds sizes to files landing locally.
func NewReporter(out, errOut io.Writer, verbose bool) *Reporter {
	if errOut == nil {
		errOut = io.Discard
	}
	return &Reporter{out: out, errOut: errOut, verbose: verbose}
}

// Plan prints one line per action, then the skipped paths and a summary.
func (r *Reporter) Plan(plan *Plan) {
	for _, a := range plan.Actions {
		fmt.Fprintln(r.out, r.actionLine(a))
	}
	for _, s := range plan.Skipped {
		fmt.Fprintf(r.out, "skip %s (%s)\n", displayPath(s.Path, s.IsDir), s.Reason)
	}
	fmt.Fprintf(r.out, "%d transfer(s), %d delete(s), %d skipped, %d identical\n",
		plan.Transfers(), plan.Deletes(), len(plan.Skipped), plan.Identical)
}

func (r *Reporter) actionLine(a Action) string {
	switch {
	case a.Kind == ActionDelete && a.Recursive:
		return fmt.Sprintf("delete %s (recursive)", displayPath(a.Path, true))
	case a.Kind == ActionDelete:
		return fmt.Sprintf("delete %s", displayPath(a.Path, a.IsDir))
	case a.IsDir:
		return fmt.Sprintf("mkdir %s", displayPath(a.Path, true))
	}

	verb := "upload"
	if a.Direction == ToLocal {
		verb = "download"
	}
	if r.verbose && a.Direction == ToLocal {
		return fmt.Sprintf("%s %s (%s, %s)", verb, a.Path, a.Reason, humanize.Bytes(uint64(a.Size)))
	}
	return fmt.Sprintf("%s %s (%s)", verb, a.Path, a.Reason)
}

type diffLine struct {
	path string
	text string
}

// Diff prints the plan as a path ordered diff: "+" only in source, "-" only
// in destination, "M" changed and "!" conflict. Excluded paths are left out.
func (r *Reporter) Diff(plan *Plan) {
	var lines []diffLine
	for _, a := range plan.Actions {
		switch {
		case a.Kind == ActionDelete:
			lines = append(lines, diffLine{a.Path, "- " + displayPath(a.Path, a.IsDir)})
		case a.Reason == ReasonChanged:
			lines = append(lines, diffLine{a.Path, "M " + displayPath(a.Path, a.IsDir)})
		default:
			lines = append(lines, diffLine{a.Path, "+ " + displayPath(a.Path, a.IsDir)})
		}
	}
	for _, s := range plan.Skipped {
		switch s.Reason {
		case SkipDestinationOnly, SkipKeptChildren:
			lines = append(lines, diffLine{s.Path, "- " + displayPath(s.Path, s.IsDir)})
		case SkipTypeMismatch:
			lines = append(lines, diffLine{s.Path, fmt.Sprintf("! %s (%s)", s.Path, s.Reason)})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return comparePaths(lines[i].path, lines[j].path) < 0 })
	for _, l := range lines {
		fmt.Fprintln(r.out, l.text)
	}
}

// Failure prints a failed action.
func (r *Reporter) Failure(err *ActionError) {
	fmt.Fprintf(r.errOut, "error: %v\n", err)
}

func displayPath(p string, isDir bool) string {
	if isDir && p != "/" {
		return p + "/"
	}
	return p
}
