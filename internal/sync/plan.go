package sync

import (
	"context"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type ActionKind string

const (
	ActionTransfer ActionKind = "transfer"
	ActionDelete   ActionKind = "delete"
)

type Direction string

const (
	ToRemote Direction = "to-remote"
	ToLocal  Direction = "to-local"
)

type Reason string

const (
	ReasonNew     Reason = "new"
	ReasonChanged Reason = "changed"
)

// Skip reasons.
const (
	SkipExcluded        = "excluded"
	SkipDestinationOnly = "destination only"
	SkipTypeMismatch    = "type mismatch"
	SkipParentConflict  = "parent conflict"
	SkipKeptChildren    = "has kept children"
)

// Action is one step of a plan. Folder transfers create the folder; a
// recursive folder delete removes the whole subtree.
type Action struct {
	Kind      ActionKind
	Direction Direction
	Path      string
	IsDir     bool
	Reason    Reason
	Recursive bool
	Size      int64
	ModTime   time.Time
}

// Skip is a path the plan leaves untouched.
type Skip struct {
	Path   string
	IsDir  bool
	Reason string
	// InSource is false for paths found only on the destination.
	InSource bool
}

// Plan is the outcome of reconciling two trees. Transfers come first in walk
// order, deletes follow.
type Plan struct {
	Actions   []Action
	Skipped   []Skip
	Identical int
}

func (p *Plan) Transfers() int { return p.count(ActionTransfer) }
func (p *Plan) Deletes() int   { return p.count(ActionDelete) }

// Empty reports whether applying the plan would change nothing.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

func (p *Plan) count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Policy controls what a plan may do.
type Policy struct {
	Exclude        *Matcher
	Delete         bool
	DeleteExcluded bool
}

// deleteCandidate is a destination-only entry the policy allows to delete.
type deleteCandidate struct {
	path  string
	isDir bool
}

type planner struct {
	ctx    context.Context
	src    Tree
	dst    Tree
	policy Policy
	algo   string
	dir    Direction
	logger *slog.Logger

	plan       *Plan
	deletes    []deleteCandidate
	protected  mapset.Set[string]
	conflictAt string
}

func newPlanner(ctx context.Context, src, dst Tree, policy Policy, logger *slog.Logger) *planner {
	dir := ToRemote
	if dst.Side() == SideLocal {
		dir = ToLocal
	}
	return &planner{
		ctx:       ctx,
		src:       src,
		dst:       dst,
		policy:    policy,
		algo:      negotiateHash(src, dst),
		dir:       dir,
		logger:    logger,
		plan:      &Plan{},
		protected: mapset.NewThreadUnsafeSet[string](),
	}
}

// negotiateHash picks a hash both trees can produce, preferring the
// destination's native one. "" means fall back to modification times.
func negotiateHash(src, dst Tree) string {
	for _, t := range []Tree{dst, src} {
		if algo := t.NativeHash(); algo != "" && src.CanHash(algo) && dst.CanHash(algo) {
			return algo
		}
	}
	return ""
}

func (p *planner) run() (*Plan, error) {
	for m, err := range mergeTrees(p.src.Walk(p.ctx), p.dst.Walk(p.ctx)) {
		if err != nil {
			return nil, err
		}
		p.visit(m)
	}
	p.flushDeletes()
	return p.plan, nil
}

func (p *planner) visit(m merged) {
	if p.conflictAt != "" && isUnder(m.path, p.conflictAt) {
		e := m.src
		if e == nil {
			e = m.dst
		}
		p.skip(m.path, e.IsDir, SkipParentConflict, m.src != nil)
		return
	}
	p.conflictAt = ""

	excluded := p.policy.Exclude.Match(m.path, entryIsDir(m))

	switch {
	case m.dst == nil:
		if excluded {
			p.skip(m.path, m.src.IsDir, SkipExcluded, true)
			return
		}
		p.transfer(m.src, ReasonNew)

	case m.src == nil:
		if p.policy.Delete && (!excluded || p.policy.DeleteExcluded) {
			p.deletes = append(p.deletes, deleteCandidate{path: m.path, isDir: m.dst.IsDir})
			return
		}
		reason := SkipDestinationOnly
		if excluded {
			reason = SkipExcluded
		}
		p.skip(m.path, m.dst.IsDir, reason, false)
		p.protect(m.path)

	case m.src.IsDir != m.dst.IsDir:
		p.skip(m.path, m.src.IsDir, SkipTypeMismatch, true)
		p.conflictAt = m.path

	case m.src.IsDir:
		p.plan.Identical++

	default:
		if !p.changed(m.src, m.dst) {
			p.plan.Identical++
			return
		}
		if excluded {
			p.skip(m.path, false, SkipExcluded, true)
			return
		}
		p.transfer(m.src, ReasonChanged)
	}
}

// changed compares two files: size first, then a shared hash, then mtime at
// one second precision. A side without a hash for the file, such as a
// multipart S3 object, falls back to mtime for that file only.
func (p *planner) changed(s, d *Entry) bool {
	if s.Size != d.Size {
		return true
	}
	sfp, err := p.src.Fingerprint(p.ctx, *s, p.algo)
	if err != nil {
		p.logger.Warn("fingerprint failed, treating as changed", "path", s.Path, "side", p.src.Side(), "error", err)
		return true
	}
	dfp, err := p.dst.Fingerprint(p.ctx, *d, p.algo)
	if err != nil {
		p.logger.Warn("fingerprint failed, treating as changed", "path", d.Path, "side", p.dst.Side(), "error", err)
		return true
	}
	if p.algo != "" && sfp.Hash != "" && dfp.Hash != "" {
		return sfp.Hash != dfp.Hash
	}
	return !sfp.ModTime.Truncate(timePrecision).Equal(dfp.ModTime.Truncate(timePrecision))
}

func (p *planner) transfer(e *Entry, reason Reason) {
	p.plan.Actions = append(p.plan.Actions, Action{
		Kind:      ActionTransfer,
		Direction: p.dir,
		Path:      e.Path,
		IsDir:     e.IsDir,
		Reason:    reason,
		Size:      e.Size,
		ModTime:   e.ModTime,
	})
}

func (p *planner) skip(path string, isDir bool, reason string, inSource bool) {
	p.plan.Skipped = append(p.plan.Skipped, Skip{Path: path, IsDir: isDir, Reason: reason, InSource: inSource})
}

// protect keeps every ancestor of a surviving destination entry.
func (p *planner) protect(path string) {
	for _, a := range ancestors(path) {
		p.protected.Add(a)
	}
}

// flushDeletes turns the delete candidates into actions once the whole
// destination has been seen. A folder with no protected descendant becomes
// one recursive delete that covers everything below it.
func (p *planner) flushDeletes() {
	covered := ""
	for _, c := range p.deletes {
		if covered != "" && isUnder(c.path, covered) {
			continue
		}
		if c.isDir && p.protected.Contains(c.path) {
			p.skip(c.path, true, SkipKeptChildren, false)
			continue
		}
		p.plan.Actions = append(p.plan.Actions, Action{
			Kind:      ActionDelete,
			Direction: p.dir,
			Path:      c.path,
			IsDir:     c.isDir,
			Recursive: c.isDir,
		})
		if c.isDir {
			covered = c.path
		}
	}
}

func entryIsDir(m merged) bool {
	if m.src != nil {
		return m.src.IsDir
	}
	return m.dst.IsDir
}
