package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// timePrecision is the mtime granularity both stores agree on.
const timePrecision = time.Second

// Engine plans and applies reconciliations.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Plan walks both trees once and returns the actions that make dst converge
// to src under the policy. It does not modify either tree.
func (e *Engine) Plan(ctx context.Context, src, dst Tree, policy Policy) (*Plan, error) {
	p := newPlanner(ctx, src, dst, policy, e.logger)
	plan, err := p.run()
	if err != nil {
		return nil, fmt.Errorf("reconcile %s with %s: %w", src.Root(), dst.Root(), err)
	}
	e.logger.Debug("sync plan",
		"src", src.Root(),
		"dst", dst.Root(),
		"hash", p.algo,
		"transfers", plan.Transfers(),
		"deletes", plan.Deletes(),
		"skipped", len(plan.Skipped),
		"identical", plan.Identical,
	)
	return plan, nil
}

// ActionError is a plan action that failed to apply.
type ActionError struct {
	Action Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action.Kind, e.Action.Path, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// ApplyResult counts the outcome of Apply.
type ApplyResult struct {
	Applied int
	Errors  []*ActionError
}

func (r *ApplyResult) Failed() int { return len(r.Errors) }

// Err summarizes the failures, or returns nil when every action applied.
func (r *ApplyResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d sync operations failed", len(r.Errors), r.Applied+len(r.Errors))
}

// Apply runs the plan in order. A failed action is recorded and the next one
// runs; cancellation fails the remaining actions without running them.
func (e *Engine) Apply(ctx context.Context, plan *Plan, src, dst Tree) *ApplyResult {
	res := &ApplyResult{}
	for i, a := range plan.Actions {
		if err := ctx.Err(); err != nil {
			for _, rest := range plan.Actions[i:] {
				res.Errors = append(res.Errors, &ActionError{Action: rest, Err: err})
			}
			e.logger.Warn("sync apply cancelled", "remaining", len(plan.Actions)-i)
			break
		}

		start := time.Now()
		err := e.apply(ctx, a, src, dst)
		if err != nil {
			e.logger.Error("sync action failed", "kind", a.Kind, "path", a.Path, "error", err)
			res.Errors = append(res.Errors, &ActionError{Action: a, Err: err})
			continue
		}
		e.logger.Debug("sync action", "kind", a.Kind, "path", a.Path, "dir", a.Direction, "took", time.Since(start))
		res.Applied++
	}
	return res
}

func (e *Engine) apply(ctx context.Context, a Action, src, dst Tree) error {
	switch a.Kind {
	case ActionDelete:
		return dst.Remove(ctx, a.Path, a.IsDir)
	case ActionTransfer:
		if a.IsDir {
			return dst.Mkdir(ctx, a.Path)
		}
		rc, err := src.Open(ctx, a.Path)
		if err != nil {
			return err
		}
		defer rc.Close()
		return dst.Write(ctx, a.Path, rc, a.Size, a.ModTime)
	}
	return errors.New("unknown action kind " + string(a.Kind))
}

// RunOptions configures Run.
type RunOptions struct {
	Policy Policy
	DryRun bool
	// Diff prints the plan as a diff and never applies it.
	Diff bool
}

// Run plans, reports and, unless DryRun or Diff is set, applies. The report
// is written before anything is applied so a dry run prints the same bytes.
func (e *Engine) Run(ctx context.Context, src, dst Tree, opts RunOptions, rep *Reporter) (*Plan, error) {
	plan, err := e.Plan(ctx, src, dst, opts.Policy)
	if err != nil {
		return nil, err
	}
	if opts.Diff {
		rep.Diff(plan)
		return plan, nil
	}
	rep.Plan(plan)
	if opts.DryRun {
		return plan, nil
	}

	res := e.Apply(ctx, plan, src, dst)
	for _, ae := range res.Errors {
		rep.Failure(ae)
	}
	return plan, res.Err()
}
