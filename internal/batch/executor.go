// Package batch runs one resolved action over every unit of an invocation,
// isolating failures per unit and reporting results in input order.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/gadget1999/gobox/internal/action"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Output is where a handler writes while it runs. Under parallel execution
// both writers are buffered and flushed in unit order.
type Output struct {
	Out io.Writer
	Err io.Writer
}

// Handler runs one action on one unit. A non-nil value is printed before the
// success line.
type Handler func(ctx context.Context, unit action.Unit, spec *action.Spec, out Output) (any, error)

// Result is the outcome of one unit.
type Result struct {
	Unit      action.Unit
	Succeeded bool
	Value     any
	Err       error
}

// Report holds the results in input order.
type Report struct {
	Results []Result
	Errors  int64
}

// Failed reports whether any unit failed.
func (r *Report) Failed() bool { return r.Errors > 0 }

var (
	succeededColor = color.New(color.FgGreen)
	failedColor    = color.New(color.FgRed)
)

// Executor dispatches units to the handler registered for the spec's action.
type Executor struct {
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
	// Jobs above one runs that many units at a time.
	Jobs int
}

type unitRun struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	result Result
	done   chan struct{}
}

// Run executes spec on every unit. It never stops on a unit failure; a
// cancelled context fails the units that have not started.
func (e *Executor) Run(ctx context.Context, spec *action.Spec, units []action.Unit, handlers map[action.ID]Handler) *Report {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler, ok := handlers[spec.ID]
	if !ok {
		handler = func(context.Context, action.Unit, *action.Spec, Output) (any, error) {
			return nil, fmt.Errorf("no handler registered for action %s", spec.ID)
		}
	}

	var errCount atomic.Int64
	runOne := func(ctx context.Context, unit action.Unit, out Output) Result {
		res := Result{Unit: unit}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Value, res.Err = handler(ctx, unit, spec, out)
		}
		res.Succeeded = res.Err == nil
		if !res.Succeeded {
			errCount.Add(1)
			logger.Error("action failed", "action", spec.ID, "unit", unit.String(), "error", res.Err)
		}
		return res
	}

	report := &Report{Results: make([]Result, len(units))}
	if e.Jobs <= 1 {
		for i, u := range units {
			res := runOne(ctx, u, Output{Out: e.Out, Err: e.Err})
			e.print(spec.ID, res, e.Out, e.Err)
			report.Results[i] = res
		}
	} else {
		runs := make([]*unitRun, len(units))
		for i := range runs {
			runs[i] = &unitRun{done: make(chan struct{})}
		}

		g := &errgroup.Group{}
		g.SetLimit(e.Jobs)
		go func() {
			for i, u := range units {
				r := runs[i]
				g.Go(func() error {
					defer close(r.done)
					r.result = runOne(ctx, u, Output{Out: &r.out, Err: &r.errOut})
					e.print(spec.ID, r.result, &r.out, &r.errOut)
					return nil
				})
			}
		}()

		for i, r := range runs {
			<-r.done
			io.Copy(e.Out, &r.out)
			io.Copy(e.Err, &r.errOut)
			report.Results[i] = r.result
		}
		g.Wait()
	}

	report.Errors = errCount.Load()
	if report.Errors > 0 {
		fmt.Fprintf(e.Err, "encountered %d error(s)\n", report.Errors)
	}
	return report
}

func (e *Executor) print(id action.ID, res Result, out, errOut io.Writer) {
	if !res.Succeeded {
		failedColor.Fprintf(out, "action %s on %s failed\n", id, res.Unit)
		fmt.Fprintf(errOut, "error: %v\n", res.Err)
		return
	}
	if res.Value != nil {
		printValue(out, res.Value)
	}
	succeededColor.Fprintf(out, "action %s on %s succeeded\n", id, res.Unit)
}

func printValue(w io.Writer, v any) {
	if s, ok := v.(string); ok {
		fmt.Fprintln(w, s)
		return
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "%v\n", v)
	}
	enc.Close()
}
