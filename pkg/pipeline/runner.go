package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/kiln/pkg/core"
)

// Runner executes tasks from a Registry and reports compile failures.
type Runner struct {
	registry *Registry
	notifier core.Notifier
	logger   *slog.Logger
}

type taskOptions struct {
	logger   *slog.Logger
	notifier core.Notifier
}

// TaskOption configures tasks and runners.
type TaskOption func(*taskOptions)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) TaskOption {
	return func(o *taskOptions) {
		o.logger = logger
	}
}

// WithNotifier sets where compile errors are reported. Defaults to a
// LogNotifier.
func WithNotifier(n core.Notifier) TaskOption {
	return func(o *taskOptions) {
		o.notifier = n
	}
}

// NewRunner returns a Runner over registry.
func NewRunner(registry *Registry, opts ...TaskOption) *Runner {
	o := taskOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.notifier == nil {
		o.notifier = &LogNotifier{Logger: o.logger}
	}
	return &Runner{registry: registry, notifier: o.notifier, logger: o.logger}
}

// Run executes the named tasks one after another in build order. Every task
// runs even if an earlier one failed; the failures are joined.
func (r *Runner) Run(ctx context.Context, names ...string) ([]*Result, error) {
	tasks, err := r.registry.Resolve(names...)
	if err != nil {
		return nil, err
	}

	var results []*Result
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.runTask(ctx, t)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// RunParallel executes the named tasks concurrently. Results are returned in
// build order.
func (r *Runner) RunParallel(ctx context.Context, names ...string) ([]*Result, error) {
	tasks, err := r.registry.Resolve(names...)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(tasks))
	errs := make([]error, len(tasks))

	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			results[i], errs[i] = r.runTask(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runTask(ctx context.Context, t Task) (*Result, error) {
	r.logger.Debug("task started", "task", t.Name())
	res, err := t.Run(ctx)
	if res == nil {
		res = &Result{Task: t.Name()}
	}
	if err != nil {
		r.report(ctx, t.Name(), err)
		return res, err
	}
	r.logger.Info("task finished", "task", t.Name(), "files", len(res.Files))
	return res, nil
}

// report sends every compile error in err to the notifier and logs the rest.
func (r *Runner) report(ctx context.Context, task string, err error) {
	for _, e := range flatten(err) {
		if !core.IsKind(e, core.KindCompile) {
			r.logger.Error("task failed", "task", task, "error", e)
			continue
		}
		r.notifier.Notify(ctx, core.Notification{
			Level:   core.LevelError,
			Task:    task,
			Title:   "kiln: " + task,
			Message: fmt.Sprintf("An error occurred while compiling %s.\nLook in the console for details.\n%v", task, e),
			Err:     e,
		})
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
