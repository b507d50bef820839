package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one periodic unit of work driven by the Runner.
type Task struct {
	Name string

	// Spec is a standard 5-field cron expression or a descriptor such as "@every 30s".
	Spec string

	Run func(ctx context.Context) error
}

// Runner drives tasks on cron schedules. A tick is skipped when the previous
// run of the same task is still in flight.
type Runner struct {
	cron             *cron.Cron
	tasks            []Task
	operationTimeout time.Duration // Timeout for a single task run
}

// RunnerOption is a functional option for configuring Runner.
type RunnerOption func(*Runner)

// WithOperationTimeout sets the timeout for a single task run.
func WithOperationTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.operationTimeout = d
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewRunner validates every task spec and returns a Runner.
func NewRunner(tasks []Task, opts ...RunnerOption) (*Runner, error) {
	logger := cronLogger{}
	r := &Runner{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		operationTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, t := range tasks {
		if t.Run == nil {
			return nil, fmt.Errorf("task %q has no run function", t.Name)
		}
		if _, err := r.cron.AddFunc(t.Spec, r.wrap(t)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for task %q: %w", t.Spec, t.Name, err)
		}
		r.tasks = append(r.tasks, t)
	}
	return r, nil
}

func (r *Runner) wrap(t Task) func() {
	return func() {
		r.runTask(context.Background(), t)
	}
}

func (r *Runner) runTask(parent context.Context, t Task) {
	ctx, cancel := context.WithTimeout(parent, r.operationTimeout)
	defer cancel()

	if err := t.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "Task failed", "task", t.Name, "error", err)
	}
}

// Start runs every task once, then on its schedule until ctx is cancelled.
// On shutdown it waits for in-flight runs to finish.
func (r *Runner) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Runner started", "tasks", len(r.tasks))

	for _, t := range r.tasks {
		r.runTask(ctx, t)
	}

	r.cron.Start()
	<-ctx.Done()

	slog.InfoContext(ctx, "Shutdown requested, waiting for in-flight tasks...")
	<-r.cron.Stop().Done()
	slog.InfoContext(ctx, "Runner stopped gracefully")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
