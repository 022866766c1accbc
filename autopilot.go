package autopilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/autopilot/internal/guard"
	"github.com/aretw0/autopilot/internal/runtime"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/observability"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/aretw0/autopilot/pkg/schema"
)

// Version is the engine release reported by the CLI and the MCP server.
const Version = "0.4.0"

// Engine is the high-level entry point for the autopilot library.
// It binds a task store, a capability backend and a scheduler, and exposes the task manager
// operations used by the CLI, the HTTP API and the MCP server.
type Engine struct {
	store   ports.TaskStore
	backend ports.Backend
	sched   *runtime.Scheduler
	reports *observability.ReportLog

	hooks     domain.LifecycleHooks
	overlay   ports.Overlay
	reporter  ports.Reporter
	locker    ports.RunLocker
	lockTTL   time.Duration
	clock     ports.Clock
	guardOpts []guard.Option
	reportCap int
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithOverlay sets the UI collaborator that draws the node overlays.
func WithOverlay(o ports.Overlay) Option {
	return func(e *Engine) {
		e.overlay = o
	}
}

// WithReporter forwards failure reports to r in addition to the built-in report log.
func WithReporter(r ports.Reporter) Option {
	return func(e *Engine) {
		e.reporter = r
	}
}

// WithRunLocker makes Start take a cross-process run lock.
func WithRunLocker(locker ports.RunLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithClock replaces the wall clock used for delays and probes.
func WithClock(clock ports.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithGuardTiming overrides the activity probe window, sample interval and retry backoff.
// Zero values keep the defaults.
func WithGuardTiming(window, interval, backoff time.Duration) Option {
	return func(e *Engine) {
		if window > 0 && interval > 0 {
			e.guardOpts = append(e.guardOpts, guard.WithWindow(window, interval))
		}
		if backoff > 0 {
			e.guardOpts = append(e.guardOpts, guard.WithBackoff(backoff))
		}
	}
}

// WithReportCapacity bounds the number of reports kept for Reports.
func WithReportCapacity(n int) Option {
	return func(e *Engine) {
		e.reportCap = n
	}
}

// New initializes an Engine over store and backend with an empty, unnamed task.
// Use Open or CreateTask to select the task to run.
func New(store ports.TaskStore, backend ports.Backend, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		backend: backend,
		clock:   ports.SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.reports = observability.NewReportLog(e.reportCap)

	reporter := ports.Reporter(e.reports)
	if e.reporter != nil {
		user := e.reporter
		reporter = ports.ReporterFunc(func(ctx context.Context, r domain.Report) {
			e.reports.Report(ctx, r)
			user.Report(ctx, r)
		})
	}

	guardOpts := append([]guard.Option{
		guard.WithSleep(e.clock.Sleep),
		guard.WithLogger(e.logger),
	}, e.guardOpts...)

	schedOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithClock(e.clock),
		runtime.WithGuard(guard.New(backend, guardOpts...)),
		runtime.WithReporter(reporter),
		runtime.WithLifecycleHooks(e.hooks),
	}
	if e.overlay != nil {
		schedOpts = append(schedOpts, runtime.WithOverlay(e.overlay))
	}
	if e.locker != nil {
		schedOpts = append(schedOpts, runtime.WithRunLocker(e.locker, e.lockTTL))
	}

	e.sched = runtime.NewScheduler(domain.NewTask(""), backend, schedOpts...)
	return e
}

// ListTasks returns the names of every stored task.
func (e *Engine) ListTasks(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// CreateTask stores an empty task and selects it.
func (e *Engine) CreateTask(ctx context.Context, name string) (*domain.Task, error) {
	if name == "" {
		return nil, fmt.Errorf("task name cannot be empty")
	}
	if _, err := e.store.Load(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskExists, name)
	} else if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	task := domain.NewTask(name)
	if err := e.sched.SetTask(task); err != nil {
		return nil, err
	}
	if err := e.store.Save(ctx, name, nil); err != nil {
		return nil, fmt.Errorf("failed to save task %s: %w", name, err)
	}
	e.logger.Info("task created", "task", name)
	return task, nil
}

// LoadTask reads a task from the store without selecting it.
// Records with an unknown event type are skipped with a warning.
func (e *Engine) LoadTask(ctx context.Context, name string) (*domain.Task, error) {
	records, err := e.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return schema.BuildTask(name, records, schema.SkipUnknown(func(rec schema.Record, err error) {
		e.logger.Warn("skipping record", "task", name, "event_name", rec[schema.KeyEventName], "error", err)
	}))
}

// Open loads a task and selects it for editing and running. Rejected while running.
func (e *Engine) Open(ctx context.Context, name string) (*domain.Task, error) {
	if e.sched.Context().Running() {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskRunning, e.Task().Name)
	}
	task, err := e.LoadTask(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := e.sched.SetTask(task); err != nil {
		return nil, err
	}
	e.logger.Debug("task opened", "task", name, "nodes", task.Len())
	return task, nil
}

// Task returns the selected task.
func (e *Engine) Task() *domain.Task {
	return e.sched.Task()
}

// Save writes the selected task back to the store as a whole.
func (e *Engine) Save(ctx context.Context) error {
	task := e.Task()
	if task.Name == "" {
		return fmt.Errorf("no task selected")
	}
	if err := e.store.Save(ctx, task.Name, schema.TaskRecords(task)); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.Name, err)
	}
	return nil
}

// ImportTask validates the shape of records and stores them under name.
func (e *Engine) ImportTask(ctx context.Context, name string, records []schema.Record) (*domain.Task, error) {
	task, err := schema.BuildTask(name, records)
	if err != nil {
		return nil, err
	}
	if e.Task().Name == name && e.sched.Context().Running() {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskRunning, name)
	}
	if err := e.store.Save(ctx, name, schema.TaskRecords(task)); err != nil {
		return nil, fmt.Errorf("failed to save task %s: %w", name, err)
	}
	if e.Task().Name == name {
		if err := e.sched.SetTask(task); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// DeleteTask removes a task from the store. The selected task cannot be deleted while running.
func (e *Engine) DeleteTask(ctx context.Context, name string) error {
	if e.Task().Name == name && e.sched.Context().Running() {
		return fmt.Errorf("%w: %s", domain.ErrTaskRunning, name)
	}
	if err := e.store.Delete(ctx, name); err != nil {
		return err
	}
	if e.Task().Name == name {
		_ = e.sched.SetTask(domain.NewTask(""))
	}
	return nil
}

// AddNode appends a node with the editor defaults to the selected task.
// An empty geometry uses domain.DefaultGeometry.
func (e *Engine) AddNode(kind domain.Kind, name, geometry string) (*domain.Node, error) {
	if geometry == "" {
		geometry = domain.DefaultGeometry
	}
	rect, err := domain.ParseGeometry(geometry)
	if err != nil {
		return nil, err
	}

	var n *domain.Node
	switch kind {
	case domain.KindAction:
		n = domain.NewActionNode(name, rect)
	case domain.KindLogic:
		n = domain.NewLogicNode(name, rect)
	default:
		return nil, fmt.Errorf("%w: %q has unknown kind %q", domain.ErrInvalidNode, name, kind)
	}
	if err := e.sched.Edit(func(t *domain.Task) error { return t.Add(n) }); err != nil {
		return nil, err
	}
	return n, nil
}

// DeleteNode removes a node from the selected task. Edges pointing at it become no-ops.
func (e *Engine) DeleteNode(name string) error {
	return e.sched.Edit(func(t *domain.Task) error { return t.Delete(name) })
}

// UpdateField sets one record field of a node, coercing value to the field type.
func (e *Engine) UpdateField(node, key string, value any) (*domain.Node, error) {
	var updated *domain.Node
	err := e.sched.Edit(func(t *domain.Task) error {
		n, ok := t.Lookup(node)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node)
		}
		var err error
		if updated, err = schema.UpdateField(n, key, value); err != nil {
			return err
		}
		return t.Replace(updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TargetChoices returns the values an edge of the selected task may point at.
func (e *Engine) TargetChoices() []string {
	return e.Task().TargetChoices()
}

// Start runs the selected task.
func (e *Engine) Start(ctx context.Context) error {
	return e.sched.Start(ctx)
}

// Stop halts the selected task.
func (e *Engine) Stop(ctx context.Context) error {
	return e.sched.Stop(ctx)
}

// Status returns a snapshot of the scheduler.
func (e *Engine) Status() domain.Status {
	return e.sched.Status()
}

// Running reports whether the selected task is running.
func (e *Engine) Running() bool {
	return e.sched.Context().Running()
}

// Run drives the scheduler loop until ctx is done or the engine is closed.
func (e *Engine) Run(ctx context.Context) error {
	return e.sched.Run(ctx)
}

// Reports returns the most recent failure reports, oldest first.
func (e *Engine) Reports() []domain.Report {
	return e.reports.Recent()
}

// Close stops pending timers and ends Run.
func (e *Engine) Close() error {
	return e.sched.Close()
}
