// Package runtime advances a task graph over time.
//
// A Scheduler drains a FIFO of node start requests on a single loop. Delayed continuations
// (edge delays, repeat delays, guard backoff) are timers that only enqueue requests, so no two
// node bodies ever overlap and Stop is a flag flip checked when each request is dequeued.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/autopilot/internal/action"
	"github.com/aretw0/autopilot/internal/condition"
	"github.com/aretw0/autopilot/internal/guard"
	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/google/uuid"
)

// RunLockKey is the key under which the cross-process run lock is taken.
const RunLockKey = "autopilot:run"

type request struct {
	node string
	gen  uint64
}

// Scheduler executes one task at a time.
type Scheduler struct {
	backend  ports.Backend
	clock    ports.Clock
	guard    *guard.Guard
	executor *action.Executor
	overlay  ports.Overlay
	reporter ports.Reporter
	locker   ports.RunLocker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newRunID func() string

	ec *EngineContext

	mu      sync.Mutex
	task    *domain.Task
	queue   []request
	timers  map[uint64]ports.Timer
	timerID uint64
	unlock  ports.UnlockFunc
	notify  chan struct{}
	done    chan struct{}
	closed  bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock replaces the wall clock.
func WithClock(clock ports.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithGuard replaces the default activity guard.
func WithGuard(g *guard.Guard) Option {
	return func(s *Scheduler) {
		s.guard = g
	}
}

// WithExecutor replaces the default action executor.
func WithExecutor(e *action.Executor) Option {
	return func(s *Scheduler) {
		s.executor = e
	}
}

// WithOverlay sets the UI collaborator notified of overlay visibility.
func WithOverlay(o ports.Overlay) Option {
	return func(s *Scheduler) {
		s.overlay = o
	}
}

// WithReporter sets the failure report channel.
func WithReporter(r ports.Reporter) Option {
	return func(s *Scheduler) {
		s.reporter = r
	}
}

// WithRunLocker makes Start take a cross-process run lock.
// A zero ttl holds the lock until Stop.
func WithRunLocker(locker ports.RunLocker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = hooks
	}
}

// WithRunIDs replaces the run identifier generator.
func WithRunIDs(next func() string) Option {
	return func(s *Scheduler) {
		s.newRunID = next
	}
}

// NewScheduler creates an idle scheduler for task.
func NewScheduler(task *domain.Task, backend ports.Backend, opts ...Option) *Scheduler {
	s := &Scheduler{
		backend:  backend,
		clock:    ports.SystemClock{},
		overlay:  ports.OverlayFunc(func(context.Context, bool) {}),
		reporter: ports.ReporterFunc(func(context.Context, domain.Report) {}),
		logger:   logging.NewNop(),
		newRunID: uuid.NewString,
		ec:       NewEngineContext(),
		task:     task,
		timers:   make(map[uint64]ports.Timer),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.guard == nil {
		s.guard = guard.New(backend, guard.WithSleep(s.clock.Sleep), guard.WithLogger(s.logger))
	}
	if s.executor == nil {
		s.executor = action.New(backend, action.WithSleep(s.clock.Sleep), action.WithLogger(s.logger))
	}
	return s
}

// Context exposes the run state.
func (s *Scheduler) Context() *EngineContext {
	return s.ec
}

// Task returns the task being scheduled.
func (s *Scheduler) Task() *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// SetTask swaps the scheduled task. Rejected while running.
func (s *Scheduler) SetTask(task *domain.Task) error {
	if s.ec.Running() {
		return domain.ErrTaskRunning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = task
	return nil
}

// Edit applies fn to the task. Edits are rejected while running.
func (s *Scheduler) Edit(fn func(*domain.Task) error) error {
	if s.ec.Running() {
		return fmt.Errorf("%w: %s", domain.ErrTaskRunning, s.Task().Name)
	}
	return fn(s.Task())
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() domain.Status {
	state, runID, current := s.ec.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Status{
		Task:    s.task.Name,
		RunID:   runID,
		State:   state,
		Pending: len(s.queue) + len(s.timers),
		Current: current,
	}
}

// Start moves the scheduler to Running, hides every overlay and enqueues each node that runs
// at start.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.ec.Running() {
		return domain.ErrAlreadyRunning
	}

	var unlock ports.UnlockFunc
	if s.locker != nil {
		var err error
		unlock, err = s.locker.TryLock(ctx, RunLockKey, s.lockTTL)
		if err != nil {
			return fmt.Errorf("start %s: %w", s.Task().Name, err)
		}
	}

	runID := s.newRunID()
	gen, ok := s.ec.begin(runID)
	if !ok {
		if unlock != nil {
			_ = unlock(ctx)
		}
		return domain.ErrAlreadyRunning
	}

	s.mu.Lock()
	s.unlock = unlock
	task := s.task
	s.mu.Unlock()

	s.setOverlays(ctx, false)
	s.logger.Info("task started", "task", task.Name, "run_id", runID)
	if s.hooks.OnTaskStart != nil {
		s.hooks.OnTaskStart(ctx, s.base(domain.EventTaskStart))
	}

	for _, n := range task.RunAtStart() {
		s.logger.Debug("start", "node", n.Name)
		s.enqueue(request{node: n.Name, gen: gen})
	}
	return nil
}

// Stop moves the scheduler to Idle. A node body in progress finishes; nothing queued or timed
// runs afterwards.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.ec.end() {
		return domain.ErrNotRunning
	}

	s.mu.Lock()
	s.queue = nil
	s.stopTimersLocked()
	unlock := s.unlock
	s.unlock = nil
	task := s.task
	s.mu.Unlock()

	if unlock != nil {
		if err := unlock(ctx); err != nil {
			s.logger.Warn("release run lock", "error", err)
		}
	}
	s.setOverlays(ctx, true)
	s.logger.Info("task stopped", "task", task.Name, "run_id", s.ec.RunID())
	if s.hooks.OnTaskStop != nil {
		s.hooks.OnTaskStop(ctx, s.base(domain.EventTaskStop))
	}
	return nil
}

// Run drains the queue until ctx is done or the scheduler is closed.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		for s.Tick(ctx) > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-s.done:
				return nil
			default:
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-s.notify:
		}
	}
}

// Tick processes the requests queued before it was called and returns how many it took.
// Requests enqueued while it runs wait for the next tick.
func (s *Scheduler) Tick(ctx context.Context) int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, req := range batch {
		s.startNode(ctx, req)
	}
	return len(batch)
}

// Close stops every pending timer and ends Run.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopTimersLocked()
	s.queue = nil
	close(s.done)
	return nil
}

func (s *Scheduler) stopTimersLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) enqueue(req request) {
	if !s.ec.live(req.gen) {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, req)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// schedule enqueues req after d. A zero delay enqueues for the next tick.
func (s *Scheduler) schedule(ctx context.Context, req request, d time.Duration, from string) {
	if !s.ec.live(req.gen) {
		return
	}
	if s.hooks.OnScheduled != nil {
		e := s.nodeEvent(domain.EventScheduled, from, "")
		e.Target = req.node
		e.Delay = d
		s.hooks.OnScheduled(ctx, e)
	}
	if d <= 0 {
		s.enqueue(req)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timerID++
	id := s.timerID
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.enqueue(req)
	})
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// startNode runs the per-node protocol for one request.
func (s *Scheduler) startNode(ctx context.Context, req request) {
	if !s.ec.live(req.gen) {
		return
	}
	node, ok := s.Task().Lookup(req.node)
	if !ok {
		s.logger.Debug("unknown node", "node", req.node)
		return
	}

	if s.guard.TryEnter(ctx) == guard.Deferred {
		s.logger.Debug("user active, retrying", "node", node.Name, "after", s.guard.Backoff())
		if s.hooks.OnDeferred != nil {
			s.hooks.OnDeferred(ctx, s.nodeEvent(domain.EventDeferred, node.Name, node.Kind))
		}
		s.schedule(ctx, req, s.guard.Backoff(), node.Name)
		return
	}

	edge := s.execute(ctx, node)

	if !edge.Terminal() {
		if _, ok := s.Task().Lookup(edge.Target); ok {
			s.logger.Debug("next", "node", node.Name, "target", edge.Target, "delay", edge.Delay)
			s.schedule(ctx, request{node: edge.Target, gen: req.gen}, seconds(edge.Delay), node.Name)
		}
	}
	if node.Repeat {
		s.logger.Debug("repeat", "node", node.Name, "delay", node.RepeatDelay)
		s.schedule(ctx, req, seconds(node.RepeatDelay), node.Name)
	}
}

// execute runs the node body with overlays hidden and returns the edge to follow.
func (s *Scheduler) execute(ctx context.Context, node *domain.Node) domain.Edge {
	s.ec.setCurrent(node.Name)
	defer s.ec.setCurrent("")

	s.signalOverlay(ctx, false)
	defer func() {
		s.signalOverlay(ctx, s.ec.OverlaysVisible())
	}()

	if s.hooks.OnNodeEnter != nil {
		s.hooks.OnNodeEnter(ctx, s.nodeEvent(domain.EventNodeEnter, node.Name, node.Kind))
	}
	leave := s.nodeEvent(domain.EventNodeLeave, node.Name, node.Kind)

	var edge domain.Edge
	switch node.Kind {
	case domain.KindAction:
		if err := s.executor.Run(ctx, node); err != nil {
			s.report(ctx, node, err)
		}
		if node.Action != nil {
			edge = node.Action.Next
		}
	case domain.KindLogic:
		result := s.evaluate(ctx, node)
		leave.Result = &result
		if node.Logic != nil {
			edge = node.Logic.Fail
			if result {
				edge = node.Logic.Success
			}
		}
	}

	if s.hooks.OnNodeLeave != nil {
		leave.Timestamp = s.clock.Now()
		s.hooks.OnNodeLeave(ctx, leave)
	}
	return edge
}

// evaluate takes a fresh sample and applies the node condition.
// A failed sample is reported and resolves to false.
func (s *Scheduler) evaluate(ctx context.Context, node *domain.Node) bool {
	spec := node.Logic
	if spec == nil {
		return false
	}

	var sample condition.Sample
	var err error
	switch spec.Action {
	case domain.ColorLogic:
		sample.Color, err = s.backend.SampleRegionColor(ctx, node.Geometry)
		if err == nil {
			s.logger.Debug("color sampled", "node", node.Name, "color", condition.Hex(sample.Color))
		}
	default:
		sample.Text, err = s.backend.SampleRegionText(ctx, node.Geometry)
		if err == nil {
			s.logger.Debug("text sampled", "node", node.Name, "text", sample.Text)
		}
	}
	if err != nil {
		s.report(ctx, node, &domain.CaptureError{Node: node.Name, Op: "sample " + string(spec.Action), Err: err})
		return false
	}
	return condition.Evaluate(spec, sample)
}

func (s *Scheduler) report(ctx context.Context, node *domain.Node, err error) {
	kind := domain.ReportEngineFailure
	var ce *domain.CaptureError
	if errors.As(err, &ce) {
		kind = domain.ReportCaptureFailure
	}
	r := domain.Report{
		Time:    s.clock.Now(),
		Task:    s.Task().Name,
		RunID:   s.ec.RunID(),
		Node:    node.Name,
		Kind:    kind,
		Message: err.Error(),
	}
	s.logger.Warn("node failed", "task", r.Task, "node", r.Node, "kind", r.Kind, "error", err)
	s.reporter.Report(ctx, r)
	if s.hooks.OnReport != nil {
		s.hooks.OnReport(ctx, &r)
	}
}

// setOverlays changes the task-level visibility.
func (s *Scheduler) setOverlays(ctx context.Context, visible bool) {
	s.ec.setVisible(visible)
	s.signalOverlay(ctx, visible)
}

func (s *Scheduler) signalOverlay(ctx context.Context, visible bool) {
	s.overlay.SetVisible(ctx, visible)
}

func (s *Scheduler) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: s.clock.Now(),
		Type:      t,
		Task:      s.Task().Name,
		RunID:     s.ec.RunID(),
	}
}

func (s *Scheduler) nodeEvent(t domain.EventType, node string, kind domain.Kind) *domain.NodeEvent {
	return &domain.NodeEvent{EventBase: s.base(t), Node: node, Kind: kind}
}
