package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/autopilot/internal/action"
	"github.com/aretw0/autopilot/internal/guard"
	"github.com/aretw0/autopilot/internal/runtime"
	"github.com/aretw0/autopilot/internal/testutils"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	s       *runtime.Scheduler
	backend *testutils.FakeBackend
	clock   *testutils.FakeClock
	overlay *testutils.FakeOverlay
	reports *testutils.Reports
}

func newHarness(t *testing.T, task *domain.Task, opts ...runtime.Option) *harness {
	t.Helper()
	h := &harness{
		backend: testutils.NewFakeBackend(),
		clock:   testutils.NewFakeClock(),
		overlay: &testutils.FakeOverlay{},
		reports: &testutils.Reports{},
	}
	noSleep := func(time.Duration) {}
	base := []runtime.Option{
		runtime.WithClock(h.clock),
		runtime.WithGuard(guard.New(h.backend, guard.WithSleep(noSleep))),
		runtime.WithExecutor(action.New(h.backend, action.WithSleep(noSleep))),
		runtime.WithOverlay(h.overlay),
		runtime.WithReporter(h.reports),
		runtime.WithRunIDs(func() string { return "run-1" }),
	}
	h.s = runtime.NewScheduler(task, h.backend, append(base, opts...)...)
	t.Cleanup(func() { _ = h.s.Close() })
	return h
}

// drain ticks until the queue is empty.
func (h *harness) drain() {
	for i := 0; i < 100 && h.s.Tick(context.Background()) > 0; i++ {
	}
}

// advance moves time forward one second at a time, draining after each step.
func (h *harness) advance(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Second {
		h.clock.Advance(time.Second)
		h.drain()
	}
}

func TestStart_RunsStartNodesAndZeroDelayEdgesOnNextTick(t *testing.T) {
	a := testutils.Action("a", "b", 0)
	a.RunAtStart = true
	b := testutils.Action("b", domain.NoneTarget, 0)
	h := newHarness(t, testutils.NewTask(t, "t", a, b))
	ctx := context.Background()

	require.NoError(t, h.s.Start(ctx))
	assert.Equal(t, domain.StateRunning, h.s.Status().State)
	assert.Equal(t, 1, h.s.Status().Pending)

	assert.Equal(t, 1, h.s.Tick(ctx))
	assert.Equal(t, 1, h.backend.Count("click"), "b waits for the next tick")

	assert.Equal(t, 1, h.s.Tick(ctx))
	assert.Equal(t, 2, h.backend.Count("click"))
	assert.Equal(t, 0, h.s.Tick(ctx))
}

func TestStartStop_States(t *testing.T) {
	h := newHarness(t, testutils.NewTask(t, "t"))
	ctx := context.Background()

	assert.ErrorIs(t, h.s.Stop(ctx), domain.ErrNotRunning)
	require.NoError(t, h.s.Start(ctx))
	assert.ErrorIs(t, h.s.Start(ctx), domain.ErrAlreadyRunning)
	require.NoError(t, h.s.Stop(ctx))
	assert.Equal(t, domain.StateIdle, h.s.Status().State)
	assert.Equal(t, "run-1", h.s.Status().RunID)
}

func TestRepeat_ReschedulesWhileIdle(t *testing.T) {
	poll := testutils.Logic("poll", domain.OpEqual, "yes", "poll", domain.NoneTarget)
	poll.RunAtStart = true
	poll.Repeat = true
	poll.RepeatDelay = 2

	var mu sync.Mutex
	repeats := 0
	hooks := domain.LifecycleHooks{
		OnScheduled: func(_ context.Context, e *domain.NodeEvent) {
			mu.Lock()
			defer mu.Unlock()
			if e.Node == "poll" && e.Target == "poll" && e.Delay == 2*time.Second {
				repeats++
			}
		},
	}
	h := newHarness(t, testutils.NewTask(t, "t", poll), runtime.WithLifecycleHooks(hooks))
	h.backend.QueueText("no")

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()
	h.advance(5 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, repeats, 2)
	assert.GreaterOrEqual(t, h.backend.Count("text"), 3)
}

func TestStop_BetweenHops(t *testing.T) {
	a := testutils.Action("a", "b", 3)
	a.RunAtStart = true
	b := testutils.Action("b", domain.NoneTarget, 0)
	h := newHarness(t, testutils.NewTask(t, "t", a, b))
	ctx := context.Background()

	require.NoError(t, h.s.Start(ctx))
	h.drain()
	require.Equal(t, 1, h.backend.Count("click"))
	assert.Equal(t, 1, h.clock.Pending())

	require.NoError(t, h.s.Stop(ctx))
	h.advance(5 * time.Second)
	assert.Equal(t, 1, h.backend.Count("click"), "b never runs after stop")
	assert.Equal(t, 0, h.clock.Pending())
}

func TestStop_StaleRunDoesNotLeak(t *testing.T) {
	a := testutils.Action("a", "a", 0)
	a.RunAtStart = true
	h := newHarness(t, testutils.NewTask(t, "t", a))
	ctx := context.Background()

	require.NoError(t, h.s.Start(ctx))
	h.s.Tick(ctx)
	require.NoError(t, h.s.Stop(ctx))
	assert.Equal(t, 0, h.s.Tick(ctx))
	assert.Equal(t, 1, h.backend.Count("click"))
}

func TestGuard_DefersAndRetries(t *testing.T) {
	a := testutils.Action("a", domain.NoneTarget, 0)
	a.RunAtStart = true

	deferred := 0
	hooks := domain.LifecycleHooks{
		OnDeferred: func(context.Context, *domain.NodeEvent) { deferred++ },
	}
	h := newHarness(t, testutils.NewTask(t, "t", a), runtime.WithLifecycleHooks(hooks))
	h.backend.SetActive(true)

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()
	assert.Equal(t, 0, h.backend.Count("click"))
	assert.Equal(t, 1, deferred)

	h.backend.SetActive(false)
	h.advance(4 * time.Second)
	assert.Equal(t, 0, h.backend.Count("click"), "backoff has not elapsed")
	h.advance(time.Second)
	assert.Equal(t, 1, h.backend.Count("click"))
}

func TestOverlay_HiddenDuringRunRestoredOnStop(t *testing.T) {
	a := testutils.Action("a", domain.NoneTarget, 0)
	a.RunAtStart = true
	h := newHarness(t, testutils.NewTask(t, "t", a))
	ctx := context.Background()

	require.NoError(t, h.s.Start(ctx))
	h.drain()
	assert.False(t, h.overlay.Visible())
	require.NoError(t, h.s.Stop(ctx))

	assert.Equal(t, []bool{false, false, false, true}, h.overlay.Changes())
	assert.True(t, h.s.Context().OverlaysVisible())
}

func TestLogic_Branches(t *testing.T) {
	check := testutils.Logic("check", domain.OpGreater, "10", "ok", "retry")
	check.RunAtStart = true
	ok := testutils.Action("ok", domain.NoneTarget, 0)
	retry := testutils.Action("retry", domain.NoneTarget, 0)
	retry.Action.PressEnter = true

	var results []bool
	hooks := domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			if e.Result != nil {
				results = append(results, *e.Result)
			}
		},
	}
	h := newHarness(t, testutils.NewTask(t, "t", check, ok, retry), runtime.WithLifecycleHooks(hooks))
	h.backend.QueueText("9.5")

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()
	assert.Equal(t, []bool{false}, results)
	assert.Equal(t, 1, h.backend.Count("key(enter)"), "fail edge reached retry")
}

func TestCaptureFailure_FollowsFailEdge(t *testing.T) {
	check := testutils.Logic("check", domain.OpContains, "ok", domain.NoneTarget, "fallback")
	check.RunAtStart = true
	fallback := testutils.Action("fallback", domain.NoneTarget, 0)
	h := newHarness(t, testutils.NewTask(t, "t", check, fallback))
	h.backend.Fail("text", errors.New("tesseract missing"))

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()

	assert.Equal(t, 1, h.backend.Count("click"))
	reports := h.reports.All()
	require.Len(t, reports, 1)
	assert.Equal(t, domain.ReportCaptureFailure, reports[0].Kind)
	assert.Equal(t, "check", reports[0].Node)
	assert.Equal(t, "run-1", reports[0].RunID)
	assert.Contains(t, reports[0].Message, "tesseract missing")
}

func TestActionFailure_EdgeStillFires(t *testing.T) {
	a := testutils.Action("a", "b", 0)
	a.RunAtStart = true
	a.Action.PressEnter = true
	b := testutils.Logic("b", domain.OpEqual, "x", domain.NoneTarget, domain.NoneTarget)
	h := newHarness(t, testutils.NewTask(t, "t", a, b))
	h.backend.Fail("key", errors.New("stuck"))

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()

	assert.Len(t, h.reports.All(), 1)
	assert.Equal(t, 1, h.backend.Count("text"), "b ran after a failed")
}

func TestDanglingTarget_IsNoOp(t *testing.T) {
	a := testutils.Action("a", "ghost", 1)
	a.RunAtStart = true
	h := newHarness(t, testutils.NewTask(t, "t", a))

	require.NoError(t, h.s.Start(context.Background()))
	h.drain()
	assert.Equal(t, 0, h.clock.Pending())
	assert.Empty(t, h.reports.All())
}

func TestEdits_RejectedWhileRunning(t *testing.T) {
	a := testutils.Action("a", domain.NoneTarget, 0)
	h := newHarness(t, testutils.NewTask(t, "t", a))
	ctx := context.Background()
	del := func(task *domain.Task) error { return task.Delete("a") }

	require.NoError(t, h.s.Start(ctx))
	assert.ErrorIs(t, h.s.Edit(del), domain.ErrTaskRunning)
	assert.ErrorIs(t, h.s.SetTask(domain.NewTask("other")), domain.ErrTaskRunning)

	require.NoError(t, h.s.Stop(ctx))
	require.NoError(t, h.s.Edit(del))
	assert.Equal(t, 0, h.s.Task().Len())
}

type fakeLocker struct {
	held     bool
	released int
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	if l.held {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocked, key)
	}
	l.held = true
	return func(context.Context) error {
		l.held = false
		l.released++
		return nil
	}, nil
}

func TestRunLocker(t *testing.T) {
	locker := &fakeLocker{}
	ctx := context.Background()
	first := newHarness(t, testutils.NewTask(t, "one"), runtime.WithRunLocker(locker, 0))
	second := newHarness(t, testutils.NewTask(t, "two"), runtime.WithRunLocker(locker, 0))

	require.NoError(t, first.s.Start(ctx))
	assert.ErrorIs(t, second.s.Start(ctx), domain.ErrLocked)
	assert.Equal(t, domain.StateIdle, second.s.Status().State)

	require.NoError(t, first.s.Stop(ctx))
	assert.Equal(t, 1, locker.released)
	assert.NoError(t, second.s.Start(ctx))
}

func TestRun_Loop(t *testing.T) {
	a := testutils.Action("a", "b", 2)
	a.RunAtStart = true
	b := testutils.Action("b", domain.NoneTarget, 0)
	h := newHarness(t, testutils.NewTask(t, "t", a, b))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.s.Run(ctx) }()

	require.NoError(t, h.s.Start(ctx))
	require.Eventually(t, func() bool {
		return h.backend.Count("click") == 1 && h.clock.Pending() == 1
	}, time.Second, 5*time.Millisecond)

	h.clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool { return h.backend.Count("click") == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestClose_EndsRunDuringZeroDelayPolling(t *testing.T) {
	poll := testutils.Logic("poll", domain.OpEqual, "never", "poll", "poll")
	poll.RunAtStart = true
	h := newHarness(t, testutils.NewTask(t, "t", poll))

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- h.s.Run(ctx) }()

	require.NoError(t, h.s.Start(ctx))
	require.Eventually(t, func() bool { return h.backend.Count("text") > 10 }, time.Second, time.Millisecond)

	require.NoError(t, h.s.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept polling after Close")
	}

	taken := h.backend.Count("text")
	assert.Zero(t, h.s.Tick(ctx), "nothing is queued once closed")
	assert.Equal(t, taken, h.backend.Count("text"))
}
