package action_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/autopilot/internal/action"
	"github.com/aretw0/autopilot/internal/testutils"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(b *testutils.FakeBackend, slept *[]time.Duration) *action.Executor {
	return action.New(b,
		action.WithSleep(func(d time.Duration) { *slept = append(*slept, d) }),
		action.WithRand(func(n int) int { return n - 1 }),
	)
}

func TestRun_Minimal(t *testing.T) {
	b := testutils.NewFakeBackend()
	var slept []time.Duration
	n := testutils.Action("a", domain.NoneTarget, 0)

	require.NoError(t, newExecutor(b, &slept).Run(context.Background(), n))
	assert.Equal(t, 1, b.Count("click"))
	assert.Equal(t, 0, b.Count("key"))
	assert.Equal(t, 0, b.Count("type"))
	assert.Equal(t, []time.Duration{action.ClickSettle}, slept)
}

func TestRun_FullSequence(t *testing.T) {
	b := testutils.NewFakeBackend()
	var slept []time.Duration
	n := testutils.Action("a", domain.NoneTarget, 0)
	n.Action.DoubleClick = true
	n.Action.PressEnter = true
	n.Action.PressBackspace = true
	n.Action.EnteredText = "hé!"
	n.Action.MoveMouseBack = true

	require.NoError(t, newExecutor(b, &slept).Run(context.Background(), n))

	// Region 100x40 at (200,100): base (225,110), fixed offset (50,20).
	assert.Equal(t, []string{
		"click(275,130)",
		"click",
		"key(enter)",
		"key(backspace)",
		"type(h)",
		"type(é)",
		"type(!)",
		"move(0,0)",
	}, b.Calls())
	assert.Equal(t, []time.Duration{
		action.ClickSettle, action.ClickSettle,
		action.KeySettle, action.KeySettle,
		action.RuneDelay, action.RuneDelay,
	}, slept)
}

func TestClickPoint(t *testing.T) {
	r := domain.Rect{X: 10, Y: 20, W: 100, H: 40}

	high := action.New(nil, action.WithRand(func(n int) int { return n - 1 }))
	x, y := high.ClickPoint(r, true)
	assert.Equal(t, 10+25+50, x)
	assert.Equal(t, 20+10+20, y)

	low := action.New(nil, action.WithRand(func(int) int { return 0 }))
	x, y = low.ClickPoint(r, true)
	assert.Equal(t, 35, x)
	assert.Equal(t, 30, y)

	x, y = low.ClickPoint(domain.Rect{X: 3, Y: 4, W: 1, H: 1}, true)
	assert.Equal(t, 3, x, "tiny regions have no jitter")
	assert.Equal(t, 4, y)
}

func TestRun_FailureAbandonsRest(t *testing.T) {
	b := testutils.NewFakeBackend()
	boom := errors.New("keyboard unplugged")
	b.Fail("key", boom)
	var slept []time.Duration

	n := testutils.Action("login", domain.NoneTarget, 0)
	n.Action.PressEnter = true
	n.Action.EnteredText = "abc"

	err := newExecutor(b, &slept).Run(context.Background(), n)
	require.ErrorIs(t, err, boom)

	var ce *domain.CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "login", ce.Node)
	assert.Equal(t, "press enter", ce.Op)
	assert.Equal(t, 0, b.Count("type"))
}

func TestRun_NoActionPayload(t *testing.T) {
	b := testutils.NewFakeBackend()
	n := domain.NewLogicNode("l", testutils.Region)
	assert.NoError(t, action.New(b).Run(context.Background(), n))
	assert.Empty(t, b.Calls())
}
