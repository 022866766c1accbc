package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/autopilot"
	"github.com/aretw0/autopilot/internal/testutils"
	"github.com/aretw0/autopilot/pkg/adapters/memory"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *autopilot.Engine) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), "login", []schema.Record{
		{schema.KeyEventType: domain.EventButton, schema.KeyEventName: "click", schema.KeyRunAtStart: true},
	}))
	eng := autopilot.New(store, testutils.NewFakeBackend(), autopilot.WithClock(testutils.NewFakeClock()))
	t.Cleanup(func() { _ = eng.Close() })
	return NewServer(eng, "test"), eng
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestListTasks(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleListTasks(context.Background(), call("list_tasks", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["login"]`, text(t, res))
}

func TestShowTask(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleShowTask(ctx, call("show_task", map[string]any{"name": "login"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var view TaskView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &view))
	assert.Equal(t, "login", view.Name)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "click", view.Records[0][schema.KeyEventName])

	res, err = s.handleShowTask(ctx, call("show_task", map[string]any{"name": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleShowTask(ctx, call("show_task", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError, "name is required")
}

func TestOpenStartStop(t *testing.T) {
	s, eng := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleOpenTask(ctx, call("open_task", map[string]any{"name": "login"}))
	require.NoError(t, err)
	assert.Equal(t, "opened login (1 nodes)", text(t, res))

	status, err := s.handleStart(ctx, call("start", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, status.State)
	assert.True(t, eng.Running())

	_, err = s.handleStart(ctx, call("start", nil), nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)

	res, err = s.handleOpenTask(ctx, call("open_task", map[string]any{"name": "login"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "open is rejected while running")

	status, err = s.handleStop(ctx, call("stop", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, status.State)

	status, err = s.handleStatus(ctx, call("status", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "login", status.Task)
}

func TestGraphAndReports(t *testing.T) {
	s, eng := newTestServer(t)
	ctx := context.Background()
	_, err := eng.Open(ctx, "login")
	require.NoError(t, err)

	res, err := s.handleGraph(ctx, call("get_graph", nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "click")

	res, err = s.handleReports(ctx, call("reports", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, text(t, res))
}
