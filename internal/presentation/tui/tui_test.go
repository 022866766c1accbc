package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/autopilot/internal/presentation/tui"
	"github.com/aretw0/autopilot/internal/testutils"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestTaskMarkdown(t *testing.T) {
	a := testutils.Action("login", "check", 2)
	a.RunAtStart = true
	a.Action.EnteredText = "admin"
	a.Action.PressEnter = true
	c := testutils.Logic("check", domain.OpEqual, "a|b", domain.NoneTarget, "login")
	c.Repeat = true
	c.RepeatDelay = 3

	md := tui.TaskMarkdown(testutils.NewTask(t, "demo", a, c))
	assert.Contains(t, md, "# demo")
	assert.Contains(t, md, "| login | action | `100x40+200+100` | yes |  | click, enter, type \"admin\" | check (2s) |")
	assert.Contains(t, md, "every 3s")
	assert.Contains(t, md, `a\|b`)
	assert.Contains(t, md, "ok: None, fail: login")

	assert.Contains(t, tui.TaskMarkdown(domain.NewTask("empty")), "_No nodes._")
}

func TestStatusLine(t *testing.T) {
	line := tui.StatusLine(domain.Status{Task: "demo", State: domain.StateRunning, Pending: 2, Current: "check", RunID: "r1"})
	assert.Contains(t, line, "demo: ")
	assert.Contains(t, line, "running")
	assert.Contains(t, line, "(pending 2) at check run r1")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.NotEmpty(t, buf.String())
}
