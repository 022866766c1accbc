package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands_SampleTaskLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "autopilot.yaml")
	cfg := "store:\n  driver: file\n  path: " + filepath.Join(dir, "tasks.json") + "\nlog:\n  file: \"\"\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out := execute(t, "--config", cfgPath, "task", "new", "demo", "--sample")
	assert.Contains(t, out, "Created task 'demo' with 2 sample nodes")

	out = execute(t, "--config", cfgPath, "task", "ls")
	assert.Contains(t, out, "- demo")

	out = execute(t, "--config", cfgPath, "validate", "demo")
	assert.Contains(t, out, "Task is valid!")

	out = execute(t, "--config", cfgPath, "graph", "demo")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "watch")

	out = execute(t, "--config", cfgPath, "task", "export", "demo", "--yaml")
	assert.Contains(t, out, "event_name: watch")
	assert.Contains(t, out, "logic_value: OK")
}

func TestCommands_Version(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "autopilot version")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 1, parseValue("1"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "None", parseValue("None"))
}
