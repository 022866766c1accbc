package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	runner := NewRunner()
	runner.Register("echo", "echo", "hello")

	t.Run("Executes Registered Command", func(t *testing.T) {
		out, err := runner.Output(context.Background(), "echo", "world")
		require.NoError(t, err)
		assert.Equal(t, "hello world", out)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Execute(context.Background(), Call{Name: "hacker_script"})
		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.False(t, runner.Registered("hacker_script"))
	})

	t.Run("Args Are Not Shell Expanded", func(t *testing.T) {
		out, err := runner.Output(context.Background(), "echo", "$HOME;", "rm")
		require.NoError(t, err)
		assert.Equal(t, "hello $HOME; rm", out)
	})

	t.Run("Passes Env And Stdin", func(t *testing.T) {
		runner.Register("env", "sh", "-c", `printf "%s:" "$AUTOPILOT_ARG_MSG"; cat`)
		out, err := runner.Execute(context.Background(), Call{
			Name:  "env",
			Env:   map[string]any{"msg": "Secret"},
			Stdin: []byte("piped"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Secret:piped", string(out))
	})

	t.Run("Reports Stderr On Failure", func(t *testing.T) {
		runner.Register("fail", "sh", "-c", "echo broken >&2; exit 3")
		_, err := runner.Execute(context.Background(), Call{Name: "fail"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("Registers Overrides", func(t *testing.T) {
		cmds, err := LoadCommands(write("commands.yaml", `
commands:
  - name: xdotool
    command: /usr/bin/xdotool
    env:
      DISPLAY: ":1"
  - name: tesseract
    command: tesseract
    args: ["--tessdata-dir", "/opt/tessdata"]
`))
		require.NoError(t, err)
		require.Len(t, cmds, 2)
		assert.Equal(t, "/usr/bin/xdotool", cmds["xdotool"].Command)

		r := NewRunner(WithRegistry(cmds))
		assert.True(t, r.Registered("xdotool"))
		assert.Equal(t, ":1", r.registry["xdotool"].Env["DISPLAY"])
		assert.Equal(t, []string{"--tessdata-dir", "/opt/tessdata"}, r.registry["tesseract"].Args)
	})

	t.Run("Accepts JSON", func(t *testing.T) {
		cmds, err := LoadCommands(write("commands.json", `{"commands": [{"name": "import", "command": "magick-import"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "magick-import", cmds["import"].Command)
	})

	t.Run("Missing File Means No Overrides", func(t *testing.T) {
		cmds, err := LoadCommands(filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cmds)
	})

	bad := []struct {
		name    string
		content string
		want    string
	}{
		{"Unnamed Entry", "commands:\n  - command: nameless\n", "has no name"},
		{"No Command", "commands:\n  - name: xdotool\n", "has no command"},
		{"Duplicate", "commands:\n  - {name: a, command: x}\n  - {name: a, command: y}\n", "configured twice"},
		{"Unknown Key", "commands:\n  - {name: a, comand: x}\n", "comand"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCommands(write("bad.yaml", tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRunner_LookPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := NewRunner()
	r.Register("shell", "sh")
	r.Register("ghost", "definitely-not-installed-binary")

	path, err := r.LookPath("shell")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	_, err = r.LookPath("ghost")
	assert.ErrorContains(t, err, "ghost")

	_, err = r.LookPath("unknown")
	assert.ErrorIs(t, err, ErrNotRegistered)
}
