package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// ErrNotRegistered is returned when a call names a command missing from the allow-list.
var ErrNotRegistered = errors.New("process command not registered")

// Runner executes local processes.
// It follows a Strict Registry pattern for security (Allow-Listing): only registered commands
// run, and call arguments are appended as separate argv entries, never through a shell.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines a allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string // Default args placed before call args
	Env     map[string]string
}

// Call is one invocation of a registered command.
type Call struct {
	Name  string
	Args  []string
	Env   map[string]any
	Stdin []byte
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry registers every loaded command, replacing earlier registrations of the same name.
func WithRegistry(commands Commands) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = RegisteredProcess{Command: c.Command, Args: c.Args, Env: c.Env}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Registered reports whether name is on the allow-list.
func (r *Runner) Registered(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// LookPath resolves the binary registered under name, searching PATH for bare names.
func (r *Runner) LookPath(name string) (string, error) {
	proc, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	path, err := exec.LookPath(proc.Command)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return path, nil
}

// Execute runs a registered command and returns its stdout.
// Call env values are exported as AUTOPILOT_ARG_<KEY>.
func (r *Runner) Execute(ctx context.Context, call Call) ([]byte, error) {
	proc, ok := r.registry[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, call.Name)
	}

	args := append(append([]string{}, proc.Args...), call.Args...)
	cmd := exec.CommandContext(ctx, proc.Command, args...)
	cmd.Dir = r.baseDir

	env := make([]string, 0, len(proc.Env)+len(call.Env))
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range call.Env {
		env = append(env, fmt.Sprintf("AUTOPILOT_ARG_%s=%v", strings.ToUpper(k), v))
	}
	sort.Strings(env)
	cmd.Env = append(cmd.Environ(), env...)

	if call.Stdin != nil {
		cmd.Stdin = bytes.NewReader(call.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: execution failed: %w. Stderr: %s", call.Name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Output runs a registered command and returns its trimmed stdout as a string.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := r.Execute(ctx, Call{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
