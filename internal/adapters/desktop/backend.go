// Package desktop drives an X11 desktop through command-line tools: xdotool for the pointer
// and keyboard, ImageMagick import for screen capture, tesseract for text recognition and,
// optionally, xinput to detect held buttons and keys.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/autopilot/internal/capture"
	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/adapters/process"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
)

// Command names looked up in the process registry.
const (
	CmdXdotool   = "xdotool"
	CmdImport    = "import"
	CmdTesseract = "tesseract"
	CmdXinput    = "xinput"
)

var keyNames = map[string]string{
	ports.KeyEnter:     "Return",
	ports.KeyBackspace: "BackSpace",
}

// Backend implements ports.Backend on top of a process runner.
type Backend struct {
	runner  *process.Runner
	sampler *capture.Sampler
	device  string
	logger  *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithInputDevice names the xinput device polled for held buttons and keys.
// Without it only pointer movement reveals a user.
func WithInputDevice(device string) Option {
	return func(b *Backend) {
		b.device = device
	}
}

// DefaultRunner registers the standard tool binaries found on PATH, then applies opts so a
// commands file can point any of them elsewhere.
func DefaultRunner(opts ...process.RunnerOption) *process.Runner {
	r := process.NewRunner()
	r.Register(CmdXdotool, "xdotool")
	r.Register(CmdImport, "import")
	r.Register(CmdTesseract, "tesseract")
	r.Register(CmdXinput, "xinput")
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequiredCommands are the tools a desktop backend cannot work without. xinput is optional.
var RequiredCommands = []string{CmdXdotool, CmdImport, CmdTesseract}

// CheckTools verifies that every required command is registered and resolves to an
// executable, so a missing tool fails at startup instead of on the first node.
func CheckTools(r *process.Runner) error {
	var errs []error
	for _, name := range RequiredCommands {
		if _, err := r.LookPath(name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("desktop tools unavailable (install them or point commands.yaml at them): %w", err)
	}
	return nil
}

// New creates a desktop backend. threshold is the capture contrast threshold.
func New(runner *process.Runner, threshold int, opts ...Option) *Backend {
	b := &Backend{
		runner: runner,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.sampler = capture.NewSampler(
		capture.GrabberFunc(b.grab),
		capture.RecognizerFunc(b.recognize),
		capture.WithContrastThreshold(threshold),
		capture.WithLogger(b.logger),
	)
	return b
}

func (b *Backend) xdotool(ctx context.Context, args ...string) (string, error) {
	b.logger.Debug("xdotool", "args", args)
	return b.runner.Output(ctx, CmdXdotool, args...)
}

var locationPattern = regexp.MustCompile(`(?m)^([XY])=(-?\d+)$`)

// PointerPosition implements ports.Backend via xdotool getmouselocation.
func (b *Backend) PointerPosition(ctx context.Context) (int, int, error) {
	out, err := b.xdotool(ctx, "getmouselocation", "--shell")
	if err != nil {
		return 0, 0, err
	}
	return parseLocation(out)
}

func parseLocation(out string) (int, int, error) {
	var x, y int
	found := 0
	for _, m := range locationPattern.FindAllStringSubmatch(out, -1) {
		v, _ := strconv.Atoi(m[2])
		if m[1] == "X" {
			x = v
		} else {
			y = v
		}
		found++
	}
	if found < 2 {
		return 0, 0, fmt.Errorf("unexpected pointer location %q", out)
	}
	return x, y, nil
}

// MoveTo implements ports.Backend.
func (b *Backend) MoveTo(ctx context.Context, x, y int) error {
	_, err := b.xdotool(ctx, "mousemove", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// MoveAndClick implements ports.Backend with a single xdotool call so nothing moves in between.
func (b *Backend) MoveAndClick(ctx context.Context, x, y int) error {
	_, err := b.xdotool(ctx, "mousemove", strconv.Itoa(x), strconv.Itoa(y), "click", "1")
	return err
}

// Click implements ports.Backend with the left button.
func (b *Backend) Click(ctx context.Context) error {
	_, err := b.xdotool(ctx, "click", "1")
	return err
}

// PressKey implements ports.Backend for the keys in ports (enter, backspace).
func (b *Backend) PressKey(ctx context.Context, key string) error {
	name, ok := keyNames[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	_, err := b.xdotool(ctx, "key", name)
	return err
}

// TypeText implements ports.Backend. Pacing between runes is left to the executor.
func (b *Backend) TypeText(ctx context.Context, text string) error {
	_, err := b.xdotool(ctx, "type", "--delay", "0", "--", text)
	return err
}

// SampleRegionText implements ports.Backend through the capture pipeline.
func (b *Backend) SampleRegionText(ctx context.Context, rect domain.Rect) (string, error) {
	return b.sampler.SampleRegionText(ctx, rect)
}

// SampleRegionColor implements ports.Backend through the capture pipeline.
func (b *Backend) SampleRegionColor(ctx context.Context, rect domain.Rect) (color.RGBA, error) {
	return b.sampler.SampleRegionColor(ctx, rect)
}

// IsHumanInputActive reports whether any button or key of the configured device is down.
func (b *Backend) IsHumanInputActive(ctx context.Context) (bool, error) {
	if b.device == "" || !b.runner.Registered(CmdXinput) {
		return false, nil
	}
	out, err := b.runner.Output(ctx, CmdXinput, "query-state", b.device)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "=down"), nil
}

func (b *Backend) grab(ctx context.Context, rect domain.Rect) (image.Image, error) {
	out, err := b.runner.Execute(ctx, process.Call{
		Name: CmdImport,
		Args: []string{"-window", "root", "-crop", rect.String(), "+repage", "png:-"},
	})
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return img, nil
}

func (b *Backend) recognize(ctx context.Context, img image.Image, profile capture.Profile) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	args := []string{"stdin", "stdout"}
	if profile == capture.ProfileStrict {
		args = append(args, "--oem", "3", "--psm", "6")
	}
	out, err := b.runner.Execute(ctx, process.Call{Name: CmdTesseract, Args: args, Stdin: buf.Bytes()})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
