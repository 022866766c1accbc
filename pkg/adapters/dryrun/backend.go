// Package dryrun provides a Backend that performs nothing and logs every primitive.
// Samples come from configuration, so whole tasks can be rehearsed without a display.
package dryrun

import (
	"context"
	"image/color"
	"log/slog"
	"sync"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
)

// Samples configures what the backend "sees". Regions are keyed by their geometry string
// ("WxH+X+Y"); anything else returns the defaults.
type Samples struct {
	Text        string
	Color       color.RGBA
	RegionText  map[string]string
	RegionColor map[string]color.RGBA
	HumanActive bool
}

// Backend is a logging no-op ports.Backend.
type Backend struct {
	logger  *slog.Logger
	samples Samples

	mu   sync.Mutex
	x, y int
}

// New creates a dry-run backend.
func New(logger *slog.Logger, samples Samples) *Backend {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backend{logger: logger.With("backend", "dryrun"), samples: samples}
}

func (b *Backend) PointerPosition(context.Context) (int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.x, b.y, nil
}

func (b *Backend) MoveTo(_ context.Context, x, y int) error {
	b.logger.Info("move", "x", x, "y", y)
	b.mu.Lock()
	b.x, b.y = x, y
	b.mu.Unlock()
	return nil
}

func (b *Backend) MoveAndClick(_ context.Context, x, y int) error {
	b.logger.Info("click", "x", x, "y", y)
	b.mu.Lock()
	b.x, b.y = x, y
	b.mu.Unlock()
	return nil
}

func (b *Backend) Click(context.Context) error {
	b.logger.Info("click")
	return nil
}

func (b *Backend) PressKey(_ context.Context, key string) error {
	b.logger.Info("key", "key", key)
	return nil
}

func (b *Backend) TypeText(_ context.Context, text string) error {
	b.logger.Info("type", "text", text)
	return nil
}

func (b *Backend) SampleRegionText(_ context.Context, rect domain.Rect) (string, error) {
	text, ok := b.samples.RegionText[rect.String()]
	if !ok {
		text = b.samples.Text
	}
	b.logger.Info("sample text", "rect", rect.String(), "text", text)
	return text, nil
}

func (b *Backend) SampleRegionColor(_ context.Context, rect domain.Rect) (color.RGBA, error) {
	c, ok := b.samples.RegionColor[rect.String()]
	if !ok {
		c = b.samples.Color
	}
	b.logger.Info("sample color", "rect", rect.String(), "r", c.R, "g", c.G, "b", c.B)
	return c, nil
}

func (b *Backend) IsHumanInputActive(context.Context) (bool, error) {
	return b.samples.HumanActive, nil
}
