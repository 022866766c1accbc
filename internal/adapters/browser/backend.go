// Package browser drives a Chrome page through the DevTools protocol. Coordinates are page
// CSS pixels; text is read from the DOM under the region center instead of OCR.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"sync"

	"github.com/aretw0/autopilot/internal/capture"
	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// textAtPoint returns the visible text of the element under a point.
const textAtPoint = `(function(x, y) {
	const el = document.elementFromPoint(x, y);
	if (!el) return "";
	if (el.value !== undefined && el.value !== "") return String(el.value);
	return (el.innerText || el.textContent || "").trim();
})(%d, %d)`

var keys = map[string]string{
	ports.KeyEnter:     kb.Enter,
	ports.KeyBackspace: kb.Backspace,
}

// Config selects the page and how Chrome is launched.
type Config struct {
	URL      string
	Headless bool
}

// Backend implements ports.Backend against one browser tab.
type Backend struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sampler *capture.Sampler
	logger  *slog.Logger

	mu   sync.Mutex
	x, y int
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// New launches Chrome and opens cfg.URL. Close releases the browser.
func New(ctx context.Context, cfg Config, opts ...Option) (*Backend, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &Backend{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.sampler = capture.NewSampler(capture.GrabberFunc(b.grab), nil, capture.WithLogger(b.logger))

	if cfg.URL != "" {
		if err := chromedp.Run(b.ctx, chromedp.Navigate(cfg.URL)); err != nil {
			b.cancel()
			return nil, fmt.Errorf("open %s: %w", cfg.URL, err)
		}
	}
	return b, nil
}

// Close shuts the browser down.
func (b *Backend) Close() error {
	b.cancel()
	return nil
}

// run executes actions on the tab, aborting when either ctx or the browser ends.
func (b *Backend) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(b.ctx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PointerPosition returns the last position the backend moved to; pages cannot report the
// real pointer.
func (b *Backend) PointerPosition(context.Context) (int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.x, b.y, nil
}

func (b *Backend) moved(x, y int) {
	b.mu.Lock()
	b.x, b.y = x, y
	b.mu.Unlock()
}

func (b *Backend) MoveTo(ctx context.Context, x, y int) error {
	if err := b.run(ctx, chromedp.MouseEvent(input.MouseMoved, float64(x), float64(y))); err != nil {
		return err
	}
	b.moved(x, y)
	return nil
}

func (b *Backend) MoveAndClick(ctx context.Context, x, y int) error {
	b.logger.Debug("click", "x", x, "y", y)
	if err := b.run(ctx, chromedp.MouseClickXY(float64(x), float64(y))); err != nil {
		return err
	}
	b.moved(x, y)
	return nil
}

func (b *Backend) Click(ctx context.Context) error {
	x, y, _ := b.PointerPosition(ctx)
	return b.run(ctx, chromedp.MouseClickXY(float64(x), float64(y)))
}

func (b *Backend) PressKey(ctx context.Context, key string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	return b.run(ctx, chromedp.KeyEvent(k))
}

func (b *Backend) TypeText(ctx context.Context, text string) error {
	return b.run(ctx, chromedp.KeyEvent(text))
}

func (b *Backend) SampleRegionText(ctx context.Context, rect domain.Rect) (string, error) {
	x, y := rect.Center()
	var text string
	if err := b.run(ctx, chromedp.Evaluate(fmt.Sprintf(textAtPoint, x, y), &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (b *Backend) SampleRegionColor(ctx context.Context, rect domain.Rect) (color.RGBA, error) {
	return b.sampler.SampleRegionColor(ctx, rect)
}

// IsHumanInputActive is always false: nobody else drives an automated tab.
func (b *Backend) IsHumanInputActive(context.Context) (bool, error) {
	return false, nil
}

func (b *Backend) grab(ctx context.Context, rect domain.Rect) (image.Image, error) {
	var shot []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&shot)); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return Crop(img, rect)
}

// Crop returns the part of img inside rect.
func Crop(img image.Image, rect domain.Rect) (image.Image, error) {
	r := image.Rect(rect.X, rect.Y, rect.X+rect.W, rect.Y+rect.H).Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %s is outside the page", rect)
	}
	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("screenshot of type %T cannot be cropped", img)
	}
	return sub.SubImage(r), nil
}
