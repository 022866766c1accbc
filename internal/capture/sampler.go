package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
)

// Profile selects the recognizer configuration for a pass.
type Profile int

const (
	// ProfileDefault lets the recognizer pick its own page segmentation.
	ProfileDefault Profile = iota
	// ProfileStrict treats the region as one uniform block of text (tesseract --oem 3 --psm 6).
	ProfileStrict
)

func (p Profile) String() string {
	if p == ProfileStrict {
		return "strict"
	}
	return "default"
}

// Grabber captures the pixels inside a screen rectangle.
type Grabber interface {
	Grab(ctx context.Context, rect domain.Rect) (image.Image, error)
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, profile Profile) (string, error)
}

// GrabberFunc adapts a function to the Grabber interface.
type GrabberFunc func(ctx context.Context, rect domain.Rect) (image.Image, error)

func (f GrabberFunc) Grab(ctx context.Context, rect domain.Rect) (image.Image, error) {
	return f(ctx, rect)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image, profile Profile) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image, profile Profile) (string, error) {
	return f(ctx, img, profile)
}

// Sampler implements ports.Sampler on top of a Grabber and a Recognizer.
type Sampler struct {
	grabber    Grabber
	recognizer Recognizer
	threshold  int
	logger     *slog.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger used for recognition traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// WithContrastThreshold overrides DefaultContrastThreshold.
func WithContrastThreshold(threshold int) Option {
	return func(s *Sampler) {
		s.threshold = threshold
	}
}

// NewSampler creates a Sampler. The recognizer may be nil when only colors are sampled.
func NewSampler(grabber Grabber, recognizer Recognizer, opts ...Option) *Sampler {
	s := &Sampler{
		grabber:    grabber,
		recognizer: recognizer,
		threshold:  DefaultContrastThreshold,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SampleRegionText recognizes the text inside rect. An empty first pass is retried with the
// strict profile, whose output is reduced to letters, digits and dots.
func (s *Sampler) SampleRegionText(ctx context.Context, rect domain.Rect) (string, error) {
	if s.recognizer == nil {
		return "", fmt.Errorf("text recognition is not available")
	}
	img, err := s.grabber.Grab(ctx, rect)
	if err != nil {
		return "", fmt.Errorf("grab %s: %w", rect, err)
	}
	prepared := Preprocess(img, s.threshold)

	text, err := s.recognizer.Recognize(ctx, prepared, ProfileDefault)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	text = strings.TrimSpace(text)
	s.logger.Debug("text pass", "profile", ProfileDefault, "rect", rect.String(), "text", text)
	if text != "" {
		return text, nil
	}

	text, err = s.recognizer.Recognize(ctx, prepared, ProfileStrict)
	if err != nil {
		return "", fmt.Errorf("recognize strict: %w", err)
	}
	text = Alphanumeric(text)
	s.logger.Debug("text pass", "profile", ProfileStrict, "rect", rect.String(), "text", text)
	return text, nil
}

// SampleRegionColor returns the color of the center pixel of rect.
func (s *Sampler) SampleRegionColor(ctx context.Context, rect domain.Rect) (color.RGBA, error) {
	img, err := s.grabber.Grab(ctx, rect)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("grab %s: %w", rect, err)
	}
	return CenterPixel(img), nil
}

// Alphanumeric keeps only ASCII letters, digits and dots, then trims.
func Alphanumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
