package ports

import (
	"context"
	"image/color"

	"github.com/aretw0/autopilot/pkg/domain"
)

// Key names understood by every Backend.
const (
	KeyEnter     = "enter"
	KeyBackspace = "backspace"
)

// Pointer controls the mouse pointer.
type Pointer interface {
	// PointerPosition returns the current pointer coordinates.
	PointerPosition(ctx context.Context) (x, y int, err error)

	// MoveTo moves the pointer without clicking.
	MoveTo(ctx context.Context, x, y int) error

	// MoveAndClick moves the pointer and clicks the primary button once.
	MoveAndClick(ctx context.Context, x, y int) error

	// Click clicks the primary button at the current position.
	Click(ctx context.Context) error
}

// Keyboard sends key presses and text.
type Keyboard interface {
	// PressKey presses and releases a named key (see KeyEnter, KeyBackspace).
	PressKey(ctx context.Context, key string) error

	// TypeText types the given text.
	TypeText(ctx context.Context, text string) error
}

// Sampler reads screen content inside a rectangle.
type Sampler interface {
	// SampleRegionText returns the recognized text inside rect.
	SampleRegionText(ctx context.Context, rect domain.Rect) (string, error)

	// SampleRegionColor returns the color of the pixel at the center of rect.
	SampleRegionColor(ctx context.Context, rect domain.Rect) (color.RGBA, error)
}

// ActivityProbe reports instantaneous human input.
type ActivityProbe interface {
	// IsHumanInputActive reports whether a key, mouse button or scroll wheel is engaged right now.
	IsHumanInputActive(ctx context.Context) (bool, error)
}

// Backend is the full capability set the engine drives.
type Backend interface {
	Pointer
	Keyboard
	Sampler
	ActivityProbe
}
