package ports

import (
	"context"

	"github.com/aretw0/autopilot/pkg/domain"
)

// Overlay is implemented by the UI collaborator that draws node overlays on screen.
// The engine never depends on the outcome of a visibility change.
type Overlay interface {
	SetVisible(ctx context.Context, visible bool)
}

// Reporter receives failures caught while a task runs.
type Reporter interface {
	Report(ctx context.Context, r domain.Report)
}

// OverlayFunc adapts a function to the Overlay interface.
type OverlayFunc func(ctx context.Context, visible bool)

func (f OverlayFunc) SetVisible(ctx context.Context, visible bool) { f(ctx, visible) }

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, r domain.Report)

func (f ReporterFunc) Report(ctx context.Context, r domain.Report) { f(ctx, r) }
