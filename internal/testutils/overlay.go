package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
)

// FakeOverlay records visibility changes.
type FakeOverlay struct {
	mu      sync.Mutex
	changes []bool
}

func (o *FakeOverlay) SetVisible(_ context.Context, visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, visible)
}

// Changes returns every visibility change in order.
func (o *FakeOverlay) Changes() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]bool(nil), o.changes...)
}

// Visible returns the last visibility set, or true when nothing was set.
func (o *FakeOverlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.changes) == 0 {
		return true
	}
	return o.changes[len(o.changes)-1]
}

// Reports collects failure reports.
type Reports struct {
	mu   sync.Mutex
	list []domain.Report
}

func (r *Reports) Report(_ context.Context, rep domain.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, rep)
}

// All returns the collected reports.
func (r *Reports) All() []domain.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Report(nil), r.list...)
}
