package testutils

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
)

// FakeBackend is a recording ports.Backend.
// Calls are logged as short strings such as "click(250,120)" or "key(enter)".
type FakeBackend struct {
	mu sync.Mutex

	calls   []string
	x, y    int
	texts   []string
	Color   color.RGBA
	Active  bool
	Moving  bool
	Errs    map[string]error
	samples int
}

// NewFakeBackend creates a backend whose pointer rests at (0, 0).
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Errs: make(map[string]error)}
}

// QueueText appends recognized texts returned by successive SampleRegionText calls.
// The last one repeats once the queue is drained.
func (f *FakeBackend) QueueText(texts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, texts...)
}

// SetActive toggles simulated human input.
func (f *FakeBackend) SetActive(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Active = active
}

// Fail makes the named operation return err ("pointer", "click", "key", "type", "move", "text", "color").
func (f *FakeBackend) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[op] = err
}

// Calls returns a copy of the recorded calls.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how many recorded calls start with prefix.
func (f *FakeBackend) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (f *FakeBackend) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeBackend) record(op, call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs[op]; err != nil {
		return err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *FakeBackend) PointerPosition(context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs["pointer"]; err != nil {
		return 0, 0, err
	}
	if f.Moving {
		f.x++
	}
	return f.x, f.y, nil
}

func (f *FakeBackend) MoveTo(_ context.Context, x, y int) error {
	if err := f.record("move", fmt.Sprintf("move(%d,%d)", x, y)); err != nil {
		return err
	}
	f.mu.Lock()
	f.x, f.y = x, y
	f.mu.Unlock()
	return nil
}

func (f *FakeBackend) MoveAndClick(_ context.Context, x, y int) error {
	if err := f.record("click", fmt.Sprintf("click(%d,%d)", x, y)); err != nil {
		return err
	}
	f.mu.Lock()
	f.x, f.y = x, y
	f.mu.Unlock()
	return nil
}

func (f *FakeBackend) Click(context.Context) error {
	return f.record("click", "click")
}

func (f *FakeBackend) PressKey(_ context.Context, key string) error {
	return f.record("key", "key("+key+")")
}

func (f *FakeBackend) TypeText(_ context.Context, text string) error {
	return f.record("type", "type("+text+")")
}

func (f *FakeBackend) SampleRegionText(_ context.Context, rect domain.Rect) (string, error) {
	if err := f.record("text", "text("+rect.String()+")"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return "", nil
	}
	i := min(f.samples, len(f.texts)-1)
	f.samples++
	return f.texts[i], nil
}

func (f *FakeBackend) SampleRegionColor(_ context.Context, rect domain.Rect) (color.RGBA, error) {
	if err := f.record("color", "color("+rect.String()+")"); err != nil {
		return color.RGBA{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Color, nil
}

func (f *FakeBackend) IsHumanInputActive(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Active, nil
}
