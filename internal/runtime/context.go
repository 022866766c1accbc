package runtime

import (
	"sync"

	"github.com/aretw0/autopilot/pkg/domain"
)

// EngineContext owns the run state of one scheduler: whether it is running, which run is
// current, and the task-level overlay visibility. Nothing outside the scheduler mutates it.
type EngineContext struct {
	mu sync.RWMutex

	state   domain.ExecutionState
	runID   string
	gen     uint64
	current string
	visible bool
}

// NewEngineContext returns an idle context with overlays shown.
func NewEngineContext() *EngineContext {
	return &EngineContext{state: domain.StateIdle, visible: true}
}

// Running reports whether a run is in progress.
func (c *EngineContext) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == domain.StateRunning
}

// State returns the execution state.
func (c *EngineContext) State() domain.ExecutionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RunID returns the identifier of the current (or last) run.
func (c *EngineContext) RunID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runID
}

// OverlaysVisible reports the task-level overlay visibility.
func (c *EngineContext) OverlaysVisible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

// begin moves Idle to Running and returns the generation of the new run.
func (c *EngineContext) begin(runID string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.StateRunning {
		return 0, false
	}
	c.state = domain.StateRunning
	c.runID = runID
	c.gen++
	return c.gen, true
}

// end moves Running to Idle.
func (c *EngineContext) end() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateRunning {
		return false
	}
	c.state = domain.StateIdle
	c.current = ""
	return true
}

// live reports whether work tagged with gen may still run.
func (c *EngineContext) live(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == domain.StateRunning && c.gen == gen
}

func (c *EngineContext) setCurrent(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = name
}

func (c *EngineContext) setVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
}

func (c *EngineContext) snapshot() (domain.ExecutionState, string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.runID, c.current
}
