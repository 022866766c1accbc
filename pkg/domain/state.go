package domain

// ExecutionState is the run mode of a scheduler.
type ExecutionState string

const (
	StateIdle    ExecutionState = "idle"
	StateRunning ExecutionState = "running"
)

// Status is a snapshot of a scheduler, suitable for display and transport.
type Status struct {
	Task    string         `json:"task"`
	RunID   string         `json:"run_id,omitempty"`
	State   ExecutionState `json:"state"`
	Pending int            `json:"pending"`
	Current string         `json:"current,omitempty"`
}
