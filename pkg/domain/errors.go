package domain

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned when a task name is not present in the store.
var ErrTaskNotFound = errors.New("task not found")

// ErrNodeNotFound is returned when a node name is not present in the task.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when a node name is already used within the task.
var ErrDuplicateNode = errors.New("duplicate node name")

// ErrTaskRunning is returned when an edit is attempted while the task is running.
var ErrTaskRunning = errors.New("task is running")

// ErrAlreadyRunning is returned by Start when the scheduler is already running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// ErrNotRunning is returned by Stop when the scheduler is idle.
var ErrNotRunning = errors.New("scheduler not running")

// ErrInvalidGeometry is returned when a geometry string cannot be parsed.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ErrInvalidNode is returned when a node has no name or an unknown kind.
var ErrInvalidNode = errors.New("invalid node")

// ErrUnknownField is returned by field updates naming a key the node does not carry.
var ErrUnknownField = errors.New("unknown field")

// CaptureError wraps a failure of the capability backend while a node was executing.
type CaptureError struct {
	Node string
	Op   string
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("node %q: %s failed: %v", e.Node, e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// ErrLocked is returned when another process holds the run lock.
var ErrLocked = errors.New("run lock held by another process")

// ErrTaskExists is returned when creating a task under a name already in the store.
var ErrTaskExists = errors.New("task already exists")
