package testutils

import (
	"testing"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/require"
)

// NewTask builds a task from nodes, failing the test immediately on error.
func NewTask(t *testing.T, name string, nodes ...*domain.Node) *domain.Task {
	t.Helper()

	task := domain.NewTask(name)
	for _, n := range nodes {
		require.NoError(t, task.Add(n), "Failed to add node %s", n.Name)
	}
	return task
}

// Region is the default test region: 100x40 at (200, 100).
var Region = domain.Rect{X: 200, Y: 100, W: 100, H: 40}

// Action returns an Action node over Region with every input step disabled.
func Action(name string, next string, delay int) *domain.Node {
	n := domain.NewActionNode(name, Region)
	n.Action.ClickRandomPosition = false
	n.Action.MoveMouseBack = false
	n.Action.Next = domain.Edge{Target: next, Delay: delay}
	return n
}

// Logic returns a text Logic node over Region.
func Logic(name string, op domain.Operator, reference, success, fail string) *domain.Node {
	n := domain.NewLogicNode(name, Region)
	n.Logic.Operator = op
	n.Logic.Reference = reference
	n.Logic.Success = domain.Edge{Target: success}
	n.Logic.Fail = domain.Edge{Target: fail}
	return n
}
