package domain_test

import (
	"testing"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_AddLookupOrder(t *testing.T) {
	task := domain.NewTask("demo")
	require.NoError(t, task.Add(domain.NewActionNode("b", domain.Rect{})))
	require.NoError(t, task.Add(domain.NewLogicNode("a", domain.Rect{})))
	require.NoError(t, task.Add(domain.NewActionNode("c", domain.Rect{})))

	assert.Equal(t, []string{"b", "a", "c"}, task.Names())
	assert.Equal(t, []string{domain.NoneTarget, "b", "a", "c"}, task.TargetChoices())

	n, ok := task.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, domain.KindLogic, n.Kind)

	_, ok = task.Lookup("missing")
	assert.False(t, ok)
}

func TestTask_RejectsDuplicates(t *testing.T) {
	task := domain.NewTask("demo")
	require.NoError(t, task.Add(domain.NewActionNode("click", domain.Rect{})))
	err := task.Add(domain.NewLogicNode("click", domain.Rect{}))
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
	assert.Equal(t, 1, task.Len())
}

func TestTask_RejectsUnknownKind(t *testing.T) {
	task := domain.NewTask("demo")
	err := task.Add(&domain.Node{Name: "x", Kind: "window"})
	assert.Error(t, err)
}

func TestTask_Delete(t *testing.T) {
	task := domain.NewTask("demo")
	require.NoError(t, task.Add(domain.NewActionNode("a", domain.Rect{})))
	require.NoError(t, task.Add(domain.NewActionNode("b", domain.Rect{})))

	require.NoError(t, task.Delete("a"))
	assert.Equal(t, []string{"b"}, task.Names())
	assert.ErrorIs(t, task.Delete("a"), domain.ErrNodeNotFound)
}

func TestTask_RunAtStart(t *testing.T) {
	task := domain.NewTask("demo")
	a := domain.NewActionNode("a", domain.Rect{})
	a.RunAtStart = true
	b := domain.NewActionNode("b", domain.Rect{})
	c := domain.NewLogicNode("c", domain.Rect{})
	c.RunAtStart = true
	for _, n := range []*domain.Node{a, b, c} {
		require.NoError(t, task.Add(n))
	}

	roots := task.RunAtStart()
	require.Len(t, roots, 2)
	assert.Equal(t, "a", roots[0].Name)
	assert.Equal(t, "c", roots[1].Name)
}
