package dsl_test

import (
	"testing"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/dsl"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleTask(t *testing.T) {
	b := dsl.New("login")

	b.Logic("check").
		At("120x30+10+20").
		OnStart().
		Every(10).
		Text(domain.OpEqual, "Login").
		Success("user", 1).
		Fail(domain.NoneTarget, 0)

	b.Action("user").
		At("200x30+10+60").
		Exact().
		Backspace().
		Type("admin").
		Enter().
		Then(domain.NoneTarget, 0)

	task, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "login", task.Name)
	assert.Equal(t, []string{"check", "user"}, task.Names())

	check, ok := task.Lookup("check")
	require.True(t, ok)
	assert.True(t, check.RunAtStart)
	assert.True(t, check.Repeat)
	assert.Equal(t, 10, check.RepeatDelay)
	assert.Equal(t, domain.Rect{X: 10, Y: 20, W: 120, H: 30}, check.Geometry)
	assert.Equal(t, domain.LogicSpec{
		Action:    domain.TextLogic,
		Operator:  domain.OpEqual,
		Reference: "Login",
		Success:   domain.Edge{Target: "user", Delay: 1},
		Fail:      domain.Edge{Target: domain.NoneTarget},
	}, *check.Logic)

	user, ok := task.Lookup("user")
	require.True(t, ok)
	assert.False(t, user.Action.ClickRandomPosition)
	assert.True(t, user.Action.MoveMouseBack, "defaults are kept")
	assert.True(t, user.Action.TypeText)
	assert.Equal(t, "admin", user.Action.EnteredText)
	assert.True(t, user.Action.PressEnter)
	assert.True(t, user.Action.PressBackspace)
}

func TestBuilder_Defaults(t *testing.T) {
	b := dsl.New("t")
	b.Action("a")

	task, err := b.Build()
	require.NoError(t, err)
	a, _ := task.Lookup("a")
	assert.Equal(t, domain.Rect{W: 200, H: 200}, a.Geometry)
	assert.Equal(t, domain.Edge{Target: domain.NoneTarget}, a.Action.Next)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *dsl.Builder)
		is    error
	}{
		{
			name:  "action method on logic node",
			build: func(b *dsl.Builder) { b.Logic("l").Type("x") },
			is:    domain.ErrInvalidNode,
		},
		{
			name:  "logic method on action node",
			build: func(b *dsl.Builder) { b.Action("a").Success("b", 0) },
			is:    domain.ErrInvalidNode,
		},
		{
			name:  "bad geometry",
			build: func(b *dsl.Builder) { b.Action("a").At("wide") },
			is:    domain.ErrInvalidNode,
		},
		{
			name: "same name two kinds",
			build: func(b *dsl.Builder) {
				b.Action("a")
				b.Logic("a")
			},
			is: domain.ErrDuplicateNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dsl.New("t")
			tt.build(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestBuilder_ValidatesTargets(t *testing.T) {
	b := dsl.New("t")
	b.Action("a").Then("ghost", 1)

	task, err := b.Build()
	require.Error(t, err)
	require.NotNil(t, task, "the task is returned with validation problems")
	require.Len(t, schema.ValidationErrors(err), 1)
}

func TestBuilder_Records(t *testing.T) {
	b := dsl.New("t")
	b.Logic("c").Color(domain.OpNotEqual, "#ff0000").OnStart()

	records, err := b.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c", records[0][schema.KeyEventName])
	assert.Equal(t, domain.EventLogic, records[0][schema.KeyEventType])

	rebuilt, err := schema.BuildTask("t", records)
	require.NoError(t, err)
	c, _ := rebuilt.Lookup("c")
	assert.Equal(t, domain.ColorLogic, c.Logic.Action)
	assert.Equal(t, "#ff0000", c.Logic.Reference)
}
