package tests

import (
	"context"
	"testing"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/ports"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TaskStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.TaskStore.
func TaskStoreContractTest(t *testing.T, store ports.TaskStore) {
	t.Helper()
	ctx := context.Background()

	records := []schema.Record{
		{
			"event_type":       domain.EventButton,
			"event_name":       "click",
			"geometry":         "200x100+10+20",
			"run_at_start":     true,
			"repeat":           false,
			"repeat_delay":     0,
			"next_event":       "check",
			"next_event_delay": 2,
			"entered_text":     "hello",
		},
		{
			"event_type":               domain.EventLogic,
			"event_name":               "check",
			"geometry":                 "80x30+300+40",
			"logic_action":             "text_logic",
			"logic_type":               "contains",
			"logic_value":              "OK",
			"next_event_success":       "None",
			"next_event_fail":          "check",
			"next_event_fail_delay":    5,
			"next_event_success_delay": 0,
		},
	}

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-task")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("Save_Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "contract", records))

		loaded, err := store.Load(ctx, "contract")
		require.NoError(t, err)
		require.Len(t, loaded, 2)

		// Decode through the schema so numeric representation differences between stores do not matter.
		task, err := schema.BuildTask("contract", loaded)
		require.NoError(t, err)
		assert.Equal(t, []string{"click", "check"}, task.Names())

		click, _ := task.Lookup("click")
		assert.Equal(t, 2, click.Action.Next.Delay)
		assert.Equal(t, "hello", click.Action.EnteredText)
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "contract", records[:1]))
		loaded, err := store.Load(ctx, "contract")
		require.NoError(t, err)
		assert.Len(t, loaded, 1)
	})

	t.Run("Save_EmptyTask", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "empty", []schema.Record{}))
		loaded, err := store.Load(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract", "empty"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "empty"))
		require.NoError(t, store.Delete(ctx, "empty"), "deleting twice is not an error")

		_, err := store.Load(ctx, "empty")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract"}, names)
	})
}
