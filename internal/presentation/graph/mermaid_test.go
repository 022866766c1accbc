package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/autopilot/internal/presentation/graph"
	"github.com/aretw0/autopilot/internal/testutils"
	"github.com/aretw0/autopilot/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	start := testutils.Action("open app", "check", 2)
	start.RunAtStart = true
	check := testutils.Logic("check", domain.OpContains, "Ready", "type", "check")
	check.Logic.Fail.Delay = 5
	check.Repeat = true
	check.RepeatDelay = 10
	typeNode := testutils.Action("type", "ghost", 0)

	task := testutils.NewTask(t, "demo", start, check, typeNode)

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				"open_app((\"open app\"))",
				"check{\"check <br/> contains Ready <br/> ↻ 10s\"}",
				"type[\"type\"]",
			},
		},
		{
			name: "Edges",
			contains: []string{
				"open_app -- \"2s\" --> check",
				"check -- \"ok\" --> type",
				"check -. \"fail 5s\" .-> check",
			},
			excludes: []string{"ghost"},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{CurrentNode: "check"},
			contains: []string{
				"classDef current",
				"class check current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(task, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output not to contain %q, got:\n%s", bad, got)
				}
			}
		})
	}
}
