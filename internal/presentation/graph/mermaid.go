package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/autopilot/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	CurrentNode string
}

// GenerateMermaid produces a Mermaid flowchart of a task.
// It applies semantic styling:
// - Run at start: ((Circle))
// - Logic: {Rhombus}
// - Action: [Rectangle]
// Success edges are solid, fail edges dotted. Edges to missing nodes are omitted.
func GenerateMermaid(task *domain.Task, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range task.All() {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		switch {
		case node.RunAtStart:
			opener, closer = "((", "))"
		case node.Kind == domain.KindLogic:
			opener, closer = "{", "}"
		}

		label := escape(node.Name)
		if node.Kind == domain.KindLogic && node.Logic != nil {
			label = fmt.Sprintf("%s <br/> %s %s", label, node.Logic.Operator, escape(node.Logic.Reference))
		}
		if node.Repeat {
			label = fmt.Sprintf("%s <br/> ↻ %ds", label, node.RepeatDelay)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		switch node.Kind {
		case domain.KindAction:
			if node.Action != nil {
				writeEdge(&sb, task, safeID, node.Action.Next, "", "-->")
			}
		case domain.KindLogic:
			if node.Logic != nil {
				writeEdge(&sb, task, safeID, node.Logic.Success, "ok", "-->")
				writeEdge(&sb, task, safeID, node.Logic.Fail, "fail", ".->")
			}
		}
	}

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
	}

	return sb.String()
}

func writeEdge(sb *strings.Builder, task *domain.Task, from string, e domain.Edge, name, arrow string) {
	if e.Terminal() {
		return
	}
	if _, ok := task.Lookup(e.Target); !ok {
		return
	}
	parts := []string{}
	if name != "" {
		parts = append(parts, name)
	}
	if e.Delay > 0 {
		parts = append(parts, fmt.Sprintf("%ds", e.Delay))
	}
	to := sanitizeMermaidID(e.Target)

	dotted := arrow == ".->"
	switch {
	case len(parts) == 0 && dotted:
		fmt.Fprintf(sb, "    %s -.-> %s\n", from, to)
	case len(parts) == 0:
		fmt.Fprintf(sb, "    %s --> %s\n", from, to)
	case dotted:
		fmt.Fprintf(sb, "    %s -. \"%s\" .-> %s\n", from, strings.Join(parts, " "), to)
	default:
		fmt.Fprintf(sb, "    %s -- \"%s\" --> %s\n", from, strings.Join(parts, " "), to)
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
