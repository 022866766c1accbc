package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, nil
		}
		return r.Render(markdown)
	}
}

// TaskMarkdown describes a task as a markdown document: one table row per node.
func TaskMarkdown(task *domain.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", task.Name)
	if task.Len() == 0 {
		sb.WriteString("_No nodes._\n")
		return sb.String()
	}

	sb.WriteString("| Node | Kind | Region | Start | Repeat | Does | Next |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, n := range task.All() {
		start := ""
		if n.RunAtStart {
			start = "yes"
		}
		repeat := ""
		if n.Repeat {
			repeat = fmt.Sprintf("every %ds", n.RepeatDelay)
		}
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s | %s | %s | %s |\n",
			cell(n.Name), n.Kind, n.Geometry, start, repeat, cell(does(n)), cell(next(n)))
	}
	return sb.String()
}

func does(n *domain.Node) string {
	switch {
	case n.Action != nil:
		a := n.Action
		steps := []string{"click"}
		if a.DoubleClick {
			steps = append(steps, "double click")
		}
		if a.PressEnter {
			steps = append(steps, "enter")
		}
		if a.PressBackspace {
			steps = append(steps, "backspace")
		}
		if a.EnteredText != "" {
			steps = append(steps, fmt.Sprintf("type %q", a.EnteredText))
		}
		return strings.Join(steps, ", ")
	case n.Logic != nil:
		return fmt.Sprintf("%s %s %q", n.Logic.Action, n.Logic.Operator, n.Logic.Reference)
	}
	return ""
}

func next(n *domain.Node) string {
	edge := func(e domain.Edge) string {
		if e.Terminal() {
			return domain.NoneTarget
		}
		if e.Delay > 0 {
			return fmt.Sprintf("%s (%ds)", e.Target, e.Delay)
		}
		return e.Target
	}
	switch {
	case n.Action != nil:
		return edge(n.Action.Next)
	case n.Logic != nil:
		return "ok: " + edge(n.Logic.Success) + ", fail: " + edge(n.Logic.Fail)
	}
	return ""
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
