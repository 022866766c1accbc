package schema

import (
	"github.com/aretw0/autopilot/internal/condition"
	"github.com/aretw0/autopilot/pkg/domain"
)

// Validate checks a task for configuration problems.
// Dangling edge targets run as no-ops, so they are reported here rather than at run time.
// Returns an *AggregateError with every problem found, or nil.
func Validate(task *domain.Task) error {
	var errs []error
	add := func(node, key, reason string, value any) {
		errs = append(errs, &ValidationError{Node: node, Key: key, Reason: reason, Value: value})
	}

	checkEdge := func(n *domain.Node, key string, e domain.Edge) {
		if e.Delay < 0 {
			add(n.Name, key+"_delay", "delay must not be negative", e.Delay)
		}
		if e.Terminal() {
			return
		}
		if _, ok := task.Lookup(e.Target); !ok {
			add(n.Name, key, "target does not exist", e.Target)
		}
	}

	for _, n := range task.All() {
		if n.RepeatDelay < 0 {
			add(n.Name, KeyRepeatDelay, "delay must not be negative", n.RepeatDelay)
		}
		if n.Geometry.W <= 0 || n.Geometry.H <= 0 {
			add(n.Name, KeyGeometry, "region must have a positive size", n.Geometry.String())
		}

		switch n.Kind {
		case domain.KindAction:
			if n.Action == nil {
				add(n.Name, KeyEventType, "action payload missing", nil)
				continue
			}
			checkEdge(n, "next_event", n.Action.Next)
		case domain.KindLogic:
			if n.Logic == nil {
				add(n.Name, KeyEventType, "logic payload missing", nil)
				continue
			}
			l := n.Logic
			checkEdge(n, "next_event_success", l.Success)
			checkEdge(n, "next_event_fail", l.Fail)
			if !l.Operator.Valid() {
				add(n.Name, "logic_type", "unknown operator", string(l.Operator))
			}
			switch l.Action {
			case domain.TextLogic:
			case domain.ColorLogic:
				if l.Operator != domain.OpEqual && l.Operator != domain.OpNotEqual {
					add(n.Name, "logic_type", "color checks only support = and !=", string(l.Operator))
				}
				if _, ok := condition.ParseHex(l.Reference); !ok {
					add(n.Name, "logic_value", "expected a #RRGGBB color", l.Reference)
				}
			default:
				add(n.Name, "logic_action", "unknown logic action", string(l.Action))
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Unreachable returns, in insertion order, the nodes that no chain of edges leads to from a
// run-at-start node. A repeating node only re-schedules itself, so it does not make others reachable.
func Unreachable(task *domain.Task) []string {
	visited := make(map[string]bool)
	var stack []string
	for _, n := range task.RunAtStart() {
		visited[n.Name] = true
		stack = append(stack, n.Name)
	}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := task.Lookup(name)
		if !ok {
			continue
		}
		for _, e := range n.Edges() {
			if e.Terminal() || visited[e.Target] {
				continue
			}
			if _, ok := task.Lookup(e.Target); ok {
				visited[e.Target] = true
				stack = append(stack, e.Target)
			}
		}
	}

	var out []string
	for _, n := range task.All() {
		if !visited[n.Name] {
			out = append(out, n.Name)
		}
	}
	return out
}

// SelfLoops returns the names of nodes with an edge pointing back at themselves.
// Self-loops are legal polling constructs; callers surface them as information.
func SelfLoops(task *domain.Task) []string {
	var out []string
	for _, n := range task.All() {
		for _, e := range n.Edges() {
			if e.Target == n.Name {
				out = append(out, n.Name)
				break
			}
		}
	}
	return out
}
