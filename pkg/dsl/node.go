package dsl

import (
	"fmt"

	"github.com/aretw0/autopilot/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
// Methods that do not apply to the node's kind are recorded as errors and reported by Build.
type NodeBuilder struct {
	node    *domain.Node
	builder *Builder
}

func (n *NodeBuilder) fail(format string, args ...any) *NodeBuilder {
	n.builder.errs = append(n.builder.errs, fmt.Errorf("%w: %s: %s", domain.ErrInvalidNode, n.node.Name, fmt.Sprintf(format, args...)))
	return n
}

func (n *NodeBuilder) action(method string) *domain.ActionSpec {
	if n.node.Action == nil {
		n.fail("%s needs an action node", method)
		return &domain.ActionSpec{}
	}
	return n.node.Action
}

func (n *NodeBuilder) logic(method string) *domain.LogicSpec {
	if n.node.Logic == nil {
		n.fail("%s needs a logic node", method)
		return &domain.LogicSpec{}
	}
	return n.node.Logic
}

// At places the node at a "WIDTHxHEIGHT+X+Y" geometry.
func (n *NodeBuilder) At(geometry string) *NodeBuilder {
	r, err := domain.ParseGeometry(geometry)
	if err != nil {
		return n.fail("%v", err)
	}
	n.node.Geometry = r
	return n
}

// OnStart launches the node when the task starts.
func (n *NodeBuilder) OnStart() *NodeBuilder {
	n.node.RunAtStart = true
	return n
}

// Every re-runs the node the given number of seconds after each run.
func (n *NodeBuilder) Every(seconds int) *NodeBuilder {
	n.node.Repeat = true
	n.node.RepeatDelay = seconds
	return n
}

// Exact clicks the center of the region instead of a random point inside it.
func (n *NodeBuilder) Exact() *NodeBuilder {
	n.action("Exact").ClickRandomPosition = false
	return n
}

// KeepPointer leaves the pointer where the node clicked.
func (n *NodeBuilder) KeepPointer() *NodeBuilder {
	n.action("KeepPointer").MoveMouseBack = false
	return n
}

// DoubleClick clicks twice.
func (n *NodeBuilder) DoubleClick() *NodeBuilder {
	n.action("DoubleClick").DoubleClick = true
	return n
}

// Type enters text after clicking.
func (n *NodeBuilder) Type(text string) *NodeBuilder {
	a := n.action("Type")
	a.TypeText = true
	a.EnteredText = text
	return n
}

// Enter presses Return after typing.
func (n *NodeBuilder) Enter() *NodeBuilder {
	n.action("Enter").PressEnter = true
	return n
}

// Backspace clears the field before typing.
func (n *NodeBuilder) Backspace() *NodeBuilder {
	n.action("Backspace").PressBackspace = true
	return n
}

// Then starts target delay seconds after this action node finishes.
func (n *NodeBuilder) Then(target string, delay int) *NodeBuilder {
	n.action("Then").Next = domain.Edge{Target: target, Delay: delay}
	return n
}

// Text compares the text recognized in the region against reference.
func (n *NodeBuilder) Text(op domain.Operator, reference string) *NodeBuilder {
	l := n.logic("Text")
	l.Action = domain.TextLogic
	l.Operator = op
	l.Reference = reference
	return n
}

// Color compares the color at the region center against a "#RRGGBB" reference.
func (n *NodeBuilder) Color(op domain.Operator, hex string) *NodeBuilder {
	l := n.logic("Color")
	l.Action = domain.ColorLogic
	l.Operator = op
	l.Reference = hex
	return n
}

// Success starts target delay seconds after the condition holds.
func (n *NodeBuilder) Success(target string, delay int) *NodeBuilder {
	n.logic("Success").Success = domain.Edge{Target: target, Delay: delay}
	return n
}

// Fail starts target delay seconds after the condition does not hold.
func (n *NodeBuilder) Fail(target string, delay int) *NodeBuilder {
	n.logic("Fail").Fail = domain.Edge{Target: target, Delay: delay}
	return n
}

// Build returns a copy of the underlying node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() *domain.Node {
	return n.node.Clone()
}
