package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind is the closed set of node variants.
type Kind string

const (
	// KindAction performs input simulation steps and follows a single edge.
	KindAction Kind = "action"
	// KindLogic samples the screen, evaluates a condition and follows success or fail.
	KindLogic Kind = "logic"
)

// LogicAction selects what a Logic node samples.
type LogicAction string

const (
	TextLogic  LogicAction = "text_logic"
	ColorLogic LogicAction = "color_logic"
)

// Operator is the comparison applied by a Logic node.
type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpContains     Operator = "contains"
	OpLike         Operator = "like"
)

// Operators lists every operator accepted by Logic nodes, in display order.
var Operators = []Operator{OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpContains, OpLike}

// Valid reports whether the operator is one of the known operators.
func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// Rect is the on-screen bounding box of a node.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Center returns the point in the middle of the rectangle.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

var geometryPattern = regexp.MustCompile(`^(\d+)x(\d+)(?:([+-]-?\d+)([+-]-?\d+))?$`)

// ParseGeometry parses a "WIDTHxHEIGHT+X+Y" placement string. Offsets may be omitted.
func ParseGeometry(s string) (Rect, error) {
	m := geometryPattern.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	r := Rect{W: w, H: h}
	if m[3] == "" {
		return r, nil
	}
	var err error
	if r.X, err = parseOffset(m[3]); err != nil {
		return Rect{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	if r.Y, err = parseOffset(m[4]); err != nil {
		return Rect{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	return r, nil
}

// parseOffset accepts "+N", "-N" and the "+-N" form some window managers emit.
func parseOffset(s string) (int, error) {
	if len(s) > 1 && s[0] == '+' {
		s = s[1:]
	}
	return strconv.Atoi(s)
}

// String formats the rectangle as a "WIDTHxHEIGHT+X+Y" placement string.
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}

// Edge points at the node to start next and how long to wait before doing so.
type Edge struct {
	Target string `json:"target" yaml:"target"`
	Delay  int    `json:"delay" yaml:"delay"` // seconds
}

// Terminal reports whether the edge stops the branch regardless of the graph contents.
func (e Edge) Terminal() bool {
	return e.Target == "" || e.Target == NoneTarget
}

// ActionSpec configures the input sequence of an Action node.
type ActionSpec struct {
	ClickRandomPosition bool   `json:"click_random_position" yaml:"click_random_position"`
	MoveMouseBack       bool   `json:"move_mouse_back" yaml:"move_mouse_back"`
	DoubleClick         bool   `json:"double_click" yaml:"double_click"`
	TypeText            bool   `json:"type_text" yaml:"type_text"`
	EnteredText         string `json:"entered_text" yaml:"entered_text"`
	PressEnter          bool   `json:"press_enter" yaml:"press_enter"`
	PressBackspace      bool   `json:"press_backspace" yaml:"press_backspace"`
	// InputRandomInt is carried for stores written by older editors; the executor ignores it.
	InputRandomInt bool `json:"input_random_int" yaml:"input_random_int"`
	Next           Edge `json:"next" yaml:"next"`
}

// LogicSpec configures the condition checked by a Logic node.
type LogicSpec struct {
	Action    LogicAction `json:"action" yaml:"action"`
	Operator  Operator    `json:"operator" yaml:"operator"`
	Reference string      `json:"reference" yaml:"reference"`
	Success   Edge        `json:"success" yaml:"success"`
	Fail      Edge        `json:"fail" yaml:"fail"`
}

// Node is one addressable step of a task.
// Exactly one of Action or Logic is set, matching Kind.
type Node struct {
	Name        string `json:"name" yaml:"name"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	RunAtStart  bool   `json:"run_at_start" yaml:"run_at_start"`
	Repeat      bool   `json:"repeat" yaml:"repeat"`
	RepeatDelay int    `json:"repeat_delay" yaml:"repeat_delay"` // seconds
	Geometry    Rect   `json:"geometry" yaml:"geometry"`

	Action *ActionSpec `json:"action,omitempty" yaml:"action,omitempty"`
	Logic  *LogicSpec  `json:"logic,omitempty" yaml:"logic,omitempty"`
}

// NewActionNode returns an Action node with the defaults the editor applies.
func NewActionNode(name string, geometry Rect) *Node {
	return &Node{
		Name:     name,
		Kind:     KindAction,
		Geometry: geometry,
		Action: &ActionSpec{
			ClickRandomPosition: true,
			MoveMouseBack:       true,
			Next:                Edge{Target: NoneTarget},
		},
	}
}

// NewLogicNode returns a Logic node with the defaults the editor applies.
func NewLogicNode(name string, geometry Rect) *Node {
	return &Node{
		Name:     name,
		Kind:     KindLogic,
		Geometry: geometry,
		Logic: &LogicSpec{
			Action:   TextLogic,
			Operator: OpEqual,
			Success:  Edge{Target: NoneTarget},
			Fail:     Edge{Target: NoneTarget},
		},
	}
}

// Edges returns every outgoing edge of the node.
func (n *Node) Edges() []Edge {
	switch n.Kind {
	case KindAction:
		if n.Action != nil {
			return []Edge{n.Action.Next}
		}
	case KindLogic:
		if n.Logic != nil {
			return []Edge{n.Logic.Success, n.Logic.Fail}
		}
	}
	return nil
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.Action != nil {
		a := *n.Action
		c.Action = &a
	}
	if n.Logic != nil {
		l := *n.Logic
		c.Logic = &l
	}
	return &c
}
