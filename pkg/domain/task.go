package domain

import (
	"fmt"
	"sync"
)

// Task is a named graph of nodes addressed by name.
// Insertion order is kept for display and iteration only; scheduling never depends on it.
// Safe for concurrent use.
type Task struct {
	Name string

	mu    sync.RWMutex
	order []string
	nodes map[string]*Node
}

// NewTask creates an empty task.
func NewTask(name string) *Task {
	return &Task{
		Name:  name,
		nodes: make(map[string]*Node),
	}
}

// Add inserts a node. Names must be unique within the task.
func (t *Task) Add(n *Node) error {
	if n == nil || n.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidNode)
	}
	if n.Kind != KindAction && n.Kind != KindLogic {
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidNode, n.Name, n.Kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.nodes[n.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
	}
	t.nodes[n.Name] = n
	t.order = append(t.order, n.Name)
	return nil
}

// Lookup returns the node registered under name.
func (t *Task) Lookup(name string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	return n, ok
}

// All returns the nodes in insertion order.
func (t *Task) All() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.nodes[name])
	}
	return out
}

// Names returns the node names in insertion order.
func (t *Task) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// TargetChoices returns the values an edge target may take: the None sentinel followed by
// every node name.
func (t *Task) TargetChoices() []string {
	return append([]string{NoneTarget}, t.Names()...)
}

// Len returns the number of nodes.
func (t *Task) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Delete removes a node. Edges pointing at it become terminal.
func (t *Task) Delete(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	delete(t.nodes, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the node stored under n.Name for n, keeping its position.
func (t *Task) Replace(n *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.nodes[n.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.Name)
	}
	t.nodes[n.Name] = n
	return nil
}

// RunAtStart returns the nodes eligible for automatic launch, in insertion order.
func (t *Task) RunAtStart() []*Node {
	var out []*Node
	for _, n := range t.All() {
		if n.RunAtStart {
			out = append(out, n)
		}
	}
	return out
}
