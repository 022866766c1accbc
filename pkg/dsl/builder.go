package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
)

// Builder manages the task construction.
type Builder struct {
	name  string
	order []string
	nodes map[string]*NodeBuilder
	errs  []error
}

// New creates a new task builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Action adds an Action node placed at the default geometry.
// If a node with that name already exists, it returns the existing builder.
func (b *Builder) Action(name string) *NodeBuilder {
	return b.add(name, domain.KindAction)
}

// Logic adds a Logic node placed at the default geometry.
// If a node with that name already exists, it returns the existing builder.
func (b *Builder) Logic(name string) *NodeBuilder {
	return b.add(name, domain.KindLogic)
}

func (b *Builder) add(name string, kind domain.Kind) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		if nb.node.Kind != kind {
			b.errs = append(b.errs, fmt.Errorf("%w: %s is already a %s node", domain.ErrDuplicateNode, name, nb.node.Kind))
		}
		return nb
	}

	geometry, _ := domain.ParseGeometry(domain.DefaultGeometry)
	node := domain.NewActionNode(name, geometry)
	if kind == domain.KindLogic {
		node = domain.NewLogicNode(name, geometry)
	}
	nb := &NodeBuilder{node: node, builder: b}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Build compiles the nodes into a task and validates it.
// The task is returned alongside validation problems so callers may still inspect it.
func (b *Builder) Build() (*domain.Task, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	task := domain.NewTask(b.name)
	for _, name := range b.order {
		if err := task.Add(b.nodes[name].node.Clone()); err != nil {
			return nil, err
		}
	}
	if err := schema.Validate(task); err != nil {
		return task, err
	}
	return task, nil
}

// Records builds the task and returns it in record form, ready for a store.
func (b *Builder) Records() ([]schema.Record, error) {
	task, err := b.Build()
	if err != nil {
		return nil, err
	}
	return schema.TaskRecords(task), nil
}
