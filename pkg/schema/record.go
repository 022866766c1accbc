package schema

import (
	"errors"
	"fmt"

	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Record is the persisted form of one node: a flat key/value bundle as written by the editor.
type Record map[string]any

// Record keys shared by every node kind.
const (
	KeyEventType   = "event_type"
	KeyEventName   = "event_name"
	KeyGeometry    = "geometry"
	KeyRunAtStart  = "run_at_start"
	KeyRepeat      = "repeat"
	KeyRepeatDelay = "repeat_delay"
)

// ErrUnknownEventType is returned when a record carries an event_type this engine does not know.
var ErrUnknownEventType = errors.New("unknown event type")

// ErrInvalidRecord is returned when a record cannot be decoded into a node.
var ErrInvalidRecord = errors.New("invalid record")

type baseRecord struct {
	EventType   string `mapstructure:"event_type"`
	EventName   string `mapstructure:"event_name"`
	Geometry    string `mapstructure:"geometry"`
	RunAtStart  bool   `mapstructure:"run_at_start"`
	Repeat      bool   `mapstructure:"repeat"`
	RepeatDelay int    `mapstructure:"repeat_delay"`
}

type buttonRecord struct {
	baseRecord     `mapstructure:",squash"`
	NextEvent      string `mapstructure:"next_event"`
	NextEventDelay int    `mapstructure:"next_event_delay"`
	TypeText       bool   `mapstructure:"type_text"`
	EnteredText    string `mapstructure:"entered_text"`
	InputRandomInt bool   `mapstructure:"input_random_int"`
	PressEnter     bool   `mapstructure:"press_enter"`
	PressBackspace bool   `mapstructure:"press_backspace"`
	RandomPosition bool   `mapstructure:"random_position"`
	MoveMouseBack  bool   `mapstructure:"move_mouse_back"`
	DoubleClick    bool   `mapstructure:"double_click"`
}

type logicRecord struct {
	baseRecord            `mapstructure:",squash"`
	NextEventSuccess      string `mapstructure:"next_event_success"`
	NextEventSuccessDelay int    `mapstructure:"next_event_success_delay"`
	NextEventFail         string `mapstructure:"next_event_fail"`
	NextEventFailDelay    int    `mapstructure:"next_event_fail_delay"`
	LogicType             string `mapstructure:"logic_type"`
	LogicAction           string `mapstructure:"logic_action"`
	LogicValue            string `mapstructure:"logic_value"`
}

func defaultBase() baseRecord {
	return baseRecord{Geometry: domain.DefaultGeometry}
}

// decode fills out from rec. Weak typing accepts the shapes produced by JSON, YAML and
// form-style string edits (e.g. "5" for an int, "true" for a bool).
func decode(rec Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(rec))
}

// Decode converts a record into a node. Missing keys take the editor defaults.
func Decode(rec Record) (*domain.Node, error) {
	eventType, _ := rec[KeyEventType].(string)
	switch eventType {
	case domain.EventButton:
		r := buttonRecord{
			baseRecord:     defaultBase(),
			NextEvent:      domain.NoneTarget,
			RandomPosition: true,
			MoveMouseBack:  true,
		}
		if err := decode(rec, &r); err != nil {
			return nil, fmt.Errorf("%w %v: %v", ErrInvalidRecord, rec[KeyEventName], err)
		}
		n, err := r.baseRecord.node(domain.KindAction)
		if err != nil {
			return nil, err
		}
		n.Action = &domain.ActionSpec{
			ClickRandomPosition: r.RandomPosition,
			MoveMouseBack:       r.MoveMouseBack,
			DoubleClick:         r.DoubleClick,
			TypeText:            r.TypeText,
			EnteredText:         r.EnteredText,
			PressEnter:          r.PressEnter,
			PressBackspace:      r.PressBackspace,
			InputRandomInt:      r.InputRandomInt,
			Next:                domain.Edge{Target: r.NextEvent, Delay: r.NextEventDelay},
		}
		return n, nil

	case domain.EventLogic:
		r := logicRecord{
			baseRecord:       defaultBase(),
			NextEventSuccess: domain.NoneTarget,
			NextEventFail:    domain.NoneTarget,
			LogicType:        string(domain.OpEqual),
			LogicAction:      string(domain.TextLogic),
		}
		if err := decode(rec, &r); err != nil {
			return nil, fmt.Errorf("%w %v: %v", ErrInvalidRecord, rec[KeyEventName], err)
		}
		n, err := r.baseRecord.node(domain.KindLogic)
		if err != nil {
			return nil, err
		}
		n.Logic = &domain.LogicSpec{
			Action:    domain.LogicAction(r.LogicAction),
			Operator:  domain.Operator(r.LogicType),
			Reference: r.LogicValue,
			Success:   domain.Edge{Target: r.NextEventSuccess, Delay: r.NextEventSuccessDelay},
			Fail:      domain.Edge{Target: r.NextEventFail, Delay: r.NextEventFailDelay},
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q (record %v)", ErrUnknownEventType, eventType, rec[KeyEventName])
}

func (b baseRecord) node(kind domain.Kind) (*domain.Node, error) {
	if b.EventName == "" {
		return nil, fmt.Errorf("%w: %s record has no event_name", ErrInvalidRecord, b.EventType)
	}
	geom, err := domain.ParseGeometry(b.Geometry)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", b.EventName, err)
	}
	return &domain.Node{
		Name:        b.EventName,
		Kind:        kind,
		RunAtStart:  b.RunAtStart,
		Repeat:      b.Repeat,
		RepeatDelay: b.RepeatDelay,
		Geometry:    geom,
	}, nil
}

// Encode converts a node into its record form.
func Encode(n *domain.Node) Record {
	rec := Record{
		KeyEventName:   n.Name,
		KeyGeometry:    n.Geometry.String(),
		KeyRunAtStart:  n.RunAtStart,
		KeyRepeat:      n.Repeat,
		KeyRepeatDelay: n.RepeatDelay,
	}
	switch n.Kind {
	case domain.KindAction:
		a := n.Action
		if a == nil {
			a = domain.NewActionNode(n.Name, n.Geometry).Action
		}
		rec[KeyEventType] = domain.EventButton
		rec["next_event"] = a.Next.Target
		rec["next_event_delay"] = a.Next.Delay
		rec["type_text"] = a.TypeText
		rec["entered_text"] = a.EnteredText
		rec["input_random_int"] = a.InputRandomInt
		rec["press_enter"] = a.PressEnter
		rec["press_backspace"] = a.PressBackspace
		rec["random_position"] = a.ClickRandomPosition
		rec["move_mouse_back"] = a.MoveMouseBack
		rec["double_click"] = a.DoubleClick
	case domain.KindLogic:
		l := n.Logic
		if l == nil {
			l = domain.NewLogicNode(n.Name, n.Geometry).Logic
		}
		rec[KeyEventType] = domain.EventLogic
		rec["next_event_success"] = l.Success.Target
		rec["next_event_success_delay"] = l.Success.Delay
		rec["next_event_fail"] = l.Fail.Target
		rec["next_event_fail_delay"] = l.Fail.Delay
		rec["logic_type"] = string(l.Operator)
		rec["logic_action"] = string(l.Action)
		rec["logic_value"] = l.Reference
	}
	return rec
}

// BuildOption configures BuildTask.
type BuildOption func(*buildConfig)

type buildConfig struct {
	onSkip func(Record, error)
}

// SkipUnknown makes BuildTask skip records with an unknown event_type, reporting each one to fn,
// instead of failing.
func SkipUnknown(fn func(Record, error)) BuildOption {
	return func(c *buildConfig) {
		c.onSkip = fn
	}
}

// BuildTask rebuilds a task graph from its records, preserving record order.
// Duplicate node names are rejected.
func BuildTask(name string, records []Record, opts ...BuildOption) (*domain.Task, error) {
	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	task := domain.NewTask(name)
	for _, rec := range records {
		n, err := Decode(rec)
		if err != nil {
			if cfg.onSkip != nil && errors.Is(err, ErrUnknownEventType) {
				cfg.onSkip(rec, err)
				continue
			}
			return nil, err
		}
		if err := task.Add(n); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// TaskRecords produces the record sequence of a task in insertion order.
func TaskRecords(task *domain.Task) []Record {
	nodes := task.All()
	out := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Encode(n))
	}
	return out
}

// UpdateField returns a copy of n with the record key set to value, coerced to the field type.
// The node's name and kind cannot be changed this way.
func UpdateField(n *domain.Node, key string, value any) (*domain.Node, error) {
	rec := Encode(n)
	if _, ok := rec[key]; !ok || key == KeyEventType || key == KeyEventName {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownField, key)
	}
	rec[key] = value
	return Decode(rec)
}
