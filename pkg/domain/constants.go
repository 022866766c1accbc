package domain

// Record tags used by the task store to discriminate node kinds.
const (
	EventButton = "EVENT_BUTTON"
	EventLogic  = "EVENT_LOGIC"
)

// NoneTarget is the sentinel edge target meaning "stop this branch".
const NoneTarget = "None"

// DefaultGeometry is applied to nodes created without a placement.
const DefaultGeometry = "200x200+0+0"
