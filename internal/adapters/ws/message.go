package ws

import (
	"encoding/json"
	"time"
)

// MessageType tags what a Message carries.
type MessageType string

const (
	MessageOverlay MessageType = "overlay"
	MessageEvent   MessageType = "event"
	MessageReport  MessageType = "report"
	MessageStatus  MessageType = "status"
)

// Message is one JSON frame pushed to UI clients.
type Message struct {
	Type    MessageType     `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OverlayPayload tells the UI whether node overlays should be drawn.
type OverlayPayload struct {
	Visible bool `json:"visible"`
}

func newMessage(t MessageType, now time.Time, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Time: now, Payload: raw}, nil
}
