// Package ws pushes engine signals to UI clients over WebSocket.
//
// The Hub implements ports.Overlay and ports.Reporter and exposes lifecycle hooks, so the
// overlay drawer and any dashboards learn about visibility changes, node events and failure
// reports as they happen. Publishing never blocks the engine: a full buffer drops the message.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of connected clients and fans messages out to them.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	count      chan chan int
	done       chan struct{}
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates a hub. Call Run to start delivering messages.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub event loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("client connected", "client", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("client disconnected", "client", c.id, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than stall the others.
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropping slow client", "client", c.id)
				}
			}

		case reply := <-h.count:
			reply <- len(h.clients)

		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return nil
		}
	}
}

// Clients returns the number of connected clients, or 0 once the hub has stopped.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}
	c := &client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		logger: h.logger,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Publish queues a message for every client. It never blocks.
func (h *Hub) Publish(t MessageType, payload any) {
	msg, err := newMessage(t, h.now(), payload)
	if err != nil {
		h.logger.Error("encode message", "type", t, "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast buffer full, dropping message", "type", t)
	}
}

// SetVisible implements ports.Overlay.
func (h *Hub) SetVisible(_ context.Context, visible bool) {
	h.Publish(MessageOverlay, OverlayPayload{Visible: visible})
}

// Report implements ports.Reporter.
func (h *Hub) Report(_ context.Context, r domain.Report) {
	h.Publish(MessageReport, r)
}

// Hooks returns lifecycle hooks that publish node events.
func (h *Hub) Hooks() domain.LifecycleHooks {
	base := func(_ context.Context, e domain.EventBase) { h.Publish(MessageEvent, e) }
	node := func(_ context.Context, e *domain.NodeEvent) { h.Publish(MessageEvent, e) }
	return domain.LifecycleHooks{
		OnTaskStart: base,
		OnTaskStop:  base,
		OnNodeEnter: node,
		OnNodeLeave: node,
		OnDeferred:  node,
		OnScheduled: node,
	}
}
