package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/ports"
)

// Event types streamed to dashboards.
const (
	EventFrame      = "frame"
	EventPrediction = "prediction"
)

// PingInterval is how long an idle stream waits before a keep-alive.
var PingInterval = 30 * time.Second

// SSEClient represents a connected SSE client
type SSEClient struct {
	SessionID core.SessionID
	Channel   chan Event
}

// Event is one server-sent update for a session.
type Event struct {
	SessionID core.SessionID `json:"session_id"`
	Type      string         `json:"type"`
	Data      interface{}    `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// SSEHub fans session frames out to browsers over Server-Sent Events. It
// implements ports.FramePublisher.
type SSEHub struct {
	clients    map[core.SessionID]map[chan Event]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[core.SessionID]map[chan Event]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan Event]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			log.Printf("[SSE] Client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				delete(clients, client.Channel)
				log.Printf("[SSE] Client unregistered from session %s (remaining clients: %d)",
					client.SessionID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					// slow browser; it catches up on the next frame
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Close stops the hub loop.
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Broadcast sends an event to all clients listening to a session
func (h *SSEHub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping %s event", event.Type)
	}
}

// PublishFrame implements ports.FramePublisher.
func (h *SSEHub) PublishFrame(_ context.Context, f ports.Frame) error {
	h.Broadcast(Event{SessionID: f.SessionID, Type: EventFrame, Data: f, Timestamp: f.At})
	return nil
}

// PublishPrediction implements ports.FramePublisher.
func (h *SSEHub) PublishPrediction(_ context.Context, id core.SessionID, p model.Prediction) error {
	h.Broadcast(Event{SessionID: id, Type: EventPrediction, Data: p, Timestamp: p.At})
	return nil
}

// Subscribe registers a listener channel for a session. The returned func
// unregisters it.
func (h *SSEHub) Subscribe(id core.SessionID) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.register <- SSEClient{SessionID: id, Channel: ch}
	return ch, func() {
		select {
		case h.unregister <- SSEClient{SessionID: id, Channel: ch}:
		case <-h.done:
		}
	}
}

// Stream writes a session's events to c until the client disconnects.
func (h *SSEHub) Stream(c *gin.Context, id core.SessionID) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	events, unsubscribe := h.Subscribe(id)
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.Type, string(eventJSON))
			return true

		case <-time.After(PingInterval):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ActiveSessions returns sessions with active SSE clients
func (h *SSEHub) ActiveSessions() []core.SessionID {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]core.SessionID, 0, len(h.clients))
	for id := range h.clients {
		sessions = append(sessions, id)
	}
	return sessions
}

// ClientCount returns the number of active clients for a session
func (h *SSEHub) ClientCount(id core.SessionID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[id])
}
