package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/internal/stream"
	"ecgrisk/ports"
)

// WriteTimeout bounds one websocket write; a client slower than this is dropped.
var WriteTimeout = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(kind int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return c.conn.WriteMessage(kind, b)
}

// WSHub pushes each frame's window as a binary float32 message followed by
// its parameters as JSON text. It implements ports.FramePublisher.
type WSHub struct {
	mu    sync.Mutex
	conns map[core.SessionID]map[*wsClient]bool
}

// NewWSHub creates an empty hub.
func NewWSHub() *WSHub {
	return &WSHub{conns: make(map[core.SessionID]map[*wsClient]bool)}
}

func (h *WSHub) add(id core.SessionID, c *wsClient) {
	h.mu.Lock()
	if h.conns[id] == nil {
		h.conns[id] = make(map[*wsClient]bool)
	}
	h.conns[id][c] = true
	h.mu.Unlock()
}

func (h *WSHub) remove(id core.SessionID, c *wsClient) {
	h.mu.Lock()
	delete(h.conns[id], c)
	if len(h.conns[id]) == 0 {
		delete(h.conns, id)
	}
	h.mu.Unlock()
}

func (h *WSHub) snapshot(id core.SessionID) []*wsClient {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.conns[id]))
	for c := range h.conns[id] {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *WSHub) broadcast(id core.SessionID, kind int, b []byte) {
	for _, c := range h.snapshot(id) {
		if err := c.write(kind, b); err != nil {
			_ = c.conn.Close()
			h.remove(id, c)
		}
	}
}

// ClientCount returns the number of sockets open for a session.
func (h *WSHub) ClientCount(id core.SessionID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[id])
}

// Clients returns the number of open sockets across all sessions.
func (h *WSHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}

func (h *WSHub) PublishFrame(_ context.Context, f ports.Frame) error {
	if h.ClientCount(f.SessionID) == 0 {
		return nil
	}
	params, err := json.Marshal(stream.ParamsFromFrame(f))
	if err != nil {
		return err
	}
	h.broadcast(f.SessionID, websocket.BinaryMessage, stream.EncodeSamples(f.Window))
	h.broadcast(f.SessionID, websocket.TextMessage, params)
	return nil
}

func (h *WSHub) PublishPrediction(_ context.Context, id core.SessionID, p model.Prediction) error {
	if h.ClientCount(id) == 0 {
		return nil
	}
	b, err := json.Marshal(stream.ParamMsg{Session: id.String(), Ts: p.At.UnixMilli(), Prediction: &p})
	if err != nil {
		return err
	}
	h.broadcast(id, websocket.TextMessage, b)
	return nil
}

// Serve upgrades the request and keeps the socket registered until the
// client goes away. Incoming messages are discarded.
func (h *WSHub) Serve(w http.ResponseWriter, r *http.Request, id core.SessionID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for session %s: %v", id, err)
		return
	}
	c := &wsClient{conn: conn}
	h.add(id, c)
	defer func() {
		h.remove(id, c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
