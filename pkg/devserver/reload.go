package devserver

import (
	"io"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/ideamans/svgiconfont/pkg/shared/logging"
)

// Message is a frame sent over the reload channel
type Message struct {
	Type string `json:"type"`
}

const (
	MessageConnected  = "connected"
	MessageFullReload = "full-reload"
)

// hub tracks the connected reload clients
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  logging.Logger
}

func newHub(logger logging.Logger) *hub {
	return &hub{clients: map[*websocket.Conn]struct{}{}, logger: logger}
}

// handler serves one client until it disconnects
func (h *hub) handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		h.add(conn)
		defer h.remove(conn)

		if err := websocket.JSON.Send(conn, Message{Type: MessageConnected}); err != nil {
			return
		}

		// clients never send anything meaningful; reading detects the close
		_, _ = io.Copy(io.Discard, conn)
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	h.logger.Debug("Reload client connected", "clients", len(h.clients))
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// broadcast sends msg to every client and drops the ones that fail
func (h *hub) broadcast(msg Message) int {
	sent := 0
	for _, conn := range h.snapshot() {
		if err := websocket.JSON.Send(conn, msg); err != nil {
			h.logger.Debug("Dropping reload client", "error", err)
			h.remove(conn)
			continue
		}
		sent++
	}
	return sent
}

// closeAll disconnects every client
func (h *hub) closeAll() {
	for _, conn := range h.snapshot() {
		h.remove(conn)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
