package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aretw0/kiln/pkg/core"
)

// Message types sent to browsers.
const (
	MessageReload = "reload"
	MessageError  = "error"
)

// Message is the JSON payload pushed to connected browsers.
type Message struct {
	Type    string `json:"type"`
	Task    string `json:"task,omitempty"`
	Path    string `json:"path,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

const writeTimeout = 2 * time.Second

// Hub tracks live-reload clients and broadcasts messages to them.
// It is a core.Notifier: compile errors show up as a browser overlay.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	clients  map[uuid.UUID]*websocket.Conn
	reloads  int
	lastSent *time.Time
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[uuid.UUID]*websocket.Conn),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects or the request context ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Debug("websocket accept failed", "error", err)
		return
	}

	id := uuid.New()
	h.add(id, conn)
	defer h.remove(id)

	// Clients never send; CloseRead handles control frames and cancels on close.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// Reload asks every browser to reload. path is the changed source file, if any.
func (h *Hub) Reload(ctx context.Context, task, path string) {
	h.mu.Lock()
	h.reloads++
	h.mu.Unlock()
	h.Broadcast(ctx, Message{Type: MessageReload, Task: task, Path: path})
}

// Notify implements core.Notifier.
func (h *Hub) Notify(ctx context.Context, n core.Notification) {
	// Only errors are shown in the browser.
	if n.Level != core.LevelError {
		return
	}
	h.Broadcast(ctx, Message{Type: MessageError, Task: n.Task, Title: n.Title, Message: n.Message})
}

// Broadcast sends msg to all clients. Clients that fail are dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.mu.RLock()
	targets := make(map[uuid.UUID]*websocket.Conn, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, conn := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, conn, msg)
		cancel()
		if err != nil {
			h.logger.Debug("dropping live-reload client", "client", id, "error", err)
			h.remove(id)
			_ = conn.Close(websocket.StatusGoingAway, "write failed")
		}
	}

	now := time.Now()
	h.mu.Lock()
	h.lastSent = &now
	h.mu.Unlock()
	h.logger.Debug("broadcast", "type", msg.Type, "task", msg.Task, "clients", len(targets))
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]*websocket.Conn)
	h.mu.Unlock()

	for _, conn := range clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) add(id uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = conn
	h.logger.Debug("live-reload client connected", "client", id)
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		h.logger.Debug("live-reload client disconnected", "client", id)
	}
}

var _ core.Notifier = (*Hub)(nil)
