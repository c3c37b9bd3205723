package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/telemetry"
)

const (
	writeWait      = 2 * time.Second
	maxMessageSize = 512
	// MaxStreamClients bounds concurrent /ws connections.
	MaxStreamClients = 64
)

// Hub streams published snapshots to websocket clients. Connections are
// owned by Run; ServeHTTP only hands them over.
type Hub struct {
	source   Source
	interval time.Duration
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}

	clients map[*websocket.Conn]struct{}
	count   atomic.Int32
	last    *telemetry.Snapshot
}

// NewHub creates a hub sending at most hz frames per second. A frame is only
// sent when a new snapshot has been published.
func NewHub(source Source, hz float64, allowedOrigins []string, rec *metrics.Recorder) *Hub {
	if hz <= 0 {
		hz = 10
	}
	h := &Hub{
		source:     source,
		interval:   time.Duration(float64(time.Second) / hz),
		metrics:    rec,
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		clients:    make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowedOrigins == nil || slices.Contains(allowedOrigins, "*") {
				return true
			}
			if slices.Contains(allowedOrigins, origin) {
				return true
			}
			slog.Warn("websocket origin rejected", "origin", origin)
			rec.RecordRejected("origin")
			return false
		},
	}
	return h
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ServeHTTP upgrades the connection and registers it. Run must be active.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= MaxStreamClients {
		h.metrics.RecordRejected("ws_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}
	go h.readLoop(conn)
}

// readLoop discards client messages and notices disconnects.
func (h *Hub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer func() {
		close(h.done)
		for conn := range h.clients {
			conn.Close()
		}
		h.clients = nil
		h.setCount()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			h.setCount()
			slog.Debug("stream client connected", "remote", conn.RemoteAddr().String(), "clients", len(h.clients))
			// New clients get the current world right away
			if snap := h.source.Published(); snap != nil {
				if data, err := json.Marshal(snap); err == nil {
					h.write(conn, data)
				}
			}

		case conn := <-h.unregister:
			h.drop(conn)

		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	if len(h.clients) == 0 {
		return
	}
	snap := h.source.Published()
	if snap == nil || snap == h.last {
		return
	}
	h.last = snap

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		return
	}
	for conn := range h.clients {
		h.write(conn, data)
	}
}

func (h *Hub) write(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.drop(conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	h.setCount()
}

func (h *Hub) setCount() {
	h.count.Store(int32(len(h.clients)))
	h.metrics.SetStreamClients(len(h.clients))
}
