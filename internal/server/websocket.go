package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/provkit/provisiond/internal/connmgr"
	"github.com/provkit/provisiond/internal/logging"
)

// Time allowed to write a status frame to the peer. A subscriber that
// cannot take a frame within this window is dropped; the provisioning
// pipeline must never block on the stream. Tests shrink this.
var writeWait = 10 * time.Second

// statusEvent is one state transition as seen by /status subscribers.
type statusEvent struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// statusHub fans connection-manager transitions out to WebSocket
// subscribers. Slow or dead subscribers are dropped, never waited on: the
// stream is advisory and the pipeline must not stall on it.
type statusHub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func newStatusHub() *statusHub {
	return &statusHub{conns: make(map[*websocket.Conn]struct{})}
}

// subscribe sends the greeting and registers the connection atomically
// with respect to broadcasts, so a transition can neither be missed nor
// arrive ahead of the greeting.
func (h *statusHub) subscribe(conn *websocket.Conn, greeting statusEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if err := writeEvent(conn, greeting); err != nil {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

// writeEvent sends one frame under the write deadline so a peer that has
// stopped reading can only ever stall the caller for writeWait.
func writeEvent(conn *websocket.Conn, event statusEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

func (h *statusHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *statusHub) broadcast(tr connmgr.Transition) {
	event := statusEvent{State: tr.To.String(), Message: tr.Message}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := writeEvent(conn, event); err != nil {
			logging.Debug("Dropping status subscriber", zap.Error(err))
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *statusHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The endpoint is an unauthenticated local provisioning channel;
	// origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatus upgrades to WebSocket and streams state transitions. The
// current state is sent immediately so subscribers need no initial poll.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	state := s.manager.State()
	if !s.hub.subscribe(conn, statusEvent{State: state.String(), Message: "subscribed"}) {
		_ = conn.Close()
		return
	}

	logging.Info("Status subscriber connected", zap.String("remote_addr", r.RemoteAddr))

	// Drain reads to detect the peer going away; the stream is write-only
	go func() {
		defer func() {
			s.hub.remove(conn)
			_ = conn.Close()
			logging.Info("Status subscriber disconnected", zap.String("remote_addr", r.RemoteAddr))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
