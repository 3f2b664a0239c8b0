package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"driftwatch/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// hub fans new changelog records out to every connected websocket client.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// broadcast writes the entry to every client, dropping connections that
// fail. Writes are serialized under the hub lock.
func (h *hub) broadcast(entry types.ChangeDetail) {
	h.mu.Lock()
	var failed []*websocket.Conn
	for conn := range h.clients {
		if err := conn.WriteJSON(entry); err != nil {
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()

	if len(failed) > 0 {
		h.logger.Debug("dropped websocket clients", "count", len(failed))
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (s *Server) handleChangesStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)
	s.logger.Debug("websocket client connected", "clients", s.hub.clientCount())

	// Drain reads so close frames are processed. The feed is one way.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
