package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/cbmooners/dashboard/internal/connection"
)

const (
	moversEvent  = "movers"
	writeTimeout = 5 * time.Second
	sendBuffer   = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type peer struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.send)
	})
}

type hub struct {
	logger *slog.Logger

	mu    sync.Mutex
	peers map[*peer]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger,
		peers:  make(map[*peer]struct{}),
	}
}

func (h *hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	p.close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// broadcast drops the message for peers whose send buffer is full.
func (h *hub) broadcast(event string, payload any) {
	data, err := encode(uuid.NewString(), event, payload)
	if err != nil {
		h.logger.Error("encode broadcast", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		select {
		case p.send <- data:
		default:
			h.logger.Warn("dropping broadcast for slow peer", "event", event)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		_ = p.conn.Close()
	}
}

func encode(id, event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(connection.Envelope{ID: id, Event: event, Data: raw})
}

// handleWS upgrades the request and echoes every envelope back to the
// sender until the socket closes.
func (s *Server) handleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	p := &peer{conn: conn, send: make(chan []byte, sendBuffer)}
	s.hub.add(p)
	s.logger.Info("websocket client connected", "remote", c.RealIP(), "clients", s.hub.count())

	go writePump(p)

	defer func() {
		s.hub.remove(p)
		_ = conn.Close()
		s.logger.Info("websocket client disconnected", "clients", s.hub.count())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}

		var env connection.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			s.logger.Debug("ignoring malformed envelope", "error", err)
			continue
		}

		reply, err := json.Marshal(env)
		if err != nil {
			continue
		}
		select {
		case p.send <- reply:
		default:
		}
	}
}

func writePump(p *peer) {
	for data := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = p.conn.Close()
			return
		}
	}
}
