package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonasrmichel/swap-agent/pkg/types"
)

const writeWait = 10 * time.Second

// WebSocketSink broadcasts execution results to connected subscribers as
// JSON frames. It doubles as an http.Handler that upgrades subscribers.
type WebSocketSink struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewWebSocketSink creates a broadcast sink. A nil logger disables logging.
func NewWebSocketSink(log *zap.Logger) *WebSocketSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log.Named("events.ws"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("subscriber connected", zap.String("remote", conn.RemoteAddr().String()), zap.Int("subscribers", n))

	// Drain (and discard) reads so close frames are processed.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Emit broadcasts the event to every subscriber, dropping dead connections.
func (s *WebSocketSink) Emit(result *types.ExecutionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.log.Warn("dropping subscriber", zap.Error(err))
			s.drop(conn)
		}
	}
	return nil
}

// Close disconnects all subscribers.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	return nil
}

func (s *WebSocketSink) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}
