package live

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
)

// Message types
const (
	MessageTypeView   = "view"
	MessageTypeStatus = "status"
	MessageTypeClosed = "closed"
)

// Client message types
const (
	ClientMessageRefresh = "refresh"
	ClientMessagePing    = "ping"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
	readLimit  = 512
)

// Message is the envelope pushed to live subscribers
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	View      *dashboard.View `json:"view,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Connection represents a WebSocket subscriber of one session
type Connection struct {
	ID        string
	SessionID string
	Subject   string
	Conn      *websocket.Conn
	Send      chan Message

	mu     sync.Mutex
	closed bool
	stop   func()
}

// deliver queues msg without blocking. A subscriber that cannot keep up is
// disconnected.
func (c *Connection) deliver(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		c.closeLocked()
		return false
	}
}

// setStop attaches the page subscription. A connection that was already
// closed while subscribing drops it at once.
func (c *Connection) setStop(stop func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stop()
		return
	}
	c.stop = stop
	c.mu.Unlock()
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Connection) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	if c.stop != nil {
		c.stop()
	}
	close(c.Send)
}

// Hub pushes a fresh view to every subscriber of a session after each
// transition of its page.
type Hub struct {
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHub creates a new live hub
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]map[*Connection]bool),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker allows every origin when none are configured
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Serve upgrades the request and subscribes the connection to page. The
// current view is sent immediately.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID, subject string, page pages.Instance) (*Connection, error) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Subject:   subject,
		Conn:      ws,
		Send:      make(chan Message, sendBuffer),
	}
	h.register(conn)

	view := page.Render()
	conn.deliver(viewMessage(sessionID, view))
	stop := page.Watch(func(v dashboard.View) {
		if !conn.deliver(viewMessage(sessionID, v)) {
			h.unregister(conn)
		}
	})
	conn.setStop(stop)

	go h.writePump(conn)
	go h.readPump(conn, page)

	return conn, nil
}

func viewMessage(sessionID string, v dashboard.View) Message {
	return Message{
		Type:      MessageTypeView,
		SessionID: sessionID,
		View:      &v,
		Timestamp: time.Now(),
	}
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.connections[conn.SessionID]
	if !ok {
		set = make(map[*Connection]bool)
		h.connections[conn.SessionID] = set
	}
	set[conn] = true
	h.logger.Debug("Live connection registered",
		zap.String("connection_id", conn.ID),
		zap.String("session_id", conn.SessionID))
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	if set, ok := h.connections[conn.SessionID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.connections, conn.SessionID)
		}
	}
	h.mu.Unlock()
	conn.close()
}

// readPump handles client messages until the connection fails
func (h *Hub) readPump(conn *Connection, page pages.Instance) {
	defer func() {
		h.unregister(conn)
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(readLimit)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Live connection closed unexpectedly",
					zap.String("connection_id", conn.ID),
					zap.Error(err))
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case ClientMessageRefresh:
			conn.deliver(viewMessage(conn.SessionID, page.Render()))
		case ClientMessagePing:
			conn.deliver(Message{
				Type:      MessageTypeStatus,
				SessionID: conn.SessionID,
				Data:      map[string]any{"status": "connected", "connection_id": conn.ID},
				Timestamp: time.Now(),
			})
		default:
			h.logger.Debug("Unknown live message type", zap.String("type", msg.Type))
		}
	}
}

// writePump pumps queued messages to the WebSocket connection
func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseSession notifies and disconnects every subscriber of a session
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	set := h.connections[sessionID]
	delete(h.connections, sessionID)
	h.mu.Unlock()

	for conn := range set {
		conn.deliver(Message{
			Type:      MessageTypeClosed,
			SessionID: sessionID,
			Timestamp: time.Now(),
		})
		conn.close()
	}
	if len(set) > 0 {
		h.logger.Info("Live session closed",
			zap.String("session_id", sessionID),
			zap.Int("connections", len(set)))
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, set := range h.connections {
		count += len(set)
	}
	return count
}

// SessionConnections returns the number of connections of one session
func (h *Hub) SessionConnections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.connections
	h.connections = make(map[string]map[*Connection]bool)
	h.mu.Unlock()

	for _, set := range all {
		for conn := range set {
			conn.close()
		}
	}
}
