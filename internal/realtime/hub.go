package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/studyhub/studyhub-server/pkg/logger"
	"github.com/studyhub/studyhub-server/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	defaultBufferSize = 64
)

// Event names published on group streams.
const (
	EventMemberJoined = "member.joined"
	EventMemberLeft   = "member.left"
	EventTaskCreated  = "task.created"
	EventTaskUpdated  = "task.updated"
	EventTaskDeleted  = "task.deleted"
	EventGroupDeleted = "group.deleted"
)

// Message is the JSON payload delivered to group subscribers.
type Message struct {
	GroupID string    `json:"group_id"`
	Event   string    `json:"event"`
	Data    any       `json:"data,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

type controlMessage struct {
	Action string `json:"action"`
}

// Hub fans group events out to the websocket connections of group members.
type Hub struct {
	mu       sync.RWMutex
	groups   map[string]map[*connection]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a realtime hub. Origins in allowedOrigins are accepted in addition to
// same-host and loopback origins.
func NewHub(allowedOrigins ...string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if host := hostWithoutPort(origin); host != "" {
			allowed[strings.ToLower(host)] = struct{}{}
		}
	}

	return &Hub{
		groups: make(map[string]map[*connection]struct{}),
		log:    logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				if _, ok := allowed[strings.ToLower(originHost)]; ok {
					return true
				}
				return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection and streams events of groupID to the client until it disconnects.
// Callers must have verified that userID is a member of the group.
func (h *Hub) Serve(userID, groupID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	client := newConnection(h, conn, userID, groupID)
	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// PublishGroupEvent delivers an event to every connection subscribed to the group.
func (h *Hub) PublishGroupEvent(groupID, event string, data any) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" || event == "" {
		return
	}

	message := Message{
		GroupID: groupID,
		Event:   event,
		Data:    data,
		SentAt:  time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.groups[groupID] {
		h.enqueue(client, message)
	}
}

// Subscribers returns the number of open connections for a group.
func (h *Hub) Subscribers(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var clients []*connection
	for _, conns := range h.groups {
		for client := range conns {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.close()
	}
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[client.groupID] == nil {
		h.groups[client.groupID] = make(map[*connection]struct{})
	}
	h.groups[client.groupID][client] = struct{}{}
	metrics.RealtimeConnections.Inc()
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.groups[client.groupID]
	if !ok {
		return
	}
	if _, exists := conns[client]; !exists {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.groups, client.groupID)
	}
	metrics.RealtimeConnections.Dec()
}

// enqueue must be called with h.mu held for reading.
func (h *Hub) enqueue(client *connection, message Message) {
	select {
	case client.send <- message:
	default:
		h.log.Warn("dropping slow client", zap.String("user_id", client.userID), zap.String("group_id", client.groupID))
		go client.close()
	}
}

type connection struct {
	hub     *Hub
	socket  *websocket.Conn
	userID  string
	groupID string
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, userID, groupID string) *connection {
	return &connection{
		hub:     hub,
		socket:  conn,
		userID:  userID,
		groupID: groupID,
		send:    make(chan Message, defaultBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "ping":
			select {
			case c.send <- Message{GroupID: c.groupID, Event: "pong", SentAt: time.Now().UTC()}:
			case <-c.done:
				return
			default:
			}
		default:
			c.hub.log.Debug("unsupported control action", zap.String("action", ctrl.Action), zap.String("user_id", c.userID))
		}
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		if parsed, err := url.Parse(host); err == nil {
			return hostWithoutPort(parsed.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
