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

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	defaultBufferSize = 64
)

// Message is the JSON frame delivered to subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Hub fans tenant events out to connected dashboard clients. Subscriptions are
// indexed by stream then tenant so a client only ever sees its own tenant.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[string]map[*connection]struct{}
	upgrader      websocket.Upgrader
	log           *zap.Logger
}

// NewHub constructs a realtime hub. allowedOrigins extends the same-host and
// loopback origins accepted during the upgrade.
func NewHub(allowedOrigins ...string) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if host := hostWithoutPort(origin); host != "" {
			origins[strings.ToLower(host)] = struct{}{}
		}
	}

	return &Hub{
		subscriptions: make(map[string]map[string]map[*connection]struct{}),
		log:           logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := strings.ToLower(hostWithoutPort(origin))
				if originHost == strings.ToLower(hostWithoutPort(r.Host)) || isLoopback(originHost) {
					return true
				}
				_, ok := origins[originHost]
				return ok
			},
		},
	}
}

// Serve upgrades the request and subscribes the client to streams for tenantID.
// It blocks until the client disconnects.
func (h *Hub) Serve(tenantID string, streams []string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, conn, tenantID)
	h.subscribe(client, streams)

	go client.writeLoop()
	client.readLoop()
}

// Publish delivers event on stream to every client of tenantID.
func (h *Hub) Publish(tenantID, stream, event string, data any) {
	h.BroadcastToTenant(stream, tenantID, Message{Event: event, Data: data})
}

// BroadcastToTenant delivers message to all connections of tenantID on stream.
func (h *Hub) BroadcastToTenant(stream, tenantID string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" || tenantID == "" {
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0)
	for client := range h.subscriptions[stream][tenantID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	message.Stream = stream
	for _, client := range targets {
		h.enqueue(client, message)
	}
}

// Subscribers returns the number of live connections of tenantID on stream.
func (h *Hub) Subscribers(stream, tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeStream(stream)][tenantID])
}

func (h *Hub) subscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		if !KnownStream(stream) {
			h.log.Debug("ignoring unknown stream", zap.String("stream", stream), zap.String("tenant_id", client.tenantID))
			continue
		}
		if _, exists := client.streams[stream]; exists {
			continue
		}
		if h.subscriptions[stream] == nil {
			h.subscriptions[stream] = make(map[string]map[*connection]struct{})
		}
		if h.subscriptions[stream][client.tenantID] == nil {
			h.subscriptions[stream][client.tenantID] = make(map[*connection]struct{})
		}
		client.streams[stream] = struct{}{}
		h.subscriptions[stream][client.tenantID][client] = struct{}{}
	}
}

func (h *Hub) unsubscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		h.removeSubscriptionLocked(client, stream)
	}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range client.streams {
		h.removeSubscriptionLocked(client, stream)
	}
}

func (h *Hub) removeSubscriptionLocked(client *connection, stream string) {
	byTenant, ok := h.subscriptions[stream]
	if !ok {
		return
	}
	clients := byTenant[client.tenantID]
	delete(clients, client)
	if len(clients) == 0 {
		delete(byTenant, client.tenantID)
	}
	if len(byTenant) == 0 {
		delete(h.subscriptions, stream)
	}
	delete(client.streams, stream)
}

// enqueue drops slow clients instead of blocking publishers.
func (h *Hub) enqueue(client *connection, message Message) {
	if !client.trySend(message) {
		h.log.Warn("dropping backpressured client", zap.String("tenant_id", client.tenantID))
		client.close()
	}
}

type connection struct {
	hub      *Hub
	socket   *websocket.Conn
	tenantID string
	streams  map[string]struct{}

	mu     sync.Mutex
	send   chan Message
	closed bool
	once   sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, tenantID string) *connection {
	return &connection{
		hub:      hub,
		socket:   conn,
		tenantID: tenantID,
		streams:  make(map[string]struct{}),
		send:     make(chan Message, defaultBufferSize),
	}
}

func (c *connection) trySend(message Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	log := c.hub.log.With(zap.String("tenant_id", c.tenantID))
	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("unexpected close", zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			log.Debug("invalid control payload", zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			c.trySend(Message{Event: EventPong})
		default:
			log.Debug("unsupported control action", zap.String("action", ctrl.Action))
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.Contains(host, "://") {
		if parsed, err := url.Parse(host); err == nil {
			return parsed.Hostname()
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

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	seen := make(map[string]struct{}, len(streams))
	var result []string
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream == "" {
			continue
		}
		if _, exists := seen[stream]; !exists {
			seen[stream] = struct{}{}
			result = append(result, stream)
		}
	}
	return result
}
