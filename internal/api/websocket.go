package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"overgrown/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// writeWait is how long a single frame write may take before the
	// connection is considered dead
	writeWait = 10 * time.Second

	// maxInboundBytes caps inbound frames; intents are tiny JSON objects
	maxInboundBytes = 1024

	// clientSendBuffer is the per-connection outbound queue. A full
	// buffer drops frames instead of blocking the world: every snapshot
	// is complete, so a slow client just skips to a fresher one.
	clientSendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if IsAllowedOrigin(origin) {
			return true
		}

		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient is one live connection with its outbound queue
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	ip   string
}

// Hub owns all WebSocket connections and is the world's broadcast sink.
// Registration and fan-out share one RWMutex; the world goroutine only
// ever touches the non-blocking Broadcast/Send paths.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient

	world       WorldInterface
	auth        Authenticator
	authTimeout time.Duration

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
}

// NewHub creates a hub with connection limiting. The world is attached
// afterwards with BindWorld because the world itself needs the hub as
// its sink at construction.
func NewHub(auth Authenticator, authTimeout time.Duration, maxPerIP int) *Hub {
	return &Hub{
		clients:     make(map[string]*wsClient),
		auth:        auth,
		authTimeout: authTimeout,
		wsLimiter:   NewWebSocketRateLimiter(maxPerIP),
	}
}

// BindWorld attaches the simulation the hub feeds. Must be called
// before the hub accepts its first connection.
func (h *Hub) BindWorld(world WorldInterface) {
	h.world = world
}

// Broadcast sends a payload to every connected client. Implements the
// world's sink: it never blocks, a client whose buffer is full skips
// this frame.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			RecordFrameDropped()
		}
	}
}

// Send delivers a payload to one connection, if it is still open.
func (h *Hub) Send(connID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		RecordFrameDropped()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(client *wsClient) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 Client %s connected from %s (%d total)", client.id, client.ip, count)
	UpdateWSConnections(count)
}

// remove unregisters a client and closes its queue. Safe against
// concurrent Broadcast/Send because those hold the read lock while
// writing to the channel.
func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.wsLimiter.Release(client.ip)
	client.conn.Close()

	log.Printf("📱 Client %s disconnected (%d remaining)", client.id, count)
	UpdateWSConnections(count)
}

// HandleWebSocket handles incoming WebSocket connections. Order
// matters: cheap limit checks first, then authentication, and only
// then the upgrade, so an unauthenticated request costs one HTTP 401.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	identity, err := authenticateWithTimeout(h.auth, r, h.authTimeout)
	if err != nil {
		h.wsLimiter.Release(ip)
		RecordConnectionRejected("auth")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		ip:   ip,
	}
	h.add(client)

	go client.writePump()

	h.world.Join(client.id, identity.UserID, identity.Name)
	h.readPump(client)
}

// readPump consumes inbound intents until the connection dies. Runs on
// the handler goroutine; the deferred cleanup is the single place a
// connection leaves the world.
func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.world.Leave(client.id)
		h.remove(client)
	}()

	client.conn.SetReadLimit(maxInboundBytes)

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		base, err := protocol.DecodeBase(data)
		if err != nil {
			h.replyError(client, protocol.ErrBadMessage, "malformed message")
			continue
		}

		switch base.Type {
		case protocol.TypeMove:
			var msg protocol.Move
			if err := json.Unmarshal(data, &msg); err != nil {
				h.replyError(client, protocol.ErrBadMessage, "malformed move payload")
				continue
			}
			h.world.Move(client.id, msg.Dx, msg.Dy)

		case protocol.TypeSetColor:
			var msg protocol.SetColor
			if err := json.Unmarshal(data, &msg); err != nil {
				h.replyError(client, protocol.ErrBadMessage, "malformed set-color payload")
				continue
			}
			h.world.SetColor(client.id, msg.Color)

		default:
			h.replyError(client, protocol.ErrBadMessage, "unknown message type "+base.Type)
		}
	}
}

// replyError answers a bad inbound message without closing the socket
func (h *Hub) replyError(client *wsClient, code, message string) {
	payload, err := json.Marshal(protocol.NewError(code, message))
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		RecordFrameDropped()
	}
}

// writePump drains the outbound queue onto the wire. Exits when the
// queue is closed by remove or when a write fails, closing the conn so
// the read side unblocks too.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	// Queue closed: say goodbye properly
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
