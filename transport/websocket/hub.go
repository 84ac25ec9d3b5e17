package websocket

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound frames buffered per client.
	sendBufferSize = 256
)

var (
	ErrClientGone = errors.New("client connection is gone")
	ErrBufferFull = errors.New("client send buffer is full")
	ErrHubClosed  = errors.New("hub is closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Game clients are served from arbitrary origins.
		return true
	},
}

// Handler receives inbound frames and disconnects. Calls for one connection
// are never concurrent.
type Handler interface {
	HandleMessage(connID string, data []byte)
	HandleDisconnect(connID string)
}

// Client represents a WebSocket client
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	id     string
	remote string
}

// ID returns the connection id assigned at accept time.
func (c *Client) ID() string { return c.id }

// Hub maintains the set of active clients
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	handler Handler
	closed  bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// SetHandler installs the frame handler. Call it before serving.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// ServeWS upgrades the request and starts the client goroutines
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		id:     uuid.NewString(),
		remote: r.RemoteAddr,
	}

	if err := h.register(client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Send enqueues data for connID without blocking.
func (h *Hub) Send(connID string, data []byte) error {
	h.mu.RLock()
	client, ok := h.clients[connID]
	if !ok {
		h.mu.RUnlock()
		return ErrClientGone
	}
	select {
	case client.send <- data:
		h.mu.RUnlock()
		return nil
	default:
		h.mu.RUnlock()
	}

	log.Warn().Str("conn", connID).Msg("Send buffer full, dropping client")
	h.unregister(client)
	return ErrBufferFull
}

// ConnectionCount returns the number of live clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting clients and closes every live one. Each client's
// read goroutine still reports its disconnect to the handler.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
}

func (h *Hub) currentHandler() Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

// register adds a client to the hub
func (h *Hub) register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.clients[client.id] = client

	log.Info().
		Str("conn", client.id).
		Str("remote", client.remote).
		Int("clients", len(h.clients)).
		Msg("Client connected")
	return nil
}

// unregister removes a client and closes its send channel once.
func (h *Hub) unregister(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.id]; !ok || current != client {
		return false
	}
	delete(h.clients, client.id)
	close(client.send)

	log.Info().
		Str("conn", client.id).
		Int("clients", len(h.clients)).
		Msg("Client disconnected")
	return true
}

// readPump pumps frames from the WebSocket connection to the handler
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		if handler := c.hub.currentHandler(); handler != nil {
			handler.HandleDisconnect(c.id)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("WebSocket read error")
			}
			return
		}
		if handler := c.hub.currentHandler(); handler != nil {
			handler.HandleMessage(c.id, data)
		}
	}
}

// writePump pumps frames from the hub to the WebSocket connection, one
// frame per WebSocket message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
