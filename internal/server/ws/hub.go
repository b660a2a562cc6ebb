// Package ws bridges the in-process event broadcaster to WebSocket clients.
// Each connected client registers as a stream.Subscriber; events are
// serialized once per client and pushed through a bounded send buffer so a
// slow browser never stalls the market loop.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quadscalp/futsim/internal/domain"
	"github.com/quadscalp/futsim/internal/stream"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// Hub accepts WebSocket connections and wires each one into the broadcaster.
type Hub struct {
	broadcaster *stream.Broadcaster
	logger      *slog.Logger
}

// NewHub creates a Hub fed by the given broadcaster.
func NewHub(broadcaster *stream.Broadcaster, logger *slog.Logger) *Hub {
	return &Hub{
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "ws")),
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and subscribes
// the client to the event stream. The broadcaster delivers the init snapshot
// into the client's buffer before any live event.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: h.logger,
	}

	h.broadcaster.Subscribe(c)
	h.logger.Info("client connected",
		slog.String("client_id", c.id),
		slog.Int("total_clients", h.broadcaster.Count()),
	)

	go c.writePump()
	go c.readPump()
}

// client is a single WebSocket connection. It implements stream.Subscriber.
type client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	closed atomic.Bool
	logger *slog.Logger
}

// ID returns the connection's identity for registry logs.
func (c *client) ID() string {
	return c.id
}

// Send serializes the event and queues it without blocking. Messages for a
// full buffer are dropped; a closed connection reports an error so the
// broadcaster removes the client.
func (c *client) Send(event domain.Event) error {
	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("dropping message for slow client",
			slog.String("client_id", c.id),
			slog.String("event", string(event.Kind())),
		)
	}
	return nil
}

// drop marks the client dead and removes it from the broadcaster. Safe to
// call from both pumps; only the first call tears down.
func (c *client) drop() {
	if c.closed.CompareAndSwap(false, true) {
		c.hub.broadcaster.Unsubscribe(c)
		c.conn.Close()
		c.logger.Info("client disconnected",
			slog.String("client_id", c.id),
			slog.Int("total_clients", c.hub.broadcaster.Count()),
		)
	}
}

// pingMsg is the client-to-server keepalive request.
type pingMsg struct {
	Type string `json:"type"`
}

// readPump reads messages from the WebSocket connection. Application-level
// "ping" text frames are answered with a pong event; everything else is
// ignored.
func (c *client) readPump() {
	defer c.drop()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close error",
					slog.String("client_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg pingMsg
		if err := json.Unmarshal(message, &msg); err == nil && msg.Type == "ping" {
			select {
			case c.send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

// writePump pumps queued messages to the WebSocket connection and sends
// periodic ping frames for keepalive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.drop()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
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

// Compile-time interface check.
var _ stream.Subscriber = (*client)(nil)
