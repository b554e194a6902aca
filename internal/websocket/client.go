package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"auditpulse/internal/config"
)

const (
	// Maximum message size allowed from peer. Clients only listen, so any
	// inbound payload beyond a ping is unexpected.
	maxMessageSize = 512

	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
)

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	id        string
	writeWait time.Duration
	pongWait  time.Duration
	logger    *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig, logger *slog.Logger) *Client {
	id := uuid.New().String()
	writeWait := cfg.WriteWait
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		id:        id,
		writeWait: writeWait,
		pongWait:  pongWait,
		logger: logger.With(
			slog.String("component", "websocket_client"),
			slog.String("client_id", id)),
	}
}

// readPump drains inbound frames so pong handlers fire and closed
// connections are noticed promptly.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump pushes hub messages and periodic pings to the peer.
func (c *Client) writePump() {
	pingPeriod := (c.pongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription on the hub.
func ServeWS(hub *Hub, cfg config.WebSocketConfig, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("error", err.Error()))
			return
		}

		client := newClient(hub, conn, cfg, logger)
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
