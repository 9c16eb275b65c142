package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/git-mahad/group-chat/internal/config"
	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/pkg/log"
)

// Client is one gateway connection: the websocket, its session state and the
// outbound buffer the write pump drains.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *domain.Session

	cfg config.WebSocketConfig
	ctx context.Context
}

// NewClient wraps an upgraded websocket connection.
func NewClient(h *Hub, conn *websocket.Conn, connID string, cfg config.WebSocketConfig) *Client {
	logger := log.L().With().Str(log.FieldConnID, connID).Logger()
	return &Client{
		ID:      connID,
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, cfg.SendBufferSize),
		Session: domain.NewSession(connID),
		cfg:     cfg,
		ctx:     log.WithLogger(context.Background(), logger),
	}
}

// Context returns the connection-scoped context. It outlives the upgrade
// request and carries a logger tagged with the connection id.
func (c *Client) Context() context.Context {
	return c.ctx
}

// SendEvent serializes an event and queues it for this connection only.
func (c *Client) SendEvent(event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		l := log.L()
		l.Warn().Str(log.FieldConnID, c.ID).Msg("send buffer full, dropping event")
		return nil
	}
}

// ReadPump reads inbound frames and hands each one to the dispatcher. It
// owns the read side of the connection and unregisters the client on exit.
func (c *Client) ReadPump(dispatch func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Session.UpdateActivity()
		return c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("websocket closed unexpectedly")
			}
			return
		}
		c.Session.UpdateActivity()
		dispatch(c, data)
	}
}

// WritePump drains the send buffer to the connection and keeps it alive with
// pings. It owns the write side of the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
