package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Student frames waiting for their AI reply
	inboxSize = 8
)

// inbound is the frame a student sends to post into the thread
type inbound struct {
	Text string `json:"text"`
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Student texts posted one at a time, in arrival order
	inbox chan string

	// Cancelled when the client leaves the hub or the socket closes
	ctx    context.Context
	cancel context.CancelFunc

	userID   int64
	threadID int64

	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID, threadID int64, logger zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 64),
		inbox:    make(chan string, inboxSize),
		ctx:      ctx,
		cancel:   cancel,
		userID:   userID,
		threadID: threadID,
		logger:   logger,
	}
}

// readPump reads student frames and queues their text for onText until the
// connection closes.
func (c *Client) readPump(onText func(ctx context.Context, text string)) {
	go c.process(onText)
	defer func() {
		c.cancel()
		close(c.inbox)
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Int64("userID", c.userID).Int64("threadID", c.threadID).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Int64("userID", c.userID).Int64("threadID", c.threadID).Msg("WebSocket closed")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid frame, expected {\"text\": \"...\"}")
			continue
		}
		select {
		case c.inbox <- strings.TrimSpace(msg.Text):
		default:
			c.sendError("too many pending messages")
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// process runs onText for each queued text until the inbox is closed.
// Texts queued after cancellation are dropped.
func (c *Client) process(onText func(ctx context.Context, text string)) {
	for text := range c.inbox {
		if c.ctx.Err() != nil {
			continue
		}
		onText(c.ctx, text)
	}
}

// sendError queues an error frame for this client only
func (c *Client) sendError(text string) {
	data, err := json.Marshal(Message{Type: TypeError, ThreadID: c.threadID, Error: text, Timestamp: time.Now()})
	if err != nil {
		return
	}
	c.hub.sendDirect(c, data)
}

// writePump pumps messages from the hub to the websocket connection, one
// JSON frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
