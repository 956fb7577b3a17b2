package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Frame types pushed to clients
const (
	TypeMessage = "message"
	TypeError   = "error"
)

// Message is a frame sent over the WebSocket
type Message struct {
	// Type of frame: "message" or "error"
	Type string `json:"type"`

	// Conversation thread the frame belongs to
	ThreadID int64 `json:"threadId"`

	// Stored message ID, zero for frames that were not persisted
	ID int64 `json:"id,omitempty"`

	Sender    string    `json:"sender,omitempty"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients per thread and broadcasts messages
// to them. All state is owned by the Run goroutine.
type Hub struct {
	// Registered clients organized by thread ID
	rooms map[int64]map[*Client]bool

	broadcast  chan *Message
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	count      chan countRequest

	// Closed when Run returns
	done chan struct{}

	logger zerolog.Logger
}

type directMessage struct {
	client *Client
	data   []byte
}

type countRequest struct {
	threadID int64
	reply    chan int
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan *Message, 16),
		direct:     make(chan directMessage, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for client := range clients {
					h.removeClient(client)
				}
			}
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case dm := <-h.direct:
			if h.rooms[dm.client.threadID][dm.client] {
				h.deliver(dm.client, dm.data)
			}

		case req := <-h.count:
			req.reply <- len(h.rooms[req.threadID])
		}
	}
}

func (h *Hub) addClient(client *Client) {
	room, ok := h.rooms[client.threadID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.threadID] = room
	}
	room[client] = true

	h.logger.Info().
		Int64("threadID", client.threadID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.threadID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	client.cancel()
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.threadID)
	}

	h.logger.Info().
		Int64("threadID", client.threadID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// broadcastMessage sends a message to every client of its thread. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	room, ok := h.rooms[message.ThreadID]
	if !ok {
		h.logger.Debug().Int64("threadID", message.ThreadID).Msg("No clients in thread for broadcast")
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Int64("threadID", message.ThreadID).Msg("Failed to marshal message for broadcast")
		return
	}

	for client := range room {
		h.deliver(client, data)
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn().Int64("userID", client.userID).Msg("Dropping slow client")
		h.removeClient(client)
	}
}

// Broadcast queues message for every client following its thread
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientsCount returns the number of connected clients for a thread
func (h *Hub) ClientsCount(threadID int64) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{threadID: threadID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// attach registers client. It reports false once the hub has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) sendDirect(client *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}
