package websocket

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/middleware"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

// Conversation is the part of the conversation workflow the live channel uses
type Conversation interface {
	ListMessages(ctx context.Context, studentID, threadID int64) ([]*models.ChatMessage, error)
	PostStudentMessage(ctx context.Context, studentID, threadID int64, text string) (*models.ChatMessage, *models.ChatMessage, error)
}

// Handler upgrades conversation requests to WebSocket connections
type Handler struct {
	hub          *Hub
	conversation Conversation
	upgrader     websocket.Upgrader
	logger       zerolog.Logger
}

// NewHandler creates a new WebSocket handler. An empty origin list or "*"
// accepts any origin.
func NewHandler(hub *Hub, conversation Conversation, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:          hub,
		conversation: conversation,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// HandleConnection godoc
// @Summary Follow a conversation live
// @Description Upgrades to a WebSocket. Frames {"text": "..."} are sent as student messages; every stored message of the thread is pushed to all followers.
// @Tags conversations
// @Security BasicAuth
// @Param id path int true "Conversation ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} dto.ErrorResponse "conversation not found / not your conversation"
// @Router /api/student/conversations/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	threadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || threadID <= 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid id").WithField("id")))
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		middleware.HandleAPIError(c, apperrors.ErrUnauthenticated)
		return
	}

	// Ownership check before upgrading
	if _, err := h.conversation.ListMessages(c.Request.Context(), actor.UserID, threadID); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("threadID", threadID).Int64("userID", actor.UserID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := newClient(h.hub, conn, actor.UserID, threadID, h.logger)
	if !h.hub.attach(client) {
		client.cancel()
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(func(ctx context.Context, text string) {
		h.post(ctx, client, text)
	})

	h.logger.Info().
		Int64("threadID", threadID).
		Int64("userID", actor.UserID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}

// post stores the student's text through the conversation workflow and
// pushes both stored messages to the thread's followers. ctx ends when the
// client leaves or the hub stops.
func (h *Handler) post(ctx context.Context, client *Client, text string) {
	question, reply, err := h.conversation.PostStudentMessage(ctx, client.userID, client.threadID, text)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Debug().Err(err).Int64("threadID", client.threadID).Msg("Live message abandoned")
			return
		}
		if !apperrors.IsInvalidArgument(err) {
			h.logger.Error().Err(err).Int64("threadID", client.threadID).Msg("Failed to post live message")
			client.sendError("failed to send message")
			return
		}
		client.sendError(err.Error())
		return
	}

	h.hub.Broadcast(frameOf(question))
	h.hub.Broadcast(frameOf(reply))
}

func frameOf(m *models.ChatMessage) *Message {
	return &Message{
		Type:      TypeMessage,
		ThreadID:  m.ThreadID,
		ID:        m.ID,
		Sender:    string(m.Sender),
		Text:      m.Text,
		Timestamp: m.CreatedAt,
	}
}
