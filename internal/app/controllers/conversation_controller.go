package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/app/services"
	"github.com/yigit/aiinfocenter/internal/middleware"
)

// ConversationController handles student AI conversations
type ConversationController struct {
	conversationService services.ConversationService
}

// NewConversationController creates a new ConversationController
func NewConversationController(conversationService services.ConversationService) *ConversationController {
	return &ConversationController{conversationService: conversationService}
}

// ListConversations godoc
// @Summary List my conversations
// @Tags conversations
// @Produce json
// @Security BasicAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConversationResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/student/conversations [get]
func (c *ConversationController) ListConversations(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	threads, err := c.conversationService.ListConversations(ctx.Request.Context(), actor.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewConversationResponses(threads)))
}

// CreateConversation godoc
// @Summary Start a conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body dto.CreateConversationRequest true "Conversation title"
// @Success 201 {object} dto.APIResponse{data=dto.ConversationResponse}
// @Failure 400 {object} dto.ErrorResponse "title required"
// @Router /api/student/conversations [post]
func (c *ConversationController) CreateConversation(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	thread, err := c.conversationService.CreateConversation(ctx.Request.Context(), actor.UserID, req.Title)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewConversationResponse(thread)))
}

// DeleteConversation godoc
// @Summary Delete a conversation and its messages
// @Tags conversations
// @Produce json
// @Security BasicAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "conversation not found / not your conversation"
// @Router /api/student/conversations/{id} [delete]
func (c *ConversationController) DeleteConversation(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.conversationService.DeleteConversation(ctx.Request.Context(), actor.UserID, threadID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "conversation deleted"}))
}

// ListMessages godoc
// @Summary List the messages of a conversation
// @Tags conversations
// @Produce json
// @Security BasicAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatMessageResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/student/conversations/{id}/messages [get]
func (c *ConversationController) ListMessages(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	messages, err := c.conversationService.ListMessages(ctx.Request.Context(), actor.UserID, threadID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewChatMessageResponses(messages)))
}

// SendMessage godoc
// @Summary Send a message and receive the AI reply
// @Description Stores the student message and the AI reply. AI failures are returned as an "AI error: ..." reply, not as an error.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message text"
// @Success 201 {object} dto.APIResponse{data=dto.ChatMessageResponse}
// @Failure 400 {object} dto.ErrorResponse "message required"
// @Router /api/student/conversations/{id}/messages [post]
func (c *ConversationController) SendMessage(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	reply, err := c.conversationService.SendStudentMessage(ctx.Request.Context(), actor.UserID, threadID, req.Text)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewChatMessageResponse(reply)))
}

// Relay godoc
// @Summary Ask the AI without a conversation
// @Description Public relay to the AI service. Nothing is stored.
// @Tags conversations
// @Accept json
// @Produce json
// @Param request body dto.RelayMessageRequest true "Question"
// @Success 200 {object} dto.RelayMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /message [post]
func (c *ConversationController) Relay(ctx *gin.Context) {
	var req dto.RelayMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	reply := c.conversationService.AskAI(ctx.Request.Context(), req.Text)
	ctx.JSON(http.StatusOK, dto.RelayMessageResponse{Reply: reply})
}
