package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/app/services"
	"github.com/yigit/aiinfocenter/internal/middleware"
)

// RequestController handles support requests for students and admins
type RequestController struct {
	requestService    services.RequestService
	attachmentService services.AttachmentService
	maxUploadBytes    int64
	logger            zerolog.Logger
}

// NewRequestController creates a new RequestController
func NewRequestController(
	requestService services.RequestService,
	attachmentService services.AttachmentService,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *RequestController {
	return &RequestController{
		requestService:    requestService,
		attachmentService: attachmentService,
		maxUploadBytes:    maxUploadBytes,
		logger:            logger,
	}
}

// CreateRequest godoc
// @Summary Submit a request
// @Tags requests
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body dto.CreateRequestRequest true "Request message"
// @Success 201 {object} dto.APIResponse{data=dto.RequestResponse}
// @Failure 400 {object} dto.ErrorResponse "message required"
// @Router /api/student/requests [post]
func (c *RequestController) CreateRequest(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	request, err := c.requestService.Create(ctx.Request.Context(), actor.UserID, req.Message)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewRequestResponse(request)))
}

// ListMyRequests godoc
// @Summary List my requests
// @Tags requests
// @Produce json
// @Security BasicAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RequestResponse}
// @Router /api/student/requests [get]
func (c *RequestController) ListMyRequests(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	requests, err := c.requestService.ListForStudent(ctx.Request.Context(), actor.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRequestResponses(requests)))
}

// ListAllRequests godoc
// @Summary List all requests
// @Tags admin
// @Produce json
// @Security BasicAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RequestResponse}
// @Router /api/admin/requests [get]
func (c *RequestController) ListAllRequests(ctx *gin.Context) {
	requests, err := c.requestService.AllRequestsAdmin(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRequestResponses(requests)))
}

// ListStudentRequests godoc
// @Summary List one student's requests
// @Tags admin
// @Produce json
// @Security BasicAuth
// @Param id path int true "Student user ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.RequestResponse}
// @Failure 400 {object} dto.ErrorResponse "student not found / only STUDENT can have requests"
// @Router /api/admin/students/{id}/requests [get]
func (c *RequestController) ListStudentRequests(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	requests, err := c.requestService.RequestsForStudentAdmin(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRequestResponses(requests)))
}

// RespondToRequest godoc
// @Summary Answer a request
// @Tags admin
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Request ID"
// @Param request body dto.RespondRequestRequest true "Response text and new status"
// @Success 200 {object} dto.APIResponse{data=dto.RequestResponse}
// @Failure 400 {object} dto.ErrorResponse "request not found / invalid status"
// @Router /api/admin/requests/{id}/respond [put]
func (c *RequestController) RespondToRequest(ctx *gin.Context) {
	requestID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.RespondRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	status, ok := models.ParseRequestStatus(req.Status)
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "status must be one of OPEN, IN_PROGRESS, CLOSED").WithField("status")))
		return
	}

	request, err := c.requestService.Respond(ctx.Request.Context(), requestID, req.Response, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRequestResponse(request)))
}

// UploadAttachment godoc
// @Summary Attach a file to my request
// @Description Replaces any previous attachment of the request.
// @Tags requests
// @Accept multipart/form-data
// @Produce json
// @Security BasicAuth
// @Param id path int true "Request ID"
// @Param file formData file true "Attachment"
// @Success 200 {object} dto.APIResponse{data=dto.RequestResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Router /api/student/requests/{id}/attachment [post]
func (c *RequestController) UploadAttachment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ctx.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeValidationFailed, fmt.Sprintf("file exceeds %d bytes", c.maxUploadBytes)).WithField("file")))
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "file is required").WithField("file")))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	request, err := c.attachmentService.Upload(ctx.Request.Context(), actor.UserID, requestID, fileHeader.Filename, contentType, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewRequestResponse(request)))
}

// DownloadAttachment godoc
// @Summary Download a request attachment
// @Description Students can download attachments of their own requests, admins any attachment.
// @Tags requests
// @Produce octet-stream
// @Security BasicAuth
// @Param id path int true "Request ID"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/student/requests/{id}/attachment [get]
// @Router /api/admin/requests/{id}/attachment [get]
func (c *RequestController) DownloadAttachment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	att, err := c.attachmentService.Open(ctx.Request.Context(), actor.UserID, actor.Role, requestID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer att.Content.Close()

	ctx.DataFromReader(http.StatusOK, att.Size, att.ContentType, att.Content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", att.Name),
	})
}
