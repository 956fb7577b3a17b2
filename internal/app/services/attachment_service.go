package services

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/filestorage"
)

const (
	msgNotYourRequest = "not your request"
	msgNoAttachment   = "request has no attachment"
)

// Attachment is an opened request attachment. Callers close Content.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadCloser
}

// AttachmentService stores and serves files attached to requests
type AttachmentService interface {
	// Upload stores the file for the student's own request, replacing any
	// previous attachment.
	Upload(ctx context.Context, studentID, requestID int64, filename, contentType string, r io.Reader) (*models.Request, error)
	// Open returns the attachment. Students may only open their own requests.
	Open(ctx context.Context, actorID int64, role models.Role, requestID int64) (*Attachment, error)
}

type attachmentServiceImpl struct {
	requests RequestService
	storage  filestorage.FileStorage
	logger   zerolog.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(requests RequestService, storage filestorage.FileStorage, logger zerolog.Logger) AttachmentService {
	return &attachmentServiceImpl{
		requests: requests,
		storage:  storage,
		logger:   logger,
	}
}

func (s *attachmentServiceImpl) Upload(ctx context.Context, studentID, requestID int64, filename, contentType string, r io.Reader) (*models.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.StudentID != studentID {
		return nil, apperrors.NewInvalidArgumentError(msgNotYourRequest)
	}

	info, err := s.storage.Save(r, filename, "requests/"+strconv.FormatInt(requestID, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	var previous string
	if request.HasAttachment() {
		previous = *request.AttachmentPath
	}

	request.AttachmentName = &info.Filename
	request.AttachmentPath = &info.Path
	request.AttachmentType = &contentType
	request.AttachmentSize = &info.FileSize

	saved, err := s.requests.Save(ctx, request)
	if err != nil {
		if delErr := s.storage.DeleteFile(info.Path); delErr != nil {
			s.logger.Error().Err(delErr).Str("path", info.Path).Msg("Failed to remove orphaned attachment")
		}
		return nil, err
	}

	if previous != "" && previous != info.Path {
		if err := s.storage.DeleteFile(previous); err != nil {
			s.logger.Warn().Err(err).Str("path", previous).Msg("Failed to remove replaced attachment")
		}
	}

	s.logger.Info().Int64("requestID", requestID).Int64("size", info.FileSize).Msg("Attachment stored")
	return saved, nil
}

func (s *attachmentServiceImpl) Open(ctx context.Context, actorID int64, role models.Role, requestID int64) (*Attachment, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && request.StudentID != actorID {
		return nil, apperrors.NewInvalidArgumentError(msgNotYourRequest)
	}
	if !request.HasAttachment() {
		return nil, apperrors.NewInvalidArgumentError(msgNoAttachment)
	}

	f, err := s.storage.Open(*request.AttachmentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}

	att := &Attachment{Content: f, ContentType: "application/octet-stream"}
	if request.AttachmentName != nil {
		att.Name = *request.AttachmentName
	}
	if request.AttachmentType != nil && *request.AttachmentType != "" {
		att.ContentType = *request.AttachmentType
	}
	if request.AttachmentSize != nil {
		att.Size = *request.AttachmentSize
	}
	return att, nil
}
