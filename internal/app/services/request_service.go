package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/email"
)

// Request error messages shown to clients
const (
	msgOnlyStudentSubmits = "only STUDENT can submit requests"
	msgOnlyStudentHasReqs = "only STUDENT can have requests"
	msgRequestNotFound    = "request not found"
)

// RequestService defines the interface for support requests
type RequestService interface {
	Create(ctx context.Context, studentID int64, message string) (*models.Request, error)
	ListForStudent(ctx context.Context, studentID int64) ([]*models.Request, error)
	AllRequestsAdmin(ctx context.Context) ([]*models.Request, error)
	RequestsForStudentAdmin(ctx context.Context, studentID int64) ([]*models.Request, error)
	Respond(ctx context.Context, requestID int64, response string, status models.RequestStatus) (*models.Request, error)
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	Save(ctx context.Context, request *models.Request) (*models.Request, error)
}

// requestServiceImpl implements RequestService
type requestServiceImpl struct {
	tx          repositories.Transactor
	userRepo    repositories.IUserRepository
	requestRepo repositories.IRequestRepository
	notifier    email.Notifier
	logger      zerolog.Logger
}

// NewRequestService creates a new RequestService. notifier may be nil.
func NewRequestService(
	tx repositories.Transactor,
	userRepo repositories.IUserRepository,
	requestRepo repositories.IRequestRepository,
	notifier email.Notifier,
	logger zerolog.Logger,
) RequestService {
	return &requestServiceImpl{
		tx:          tx,
		userRepo:    userRepo,
		requestRepo: requestRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Create submits a GENERAL request in OPEN status
func (s *requestServiceImpl) Create(ctx context.Context, studentID int64, message string) (*models.Request, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewInvalidArgumentError(msgMessageRequired)
	}

	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentSubmits); err != nil {
		return nil, err
	}

	request := &models.Request{
		StudentID: studentID,
		Type:      models.RequestTypeGeneral,
		Message:   message,
		Status:    models.RequestStatusOpen,
	}
	if err := s.requestRepo.Save(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("requestID", request.ID).Msg("Request created")
	return request, nil
}

// ListForStudent returns the student's requests, newest first
func (s *requestServiceImpl) ListForStudent(ctx context.Context, studentID int64) ([]*models.Request, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentSubmits); err != nil {
		return nil, err
	}
	return s.requestRepo.ListByStudentID(ctx, studentID)
}

// AllRequestsAdmin returns every request, newest first
func (s *requestServiceImpl) AllRequestsAdmin(ctx context.Context) ([]*models.Request, error) {
	return s.requestRepo.ListAll(ctx)
}

// RequestsForStudentAdmin returns one student's requests for an admin
func (s *requestServiceImpl) RequestsForStudentAdmin(ctx context.Context, studentID int64) ([]*models.Request, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentHasReqs); err != nil {
		return nil, err
	}
	return s.requestRepo.ListByStudentID(ctx, studentID)
}

// Respond records the admin response and the new status
func (s *requestServiceImpl) Respond(ctx context.Context, requestID int64, response string, status models.RequestStatus) (*models.Request, error) {
	var request *models.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if request, err = s.GetByID(ctx, requestID); err != nil {
			return err
		}

		request.AdminResponse = &response
		request.Status = status
		return s.requestRepo.Save(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("requestID", requestID).Str("status", string(status)).Msg("Request answered")
	s.notifyAnswered(ctx, request)
	return request, nil
}

// notifyAnswered mails the student; failures are logged only
func (s *requestServiceImpl) notifyAnswered(ctx context.Context, request *models.Request) {
	if s.notifier == nil {
		return
	}

	student, err := s.userRepo.GetByID(ctx, request.StudentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("requestID", request.ID).Msg("Cannot load student for notification")
		return
	}

	var response string
	if request.AdminResponse != nil {
		response = *request.AdminResponse
	}
	err = s.notifier.SendRequestAnswered(ctx, email.RequestAnswered{
		ToEmail:   student.Email,
		ToName:    student.Name,
		RequestID: request.ID,
		Status:    string(request.Status),
		Response:  response,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("requestID", request.ID).Msg("Request notification failed")
	}
}

// GetByID loads a request
func (s *requestServiceImpl) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewInvalidArgumentError(msgRequestNotFound)
		}
		return nil, err
	}
	return request, nil
}

// Save stores the request as given
func (s *requestServiceImpl) Save(ctx context.Context, request *models.Request) (*models.Request, error) {
	if err := s.requestRepo.Save(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}
