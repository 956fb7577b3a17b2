package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/pkg/aiclient"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

// Conversation error messages shown to clients
const (
	msgOnlyStudentConversations = "only STUDENT can use conversations"
	msgConversationNotFound     = "conversation not found"
	msgNotYourConversation      = "not your conversation"
	msgTitleRequired            = "title required"
	msgMessageRequired          = "message required"

	// AIErrorPrefix starts the stored reply when the AI call fails
	AIErrorPrefix = "AI error: "
)

// DefaultAITimeout bounds a single AI call when none is configured
const DefaultAITimeout = 60 * time.Second

// ConversationService defines the interface for student AI conversations
type ConversationService interface {
	CreateConversation(ctx context.Context, studentID int64, title string) (*models.ConversationThread, error)
	ListConversations(ctx context.Context, studentID int64) ([]*models.ConversationThread, error)
	DeleteConversation(ctx context.Context, studentID, threadID int64) error
	ListMessages(ctx context.Context, studentID, threadID int64) ([]*models.ChatMessage, error)
	// SendStudentMessage stores the student's text and the AI reply and
	// returns the AI message.
	SendStudentMessage(ctx context.Context, studentID, threadID int64, text string) (*models.ChatMessage, error)
	// PostStudentMessage is SendStudentMessage returning the stored student
	// message as well.
	PostStudentMessage(ctx context.Context, studentID, threadID int64, text string) (*models.ChatMessage, *models.ChatMessage, error)
	// AskAI relays text to the AI without storing anything. Failures come
	// back as an "AI error: " reply.
	AskAI(ctx context.Context, text string) string
}

// conversationServiceImpl implements ConversationService
type conversationServiceImpl struct {
	tx          repositories.Transactor
	userRepo    repositories.IUserRepository
	threadRepo  repositories.IConversationRepository
	messageRepo repositories.IChatMessageRepository
	ai          aiclient.TextService
	aiTimeout   time.Duration
	logger      zerolog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	tx repositories.Transactor,
	userRepo repositories.IUserRepository,
	threadRepo repositories.IConversationRepository,
	messageRepo repositories.IChatMessageRepository,
	ai aiclient.TextService,
	aiTimeout time.Duration,
	logger zerolog.Logger,
) ConversationService {
	if aiTimeout <= 0 {
		aiTimeout = DefaultAITimeout
	}
	return &conversationServiceImpl{
		tx:          tx,
		userRepo:    userRepo,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		ai:          ai,
		aiTimeout:   aiTimeout,
		logger:      logger,
	}
}

// requireThreadOfStudent loads the thread and checks that studentID owns it
func (s *conversationServiceImpl) requireThreadOfStudent(ctx context.Context, studentID, threadID int64) (*models.ConversationThread, error) {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewInvalidArgumentError(msgConversationNotFound)
		}
		return nil, err
	}
	if thread.StudentID != studentID {
		s.logger.Warn().Int64("studentID", studentID).Int64("threadID", threadID).Msg("Conversation accessed by non-owner")
		return nil, apperrors.NewInvalidArgumentError(msgNotYourConversation)
	}
	return thread, nil
}

// CreateConversation starts a thread for the student
func (s *conversationServiceImpl) CreateConversation(ctx context.Context, studentID int64, title string) (*models.ConversationThread, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentConversations); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewInvalidArgumentError(msgTitleRequired)
	}

	thread := &models.ConversationThread{StudentID: studentID, Title: title}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("threadID", thread.ID).Msg("Conversation created")
	return thread, nil
}

// ListConversations returns the student's threads, newest first
func (s *conversationServiceImpl) ListConversations(ctx context.Context, studentID int64) ([]*models.ConversationThread, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentConversations); err != nil {
		return nil, err
	}
	return s.threadRepo.ListByStudentID(ctx, studentID)
}

// DeleteConversation removes the thread and its messages atomically
func (s *conversationServiceImpl) DeleteConversation(ctx context.Context, studentID, threadID int64) error {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentConversations); err != nil {
		return err
	}
	if _, err := s.requireThreadOfStudent(ctx, studentID, threadID); err != nil {
		return err
	}

	var deleted int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if deleted, err = s.messageRepo.DeleteByThreadID(ctx, threadID); err != nil {
			return err
		}
		return s.threadRepo.Delete(ctx, threadID)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("threadID", threadID).Msg("Failed to delete conversation")
		return err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("threadID", threadID).Int64("messages", deleted).Msg("Conversation deleted")
	return nil
}

// ListMessages returns the thread's messages in chronological order
func (s *conversationServiceImpl) ListMessages(ctx context.Context, studentID, threadID int64) ([]*models.ChatMessage, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentConversations); err != nil {
		return nil, err
	}
	if _, err := s.requireThreadOfStudent(ctx, studentID, threadID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByThreadID(ctx, threadID)
}

// SendStudentMessage asks the AI and stores the student message and the reply
// in one transaction. It returns the AI message.
func (s *conversationServiceImpl) SendStudentMessage(ctx context.Context, studentID, threadID int64, text string) (*models.ChatMessage, error) {
	_, reply, err := s.PostStudentMessage(ctx, studentID, threadID, text)
	return reply, err
}

// PostStudentMessage asks the AI first and then stores the student's message
// and the reply together, returning both stored records.
func (s *conversationServiceImpl) PostStudentMessage(ctx context.Context, studentID, threadID int64, text string) (*models.ChatMessage, *models.ChatMessage, error) {
	if _, err := requireStudent(ctx, s.userRepo, studentID, msgOnlyStudentConversations); err != nil {
		return nil, nil, err
	}
	if _, err := s.requireThreadOfStudent(ctx, studentID, threadID); err != nil {
		return nil, nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, apperrors.NewInvalidArgumentError(msgMessageRequired)
	}

	// No transaction is open while the AI call runs
	answer := s.AskAI(ctx, text)
	if err := ctx.Err(); err != nil {
		// The caller went away; an AI timeout alone does not end ctx
		return nil, nil, err
	}

	question := &models.ChatMessage{ThreadID: threadID, Sender: models.SenderStudent, Text: text}
	reply := &models.ChatMessage{ThreadID: threadID, Sender: models.SenderAI, Text: answer}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// The thread may have been deleted during the AI call
		if _, err := s.requireThreadOfStudent(ctx, studentID, threadID); err != nil {
			return err
		}
		if err := s.messageRepo.Create(ctx, question); err != nil {
			return err
		}
		return s.messageRepo.Create(ctx, reply)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("threadID", threadID).Msg("Failed to store conversation messages")
		return nil, nil, err
	}

	return question, reply, nil
}

// AskAI calls the AI under the configured timeout. It never fails: errors
// become the reply text.
func (s *conversationServiceImpl) AskAI(ctx context.Context, text string) string {
	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.ai.AskAIText(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("AI call failed")
		return AIErrorPrefix + err.Error()
	}

	s.logger.Debug().Dur("elapsed", time.Since(start)).Msg("AI replied")
	return answer
}
