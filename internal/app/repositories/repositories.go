package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/db"
)

// Lookups by id or email return an error wrapping
// apperrors.ErrResourceNotFound when nothing matches.

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IUserRepository defines user persistence
type IUserRepository interface {
	// Create inserts the user and fills ID and CreatedAt. A duplicate email
	// yields an error wrapping apperrors.ErrResourceAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// IStudentProfileRepository defines student profile persistence
type IStudentProfileRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
}

// IConversationRepository defines conversation thread persistence
type IConversationRepository interface {
	Create(ctx context.Context, thread *models.ConversationThread) error
	GetByID(ctx context.Context, id int64) (*models.ConversationThread, error)
	// ListByStudentID returns the student's threads, newest first
	ListByStudentID(ctx context.Context, studentID int64) ([]*models.ConversationThread, error)
	Delete(ctx context.Context, id int64) error
}

// IChatMessageRepository defines chat message persistence
type IChatMessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	// ListByThreadID returns messages oldest first, id breaking ties
	ListByThreadID(ctx context.Context, threadID int64) ([]*models.ChatMessage, error)
	DeleteByThreadID(ctx context.Context, threadID int64) (int64, error)
}

// IRequestRepository defines request persistence
type IRequestRepository interface {
	// Save inserts when ID is zero and updates otherwise
	Save(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	// ListAll and ListByStudentID return requests by id descending
	ListAll(ctx context.Context) ([]*models.Request, error)
	ListByStudentID(ctx context.Context, studentID int64) ([]*models.Request, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Transactor        Transactor
	UserRepository    IUserRepository
	StudentRepository IStudentProfileRepository
	ConversationRepo  IConversationRepository
	ChatMessageRepo   IChatMessageRepository
	RequestRepository IRequestRepository
}

// NewRepositories initializes the Postgres backed repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		Transactor:        database,
		UserRepository:    NewUserRepository(database.Pool),
		StudentRepository: NewStudentProfileRepository(database.Pool),
		ConversationRepo:  NewConversationRepository(database.Pool),
		ChatMessageRepo:   NewChatMessageRepository(database.Pool),
		RequestRepository: NewRequestRepository(database.Pool),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
