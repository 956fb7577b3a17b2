package services

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/pkg/aiclient"
	"github.com/yigit/aiinfocenter/internal/pkg/auth"
	"github.com/yigit/aiinfocenter/internal/pkg/email"
	"github.com/yigit/aiinfocenter/internal/pkg/filestorage"
)

// Services holds the workflow services used by the controllers
type Services struct {
	Auth         *AuthService
	Conversation ConversationService
	Request      RequestService
	Attachment   AttachmentService
}

// Dependencies are the collaborators the services are built from
type Dependencies struct {
	Repos     *repositories.Repositories
	Validator StudentFieldValidator
	Hasher    *auth.PasswordHasher
	AI        aiclient.TextService
	AITimeout time.Duration
	Storage   filestorage.FileStorage
	Notifier  email.Notifier
	Logger    zerolog.Logger
}

// NewServices wires every service from deps
func NewServices(deps Dependencies) *Services {
	repos := deps.Repos
	log := deps.Logger

	requestService := NewRequestService(repos.Transactor, repos.UserRepository, repos.RequestRepository,
		deps.Notifier, log.With().Str("service", "request").Logger())
	authService := NewAuthService(repos.Transactor, repos.UserRepository, repos.StudentRepository,
		deps.Validator, deps.Hasher, log.With().Str("service", "auth").Logger())
	conversationService := NewConversationService(repos.Transactor, repos.UserRepository, repos.ConversationRepo,
		repos.ChatMessageRepo, deps.AI, deps.AITimeout, log.With().Str("service", "conversation").Logger())
	attachmentService := NewAttachmentService(requestService, deps.Storage,
		log.With().Str("service", "attachment").Logger())

	return &Services{
		Auth:         authService,
		Conversation: conversationService,
		Request:      requestService,
		Attachment:   attachmentService,
	}
}
