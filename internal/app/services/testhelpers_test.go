package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/app/repositories/memory"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/auth"
	"github.com/yigit/aiinfocenter/internal/pkg/email"
	"github.com/yigit/aiinfocenter/internal/pkg/validation"
	"golang.org/x/crypto/bcrypt"
)

// stubAI answers with a fixed reply or error and records the questions
type stubAI struct {
	mu        sync.Mutex
	reply     string
	err       error
	questions []string
}

func (a *stubAI) AskAIText(_ context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.questions = append(a.questions, text)
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// blockingAI waits for the context to end
type blockingAI struct{}

func (blockingAI) AskAIText(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type fixture struct {
	repos        *repositories.Repositories
	auth         *AuthService
	conversation ConversationService
	requests     RequestService
	ai           *stubAI
	notifier     *recordingNotifier
}

// recordingNotifier keeps every notification it is asked to send
type recordingNotifier struct {
	mu   sync.Mutex
	err  error
	sent []email.RequestAnswered
}

func (n *recordingNotifier) SendRequestAnswered(_ context.Context, msg email.RequestAnswered) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	ai := &stubAI{reply: "Hi! How can I help?"}
	notifier := &recordingNotifier{}
	log := zerolog.Nop()

	return &fixture{
		repos: repos,
		auth: NewAuthService(repos.Transactor, repos.UserRepository, repos.StudentRepository,
			validation.NewStudentFieldValidator(), auth.NewPasswordHasher(bcrypt.MinCost), log),
		conversation: NewConversationService(repos.Transactor, repos.UserRepository, repos.ConversationRepo,
			repos.ChatMessageRepo, ai, 0, log),
		requests: NewRequestService(repos.Transactor, repos.UserRepository, repos.RequestRepository, notifier, log),
		ai:       ai,
		notifier: notifier,
	}
}

func intPtr(v int) *int { return &v }

func (f *fixture) registerStudent(t *testing.T, name, email string) *models.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Name: name, Email: email, Password: "pw", Role: "STUDENT", Faculty: "CS", YearOfStudy: intPtr(2),
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) registerAdmin(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
		Name: "Admin", Email: email, Password: "secret", Role: "admin",
	})
	require.NoError(t, err)
	return user
}

func requireInvalidArgument(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsInvalidArgument(err), "expected InvalidArgument, got %v", err)
	require.EqualError(t, err, message)
}
