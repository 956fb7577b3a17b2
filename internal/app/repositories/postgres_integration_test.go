//go:build integration

package repositories

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yigit/aiinfocenter/internal/app/migrations"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/config"
	"github.com/yigit/aiinfocenter/internal/db"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

var testDB *db.PostgresDB

// TestMain starts a Postgres container and applies the migrations once.
func TestMain(m *testing.M) {
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "aiinfocenter",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverPostgres
	cfg.Database.Host = host
	cfg.Database.Port = port.Port()
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.DBName = "aiinfocenter"
	cfg.Database.MaxOpenConns = 5
	cfg.Database.MaxIdleConns = 1

	testDB, err = db.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	migrator := migrations.NewMigrator(testDB.Pool, zerolog.Nop())
	if _, err := migrator.MigrateFromDirectory(ctx, filepath.Join("..", "..", "..", "migrations")); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func truncate(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(),
		`TRUNCATE chat_messages, conversation_threads, requests, student_profiles, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func createUser(t *testing.T, repos *Repositories, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: "Test", Email: email, Password: "hash", Role: role}
	require.NoError(t, repos.UserRepository.Create(context.Background(), user))
	return user
}

func TestPostgresUserRepository(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	repos := NewRepositories(testDB)

	user := createUser(t, repos, "ana@x.com", models.RoleStudent)
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	err := repos.UserRepository.Create(ctx, &models.User{Name: "Dup", Email: "ana@x.com", Password: "h", Role: models.RoleStudent})
	assert.True(t, errors.Is(err, apperrors.ErrResourceAlreadyExists))

	exists, err := repos.UserRepository.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	byEmail, err := repos.UserRepository.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repos.UserRepository.GetByID(ctx, 9999)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	require.NoError(t, repos.StudentRepository.Create(ctx, &models.StudentProfile{UserID: user.ID, Faculty: "CS", YearOfStudy: 2}))
	profile, err := repos.StudentRepository.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS", profile.Faculty)
}

func TestPostgresTransactionRollback(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	repos := NewRepositories(testDB)
	boom := errors.New("boom")

	err := repos.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		createUser(t, repos, "rolled@x.com", models.RoleStudent)
		return boom
	})
	assert.Same(t, boom, err)

	exists, err := repos.UserRepository.EmailExists(ctx, "rolled@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostgresConversationLifecycle(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	repos := NewRepositories(testDB)
	student := createUser(t, repos, "ana@x.com", models.RoleStudent)

	first := &models.ConversationThread{StudentID: student.ID, Title: "first"}
	second := &models.ConversationThread{StudentID: student.ID, Title: "second"}
	require.NoError(t, repos.ConversationRepo.Create(ctx, first))
	require.NoError(t, repos.ConversationRepo.Create(ctx, second))

	threads, err := repos.ConversationRepo.ListByStudentID(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID)

	for _, m := range []*models.ChatMessage{
		{ThreadID: first.ID, Sender: models.SenderStudent, Text: "hi"},
		{ThreadID: first.ID, Sender: models.SenderAI, Text: "hello"},
	} {
		require.NoError(t, repos.ChatMessageRepo.Create(ctx, m))
	}

	messages, err := repos.ChatMessageRepo.ListByThreadID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.SenderStudent, messages[0].Sender)
	assert.Equal(t, models.SenderAI, messages[1].Sender)

	// Messages must go first
	assert.Error(t, repos.ConversationRepo.Delete(ctx, first.ID))

	deleted, err := repos.ChatMessageRepo.DeleteByThreadID(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	require.NoError(t, repos.ConversationRepo.Delete(ctx, first.ID))

	_, err = repos.ConversationRepo.GetByID(ctx, first.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	assert.True(t, errors.Is(repos.ConversationRepo.Delete(ctx, first.ID), apperrors.ErrResourceNotFound))
}

func TestPostgresRequestRepository(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	repos := NewRepositories(testDB)
	ana := createUser(t, repos, "ana@x.com", models.RoleStudent)
	bob := createUser(t, repos, "bob@x.com", models.RoleStudent)

	r1 := &models.Request{StudentID: ana.ID, Type: models.RequestTypeGeneral, Message: "one", Status: models.RequestStatusOpen}
	r2 := &models.Request{StudentID: bob.ID, Type: models.RequestTypeGeneral, Message: "two", Status: models.RequestStatusOpen}
	require.NoError(t, repos.RequestRepository.Save(ctx, r1))
	require.NoError(t, repos.RequestRepository.Save(ctx, r2))

	all, err := repos.RequestRepository.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r2.ID, all[0].ID)

	mine, err := repos.RequestRepository.ListByStudentID(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	answer := "done"
	path := "requests/1/file.pdf"
	r1.Status = models.RequestStatusClosed
	r1.AdminResponse = &answer
	r1.AttachmentPath = &path
	require.NoError(t, repos.RequestRepository.Save(ctx, r1))

	loaded, err := repos.RequestRepository.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusClosed, loaded.Status)
	require.NotNil(t, loaded.AdminResponse)
	assert.Equal(t, "done", *loaded.AdminResponse)
	assert.True(t, loaded.HasAttachment())
}
