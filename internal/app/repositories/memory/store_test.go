package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

func newFixedClockRepos(t *testing.T) (*Store, *UserRepository, *ConversationRepository, *ChatMessageRepository, *RequestRepository) {
	t.Helper()
	store := NewStore()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	return store,
		&UserRepository{store: store},
		&ConversationRepository{store: store},
		&ChatMessageRepository{store: store},
		&RequestRepository{store: store}
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	ctx := context.Background()
	_, users, _, _, _ := newFixedClockRepos(t)

	ana := &models.User{Name: "Ana", Email: "ana@x.com", Role: models.RoleStudent}
	require.NoError(t, users.Create(ctx, ana))
	assert.Equal(t, int64(1), ana.ID)

	err := users.Create(ctx, &models.User{Name: "Other", Email: "ANA@x.com", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, apperrors.ErrResourceAlreadyExists))

	exists, err := users.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = users.GetByEmail(ctx, "nobody@x.com")
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store, users, _, _, _ := newFixedClockRepos(t)

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, users.Create(ctx, &models.User{Name: "Ana", Email: "ana@x.com", Role: models.RoleStudent}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := users.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	// ids are restored with the snapshot
	bob := &models.User{Name: "Bob", Email: "bob@x.com", Role: models.RoleStudent}
	require.NoError(t, users.Create(ctx, bob))
	assert.Equal(t, int64(1), bob.ID)
}

func TestWithinTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store, users, _, _, _ := newFixedClockRepos(t)

	assert.Panics(t, func() {
		_ = store.WithinTransaction(ctx, func(ctx context.Context) error {
			_ = users.Create(ctx, &models.User{Name: "Ana", Email: "ana@x.com", Role: models.RoleStudent})
			panic("kaboom")
		})
	})

	exists, err := users.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store, users, _, _, _ := newFixedClockRepos(t)

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		return store.WithinTransaction(ctx, func(ctx context.Context) error {
			return users.Create(ctx, &models.User{Name: "Ana", Email: "ana@x.com", Role: models.RoleStudent})
		})
	})
	require.NoError(t, err)

	exists, err := users.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMessagesOrderedByTimeThenID(t *testing.T) {
	ctx := context.Background()
	_, _, threads, messages, _ := newFixedClockRepos(t)

	thread := &models.ConversationThread{StudentID: 1, Title: "Help"}
	require.NoError(t, threads.Create(ctx, thread))
	for i := 0; i < 4; i++ {
		sender := models.SenderStudent
		if i%2 == 1 {
			sender = models.SenderAI
		}
		require.NoError(t, messages.Create(ctx, &models.ChatMessage{ThreadID: thread.ID, Sender: sender, Text: "m"}))
	}

	list, err := messages.ListByThreadID(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, m := range list {
		assert.Equal(t, int64(i+1), m.ID)
	}
}

func TestThreadDeleteRequiresMessagesGone(t *testing.T) {
	ctx := context.Background()
	_, _, threads, messages, _ := newFixedClockRepos(t)

	thread := &models.ConversationThread{StudentID: 1, Title: "Help"}
	require.NoError(t, threads.Create(ctx, thread))
	require.NoError(t, messages.Create(ctx, &models.ChatMessage{ThreadID: thread.ID, Sender: models.SenderStudent, Text: "hi"}))

	assert.Error(t, threads.Delete(ctx, thread.ID))

	n, err := messages.DeleteByThreadID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, threads.Delete(ctx, thread.ID))

	_, err = threads.GetByID(ctx, thread.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestRequestSaveAndList(t *testing.T) {
	ctx := context.Background()
	_, _, _, _, requests := newFixedClockRepos(t)

	for _, studentID := range []int64{1, 2, 1} {
		require.NoError(t, requests.Save(ctx, &models.Request{
			StudentID: studentID, Type: models.RequestTypeGeneral, Message: "m", Status: models.RequestStatusOpen,
		}))
	}

	all, err := requests.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := requests.ListByStudentID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(3), mine[0].ID)

	got, err := requests.GetByID(ctx, 2)
	require.NoError(t, err)
	response := "done"
	got.AdminResponse = &response
	got.Status = models.RequestStatusClosed
	require.NoError(t, requests.Save(ctx, got))

	// later writes through the caller's pointer do not leak into the store
	response = "changed"
	stored, err := requests.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusClosed, stored.Status)
	require.NotNil(t, stored.AdminResponse)
	assert.Equal(t, "done", *stored.AdminResponse)

	err = requests.Save(ctx, &models.Request{ID: 99})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}
