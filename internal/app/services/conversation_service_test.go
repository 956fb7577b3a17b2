package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
)

func TestConversationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")

	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	reply, err := f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, models.SenderAI, reply.Sender)

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.SenderStudent, messages[0].Sender)
	assert.Equal(t, "hello", messages[0].Text)
	assert.Equal(t, models.SenderAI, messages[1].Sender)
	assert.Equal(t, "Hi! How can I help?", messages[1].Text)
}

func TestSendStudentMessageAIFailureBecomesReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	f.ai.err = errors.New("connection refused")
	reply, err := f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "AI error: connection refused", reply.Text)
	assert.Equal(t, []string{"hello"}, f.ai.questions, "AI is asked once with the trimmed text")

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Text)
}

func TestSendStudentMessageAITimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")

	svc := NewConversationService(f.repos.Transactor, f.repos.UserRepository, f.repos.ConversationRepo,
		f.repos.ChatMessageRepo, blockingAI{}, 20*time.Millisecond, zerolog.Nop())
	thread, err := svc.CreateConversation(ctx, ana.ID, "Slow")
	require.NoError(t, err)

	reply, err := svc.SendStudentMessage(ctx, ana.ID, thread.ID, "anyone?")
	require.NoError(t, err)
	assert.Equal(t, "AI error: "+context.DeadlineExceeded.Error(), reply.Text)
}

func TestMessagesAlternateAcrossExchanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Many")
	require.NoError(t, err)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2*n)
	for i, m := range messages {
		if i%2 == 0 {
			assert.Equal(t, models.SenderStudent, m.Sender)
			assert.Equal(t, fmt.Sprintf("q%d", i/2), m.Text)
		} else {
			assert.Equal(t, models.SenderAI, m.Sender)
		}
	}
}

func TestConversationGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	bob := f.registerStudent(t, "Bob", "bob@x.com")
	admin := f.registerAdmin(t, "boss@x.com")

	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	_, err = f.conversation.CreateConversation(ctx, 999, "Help")
	requireInvalidArgument(t, err, "student not found")

	_, err = f.conversation.CreateConversation(ctx, admin.ID, "Help")
	requireInvalidArgument(t, err, "only STUDENT can use conversations")

	_, err = f.conversation.CreateConversation(ctx, ana.ID, "   ")
	requireInvalidArgument(t, err, "title required")

	_, err = f.conversation.ListMessages(ctx, bob.ID, thread.ID)
	requireInvalidArgument(t, err, "not your conversation")

	_, err = f.conversation.ListMessages(ctx, ana.ID, 12345)
	requireInvalidArgument(t, err, "conversation not found")

	_, err = f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, " ")
	requireInvalidArgument(t, err, "message required")

	_, err = f.conversation.SendStudentMessage(ctx, bob.ID, thread.ID, "hi")
	requireInvalidArgument(t, err, "not your conversation")
	assert.Empty(t, f.ai.questions)
}

func TestListConversationsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	bob := f.registerStudent(t, "Bob", "bob@x.com")

	first, err := f.conversation.CreateConversation(ctx, ana.ID, " First ")
	require.NoError(t, err)
	assert.Equal(t, "First", first.Title)
	second, err := f.conversation.CreateConversation(ctx, ana.ID, "Second")
	require.NoError(t, err)
	_, err = f.conversation.CreateConversation(ctx, bob.ID, "Bob's")
	require.NoError(t, err)

	threads, err := f.conversation.ListConversations(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID)
	assert.Equal(t, first.ID, threads[1].ID)
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	bob := f.registerStudent(t, "Bob", "bob@x.com")

	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)
	_, err = f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, "hello")
	require.NoError(t, err)

	err = f.conversation.DeleteConversation(ctx, bob.ID, thread.ID)
	requireInvalidArgument(t, err, "not your conversation")

	require.NoError(t, f.conversation.DeleteConversation(ctx, ana.ID, thread.ID))

	_, err = f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	requireInvalidArgument(t, err, "conversation not found")

	remaining, err := f.repos.ChatMessageRepo.ListByThreadID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

// failingThreadRepo fails every Delete
type failingThreadRepo struct {
	repositories.IConversationRepository
}

func (failingThreadRepo) Delete(context.Context, int64) error {
	return errors.New("disk full")
}

func TestDeleteConversationIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)
	_, err = f.conversation.SendStudentMessage(ctx, ana.ID, thread.ID, "hello")
	require.NoError(t, err)

	svc := NewConversationService(f.repos.Transactor, f.repos.UserRepository,
		failingThreadRepo{f.repos.ConversationRepo}, f.repos.ChatMessageRepo, f.ai, 0, zerolog.Nop())
	assert.EqualError(t, svc.DeleteConversation(ctx, ana.ID, thread.ID), "disk full")

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2, "messages must survive a failed thread delete")
}

// failingAIMessageRepo refuses to store AI messages
type failingAIMessageRepo struct {
	repositories.IChatMessageRepository
}

func (r failingAIMessageRepo) Create(ctx context.Context, m *models.ChatMessage) error {
	if m.Sender == models.SenderAI {
		return errors.New("insert failed")
	}
	return r.IChatMessageRepository.Create(ctx, m)
}

func TestSendStudentMessageIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	svc := NewConversationService(f.repos.Transactor, f.repos.UserRepository, f.repos.ConversationRepo,
		failingAIMessageRepo{f.repos.ChatMessageRepo}, f.ai, 0, zerolog.Nop())
	_, err = svc.SendStudentMessage(ctx, ana.ID, thread.ID, "hello")
	assert.EqualError(t, err, "insert failed")

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestAskAIRelay(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "Hi! How can I help?", f.conversation.AskAI(context.Background(), "hours?"))

	f.ai.err = errors.New("bad gateway")
	assert.Equal(t, "AI error: bad gateway", f.conversation.AskAI(context.Background(), "hours?"))
}

// heldAI blocks each call until release is closed
type heldAI struct {
	started chan struct{}
	release chan struct{}
}

func (a *heldAI) AskAIText(ctx context.Context, _ string) (string, error) {
	close(a.started)
	select {
	case <-a.release:
		return "answer", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestPendingAIReplyDoesNotBlockOtherRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	f.registerStudent(t, "Bob", "bob@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	ai := &heldAI{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewConversationService(f.repos.Transactor, f.repos.UserRepository, f.repos.ConversationRepo,
		f.repos.ChatMessageRepo, ai, time.Minute, zerolog.Nop())

	sent := make(chan error, 1)
	go func() {
		_, err := svc.SendStudentMessage(ctx, ana.ID, thread.ID, "hello")
		sent <- err
	}()
	<-ai.started

	authenticated := make(chan error, 1)
	go func() {
		_, err := f.auth.Authenticate(ctx, "bob@x.com", "pw")
		authenticated <- err
	}()

	select {
	case err := <-authenticated:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(ai.release)
		t.Fatal("Authenticate waited for the pending AI reply")
	}

	close(ai.release)
	require.NoError(t, <-sent)

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "answer", messages[1].Text)
}

func TestPostStudentMessageReturnsStoredPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	question, reply, err := f.conversation.PostStudentMessage(ctx, ana.ID, thread.ID, "  hello ")
	require.NoError(t, err)

	messages, err := f.conversation.ListMessages(ctx, ana.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0].ID, question.ID)
	assert.Equal(t, "hello", question.Text)
	assert.Equal(t, models.SenderStudent, question.Sender)
	assert.Equal(t, messages[1].ID, reply.ID)
	assert.Equal(t, models.SenderAI, reply.Sender)
	assert.NotZero(t, question.ID)
	assert.Less(t, question.ID, reply.ID)
}

func TestPostStudentMessageToThreadDeletedDuringAICall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	thread, err := f.conversation.CreateConversation(ctx, ana.ID, "Help")
	require.NoError(t, err)

	ai := &heldAI{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewConversationService(f.repos.Transactor, f.repos.UserRepository, f.repos.ConversationRepo,
		f.repos.ChatMessageRepo, ai, time.Minute, zerolog.Nop())

	sent := make(chan error, 1)
	go func() {
		_, _, err := svc.PostStudentMessage(ctx, ana.ID, thread.ID, "hello")
		sent <- err
	}()
	<-ai.started
	require.NoError(t, f.conversation.DeleteConversation(ctx, ana.ID, thread.ID))
	close(ai.release)

	requireInvalidArgument(t, <-sent, "conversation not found")
}
