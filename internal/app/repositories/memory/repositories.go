package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

// UserRepository is the in-memory IUserRepository
type UserRepository struct {
	store *Store
}

// Create inserts the user, rejecting duplicate emails
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.store.lock(ctx)()

	for _, existing := range r.store.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("user %s: %w", user.Email, apperrors.ErrResourceAlreadyExists)
		}
	}

	r.store.data.lastUserID++
	user.ID = r.store.data.lastUserID
	user.CreatedAt = r.store.now()
	r.store.data.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.store.lock(ctx)()

	user, ok := r.store.data.users[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("user with id %d not found", id))
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.store.lock(ctx)()

	if user, ok := r.findByEmail(email); ok {
		return &user, nil
	}
	return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("user with email %s not found", email))
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	defer r.store.lock(ctx)()

	_, ok := r.findByEmail(email)
	return ok, nil
}

func (r *UserRepository) findByEmail(email string) (models.User, bool) {
	for _, user := range r.store.data.users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return models.User{}, false
}

// StudentProfileRepository is the in-memory IStudentProfileRepository
type StudentProfileRepository struct {
	store *Store
}

// Create inserts a student profile
func (r *StudentProfileRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.data.users[profile.UserID]; !ok {
		return fmt.Errorf("student profile references unknown user %d", profile.UserID)
	}

	r.store.data.lastProfileID++
	profile.ID = r.store.data.lastProfileID
	stored := *profile
	stored.User = nil
	r.store.data.profiles[profile.ID] = stored
	return nil
}

// GetByUserID retrieves the profile belonging to a user
func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	defer r.store.lock(ctx)()

	for _, profile := range r.store.data.profiles {
		if profile.UserID == userID {
			return &profile, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("student profile for user %d not found", userID))
}

// ConversationRepository is the in-memory IConversationRepository
type ConversationRepository struct {
	store *Store
}

// Create inserts a new thread
func (r *ConversationRepository) Create(ctx context.Context, thread *models.ConversationThread) error {
	defer r.store.lock(ctx)()

	r.store.data.lastThreadID++
	thread.ID = r.store.data.lastThreadID
	thread.CreatedAt = r.store.now()
	r.store.data.threads[thread.ID] = *thread
	return nil
}

// GetByID retrieves a thread by its ID
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.ConversationThread, error) {
	defer r.store.lock(ctx)()

	thread, ok := r.store.data.threads[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("conversation thread %d not found", id))
	}
	return &thread, nil
}

// ListByStudentID retrieves a student's threads, newest first
func (r *ConversationRepository) ListByStudentID(ctx context.Context, studentID int64) ([]*models.ConversationThread, error) {
	defer r.store.lock(ctx)()

	threads := make([]*models.ConversationThread, 0)
	for _, thread := range r.store.data.threads {
		if thread.StudentID == studentID {
			t := thread
			threads = append(threads, &t)
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		if !threads[i].CreatedAt.Equal(threads[j].CreatedAt) {
			return threads[i].CreatedAt.After(threads[j].CreatedAt)
		}
		return threads[i].ID > threads[j].ID
	})
	return threads, nil
}

// Delete removes a thread. Messages still pointing at it make the delete fail.
func (r *ConversationRepository) Delete(ctx context.Context, id int64) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.data.threads[id]; !ok {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("conversation thread %d not found", id))
	}
	for _, message := range r.store.data.messages {
		if message.ThreadID == id {
			return fmt.Errorf("conversation thread %d still has messages", id)
		}
	}
	delete(r.store.data.threads, id)
	return nil
}

// ChatMessageRepository is the in-memory IChatMessageRepository
type ChatMessageRepository struct {
	store *Store
}

// Create inserts a new chat message
func (r *ChatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.data.threads[message.ThreadID]; !ok {
		return fmt.Errorf("chat message references unknown thread %d", message.ThreadID)
	}

	r.store.data.lastMessageID++
	message.ID = r.store.data.lastMessageID
	message.CreatedAt = r.store.now()
	r.store.data.messages[message.ID] = *message
	return nil
}

// ListByThreadID retrieves the messages of a thread in chronological order
func (r *ChatMessageRepository) ListByThreadID(ctx context.Context, threadID int64) ([]*models.ChatMessage, error) {
	defer r.store.lock(ctx)()

	messages := make([]*models.ChatMessage, 0)
	for _, message := range r.store.data.messages {
		if message.ThreadID == threadID {
			m := message
			messages = append(messages, &m)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}

// DeleteByThreadID removes every message of a thread and returns the count
func (r *ChatMessageRepository) DeleteByThreadID(ctx context.Context, threadID int64) (int64, error) {
	defer r.store.lock(ctx)()

	var deleted int64
	for id, message := range r.store.data.messages {
		if message.ThreadID == threadID {
			delete(r.store.data.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

// RequestRepository is the in-memory IRequestRepository
type RequestRepository struct {
	store *Store
}

// Save inserts a new request or updates an existing one
func (r *RequestRepository) Save(ctx context.Context, request *models.Request) error {
	defer r.store.lock(ctx)()

	now := r.store.now()
	if request.ID == 0 {
		r.store.data.lastRequestID++
		request.ID = r.store.data.lastRequestID
		request.CreatedAt = now
	} else {
		existing, ok := r.store.data.requests[request.ID]
		if !ok {
			return apperrors.NewResourceNotFoundError(fmt.Sprintf("request %d not found", request.ID))
		}
		request.CreatedAt = existing.CreatedAt
	}
	request.UpdatedAt = now
	r.store.data.requests[request.ID] = cloneRequest(*request)
	return nil
}

// GetByID retrieves a request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	defer r.store.lock(ctx)()

	request, ok := r.store.data.requests[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("request %d not found", id))
	}
	out := cloneRequest(request)
	return &out, nil
}

// ListAll retrieves every request, newest id first
func (r *RequestRepository) ListAll(ctx context.Context) ([]*models.Request, error) {
	return r.list(ctx, func(models.Request) bool { return true })
}

// ListByStudentID retrieves a student's requests, newest id first
func (r *RequestRepository) ListByStudentID(ctx context.Context, studentID int64) ([]*models.Request, error) {
	return r.list(ctx, func(req models.Request) bool { return req.StudentID == studentID })
}

func (r *RequestRepository) list(ctx context.Context, keep func(models.Request) bool) ([]*models.Request, error) {
	defer r.store.lock(ctx)()

	requests := make([]*models.Request, 0)
	for _, request := range r.store.data.requests {
		if keep(request) {
			out := cloneRequest(request)
			requests = append(requests, &out)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}
