// Package memory provides process-local implementations of the repository
// interfaces. It backs the "memory" database driver and the handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
)

type txKey struct{}

// Store holds every table behind a single mutex
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	data tables
}

type tables struct {
	users    map[int64]models.User
	profiles map[int64]models.StudentProfile
	threads  map[int64]models.ConversationThread
	messages map[int64]models.ChatMessage
	requests map[int64]models.Request

	lastUserID    int64
	lastProfileID int64
	lastThreadID  int64
	lastMessageID int64
	lastRequestID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now: time.Now,
		data: tables{
			users:    make(map[int64]models.User),
			profiles: make(map[int64]models.StudentProfile),
			threads:  make(map[int64]models.ConversationThread),
			messages: make(map[int64]models.ChatMessage),
			requests: make(map[int64]models.Request),
		},
	}
}

// NewRepositories wires a fresh store into the repository set
func NewRepositories() *repositories.Repositories {
	store := NewStore()
	return &repositories.Repositories{
		Transactor:        store,
		UserRepository:    &UserRepository{store: store},
		StudentRepository: &StudentProfileRepository{store: store},
		ConversationRepo:  &ConversationRepository{store: store},
		ChatMessageRepo:   &ChatMessageRepository{store: store},
		RequestRepository: &RequestRepository{store: store},
	}
}

// WithinTransaction holds the store lock for the duration of fn. Changes made
// by fn are discarded when it returns an error or panics.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			s.data = snapshot
			panic(r)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock acquires the mutex unless ctx already runs inside this store's
// transaction, and returns the matching release func.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (t tables) clone() tables {
	out := t
	out.users = cloneMap(t.users)
	out.profiles = cloneMap(t.profiles)
	out.threads = cloneMap(t.threads)
	out.messages = cloneMap(t.messages)
	out.requests = cloneMap(t.requests)
	return out
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneRequest(r models.Request) models.Request {
	r.AdminResponse = clonePtr(r.AdminResponse)
	r.AttachmentName = clonePtr(r.AttachmentName)
	r.AttachmentPath = clonePtr(r.AttachmentPath)
	r.AttachmentType = clonePtr(r.AttachmentType)
	r.AttachmentSize = clonePtr(r.AttachmentSize)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
