package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. It backs development setups
// and tests when no DATABASE_URL is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	answers   []AnswerRecord
	summaries []SummaryRecord
	users     map[string]User
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// SaveAnswer appends an answer record.
func (s *MemoryStore) SaveAnswer(_ context.Context, record AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.answers = append(s.answers, record)
	return nil
}

// SaveSummary appends a summary record.
func (s *MemoryStore) SaveSummary(_ context.Context, record SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.summaries = append(s.summaries, record)
	return nil
}

// FindUserByUsername looks up a user account.
func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// CreateUser registers a user account.
func (s *MemoryStore) CreateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.Username] = user
	return nil
}

// Answers returns a copy of the recorded answers, for tests and inspection.
func (s *MemoryStore) Answers() []AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]AnswerRecord, len(s.answers))
	copy(copied, s.answers)
	return copied
}

// Summaries returns a copy of the recorded summaries.
func (s *MemoryStore) Summaries() []SummaryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]SummaryRecord, len(s.summaries))
	copy(copied, s.summaries)
	return copied
}
