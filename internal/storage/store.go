package storage

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// AnswerRecord is the durable log entry written for every user turn. It is
// never mutated after creation.
type AnswerRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	QuestionText string    `json:"questionText"`
	AnswerText   string    `json:"answerText"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SummaryRecord holds the closing observation of one completed interview.
type SummaryRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	SummaryText string    `json:"summaryText"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is an account allowed to run interviews.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists interview records and user accounts. Answer and summary
// writes are best-effort from the interview service's perspective: callers
// log failures and keep the conversation going.
type Store interface {
	SaveAnswer(ctx context.Context, record AnswerRecord) error
	SaveSummary(ctx context.Context, record SummaryRecord) error
	FindUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, user User) error
}
