package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records in the relational database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pgx pool to the given database URL and makes
// sure the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: connect failed: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email TEXT,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			question_text TEXT NOT NULL,
			answer_text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS test_results (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			result_summary TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: ensure schema failed: %w", err)
		}
	}
	return nil
}

// SaveAnswer inserts one answer row.
func (s *PostgresStore) SaveAnswer(ctx context.Context, record AnswerRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `
		INSERT INTO answers (id, user_id, question_text, answer_text)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, query, record.ID, record.UserID, record.QuestionText, record.AnswerText); err != nil {
		return fmt.Errorf("storage: insert answer failed: %w", err)
	}
	return nil
}

// SaveSummary inserts one summary row.
func (s *PostgresStore) SaveSummary(ctx context.Context, record SummaryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `
		INSERT INTO test_results (id, user_id, result_summary)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, query, record.ID, record.UserID, record.SummaryText); err != nil {
		return fmt.Errorf("storage: insert summary failed: %w", err)
	}
	return nil
}

// FindUserByUsername fetches an account by username.
func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(email, ''), role, created_at
		FROM users
		WHERE username = $1
	`
	var user User
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Role,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("storage: select user failed: %w", err)
	}
	user.CreatedAt = createdAt
	return user, nil
}

// CreateUser inserts an account row.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	query := `
		INSERT INTO users (id, username, password_hash, email, role)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.Email, user.Role); err != nil {
		return fmt.Errorf("storage: insert user failed: %w", err)
	}
	return nil
}
