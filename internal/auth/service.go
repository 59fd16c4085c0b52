package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/anamnezgpt/backend/internal/config"
	"github.com/anamnezgpt/backend/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Service authenticates users and issues HMAC-signed session tokens.
type Service struct {
	store  storage.Store
	secret []byte
	ttl    time.Duration
}

// NewService wires the user store and token settings.
func NewService(store storage.Store, cfg config.AuthConfig) *Service {
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Login verifies the password and returns a signed token on success.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: user lookup failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *Service) issueToken(user storage.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: token signing failed: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns the user ID it carries.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// SeedDefaultUser provisions the development account when it is missing.
func (s *Service) SeedDefaultUser(ctx context.Context) error {
	if _, err := s.store.FindUserByUsername(ctx, "test"); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("auth: seed lookup failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("test123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: seed hash failed: %w", err)
	}

	if err := s.store.CreateUser(ctx, storage.User{
		Username:     "test",
		PasswordHash: string(hash),
		Role:         "user",
	}); err != nil {
		return fmt.Errorf("auth: seed insert failed: %w", err)
	}

	log.Println("[auth] seeded default user (username: test)")
	return nil
}
