package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// AuthService handles registration, login, and bearer-token validation.
type AuthService struct {
	users  store.UserStore
	tokens store.TokenStore
}

// NewAuthService creates an AuthService.
func NewAuthService(users store.UserStore, tokens store.TokenStore) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// hashToken returns a hex-encoded SHA-256 hash of the raw token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Register creates a user account.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Validation(fmt.Sprintf("user with email %s already exists", email))
		}
		return nil, apperr.Internal("create user", err)
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token. The raw token is
// returned once; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperr.Authentication("invalid email or password")
		}
		return nil, "", apperr.Internal("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Authentication("invalid email or password")
	}

	raw := uuid.New().String()
	expires := time.Now().Add(defaultTokenTTL)
	token := &models.APIToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      "login",
		ExpiresAt: &expires,
		CreatedAt: time.Now(),
	}
	if err := s.tokens.CreateToken(ctx, token, hashToken(raw)); err != nil {
		return nil, "", apperr.Internal("create token", err)
	}
	return user, raw, nil
}

// ValidateToken resolves a raw bearer token to its user.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, apperr.Authentication("missing credential")
	}
	token, err := s.tokens.GetTokenByHash(ctx, hashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authentication("invalid credential")
		}
		return nil, apperr.Internal("load token", err)
	}
	if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
		return nil, apperr.Authentication("credential expired")
	}
	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authentication("invalid credential")
		}
		return nil, apperr.Internal("load user", err)
	}
	return user, nil
}
