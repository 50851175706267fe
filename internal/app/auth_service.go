package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService manages accounts and bearer tokens.
type AuthService struct {
	users   UserStore
	tokens  *auth.Tokens
	revoked RevocationStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(users UserStore, tokens *auth.Tokens, revoked RevocationStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, revoked: revoked, logger: logger, now: time.Now}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if _, err := s.users.UserByEmail(ctx, email); err == nil {
		return Session{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user", user.ID)
	return s.issue(user)
}

// Login checks credentials and records the login time. Unknown emails and
// wrong passwords both report domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("record last login failed", "user", user.ID, "err", err)
	} else {
		user.LastLogin = &now
	}
	return s.issue(user)
}

func (s *AuthService) issue(user domain.User) (Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

// Authenticate resolves a raw bearer token to the caller, rejecting revoked tokens.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (domain.Identity, error) {
	id, err := s.tokens.Parse(raw)
	if err != nil {
		return domain.Identity{}, err
	}
	if s.revoked != nil && id.TokenID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return domain.Identity{}, fmt.Errorf("token revoked: %w", domain.ErrAuthInvalid)
		}
	}
	return id, nil
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.UserByID(ctx, userID)
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, id domain.Identity) error {
	if s.revoked == nil || id.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
