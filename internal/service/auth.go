package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/repository"
)

// AuthService owns registration, login, and session resolution. The
// reconciliation core only ever sees the resolved user it produces.
type AuthService struct {
	store repository.Store
}

func NewAuthService(store repository.Store) *AuthService {
	return &AuthService{store: store}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidPassword
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidPassword
	}

	session := &domain.Session{
		Token:     uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(config.SessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return session, user, nil
}

// RequestPasswordReset issues a fresh single-use reset token for the account,
// replacing any earlier ones. An unknown email returns nil, nil so the
// endpoint can answer identically either way and cannot be used to probe for
// registered addresses.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.store.DeletePasswordResets(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("invalidate old resets: %w", err)
	}

	reset := &domain.PasswordReset{
		Token:     uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(config.PasswordResetTTL),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreatePasswordReset(ctx, reset); err != nil {
		return nil, nil, fmt.Errorf("create password reset: %w", err)
	}
	return reset, user, nil
}

// ConfirmPasswordReset redeems a token and sets the new password. The token
// and any siblings for the same user are invalidated whether it was expired
// or redeemed.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return domain.ErrResetTokenInvalid
	}

	reset, err := s.store.GetPasswordReset(ctx, parsed)
	if err != nil {
		return err
	}
	if reset.Expired() {
		_ = s.store.DeletePasswordResets(ctx, reset.UserID)
		return domain.ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.PasswordHashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, reset.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.store.DeletePasswordResets(ctx, reset.UserID); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}

// ResolveSession maps a bearer token to its user. Expired sessions are
// removed on sight.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.store.GetSession(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if session.Expired() {
		_ = s.store.DeleteSession(ctx, session.Token)
		return nil, domain.ErrSessionExpired
	}
	return s.store.GetUserByID(ctx, session.UserID)
}
