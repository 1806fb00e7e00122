package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

// AuthService handles sign-up, sign-in and the current-user lookup.
type AuthService struct {
	backend  ports.Backend
	sessions *SessionService
	settings ports.SettingsRepository
}

// NewAuthService creates a new AuthService. settings may be nil.
func NewAuthService(backend ports.Backend, sessions *SessionService, settings ports.SettingsRepository) *AuthService {
	return &AuthService{backend: backend, sessions: sessions, settings: settings}
}

// Register validates the form and creates the account upstream.
func (s *AuthService) Register(ctx context.Context, r domain.Registration) (*domain.User, error) {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if err := r.Validate(); err != nil {
		return nil, err
	}

	user, err := s.backend.Register(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if s.settings != nil {
		defaults := domain.DefaultSettings(user.ID)
		if err := s.settings.Upsert(ctx, &defaults); err != nil {
			logging.FromContext(ctx).Warn("seed default settings failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// Login exchanges credentials for a backend token and opens a session.
// It returns the session and the signed token the client presents.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, string, error) {
	email = strings.TrimSpace(email)
	v := &domain.ValidationError{}
	if email == "" {
		v.Add("email", "email is required")
	}
	if password == "" {
		v.Add("password", "password is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, "", err
	}

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	if res.AccessToken == "" {
		return nil, "", fmt.Errorf("login: %w: empty access token", domain.ErrUnauthenticated)
	}

	tokenType := res.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	user := res.User
	sess, token, err := s.sessions.Create(ctx, tokenType+" "+res.AccessToken, &user)
	if err != nil {
		return nil, "", err
	}
	logging.FromContext(ctx).Info("user logged in", "user_id", user.ID, "session", sess.ID)
	return sess, token, nil
}

// Logout ends a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// CurrentUser refreshes the signed-in user from the backend. A rejected
// credential ends the session.
func (s *AuthService) CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.backend.CurrentUser(ctx, sess.Authorization)
	if errors.Is(err, domain.ErrUnauthenticated) {
		if derr := s.sessions.Destroy(ctx, sess.ID); derr != nil {
			logging.FromContext(ctx).Warn("clear rejected session", "session", sess.ID, "error", derr)
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	sess.User = user
	if err := s.sessions.Save(ctx, sess); err != nil {
		logging.FromContext(ctx).Warn("refresh session user", "session", sess.ID, "error", err)
	}
	return user, nil
}
