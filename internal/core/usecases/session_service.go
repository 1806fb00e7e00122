package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
)

// SessionService owns the lifecycle of typed browser sessions.
type SessionService struct {
	store  ports.SessionStore
	tokens ports.TokenIssuer
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(store ports.SessionStore, tokens ports.TokenIssuer, ttl time.Duration) *SessionService {
	return &SessionService{store: store, tokens: tokens, ttl: ttl, now: time.Now}
}

// Create starts a session for an authenticated user and returns it with
// its signed token.
func (s *SessionService) Create(ctx context.Context, authorization string, user *domain.User) (*domain.Session, string, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		ID:            uuid.NewString(),
		Authorization: authorization,
		User:          user,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Save(ctx, sess, s.ttl); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}
	token, err := s.tokens.Issue(sess.ID)
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, "", err
	}
	return sess, token, nil
}

// Resolve maps a session token to its live session. A missing, forged or
// expired token, or a session that no longer exists, is ErrUnauthenticated.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	sess, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// Load fetches a session by id.
func (s *SessionService) Load(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.Get(ctx, id)
}

// Save persists sess and slides its expiry.
func (s *SessionService) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Destroy removes a session. Destroying an unknown session is not an error.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
