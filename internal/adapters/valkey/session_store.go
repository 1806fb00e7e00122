package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
)

const sessionKeyPrefix = "session:"

// SessionStore implements ports.SessionStore on top of a byte cache.
type SessionStore struct {
	kv ports.CacheService
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(kv ports.CacheService) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.kv.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Save writes the session and resets its expiry to ttl.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	secs := int(ttl / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return s.kv.Set(ctx, sessionKeyPrefix+sess.ID, data, secs)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, sessionKeyPrefix+id)
}
