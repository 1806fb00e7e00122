package postgres

import (
	"context"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// SettingsRepo implements ports.SettingsRepository. Both setting groups are
// stored as JSONB so new toggles need no migration.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context, userID int64) (*domain.Settings, error) {
	s := &domain.Settings{UserID: userID}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT notifications, preferences, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(&s.Notifications, &s.Preferences, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s *domain.Settings) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO user_settings (user_id, notifications, preferences, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
			SET notifications = EXCLUDED.notifications,
			    preferences = EXCLUDED.preferences,
			    updated_at = now()
		RETURNING updated_at
	`, s.UserID, s.Notifications, s.Preferences).Scan(&s.UpdatedAt)
}

func (r *SettingsRepo) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID)
	return err
}
