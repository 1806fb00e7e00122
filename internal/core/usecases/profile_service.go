package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

var (
	themes     = []string{"Light", "Dark", "System"}
	currencies = []string{"NGN", "USD", "GBP", "EUR"}
	payments   = []string{"Card", "Cash", "Transfer"}
)

// ProfileService manages the account, local settings and support requests.
type ProfileService struct {
	backend  ports.Backend
	auth     *AuthService
	sessions *SessionService
	settings ports.SettingsRepository
	tickets  ports.SupportTicketRepository
	events   ports.EventPublisher
	now      func() time.Time
}

// NewProfileService creates a new ProfileService. events may be nil.
func NewProfileService(
	backend ports.Backend,
	auth *AuthService,
	sessions *SessionService,
	settings ports.SettingsRepository,
	tickets ports.SupportTicketRepository,
	events ports.EventPublisher,
) *ProfileService {
	return &ProfileService{
		backend:  backend,
		auth:     auth,
		sessions: sessions,
		settings: settings,
		tickets:  tickets,
		events:   events,
		now:      time.Now,
	}
}

// Profile returns the current account with its settings.
func (s *ProfileService) Profile(ctx context.Context, sess *domain.Session) (*domain.Profile, error) {
	user, err := s.auth.CurrentUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	st, err := s.loadSettings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: *user, Settings: *st}, nil
}

// UpdateProfile saves name, email, phone and address upstream.
func (s *ProfileService) UpdateProfile(ctx context.Context, sess *domain.Session, p domain.ProfileUpdate) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.Address = strings.TrimSpace(p.Address)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	user, err := s.backend.UpdateProfile(ctx, sess.Authorization, p)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if user.ID == 0 {
		user.ID = sess.User.ID
	}
	sess.User = user
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword changes the account password upstream.
func (s *ProfileService) ChangePassword(ctx context.Context, sess *domain.Session, p domain.PasswordChange) error {
	if !sess.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.backend.ChangePassword(ctx, sess.Authorization, p); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	logging.FromContext(ctx).Info("password changed", "user_id", sess.User.ID)
	return nil
}

// DeleteAccount deletes the account upstream, drops local settings and
// ends the session.
func (s *ProfileService) DeleteAccount(ctx context.Context, sess *domain.Session) error {
	if !sess.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if err := s.backend.DeleteAccount(ctx, sess.Authorization); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	log := logging.FromContext(ctx)
	if err := s.settings.Delete(ctx, sess.User.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn("delete local settings failed", "user_id", sess.User.ID, "error", err)
	}
	if err := s.sessions.Destroy(ctx, sess.ID); err != nil {
		log.Warn("clear session failed", "session", sess.ID, "error", err)
	}
	log.Info("account deleted", "user_id", sess.User.ID)
	return nil
}

// Settings returns the stored settings, or the defaults for a user who
// never changed any.
func (s *ProfileService) Settings(ctx context.Context, sess *domain.Session) (*domain.Settings, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.loadSettings(ctx, sess.User.ID)
}

// UpdateNotifications replaces the notification toggles.
func (s *ProfileService) UpdateNotifications(ctx context.Context, sess *domain.Session, n domain.NotificationSettings) (*domain.Settings, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	st, err := s.loadSettings(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	st.Notifications = n
	return s.saveSettings(ctx, st)
}

// UpdatePreferences replaces display and payment preferences. Empty fields
// keep their current value, except that without a theme the dark-mode
// toggle decides between Dark and the non-dark current theme.
func (s *ProfileService) UpdatePreferences(ctx context.Context, sess *domain.Session, p domain.Preferences) (*domain.Settings, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	st, err := s.loadSettings(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}

	cur := st.Preferences
	if p.Language == "" {
		p.Language = cur.Language
	}
	if p.Currency == "" {
		p.Currency = cur.Currency
	}
	if p.Theme == "" {
		switch {
		case p.DarkMode:
			p.Theme = "Dark"
		case cur.Theme == "Dark":
			p.Theme = "Light"
		default:
			p.Theme = cur.Theme
		}
	}
	if p.DefaultPayment == "" {
		p.DefaultPayment = cur.DefaultPayment
	}
	if err := validatePreferences(p); err != nil {
		return nil, err
	}
	p.DarkMode = p.Theme == "Dark"

	st.Preferences = p
	return s.saveSettings(ctx, st)
}

// ContactSupport files a support ticket and announces it.
func (s *ProfileService) ContactSupport(ctx context.Context, sess *domain.Session, message string) (*domain.SupportTicket, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if err := domain.ValidateSupportMessage(message); err != nil {
		return nil, err
	}

	t := &domain.SupportTicket{
		ID:        uuid.NewString(),
		UserID:    sess.User.ID,
		Email:     sess.User.Email,
		Message:   strings.TrimSpace(message),
		CreatedAt: s.now().UTC(),
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create support ticket: %w", err)
	}
	if s.events != nil {
		if err := s.events.PublishSupportTicket(ctx, t); err != nil {
			logging.FromContext(ctx).Warn("publish support ticket failed", "ticket_id", t.ID, "error", err)
		}
	}
	return t, nil
}

func (s *ProfileService) loadSettings(ctx context.Context, userID int64) (*domain.Settings, error) {
	st, err := s.settings.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		d := domain.DefaultSettings(userID)
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

func (s *ProfileService) saveSettings(ctx context.Context, st *domain.Settings) (*domain.Settings, error) {
	st.UpdatedAt = s.now().UTC()
	if err := s.settings.Upsert(ctx, st); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return st, nil
}

func validatePreferences(p domain.Preferences) error {
	v := &domain.ValidationError{}
	if !oneOf(p.Theme, themes) {
		v.Add("theme", "theme must be one of "+strings.Join(themes, ", "))
	}
	if !oneOf(p.Currency, currencies) {
		v.Add("currency", "currency must be one of "+strings.Join(currencies, ", "))
	}
	if !oneOf(p.DefaultPayment, payments) {
		v.Add("default_payment", "default payment must be one of "+strings.Join(payments, ", "))
	}
	if strings.TrimSpace(p.Language) == "" {
		v.Add("language", "language is required")
	}
	return v.OrNil()
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
