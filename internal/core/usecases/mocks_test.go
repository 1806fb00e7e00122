package usecases_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/ports"
	"github.com/cargoconnect/gateway/internal/core/usecases"
)

// --- Session store / tokens ---

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saves    int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]domain.Session)}
}

func (m *memSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSessionStore) Save(_ context.Context, s *domain.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	m.saves++
	return nil
}

func (m *memSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type plainTokens struct{}

func (plainTokens) Issue(id string) (string, error) { return "tok:" + id, nil }

func (plainTokens) Parse(tok string) (string, error) {
	if !strings.HasPrefix(tok, "tok:") {
		return "", domain.ErrUnauthenticated
	}
	return strings.TrimPrefix(tok, "tok:"), nil
}

func newSessions() (*usecases.SessionService, *memSessionStore) {
	store := newMemSessionStore()
	return usecases.NewSessionService(store, plainTokens{}, time.Hour), store
}

// signedIn stores and returns an authenticated session.
func signedIn(store *memSessionStore) *domain.Session {
	s := &domain.Session{
		ID:            "sess-1",
		Authorization: "Bearer abc",
		User:          &domain.User{ID: 7, FullName: "Ada Obi", Email: "ada@example.com", PhoneNumber: "+2348012345678"},
	}
	_ = store.Save(context.Background(), s, time.Hour)
	return s
}

// --- Backend ---

type mockBackend struct {
	registerFn       func(ctx context.Context, r domain.Registration) (*domain.User, error)
	loginFn          func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	currentUserFn    func(ctx context.Context, auth string) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, auth string, p domain.ProfileUpdate) (*domain.User, error)
	changePasswordFn func(ctx context.Context, auth string, p domain.PasswordChange) error
	deleteAccountFn  func(ctx context.Context, auth string) error
	createBookingFn  func(ctx context.Context, auth string, b *domain.Booking) (*domain.Booking, error)
	confirmFn        func(ctx context.Context, auth, id, method string) (*domain.Booking, error)
	cancelFn         func(ctx context.Context, auth, id string) error
	deliveriesFn     func(ctx context.Context, auth string) ([]domain.Delivery, error)
	shipmentFn       func(ctx context.Context, auth, id string) (*domain.Shipment, error)
	trackingFn       func(ctx context.Context, auth, id string) (*domain.Tracking, error)
}

var _ ports.Backend = (*mockBackend)(nil)

func (m *mockBackend) Register(ctx context.Context, r domain.Registration) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, r)
	}
	return &domain.User{ID: 1, FullName: r.FullName, Email: r.Email, PhoneNumber: r.PhoneNumber}, nil
}

func (m *mockBackend) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, domain.ErrUnauthenticated
}

func (m *mockBackend) CurrentUser(ctx context.Context, auth string) (*domain.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, auth)
	}
	return nil, domain.ErrUnauthenticated
}

func (m *mockBackend) UpdateProfile(ctx context.Context, auth string, p domain.ProfileUpdate) (*domain.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, auth, p)
	}
	return &domain.User{FullName: p.FullName, Email: p.Email, PhoneNumber: p.PhoneNumber, Address: p.Address}, nil
}

func (m *mockBackend) ChangePassword(ctx context.Context, auth string, p domain.PasswordChange) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, auth, p)
	}
	return nil
}

func (m *mockBackend) DeleteAccount(ctx context.Context, auth string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, auth)
	}
	return nil
}

func (m *mockBackend) CreateBooking(ctx context.Context, auth string, b *domain.Booking) (*domain.Booking, error) {
	if m.createBookingFn != nil {
		return m.createBookingFn(ctx, auth, b)
	}
	out := *b
	out.ID = "bk-1"
	out.Status = domain.StatusPending
	return &out, nil
}

func (m *mockBackend) ConfirmBooking(ctx context.Context, auth, id, method string) (*domain.Booking, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, auth, id, method)
	}
	return &domain.Booking{ID: id, PaymentMethod: method, Status: domain.StatusPending}, nil
}

func (m *mockBackend) CancelBooking(ctx context.Context, auth, id string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, auth, id)
	}
	return nil
}

func (m *mockBackend) ListDeliveries(ctx context.Context, auth string) ([]domain.Delivery, error) {
	if m.deliveriesFn != nil {
		return m.deliveriesFn(ctx, auth)
	}
	return nil, nil
}

func (m *mockBackend) GetShipment(ctx context.Context, auth, id string) (*domain.Shipment, error) {
	if m.shipmentFn != nil {
		return m.shipmentFn(ctx, auth, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockBackend) GetTracking(ctx context.Context, auth, id string) (*domain.Tracking, error) {
	if m.trackingFn != nil {
		return m.trackingFn(ctx, auth, id)
	}
	return nil, domain.ErrNotFound
}

// --- Events ---

type recordingPublisher struct {
	mu       sync.Mutex
	bookings []domain.Booking
	updates  []domain.TrackingUpdate
	tickets  []domain.SupportTicket
	err      error
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, b *domain.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, *b)
	return p.err
}

func (p *recordingPublisher) PublishTrackingUpdate(_ context.Context, u *domain.TrackingUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, *u)
	return p.err
}

func (p *recordingPublisher) PublishSupportTicket(_ context.Context, t *domain.SupportTicket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tickets = append(p.tickets, *t)
	return p.err
}

// --- Cache ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Repositories ---

type mockBookingRepo struct {
	recordFn func(ctx context.Context, b *domain.Booking) error
	recorded []domain.Booking
	statuses map[string]string
}

func (m *mockBookingRepo) Record(ctx context.Context, b *domain.Booking) error {
	if m.recordFn != nil {
		if err := m.recordFn(ctx, b); err != nil {
			return err
		}
	}
	m.recorded = append(m.recorded, *b)
	return nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id, status string) error {
	if m.statuses == nil {
		m.statuses = make(map[string]string)
	}
	m.statuses[id] = status
	return nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.recorded {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockSettingsRepo struct {
	settings map[int64]domain.Settings
	deleted  []int64
}

func (m *mockSettingsRepo) Get(_ context.Context, userID int64) (*domain.Settings, error) {
	s, ok := m.settings[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockSettingsRepo) Upsert(_ context.Context, s *domain.Settings) error {
	if m.settings == nil {
		m.settings = make(map[int64]domain.Settings)
	}
	m.settings[s.UserID] = *s
	return nil
}

func (m *mockSettingsRepo) Delete(_ context.Context, userID int64) error {
	delete(m.settings, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

type mockTicketRepo struct {
	created []domain.SupportTicket
	err     error
}

func (m *mockTicketRepo) Create(_ context.Context, t *domain.SupportTicket) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *t)
	return nil
}
