package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/cargoconnect/gateway/internal/adapters/http"
	"github.com/cargoconnect/gateway/internal/adapters/valkey"
	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/core/usecases"
	"github.com/cargoconnect/gateway/internal/pkg/auth"
	"github.com/cargoconnect/gateway/internal/pkg/geospatial"
)

const testCookie = "cc_session"

// ---- Mocks ----

type mockBackend struct {
	loginFn       func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	currentUserFn func(ctx context.Context, auth string) (*domain.User, error)
	deliveriesFn  func(ctx context.Context, auth string) ([]domain.Delivery, error)
	trackingFn    func(ctx context.Context, auth, id string) (*domain.Tracking, error)
	shipmentFn    func(ctx context.Context, auth, id string) (*domain.Shipment, error)
}

func (m *mockBackend) Register(ctx context.Context, r domain.Registration) (*domain.User, error) {
	return &domain.User{ID: 11, FullName: r.FullName, Email: r.Email, PhoneNumber: r.PhoneNumber}, nil
}
func (m *mockBackend) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, &domain.BackendError{Status: 401, Message: "Incorrect email or password"}
}
func (m *mockBackend) CurrentUser(ctx context.Context, auth string) (*domain.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, auth)
	}
	return &domain.User{ID: 7, FullName: "Ada Obi", Email: "ada@example.com"}, nil
}
func (m *mockBackend) UpdateProfile(ctx context.Context, auth string, p domain.ProfileUpdate) (*domain.User, error) {
	return &domain.User{ID: 7, FullName: p.FullName, Email: p.Email}, nil
}
func (m *mockBackend) ChangePassword(ctx context.Context, auth string, p domain.PasswordChange) error {
	return nil
}
func (m *mockBackend) DeleteAccount(ctx context.Context, auth string) error { return nil }
func (m *mockBackend) CreateBooking(ctx context.Context, auth string, b *domain.Booking) (*domain.Booking, error) {
	out := *b
	out.ID = "bk-42"
	return &out, nil
}
func (m *mockBackend) ConfirmBooking(ctx context.Context, auth, id, method string) (*domain.Booking, error) {
	return &domain.Booking{ID: id, PaymentMethod: method, Status: domain.StatusPending}, nil
}
func (m *mockBackend) CancelBooking(ctx context.Context, auth, id string) error { return nil }
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
	return nil, &domain.BackendError{Status: 404, Message: "Delivery not found"}
}
func (m *mockBackend) GetTracking(ctx context.Context, auth, id string) (*domain.Tracking, error) {
	if m.trackingFn != nil {
		return m.trackingFn(ctx, auth, id)
	}
	return nil, domain.ErrNotFound
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}
func (m *memKV) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type memSettings struct {
	mu   sync.Mutex
	rows map[int64]domain.Settings
}

func (m *memSettings) Get(_ context.Context, userID int64) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
func (m *memSettings) Upsert(_ context.Context, s *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.UserID] = *s
	return nil
}
func (m *memSettings) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

type memTickets struct{ created []domain.SupportTicket }

func (m *memTickets) Create(_ context.Context, t *domain.SupportTicket) error {
	m.created = append(m.created, *t)
	return nil
}

type memEvents struct {
	mu      sync.Mutex
	updates []domain.TrackingUpdate
}

func (m *memEvents) PublishBookingCreated(context.Context, *domain.Booking) error { return nil }
func (m *memEvents) PublishTrackingUpdate(_ context.Context, u *domain.TrackingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, *u)
	return nil
}
func (m *memEvents) PublishSupportTicket(context.Context, *domain.SupportTicket) error { return nil }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

// ---- Test helpers ----

type testEnv struct {
	app     *fiber.App
	deps    *handler.Dependencies
	backend *mockBackend
	kv      *memKV
	tickets *memTickets
	events  *memEvents
}

func newEnv(t *testing.T, opts ...func(*handler.Dependencies)) *testEnv {
	t.Helper()
	backend := &mockBackend{}
	kv := &memKV{data: map[string][]byte{}}
	settings := &memSettings{rows: map[int64]domain.Settings{}}
	tickets := &memTickets{}
	events := &memEvents{}

	tokens := auth.NewTokenService(strings.Repeat("k", 32), time.Hour)
	sessions := usecases.NewSessionService(valkey.NewSessionStore(kv), tokens, time.Hour)
	overlay := usecases.NewOverlayService(sessions, domain.MapStyle{URL: "mapbox://styles/mapbox/streets-v12"})
	authSvc := usecases.NewAuthService(backend, sessions, settings)

	deps := &handler.Dependencies{
		Sessions:   sessions,
		Overlay:    overlay,
		Auth:       authSvc,
		Bookings:   usecases.NewBookingService(backend, sessions, overlay, nil, nil, nil),
		Deliveries: usecases.NewDeliveryService(backend, overlay, kv, events),
		Profile:    usecases.NewProfileService(backend, authSvc, sessions, settings, tickets, nil),
		Cookie:     handler.SessionCookie{Name: testCookie, TTL: time.Hour},
	}
	for _, o := range opts {
		o(deps)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return &testEnv{app: app, deps: deps, backend: backend, kv: kv, tickets: tickets, events: events}
}

// login opens a session directly and returns its bearer token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	return e.loginAs(t, "Bearer backend-abc", &domain.User{ID: 7, FullName: "Ada Obi", Email: "ada@example.com", PhoneNumber: "+2348012345678"})
}

// loginAs opens a session holding the given backend credential.
func (e *testEnv) loginAs(t *testing.T, authorization string, user *domain.User) string {
	t.Helper()
	_, token, err := e.deps.Sessions.Create(context.Background(), authorization, user)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

type apiError struct {
	Status int               `json:"status"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

// ---- Operational ----

func TestHealth(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/health", "", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady(t *testing.T) {
	env := newEnv(t)
	if resp := env.do(t, "GET", "/v1/ready", "", nil); resp.StatusCode != 503 {
		t.Fatalf("expected 503 without dependencies, got %d", resp.StatusCode)
	}

	env = newEnv(t, func(d *handler.Dependencies) {
		d.DB = pinger{}
		d.Cache = pinger{}
	})
	if resp := env.do(t, "GET", "/v1/ready", "", nil); resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env = newEnv(t, func(d *handler.Dependencies) {
		d.DB = pinger{err: errors.New("connection refused")}
		d.Cache = pinger{}
	})
	resp := env.do(t, "GET", "/v1/ready", "", nil)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	if resp.StatusCode != 503 || !strings.HasPrefix(body.Checks["database"], "error") {
		t.Fatalf("expected database failure, got %d %v", resp.StatusCode, body.Checks)
	}
}

// ---- Catalog ----

func TestListVehicles(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/vehicles", "", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
	var vehicles []domain.Vehicle
	decode(t, resp, &vehicles)
	if len(vehicles) != 3 {
		t.Errorf("expected 3 vehicles, got %d", len(vehicles))
	}
}

func TestGetVehicle_Unknown(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/vehicles/helicopter", "", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var e apiError
	decode(t, resp, &e)
	if e.Code != "not_found" {
		t.Errorf("expected not_found, got %s", e.Code)
	}
}

func TestETag_NotModified(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/package-types", "", nil)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/package-types", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Auth ----

func TestLogin_SetsSessionCookie(t *testing.T) {
	env := newEnv(t)
	env.backend.loginFn = func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
		if email != "ada@example.com" || password != "s3cret-pass" {
			t.Errorf("unexpected credentials %q %q", email, password)
		}
		return &domain.LoginResult{AccessToken: "abc", TokenType: "bearer", User: domain.User{ID: 7, FullName: "Ada Obi"}}, nil
	}

	resp := env.do(t, "POST", "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "s3cret-pass"})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(cookie, testCookie+"=") || !strings.Contains(strings.ToLower(cookie), "httponly") {
		t.Errorf("expected HttpOnly session cookie, got %q", cookie)
	}

	var body struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	decode(t, resp, &body)
	if body.Token == "" || body.User.ID != 7 {
		t.Fatalf("unexpected login body %+v", body)
	}

	// The token opens the session.
	me := env.do(t, "GET", "/v1/auth/me", body.Token, nil)
	if me.StatusCode != 200 {
		t.Fatalf("expected 200 from /auth/me, got %d", me.StatusCode)
	}
}

func TestLogin_BackendRejects(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogin_Validation(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/auth/login", "", map[string]string{"email": ""})
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var e apiError
	decode(t, resp, &e)
	if e.Code != "validation_failed" || e.Fields["email"] == "" || e.Fields["password"] == "" {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestRegister(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/auth/register", "", domain.Registration{
		FullName: "Ada Obi", Email: "ada@example.com", PhoneNumber: "08012345678", Password: "s3cret-pass",
	})
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

func TestRequireSession(t *testing.T) {
	env := newEnv(t)
	for _, token := range []string{"", "forged.token.value"} {
		resp := env.do(t, "GET", "/v1/auth/me", token, nil)
		if resp.StatusCode != 401 {
			t.Errorf("token %q: expected 401, got %d", token, resp.StatusCode)
		}
	}
}

func TestMe_BackendRejectionEndsSession(t *testing.T) {
	env := newEnv(t)
	env.backend.currentUserFn = func(ctx context.Context, auth string) (*domain.User, error) {
		return nil, &domain.BackendError{Status: 401, Message: "Not authenticated"}
	}
	token := env.login(t)

	if resp := env.do(t, "GET", "/v1/auth/me", token, nil); resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp := env.do(t, "GET", "/v1/bookings/summary", token, nil); resp.StatusCode != 401 {
		t.Errorf("expected the session to be gone, got %d", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)
	if resp := env.do(t, "POST", "/v1/auth/logout", token, nil); resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp := env.do(t, "GET", "/v1/auth/me", token, nil); resp.StatusCode != 401 {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

// ---- Booking ----

func TestBookingFlow(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)

	resp := env.do(t, "POST", "/v1/bookings/start", token, map[string]string{"vehicle_type": "car"})
	if resp.StatusCode != 200 {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	var start domain.BookingStart
	decode(t, resp, &start)
	if start.Vehicle.Type != "car" || start.Overlay.Fit == nil || len(start.Overlay.Markers) != 2 {
		t.Fatalf("unexpected booking start %+v", start)
	}

	resp = env.do(t, "POST", "/v1/bookings", token, domain.BookingInput{
		PickupAddress:   "12 Marina Rd",
		DeliveryAddress: "4 Allen Ave",
		PackageType:     "documents",
		Sender:          domain.Contact{Name: "Ada", Phone: "08012345678"},
		Receiver:        domain.Contact{Name: "Tunde", Phone: "08087654321"},
	})
	if resp.StatusCode != 201 {
		t.Fatalf("submit: expected 201, got %d", resp.StatusCode)
	}
	var summary domain.BookingSummary
	decode(t, resp, &summary)
	if summary.BookingID != "bk-42" || summary.TotalAmount != 4500 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	resp = env.do(t, "GET", "/v1/bookings/summary", token, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("summary: expected 200, got %d", resp.StatusCode)
	}

	resp = env.do(t, "POST", "/v1/bookings/confirm", token, nil)
	if resp.StatusCode != 200 {
		t.Fatalf("confirm: expected 200, got %d", resp.StatusCode)
	}
	var success domain.BookingSuccess
	decode(t, resp, &success)
	if success.BookingID != "bk-42" || success.VehicleTitle != "Car" {
		t.Errorf("unexpected success view %+v", success)
	}

	// The flow is over.
	if resp := env.do(t, "POST", "/v1/bookings/confirm", token, nil); resp.StatusCode != 409 {
		t.Errorf("expected 409 on second confirm, got %d", resp.StatusCode)
	}
}

func TestSubmitBooking_Invalid(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)
	env.do(t, "POST", "/v1/bookings/start", token, map[string]string{"vehicle_type": "van"})

	resp := env.do(t, "POST", "/v1/bookings", token, domain.BookingInput{PackageType: domain.PackageOther})
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var e apiError
	decode(t, resp, &e)
	if e.Fields["other_specify"] == "" {
		t.Errorf("expected other_specify error, got %v", e.Fields)
	}
}

func TestStartBooking_UnknownVehicle(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/bookings/start", env.login(t), map[string]string{"vehicle_type": "boat"})
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Deliveries ----

func sampleDeliveries() []domain.Delivery {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	statuses := []string{domain.StatusInTransit, domain.StatusDelivered, domain.StatusPending, domain.StatusCancelled, domain.StatusCompleted}
	out := make([]domain.Delivery, len(statuses))
	for i, s := range statuses {
		out[i] = domain.Delivery{ID: string(rune('a' + i)), Status: s, Date: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestListDeliveries_Pagination(t *testing.T) {
	env := newEnv(t)
	env.backend.deliveriesFn = func(ctx context.Context, auth string) ([]domain.Delivery, error) {
		if auth != "Bearer backend-abc" {
			t.Errorf("unexpected authorization %q", auth)
		}
		return sampleDeliveries(), nil
	}

	resp := env.do(t, "GET", "/v1/deliveries?offset=2&limit=2", env.login(t), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("unexpected Link header %q", link)
	}

	var result struct {
		Data       []domain.Delivery  `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	decode(t, resp, &result)
	if result.Pagination.Total != 5 || len(result.Data) != 2 {
		t.Fatalf("unexpected page %+v", result)
	}
	// Newest first: e, d, c, b, a.
	if result.Data[0].ID != "c" {
		t.Errorf("expected c first on page 2, got %s", result.Data[0].ID)
	}
}

func TestListDeliveries_Tabs(t *testing.T) {
	env := newEnv(t)
	env.backend.deliveriesFn = func(context.Context, string) ([]domain.Delivery, error) { return sampleDeliveries(), nil }
	token := env.login(t)

	resp := env.do(t, "GET", "/v1/deliveries?tab=completed", token, nil)
	var list domain.ShipmentList
	decode(t, resp, &list)
	if list.Tab != "completed" || len(list.Items) != 2 {
		t.Errorf("unexpected completed tab %+v", list)
	}

	if resp := env.do(t, "GET", "/v1/deliveries?tab=archived", token, nil); resp.StatusCode != 422 {
		t.Errorf("expected 422 for unknown tab, got %d", resp.StatusCode)
	}
}

func TestShipmentsAlias_Deprecated(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/shipments?tab=active", env.login(t), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" || resp.Header.Get("Sunset") == "" {
		t.Error("expected Deprecation and Sunset headers")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/deliveries") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

func TestGetDelivery_NotFound(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/v1/deliveries/nope", env.login(t), nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTracking(t *testing.T) {
	env := newEnv(t)
	env.backend.trackingFn = func(ctx context.Context, auth, id string) (*domain.Tracking, error) {
		return &domain.Tracking{
			TrackingID:  id,
			Rider:       domain.Rider{Name: "Musa", Location: domain.Coordinate{Lng: 3.35, Lat: 6.51}},
			Pickup:      domain.Place{Location: domain.Coordinate{Lng: 3.36, Lat: 6.515}},
			Destination: domain.Place{Location: domain.Coordinate{Lng: 3.2847, Lat: 6.4698}},
			Route:       domain.Route{{Lng: 3.36, Lat: 6.515}, {Lng: 3.35, Lat: 6.51}, {Lng: 3.2847, Lat: 6.4698}},
			ActiveStep:  domain.StepEnRoute,
		}, nil
	}

	resp := env.do(t, "GET", "/v1/tracking/TRK-1", env.login(t), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var tr domain.Tracking
	decode(t, resp, &tr)
	if tr.RemainingMeters <= 0 || tr.ETAMinutes <= 0 || tr.EncodedRoute == "" || tr.Overlay == nil {
		t.Errorf("tracking view not enriched: %+v", tr)
	}
}

func TestTracking_BackendUnavailable(t *testing.T) {
	env := newEnv(t)
	env.backend.trackingFn = func(context.Context, string, string) (*domain.Tracking, error) {
		return nil, domain.ErrBackendUnavailable
	}
	resp := env.do(t, "GET", "/v1/tracking/TRK-1", env.login(t), nil)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var e apiError
	decode(t, resp, &e)
	if e.Code != "bad_gateway" {
		t.Errorf("expected bad_gateway, got %s", e.Code)
	}
}

func TestTracking_RouteWithNullPoint(t *testing.T) {
	var route domain.Route
	if err := json.Unmarshal([]byte(`[[3.36,6.515],[null,6.4698]]`), &route); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t)
	env.backend.trackingFn = func(ctx context.Context, auth, id string) (*domain.Tracking, error) {
		return &domain.Tracking{
			TrackingID:  id,
			Rider:       domain.Rider{Location: domain.Coordinate{Lng: 3.35, Lat: 6.51}},
			Pickup:      domain.Place{Location: domain.Coordinate{Lng: 3.36, Lat: 6.515}},
			Destination: domain.Place{Location: domain.Coordinate{Lng: 3.2847, Lat: 6.4698}},
			Route:       route,
			ActiveStep:  domain.StepEnRoute,
		}, nil
	}

	resp := env.do(t, "GET", "/v1/tracking/TRK1", env.login(t), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var tr domain.Tracking
	decode(t, resp, &tr)
	if len(tr.Route) != 1 || tr.Route[0] != (domain.Coordinate{Lng: 3.36, Lat: 6.515}) {
		t.Errorf("expected only the finite point, got %v", tr.Route)
	}
}

func TestGetDelivery_RouteWithNullPoint(t *testing.T) {
	var route domain.Route
	if err := json.Unmarshal([]byte(`[[3.36,6.515],[null,6.4698]]`), &route); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t)
	env.backend.shipmentFn = func(ctx context.Context, auth, id string) (*domain.Shipment, error) {
		return &domain.Shipment{
			Delivery:       domain.Delivery{ID: id, TrackingID: "TRK1", Status: "In Transit"},
			OriginLocation: domain.Coordinate{Lng: 3.36, Lat: 6.515},
			DestLocation:   domain.Coordinate{Lng: 3.2847, Lat: 6.4698},
			Route:          route,
		}, nil
	}

	resp := env.do(t, "GET", "/v1/deliveries/D1", env.login(t), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var sh domain.Shipment
	decode(t, resp, &sh)
	if sh.ID != "D1" || len(sh.Route) != 1 {
		t.Errorf("expected D1 with one route point, got %s %v", sh.ID, sh.Route)
	}
	if sh.Overlay == nil || sh.Overlay.Fit != nil {
		t.Errorf("expected an overlay without a fit command, got %+v", sh.Overlay)
	}
}

// ownedBy answers tracking lookups only for the given backend credential.
func ownedBy(owner string) func(ctx context.Context, auth, id string) (*domain.Tracking, error) {
	return func(ctx context.Context, auth, id string) (*domain.Tracking, error) {
		if auth != owner {
			return nil, &domain.BackendError{Status: 404, Message: "Delivery not found"}
		}
		return &domain.Tracking{TrackingID: id, ActiveStep: domain.StepEnRoute}, nil
	}
}

func TestPublishTracking_Owner(t *testing.T) {
	env := newEnv(t)
	env.backend.trackingFn = ownedBy("Bearer backend-abc")

	update := map[string]interface{}{
		"location":    map[string]float64{"longitude": 3.33, "latitude": 6.49},
		"active_step": domain.StepEnRoute,
	}
	resp := env.do(t, "POST", "/v1/tracking/TRK1/updates", env.login(t), update)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if len(env.events.updates) != 1 || env.events.updates[0].TrackingID != "TRK1" {
		t.Errorf("expected one relayed update for TRK1, got %+v", env.events.updates)
	}
}

func TestPublishTracking_OtherUserRejected(t *testing.T) {
	env := newEnv(t)
	env.backend.trackingFn = ownedBy("Bearer backend-abc")
	other := env.loginAs(t, "Bearer backend-xyz", &domain.User{ID: 8, FullName: "Bola Ade", Email: "bola@example.com"})

	update := map[string]interface{}{
		"location":    map[string]float64{"longitude": 3.33, "latitude": 6.49},
		"active_step": domain.StepEnRoute,
	}
	resp := env.do(t, "POST", "/v1/tracking/TRK1/updates", other, update)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var e apiError
	decode(t, resp, &e)
	if e.Code != "not_found" {
		t.Errorf("expected not_found, got %s", e.Code)
	}
	if len(env.events.updates) != 0 {
		t.Errorf("expected nothing relayed, got %+v", env.events.updates)
	}
}

func TestTrackingSocket_OtherUserRejected(t *testing.T) {
	env := newEnv(t)
	env.backend.trackingFn = ownedBy("Bearer backend-abc")
	other := env.loginAs(t, "Bearer backend-xyz", &domain.User{ID: 8, FullName: "Bola Ade", Email: "bola@example.com"})

	upgrade := func(token string) *http.Request {
		req := httptest.NewRequest("GET", "/ws/tracking?id=TRK1", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return req
	}

	resp, err := env.app.Test(upgrade(other), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 before upgrade, got %d", resp.StatusCode)
	}

	resp, err = env.app.Test(upgrade(""), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}
}

// ---- Overlay ----

func TestOverlay_Anonymous(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/overlay", "", map[string]interface{}{
		"markers":           []map[string]interface{}{{"longitude": 3.36, "latitude": 6.515}},
		"route_coordinates": [][]float64{{3.36, 6.515}, {3.2847, 6.4698}},
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ov domain.Overlay
	decode(t, resp, &ov)
	if ov.Fit == nil || ov.Fit.Padding != 40 || ov.Fit.DurationMs != 1000 {
		t.Fatalf("expected fit command, got %+v", ov.Fit)
	}
	if ov.RouteLayer == nil || len(ov.Markers) != 1 || ov.Markers[0].Color != "#3b82f6" {
		t.Errorf("unexpected overlay %+v", ov)
	}
}

func TestOverlay_SinglePointNoFit(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "POST", "/v1/overlay", "", map[string]interface{}{
		"route_coordinates": [][]float64{{3.36, 6.515}},
	})
	var ov domain.Overlay
	decode(t, resp, &ov)
	if ov.Fit != nil {
		t.Errorf("single point must not fit, got %+v", ov.Fit)
	}
	if ov.RouteLayer == nil {
		t.Error("a one-point route still gets a route layer")
	}
}

func TestOverlay_Polyline(t *testing.T) {
	env := newEnv(t)
	encoded := geospatial.EncodeRoute(domain.Route{{Lng: 3.36, Lat: 6.515}, {Lng: 3.2847, Lat: 6.4698}})
	resp := env.do(t, "POST", "/v1/overlay?polyline="+url.QueryEscape(encoded), "", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ov domain.Overlay
	decode(t, resp, &ov)
	if ov.Fit == nil {
		t.Error("expected fit for decoded polyline")
	}

	if resp := env.do(t, "POST", "/v1/overlay?polyline=_p~iF", "", nil); resp.StatusCode != 400 {
		t.Errorf("expected 400 for a bad polyline, got %d", resp.StatusCode)
	}
}

func TestTrackViewport(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)

	if resp := env.do(t, "PUT", "/v1/session/viewport", token, domain.Viewport{Longitude: 3.4, Latitude: 6.45, Zoom: 14}); resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp := env.do(t, "POST", "/v1/overlay", token, map[string]interface{}{})
	var ov domain.Overlay
	decode(t, resp, &ov)
	if ov.ViewState.Zoom != 14 || ov.ViewState.Longitude != 3.4 {
		t.Errorf("expected the tracked viewport, got %+v", ov.ViewState)
	}

	if resp := env.do(t, "PUT", "/v1/session/viewport", token, domain.Viewport{Longitude: 200, Latitude: 0, Zoom: 3}); resp.StatusCode != 422 {
		t.Errorf("expected 422 for an off-globe viewport, got %d", resp.StatusCode)
	}
}

// ---- Profile ----

func TestPreferences(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)

	resp := env.do(t, "PUT", "/v1/settings/preferences", token, domain.Preferences{Language: "English", Currency: "NGN", Theme: "Dark", DefaultPayment: "Card"})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var s domain.Settings
	decode(t, resp, &s)
	if !s.Preferences.DarkMode {
		t.Error("dark theme should turn dark mode on")
	}

	resp = env.do(t, "PUT", "/v1/settings/preferences", token, domain.Preferences{Currency: "XYZ"})
	if resp.StatusCode != 422 {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestContactSupport(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)

	if resp := env.do(t, "POST", "/v1/support", token, map[string]string{"message": "  "}); resp.StatusCode != 422 {
		t.Fatalf("expected 422 for empty message, got %d", resp.StatusCode)
	}
	if resp := env.do(t, "POST", "/v1/support", token, map[string]string{"message": "where is my parcel?"}); resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(env.tickets.created) != 1 {
		t.Errorf("expected 1 stored ticket, got %d", len(env.tickets.created))
	}
}

func TestDeleteAccount(t *testing.T) {
	env := newEnv(t)
	token := env.login(t)
	if resp := env.do(t, "DELETE", "/v1/profile", token, nil); resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp := env.do(t, "GET", "/v1/profile", token, nil); resp.StatusCode != 401 {
		t.Errorf("expected 401 after deletion, got %d", resp.StatusCode)
	}
}

// ---- Proxy ----

func TestProxy_NotConfigured(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, "GET", "/api/proxy/api/v1/users/me", "", nil)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["error"] != "Proxy configuration error." {
		t.Errorf("unexpected body %v", body)
	}
}

func TestProxy_Forwards(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/deliveries" || r.URL.RawQuery != "page=2" {
			t.Errorf("unexpected upstream request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer backend-abc" {
			t.Errorf("expected the session credential upstream, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer upstream.Close()

	env := newEnv(t, func(d *handler.Dependencies) {
		d.Proxy = handler.ProxyConfig{BaseURL: upstream.URL}
	})
	resp := env.do(t, "GET", "/api/proxy/api/v1/deliveries?page=2", env.login(t), nil)
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("expected upstream status, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); body != `{"ok":true}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestProxy_DropsHopByHopHeaders(t *testing.T) {
	var gotConnection, gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConnection = r.Header.Get("Connection")
		gotHost = r.Host
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	env := newEnv(t, func(d *handler.Dependencies) {
		d.Proxy = handler.ProxyConfig{BaseURL: upstream.URL}
	})
	req := httptest.NewRequest("GET", "/api/proxy/api/v1/users/me", nil)
	req.Header.Set("Connection", "X-Client-Secret")
	req.Header.Set("X-Client-Secret", "s3cret")
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected upstream status, got %d", resp.StatusCode)
	}
	if strings.Contains(gotConnection, "X-Client-Secret") {
		t.Errorf("client Connection header reached the backend: %q", gotConnection)
	}
	if u, _ := url.Parse(upstream.URL); gotHost != u.Host {
		t.Errorf("expected backend host %q, got %q", u.Host, gotHost)
	}
}

func TestProxy_Unreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	env := newEnv(t, func(d *handler.Dependencies) {
		d.Proxy = handler.ProxyConfig{BaseURL: addr, Timeout: time.Second}
	})
	resp := env.do(t, "POST", "/api/proxy/api/v1/bookings", "", map[string]string{"a": "b"})
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["error"] != "Proxy request failed" || body["details"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

// ---- GraphQL ----

func TestGraphQL(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, "POST", "/graphql", "", map[string]string{"query": "{ vehicles { type price } }"})
	var result struct {
		Data struct {
			Vehicles []struct {
				Type  string  `json:"type"`
				Price float64 `json:"price"`
			} `json:"vehicles"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	decode(t, resp, &result)
	if len(result.Errors) != 0 || len(result.Data.Vehicles) != 3 {
		t.Fatalf("unexpected result %+v", result)
	}

	resp = env.do(t, "POST", "/graphql", "", map[string]string{"query": `{ tracking(id: "TRK-1") { tracking_id } }`})
	var denied struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	decode(t, resp, &denied)
	if len(denied.Errors) == 0 {
		t.Error("expected an error for an anonymous tracking query")
	}
}

func TestGraphQL_RouteGeometry(t *testing.T) {
	env := newEnv(t)
	encoded := geospatial.EncodeRoute(domain.Route{{Lng: 3.36, Lat: 6.515}, {Lng: 3.2847, Lat: 6.4698}})

	resp := env.do(t, "POST", "/graphql", "", map[string]interface{}{
		"query":     `query($p: String!) { routeGeometry(polyline: $p) { points length_meters bounds { min_lng max_lat } } }`,
		"variables": map[string]string{"p": encoded},
	})
	var result struct {
		Data struct {
			RouteGeometry struct {
				Points       int     `json:"points"`
				LengthMeters float64 `json:"length_meters"`
				Bounds       *struct {
					MinLng float64 `json:"min_lng"`
				} `json:"bounds"`
			} `json:"routeGeometry"`
		} `json:"data"`
	}
	decode(t, resp, &result)
	g := result.Data.RouteGeometry
	if g.Points != 2 || g.LengthMeters <= 0 || g.Bounds == nil || g.Bounds.MinLng != 3.2847 {
		t.Errorf("unexpected geometry %+v", g)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}
