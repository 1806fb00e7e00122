package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, r domain.Registration) (*domain.User, error) {
	payload := map[string]string{
		"full_name":    r.FullName,
		"email":        r.Email,
		"phone_number": r.PhoneNumber,
		"password":     r.Password,
	}
	var u domain.User
	err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/api/v1/users/register", json: payload}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login performs an OAuth2 password grant.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", email)
	form.Set("password", password)
	form.Set("scope", "")

	var res domain.LoginResult
	err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/api/v1/users/login", form: form}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CurrentUser(ctx context.Context, authorization string) (*domain.User, error) {
	var u domain.User
	err := c.do(ctx, request{op: "current_user", method: http.MethodGet, path: "/api/v1/users/me", authorization: authorization}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, authorization string, p domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	err := c.do(ctx, request{op: "update_profile", method: http.MethodPut, path: "/api/v1/users/me", authorization: authorization, json: p}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ChangePassword(ctx context.Context, authorization string, p domain.PasswordChange) error {
	payload := map[string]string{
		"current_password": p.CurrentPassword,
		"new_password":     p.NewPassword,
	}
	return c.do(ctx, request{op: "change_password", method: http.MethodPost, path: "/api/v1/users/me/password", authorization: authorization, json: payload}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, authorization string) error {
	return c.do(ctx, request{op: "delete_account", method: http.MethodDelete, path: "/api/v1/users/me", authorization: authorization}, nil)
}

type contactPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type bookingPayload struct {
	Reference       string         `json:"reference"`
	VehicleType     string         `json:"vehicle_type"`
	PickupAddress   string         `json:"pickup_address"`
	DeliveryAddress string         `json:"delivery_address"`
	PackageType     string         `json:"package_type"`
	IsFragile       bool           `json:"is_fragile"`
	SenderDetails   contactPayload `json:"sender_details"`
	ReceiverDetails contactPayload `json:"receiver_details"`
	PaymentMethod   string         `json:"payment_method"`
	Amount          float64        `json:"amount"`
}

// bookingResponse lets the backend answer with a numeric or string id.
type bookingResponse struct {
	ID flexID `json:"id"`
	domain.Booking
}

func (b bookingResponse) booking() *domain.Booking {
	out := b.Booking
	out.ID = string(b.ID)
	return &out
}

func (c *Client) CreateBooking(ctx context.Context, authorization string, b *domain.Booking) (*domain.Booking, error) {
	payload := bookingPayload{
		Reference:       b.Reference,
		VehicleType:     b.VehicleType,
		PickupAddress:   b.PickupAddress,
		DeliveryAddress: b.DeliveryAddress,
		PackageType:     b.PackageType,
		IsFragile:       b.IsFragile,
		SenderDetails:   contactPayload(b.Sender),
		ReceiverDetails: contactPayload(b.Receiver),
		PaymentMethod:   b.PaymentMethod,
		Amount:          b.Amount,
	}
	var res bookingResponse
	err := c.do(ctx, request{op: "create_booking", method: http.MethodPost, path: "/api/v1/bookings", authorization: authorization, json: payload}, &res)
	if err != nil {
		return nil, err
	}
	if res.ID == "" {
		return nil, errors.New("create_booking: response has no id")
	}
	return res.booking(), nil
}

func (c *Client) ConfirmBooking(ctx context.Context, authorization, bookingID, paymentMethod string) (*domain.Booking, error) {
	payload := map[string]string{"payment_method": paymentMethod}
	var res bookingResponse
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/confirm"
	if err := c.do(ctx, request{op: "confirm_booking", method: http.MethodPost, path: path, authorization: authorization, json: payload}, &res); err != nil {
		return nil, err
	}
	if res.ID == "" {
		res.ID = flexID(bookingID)
	}
	return res.booking(), nil
}

func (c *Client) CancelBooking(ctx context.Context, authorization, bookingID string) error {
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/cancel"
	return c.do(ctx, request{op: "cancel_booking", method: http.MethodPost, path: path, authorization: authorization}, nil)
}

type deliveryResponse struct {
	ID flexID `json:"id"`
	domain.Delivery
}

// ListDeliveries accepts either a bare array or an {"items": [...]} envelope.
func (c *Client) ListDeliveries(ctx context.Context, authorization string) ([]domain.Delivery, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{op: "list_deliveries", method: http.MethodGet, path: "/api/v1/deliveries", authorization: authorization}, &raw); err != nil {
		return nil, err
	}

	var rows []deliveryResponse
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("list_deliveries: decode: %w", err)
		}
	} else {
		var env struct {
			Items []deliveryResponse `json:"items"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("list_deliveries: decode: %w", err)
		}
		rows = env.Items
	}

	out := make([]domain.Delivery, 0, len(rows))
	for _, r := range rows {
		d := r.Delivery
		d.ID = string(r.ID)
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) GetShipment(ctx context.Context, authorization, id string) (*domain.Shipment, error) {
	var res struct {
		ID flexID `json:"id"`
		domain.Shipment
	}
	path := "/api/v1/deliveries/" + url.PathEscape(id)
	if err := c.do(ctx, request{op: "get_shipment", method: http.MethodGet, path: path, authorization: authorization}, &res); err != nil {
		return nil, err
	}
	sh := res.Shipment
	sh.ID = string(res.ID)
	return &sh, nil
}

func (c *Client) GetTracking(ctx context.Context, authorization, trackingID string) (*domain.Tracking, error) {
	var tr domain.Tracking
	path := "/api/v1/tracking/" + url.PathEscape(trackingID)
	if err := c.do(ctx, request{op: "get_tracking", method: http.MethodGet, path: path, authorization: authorization}, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
