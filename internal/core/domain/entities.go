package domain

import (
	"time"
)

// User is an account as returned by the backend.
type User struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address,omitempty"`
}

// Registration is the sign-up form.
type Registration struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// LoginResult is the backend's answer to a password grant.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Contact is a sender or receiver of a parcel.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Place is an address with its geocoded position.
type Place struct {
	Address  string     `json:"address"`
	Location Coordinate `json:"location"`
}

// BookingInput is the booking form submitted by the customer.
type BookingInput struct {
	PickupAddress   string  `json:"pickup_address"`
	DeliveryAddress string  `json:"delivery_address"`
	PackageType     string  `json:"package_type"`
	OtherSpecify    string  `json:"other_specify,omitempty"`
	IsFragile       bool    `json:"is_fragile"`
	Sender          Contact `json:"sender"`
	Receiver        Contact `json:"receiver"`
}

// Booking is a delivery request accepted by the backend.
type Booking struct {
	ID              string    `json:"id"`
	Reference       string    `json:"reference"`
	UserID          int64     `json:"user_id"`
	VehicleType     string    `json:"vehicle_type"`
	PickupAddress   string    `json:"pickup_address"`
	DeliveryAddress string    `json:"delivery_address"`
	PackageType     string    `json:"package_type"`
	IsFragile       bool      `json:"is_fragile"`
	Sender          Contact   `json:"sender"`
	Receiver        Contact   `json:"receiver"`
	PaymentMethod   string    `json:"payment_method"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// FillMissing copies into b the fields the backend left out of its answer
// from the booking that was sent.
func (b *Booking) FillMissing(sent *Booking) {
	if b.Reference == "" {
		b.Reference = sent.Reference
	}
	if b.UserID == 0 {
		b.UserID = sent.UserID
	}
	if b.VehicleType == "" {
		b.VehicleType = sent.VehicleType
	}
	if b.PickupAddress == "" {
		b.PickupAddress = sent.PickupAddress
	}
	if b.DeliveryAddress == "" {
		b.DeliveryAddress = sent.DeliveryAddress
	}
	if b.PackageType == "" {
		b.PackageType = sent.PackageType
	}
	if b.Sender == (Contact{}) {
		b.Sender = sent.Sender
	}
	if b.Receiver == (Contact{}) {
		b.Receiver = sent.Receiver
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = sent.PaymentMethod
	}
	if b.Amount == 0 {
		b.Amount = sent.Amount
	}
	if b.Status == "" {
		b.Status = sent.Status
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = sent.CreatedAt
	}
	b.IsFragile = b.IsFragile || sent.IsFragile
}

// BookingSummary is shown on the confirmation screen.
type BookingSummary struct {
	BookingID       string  `json:"booking_id"`
	PickupAddress   string  `json:"pickup_address"`
	DeliveryAddress string  `json:"delivery_address"`
	VehicleType     string  `json:"vehicle_type"`
	EstimatedTime   string  `json:"estimated_time"`
	PackageType     string  `json:"package_type"`
	IsFragile       bool    `json:"is_fragile"`
	SenderName      string  `json:"sender_name"`
	SenderPhone     string  `json:"sender_phone"`
	ReceiverName    string  `json:"receiver_name"`
	ReceiverPhone   string  `json:"receiver_phone"`
	PaymentMethod   string  `json:"payment_method"`
	TotalAmount     float64 `json:"total_amount"`
}

// Delivery statuses as the backend reports them.
const (
	StatusPending   = "Pending"
	StatusInTransit = "In Transit"
	StatusCompleted = "Completed"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

// Delivery is a row of the customer's delivery history.
type Delivery struct {
	ID          string    `json:"id"`
	TrackingID  string    `json:"tracking_id"`
	VehicleType string    `json:"vehicle_type"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
}

// IsActive reports whether the delivery still needs attention.
func (d Delivery) IsActive() bool {
	return d.Status == StatusInTransit || d.Status == StatusPending
}

// IsFinished reports whether the delivery reached its destination.
func (d Delivery) IsFinished() bool {
	return d.Status == StatusDelivered || d.Status == StatusCompleted
}

// TrackingEvent is one step of a shipment's timeline.
type TrackingEvent struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Time      time.Time `json:"time"`
	Completed bool      `json:"completed"`
}

// Shipment is the detailed view of a delivery.
type Shipment struct {
	Delivery
	Carrier           string          `json:"carrier,omitempty"`
	Weight            string          `json:"weight,omitempty"`
	Dimensions        string          `json:"dimensions,omitempty"`
	Service           string          `json:"service,omitempty"`
	EstimatedDelivery string          `json:"estimated_delivery,omitempty"`
	OriginLocation    Coordinate      `json:"origin_location"`
	DestLocation      Coordinate      `json:"destination_location"`
	Route             Route           `json:"route"`
	Events            []TrackingEvent `json:"events"`
	Overlay           *Overlay        `json:"overlay,omitempty"`
}

// Rider is the courier assigned to a delivery.
type Rider struct {
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Location Coordinate `json:"location"`
}

// Tracking steps.
const (
	StepPickup = iota
	StepEnRoute
	StepDelivered
)

// Tracking is the live view of a delivery in progress.
type Tracking struct {
	TrackingID      string   `json:"tracking_id"`
	Rider           Rider    `json:"rider"`
	Pickup          Place    `json:"pickup"`
	Destination     Place    `json:"destination"`
	Route           Route    `json:"route"`
	ActiveStep      int      `json:"active_step"`
	RemainingMeters float64  `json:"remaining_meters"`
	ETAMinutes      int      `json:"eta_minutes"`
	EncodedRoute    string   `json:"encoded_route,omitempty"`
	Overlay         *Overlay `json:"overlay,omitempty"`
}

// TrackingUpdate is a rider position pushed while a delivery is en route.
type TrackingUpdate struct {
	TrackingID string     `json:"tracking_id"`
	Location   Coordinate `json:"location"`
	ActiveStep int        `json:"active_step"`
	Time       time.Time  `json:"time"`
}

// ProfileUpdate is the edit-profile form.
type ProfileUpdate struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// NotificationSettings are the per-user notification toggles.
type NotificationSettings struct {
	DeliveryUpdates    bool `json:"delivery_updates"`
	Promotions         bool `json:"promotions"`
	AccountActivity    bool `json:"account_activity"`
	EmailNotifications bool `json:"email_notifications"`
	PushNotifications  bool `json:"push_notifications"`
}

// Preferences are the per-user display and payment choices.
type Preferences struct {
	Language       string `json:"language"`
	Currency       string `json:"currency"`
	Theme          string `json:"theme"`
	DefaultPayment string `json:"default_payment"`
	DarkMode       bool   `json:"dark_mode"`
}

// Settings bundles everything stored locally for a user.
type Settings struct {
	UserID        int64                `json:"user_id"`
	Notifications NotificationSettings `json:"notifications"`
	Preferences   Preferences          `json:"preferences"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID: userID,
		Notifications: NotificationSettings{
			DeliveryUpdates:    true,
			Promotions:         false,
			AccountActivity:    true,
			EmailNotifications: true,
			PushNotifications:  true,
		},
		Preferences: Preferences{
			Language:       "English",
			Currency:       "NGN",
			Theme:          "Light",
			DefaultPayment: "Card",
		},
	}
}

// SupportTicket is a message sent through "contact support".
type SupportTicket struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
