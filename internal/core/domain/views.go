package domain

// BookingStart is what the booking screen needs for a chosen vehicle.
type BookingStart struct {
	Vehicle      Vehicle       `json:"vehicle"`
	PackageTypes []PackageType `json:"package_types"`
	Form         BookingInput  `json:"form"`
	Pickup       Place         `json:"pickup"`
	Delivery     Place         `json:"delivery"`
	Overlay      Overlay       `json:"overlay"`
}

// BookingSuccess is shown once a booking is confirmed.
type BookingSuccess struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	BookingID    string          `json:"booking_id"`
	VehicleType  string          `json:"vehicle_type"`
	VehicleTitle string          `json:"vehicle_title"`
	Status       string          `json:"status"`
	Links        []Link          `json:"links"`
	Summary      *BookingSummary `json:"summary,omitempty"`
}

// Link is a follow-up navigation target.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// ShipmentList is one tab of the shipments screen.
type ShipmentList struct {
	Tab   string     `json:"tab"`
	Items []Delivery `json:"items"`
}

// Shipment tabs.
const (
	TabActive    = "active"
	TabCompleted = "completed"
)

// Profile is the profile screen: the account plus local settings.
type Profile struct {
	User     User     `json:"user"`
	Settings Settings `json:"settings"`
}
