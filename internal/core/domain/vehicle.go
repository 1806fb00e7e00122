package domain

import (
	"strings"
)

// Vehicle is a bookable vehicle class.
type Vehicle struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Icon        string  `json:"icon"`
}

// PackageType is a selectable parcel category.
type PackageType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// PackageOther requires a free-text description in other_specify.
const PackageOther = "other"

const (
	PaymentOnDelivery = "Payment on delivery"
	PaymentCashOrXfer = "Cash or Transfer"
	EstimatedTime     = "1 hour"
	Currency          = "NGN"
)

var vehicles = []Vehicle{
	{Type: "motorcycle", Title: "Motorcycle Delivery", Description: "Small packages", Price: 4500, Icon: "🏍️"},
	{Type: "car", Title: "Car Delivery", Description: "Medium packages", Price: 4500, Icon: "🚗"},
	{Type: "van", Title: "Van Delivery", Description: "Large packages", Price: 6500, Icon: "🚚"},
}

var packageTypes = []PackageType{
	{ID: "documents", Label: "Documents", Icon: "📄"},
	{ID: "food", Label: "Food", Icon: "🍔"},
	{ID: "clothings", Label: "Clothings", Icon: "👕"},
	{ID: "electronics", Label: "Electronics", Icon: "📱"},
	{ID: "gifts", Label: "Gifts", Icon: "🎁"},
	{ID: "beauty", Label: "Beauty", Icon: "💄"},
	{ID: "accessories", Label: "Accessories", Icon: "👜"},
	{ID: PackageOther, Label: "Other", Icon: "❓"},
}

// Vehicles returns the catalog in display order.
func Vehicles() []Vehicle {
	out := make([]Vehicle, len(vehicles))
	copy(out, vehicles)
	return out
}

// LookupVehicle finds a vehicle by type, case-insensitively.
func LookupVehicle(vehicleType string) (Vehicle, error) {
	t := strings.ToLower(strings.TrimSpace(vehicleType))
	for _, v := range vehicles {
		if v.Type == t {
			return v, nil
		}
	}
	return Vehicle{}, ErrInvalidVehicleType
}

// PackageTypes returns the selectable parcel categories.
func PackageTypes() []PackageType {
	out := make([]PackageType, len(packageTypes))
	copy(out, packageTypes)
	return out
}

// IsPackageType reports whether id is a known category.
func IsPackageType(id string) bool {
	for _, p := range packageTypes {
		if p.ID == id {
			return true
		}
	}
	return false
}
