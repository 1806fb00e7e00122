package domain

import (
	"net/mail"
	"strings"
	"unicode"
)

const (
	minPasswordLen    = 8
	maxSupportMessage = 2000
)

// ValidPhone accepts 7 to 15 digits with an optional leading '+'.
// Spaces and dashes are ignored.
func ValidPhone(phone string) bool {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	p = strings.TrimPrefix(p, "+")
	if len(p) < 7 || len(p) > 15 {
		return false
	}
	for _, r := range p {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidEmail checks the address parses as a bare mailbox.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Validate checks the sign-up form.
func (r Registration) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(r.FullName) == "" {
		v.Add("full_name", "full name is required")
	}
	if !ValidEmail(strings.TrimSpace(r.Email)) {
		v.Add("email", "a valid email address is required")
	}
	if !ValidPhone(r.PhoneNumber) {
		v.Add("phone_number", "a valid phone number is required")
	}
	if len(r.Password) < minPasswordLen {
		v.Add("password", "password must be at least 8 characters")
	}
	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		v.Add("confirm_password", "passwords do not match")
	}
	return v.OrNil()
}

// ResolvedPackageType is the category sent upstream: the free-text
// description when "other" was picked.
func (b BookingInput) ResolvedPackageType() string {
	if b.PackageType == PackageOther || (b.PackageType == "" && b.OtherSpecify != "") {
		return strings.TrimSpace(b.OtherSpecify)
	}
	return b.PackageType
}

// Validate checks the booking form.
func (b BookingInput) Validate() error {
	v := &ValidationError{}
	switch {
	case b.PackageType == "" && strings.TrimSpace(b.OtherSpecify) == "":
		v.Add("package_type", "please select a package type or specify 'Other'")
	case b.PackageType == PackageOther && strings.TrimSpace(b.OtherSpecify) == "":
		v.Add("other_specify", "please specify the package type")
	case b.PackageType != "" && !IsPackageType(b.PackageType):
		v.Add("package_type", "unknown package type")
	}
	if strings.TrimSpace(b.PickupAddress) == "" {
		v.Add("pickup_address", "pickup address is required")
	}
	if strings.TrimSpace(b.DeliveryAddress) == "" {
		v.Add("delivery_address", "delivery address is required")
	}
	if strings.TrimSpace(b.Sender.Name) == "" || strings.TrimSpace(b.Receiver.Name) == "" ||
		b.Sender.Phone == "" || b.Receiver.Phone == "" {
		v.Add("contacts", "please fill in all sender and receiver details")
	}
	if b.Sender.Phone != "" && !ValidPhone(b.Sender.Phone) {
		v.Add("sender.phone", "invalid phone number")
	}
	if b.Receiver.Phone != "" && !ValidPhone(b.Receiver.Phone) {
		v.Add("receiver.phone", "invalid phone number")
	}
	return v.OrNil()
}

// Validate checks the edit-profile form.
func (p ProfileUpdate) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(p.FullName) == "" {
		v.Add("full_name", "full name is required")
	}
	if !ValidEmail(strings.TrimSpace(p.Email)) {
		v.Add("email", "a valid email address is required")
	}
	if p.PhoneNumber != "" && !ValidPhone(p.PhoneNumber) {
		v.Add("phone_number", "invalid phone number")
	}
	return v.OrNil()
}

// Validate checks the change-password form.
func (p PasswordChange) Validate() error {
	v := &ValidationError{}
	if p.CurrentPassword == "" {
		v.Add("current_password", "current password is required")
	}
	if len(p.NewPassword) < minPasswordLen {
		v.Add("new_password", "password must be at least 8 characters")
	} else if p.NewPassword == p.CurrentPassword {
		v.Add("new_password", "new password must differ from the current one")
	}
	if p.ConfirmPassword != p.NewPassword {
		v.Add("confirm_password", "passwords do not match")
	}
	return v.OrNil()
}

// ValidateSupportMessage checks a contact-support message.
func ValidateSupportMessage(msg string) error {
	m := strings.TrimSpace(msg)
	if m == "" {
		return NewValidationError("message", "message is required")
	}
	if len(m) > maxSupportMessage {
		return NewValidationError("message", "message must be at most 2000 characters")
	}
	return nil
}
