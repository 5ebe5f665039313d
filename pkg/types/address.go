package types

import (
	"fmt"
	"strings"
)

// Address is a delivery destination supplied by the shopper.
type Address struct {
	Line1      string   `json:"line1" validate:"required"`
	Line2      *string  `json:"line2,omitempty"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state"`
	PostalCode string   `json:"postal_code"`
	Country    string   `json:"country"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

// Validate checks the fields a delivery quote needs.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	return nil
}

// Normalized trims every field and defaults the country to US.
func (a Address) Normalized() Address {
	out := a
	out.Line1 = strings.TrimSpace(a.Line1)
	out.City = strings.TrimSpace(a.City)
	out.State = strings.TrimSpace(a.State)
	out.PostalCode = strings.TrimSpace(a.PostalCode)
	out.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if out.Country == "" {
		out.Country = "US"
	}
	if a.Line2 != nil {
		trimmed := strings.TrimSpace(*a.Line2)
		if trimmed == "" {
			out.Line2 = nil
		} else {
			out.Line2 = &trimmed
		}
	}
	return out
}

// Customer identifies who the order is for.
type Customer struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Validate checks the contact fields an order needs.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("customer: missing name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("customer: missing phone")
	}
	return nil
}
