package enums

import "fmt"

// DeliveryType is the fulfilment option chosen at checkout.
type DeliveryType string

const (
	DeliveryTypeHome    DeliveryType = "home"
	DeliveryTypePickup  DeliveryType = "pickup"
	DeliveryTypeDigital DeliveryType = "digital"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeHome,
	DeliveryTypePickup,
	DeliveryTypeDigital,
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType. Empty input defaults to home delivery.
func ParseDeliveryType(value string) (DeliveryType, error) {
	if value == "" {
		return DeliveryTypeHome, nil
	}
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
