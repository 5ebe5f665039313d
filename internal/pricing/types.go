// Package pricing turns a selection into an authoritative price quote by
// calling the remote pricing and delivery collaborators.
package pricing

import (
	"context"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/types"
	"github.com/shopspring/decimal"
)

// Line is one priced selection line sent to the collaborators.
type Line struct {
	ProductID      string           `json:"productId"`
	Variant        lineitem.Variant `json:"variant"`
	Quantity       int              `json:"quantity"`
	UnitPriceCents int64            `json:"unitPriceCents"`
	Physical       bool             `json:"physical"`
}

// LinePricing is the pricing collaborator's answer for a set of lines.
type LinePricing struct {
	SubtotalCents         int64           `json:"subtotalCents"`
	DiscountPercentage    decimal.Decimal `json:"discountPercentage"`
	DiscountedAmountCents int64           `json:"discountedAmountCents"`
	TotalCents            int64           `json:"totalCents"`
}

// DeliveryCost is the delivery collaborator's answer for a destination.
type DeliveryCost struct {
	FeeCents                     int64    `json:"feeCents"`
	EstimatedDeliveryDateOptions []string `json:"estimatedDeliveryDateOptions"`
}

// LinePricer computes subtotal, discount and total for lines.
type LinePricer interface {
	ComputeLinePricing(ctx context.Context, lines []Line, couponCode string) (LinePricing, error)
}

// DeliveryCoster computes the delivery fee for lines shipped to destination.
type DeliveryCoster interface {
	ComputeDeliveryCost(ctx context.Context, tenantID string, destination types.Address, lines []Line) (DeliveryCost, error)
}

// PriceQuote is an ephemeral, server-computed total for one input tuple.
type PriceQuote struct {
	SubtotalCents          int64           `json:"subtotalCents"`
	DiscountPercentage     decimal.Decimal `json:"discountPercentage"`
	DiscountedAmountCents  int64           `json:"discountedAmountCents"`
	DeliveryFeeCents       int64           `json:"deliveryFeeCents"`
	TotalCents             int64           `json:"totalCents"`
	EstimatedDeliveryDates []string        `json:"estimatedDeliveryDates,omitempty"`
	Fingerprint            string          `json:"fingerprint"`
}
