package checkout

import (
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/types"
	"github.com/google/uuid"
)

// OrderDraft is the transient order handed to the submission collaborator.
type OrderDraft struct {
	ID           uuid.UUID              `json:"id"`
	TenantID     string                 `json:"tenantId"`
	Mode         enums.CheckoutMode     `json:"mode"`
	LineItems    []catalog.HydratedLine `json:"lineItems"`
	Customer     types.Customer         `json:"customer"`
	Destination  *types.Address         `json:"destination,omitempty"`
	DeliveryType enums.DeliveryType     `json:"deliveryType"`
	CouponCode   string                 `json:"couponCode,omitempty"`
	Quote        pricing.PriceQuote     `json:"quote"`
}

// Keys returns the identity of every drafted line.
func (d OrderDraft) Keys() []lineitem.Key {
	keys := make([]lineitem.Key, 0, len(d.LineItems))
	for _, line := range d.LineItems {
		keys = append(keys, line.Key())
	}
	return keys
}

// DraftParams carries everything BuildDraft needs.
type DraftParams struct {
	TenantID     string
	Selection    Selection
	Hydrated     catalog.Result
	Customer     types.Customer
	Destination  *types.Address
	DeliveryType enums.DeliveryType
	CouponCode   string
	Quote        *pricing.PriceQuote
}

// BuildDraft assembles an order draft for either checkout mode. The quote must
// have been computed for exactly this input tuple.
func BuildDraft(params DraftParams) (OrderDraft, error) {
	if params.Selection.Empty() {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeValidation, "selection has no lines")
	}
	if len(params.Hydrated.Lines) == 0 {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeValidation, "selection has no purchasable lines")
	}
	if err := params.Customer.Validate(); err != nil {
		return OrderDraft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer")
	}
	if params.Quote == nil {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "a successful quote is required before submitting")
	}

	input := PricingInput(params.TenantID, params.Hydrated, params.Destination, params.CouponCode, params.DeliveryType)
	if input.NeedsDelivery() && params.Destination == nil {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeValidation, "destination is required for physical items")
	}
	if params.Quote.Fingerprint != input.Fingerprint() {
		return OrderDraft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "quote does not match the current selection")
	}

	var destination *types.Address
	if params.Destination != nil {
		normalized := params.Destination.Normalized()
		destination = &normalized
	}

	return OrderDraft{
		ID:           uuid.New(),
		TenantID:     params.TenantID,
		Mode:         params.Selection.Mode(),
		LineItems:    append([]catalog.HydratedLine(nil), params.Hydrated.Lines...),
		Customer:     params.Customer,
		Destination:  destination,
		DeliveryType: params.DeliveryType,
		CouponCode:   params.CouponCode,
		Quote:        *params.Quote,
	}, nil
}

// PricingInput maps hydrated lines to the reconciler input.
func PricingInput(tenantID string, hydrated catalog.Result, destination *types.Address, couponCode string, deliveryType enums.DeliveryType) pricing.Input {
	lines := make([]pricing.Line, 0, len(hydrated.Lines))
	for _, line := range hydrated.Lines {
		lines = append(lines, pricing.Line{
			ProductID:      line.ProductID,
			Variant:        line.Variant,
			Quantity:       line.Quantity,
			UnitPriceCents: line.Product.PriceCents,
			Physical:       line.Product.Physical,
		})
	}
	return pricing.Input{
		TenantID:     tenantID,
		Lines:        lines,
		Destination:  destination,
		CouponCode:   couponCode,
		DeliveryType: deliveryType,
	}
}
