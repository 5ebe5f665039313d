package checkout

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-cart/internal/checkout"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

const surfaceIDParam = "surfaceID"

type quoteRequest struct {
	Mode         string         `json:"mode,omitempty" validate:"omitempty,oneof=cart buy_now"`
	Item         *itemRequest   `json:"item,omitempty" validate:"required_if=Mode buy_now"`
	Destination  *types.Address `json:"destination,omitempty"`
	CouponCode   string         `json:"couponCode,omitempty" validate:"omitempty,max=64"`
	DeliveryType string         `json:"deliveryType,omitempty" validate:"omitempty,oneof=home pickup digital"`
}

type itemRequest struct {
	ProductID string  `json:"productId" validate:"required,max=128"`
	Color     *string `json:"color,omitempty" validate:"omitempty,max=64"`
	Size      *string `json:"size,omitempty" validate:"omitempty,max=64"`
	Quantity  int     `json:"quantity" validate:"min=1,max=10000"`
}

type submitRequest struct {
	quoteRequest
	Customer types.Customer `json:"customer"`
}

func (q quoteRequest) toInput() (checkoutsvc.QuoteRequest, error) {
	mode := enums.CheckoutModeCart
	if q.Mode != "" {
		parsed, err := enums.ParseCheckoutMode(q.Mode)
		if err != nil {
			return checkoutsvc.QuoteRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout mode")
		}
		mode = parsed
	}
	deliveryType, err := enums.ParseDeliveryType(q.DeliveryType)
	if err != nil {
		return checkoutsvc.QuoteRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type")
	}

	in := checkoutsvc.QuoteRequest{
		Mode:         mode,
		Destination:  q.Destination,
		CouponCode:   strings.TrimSpace(q.CouponCode),
		DeliveryType: deliveryType,
	}
	if mode == enums.CheckoutModeAdHoc && q.Item != nil {
		in.Item = &lineitem.LineIntent{
			ProductID: strings.TrimSpace(q.Item.ProductID),
			Variant:   lineitem.NewVariant(deref(q.Item.Color), deref(q.Item.Size)),
			Quantity:  q.Item.Quantity,
		}
	}
	return in, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func routeIDs(r *http.Request) (string, string, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "store code is required")
	}
	surfaceID := strings.TrimSpace(chi.URLParam(r, surfaceIDParam))
	if surfaceID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "checkout surface id is required")
	}
	return tenantID, surfaceID, nil
}
