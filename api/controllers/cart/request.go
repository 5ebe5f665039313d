package cart

import (
	"net/http"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

func variantOf(color, size *string) lineitem.Variant {
	return lineitem.NewVariant(deref(color), deref(size))
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func tenantFromRequest(r *http.Request) (string, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "store code is required")
	}
	return tenantID, nil
}
