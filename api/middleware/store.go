package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const (
	storeCodeParam     = "storeCode"
	maxStoreCodeLength = 64
)

// Tenant resolves the {storeCode} route parameter into the tenant id carried by
// the request context and its log fields.
func Tenant(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := strings.TrimSpace(chi.URLParam(r, storeCodeParam))
			if code == "" || len(code) > maxStoreCodeLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store code is required"))
				return
			}

			ctx := WithTenantID(r.Context(), code)
			if logg != nil {
				ctx = logg.WithTenant(ctx, code)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
