package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// Hydrator fetches the products of a cart in one batch call and projects the
// cart for display.
type Hydrator struct {
	client  Client
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewHydrator builds a Hydrator over the catalog client.
func NewHydrator(client Client, logg *logger.Logger, m *metrics.CartMetrics) (*Hydrator, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hydrator{client: client, logg: logg, metrics: m}, nil
}

// Hydrate resolves lines against the catalog. It has no storage side effects.
func (h *Hydrator) Hydrate(ctx context.Context, lines []lineitem.LineIntent) (Result, error) {
	ids := lineitem.ProductIDs(lines)
	if len(ids) == 0 {
		return Hydrate(nil, nil), nil
	}

	products, err := h.client.FetchProductsByIDs(ctx, ids)
	if err != nil {
		return Result{}, wrapCatalogErr(err, "fetch cart products")
	}

	lookup := make(map[string]ProductSnapshot, len(products))
	for _, product := range products {
		lookup[product.ID] = product
	}

	result := Hydrate(lines, lookup)
	if n := len(result.Unresolved); n > 0 {
		h.metrics.AddSoftMisses(n)
		h.logg.Info(ctx, fmt.Sprintf("hydration excluded %d unresolved lines", n))
	}
	return result, nil
}

// Product fetches a single active product, returning ProductUnresolved when it
// is missing or inactive.
func (h *Hydrator) Product(ctx context.Context, productID string) (ProductSnapshot, error) {
	product, err := h.client.FetchProduct(ctx, productID)
	if err != nil {
		return ProductSnapshot{}, wrapCatalogErr(err, "fetch product")
	}
	if !product.Active {
		return ProductSnapshot{}, pkgerrors.New(pkgerrors.CodeProductUnresolved, "product is inactive").
			WithDetails(map[string]string{"productId": productID})
	}
	return product, nil
}

func wrapCatalogErr(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
