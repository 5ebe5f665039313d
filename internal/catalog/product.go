package catalog

import (
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
)

// VariantOptions lists the purchasable colors and sizes of a product.
type VariantOptions struct {
	Colors []string `json:"colors,omitempty"`
	Sizes  []string `json:"sizes,omitempty"`
}

// VariantStock overrides the product stock ceiling for one variant.
type VariantStock struct {
	Color *string `json:"color,omitempty"`
	Size  *string `json:"size,omitempty"`
	Stock int     `json:"stock"`
}

// ProductSnapshot is the catalog's view of a product at fetch time.
type ProductSnapshot struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Media        []string       `json:"media,omitempty"`
	PriceCents   int64          `json:"priceCents"`
	StockCeiling int            `json:"stock"`
	VariantStock []VariantStock `json:"variantStock,omitempty"`
	Variants     VariantOptions `json:"variants"`
	Physical     bool           `json:"physical"`
	Active       bool           `json:"active"`
}

// CeilingFor returns the stock ceiling of the given variant, falling back to
// the product level ceiling.
func (p ProductSnapshot) CeilingFor(variant lineitem.Variant) int {
	want := lineitem.KeyOf(p.ID, variant)
	for _, vs := range p.VariantStock {
		if lineitem.KeyOf(p.ID, lineitem.Variant{Color: vs.Color, Size: vs.Size}) == want {
			return vs.Stock
		}
	}
	return p.StockCeiling
}

// SupportsVariant reports whether every provided variant attribute is offered.
// An absent attribute is always accepted.
func (p ProductSnapshot) SupportsVariant(variant lineitem.Variant) bool {
	if variant.Color != nil && !contains(p.Variants.Colors, *variant.Color) {
		return false
	}
	if variant.Size != nil && !contains(p.Variants.Sizes, *variant.Size) {
		return false
	}
	return true
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
