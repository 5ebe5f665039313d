package catalog

import (
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
)

// Reasons an intent failed to resolve.
const (
	ReasonNotFound = "not_found"
	ReasonInactive = "inactive"
)

// HydratedLine is a line intent joined with its product snapshot.
type HydratedLine struct {
	lineitem.LineIntent
	Product      ProductSnapshot `json:"product"`
	StockCeiling int             `json:"stockCeiling"`
}

// UnresolvedLine is a stored intent excluded from display because its product
// did not resolve. The intent itself stays in storage.
type UnresolvedLine struct {
	lineitem.LineIntent
	Reason string `json:"reason"`
}

// Result is the projection of a cart for display or pricing.
type Result struct {
	Lines      []HydratedLine   `json:"lines"`
	Unresolved []UnresolvedLine `json:"unresolved"`
}

// Physical reports whether any resolved line ships physically.
func (r Result) Physical() bool {
	for _, line := range r.Lines {
		if line.Product.Physical {
			return true
		}
	}
	return false
}

// Hydrate joins lines with products from lookup. It never mutates lines.
func Hydrate(lines []lineitem.LineIntent, lookup map[string]ProductSnapshot) Result {
	result := Result{
		Lines:      make([]HydratedLine, 0, len(lines)),
		Unresolved: []UnresolvedLine{},
	}
	for _, line := range lineitem.Clone(lines) {
		product, ok := lookup[line.ProductID]
		switch {
		case !ok:
			result.Unresolved = append(result.Unresolved, UnresolvedLine{LineIntent: line, Reason: ReasonNotFound})
		case !product.Active:
			result.Unresolved = append(result.Unresolved, UnresolvedLine{LineIntent: line, Reason: ReasonInactive})
		default:
			result.Lines = append(result.Lines, HydratedLine{
				LineIntent:   line,
				Product:      product,
				StockCeiling: product.CeilingFor(line.Variant),
			})
		}
	}
	return result
}
