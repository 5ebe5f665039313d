// Package lineitem defines the identity and merge rules for cart line intents.
// Every function here is pure: inputs are never mutated and a fresh slice is returned.
package lineitem

import (
	"math"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// Variant is the (color, size) pair selecting a purchasable configuration.
// A nil field means "no color" / "no size", which is its own identity.
type Variant struct {
	Color *string `json:"color,omitempty"`
	Size  *string `json:"size,omitempty"`
}

// NewVariant builds a variant from optional strings; empty values are treated as absent.
func NewVariant(color, size string) Variant {
	return Variant{Color: optional(color), Size: optional(size)}
}

// LineIntent is a shopper's recorded desire to buy a product variant in a quantity.
type LineIntent struct {
	ProductID string  `json:"productId"`
	Variant   Variant `json:"variant"`
	Quantity  int     `json:"quantity"`
}

// Key identifies a line within one tenant's cart.
type Key struct {
	ProductID string
	Color     string
	HasColor  bool
	Size      string
	HasSize   bool
}

// KeyOf builds the identity of a product variant.
func KeyOf(productID string, variant Variant) Key {
	key := Key{ProductID: productID}
	if variant.Color != nil {
		key.Color, key.HasColor = *variant.Color, true
	}
	if variant.Size != nil {
		key.Size, key.HasSize = *variant.Size, true
	}
	return key
}

// Key returns the identity triple of the line.
func (l LineIntent) Key() Key {
	return KeyOf(l.ProductID, l.Variant)
}

// String renders the key for logs and map lookups.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.ProductID)
	b.WriteString("|")
	if k.HasColor {
		b.WriteString("c=" + k.Color)
	}
	b.WriteString("|")
	if k.HasSize {
		b.WriteString("s=" + k.Size)
	}
	return b.String()
}

// Validate checks the invariants of a single intent.
func Validate(line LineIntent) error {
	if strings.TrimSpace(line.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

// Merge adds incoming to existing: a matching key has its quantity incremented,
// otherwise incoming is appended. The sum saturates at math.MaxInt.
func Merge(existing []LineIntent, incoming LineIntent) []LineIntent {
	out := Clone(existing)
	key := incoming.Key()
	for i := range out {
		if out[i].Key() == key {
			out[i].Quantity = AddQuantity(out[i].Quantity, incoming.Quantity)
			return out
		}
	}
	return append(out, cloneLine(incoming))
}

// AddQuantity returns a+b for non-negative quantities, saturating at math.MaxInt.
func AddQuantity(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// SetQuantity overwrites the quantity of the line matching key. The quantity is
// expected to be pre-validated by the stock guard.
func SetQuantity(existing []LineIntent, key Key, quantity int) []LineIntent {
	out := Clone(existing)
	for i := range out {
		if out[i].Key() == key {
			out[i].Quantity = quantity
			break
		}
	}
	return out
}

// Remove filters out the line with the exact key.
func Remove(existing []LineIntent, key Key) []LineIntent {
	out := make([]LineIntent, 0, len(existing))
	for _, line := range existing {
		if line.Key() == key {
			continue
		}
		out = append(out, cloneLine(line))
	}
	return out
}

// Find returns the line matching key, if any.
func Find(existing []LineIntent, key Key) (LineIntent, bool) {
	for _, line := range existing {
		if line.Key() == key {
			return cloneLine(line), true
		}
	}
	return LineIntent{}, false
}

// ProductIDs returns the distinct product ids in first-seen order.
func ProductIDs(lines []LineIntent) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Clone deep-copies a sequence, including variant pointers.
func Clone(lines []LineIntent) []LineIntent {
	out := make([]LineIntent, len(lines))
	for i, line := range lines {
		out[i] = cloneLine(line)
	}
	return out
}

func cloneLine(line LineIntent) LineIntent {
	line.Variant = Variant{Color: copyString(line.Variant.Color), Size: copyString(line.Variant.Size)}
	return line
}

func copyString(src *string) *string {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
