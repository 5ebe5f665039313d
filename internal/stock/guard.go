// Package stock clamps requested quantities against live stock ceilings.
package stock

import (
	"fmt"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

// MinQuantity is the floor for any cart line; removal is a separate action.
const MinQuantity = 1

// Clamp bounds requested into [1, ceiling]. A ceiling below 1 still yields 1.
func Clamp(requested, ceiling int) int {
	upper := ceiling
	if upper < MinQuantity {
		upper = MinQuantity
	}
	qty := requested
	if qty > upper {
		qty = upper
	}
	if qty < MinQuantity {
		qty = MinQuantity
	}
	return qty
}

// Guard clamps requested and reports what changed.
func Guard(productID string, requested, ceiling int) (int, *types.Notice) {
	applied := Clamp(requested, ceiling)
	switch {
	case applied < requested:
		return applied, &types.Notice{
			Type:      enums.NoticeTypeStockExceeded,
			ProductID: productID,
			Requested: requested,
			Applied:   applied,
			Message:   fmt.Sprintf("quantity reduced to available stock (%d)", applied),
		}
	case applied > requested:
		return applied, &types.Notice{
			Type:      enums.NoticeTypeClampedToMin,
			ProductID: productID,
			Requested: requested,
			Applied:   applied,
			Message:   fmt.Sprintf("quantity raised to minimum (%d)", MinQuantity),
		}
	}
	return applied, nil
}
