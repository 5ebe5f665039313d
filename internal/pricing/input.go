package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

// Input is the tuple a quote is computed for.
type Input struct {
	TenantID     string
	Lines        []Line
	Destination  *types.Address
	CouponCode   string
	DeliveryType enums.DeliveryType
}

// Physical reports whether any line ships physically.
func (in Input) Physical() bool {
	for _, line := range in.Lines {
		if line.Physical {
			return true
		}
	}
	return false
}

// NeedsDelivery reports whether a delivery cost call is required.
func (in Input) NeedsDelivery() bool {
	return in.Physical() && in.DeliveryType == enums.DeliveryTypeHome
}

type fingerprintLine struct {
	Key       string `json:"k"`
	Quantity  int    `json:"q"`
	UnitPrice int64  `json:"p"`
}

type fingerprintPayload struct {
	Tenant       string            `json:"t"`
	Lines        []fingerprintLine `json:"l"`
	Destination  *types.Address    `json:"d,omitempty"`
	Coupon       string            `json:"c,omitempty"`
	DeliveryType string            `json:"dt"`
}

// Fingerprint is a stable hash of the input tuple. Line order does not matter.
func (in Input) Fingerprint() string {
	payload := fingerprintPayload{
		Tenant:       in.TenantID,
		Lines:        make([]fingerprintLine, 0, len(in.Lines)),
		Coupon:       normalizeCoupon(in.CouponCode),
		DeliveryType: string(in.DeliveryType),
	}
	for _, line := range in.Lines {
		payload.Lines = append(payload.Lines, fingerprintLine{
			Key:       lineitem.KeyOf(line.ProductID, line.Variant).String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPriceCents,
		})
	}
	sort.Slice(payload.Lines, func(i, j int) bool { return payload.Lines[i].Key < payload.Lines[j].Key })
	if in.Destination != nil {
		dest := in.Destination.Normalized()
		payload.Destination = &dest
	}

	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func normalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
