package types

import "github.com/angelmondragon/storefront-cart/pkg/enums"

// Notice is a non-blocking message attached to a cart or checkout response.
type Notice struct {
	Type      enums.NoticeType `json:"type"`
	ProductID string           `json:"productId,omitempty"`
	Requested int              `json:"requested,omitempty"`
	Applied   int              `json:"applied,omitempty"`
	Message   string           `json:"message"`
}
