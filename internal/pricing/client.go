package pricing

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/remote"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

// HTTPClient implements LinePricer and DeliveryCoster against the pricing service.
type HTTPClient struct {
	remote *remote.Client
}

func NewHTTPClient(client *remote.Client) (*HTTPClient, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing remote client required")
	}
	return &HTTPClient{remote: client}, nil
}

type linePricingRequest struct {
	Lines      []Line `json:"lines"`
	CouponCode string `json:"couponCode,omitempty"`
}

type deliveryCostRequest struct {
	TenantID    string        `json:"tenantId"`
	Destination types.Address `json:"destination"`
	Lines       []Line        `json:"lines"`
}

// ComputeLinePricing implements LinePricer.
func (c *HTTPClient) ComputeLinePricing(ctx context.Context, lines []Line, couponCode string) (LinePricing, error) {
	var resp LinePricing
	err := c.remote.Do(ctx, http.MethodPost, "pricing/lines", linePricingRequest{Lines: lines, CouponCode: couponCode}, &resp)
	return resp, err
}

// ComputeDeliveryCost implements DeliveryCoster.
func (c *HTTPClient) ComputeDeliveryCost(ctx context.Context, tenantID string, destination types.Address, lines []Line) (DeliveryCost, error) {
	var resp DeliveryCost
	err := c.remote.Do(ctx, http.MethodPost, "delivery/cost", deliveryCostRequest{
		TenantID:    tenantID,
		Destination: destination,
		Lines:       lines,
	}, &resp)
	return resp, err
}
