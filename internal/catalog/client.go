package catalog

import (
	"context"
	"net/http"
	"net/url"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/remote"
)

// Client is the catalog collaborator.
type Client interface {
	FetchProductsByIDs(ctx context.Context, ids []string) ([]ProductSnapshot, error)
	FetchProduct(ctx context.Context, id string) (ProductSnapshot, error)
}

// HTTPClient talks to the catalog service over JSON.
type HTTPClient struct {
	remote *remote.Client
}

func NewHTTPClient(client *remote.Client) (*HTTPClient, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog remote client required")
	}
	return &HTTPClient{remote: client}, nil
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

type batchResponse struct {
	Products []ProductSnapshot `json:"products"`
}

// FetchProductsByIDs issues one batch lookup. Missing ids are simply absent
// from the response.
func (c *HTTPClient) FetchProductsByIDs(ctx context.Context, ids []string) ([]ProductSnapshot, error) {
	if len(ids) == 0 {
		return []ProductSnapshot{}, nil
	}
	var resp batchResponse
	if err := c.remote.Do(ctx, http.MethodPost, "products/batch", batchRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// FetchProduct loads one product; a 404 maps to ProductUnresolved.
func (c *HTTPClient) FetchProduct(ctx context.Context, id string) (ProductSnapshot, error) {
	var product ProductSnapshot
	err := c.remote.Do(ctx, http.MethodGet, "products/"+url.PathEscape(id), nil, &product)
	if err != nil {
		if remote.StatusCode(err) == http.StatusNotFound {
			return ProductSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeProductUnresolved, err, "product not found").
				WithDetails(map[string]string{"productId": id})
		}
		return ProductSnapshot{}, err
	}
	return product, nil
}
