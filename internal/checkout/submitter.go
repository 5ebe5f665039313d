package checkout

import (
	"context"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/remote"
)

// Submitter is the order-submission collaborator.
type Submitter interface {
	SubmitOrder(ctx context.Context, draft OrderDraft) (SubmitResult, error)
}

// HTTPSubmitter posts drafts to the orders service.
type HTTPSubmitter struct {
	remote *remote.Client
}

func NewHTTPSubmitter(client *remote.Client) (*HTTPSubmitter, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders remote client required")
	}
	return &HTTPSubmitter{remote: client}, nil
}

// SubmitOrder implements Submitter.
func (s *HTTPSubmitter) SubmitOrder(ctx context.Context, draft OrderDraft) (SubmitResult, error) {
	var result SubmitResult
	if err := s.remote.Do(ctx, http.MethodPost, "orders", draft, &result); err != nil {
		return SubmitResult{}, err
	}
	if result.OrderID == "" {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeSubmissionFailure, "orders service returned no order id")
	}
	return result, nil
}
