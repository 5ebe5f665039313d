package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/internal/stock"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

// CartLines is the slice of the cart service checkout depends on.
type CartLines interface {
	Lines(ctx context.Context, tenantID string) ([]lineitem.LineIntent, error)
	ClearLines(ctx context.Context, tenantID string, keys []lineitem.Key) error
}

type hydrator interface {
	Hydrate(ctx context.Context, lines []lineitem.LineIntent) (catalog.Result, error)
}

type quoter interface {
	Quote(ctx context.Context, in pricing.Input) (pricing.PriceQuote, error)
}

// Service drives checkout surfaces for both checkout modes.
type Service interface {
	QuoteCheckout(ctx context.Context, tenantID, surfaceID string, req QuoteRequest) (SurfaceView, error)
	BuildAndSubmitDraft(ctx context.Context, tenantID, surfaceID string, req SubmitRequest) (SubmitOutcome, error)
	Surface(tenantID, surfaceID string) (SurfaceView, error)
	Abandon(tenantID, surfaceID string) bool
	AbandonTenant(ctx context.Context, tenantID string) int
}

// QuoteRequest is the input tuple of a quote. Item is set only in buy-now mode.
type QuoteRequest struct {
	Mode         enums.CheckoutMode
	Item         *lineitem.LineIntent
	Destination  *types.Address
	CouponCode   string
	DeliveryType enums.DeliveryType
}

// SubmitRequest repeats the quoted tuple and adds the customer.
type SubmitRequest struct {
	QuoteRequest
	Customer types.Customer
}

// SubmitOutcome is returned after a successful submission.
type SubmitOutcome struct {
	Order   SubmitResult   `json:"order"`
	Draft   OrderDraft     `json:"draft"`
	Surface SurfaceView    `json:"surface"`
	Notices []types.Notice `json:"notices,omitempty"`
}

// ServiceParams groups the checkout service dependencies.
type ServiceParams struct {
	Cart          CartLines
	Hydrator      hydrator
	Quoter        quoter
	Submitter     Submitter
	Registry      *Registry
	SubmitTimeout time.Duration
	Logger        *logger.Logger
	Metrics       *metrics.CartMetrics
}

type service struct {
	cart          CartLines
	hydrator      hydrator
	quoter        quoter
	submitter     Submitter
	registry      *Registry
	submitTimeout time.Duration
	logg          *logger.Logger
	metrics       *metrics.CartMetrics
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if params.Hydrator == nil {
		return nil, fmt.Errorf("hydrator required")
	}
	if params.Quoter == nil {
		return nil, fmt.Errorf("quoter required")
	}
	if params.Submitter == nil {
		return nil, fmt.Errorf("submitter required")
	}
	if params.Registry == nil {
		params.Registry = NewRegistry()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		cart:          params.Cart,
		hydrator:      params.Hydrator,
		quoter:        params.Quoter,
		submitter:     params.Submitter,
		registry:      params.Registry,
		submitTimeout: params.SubmitTimeout,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

// QuoteCheckout requests a fresh quote for the surface. A response that was
// superseded by a newer request is discarded and the returned view reflects
// the newer request instead.
func (s *service) QuoteCheckout(ctx context.Context, tenantID, surfaceID string, req QuoteRequest) (SurfaceView, error) {
	if err := validateIDs(tenantID, surfaceID); err != nil {
		return SurfaceView{}, err
	}
	ctx = s.logg.WithSurface(s.logg.WithTenant(ctx, tenantID), surfaceID)

	surface := s.registry.Open(tenantID, surfaceID)
	qctx, token, err := surface.BeginQuote(ctx)
	if err != nil {
		return surface.View(), err
	}

	quote, notices, err := s.quote(qctx, tenantID, req)
	applied := surface.CompleteQuote(token, quote, err)

	view := surface.View()
	view.Notices = notices
	if !applied {
		outcome := metrics.QuoteOutcomeSuperseded
		if view.State == enums.SurfaceStateClosed {
			outcome = metrics.QuoteOutcomeCancelled
		}
		s.metrics.IncQuoteOutcome(outcome)
		s.logg.Info(ctx, "discarded "+outcome+" quote response")
		view.Superseded = true
		return view, nil
	}
	if err != nil {
		s.metrics.IncQuoteOutcome(metrics.QuoteOutcomeFailed)
		return view, err
	}
	s.metrics.IncQuoteOutcome(metrics.QuoteOutcomeQuoted)
	return view, nil
}

func (s *service) quote(ctx context.Context, tenantID string, req QuoteRequest) (pricing.PriceQuote, []types.Notice, error) {
	_, hydrated, notices, err := s.resolve(ctx, tenantID, req)
	if err != nil {
		return pricing.PriceQuote{}, notices, err
	}
	input := PricingInput(tenantID, hydrated, req.Destination, req.CouponCode, req.DeliveryType)
	quote, err := s.quoter.Quote(ctx, input)
	if errors.Is(err, context.Canceled) {
		err = pkgerrors.Wrap(pkgerrors.CodeQuoteFailure, err, "quote cancelled")
	}
	return quote, notices, err
}

// resolve turns a request into its selection and hydrated projection.
func (s *service) resolve(ctx context.Context, tenantID string, req QuoteRequest) (Selection, catalog.Result, []types.Notice, error) {
	if !req.DeliveryType.IsValid() {
		return Selection{}, catalog.Result{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}

	var selection Selection
	switch req.Mode {
	case enums.CheckoutModeCart, "":
		lines, err := s.cart.Lines(ctx, tenantID)
		if err != nil && pkgerrors.IsFatal(err) {
			return Selection{}, catalog.Result{}, nil, err
		}
		if len(lines) == 0 {
			return Selection{}, catalog.Result{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		selection = FromCart(lines)
	case enums.CheckoutModeAdHoc:
		if req.Item == nil {
			return Selection{}, catalog.Result{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "buy now requires an item")
		}
		if err := lineitem.Validate(*req.Item); err != nil {
			return Selection{}, catalog.Result{}, nil, err
		}
		selection = AdHoc(*req.Item)
	default:
		return Selection{}, catalog.Result{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout mode")
	}

	hydrated, err := s.hydrator.Hydrate(ctx, selection.Lines())
	if err != nil {
		return Selection{}, catalog.Result{}, nil, err
	}

	notices := unresolvedNotices(hydrated.Unresolved)
	if selection.Mode() == enums.CheckoutModeAdHoc {
		if len(hydrated.Lines) == 0 {
			return Selection{}, catalog.Result{}, notices, pkgerrors.New(pkgerrors.CodeProductUnresolved, "product is no longer available").
				WithDetails(map[string]string{"productId": req.Item.ProductID})
		}
		line := hydrated.Lines[0]
		if !line.Product.SupportsVariant(line.Variant) {
			return Selection{}, catalog.Result{}, notices, pkgerrors.New(pkgerrors.CodeValidation, "variant is not offered for this product")
		}
		if line.StockCeiling < stock.MinQuantity {
			return Selection{}, catalog.Result{}, notices, pkgerrors.New(pkgerrors.CodeStockExceeded, "product is out of stock").
				WithDetails(map[string]string{"productId": line.ProductID})
		}
	}
	hydrated.Lines, notices = guardStock(hydrated.Lines, notices)
	if len(hydrated.Lines) == 0 {
		return Selection{}, catalog.Result{}, notices, pkgerrors.New(pkgerrors.CodeValidation, "selection has no purchasable lines")
	}
	return selection, hydrated, notices, nil
}

// BuildAndSubmitDraft submits the selection if and only if the surface holds a
// successful quote for exactly the same input tuple. In cart mode the
// submitted lines are cleared from the cart after a successful submission.
func (s *service) BuildAndSubmitDraft(ctx context.Context, tenantID, surfaceID string, req SubmitRequest) (SubmitOutcome, error) {
	if err := validateIDs(tenantID, surfaceID); err != nil {
		return SubmitOutcome{}, err
	}
	ctx = s.logg.WithSurface(s.logg.WithTenant(ctx, tenantID), surfaceID)

	surface, ok := s.registry.Get(tenantID, surfaceID)
	if !ok {
		return SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "a successful quote is required before submitting")
	}
	if err := req.Customer.Validate(); err != nil {
		return SubmitOutcome{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer")
	}

	selection, hydrated, notices, err := s.resolve(ctx, tenantID, req.QuoteRequest)
	if err != nil {
		return SubmitOutcome{}, err
	}
	fingerprint := PricingInput(tenantID, hydrated, req.Destination, req.CouponCode, req.DeliveryType).Fingerprint()

	quote, err := surface.QuoteFor(fingerprint)
	if err != nil {
		return SubmitOutcome{}, err
	}
	draft, err := BuildDraft(DraftParams{
		TenantID:     tenantID,
		Selection:    selection,
		Hydrated:     hydrated,
		Customer:     req.Customer,
		Destination:  req.Destination,
		DeliveryType: req.DeliveryType,
		CouponCode:   req.CouponCode,
		Quote:        &quote,
	})
	if err != nil {
		return SubmitOutcome{}, err
	}
	if _, err := surface.BeginSubmit(fingerprint); err != nil {
		return SubmitOutcome{}, err
	}

	sctx := ctx
	if s.submitTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}

	result, err := s.submitter.SubmitOrder(sctx, draft)
	if err != nil {
		err = submissionFailure(err)
		surface.CompleteSubmit(SubmitResult{}, err)
		s.metrics.IncSubmission(string(draft.Mode), "failed")
		s.logg.Error(ctx, "order submission failed", err)
		return SubmitOutcome{}, err
	}
	surface.CompleteSubmit(result, nil)
	s.metrics.IncSubmission(string(draft.Mode), "success")

	if draft.Mode == enums.CheckoutModeCart {
		if err := s.cart.ClearLines(ctx, tenantID, draft.Keys()); err != nil {
			if pkgerrors.IsFatal(err) {
				s.logg.Error(ctx, "failed to clear submitted cart lines", err)
			}
			notices = append(notices, types.Notice{
				Type:    enums.NoticeTypeStorageUnavailable,
				Message: "order placed, but the cart could not be cleared",
			})
		}
	}

	return SubmitOutcome{
		Order:   result,
		Draft:   draft,
		Surface: surface.View(),
		Notices: notices,
	}, nil
}

// Surface returns the current view of a surface.
func (s *service) Surface(tenantID, surfaceID string) (SurfaceView, error) {
	surface, ok := s.registry.Get(tenantID, surfaceID)
	if !ok {
		return SurfaceView{}, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}
	return surface.View(), nil
}

// Abandon cancels the surface's in-flight work.
func (s *service) Abandon(tenantID, surfaceID string) bool {
	return s.registry.Abandon(tenantID, surfaceID)
}

// AbandonTenant closes every surface of the tenant, as when the shopper
// switches stores.
func (s *service) AbandonTenant(ctx context.Context, tenantID string) int {
	closed := s.registry.AbandonTenant(tenantID)
	if closed > 0 {
		s.logg.Info(s.logg.WithField(s.logg.WithTenant(ctx, tenantID), "closed", closed), "abandoned checkout surfaces")
	}
	return closed
}

func submissionFailure(err error) error {
	if pkgerrors.Is(err, pkgerrors.CodeSubmissionFailure) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeSubmissionFailure, err, "order submission timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeSubmissionFailure, err, "order submission failed")
}

// guardStock clamps every line to its live stock. Sold-out cart lines are left
// out of the selection and stay in the cart.
func guardStock(lines []catalog.HydratedLine, notices []types.Notice) ([]catalog.HydratedLine, []types.Notice) {
	out := make([]catalog.HydratedLine, 0, len(lines))
	for _, line := range lines {
		if line.StockCeiling < stock.MinQuantity {
			notices = append(notices, types.Notice{
				Type:      enums.NoticeTypeStockExceeded,
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Message:   "product is out of stock and was left out",
			})
			continue
		}
		applied, notice := stock.Guard(line.ProductID, line.Quantity, line.StockCeiling)
		line.Quantity = applied
		if notice != nil {
			notices = append(notices, *notice)
		}
		out = append(out, line)
	}
	return out, notices
}

func unresolvedNotices(lines []catalog.UnresolvedLine) []types.Notice {
	if len(lines) == 0 {
		return nil
	}
	out := make([]types.Notice, 0, len(lines))
	for _, line := range lines {
		out = append(out, types.Notice{
			Type:      enums.NoticeTypeProductUnresolved,
			ProductID: line.ProductID,
			Message:   "product is no longer available and was left out",
		})
	}
	return out
}

func validateIDs(tenantID, surfaceID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store code is required")
	}
	if strings.TrimSpace(surfaceID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout surface id is required")
	}
	return nil
}
