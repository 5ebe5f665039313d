package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Reconciler requests authoritative totals. The only local arithmetic is
// adding the delivery fee to the line total.
type Reconciler struct {
	pricer  LinePricer
	coster  DeliveryCoster
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// ReconcilerParams groups the dependencies for NewReconciler.
type ReconcilerParams struct {
	Pricer  LinePricer
	Coster  DeliveryCoster
	Timeout time.Duration
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Pricer == nil {
		return nil, fmt.Errorf("line pricer required")
	}
	if params.Coster == nil {
		return nil, fmt.Errorf("delivery coster required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Reconciler{
		pricer:  params.Pricer,
		coster:  params.Coster,
		timeout: params.Timeout,
		logg:    logg,
		metrics: params.Metrics,
	}, nil
}

// Quote validates the input and runs the line pricing and delivery calls
// concurrently. Digital-only or pickup selections skip the delivery call.
func (r *Reconciler) Quote(ctx context.Context, in Input) (PriceQuote, error) {
	if err := validateInput(in); err != nil {
		return PriceQuote{}, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.metrics.IncQuoteIssued()

	var (
		pricing  LinePricing
		delivery DeliveryCost
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := r.pricer.ComputeLinePricing(gctx, in.Lines, normalizeCoupon(in.CouponCode))
		if err != nil {
			return fmt.Errorf("line pricing: %w", err)
		}
		pricing = res
		return nil
	})
	if in.NeedsDelivery() {
		dest := in.Destination.Normalized()
		g.Go(func() error {
			res, err := r.coster.ComputeDeliveryCost(gctx, in.TenantID, dest, in.Lines)
			if err != nil {
				return fmt.Errorf("delivery cost: %w", err)
			}
			delivery = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return PriceQuote{}, err
		}
		r.logg.Warn(ctx, fmt.Sprintf("quote failed: %v", err))
		return PriceQuote{}, pkgerrors.Wrap(pkgerrors.CodeQuoteFailure, err, "quote request failed")
	}

	return PriceQuote{
		SubtotalCents:          pricing.SubtotalCents,
		DiscountPercentage:     pricing.DiscountPercentage,
		DiscountedAmountCents:  pricing.DiscountedAmountCents,
		DeliveryFeeCents:       delivery.FeeCents,
		TotalCents:             pricing.TotalCents + delivery.FeeCents,
		EstimatedDeliveryDates: delivery.EstimatedDeliveryDateOptions,
		Fingerprint:            in.Fingerprint(),
	}, nil
}

func validateInput(in Input) error {
	if len(in.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "selection has no lines")
	}
	for _, line := range in.Lines {
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]string{"productId": line.ProductID})
		}
	}
	if !in.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	if in.Physical() && in.DeliveryType == enums.DeliveryTypeDigital {
		return pkgerrors.New(pkgerrors.CodeValidation, "digital delivery is not available for physical items")
	}
	if in.NeedsDelivery() {
		if in.Destination == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination is required for physical items")
		}
		if err := in.Destination.Normalized().Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination")
		}
	}
	return nil
}
