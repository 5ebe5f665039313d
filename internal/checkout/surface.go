package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/types"
)

// DisplayCalculating is shown instead of a total while a quote is in flight.
const DisplayCalculating = "calculating"

// QuoteToken identifies one quote request on a surface.
type QuoteToken uint64

// SubmitResult is the order collaborator's acknowledgement.
type SubmitResult struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

// Surface tracks the quote and submit lifecycle of one checkout surface:
//
//	Idle -> Quoting -> {Quoted | QuoteFailed} -> Submitting -> {Submitted | SubmitFailed}
//
// Only the response for the latest quote token may change state.
type Surface struct {
	tenantID string
	id       string
	now      func() time.Time

	mu         sync.Mutex
	state      enums.SurfaceState
	generation QuoteToken
	cancel     context.CancelFunc
	quote      *pricing.PriceQuote
	lastErr    error
	result     *SubmitResult
	updatedAt  time.Time
}

func newSurface(tenantID, id string, now func() time.Time) *Surface {
	return &Surface{
		tenantID:  tenantID,
		id:        id,
		now:       now,
		state:     enums.SurfaceStateIdle,
		updatedAt: now(),
	}
}

// BeginQuote supersedes any in-flight quote and moves to Quoting. The returned
// context is cancelled when a newer quote starts or the surface closes.
func (s *Surface) BeginQuote(ctx context.Context) (context.Context, QuoteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CanQuote() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout cannot be quoted in state "+s.state.String())
	}
	if s.cancel != nil {
		s.cancel()
	}

	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	s.state = enums.SurfaceStateQuoting
	s.quote = nil
	s.lastErr = nil
	s.result = nil
	s.updatedAt = s.now()
	return qctx, s.generation, nil
}

// CompleteQuote applies a quote response. It reports false when the response
// was superseded and therefore discarded.
func (s *Surface) CompleteQuote(token QuoteToken, quote pricing.PriceQuote, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.generation || s.state != enums.SurfaceStateQuoting {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.updatedAt = s.now()
	if err != nil {
		s.state = enums.SurfaceStateQuoteFailed
		s.lastErr = err
		return true
	}
	q := quote
	s.state = enums.SurfaceStateQuoted
	s.quote = &q
	return true
}

// BeginSubmit moves Quoted to Submitting when the current quote was computed
// for fingerprint.
func (s *Surface) BeginSubmit(fingerprint string) (pricing.PriceQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSubmittable(fingerprint); err != nil {
		return pricing.PriceQuote{}, err
	}
	s.state = enums.SurfaceStateSubmitting
	s.updatedAt = s.now()
	return *s.quote, nil
}

// QuoteFor returns the current quote if the surface could submit fingerprint.
func (s *Surface) QuoteFor(fingerprint string) (pricing.PriceQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSubmittable(fingerprint); err != nil {
		return pricing.PriceQuote{}, err
	}
	return *s.quote, nil
}

func (s *Surface) checkSubmittable(fingerprint string) error {
	if s.state != enums.SurfaceStateQuoted || s.quote == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "a successful quote is required before submitting").
			WithDetails(map[string]string{"state": s.state.String()})
	}
	if s.quote.Fingerprint != fingerprint {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout inputs changed since the last quote")
	}
	return nil
}

// CompleteSubmit records the submission outcome.
func (s *Surface) CompleteSubmit(result SubmitResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enums.SurfaceStateSubmitting {
		return
	}
	s.updatedAt = s.now()
	if err != nil {
		s.state = enums.SurfaceStateSubmitFailed
		s.lastErr = err
		return
	}
	r := result
	s.state = enums.SurfaceStateSubmitted
	s.result = &r
}

// Close cancels any in-flight quote; later responses are discarded.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.state = enums.SurfaceStateClosed
	s.updatedAt = s.now()
}

func (s *Surface) State() enums.SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SurfaceView is the caller-facing snapshot of a surface.
type SurfaceView struct {
	TenantID   string              `json:"tenantId"`
	SurfaceID  string              `json:"surfaceId"`
	State      enums.SurfaceState  `json:"state"`
	Display    string              `json:"display,omitempty"`
	Quote      *pricing.PriceQuote `json:"quote,omitempty"`
	CanSubmit  bool                `json:"canSubmit"`
	Error      *types.APIError     `json:"error,omitempty"`
	Order      *SubmitResult       `json:"order,omitempty"`
	Superseded bool                `json:"superseded,omitempty"`
	Notices    []types.Notice      `json:"notices,omitempty"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// View snapshots the surface. While Quoting no total is exposed.
func (s *Surface) View() SurfaceView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SurfaceView{
		TenantID:  s.tenantID,
		SurfaceID: s.id,
		State:     s.state,
		CanSubmit: s.state == enums.SurfaceStateQuoted,
		UpdatedAt: s.updatedAt,
	}
	if s.state == enums.SurfaceStateQuoting {
		view.Display = DisplayCalculating
	}
	if s.quote != nil {
		q := *s.quote
		view.Quote = &q
	}
	if s.result != nil {
		r := *s.result
		view.Order = &r
	}
	if s.lastErr != nil {
		view.Error = publicError(s.lastErr)
	}
	return view
}

func (s *Surface) lastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func publicError(err error) *types.APIError {
	typed := pkgerrors.As(err)
	if typed == nil {
		meta := pkgerrors.MetadataFor(pkgerrors.CodeInternal)
		return &types.APIError{Code: string(pkgerrors.CodeInternal), Message: meta.PublicMessage}
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	apiErr := &types.APIError{Code: string(typed.Code()), Message: meta.PublicMessage}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}
	return apiErr
}
