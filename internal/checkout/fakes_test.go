package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/internal/lineitem"
	"github.com/angelmondragon/storefront-cart/internal/pricing"
)

type fakeCart struct {
	mu       sync.Mutex
	lines    map[string][]lineitem.LineIntent
	cleared  [][]lineitem.Key
	clearErr error
}

func newFakeCart() *fakeCart {
	return &fakeCart{lines: map[string][]lineitem.LineIntent{}}
}

func (f *fakeCart) Lines(_ context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lineitem.Clone(f.lines[tenantID]), nil
}

func (f *fakeCart) ClearLines(_ context.Context, tenantID string, keys []lineitem.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, keys)
	if f.clearErr != nil {
		return f.clearErr
	}
	remaining := f.lines[tenantID]
	for _, key := range keys {
		remaining = lineitem.Remove(remaining, key)
	}
	f.lines[tenantID] = remaining
	return nil
}

type fakeHydrator struct {
	products map[string]catalog.ProductSnapshot
	err      error
}

func (f *fakeHydrator) Hydrate(_ context.Context, lines []lineitem.LineIntent) (catalog.Result, error) {
	if f.err != nil {
		return catalog.Result{}, f.err
	}
	return catalog.Hydrate(lines, f.products), nil
}

type fixedQuoter struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (q *fixedQuoter) Quote(_ context.Context, in pricing.Input) (pricing.PriceQuote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return pricing.PriceQuote{}, q.err
	}
	var total int64
	for _, line := range in.Lines {
		total += int64(line.Quantity) * line.UnitPriceCents
	}
	return pricing.PriceQuote{SubtotalCents: total, TotalCents: total, Fingerprint: in.Fingerprint()}, nil
}

// gatedQuoter holds each call until its quantity gate is released, ignoring
// cancellation so a stale response can arrive late.
type gatedQuoter struct {
	mu      sync.Mutex
	gates   map[int]chan struct{}
	started chan int
}

func newGatedQuoter() *gatedQuoter {
	return &gatedQuoter{gates: map[int]chan struct{}{}, started: make(chan int, 4)}
}

func (q *gatedQuoter) gate(qty int) chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.gates[qty]
	if !ok {
		ch = make(chan struct{})
		q.gates[qty] = ch
	}
	return ch
}

func (q *gatedQuoter) release(qty int) {
	close(q.gate(qty))
}

func (q *gatedQuoter) Quote(_ context.Context, in pricing.Input) (pricing.PriceQuote, error) {
	qty := in.Lines[0].Quantity
	q.started <- qty
	<-q.gate(qty)
	total := int64(qty) * in.Lines[0].UnitPriceCents
	return pricing.PriceQuote{SubtotalCents: total, TotalCents: total, Fingerprint: in.Fingerprint()}, nil
}

type fakeSubmitter struct {
	mu     sync.Mutex
	drafts []OrderDraft
	err    error
}

func (f *fakeSubmitter) SubmitOrder(_ context.Context, draft OrderDraft) (SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return SubmitResult{}, f.err
	}
	return SubmitResult{OrderID: "ord-1", Message: "order received"}, nil
}

var errBoom = errors.New("boom")

func testProducts() map[string]catalog.ProductSnapshot {
	return map[string]catalog.ProductSnapshot{
		"p1": {
			ID: "p1", Name: "Tee", PriceCents: 1000, StockCeiling: 10, Physical: true, Active: true,
			Variants: catalog.VariantOptions{Colors: []string{"red"}},
		},
		"ebook": {ID: "ebook", Name: "Ebook", PriceCents: 500, StockCeiling: 100, Active: true},
	}
}
