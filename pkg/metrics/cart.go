package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Quote outcomes recorded by checkout surfaces.
const (
	QuoteOutcomeQuoted     = "quoted"
	QuoteOutcomeFailed     = "failed"
	QuoteOutcomeSuperseded = "superseded"
	QuoteOutcomeCancelled  = "cancelled"
)

// CartMetrics records cart persistence and checkout activity.
type CartMetrics struct {
	storageFallbacks *prometheus.CounterVec
	quotesIssued     prometheus.Counter
	quoteOutcomes    *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	softMisses       prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	storageFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_fallbacks_total",
		Help: "Cart store operations served from the in-memory session overlay.",
	}, []string{"op"})
	quotesIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_quotes_issued_total",
		Help: "Quote requests sent to the pricing collaborators.",
	})
	quoteOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_quote_outcomes_total",
		Help: "Quote responses by outcome.",
	}, []string{"outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by mode and result.",
	}, []string{"mode", "result"})
	softMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_hydration_soft_misses_total",
		Help: "Cart lines excluded from hydration because their product did not resolve.",
	})
	reg.MustRegister(storageFallbacks, quotesIssued, quoteOutcomes, submissions, softMisses)
	return &CartMetrics{
		storageFallbacks: storageFallbacks,
		quotesIssued:     quotesIssued,
		quoteOutcomes:    quoteOutcomes,
		submissions:      submissions,
		softMisses:       softMisses,
	}
}

// IncStorageFallback counts a store read or write served from memory.
func (c *CartMetrics) IncStorageFallback(op string) {
	if c == nil || c.storageFallbacks == nil {
		return
	}
	c.storageFallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncQuoteIssued counts a remote quote round-trip.
func (c *CartMetrics) IncQuoteIssued() {
	if c == nil || c.quotesIssued == nil {
		return
	}
	c.quotesIssued.Inc()
}

// IncQuoteOutcome counts how a quote response was handled.
func (c *CartMetrics) IncQuoteOutcome(outcome string) {
	if c == nil || c.quoteOutcomes == nil {
		return
	}
	c.quoteOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSubmission counts an order submission attempt.
func (c *CartMetrics) IncSubmission(mode, result string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(mode), normalizeLabel(result)).Inc()
}

// AddSoftMisses counts unresolved lines seen during hydration.
func (c *CartMetrics) AddSoftMisses(n int) {
	if c == nil || c.softMisses == nil || n <= 0 {
		return
	}
	c.softMisses.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
