package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-cart/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/storefront-cart/api/controllers/checkout"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-cart/internal/checkout"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Deps groups what the router needs. Pingers with a nil value are skipped by
// the readiness probe.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Pingers         map[string]controllers.Pinger
	Gatherer        prometheus.Gatherer
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/stores/{storeCode}", func(r chi.Router) {
		r.Use(middleware.Tenant(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.CartService, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.CartService, logg))
			r.Post("/lines", cartcontrollers.CartAddLine(deps.CartService, logg))
			r.Put("/lines", cartcontrollers.CartSetLineQuantity(deps.CartService, logg))
			r.Delete("/lines", cartcontrollers.CartRemoveLine(deps.CartService, logg))
			r.Post("/prune", cartcontrollers.CartPrune(deps.CartService, logg))
		})

		r.Delete("/checkout", checkoutcontrollers.CheckoutLeaveStore(deps.CheckoutService, logg))
		r.Route("/checkout/{surfaceID}", func(r chi.Router) {
			r.Get("/", checkoutcontrollers.CheckoutSurface(deps.CheckoutService, logg))
			r.Delete("/", checkoutcontrollers.CheckoutAbandon(deps.CheckoutService, logg))
			r.Post("/quote", checkoutcontrollers.CheckoutQuote(deps.CheckoutService, logg))
			r.Post("/submit", checkoutcontrollers.CheckoutSubmit(deps.CheckoutService, logg))
		})
	})

	return r
}
