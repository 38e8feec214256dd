package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmorrison-au/teashop-backend/api/controllers"
	webhookcontrollers "github.com/pmorrison-au/teashop-backend/api/controllers/webhooks"
	"github.com/pmorrison-au/teashop-backend/api/middleware"
	"github.com/pmorrison-au/teashop-backend/internal/cart"
	catalogsvc "github.com/pmorrison-au/teashop-backend/internal/catalog"
	checkoutsvc "github.com/pmorrison-au/teashop-backend/internal/checkout"
	stripewebhook "github.com/pmorrison-au/teashop-backend/internal/webhooks/stripe"
	"github.com/pmorrison-au/teashop-backend/pkg/config"
	"github.com/pmorrison-au/teashop-backend/pkg/db"
	"github.com/pmorrison-au/teashop-backend/pkg/logger"
	"github.com/pmorrison-au/teashop-backend/pkg/redis"
	"github.com/pmorrison-au/teashop-backend/pkg/session"
	"github.com/pmorrison-au/teashop-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	sessionStore *session.Store,
	catalogService catalogsvc.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, redisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(sessionStore, cfg.Session, logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/{typeSlug}/{slug}", controllers.GetProduct(catalogService, logg))
		})
		r.Get("/categories/{slug}", controllers.GetCategory(catalogService, logg))
		r.Get("/product-types/{slug}", controllers.GetProductType(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Delete("/items/{slug}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutBegin(checkoutService, logg))
			r.Post("/details", controllers.CheckoutDetails(checkoutService, logg))
			r.Get("/success", controllers.CheckoutConfirm(checkoutService, logg))
		})
	})

	return r
}
