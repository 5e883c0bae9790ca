package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenmart/greenmart-backend/api/controllers"
	"github.com/greenmart/greenmart-backend/api/middleware"
	addresssvc "github.com/greenmart/greenmart-backend/internal/address"
	cartsvc "github.com/greenmart/greenmart-backend/internal/cart"
	"github.com/greenmart/greenmart-backend/internal/catalog"
	checkoutsvc "github.com/greenmart/greenmart-backend/internal/checkout"
	orderssvc "github.com/greenmart/greenmart-backend/internal/orders"
	promosvc "github.com/greenmart/greenmart-backend/internal/promo"
	wishlistsvc "github.com/greenmart/greenmart-backend/internal/wishlist"
	"github.com/greenmart/greenmart-backend/pkg/config"
	"github.com/greenmart/greenmart-backend/pkg/logger"
	"github.com/greenmart/greenmart-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Catalog  catalog.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   orderssvc.Service
	Wishlist wishlistsvc.Service
	Address  addresssvc.Service
	Promo    promosvc.Service
}

// Pinger is the readiness probe surface both the database client and the
// redis client expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries the infrastructure handles the router needs beyond
// the domain services.
type Dependencies struct {
	DB       Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svcs Services,
	deps Dependencies,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Public storefront. The cart works pre-login through the session header
	// and follows the user once a bearer token is presented.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.CartSession(logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(svcs.Catalog, logg))
			r.Get("/search", controllers.ProductsSearch(svcs.Catalog, logg))
			r.Get("/options", controllers.VariantOptions(svcs.Catalog, logg))
			r.Get("/{slug}", controllers.ProductBySlug(svcs.Catalog, logg))
		})

		r.Get("/categories/{slug}/products", controllers.ProductsByCategory(svcs.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Post("/promos/validate", controllers.PromoValidate(svcs.Promo, logg))
	})

	// Authenticated surface.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/cart/merge", controllers.CartMerge(svcs.Cart, logg))
		r.Post("/checkout", controllers.Checkout(svcs.Cart, svcs.Checkout, logg))
		r.Post("/checkout/direct", controllers.CheckoutDirect(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Get("/{orderId}/invoice", controllers.OrderInvoice(svcs.Orders, logg))
			r.Get("/{orderId}/tracking", controllers.OrderTracking(svcs.Orders, logg))
			r.Post("/{orderId}/pay", controllers.OrderPay(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(svcs.Wishlist, logg))
			r.Delete("/{itemId}", controllers.WishlistRemove(svcs.Wishlist, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svcs.Address, logg))
			r.Post("/", controllers.AddressCreate(svcs.Address, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(svcs.Address, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svcs.Address, logg))
			r.Post("/{addressId}/default", controllers.AddressSetDefault(svcs.Address, logg))
		})
	})

	// Staff surface.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(svcs.Catalog, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(svcs.Catalog, logg))
			r.Post("/{productId}/variants", controllers.AdminVariantAdd(svcs.Catalog, logg))
		})

		r.Route("/promos", func(r chi.Router) {
			r.Get("/", controllers.AdminPromoList(svcs.Promo, logg))
			r.Post("/", controllers.AdminPromoCreate(svcs.Promo, logg))
			r.Post("/{promoId}/deactivate", controllers.AdminPromoDeactivate(svcs.Promo, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(svcs.Orders, logg))
			r.Post("/{orderId}/pay", controllers.AdminOrderMarkPaid(svcs.Orders, logg))
		})
	})

	return r
}
