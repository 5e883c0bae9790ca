package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	addresssvc "github.com/greenmart/greenmart-backend/internal/address"
	cartsvc "github.com/greenmart/greenmart-backend/internal/cart"
	"github.com/greenmart/greenmart-backend/internal/catalog"
	checkoutsvc "github.com/greenmart/greenmart-backend/internal/checkout"
	orderssvc "github.com/greenmart/greenmart-backend/internal/orders"
	promosvc "github.com/greenmart/greenmart-backend/internal/promo"
	wishlistsvc "github.com/greenmart/greenmart-backend/internal/wishlist"
	pkgauth "github.com/greenmart/greenmart-backend/pkg/auth"
	"github.com/greenmart/greenmart-backend/pkg/config"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
	"github.com/greenmart/greenmart-backend/pkg/logger"
	"github.com/greenmart/greenmart-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{}, nil
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) SearchProducts(ctx context.Context, query string, limit int) ([]catalog.ProductDTO, error) {
	return nil, nil
}

func (stubCatalogService) ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Purchasable, error) {
	panic("unimplemented")
}

func (stubCatalogService) ResolveVariantBySKU(ctx context.Context, sku string) (*catalog.Purchasable, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListVariantOptions(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{}, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) AddVariant(ctx context.Context, productID uuid.UUID, input catalog.AddVariantInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

type stubCartService struct {
	getFn func(ctx context.Context, owner cartsvc.Owner) (*cartsvc.CartDTO, error)
}

func (s stubCartService) Get(ctx context.Context, owner cartsvc.Owner) (*cartsvc.CartDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, owner)
	}
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(ctx context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQuantity(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, owner cartsvc.Owner) error {
	return nil
}

func (stubCartService) MergeSessionCart(ctx context.Context, userID uuid.UUID, sessionKey string) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (stubCartService) ResolveLineItems(ctx context.Context, owner cartsvc.Owner) ([]checkoutsvc.LineItem, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubCheckoutService) ResolveDirectBuy(ctx context.Context, input checkoutsvc.DirectBuyInput) ([]checkoutsvc.LineItem, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orderssvc.ListResult, error) {
	return &orderssvc.ListResult{}, nil
}

func (stubOrdersService) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) InvoiceForUser(ctx context.Context, orderID, userID uuid.UUID) (*orderssvc.Invoice, error) {
	panic("unimplemented")
}

func (stubOrdersService) TrackingForUser(ctx context.Context, orderID, userID uuid.UUID) (*orderssvc.Tracking, error) {
	panic("unimplemented")
}

func (stubOrdersService) CancelForUser(ctx context.Context, orderID, userID uuid.UUID) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) PayForUser(ctx context.Context, orderID, userID uuid.UUID) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*orderssvc.OrderDTO, error) {
	panic("unimplemented")
}

type stubWishlistService struct{}

func (stubWishlistService) List(ctx context.Context, userID uuid.UUID) ([]wishlistsvc.ItemDTO, error) {
	return []wishlistsvc.ItemDTO{}, nil
}

func (stubWishlistService) Add(ctx context.Context, userID uuid.UUID, input wishlistsvc.AddInput) (*wishlistsvc.ItemDTO, error) {
	panic("unimplemented")
}

func (stubWishlistService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return nil
}

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return []models.Address{}, nil
}

func (stubAddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return nil
}

func (stubAddressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	panic("unimplemented")
}

type stubPromoService struct{}

func (stubPromoService) Validate(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	return &models.PromoCode{Code: code}, nil
}

func (stubPromoService) Create(ctx context.Context, input promosvc.CreatePromoInput) (*models.PromoCode, error) {
	panic("unimplemented")
}

func (stubPromoService) List(ctx context.Context) ([]models.PromoCode, error) {
	return []models.PromoCode{}, nil
}

func (stubPromoService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return newTestRouterWithCart(cfg, stubCartService{})
}

func newTestRouterWithCart(cfg *config.Config, cart cartsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg,
		Services{
			Catalog:  stubCatalogService{},
			Cart:     cart,
			Checkout: stubCheckoutService{},
			Orders:   stubOrdersService{},
			Wishlist: stubWishlistService{},
			Address:  stubAddressService{},
			Promo:    stubPromoService{},
		},
		Dependencies{DB: stubPinger{}})
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/wishlist", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for wishlist got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/promos", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/promos", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestPublicCartNeedsAnIdentity(t *testing.T) {
	router := newTestRouter(testConfig())

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user or session got %d", resp.Code)
	}

	session := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	session.Header.Set("X-Cart-Session", "sess-abc")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, session)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with session header got %d", resp.Code)
	}
}

func TestStorefrontCartFollowsBearerToken(t *testing.T) {
	cfg := testConfig()
	var seen cartsvc.Owner
	router := newTestRouterWithCart(cfg, stubCartService{
		getFn: func(ctx context.Context, owner cartsvc.Owner) (*cartsvc.CartDTO, error) {
			seen = owner
			return &cartsvc.CartDTO{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token got %d", resp.Code)
	}
	if seen.UserID == nil || *seen.UserID == uuid.Nil {
		t.Fatalf("expected a user-owned cart, got %+v", seen)
	}
	if seen.SessionKey != nil {
		t.Fatalf("expected no session key for a signed-in shopper, got %q", *seen.SessionKey)
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	bad.Header.Set("Authorization", "Bearer not-a-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bad)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token got %d", resp.Code)
	}
}

func TestPromoValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/promos/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-GreenMart-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
