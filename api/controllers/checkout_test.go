package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/api/middleware"
	cartsvc "github.com/greenmart/greenmart-backend/internal/cart"
	checkoutsvc "github.com/greenmart/greenmart-backend/internal/checkout"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

type stubCheckoutCarts struct {
	items   []checkoutsvc.LineItem
	err     error
	cleared bool
}

func (s *stubCheckoutCarts) Get(ctx context.Context, owner cartsvc.Owner) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutCarts) AddItem(ctx context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutCarts) UpdateQuantity(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutCarts) RemoveItem(ctx context.Context, owner cartsvc.Owner, itemID uuid.UUID) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutCarts) Clear(ctx context.Context, owner cartsvc.Owner) error {
	s.cleared = true
	return nil
}

func (s *stubCheckoutCarts) MergeSessionCart(ctx context.Context, userID uuid.UUID, sessionKey string) (*cartsvc.CartDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutCarts) ResolveLineItems(ctx context.Context, owner cartsvc.Owner) ([]checkoutsvc.LineItem, error) {
	return s.items, s.err
}

type stubCheckouts struct {
	placed  *checkoutsvc.PlaceOrderInput
	order   *models.Order
	err     error
	resolve func(ctx context.Context, input checkoutsvc.DirectBuyInput) ([]checkoutsvc.LineItem, error)
}

func (s *stubCheckouts) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	s.placed = &input
	return s.order, s.err
}

func (s *stubCheckouts) ResolveDirectBuy(ctx context.Context, input checkoutsvc.DirectBuyInput) ([]checkoutsvc.LineItem, error) {
	if s.resolve != nil {
		return s.resolve(ctx, input)
	}
	panic("unimplemented")
}

func checkoutBody() string {
	return `{"address_id":"` + uuid.NewString() + `","payment_method":"COD"}`
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
}

func TestCheckoutRequiresAuth(t *testing.T) {
	handler := Checkout(&stubCheckoutCarts{}, &stubCheckouts{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
		TotalPrice:    decimal.RequireFromString("42.50"),
	}
	carts := &stubCheckoutCarts{
		items: []checkoutsvc.LineItem{
			{ProductID: uuid.New(), Name: "Olive Oil", UnitPrice: decimal.RequireFromString("42.50"), Quantity: 1},
		},
	}
	checkouts := &stubCheckouts{order: order}
	handler := Checkout(carts, checkouts, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/checkout", checkoutBody()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if checkouts.placed == nil || checkouts.placed.DirectBuy {
		t.Fatalf("expected cart checkout to place a non direct-buy order")
	}
	if !carts.cleared {
		t.Fatal("expected cart to be cleared after placement")
	}

	var envelope struct {
		Data placedOrderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderID != order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.OrderID)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	carts := &stubCheckoutCarts{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}
	handler := Checkout(carts, &stubCheckouts{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/checkout", checkoutBody()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutDirectMarksDirectBuy(t *testing.T) {
	productID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
		IsPaid:        true,
		TotalPrice:    decimal.RequireFromString("9.99"),
	}
	checkouts := &stubCheckouts{
		order: order,
		resolve: func(ctx context.Context, input checkoutsvc.DirectBuyInput) ([]checkoutsvc.LineItem, error) {
			if input.ProductID != productID {
				t.Fatalf("unexpected product id: %s", input.ProductID)
			}
			return []checkoutsvc.LineItem{
				{ProductID: input.ProductID, Name: "Olive Oil", UnitPrice: decimal.RequireFromString("9.99"), Quantity: input.Quantity},
			}, nil
		},
	}
	handler := CheckoutDirect(checkouts, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":1,"address_id":"` + uuid.NewString() + `","payment_method":"COD"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/checkout/direct", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if checkouts.placed == nil || !checkouts.placed.DirectBuy {
		t.Fatal("expected direct-buy flag on placement input")
	}

	var envelope struct {
		Data placedOrderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.IsPaid {
		t.Fatal("expected placed order to surface is_paid")
	}
}
