package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/api/middleware"
	"github.com/greenmart/greenmart-backend/api/responses"
	"github.com/greenmart/greenmart-backend/api/validators"
	cartsvc "github.com/greenmart/greenmart-backend/internal/cart"
	checkoutsvc "github.com/greenmart/greenmart-backend/internal/checkout"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
	"github.com/greenmart/greenmart-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID     uuid.UUID `json:"address_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=COD ONLINE"`
	PromoCode     *string   `json:"promo_code"`
}

type directBuyRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	VariantSKU    *string   `json:"variant_sku"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	AddressID     uuid.UUID `json:"address_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=COD ONLINE"`
	PromoCode     *string   `json:"promo_code"`
}

type placedOrderResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	IsPaid        bool                `json:"is_paid"`
	Total         decimal.Decimal     `json:"total"`
}

func newPlacedOrderResponse(order *models.Order) placedOrderResponse {
	return placedOrderResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		Total:         order.TotalPrice,
	}
}

// Checkout places an order from the user's cart. The cart is emptied only
// after the order committed.
func Checkout(carts cartsvc.Service, checkouts checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		owner := cartsvc.UserOwner(userID)
		items, err := carts.ResolveLineItems(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := checkouts.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			UserID:        userID,
			AddressID:     payload.AddressID,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			PromoCode:     payload.PromoCode,
			Items:         items,
			DirectBuy:     false,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := carts.Clear(r.Context(), owner); err != nil && logg != nil {
			ctx := logg.WithOrderID(r.Context(), order.ID.String())
			logg.Error(ctx, "clear cart after checkout", err)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPlacedOrderResponse(order))
	}
}

// CheckoutDirect places a buy-now order for a single selection without
// touching the cart.
func CheckoutDirect(checkouts checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload directBuyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := checkouts.ResolveDirectBuy(r.Context(), checkoutsvc.DirectBuyInput{
			ProductID:  payload.ProductID,
			VariantSKU: payload.VariantSKU,
			Quantity:   payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := checkouts.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			UserID:        userID,
			AddressID:     payload.AddressID,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			PromoCode:     payload.PromoCode,
			Items:         items,
			DirectBuy:     true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPlacedOrderResponse(order))
	}
}
