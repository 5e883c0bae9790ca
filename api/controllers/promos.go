package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/api/responses"
	"github.com/greenmart/greenmart-backend/api/validators"
	promosvc "github.com/greenmart/greenmart-backend/internal/promo"
	"github.com/greenmart/greenmart-backend/pkg/logger"
)

type validatePromoRequest struct {
	Code     string           `json:"code" validate:"required"`
	Subtotal *decimal.Decimal `json:"subtotal"`
}

type validatePromoResponse struct {
	Code               string           `json:"code"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	Discount           *decimal.Decimal `json:"discount,omitempty"`
}

// PromoValidate checks a code against the redemption rules before checkout.
// The verdict is advisory; placement re-validates inside the transaction.
func PromoValidate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validatePromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promoCode, err := svc.Validate(r.Context(), payload.Code, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := validatePromoResponse{
			Code:               promoCode.Code,
			DiscountPercentage: promoCode.DiscountPercentage,
		}
		if payload.Subtotal != nil {
			discount := promosvc.DiscountAmount(*payload.Subtotal, promoCode.DiscountPercentage)
			resp.Discount = &discount
		}
		responses.WriteSuccess(w, resp)
	}
}
