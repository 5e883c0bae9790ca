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

type createPromoRequest struct {
	Code               string          `json:"code" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"required"`
	StartDate          time.Time       `json:"start_date" validate:"required"`
	EndDate            *time.Time      `json:"end_date"`
	UsageLimit         int             `json:"usage_limit" validate:"required,min=1"`
}

// AdminPromoCreate handles staff promo creation.
func AdminPromoCreate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Create(r.Context(), promosvc.CreatePromoInput{
			Code:               payload.Code,
			DiscountPercentage: payload.DiscountPercentage,
			StartDate:          payload.StartDate,
			EndDate:            payload.EndDate,
			UsageLimit:         payload.UsageLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// AdminPromoList handles the staff promo overview.
func AdminPromoList(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

// AdminPromoDeactivate retires a code ahead of its window.
func AdminPromoDeactivate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := validators.ParseUUIDParam(r, "promoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), promoID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
