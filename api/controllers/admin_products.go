package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/api/responses"
	"github.com/greenmart/greenmart-backend/api/validators"
	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/pkg/logger"
)

type createProductRequest struct {
	CategoryID    uuid.UUID        `json:"category_id" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" validate:"required"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         int              `json:"stock" validate:"min=0"`
	IsFeatured    bool             `json:"is_featured"`
	Available     bool             `json:"available"`
}

// AdminProductCreate handles staff product creation.
func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			CategoryID:    payload.CategoryID,
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			DiscountPrice: payload.DiscountPrice,
			Stock:         payload.Stock,
			IsFeatured:    payload.IsFeatured,
			Available:     payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	ClearDiscount bool             `json:"clear_discount"`
	Stock         *int             `json:"stock"`
	IsFeatured    *bool            `json:"is_featured"`
	Available     *bool            `json:"available"`
}

// AdminProductUpdate handles staff product mutation.
func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, catalog.UpdateProductInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			DiscountPrice: payload.DiscountPrice,
			ClearDiscount: payload.ClearDiscount,
			Stock:         payload.Stock,
			IsFeatured:    payload.IsFeatured,
			Available:     payload.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type addVariantRequest struct {
	Price         decimal.Decimal   `json:"price" validate:"required"`
	DiscountPrice *decimal.Decimal  `json:"discount_price"`
	Stock         int               `json:"stock" validate:"min=0"`
	Values        map[string]string `json:"values" validate:"required,min=1"`
}

// AdminVariantAdd handles attaching a purchasable configuration.
func AdminVariantAdd(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddVariant(r.Context(), productID, catalog.AddVariantInput{
			Price:         payload.Price,
			DiscountPrice: payload.DiscountPrice,
			Stock:         payload.Stock,
			Values:        payload.Values,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
