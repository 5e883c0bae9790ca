package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// ProductDTO is the catalog read shape returned to clients.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	CategoryID    uuid.UUID        `json:"category_id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	// EffectivePrice is the base-product fallback price. Variant-priced
	// products surface per-variant prices in Variants.
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
	SoldCount      int             `json:"sold_count"`
	Views          int             `json:"views"`
	IsFeatured     bool            `json:"is_featured"`
	Available      bool            `json:"available"`
	Variants       []VariantDTO    `json:"variants,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// VariantDTO is the purchasable-configuration read shape.
type VariantDTO struct {
	ID             uuid.UUID         `json:"id"`
	SKU            string            `json:"sku"`
	Price          decimal.Decimal   `json:"price"`
	DiscountPrice  *decimal.Decimal  `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal   `json:"effective_price"`
	Stock          int               `json:"stock"`
	Values         map[string]string `json:"values,omitempty"`
}

// NewProductDTO maps a product row (with preloaded variants) to its DTO.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             p.ID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: EffectiveUnitPrice(nil, p),
		Stock:          p.Stock,
		SoldCount:      p.SoldCount,
		Views:          p.Views,
		IsFeatured:     p.IsFeatured,
		Available:      p.Available,
		CreatedAt:      p.CreatedAt,
	}
	for i := range p.Variants {
		dto.Variants = append(dto.Variants, newVariantDTO(&p.Variants[i], p))
	}
	return dto
}

func newVariantDTO(v *models.ProductVariant, p *models.Product) VariantDTO {
	dto := VariantDTO{
		ID:             v.ID,
		SKU:            v.SKU,
		Price:          v.Price,
		DiscountPrice:  v.DiscountPrice,
		EffectivePrice: EffectiveUnitPrice(v, p),
		Stock:          v.Stock,
	}
	if len(v.Values) > 0 {
		dto.Values = make(map[string]string, len(v.Values))
		for _, val := range v.Values {
			dto.Values[val.Option.Name] = val.Value
		}
	}
	return dto
}
