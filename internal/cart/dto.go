package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// ItemDTO is one cart line with its current effective price. Cart prices are
// always live; nothing is frozen until checkout.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	SKU       *string         `json:"sku,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	BasePrice decimal.Decimal `json:"base_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartDTO is the API view of a cart. Savings is how much the current
// discounts shave off the undiscounted subtotal.
type CartDTO struct {
	ID            uuid.UUID       `json:"id"`
	Items         []ItemDTO       `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Savings       decimal.Decimal `json:"savings"`
}

// NewCartDTO projects a loaded cart, pricing every line through the
// variant-to-product fallback chain.
func NewCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:       cart.ID,
		Items:    make([]ItemDTO, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
		Savings:  decimal.Zero,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		qty := decimal.NewFromInt(int64(item.Quantity))
		unit := catalog.EffectiveUnitPrice(item.Variant, &item.Product)
		base := baseUnitPrice(item)

		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      lineName(item),
			UnitPrice: unit,
			BasePrice: base,
			Quantity:  item.Quantity,
			LineTotal: unit.Mul(qty),
		}
		if item.Variant != nil {
			sku := item.Variant.SKU
			line.SKU = &sku
		}

		dto.Items = append(dto.Items, line)
		dto.TotalQuantity += item.Quantity
		dto.Subtotal = dto.Subtotal.Add(line.LineTotal)
		if base.GreaterThan(unit) {
			dto.Savings = dto.Savings.Add(base.Sub(unit).Mul(qty))
		}
	}
	return dto
}

// baseUnitPrice is the undiscounted price the line would cost: the variant
// list price when the variant carries one, the product list price otherwise.
func baseUnitPrice(item *models.CartItem) decimal.Decimal {
	if item.Variant != nil && item.Variant.Price.IsPositive() {
		return item.Variant.Price
	}
	return item.Product.Price
}

func lineName(item *models.CartItem) string {
	if item.Variant == nil || len(item.Variant.Values) == 0 {
		return item.Product.Name
	}
	values := make([]string, 0, len(item.Variant.Values))
	for _, v := range item.Variant.Values {
		values = append(values, v.Value)
	}
	sort.Strings(values)
	return item.Product.Name + " (" + strings.Join(values, " / ") + ")"
}
