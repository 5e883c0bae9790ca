package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// EffectiveUnitPrice resolves the price a buyer pays for one unit. The chain
// is variant discount, then variant price, then product discount, then
// product price. Every pricing read in the codebase goes through here so the
// fallback order cannot drift between cart, checkout and catalog views.
func EffectiveUnitPrice(variant *models.ProductVariant, product *models.Product) decimal.Decimal {
	if variant != nil {
		if variant.DiscountPrice != nil && variant.DiscountPrice.IsPositive() {
			return *variant.DiscountPrice
		}
		if variant.Price.IsPositive() {
			return variant.Price
		}
	}
	if product == nil {
		return decimal.Zero
	}
	if product.DiscountPrice != nil && product.DiscountPrice.IsPositive() {
		return *product.DiscountPrice
	}
	return product.Price
}
