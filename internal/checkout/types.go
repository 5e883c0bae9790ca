package checkout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/enums"
)

// LineItem is one resolved, priced line heading into order placement. The
// unit price is already the effective price; placement freezes it onto the
// order item untouched.
type LineItem struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// lockKey identifies the stock-bearing row. Sorting line items by this key
// before locking gives every transaction the same lock order, which is what
// keeps concurrent checkouts deadlock-free.
func (li LineItem) lockKey() string {
	if li.VariantID != nil {
		return "v:" + li.VariantID.String()
	}
	return "p:" + li.ProductID.String()
}

// Total returns the line total.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PlaceOrderInput carries everything PlaceOrder needs. DirectBuy marks a
// buy-now purchase; the flag is supplied by the caller, never read from any
// session state.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	PromoCode     *string
	Items         []LineItem
	DirectBuy     bool
}

// DirectBuyInput addresses a single buy-now selection.
type DirectBuyInput struct {
	ProductID  uuid.UUID
	VariantSKU *string
	Quantity   int
}

// InsufficientStockError reports the first line that could not be covered by
// the locked stock row. The whole order rolls back when this is returned.
type InsufficientStockError struct {
	Item      LineItem
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Item.Name, e.Item.Quantity, e.Available)
}
