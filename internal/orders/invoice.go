package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// Invoice is the billing projection of a committed order. Every number comes
// from the frozen order lines and the stored total.
type Invoice struct {
	Number   string    `json:"number"`
	IssuedAt time.Time `json:"issued_at"`
	BillTo   string    `json:"bill_to"`
	Order    *OrderDTO `json:"order"`
}

// NewInvoice builds the invoice for an order. The number derives from the
// order ID so re-requesting an invoice never mints a new one.
func NewInvoice(order *models.Order) *Invoice {
	shortID := strings.ToUpper(strings.ReplaceAll(order.ID.String(), "-", ""))[:12]
	billTo := order.User.Name
	if order.Address != nil {
		billTo = order.Address.FullName
	}
	return &Invoice{
		Number:   "INV-" + shortID,
		IssuedAt: order.CreatedAt,
		BillTo:   billTo,
		Order:    NewOrderDTO(order),
	}
}

// RenderText writes the invoice as plain text for email bodies and receipts.
func (inv *Invoice) RenderText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s\n", inv.Number)
	fmt.Fprintf(&b, "Issued %s\n", inv.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Bill to: %s\n\n", inv.BillTo)

	for _, item := range inv.Order.Items {
		fmt.Fprintf(&b, "%-40s %3d x %10s = %10s\n",
			item.Name, item.Quantity, item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2))
	}

	fmt.Fprintf(&b, "\n%-40s %s\n", "Subtotal", inv.Order.Subtotal.StringFixed(2))
	if inv.Order.Discount.IsPositive() {
		label := "Discount"
		if inv.Order.PromoCode != nil {
			label = "Discount (" + *inv.Order.PromoCode + ")"
		}
		fmt.Fprintf(&b, "%-40s -%s\n", label, inv.Order.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "%-40s %s\n", "Total", inv.Order.Total.StringFixed(2))

	payment := string(inv.Order.PaymentMethod)
	if inv.Order.IsPaid {
		payment += " (paid)"
	} else {
		payment += " (due)"
	}
	fmt.Fprintf(&b, "%-40s %s\n", "Payment", payment)
	return b.String()
}
