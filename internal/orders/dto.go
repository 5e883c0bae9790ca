package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
)

// ItemDTO is one frozen order line.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AddressDTO is the shipping snapshot attached to an order view.
type AddressDTO struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
}

// OrderDTO is the full order view. Subtotal and Discount are recomputed from
// the frozen lines and the stored total, never from live catalog prices.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	IsPaid        bool                `json:"is_paid"`
	Items         []ItemDTO           `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	PromoCode     *string             `json:"promo_code,omitempty"`
	Address       *AddressDTO         `json:"address,omitempty"`
	PlacedAt      time.Time           `json:"placed_at"`
}

// ListResult is one page of a user's order history.
type ListResult struct {
	Items      []OrderDTO `json:"items"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// NewOrderDTO projects an order row. The discount is whatever the frozen
// subtotal exceeds the stored total by; it reproduces the promo deduction
// applied at placement without touching the promo's current state.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		Items:         make([]ItemDTO, 0, len(order.Items)),
		Subtotal:      decimal.Zero,
		Total:         order.TotalPrice,
		PlacedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.Total(),
		})
		dto.Subtotal = dto.Subtotal.Add(item.Total())
	}

	dto.Discount = dto.Subtotal.Sub(order.TotalPrice)
	if dto.Discount.IsNegative() {
		dto.Discount = decimal.Zero
	}

	if order.PromoCode != nil {
		code := order.PromoCode.Code
		dto.PromoCode = &code
	}
	if order.Address != nil {
		dto.Address = &AddressDTO{
			FullName:    order.Address.FullName,
			Phone:       order.Address.Phone,
			AddressLine: order.Address.AddressLine,
			City:        order.Address.City,
			State:       order.Address.State,
			PostalCode:  order.Address.PostalCode,
			Country:     order.Address.Country,
		}
	}
	return dto
}

// TrackingStep is one stage of the fulfilment timeline.
type TrackingStep struct {
	Status  enums.OrderStatus `json:"status"`
	Reached bool              `json:"reached"`
	Current bool              `json:"current"`
}

// Tracking is the timeline view of an order's progress. A cancelled order
// shows the single cancelled step instead of the delivery track.
type Tracking struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
	Steps   []TrackingStep    `json:"steps"`
}

var trackingTrack = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
}

// NewTracking builds the timeline for an order.
func NewTracking(order *models.Order) *Tracking {
	t := &Tracking{OrderID: order.ID, Status: order.Status}
	if order.Status == enums.OrderStatusCancelled {
		t.Steps = []TrackingStep{{Status: enums.OrderStatusCancelled, Reached: true, Current: true}}
		return t
	}

	position := 0
	for i, status := range trackingTrack {
		if status == order.Status {
			position = i
			break
		}
	}
	for i, status := range trackingTrack {
		t.Steps = append(t.Steps, TrackingStep{
			Status:  status,
			Reached: i <= position,
			Current: i == position,
		})
	}
	return t
}
