package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/enums"
)

// Order is the durable record of a committed sale. Rows are immutable after
// creation except for the Status and IsPaid transitions.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	User          User                `gorm:"foreignKey:UserID"`
	AddressID     *uuid.UUID          `gorm:"column:address_id;type:uuid"`
	Address       *Address            `gorm:"foreignKey:AddressID;constraint:OnDelete:SET NULL"`
	TotalPrice    decimal.Decimal     `gorm:"column:total_price;type:numeric(10,2);not null"`
	PromoCodeID   *uuid.UUID          `gorm:"column:promo_code_id;type:uuid"`
	PromoCode     *PromoCode          `gorm:"foreignKey:PromoCodeID;constraint:OnDelete:SET NULL"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	IsPaid        bool                `gorm:"column:is_paid;not null;default:false"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
