package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariantOption is an axis a product can vary on, e.g. Color or Size.
type VariantOption struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null;uniqueIndex"`
	Values    []VariantValue `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (o *VariantOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// VariantValue is one concrete choice for an option, e.g. Color=Red.
type VariantValue struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OptionID  uuid.UUID     `gorm:"column:option_id;type:uuid;not null;index;uniqueIndex:variant_values_option_value_key"`
	Option    VariantOption `gorm:"foreignKey:OptionID"`
	Value     string        `gorm:"column:value;not null;uniqueIndex:variant_values_option_value_key"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (v *VariantValue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// ProductVariant is a purchasable configuration of a product with its own
// price, stock and SKU. A variant holds at most one value per option, and no
// two variants of the same product may share an identical value set.
type ProductVariant struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	SKU           string           `gorm:"column:sku;not null;uniqueIndex"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(10,2)"`
	Stock         int              `gorm:"column:stock;not null;default:0"`
	SoldCount     int              `gorm:"column:sold_count;not null;default:0"`
	Values        []VariantValue   `gorm:"many2many:product_variant_values"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
