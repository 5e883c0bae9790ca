package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the canonical catalog listing. Price and Stock apply only when
// the product carries no variants; otherwise the variant rows own both.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Name          string           `gorm:"column:name;not null"`
	Slug          string           `gorm:"column:slug;not null;uniqueIndex"`
	Description   string           `gorm:"column:description;not null;default:''"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(10,2)"`
	Stock         int              `gorm:"column:stock;not null;default:0"`
	SoldCount     int              `gorm:"column:sold_count;not null;default:0"`
	Views         int              `gorm:"column:views;not null;default:0"`
	IsFeatured    bool             `gorm:"column:is_featured;not null;default:false"`
	Available     bool             `gorm:"column:available;not null;default:true"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasVariants reports whether variant rows own pricing and stock. Callers
// must have preloaded Variants for this to be meaningful.
func (p *Product) HasVariants() bool {
	return p != nil && len(p.Variants) > 0
}
