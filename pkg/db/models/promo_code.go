package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoCode is a staff-created percentage discount with a validity window and
// a remaining-use budget. UsageLimit counts redemptions left; a successful
// order decrements it and forces Active=false when it hits zero. Codes are
// consumed, never deleted, so committed orders keep their reference.
type PromoCode struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code               string          `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	Active             bool            `gorm:"column:active;not null;default:true"`
	StartDate          time.Time       `gorm:"column:start_date;not null"`
	EndDate            *time.Time      `gorm:"column:end_date"`
	UsageLimit         int             `gorm:"column:usage_limit;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
