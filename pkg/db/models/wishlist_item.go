package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem bookmarks a product, optionally pinned to a variant. The
// (user, product, variant) triple is unique; there is no other invariant.
type WishlistItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:wishlist_items_user_product_variant_key"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index;uniqueIndex:wishlist_items_user_product_variant_key"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid;uniqueIndex:wishlist_items_user_product_variant_key"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
