package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// Repository wires together wishlist persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns the user's bookmarks with catalog rows attached,
// newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindForUser loads one bookmark only when the user owns it.
func (r *Repository) FindForUser(ctx context.Context, itemID, userID uuid.UUID) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		First(&item, "id = ? AND user_id = ?", itemID, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindProduct loads the product a bookmark points at.
func (r *Repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SelectionExists reports whether the user already saved this selection.
// The check handles the nil-variant case the unique index cannot, since
// NULLs never collide in a unique index.
func (r *Repository) SelectionExists(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID != nil {
		q = q.Where("variant_id = ?", *variantID)
	} else {
		q = q.Where("variant_id IS NULL")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a bookmark. The unique triple on the table rejects repeats.
func (r *Repository) Create(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Delete removes one bookmark.
func (r *Repository) Delete(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.WishlistItem{}, "id = ?", itemID).Error
}
