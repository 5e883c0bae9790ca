package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/pagination"
)

// ListFilter narrows the browse query.
type ListFilter struct {
	CategoryID   *uuid.UUID
	FeaturedOnly bool
	Cursor       *pagination.Cursor
	Limit        int
}

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProductByID loads a product with its variants and their values.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Variants.Values").
		Preload("Variants.Values.Option").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySlug loads a product detail by its slug.
func (r *Repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Variants.Values").
		Preload("Variants.Values.Option").
		First(&product, "slug = ?", slug).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariantBySKU loads a variant by SKU together with its parent product.
func (r *Repository) FindVariantBySKU(ctx context.Context, sku string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Values").
		Preload("Values.Option").
		First(&variant, "sku = ?", sku).
		Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// IncrementViews bumps the view counter without rewriting the row.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).
		Error
}

// ListProducts returns available products ordered newest first with cursor
// pagination on (created_at, id).
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Variants").
		Where("available = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit)

	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if filter.Cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}

	var rows []models.Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SearchProducts matches available products on a case-insensitive name substring.
func (r *Repository) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("available = ?", true).
		Where("LOWER(name) LIKE ?", "%"+query+"%").
		Order("sold_count DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCategoryBySlug loads an active category.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		First(&category, "slug = ? AND is_active = ?", slug, true).
		Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SlugExists reports whether a product already claims the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ?", slug).
		Count(&count).
		Error
	return count > 0, err
}

// SKUExists reports whether a variant already claims the SKU.
func (r *Repository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("sku = ?", sku).
		Count(&count).
		Error
	return count > 0, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the full product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// CreateVariant inserts a variant and its value links.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) (*models.ProductVariant, error) {
	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		return nil, err
	}
	return variant, nil
}

// FindOrCreateOptionValue resolves a (option name, value) pair, creating both
// rows as needed.
func (r *Repository) FindOrCreateOptionValue(ctx context.Context, optionName, value string) (*models.VariantValue, error) {
	tx := r.db.WithContext(ctx)

	var option models.VariantOption
	if err := tx.Where(models.VariantOption{Name: optionName}).FirstOrCreate(&option).Error; err != nil {
		return nil, err
	}

	var val models.VariantValue
	if err := tx.Where(models.VariantValue{OptionID: option.ID, Value: value}).FirstOrCreate(&val).Error; err != nil {
		return nil, err
	}
	val.Option = option
	return &val, nil
}

// ListVariantOptions returns all options with their values for admin forms.
func (r *Repository) ListVariantOptions(ctx context.Context) ([]models.VariantOption, error) {
	var rows []models.VariantOption
	err := r.db.WithContext(ctx).
		Preload("Values").
		Order("name ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
