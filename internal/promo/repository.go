package promo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// Repository wires together promo code persistence helpers.
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

// FindByCode loads a promo code by its normalized code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		First(&promo, "code = ?", Normalize(code)).
		Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// LockByCode loads the promo row under FOR UPDATE so a concurrent checkout
// cannot double-spend the remaining usage budget. sqlite has no row locks;
// its single-writer semantics cover the transactional tests.
func (r *Repository) LockByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var promo models.PromoCode
	if err := q.First(&promo, "code = ?", Normalize(code)).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// Create inserts a new promo code row.
func (r *Repository) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// List returns all promo codes, newest first.
func (r *Repository) List(ctx context.Context) ([]models.PromoCode, error) {
	var rows []models.PromoCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Save persists mutations to an existing promo row.
func (r *Repository) Save(ctx context.Context, promo *models.PromoCode) error {
	return r.db.WithContext(ctx).Save(promo).Error
}

// Deactivate flips the active flag off.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ?", id).
		UpdateColumn("active", false).
		Error
}
