package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

// ItemDTO is one saved bookmark with its current price and availability so
// the list can show "back in stock" and "price dropped" states.
type ItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	InStock      bool            `json:"in_stock"`
	Available    bool            `json:"available"`
	SavedAt      time.Time       `json:"saved_at"`
}

// AddInput bookmarks a product, optionally pinned to one variant.
type AddInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
}

type catalogResolver interface {
	ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Purchasable, error)
}

// Service exposes wishlist reads and mutations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID uuid.UUID, input AddInput) (*ItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	repo    *Repository
	catalog catalogResolver
}

// NewService constructs a wishlist service instance.
func NewService(repo *Repository, resolver catalogResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &service{repo: repo, catalog: resolver}, nil
}

// List returns the user's bookmarks, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list wishlist")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newItemDTO(&rows[i]))
	}
	return out, nil
}

// Add bookmarks a selection. Saving the same selection twice is a conflict,
// matching the unique triple in the table.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*ItemDTO, error) {
	// A wishlist may pin a variant-bearing product without picking a
	// variant, so only product existence is checked here.
	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if input.VariantID != nil {
		if _, err := s.catalog.ResolvePurchasable(ctx, input.ProductID, input.VariantID); err != nil {
			return nil, err
		}
	}

	exists, err := s.repo.SelectionExists(ctx, userID, product.ID, input.VariantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check wishlist")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already on the wishlist")
	}

	item := &models.WishlistItem{
		UserID:    userID,
		ProductID: product.ID,
		VariantID: input.VariantID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "already on the wishlist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert wishlist item")
	}

	loaded, err := s.repo.FindForUser(ctx, item.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload wishlist item")
	}
	dto := newItemDTO(loaded)
	return &dto, nil
}

// Remove deletes one bookmark the user owns.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.repo.FindForUser(ctx, itemID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load wishlist item")
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete wishlist item")
	}
	return nil
}

func newItemDTO(item *models.WishlistItem) ItemDTO {
	dto := ItemDTO{
		ID:           item.ID,
		ProductID:    item.ProductID,
		VariantID:    item.VariantID,
		Name:         item.Product.Name,
		Slug:         item.Product.Slug,
		CurrentPrice: catalog.EffectiveUnitPrice(item.Variant, &item.Product),
		Available:    item.Product.Available,
		SavedAt:      item.CreatedAt,
	}
	if item.Variant != nil {
		dto.InStock = item.Variant.Stock > 0
	} else {
		dto.InStock = item.Product.Stock > 0
	}
	return dto
}
