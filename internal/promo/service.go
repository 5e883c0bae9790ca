package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

// Service exposes promo code validation and staff management.
type Service interface {
	Validate(ctx context.Context, code string, now time.Time) (*models.PromoCode, error)
	Create(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CreatePromoInput holds the validated payload to create a promo code.
type CreatePromoInput struct {
	Code               string
	DiscountPercentage decimal.Decimal
	StartDate          time.Time
	EndDate            *time.Time
	UsageLimit         int
}

type service struct {
	repo *Repository
}

// NewService constructs a promo service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

// Validate loads the code and applies the redemption rules. The returned
// error wraps one of the package sentinels so callers can branch on the
// specific failure.
func (s *service) Validate(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	if err := CheckRedeemable(promo, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return promo, nil
}

// Create inserts a staff-defined promo code with a normalized code.
func (s *service) Create(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error) {
	code := Normalize(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if !input.DiscountPercentage.IsPositive() || input.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}
	if input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must follow start date")
	}

	promo := &models.PromoCode{
		Code:               code,
		DiscountPercentage: input.DiscountPercentage,
		Active:             true,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		UsageLimit:         input.UsageLimit,
	}
	if _, err := s.repo.Create(ctx, promo); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert promo code")
	}
	return promo, nil
}

// List returns every promo code for the admin surface.
func (s *service) List(ctx context.Context) ([]models.PromoCode, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	return rows, nil
}

// Deactivate turns a code off without deleting it, so committed orders keep
// their reference.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	promo := &models.PromoCode{}
	if err := s.repo.db.WithContext(ctx).First(promo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate promo code")
	}
	return nil
}
