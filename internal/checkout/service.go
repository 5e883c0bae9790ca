package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/internal/promo"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
	"github.com/greenmart/greenmart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogResolver interface {
	ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Purchasable, error)
	ResolveVariantBySKU(ctx context.Context, sku string) (*catalog.Purchasable, error)
}

// Service executes order placement.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	ResolveDirectBuy(ctx context.Context, input DirectBuyInput) ([]LineItem, error)
}

type service struct {
	tx        txRunner
	repo      *Repository
	promoRepo *promo.Repository
	catalog   catalogResolver
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService builds the checkout service. metrics may be nil.
func NewService(tx txRunner, repo *Repository, promoRepo *promo.Repository, resolver catalogResolver, checkoutMetrics *metrics.CheckoutMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if promoRepo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		promoRepo: promoRepo,
		catalog:   resolver,
		metrics:   checkoutMetrics,
		now:       time.Now,
	}, nil
}

// PlaceOrder commits a sale atomically: address ownership, in-transaction
// promo re-validation, ordered row locks on every stock-bearing row, frozen
// order lines, stock and promo budget mutation. Any failure rolls the whole
// order back; no partial state is ever visible.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrderInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		promoRepo := s.promoRepo.WithTx(tx)

		if _, err := repo.FindAddressForUser(ctx, input.AddressID, input.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		subtotal := decimal.Zero
		for _, item := range input.Items {
			subtotal = subtotal.Add(item.Total())
		}

		total := subtotal
		var promoID *uuid.UUID
		var promoRow *models.PromoCode
		if input.PromoCode != nil {
			// Relock and re-validate inside the transaction. The code may
			// have expired or been exhausted since the cart-time check.
			row, err := promoRepo.LockByCode(ctx, *input.PromoCode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, promo.ErrNotFound, "promo code not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock promo code")
			}
			if err := promo.CheckRedeemable(row, s.now()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
			}
			discount := promo.DiscountAmount(subtotal, row.DiscountPercentage)
			total = subtotal.Sub(discount)
			promoID = &row.ID
			promoRow = row
		}

		order = &models.Order{
			UserID:        input.UserID,
			AddressID:     &input.AddressID,
			TotalPrice:    total.Round(2),
			PromoCodeID:   promoID,
			PaymentMethod: input.PaymentMethod,
			Status:        enums.OrderStatusPending,
			IsPaid:        input.DirectBuy && input.PaymentMethod == enums.PaymentMethodCOD,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}

		// Lock rows in a globally consistent order so two concurrent
		// checkouts over the same products cannot deadlock.
		items := append([]LineItem(nil), input.Items...)
		sort.Slice(items, func(i, j int) bool {
			return items[i].lockKey() < items[j].lockKey()
		})

		for _, item := range items {
			if err := s.commitLine(ctx, repo, order.ID, item); err != nil {
				return err
			}
		}

		if promoRow != nil {
			promoRow.UsageLimit--
			if promoRow.UsageLimit <= 0 {
				promoRow.UsageLimit = 0
				promoRow.Active = false
			}
			if err := promoRepo.Save(ctx, promoRow); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement promo usage")
			}
		}

		return nil
	})
	if err != nil {
		s.metrics.IncFailed(failureReason(err))
		return nil, err
	}

	s.metrics.IncPlaced(input.PaymentMethod.String())
	s.metrics.ObserveOrderValue(order.TotalPrice)
	return order, nil
}

// commitLine locks one stock-bearing row, verifies coverage, freezes the
// order line and applies the sale.
func (s *service) commitLine(ctx context.Context, repo *Repository, orderID uuid.UUID, item LineItem) error {
	var available int
	if item.VariantID != nil {
		variant, err := repo.LockVariant(ctx, *item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant no longer exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock variant")
		}
		available = variant.Stock
	} else {
		product, err := repo.LockProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		available = product.Stock
	}

	if available < item.Quantity {
		stockErr := &InsufficientStockError{Item: item, Available: available}
		return pkgerrors.Wrap(pkgerrors.CodeConflict, stockErr, stockErr.Error()).
			WithDetails(map[string]any{
				"product_id": item.ProductID,
				"name":       item.Name,
				"requested":  item.Quantity,
				"available":  available,
			})
	}

	productID := item.ProductID
	orderItem := &models.OrderItem{
		OrderID:   orderID,
		ProductID: &productID,
		VariantID: item.VariantID,
		Name:      item.Name,
		Price:     item.UnitPrice,
		Quantity:  item.Quantity,
	}
	if err := repo.CreateOrderItem(ctx, orderItem); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order item")
	}

	if item.VariantID != nil {
		if err := repo.ApplyVariantSale(ctx, *item.VariantID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply variant sale")
		}
		return nil
	}
	if err := repo.ApplyProductSale(ctx, item.ProductID, item.Quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply product sale")
	}
	return nil
}

// ResolveDirectBuy maps a buy-now selection onto a single resolved line item.
func (s *service) ResolveDirectBuy(ctx context.Context, input DirectBuyInput) ([]LineItem, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var purchasable *catalog.Purchasable
	var err error
	if input.VariantSKU != nil && *input.VariantSKU != "" {
		purchasable, err = s.catalog.ResolveVariantBySKU(ctx, *input.VariantSKU)
	} else {
		purchasable, err = s.catalog.ResolvePurchasable(ctx, input.ProductID, nil)
	}
	if err != nil {
		return nil, err
	}
	if input.ProductID != uuid.Nil && purchasable.Product.ID != input.ProductID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
	}

	item := LineItem{
		ProductID: purchasable.Product.ID,
		Name:      purchasable.DisplayName,
		UnitPrice: purchasable.UnitPrice,
		Quantity:  input.Quantity,
	}
	if purchasable.Variant != nil {
		item.VariantID = &purchasable.Variant.ID
	}
	return []LineItem{item}, nil
}

func validatePlaceOrderInput(input PlaceOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.AddressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !input.PaymentMethod.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	return nil
}

func failureReason(err error) string {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return "insufficient_stock"
	}
	for _, sentinel := range []error{
		promo.ErrNotFound, promo.ErrInactive, promo.ErrNotYetStarted,
		promo.ErrExpired, promo.ErrUsageExhausted,
	} {
		if errors.Is(err, sentinel) {
			return "promo_rejected"
		}
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return string(appErr.Code())
	}
	return "internal"
}
