package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/internal/checkout"
	"github.com/greenmart/greenmart-backend/pkg/config"
	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

// Owner identifies who a cart belongs to. Exactly one field is set: the user
// ID for authenticated requests, the session key for anonymous ones.
type Owner struct {
	UserID     *uuid.UUID
	SessionKey *string
}

func (o Owner) validate() error {
	hasUser := o.UserID != nil && *o.UserID != uuid.Nil
	hasSession := o.SessionKey != nil && *o.SessionKey != ""
	if hasUser == hasSession {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}
	return nil
}

// UserOwner builds an Owner for an authenticated user.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: &userID}
}

// SessionOwner builds an Owner for an anonymous session.
func SessionOwner(sessionKey string) Owner {
	return Owner{SessionKey: &sessionKey}
}

// AddItemInput adds one product or variant selection to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

type catalogResolver interface {
	ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Purchasable, error)
}

// Service exposes cart reads and mutations.
type Service interface {
	Get(ctx context.Context, owner Owner) (*CartDTO, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, owner Owner) error
	MergeSessionCart(ctx context.Context, userID uuid.UUID, sessionKey string) (*CartDTO, error)
	ResolveLineItems(ctx context.Context, owner Owner) ([]checkout.LineItem, error)
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	catalog    catalogResolver
	maxItemQty int
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, dbClient *db.Client, resolver catalogResolver, cfg config.CartConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		catalog:    resolver,
		maxItemQty: cfg.MaxItemQuantity,
	}, nil
}

// clamp caps a requested line quantity to the available stock and the
// per-line maximum. Add and update share this rule so the two paths cannot
// disagree about what a cart line may hold.
func (s *service) clamp(requested, stock int) int {
	if requested > stock {
		requested = stock
	}
	if s.maxItemQty > 0 && requested > s.maxItemQty {
		requested = s.maxItemQty
	}
	if requested < 0 {
		return 0
	}
	return requested
}

// Get returns the owner's cart, creating an empty one on first touch.
func (s *service) Get(ctx context.Context, owner Owner) (*CartDTO, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(cart), nil
}

// AddItem creates a line or folds the quantity into an existing one. The
// resulting quantity is clamped, never rejected, except when the selection is
// entirely out of stock.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*CartDTO, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	purchasable, err := s.catalog.ResolvePurchasable(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if purchasable.AvailableStock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "out of stock")
	}

	cart, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, input.ProductID, input.VariantID)
	switch {
	case err == nil:
		existing.Quantity = s.clamp(existing.Quantity+input.Quantity, purchasable.AvailableStock)
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			CartID:    cart.ID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  s.clamp(input.Quantity, purchasable.AvailableStock),
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}

	return s.reload(ctx, owner)
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line; a
// positive value goes through the same clamp as AddItem.
func (s *service) UpdateQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
		}
		return s.reload(ctx, owner)
	}

	stock := stockFor(item)
	clamped := s.clamp(quantity, stock)
	if clamped == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "out of stock")
	}
	item.Quantity = clamped
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
	}
	return s.reload(ctx, owner)
}

// RemoveItem deletes one line from the owner's cart.
func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindItemByID(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	return s.reload(ctx, owner)
}

// Clear drops every line but keeps the cart row. Checkout calls this after a
// cart-sourced order commits.
func (s *service) Clear(ctx context.Context, owner Owner) error {
	if err := owner.validate(); err != nil {
		return err
	}
	cart, err := s.findOwned(ctx, owner)
	if err != nil {
		if pkgErr := pkgerrors.As(err); pkgErr != nil && pkgErr.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

// MergeSessionCart folds an anonymous cart into the user's cart at login.
// Matching lines add their quantities under the usual clamp; the anonymous
// cart is deleted afterwards either way.
func (s *service) MergeSessionCart(ctx context.Context, userID uuid.UUID, sessionKey string) (*CartDTO, error) {
	if userID == uuid.Nil || sessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and session are required")
	}

	sessionCart, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.Get(ctx, UserOwner(userID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load session cart")
	}

	userCart, err := s.getOrCreate(ctx, UserOwner(userID))
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for i := range sessionCart.Items {
			src := &sessionCart.Items[i]
			dst, err := txRepo.FindItem(ctx, userCart.ID, src.ProductID, src.VariantID)
			switch {
			case err == nil:
				dst.Quantity = s.clamp(dst.Quantity+src.Quantity, stockFor(src))
				if err := txRepo.SaveItem(ctx, dst); err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				moved := &models.CartItem{
					CartID:    userCart.ID,
					ProductID: src.ProductID,
					VariantID: src.VariantID,
					Quantity:  s.clamp(src.Quantity, stockFor(src)),
				}
				if err := txRepo.CreateItem(ctx, moved); err != nil {
					return err
				}
			default:
				return err
			}
		}
		return txRepo.DeleteCart(ctx, sessionCart.ID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: merge carts")
	}

	return s.reload(ctx, UserOwner(userID))
}

// ResolveLineItems turns the cart into priced order lines. Prices resolve
// through the live fallback chain here; checkout freezes them.
func (s *service) ResolveLineItems(ctx context.Context, owner Owner) ([]checkout.LineItem, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]checkout.LineItem, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		if !item.Product.Available {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("%q is no longer available", item.Product.Name))
		}
		lines = append(lines, checkout.LineItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      lineName(item),
			UnitPrice: catalog.EffectiveUnitPrice(item.Variant, &item.Product),
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

func (s *service) getOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.findByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	created, err := s.repo.Create(ctx, &models.Cart{UserID: owner.UserID, SessionKey: owner.SessionKey})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	return created, nil
}

func (s *service) findOwned(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.findByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	return cart, nil
}

func (s *service) findByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	if owner.UserID != nil {
		return s.repo.FindByUser(ctx, *owner.UserID)
	}
	return s.repo.FindBySessionKey(ctx, *owner.SessionKey)
}

func (s *service) reload(ctx context.Context, owner Owner) (*CartDTO, error) {
	cart, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(cart), nil
}

// stockFor reads the stock column the line actually draws from.
func stockFor(item *models.CartItem) int {
	if item.Variant != nil {
		return item.Variant.Stock
	}
	return item.Product.Stock
}
