package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/internal/catalog"
	"github.com/greenmart/greenmart-backend/pkg/config"
	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

type fixture struct {
	conn *gorm.DB
	svc  Service
}

func newFixture(t *testing.T, cfg config.CartConfig) *fixture {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.VariantOption{},
		&models.VariantValue{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := db.NewWithConn(conn)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), client)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), client, catalogSvc, cfg)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return &fixture{conn: conn, svc: svc}
}

func (f *fixture) createProduct(t *testing.T, name string, price string, stock int) *models.Product {
	t.Helper()
	category := &models.Category{Name: "Pantry", Slug: "pantry-" + uuid.NewString()}
	if err := f.conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	product := &models.Product{
		CategoryID: category.ID,
		Name:       name,
		Slug:       "p-" + uuid.NewString(),
		Price:      dec(price),
		Stock:      stock,
		Available:  true,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func (f *fixture) createVariant(t *testing.T, productID uuid.UUID, price string, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID: productID,
		SKU:       "V-" + uuid.NewString(),
		Price:     dec(price),
		Stock:     stock,
	}
	if err := f.conn.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return variant
}

func TestAddItemClampsToStock(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "18.00", 3)

	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 5})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected clamp to 3, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemFoldsIntoExistingLineWithSameClamp(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "18.00", 3)

	if _, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single folded line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected 2+2 clamped to 3, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemRespectsPerLineMaximum(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 2})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Rice", "4.00", 50)

	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("expected per-line cap 2, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Sold Out", "10.00", 0)

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddItemRequiresVariantSelection(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Shirt", "30.00", 0)
	f.createVariant(t, product.ID, "30.00", 5)

	_, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 1})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateQuantityClampsLikeAdd(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "18.00", 4)
	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	updated, err := f.svc.UpdateQuantity(ctx, owner, cart.Items[0].ID, 99)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if updated.Items[0].Quantity != 4 {
		t.Fatalf("expected clamp to 4, got %d", updated.Items[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "18.00", 4)
	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	updated, err := f.svc.UpdateQuantity(ctx, owner, cart.Items[0].ID, 0)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(updated.Items))
	}
}

func TestRemoveItemUnknownID(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "18.00", 4)
	if _, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := f.svc.RemoveItem(ctx, owner, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMergeSessionCart(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	userID := uuid.New()
	sessionKey := "sess-" + uuid.NewString()

	shared := f.createProduct(t, "Olive Oil", "18.00", 3)
	anonOnly := f.createProduct(t, "Rice", "4.00", 50)

	if _, err := f.svc.AddItem(ctx, UserOwner(userID), AddItemInput{ProductID: shared.ID, Quantity: 2}); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, SessionOwner(sessionKey), AddItemInput{ProductID: shared.ID, Quantity: 2}); err != nil {
		t.Fatalf("seed session cart: %v", err)
	}
	if _, err := f.svc.AddItem(ctx, SessionOwner(sessionKey), AddItemInput{ProductID: anonOnly.ID, Quantity: 5}); err != nil {
		t.Fatalf("seed session cart: %v", err)
	}

	merged, err := f.svc.MergeSessionCart(ctx, userID, sessionKey)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(merged.Items))
	}

	byProduct := map[uuid.UUID]int{}
	for _, item := range merged.Items {
		byProduct[item.ProductID] = item.Quantity
	}
	// 2 + 2 clamped to the stock of 3
	if byProduct[shared.ID] != 3 {
		t.Fatalf("expected merged quantity 3, got %d", byProduct[shared.ID])
	}
	if byProduct[anonOnly.ID] != 5 {
		t.Fatalf("expected moved quantity 5, got %d", byProduct[anonOnly.ID])
	}

	var count int64
	if err := f.conn.Model(&models.Cart{}).Where("session_key = ?", sessionKey).Count(&count).Error; err != nil {
		t.Fatalf("count session carts: %v", err)
	}
	if count != 0 {
		t.Fatal("expected the session cart to be deleted")
	}
}

func TestMergeWithoutSessionCartReturnsUserCart(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	userID := uuid.New()

	merged, err := f.svc.MergeSessionCart(ctx, userID, "never-seen")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(merged.Items))
	}
}

func TestCartTotalsTrackDiscounts(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Olive Oil", "20.00", 10)
	product.DiscountPrice = decPtr("15.00")
	if err := f.conn.Save(product).Error; err != nil {
		t.Fatalf("save product: %v", err)
	}

	cart, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !cart.Subtotal.Equal(dec("30")) {
		t.Fatalf("expected subtotal 30, got %s", cart.Subtotal)
	}
	if !cart.Savings.Equal(dec("10")) {
		t.Fatalf("expected savings 10, got %s", cart.Savings)
	}
	if cart.TotalQuantity != 2 {
		t.Fatalf("expected total quantity 2, got %d", cart.TotalQuantity)
	}
}

func TestResolveLineItemsUsesEffectivePrices(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	product := f.createProduct(t, "Shirt", "30.00", 0)
	variant := f.createVariant(t, product.ID, "35.00", 5)

	if _, err := f.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	lines, err := f.svc.ResolveLineItems(ctx, owner)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].VariantID == nil || *lines[0].VariantID != variant.ID {
		t.Fatal("expected the variant id on the line")
	}
	if !lines[0].UnitPrice.Equal(dec("35")) {
		t.Fatalf("expected unit price 35, got %s", lines[0].UnitPrice)
	}
}

func TestResolveLineItemsEmptyCart(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()
	owner := UserOwner(uuid.New())

	if _, err := f.svc.Get(ctx, owner); err != nil {
		t.Fatalf("get cart: %v", err)
	}

	_, err := f.svc.ResolveLineItems(ctx, owner)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOwnerValidation(t *testing.T) {
	f := newFixture(t, config.CartConfig{MaxItemQuantity: 20})
	ctx := context.Background()

	_, err := f.svc.Get(ctx, Owner{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	userID := uuid.New()
	sessionKey := "both"
	_, err = f.svc.Get(ctx, Owner{UserID: &userID, SessionKey: &sessionKey})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
