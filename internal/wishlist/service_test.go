package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/internal/catalog"
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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.WishlistItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), catalogSvc)
	if err != nil {
		t.Fatalf("wishlist service: %v", err)
	}
	return svc, conn
}

func createProduct(t *testing.T, conn *gorm.DB, name string, stock int) *models.Product {
	t.Helper()
	category := &models.Category{Name: "Pantry", Slug: "pantry-" + uuid.NewString()}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	product := &models.Product{
		CategoryID: category.ID,
		Name:       name,
		Slug:       "p-" + uuid.NewString(),
		Price:      dec("25.00"),
		Stock:      stock,
		Available:  true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestAddAndListWishlist(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := createProduct(t, conn, "Olive Oil", 5)

	item, err := svc.Add(ctx, userID, AddInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !item.InStock || !item.Available {
		t.Fatalf("expected in stock and available, got %+v", item)
	}
	if !item.CurrentPrice.Equal(dec("25")) {
		t.Fatalf("expected current price 25, got %s", item.CurrentPrice)
	}

	items, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestAddDuplicateSelectionConflicts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := createProduct(t, conn, "Olive Oil", 5)

	if _, err := svc.Add(ctx, userID, AddInput{ProductID: product.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.Add(ctx, userID, AddInput{ProductID: product.ID})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateDuplicateRowIsAUniqueViolation(t *testing.T) {
	_, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := createProduct(t, conn, "Shirt", 0)
	red := &models.ProductVariant{ProductID: product.ID, SKU: "S-R-" + uuid.NewString(), Price: dec("30.00"), Stock: 2}
	if err := conn.Create(red).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}

	repo := NewRepository(conn)
	first := &models.WishlistItem{UserID: userID, ProductID: product.ID, VariantID: &red.ID}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &models.WishlistItem{UserID: userID, ProductID: product.ID, VariantID: &red.ID}
	err := repo.Create(ctx, dup)
	if err == nil {
		t.Fatal("expected the duplicate insert to fail")
	}
	if !db.IsUniqueViolation(err, "") {
		t.Fatalf("expected a unique violation, got %v", err)
	}
}

func TestAddDistinctVariantsOfSameProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := createProduct(t, conn, "Shirt", 0)
	red := &models.ProductVariant{ProductID: product.ID, SKU: "S-R-" + uuid.NewString(), Price: dec("30.00"), Stock: 2}
	blue := &models.ProductVariant{ProductID: product.ID, SKU: "S-B-" + uuid.NewString(), Price: dec("30.00"), Stock: 0}
	for _, v := range []*models.ProductVariant{red, blue} {
		if err := conn.Create(v).Error; err != nil {
			t.Fatalf("create variant: %v", err)
		}
	}

	if _, err := svc.Add(ctx, userID, AddInput{ProductID: product.ID, VariantID: &red.ID}); err != nil {
		t.Fatalf("add red: %v", err)
	}
	item, err := svc.Add(ctx, userID, AddInput{ProductID: product.ID, VariantID: &blue.ID})
	if err != nil {
		t.Fatalf("add blue: %v", err)
	}
	if item.InStock {
		t.Fatal("expected the blue variant to be out of stock")
	}

	items, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestRemoveRejectsForeignItem(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	product := createProduct(t, conn, "Olive Oil", 5)
	item, err := svc.Add(ctx, owner, AddInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = svc.Remove(ctx, uuid.New(), item.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.Remove(ctx, owner, item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, err := svc.List(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty wishlist, got %d items", len(items))
	}
}
