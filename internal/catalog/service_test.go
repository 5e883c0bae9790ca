package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
	"github.com/greenmart/greenmart-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func mustCreateCategory(t *testing.T, conn *gorm.DB) *models.Category {
	t.Helper()
	category := &models.Category{Name: "Tea", Slug: "tea-" + uuid.NewString()}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, categoryID uuid.UUID, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: categoryID,
		Name:       name,
		Slug:       "p-" + uuid.NewString(),
		Price:      dec("100.00"),
		Stock:      10,
		Available:  true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestResolvePurchasableBareProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Sencha")
	product.DiscountPrice = decPtr("80.00")
	if err := conn.Save(product).Error; err != nil {
		t.Fatalf("save product: %v", err)
	}

	got, err := svc.ResolvePurchasable(ctx, product.ID, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.AvailableStock != 10 {
		t.Fatalf("expected stock 10, got %d", got.AvailableStock)
	}
	if !got.UnitPrice.Equal(dec("80")) {
		t.Fatalf("expected discount price 80, got %s", got.UnitPrice)
	}
	if got.DisplayName != "Sencha" {
		t.Fatalf("unexpected display name %q", got.DisplayName)
	}
}

func TestResolvePurchasableRequiresVariantSelection(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Trail Shirt")
	variant := &models.ProductVariant{
		ProductID: product.ID,
		SKU:       "TS-" + uuid.NewString(),
		Price:     dec("50.00"),
		Stock:     3,
	}
	if err := conn.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}

	_, err := svc.ResolvePurchasable(ctx, product.ID, nil)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := svc.ResolvePurchasable(ctx, product.ID, &variant.ID)
	if err != nil {
		t.Fatalf("resolve variant: %v", err)
	}
	if got.AvailableStock != 3 {
		t.Fatalf("expected variant stock 3, got %d", got.AvailableStock)
	}
	if !got.UnitPrice.Equal(dec("50")) {
		t.Fatalf("expected variant price 50, got %s", got.UnitPrice)
	}
}

func TestResolvePurchasableUnavailableProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Retired Item")
	if err := conn.Model(product).UpdateColumn("available", false).Error; err != nil {
		t.Fatalf("retire product: %v", err)
	}

	_, err := svc.ResolvePurchasable(ctx, product.ID, nil)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetProductBySlugIncrementsViews(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Genmaicha")

	first, err := svc.GetProductBySlug(ctx, product.Slug)
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if first.Views != 1 {
		t.Fatalf("expected 1 view, got %d", first.Views)
	}

	second, err := svc.GetProductBySlug(ctx, product.Slug)
	if err != nil {
		t.Fatalf("get by slug again: %v", err)
	}
	if second.Views != 2 {
		t.Fatalf("expected 2 views, got %d", second.Views)
	}
}

func TestListProductsCursorPagination(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		product := mustCreateProduct(t, conn, category.ID, "Item")
		if err := conn.Model(product).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).
			Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}

	page1, err := svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page1.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page1.Items))
	}
	if page1.NextCursor == nil {
		t.Fatal("expected a next cursor")
	}

	page2, err := svc.ListProducts(ctx, ListProductsInput{
		Pagination: pagination.Params{Limit: 2, Cursor: *page1.NextCursor},
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2.Items) != 1 {
		t.Fatalf("expected 1 item on page 2, got %d", len(page2.Items))
	}
	if page2.NextCursor != nil {
		t.Fatal("expected no cursor on the last page")
	}
}

func TestCreateProductSlugCollision(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)

	first, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Mint Tea",
		Price:      dec("12.00"),
		Stock:      5,
		Available:  true,
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.Slug != "mint-tea" {
		t.Fatalf("expected mint-tea, got %s", first.Slug)
	}

	second, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Mint Tea",
		Price:      dec("12.00"),
		Stock:      5,
		Available:  true,
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Slug != "mint-tea-2" {
		t.Fatalf("expected mint-tea-2, got %s", second.Slug)
	}
}

func TestAddVariantRejectsDuplicateValueSet(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Trail Shirt")

	input := AddVariantInput{
		Price:  dec("50.00"),
		Stock:  3,
		Values: map[string]string{"Color": "Red"},
	}
	if _, err := svc.AddVariant(ctx, product.ID, input); err != nil {
		t.Fatalf("add variant: %v", err)
	}

	_, err := svc.AddVariant(ctx, product.ID, input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddVariantGeneratesSKU(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	category := mustCreateCategory(t, conn)
	product := mustCreateProduct(t, conn, category.ID, "Trail Shirt")

	dto, err := svc.AddVariant(ctx, product.ID, AddVariantInput{
		Price:  dec("50.00"),
		Stock:  3,
		Values: map[string]string{"Color": "Blue", "Size": "M"},
	})
	if err != nil {
		t.Fatalf("add variant: %v", err)
	}
	if len(dto.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(dto.Variants))
	}
	if dto.Variants[0].SKU != "TS-BLU-M" {
		t.Fatalf("expected TS-BLU-M, got %s", dto.Variants[0].SKU)
	}
}
