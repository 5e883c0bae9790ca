package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
	"github.com/greenmart/greenmart-backend/pkg/pagination"
)

// Service exposes catalog browsing and admin product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]ProductDTO, error)
	ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Purchasable, error)
	ResolveVariantBySKU(ctx context.Context, sku string) (*Purchasable, error)
	ListVariantOptions(ctx context.Context) (map[string][]string, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	AddVariant(ctx context.Context, productID uuid.UUID, input AddVariantInput) (*ProductDTO, error)
}

// Purchasable is the resolved view of one buyable thing: either a bare
// product or a specific variant of it. Stock and price already reflect the
// variant-to-product fallback.
type Purchasable struct {
	Product        *models.Product
	Variant        *models.ProductVariant
	UnitPrice      decimal.Decimal
	AvailableStock int
	DisplayName    string
}

// ListProductsInput narrows the public browse listing.
type ListProductsInput struct {
	CategorySlug string
	FeaturedOnly bool
	Pagination   pagination.Params
}

// ProductListResult is one page of the browse listing.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	CategoryID    uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	IsFeatured    bool
	Available     bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	ClearDiscount bool
	Stock         *int
	IsFeatured    *bool
	Available     *bool
}

// AddVariantInput creates one purchasable configuration. Values maps option
// name to value, e.g. {"Color": "Red", "Size": "M"}.
type AddVariantInput struct {
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	Values        map[string]string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// ListProducts returns a cursor page of available products.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	filter := ListFilter{
		FeaturedOnly: input.FeaturedOnly,
		Cursor:       cursor,
		Limit:        pagination.LimitWithBuffer(input.Pagination.Limit),
	}

	if input.CategorySlug != "" {
		category, err := s.repo.FindCategoryBySlug(ctx, input.CategorySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		filter.CategoryID = &category.ID
	}

	rows, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	result := &ProductListResult{Items: []ProductDTO{}}
	for i := range rows {
		if i >= limit {
			break
		}
		result.Items = append(result.Items, *NewProductDTO(&rows[i]))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// GetProductBySlug loads a product detail and bumps its view counter.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	// A lost view bump is harmless; the detail read should not fail on it.
	if err := s.repo.IncrementViews(ctx, product.ID); err == nil {
		product.Views++
	}

	return NewProductDTO(product), nil
}

// SearchProducts matches available products on a name substring.
func (s *service) SearchProducts(ctx context.Context, query string, limit int) ([]ProductDTO, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []ProductDTO{}, nil
	}
	rows, err := s.repo.SearchProducts(ctx, query, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out, nil
}

// ResolvePurchasable loads the product (and variant when supplied) and
// resolves unit price and available stock through the fallback chain. A
// product that carries variants cannot be bought without selecting one.
func (s *service) ResolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Purchasable, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Available {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	if variantID == nil {
		if product.HasVariants() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant selection required")
		}
		return &Purchasable{
			Product:        product,
			UnitPrice:      EffectiveUnitPrice(nil, product),
			AvailableStock: product.Stock,
			DisplayName:    product.Name,
		}, nil
	}

	var variant *models.ProductVariant
	for i := range product.Variants {
		if product.Variants[i].ID == *variantID {
			variant = &product.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	return &Purchasable{
		Product:        product,
		Variant:        variant,
		UnitPrice:      EffectiveUnitPrice(variant, product),
		AvailableStock: variant.Stock,
		DisplayName:    displayName(product, variant),
	}, nil
}

// ResolveVariantBySKU resolves a buy-now selection addressed by SKU.
func (s *service) ResolveVariantBySKU(ctx context.Context, sku string) (*Purchasable, error) {
	variant, err := s.repo.FindVariantBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return s.ResolvePurchasable(ctx, variant.ProductID, &variant.ID)
}

// ListVariantOptions returns the option-to-values map used by admin forms.
func (s *service) ListVariantOptions(ctx context.Context) (map[string][]string, error) {
	options, err := s.repo.ListVariantOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variant options")
	}
	out := make(map[string][]string, len(options))
	for _, opt := range options {
		values := make([]string, 0, len(opt.Values))
		for _, v := range opt.Values {
			values = append(values, v.Value)
		}
		sort.Strings(values)
		out[opt.Name] = values
	}
	return out, nil
}

// CreateProduct inserts a catalog listing with a collision-free slug.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DiscountPrice != nil && input.DiscountPrice.GreaterThanOrEqual(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must undercut price")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	slugValue, err := s.uniqueSlug(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:    input.CategoryID,
		Name:          input.Name,
		Slug:          slugValue,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Stock:         input.Stock,
		IsFeatured:    input.IsFeatured,
		Available:     input.Available,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

// UpdateProduct applies the provided mutations to an existing product.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil && *input.Name != product.Name {
		product.Name = *input.Name
		slugValue, err := s.uniqueSlug(ctx, *input.Name)
		if err != nil {
			return nil, err
		}
		product.Slug = slugValue
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.ClearDiscount {
		product.DiscountPrice = nil
	} else if input.DiscountPrice != nil {
		if input.DiscountPrice.GreaterThanOrEqual(product.Price) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must undercut price")
		}
		product.DiscountPrice = input.DiscountPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.Available != nil {
		product.Available = *input.Available
	}

	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(product), nil
}

// AddVariant attaches a purchasable configuration with a generated SKU. The
// variant rows own price and stock from the first variant onward.
func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input AddVariantInput) (*ProductDTO, error) {
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.DiscountPrice != nil && input.DiscountPrice.GreaterThanOrEqual(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must undercut price")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if len(input.Values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one option value is required")
	}

	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	for i := range product.Variants {
		if sameValueSet(product.Variants[i].Values, input.Values) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "variant with identical values already exists")
		}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		values := make([]models.VariantValue, 0, len(input.Values))
		names := make([]string, 0, len(input.Values))
		for option, value := range input.Values {
			resolved, err := txRepo.FindOrCreateOptionValue(ctx, option, value)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve option value")
			}
			values = append(values, *resolved)
			names = append(names, value)
		}

		sku, err := s.uniqueSKU(ctx, txRepo, product.Name, names)
		if err != nil {
			return err
		}

		variant := &models.ProductVariant{
			ProductID:     product.ID,
			SKU:           sku,
			Price:         input.Price,
			DiscountPrice: input.DiscountPrice,
			Stock:         input.Stock,
			Values:        values,
		}
		if _, err := txRepo.CreateVariant(ctx, variant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert variant")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add variant")
	}

	product, err = s.repo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return NewProductDTO(product), nil
}

func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	var lookupErr error
	value := UniqueSlug(name, func(candidate string) bool {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			lookupErr = err
			return false
		}
		return exists
	})
	if lookupErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "db: check slug")
	}
	return value, nil
}

func (s *service) uniqueSKU(ctx context.Context, repo *Repository, productName string, values []string) (string, error) {
	var lookupErr error
	value := GenerateSKU(productName, values, func(candidate string) bool {
		exists, err := repo.SKUExists(ctx, candidate)
		if err != nil {
			lookupErr = err
			return false
		}
		return exists
	})
	if lookupErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "db: check sku")
	}
	return value, nil
}

func sameValueSet(existing []models.VariantValue, wanted map[string]string) bool {
	if len(existing) != len(wanted) {
		return false
	}
	for _, v := range existing {
		if wanted[v.Option.Name] != v.Value {
			return false
		}
	}
	return true
}

func displayName(product *models.Product, variant *models.ProductVariant) string {
	if variant == nil || len(variant.Values) == 0 {
		return product.Name
	}
	values := make([]string, 0, len(variant.Values))
	for _, v := range variant.Values {
		values = append(values, v.Value)
	}
	sort.Strings(values)
	return fmt.Sprintf("%s (%s)", product.Name, strings.Join(values, " / "))
}
