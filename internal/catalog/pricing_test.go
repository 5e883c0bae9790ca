package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
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

func TestEffectiveUnitPrice(t *testing.T) {
	t.Parallel()

	product := &models.Product{
		Price:         dec("100.00"),
		DiscountPrice: decPtr("80.00"),
	}

	cases := []struct {
		name    string
		variant *models.ProductVariant
		product *models.Product
		want    string
	}{
		{
			name:    "variant discount wins",
			variant: &models.ProductVariant{Price: dec("50.00"), DiscountPrice: decPtr("40.00")},
			product: product,
			want:    "40",
		},
		{
			name:    "variant price when no variant discount",
			variant: &models.ProductVariant{Price: dec("50.00")},
			product: product,
			want:    "50",
		},
		{
			name:    "unpriced variant falls back to product discount",
			variant: &models.ProductVariant{},
			product: product,
			want:    "80",
		},
		{
			name:    "product discount without variant",
			product: product,
			want:    "80",
		},
		{
			name:    "product price as last resort",
			product: &models.Product{Price: dec("100.00")},
			want:    "100",
		},
		{
			name: "nothing resolvable",
			want: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := EffectiveUnitPrice(tc.variant, tc.product)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
