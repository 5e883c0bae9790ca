package promo

import (
	"errors"
	"testing"
	"time"

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

func TestCheckRedeemableOrdering(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name  string
		promo *models.PromoCode
		want  error
	}{
		{
			name: "nil row",
			want: ErrNotFound,
		},
		{
			// inactive wins even when the window is also wrong
			name:  "inactive before window checks",
			promo: &models.PromoCode{Active: false, StartDate: future, UsageLimit: 0},
			want:  ErrInactive,
		},
		{
			name:  "not yet started",
			promo: &models.PromoCode{Active: true, StartDate: future, UsageLimit: 5},
			want:  ErrNotYetStarted,
		},
		{
			name:  "expired",
			promo: &models.PromoCode{Active: true, StartDate: past.Add(-24 * time.Hour), EndDate: &past, UsageLimit: 5},
			want:  ErrExpired,
		},
		{
			name:  "usage exhausted",
			promo: &models.PromoCode{Active: true, StartDate: past, UsageLimit: 0},
			want:  ErrUsageExhausted,
		},
		{
			name:  "redeemable",
			promo: &models.PromoCode{Active: true, StartDate: past, EndDate: &future, UsageLimit: 1},
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := CheckRedeemable(tc.promo, now)
			if !errors.Is(got, tc.want) && !(got == nil && tc.want == nil) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("  save10 "); got != "SAVE10" {
		t.Fatalf("expected SAVE10, got %s", got)
	}
}

func TestDiscountAmount(t *testing.T) {
	t.Parallel()

	got := DiscountAmount(dec("200.00"), dec("25"))
	if !got.Equal(dec("50")) {
		t.Fatalf("expected 50, got %s", got)
	}

	total := dec("200.00").Sub(got)
	if !total.Equal(dec("150")) {
		t.Fatalf("expected discounted total 150, got %s", total)
	}

	// cent rounding
	got = DiscountAmount(dec("99.99"), dec("10"))
	if !got.Equal(dec("10")) {
		t.Fatalf("expected 10 after rounding, got %s", got)
	}
}
