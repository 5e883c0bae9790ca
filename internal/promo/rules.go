package promo

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenmart/greenmart-backend/pkg/db/models"
)

// Redemption failures, ordered from least to most specific. Callers check
// with errors.Is; the HTTP layer maps them onto response codes.
var (
	ErrNotFound       = errors.New("promo code not found")
	ErrInactive       = errors.New("promo code inactive")
	ErrNotYetStarted  = errors.New("promo code not yet started")
	ErrExpired        = errors.New("promo code expired")
	ErrUsageExhausted = errors.New("promo code usage exhausted")
)

// Normalize canonicalizes a code for storage and lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckRedeemable applies the redemption rules in a fixed order: inactive,
// not started, expired, exhausted. The order is part of the contract; the
// first failing rule names the error a shopper sees.
func CheckRedeemable(p *models.PromoCode, now time.Time) error {
	if p == nil {
		return ErrNotFound
	}
	if !p.Active {
		return ErrInactive
	}
	if now.Before(p.StartDate) {
		return ErrNotYetStarted
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return ErrExpired
	}
	if p.UsageLimit <= 0 {
		return ErrUsageExhausted
	}
	return nil
}

// DiscountAmount computes pct percent of subtotal, rounded to cents.
func DiscountAmount(subtotal decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}
