package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrPromoInvalid is returned when the code does not exist or is inactive.
	ErrPromoInvalid = errors.New("invalid promotion code")
	// ErrPromoMinPurchase is returned when the cart total is below the
	// promotion's minimum purchase.
	ErrPromoMinPurchase = errors.New("promotion minimum purchase not met")
	// ErrPromoExhausted is returned when the usage limit has been reached.
	ErrPromoExhausted = errors.New("promotion usage limit reached")
	// ErrPromoNotStarted is returned before the promotion's start date.
	ErrPromoNotStarted = errors.New("promotion not yet active")
	// ErrPromoExpired is returned after the promotion's end date.
	ErrPromoExpired = errors.New("promotion expired")
)

// Promotion is a discount code. Redemption (usage-count increment) belongs
// to the checkout flow; this type only validates and prices, so repeated
// evaluation of the same cart is idempotent.
type Promotion struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"` // percentage or fixed
	Value       float64    `json:"value"`
	MinPurchase float64    `json:"minPurchase,omitempty"`
	MaxDiscount *float64   `json:"maxDiscount,omitempty"`
	UsageLimit  *int       `json:"usageLimit,omitempty"`
	UsageCount  int        `json:"usageCount"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	Active      bool       `json:"active"`
}

// Validate checks the promotion against the cart total at the given
// instant. Checks run in a fixed order so the caller always sees the first
// failing condition.
func (p Promotion) Validate(now time.Time, cartTotal float64) error {
	if !p.Active {
		return ErrPromoInvalid
	}
	if cartTotal < p.MinPurchase {
		return fmt.Errorf("minimum purchase of $%.2f required: %w", p.MinPurchase, ErrPromoMinPurchase)
	}
	if p.UsageLimit != nil && *p.UsageLimit > 0 && p.UsageCount >= *p.UsageLimit {
		return ErrPromoExhausted
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return ErrPromoNotStarted
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return ErrPromoExpired
	}
	return nil
}

// Discount prices the promotion against the cart total. Percentage
// discounts are capped at MaxDiscount when configured; a discount never
// exceeds what it discounts.
func (p Promotion) Discount(cartTotal float64) float64 {
	var discount float64
	if strings.EqualFold(p.Type, "percentage") {
		discount = cartTotal * p.Value / 100
		if p.MaxDiscount != nil && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
	} else {
		discount = p.Value
	}
	if discount > cartTotal {
		discount = cartTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// MatchesCode reports whether the promotion's code equals the requested one
// ignoring case and surrounding whitespace.
func (p Promotion) MatchesCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Code), strings.TrimSpace(code))
}
