package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderBelowMinimum fails order computation when the grand total is
	// under the configured minimum order value.
	ErrOrderBelowMinimum = errors.New("order total below minimum order value")
	// ErrOrderAboveMaximum fails order computation when the grand total is
	// over the configured maximum order value.
	ErrOrderAboveMaximum = errors.New("order total above maximum order value")
)

// BusinessRules carries order-level validation bounds. Zero values disable
// the corresponding bound.
type BusinessRules struct {
	MinimumOrderValue float64 `json:"minimumOrderValue,omitempty"`
	MaximumOrderValue float64 `json:"maximumOrderValue,omitempty"`
}

// LineItem is one order line submitted for pricing. Any client-sent price
// is ignored; every line is recomputed through the item pipeline.
type LineItem struct {
	ProductSlug string     `json:"productSlug"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Quantity    int        `json:"quantity"`
	FabricCode  string     `json:"fabricCode"`
	ControlType string     `json:"controlType,omitempty"`
	Selections  Selections `json:"options"`
}

// Destination identifies where an order ships.
type Destination struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state"`
}

// OrderLine pairs an input line with its authoritative computation.
type OrderLine struct {
	ProductSlug string  `json:"productSlug"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	LineTotal   float64 `json:"lineTotal"`
	Quote       *Quote  `json:"quote,omitempty"`
}

// OrderSummary is the order-level rollup.
type OrderSummary struct {
	Lines      []OrderLine   `json:"lines"`
	Subtotal   float64       `json:"subtotal"`
	Discount   float64       `json:"discount"`
	PromoCode  string        `json:"promoCode,omitempty"`
	Shipping   ShippingQuote `json:"shipping"`
	Tax        TaxQuote      `json:"tax"`
	GrandTotal float64       `json:"grandTotal"`
}

// validateOrderBounds enforces the configured [min, max] order value. This
// is the one strict validation point of the pipeline: violation fails the
// whole order, unlike the clamp-by-default quote path.
func validateOrderBounds(rules BusinessRules, grandTotal float64) error {
	if rules.MinimumOrderValue > 0 && grandTotal < rules.MinimumOrderValue {
		return fmt.Errorf("order total $%.2f below minimum $%.2f: %w", grandTotal, rules.MinimumOrderValue, ErrOrderBelowMinimum)
	}
	if rules.MaximumOrderValue > 0 && grandTotal > rules.MaximumOrderValue {
		return fmt.Errorf("order total $%.2f above maximum $%.2f: %w", grandTotal, rules.MaximumOrderValue, ErrOrderAboveMaximum)
	}
	return nil
}
