package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProductNotFound is returned when the slug resolves to no product.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInactive is returned for products withdrawn from sale.
	ErrProductInactive = errors.New("product not active")
	// ErrNotConfigured signals missing collaborator wiring.
	ErrNotConfigured = errors.New("pricing service not configured")
)

// Product is the catalog entry a pricing request resolves against.
// BasePrice is the cross-check floor used when manufacturer cost had to be
// estimated.
type Product struct {
	ID        string  `json:"id"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	BasePrice float64 `json:"basePrice"`
	Active    bool    `json:"active"`
}

// CatalogReader is the read-only catalog surface the pricing core consumes.
// Absent manufacturer prices and promotions come back as (nil, nil); only
// infrastructure failures error.
type CatalogReader interface {
	ProductBySlug(ctx context.Context, slug string) (Product, error)
	ManufacturerPrice(ctx context.Context, productType, fabricCode string) (*ManufacturerPrice, error)
	MarginRules(ctx context.Context, productType string) ([]MarginRule, error)
	Options(ctx context.Context) (OptionCatalog, error)
	Promotion(ctx context.Context, code string) (*Promotion, error)
}

// ConfigProvider supplies the configuration snapshot. Implementations own
// caching and invalidation; the core re-reads on every request.
type ConfigProvider interface {
	DimensionRules(ctx context.Context) (DimensionRules, error)
	AreaRules(ctx context.Context) (AreaRules, error)
	TaxConfig(ctx context.Context) (TaxConfig, error)
	ShippingConfig(ctx context.Context) (ShippingConfig, error)
	BusinessRules(ctx context.Context) (BusinessRules, error)
}

// ItemRequest is the input of one item pricing computation.
type ItemRequest struct {
	ProductSlug      string     `json:"productSlug"`
	ProductType      string     `json:"productType,omitempty"`
	Width            float64    `json:"width"`
	Height           float64    `json:"height"`
	Quantity         int        `json:"quantity"`
	FabricCode       string     `json:"fabricCode"`
	ControlType      string     `json:"controlType,omitempty"`
	Selections       Selections `json:"options"`
	DestinationState string     `json:"destinationState,omitempty"`
	IncludeShipping  bool       `json:"includeShipping,omitempty"`
	IncludeTax       bool       `json:"includeTax,omitempty"`
}

// CostBreakdown is the manufacturer-cost slice of a quote.
type CostBreakdown struct {
	PerSqm   float64    `json:"perSqm"`
	UnitCost float64    `json:"unitCost"`
	Source   CostSource `json:"source"`
}

// Quote is the full computation result for one item. Every monetary field
// is rounded to currency precision at assembly; the unrounded values never
// leave the package.
type Quote struct {
	ProductID     string         `json:"productId"`
	ProductSlug   string         `json:"productSlug"`
	ProductType   string         `json:"productType"`
	Dimensions    Dimensions     `json:"dimensions"`
	Area          Area           `json:"area"`
	Cost          CostBreakdown  `json:"cost"`
	Margin        MarginResult   `json:"margin"`
	Options       OptionTotals   `json:"optionTotals"`
	UnitPrice     float64        `json:"unitPrice"`
	Quantity      int            `json:"quantity"`
	LineTotal     float64        `json:"lineTotal"`
	BaseFloorUsed bool           `json:"basePriceFloorApplied,omitempty"`
	Shipping      *ShippingQuote `json:"shipping,omitempty"`
	Tax           *TaxQuote      `json:"tax,omitempty"`
	GrandTotal    float64        `json:"grandTotal,omitempty"`
}

// MarginDelta is one row of a margin what-if simulation.
type MarginDelta struct {
	FabricCode     string  `json:"fabricCode"`
	CurrentPrice   float64 `json:"currentPrice"`
	SimulatedPrice float64 `json:"simulatedPrice"`
	Delta          float64 `json:"delta"`
}

// Service computes authoritative prices. It is stateless and safe for
// concurrent use; all reads go through the injected collaborators.
type Service struct {
	Catalog CatalogReader
	Config  ConfigProvider
	Now     func() time.Time
}

// itemComputation keeps the unrounded money next to the presentation quote
// so order assembly can accumulate without compounding rounding error.
type itemComputation struct {
	quote   Quote
	rawUnit float64
	rawLine float64
}

// ComputeItemPrice runs the full single-item pipeline on the lenient path:
// out-of-range dimensions clamp rather than fail. Missing manufacturer
// records degrade to fallback pricing; only an unknown or inactive product
// is an error.
func (s *Service) ComputeItemPrice(ctx context.Context, req ItemRequest) (*Quote, error) {
	comp, err := s.computeItem(ctx, req, false)
	if err != nil {
		return nil, err
	}
	q := comp.quote

	if req.IncludeShipping || req.IncludeTax {
		grand := comp.rawLine
		if req.IncludeShipping {
			shipCfg, err := s.Config.ShippingConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load shipping config: %w", err)
			}
			ship := EstimateShipping(shipCfg, comp.rawLine, q.Quantity, Destination{State: req.DestinationState})
			ship.Amount = Round2(ship.Amount)
			grand += ship.Amount
			q.Shipping = &ship
		}
		if req.IncludeTax {
			taxCfg, err := s.Config.TaxConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load tax config: %w", err)
			}
			tax := EstimateTax(taxCfg, grand, req.DestinationState)
			tax.Amount = Round2(tax.Amount)
			grand += tax.Amount
			q.Tax = &tax
		}
		q.GrandTotal = Round2(grand)
	}
	return &q, nil
}

// ComputeOrderTotal recomputes every line server-side (client prices are
// never trusted), applies the promotion, shipping and tax, and enforces the
// order-value bounds strictly.
func (s *Service) ComputeOrderTotal(ctx context.Context, items []LineItem, dest Destination, promoCode string) (*OrderSummary, error) {
	if s == nil || s.Catalog == nil || s.Config == nil {
		return nil, ErrNotConfigured
	}
	if len(items) == 0 {
		return nil, errors.New("order has no line items")
	}

	summary := &OrderSummary{Lines: make([]OrderLine, 0, len(items))}
	var subtotal float64
	var totalQty int
	for _, it := range items {
		comp, err := s.computeItem(ctx, ItemRequest{
			ProductSlug: it.ProductSlug,
			Width:       it.Width,
			Height:      it.Height,
			Quantity:    it.Quantity,
			FabricCode:  it.FabricCode,
			ControlType: it.ControlType,
			Selections:  it.Selections,
		}, true)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ProductSlug, err)
		}
		q := comp.quote
		summary.Lines = append(summary.Lines, OrderLine{
			ProductSlug: it.ProductSlug,
			Quantity:    q.Quantity,
			UnitPrice:   q.UnitPrice,
			LineTotal:   q.LineTotal,
			Quote:       &q,
		})
		subtotal += comp.rawLine
		totalQty += q.Quantity
	}

	var discount float64
	if promoCode != "" {
		promo, err := s.Catalog.Promotion(ctx, promoCode)
		if err != nil {
			return nil, fmt.Errorf("load promotion: %w", err)
		}
		if promo == nil || !promo.MatchesCode(promoCode) {
			return nil, ErrPromoInvalid
		}
		if err := promo.Validate(s.now(), subtotal); err != nil {
			return nil, err
		}
		discount = promo.Discount(subtotal)
		summary.PromoCode = promo.Code
	}

	shipCfg, err := s.Config.ShippingConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipping config: %w", err)
	}
	// Free-shipping eligibility keys off the pre-discount subtotal.
	shipping := EstimateShipping(shipCfg, subtotal, totalQty, dest)

	taxCfg, err := s.Config.TaxConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tax config: %w", err)
	}
	taxable := subtotal - discount + shipping.Amount
	tax := EstimateTax(taxCfg, taxable, dest.State)

	grand := subtotal - discount + shipping.Amount + tax.Amount

	rules, err := s.Config.BusinessRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load business rules: %w", err)
	}
	if err := validateOrderBounds(rules, Round2(grand)); err != nil {
		return nil, err
	}

	shipping.Amount = Round2(shipping.Amount)
	tax.Amount = Round2(tax.Amount)
	summary.Subtotal = Round2(subtotal)
	summary.Discount = Round2(discount)
	summary.Shipping = shipping
	summary.Tax = tax
	summary.GrandTotal = Round2(grand)
	return summary, nil
}

// VerifyPrice recomputes the unit price from the same parameters the client
// used and compares the client assertion within a one-cent tolerance. This
// is the checkout tamper check: on mismatch both values are surfaced and
// the caller must reject the submission.
func (s *Service) VerifyPrice(ctx context.Context, clientUnitPrice float64, req ItemRequest) (Verification, error) {
	comp, err := s.computeItem(ctx, req, false)
	if err != nil {
		return Verification{}, err
	}
	return verifyAgainst(comp.quote.UnitPrice, clientUnitPrice), nil
}

// SimulateMarginChange prices each fabric at the product type's reference
// area (the minimum billable floor) under the current margin cascade, then
// again with the margin percent shifted by adjustPercent. Read-only; used
// by admin what-if tooling.
func (s *Service) SimulateMarginChange(ctx context.Context, productType string, fabricCodes []string, adjustPercent float64) ([]MarginDelta, error) {
	if s == nil || s.Catalog == nil || s.Config == nil {
		return nil, ErrNotConfigured
	}
	areaRules, err := s.Config.AreaRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load area rules: %w", err)
	}
	rules, err := s.Catalog.MarginRules(ctx, productType)
	if err != nil {
		return nil, fmt.Errorf("load margin rules: %w", err)
	}
	area := Area{BillableSqm: areaRules.floorFor(productType), MinAreaApplied: true}
	out := make([]MarginDelta, 0, len(fabricCodes))
	for _, code := range fabricCodes {
		rec, err := s.Catalog.ManufacturerPrice(ctx, productType, code)
		if err != nil {
			return nil, fmt.Errorf("load manufacturer price for %q: %w", code, err)
		}
		cost := ResolveCost(rec, productType, ControlManual, area)
		margin := ResolveMargin(cost.UnitCost, productType, "", code, cost.MarginOverride, rules)
		simulated := cost.UnitCost * (1 + (margin.Percent+adjustPercent)/100)
		out = append(out, MarginDelta{
			FabricCode:     code,
			CurrentPrice:   Round2(margin.CustomerPrice),
			SimulatedPrice: Round2(simulated),
			Delta:          Round2(simulated - margin.CustomerPrice),
		})
	}
	return out, nil
}

// computeItem is the shared single-item pipeline. strict selects the order
// path (reject out-of-range dimensions) over the quote path (clamp).
func (s *Service) computeItem(ctx context.Context, req ItemRequest, strict bool) (itemComputation, error) {
	if s == nil || s.Catalog == nil || s.Config == nil {
		return itemComputation{}, ErrNotConfigured
	}

	product, err := s.Catalog.ProductBySlug(ctx, req.ProductSlug)
	if err != nil {
		return itemComputation{}, err
	}
	if !product.Active {
		return itemComputation{}, ErrProductInactive
	}
	productType := product.Type
	if productType == "" {
		productType = req.ProductType
	}

	dimRules, err := s.Config.DimensionRules(ctx)
	if err != nil {
		return itemComputation{}, fmt.Errorf("load dimension rules: %w", err)
	}
	var dims Dimensions
	if strict {
		dims, err = dimRules.NormalizeStrict(req.Width, req.Height, req.Quantity)
	} else {
		dims, err = dimRules.NormalizeLenient(req.Width, req.Height, req.Quantity)
	}
	if err != nil {
		return itemComputation{}, err
	}

	areaRules, err := s.Config.AreaRules(ctx)
	if err != nil {
		return itemComputation{}, fmt.Errorf("load area rules: %w", err)
	}
	area := areaRules.Calculate(productType, dims)

	rec, err := s.Catalog.ManufacturerPrice(ctx, productType, req.FabricCode)
	if err != nil {
		return itemComputation{}, fmt.Errorf("load manufacturer price: %w", err)
	}
	cost := ResolveCost(rec, productType, req.ControlType, area)

	marginRules, err := s.Catalog.MarginRules(ctx, productType)
	if err != nil {
		return itemComputation{}, fmt.Errorf("load margin rules: %w", err)
	}
	margin := ResolveMargin(cost.UnitCost, productType, product.ID, req.FabricCode, cost.MarginOverride, marginRules)

	optCatalog, err := s.Catalog.Options(ctx)
	if err != nil {
		return itemComputation{}, fmt.Errorf("load option catalog: %w", err)
	}
	options := AggregateOptions(req.Selections, req.ControlType, area, optCatalog)

	rawUnit := margin.CustomerPrice + options.Price
	baseFloor := false
	// Fallback manufacturer costs are estimates; never quote below the
	// product's catalog base price off one.
	if cost.Source == SourceFallback && product.BasePrice > 0 && rawUnit < product.BasePrice {
		rawUnit = product.BasePrice
		baseFloor = true
	}
	rawLine := rawUnit * float64(dims.Quantity)

	q := Quote{
		ProductID:   product.ID,
		ProductSlug: product.Slug,
		ProductType: productType,
		Dimensions:  dims,
		Area: Area{
			RawSqm:         Round2(area.RawSqm),
			BillableSqm:    Round2(area.BillableSqm),
			MinAreaApplied: area.MinAreaApplied,
		},
		Cost: CostBreakdown{
			PerSqm:   Round2(cost.PricePerSqm),
			UnitCost: Round2(cost.UnitCost),
			Source:   cost.Source,
		},
		Margin:        roundMargin(margin),
		Options:       roundOptions(options),
		UnitPrice:     Round2(rawUnit),
		Quantity:      dims.Quantity,
		LineTotal:     Round2(rawLine),
		BaseFloorUsed: baseFloor,
	}
	return itemComputation{quote: q, rawUnit: rawUnit, rawLine: rawLine}, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func roundMargin(m MarginResult) MarginResult {
	m.Amount = Round2(m.Amount)
	m.Percent = Round2(m.Percent)
	m.CustomerPrice = Round2(m.CustomerPrice)
	return m
}

func roundOptions(o OptionTotals) OptionTotals {
	o.Price = Round2(o.Price)
	o.ManufacturerCost = Round2(o.ManufacturerCost)
	return o
}
