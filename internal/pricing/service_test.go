package pricing_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabooshades/pricing-api/internal/pricing"
)

type fakeCatalog struct {
	products    map[string]pricing.Product
	prices      map[string]*pricing.ManufacturerPrice
	marginRules []pricing.MarginRule
	options     pricing.OptionCatalog
	promotions  map[string]*pricing.Promotion
}

func (f *fakeCatalog) ProductBySlug(_ context.Context, slug string) (pricing.Product, error) {
	p, ok := f.products[slug]
	if !ok {
		return pricing.Product{}, pricing.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ManufacturerPrice(_ context.Context, productType, fabricCode string) (*pricing.ManufacturerPrice, error) {
	return f.prices[productType+"/"+strings.ToUpper(fabricCode)], nil
}

func (f *fakeCatalog) MarginRules(_ context.Context, _ string) ([]pricing.MarginRule, error) {
	return f.marginRules, nil
}

func (f *fakeCatalog) Options(_ context.Context) (pricing.OptionCatalog, error) {
	return f.options, nil
}

func (f *fakeCatalog) Promotion(_ context.Context, code string) (*pricing.Promotion, error) {
	return f.promotions[strings.ToUpper(code)], nil
}

type fakeConfig struct {
	dims     pricing.DimensionRules
	area     pricing.AreaRules
	tax      pricing.TaxConfig
	shipping pricing.ShippingConfig
	business pricing.BusinessRules
}

func (f *fakeConfig) DimensionRules(context.Context) (pricing.DimensionRules, error) {
	return f.dims, nil
}
func (f *fakeConfig) AreaRules(context.Context) (pricing.AreaRules, error) { return f.area, nil }
func (f *fakeConfig) TaxConfig(context.Context) (pricing.TaxConfig, error) {
	return f.tax, nil
}
func (f *fakeConfig) ShippingConfig(context.Context) (pricing.ShippingConfig, error) {
	return f.shipping, nil
}
func (f *fakeConfig) BusinessRules(context.Context) (pricing.BusinessRules, error) {
	return f.business, nil
}

func newFixture() (*fakeCatalog, *fakeConfig, *pricing.Service) {
	catalog := &fakeCatalog{
		products: map[string]pricing.Product{
			"classic-roller": {ID: "p1", Slug: "classic-roller", Name: "Classic Roller", Type: "roller", BasePrice: 89, Active: true},
			"retired-roman":  {ID: "p2", Slug: "retired-roman", Name: "Retired Roman", Type: "roman", BasePrice: 129, Active: false},
		},
		prices: map[string]*pricing.ManufacturerPrice{
			"roller/FB-100": {ProductType: "roller", FabricCode: "FB-100", PricePerSqm: 14, Active: true},
		},
		promotions: map[string]*pricing.Promotion{
			"SAVE10": {Code: "SAVE10", Type: "percentage", Value: 10, MinPurchase: 50, Active: true},
		},
	}
	config := &fakeConfig{
		dims: pricing.DimensionRules{
			Width:    pricing.Bounds{Min: 12, Max: 120},
			Height:   pricing.Bounds{Min: 12, Max: 144},
			Quantity: pricing.QuantityBounds{Min: 1, Max: 50},
		},
		area: pricing.DefaultAreaRules(),
		tax: pricing.TaxConfig{
			Enabled:     true,
			DefaultRate: 0.05,
			Rules:       []pricing.TaxRule{{Region: "TX", Rate: 0.0625, Name: "Texas sales tax"}},
		},
		shipping: pricing.ShippingConfig{
			DefaultRate:           19.99,
			FreeShippingThreshold: 100,
			UnitWeightLbs:         6,
		},
		business: pricing.BusinessRules{MinimumOrderValue: 25, MaximumOrderValue: 10000},
	}
	svc := &pricing.Service{
		Catalog: catalog,
		Config:  config,
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return catalog, config, svc
}

func TestComputeItemPriceSmallRoller(t *testing.T) {
	_, _, svc := newFixture()

	quote, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{
		ProductSlug: "classic-roller",
		Width:       24,
		Height:      36,
		Quantity:    1,
		FabricCode:  "FB-100",
		ControlType: "manual",
	})
	require.NoError(t, err)

	// 24x36in is under the 1.2 m² floor; cost 1.2 * $14 = $16.80, default
	// 40% margin makes the unit price $23.52.
	require.True(t, quote.Area.MinAreaApplied)
	require.InDelta(t, 1.2, quote.Area.BillableSqm, 1e-9)
	require.Equal(t, 16.80, quote.Cost.UnitCost)
	require.Equal(t, pricing.SourceCatalog, quote.Cost.Source)
	require.Equal(t, 23.52, quote.UnitPrice)
	require.Equal(t, 23.52, quote.LineTotal)
	require.False(t, quote.BaseFloorUsed)
	require.Nil(t, quote.Shipping)
}

func TestComputeItemPriceDeterministic(t *testing.T) {
	_, _, svc := newFixture()
	req := pricing.ItemRequest{
		ProductSlug: "classic-roller",
		Width:       47.5,
		Height:      63.25,
		Quantity:    3,
		FabricCode:  "FB-100",
		ControlType: "cordless",
	}
	first, err := svc.ComputeItemPrice(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.ComputeItemPrice(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestComputeItemPriceFallbackFloorsAtBasePrice(t *testing.T) {
	_, _, svc := newFixture()

	quote, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{
		ProductSlug: "classic-roller",
		Width:       24,
		Height:      36,
		Quantity:    1,
		FabricCode:  "FB-UNKNOWN",
	})
	require.NoError(t, err)
	require.Equal(t, pricing.SourceFallback, quote.Cost.Source)
	// Fallback estimate (1.2 * $12 * 1.4 = $20.16) is under the $89 base
	// price, so the base price wins.
	require.True(t, quote.BaseFloorUsed)
	require.Equal(t, 89.00, quote.UnitPrice)
}

func TestComputeItemPriceClampsDimensions(t *testing.T) {
	_, _, svc := newFixture()

	quote, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{
		ProductSlug: "classic-roller",
		Width:       6,
		Height:      36,
		Quantity:    1,
		FabricCode:  "FB-100",
	})
	require.NoError(t, err)
	require.True(t, quote.Dimensions.WidthClamped)
	require.Equal(t, 12.0, quote.Dimensions.Width)
}

func TestComputeItemPriceUnknownProduct(t *testing.T) {
	_, _, svc := newFixture()
	_, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{ProductSlug: "no-such", Width: 24, Height: 36, FabricCode: "FB-100"})
	require.ErrorIs(t, err, pricing.ErrProductNotFound)

	_, err = svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{ProductSlug: "retired-roman", Width: 24, Height: 36, FabricCode: "FB-100"})
	require.ErrorIs(t, err, pricing.ErrProductInactive)
}

func TestComputeItemPriceWithShippingAndTax(t *testing.T) {
	_, _, svc := newFixture()

	quote, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{
		ProductSlug:      "classic-roller",
		Width:            24,
		Height:           36,
		Quantity:         1,
		FabricCode:       "FB-100",
		DestinationState: "TX",
		IncludeShipping:  true,
		IncludeTax:       true,
	})
	require.NoError(t, err)
	require.NotNil(t, quote.Shipping)
	require.Equal(t, 19.99, quote.Shipping.Amount)
	require.NotNil(t, quote.Tax)
	// Tax applies to line + shipping: (23.52 + 19.99) * 0.0625 = 2.72.
	require.Equal(t, 2.72, quote.Tax.Amount)
	require.Equal(t, 46.23, quote.GrandTotal)
}

func TestComputeOrderTotalStrictDimensions(t *testing.T) {
	_, _, svc := newFixture()

	_, err := svc.ComputeOrderTotal(context.Background(), []pricing.LineItem{
		{ProductSlug: "classic-roller", Width: 6, Height: 36, Quantity: 1, FabricCode: "FB-100"},
	}, pricing.Destination{State: "TX"}, "")
	require.ErrorIs(t, err, pricing.ErrInvalidDimension)
	require.Contains(t, err.Error(), "classic-roller")
}

func TestComputeOrderTotalWithPromotion(t *testing.T) {
	_, _, svc := newFixture()

	items := []pricing.LineItem{
		// 5 small rollers: 5 * 23.52 = 117.60, over the free-shipping threshold.
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 5, FabricCode: "FB-100"},
	}
	summary, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "NV"}, "save10")
	require.NoError(t, err)

	require.Equal(t, 117.60, summary.Subtotal)
	require.Equal(t, 11.76, summary.Discount)
	require.Equal(t, "SAVE10", summary.PromoCode)
	require.Equal(t, "free", summary.Shipping.Method)
	require.Equal(t, 0.0, summary.Shipping.Amount)
	// (117.60 - 11.76) * 0.05 default rate = 5.29
	require.Equal(t, 5.29, summary.Tax.Amount)
	require.Equal(t, 111.13, summary.GrandTotal)
	require.Len(t, summary.Lines, 1)
	require.Equal(t, 23.52, summary.Lines[0].UnitPrice)
}

func TestComputeOrderTotalPromotionBelowMinimum(t *testing.T) {
	_, _, svc := newFixture()

	items := []pricing.LineItem{
		// One small roller: 23.52, under the $50 promo minimum.
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 1, FabricCode: "FB-100"},
	}
	_, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "SAVE10")
	require.ErrorIs(t, err, pricing.ErrPromoMinPurchase)
}

func TestComputeOrderTotalUnknownPromo(t *testing.T) {
	_, _, svc := newFixture()
	items := []pricing.LineItem{
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 5, FabricCode: "FB-100"},
	}
	_, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "NOPE")
	require.ErrorIs(t, err, pricing.ErrPromoInvalid)
}

func TestComputeOrderTotalBelowMinimumOrderValue(t *testing.T) {
	_, config, svc := newFixture()
	config.business = pricing.BusinessRules{MinimumOrderValue: 100}
	config.tax.Enabled = false
	config.shipping = pricing.ShippingConfig{}

	items := []pricing.LineItem{
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 1, FabricCode: "FB-100"},
	}
	_, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "")
	require.ErrorIs(t, err, pricing.ErrOrderBelowMinimum)
}

func TestComputeOrderTotalAboveMaximumOrderValue(t *testing.T) {
	_, config, svc := newFixture()
	config.business = pricing.BusinessRules{MaximumOrderValue: 100}
	config.tax.Enabled = false

	items := []pricing.LineItem{
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 5, FabricCode: "FB-100"},
	}
	_, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "")
	require.ErrorIs(t, err, pricing.ErrOrderAboveMaximum)
}

func TestVerifyPrice(t *testing.T) {
	_, _, svc := newFixture()
	req := pricing.ItemRequest{
		ProductSlug: "classic-roller",
		Width:       24,
		Height:      36,
		Quantity:    1,
		FabricCode:  "FB-100",
	}

	v, err := svc.VerifyPrice(context.Background(), 23.52, req)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, 23.52, v.VerifiedPrice)

	v, err = svc.VerifyPrice(context.Background(), 19.99, req)
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.Equal(t, 23.52, v.VerifiedPrice)
	require.Equal(t, 19.99, v.ClientPrice)
}

func TestSimulateMarginChange(t *testing.T) {
	_, _, svc := newFixture()

	deltas, err := svc.SimulateMarginChange(context.Background(), "roller", []string{"FB-100"}, 5)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	// Reference cost 1.2 * $14 = $16.80; 40% -> $23.52, 45% -> $24.36.
	require.Equal(t, 23.52, deltas[0].CurrentPrice)
	require.Equal(t, 24.36, deltas[0].SimulatedPrice)
	require.Equal(t, 0.84, deltas[0].Delta)
}

func TestServiceNotConfigured(t *testing.T) {
	var svc pricing.Service
	_, err := svc.ComputeItemPrice(context.Background(), pricing.ItemRequest{ProductSlug: "x"})
	require.ErrorIs(t, err, pricing.ErrNotConfigured)
	_, err = svc.ComputeOrderTotal(context.Background(), []pricing.LineItem{{ProductSlug: "x"}}, pricing.Destination{}, "")
	require.ErrorIs(t, err, pricing.ErrNotConfigured)
}

func TestPromotionRepeatedEvaluationIdempotent(t *testing.T) {
	_, _, svc := newFixture()
	items := []pricing.LineItem{
		{ProductSlug: "classic-roller", Width: 24, Height: 36, Quantity: 5, FabricCode: "FB-100"},
	}
	first, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "SAVE10")
	require.NoError(t, err)
	second, err := svc.ComputeOrderTotal(context.Background(), items, pricing.Destination{State: "TX"}, "SAVE10")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

var _ pricing.CatalogReader = (*fakeCatalog)(nil)
var _ pricing.ConfigProvider = (*fakeConfig)(nil)
