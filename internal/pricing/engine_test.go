package pricing

import (
	"errors"
	"math"
	"testing"
	"time"
)

func defaultDimensionRules() DimensionRules {
	return DimensionRules{
		Width:    Bounds{Min: 12, Max: 120},
		Height:   Bounds{Min: 12, Max: 144},
		Quantity: QuantityBounds{Min: 1, Max: 50},
	}
}

func TestNormalizeLenientClamps(t *testing.T) {
	rules := defaultDimensionRules()
	d, err := rules.NormalizeLenient(6, 200, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Width != 12 || !d.WidthClamped {
		t.Fatalf("expected width clamped to 12, got %v clamped=%v", d.Width, d.WidthClamped)
	}
	if d.Height != 144 || !d.HeightClamped {
		t.Fatalf("expected height clamped to 144, got %v clamped=%v", d.Height, d.HeightClamped)
	}
	if d.Quantity != 1 {
		t.Fatalf("expected quantity defaulted to 1, got %d", d.Quantity)
	}
}

func TestNormalizeLenientRejectsNonNumeric(t *testing.T) {
	rules := defaultDimensionRules()
	if _, err := rules.NormalizeLenient(math.NaN(), 36, 1); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for NaN, got %v", err)
	}
	if _, err := rules.NormalizeLenient(24, math.Inf(1), 1); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for Inf, got %v", err)
	}
}

func TestNormalizeStrictRejectsOutOfRange(t *testing.T) {
	rules := defaultDimensionRules()
	if _, err := rules.NormalizeStrict(6, 36, 1); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for narrow width, got %v", err)
	}
	d, err := rules.NormalizeStrict(24, 36, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Quantity != 50 {
		t.Fatalf("expected quantity clamped to 50 on the strict path, got %d", d.Quantity)
	}
}

func TestAreaMinimumFloor(t *testing.T) {
	rules := DefaultAreaRules()
	a := rules.Calculate("roller", Dimensions{Width: 24, Height: 36})
	if Round2(a.RawSqm) != 0.56 {
		t.Fatalf("expected raw area 0.56, got %v", Round2(a.RawSqm))
	}
	if a.BillableSqm != 1.2 || !a.MinAreaApplied {
		t.Fatalf("expected billable floored at 1.2, got %v applied=%v", a.BillableSqm, a.MinAreaApplied)
	}

	a = rules.Calculate("roman", Dimensions{Width: 24, Height: 36})
	if a.BillableSqm != 1.5 {
		t.Fatalf("expected roman floor 1.5, got %v", a.BillableSqm)
	}

	a = rules.Calculate("roller", Dimensions{Width: 60, Height: 72})
	if a.MinAreaApplied {
		t.Fatal("large blind must not trigger the minimum floor")
	}
	if a.BillableSqm != a.RawSqm {
		t.Fatalf("expected billable == raw above the floor, got %v vs %v", a.BillableSqm, a.RawSqm)
	}
}

func TestResolveCostFallback(t *testing.T) {
	area := Area{BillableSqm: 1.2}
	res := ResolveCost(nil, "roller", ControlManual, area)
	if res.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", res.Source)
	}
	if Round2(res.UnitCost) != Round2(1.2*12.0) {
		t.Fatalf("unexpected fallback cost %v", res.UnitCost)
	}
	res = ResolveCost(nil, "unknown-type", ControlManual, area)
	if res.PricePerSqm != defaultFallbackPricePerSqm {
		t.Fatalf("expected generic fallback rate, got %v", res.PricePerSqm)
	}
}

func TestResolveCostCordlessVariant(t *testing.T) {
	cordless := 20.0
	cordlessMargin := 55.0
	rec := &ManufacturerPrice{
		ProductType:           "roller",
		FabricCode:            "FB-100",
		PricePerSqm:           14,
		CordlessPricePerSqm:   &cordless,
		CordlessMarginPercent: &cordlessMargin,
		Active:                true,
	}
	area := Area{BillableSqm: 1.2}

	res := ResolveCost(rec, "roller", ControlCordless, area)
	if res.PricePerSqm != 20 {
		t.Fatalf("cordless control must use the cordless rate, got %v", res.PricePerSqm)
	}
	if res.MarginOverride == nil || *res.MarginOverride != 55 {
		t.Fatalf("expected cordless margin override 55, got %v", res.MarginOverride)
	}

	// Motorized prices the motor separately; the fabric stays at the manual rate.
	res = ResolveCost(rec, "roller", ControlMotorized, area)
	if res.PricePerSqm != 14 {
		t.Fatalf("motorized control must keep the manual rate, got %v", res.PricePerSqm)
	}
	if res.Source != SourceCatalog {
		t.Fatalf("expected catalog source, got %s", res.Source)
	}
}

func TestResolveCostRecordMinArea(t *testing.T) {
	minArea := 2.0
	rec := &ManufacturerPrice{PricePerSqm: 10, MinAreaSqm: &minArea, Active: true}
	res := ResolveCost(rec, "roller", ControlManual, Area{BillableSqm: 1.2})
	if res.UnitCost != 20 {
		t.Fatalf("record minimum area must raise the billable area, got cost %v", res.UnitCost)
	}
}

func TestMarginFabricOverrideBeatsRules(t *testing.T) {
	override := 35.0
	rules := []MarginRule{
		{ID: "r1", ProductType: "all", Type: MarginPercentage, Value: 50, Priority: 100, Active: true},
	}
	res := ResolveMargin(10, "roller", "p1", "FB-100", &override, rules)
	if res.Source != MarginSourceFabricOverride {
		t.Fatalf("expected fabric override source, got %s", res.Source)
	}
	if res.CustomerPrice != 13.50 {
		t.Fatalf("expected customer price 13.50, got %v", res.CustomerPrice)
	}
}

func TestMarginCascadeSpecificity(t *testing.T) {
	rules := []MarginRule{
		{ID: "universal", ProductType: "all", Type: MarginPercentage, Value: 50, Priority: 1, Active: true},
		{ID: "by-type", ProductType: "roller", Type: MarginPercentage, Value: 45, Priority: 1, Active: true},
		{ID: "by-fabric", FabricCode: "FB-100", ProductType: "all", Type: MarginPercentage, Value: 42, Priority: 1, Active: true},
		{ID: "by-product", ProductID: "p1", ProductType: "all", Type: MarginPercentage, Value: 41, Priority: 1, Active: true},
		{ID: "product-fabric", ProductID: "p1", FabricCode: "FB-100", ProductType: "all", Type: MarginPercentage, Value: 38, Priority: 1, Active: true},
	}

	res := ResolveMargin(100, "roller", "p1", "FB-100", nil, rules)
	if res.RuleID != "product-fabric" || res.Value != 38 {
		t.Fatalf("expected product-fabric rule, got %s (%v)", res.RuleID, res.Value)
	}

	res = ResolveMargin(100, "roller", "p2", "FB-200", nil, rules)
	if res.RuleID != "by-type" {
		t.Fatalf("expected product-type rule, got %s", res.RuleID)
	}

	res = ResolveMargin(100, "zebra", "p2", "FB-200", nil, rules)
	if res.RuleID != "universal" {
		t.Fatalf("expected universal rule, got %s", res.RuleID)
	}

	res = ResolveMargin(100, "zebra", "p2", "FB-200", nil, nil)
	if res.Source != MarginSourceDefault || res.Value != DefaultMarginPercent {
		t.Fatalf("expected 40%% default, got %s (%v)", res.Source, res.Value)
	}
}

func TestMarginPriorityAndIDTieBreak(t *testing.T) {
	rules := []MarginRule{
		{ID: "b", ProductType: "roller", Type: MarginPercentage, Value: 30, Priority: 5, Active: true},
		{ID: "a", ProductType: "roller", Type: MarginPercentage, Value: 20, Priority: 5, Active: true},
		{ID: "c", ProductType: "roller", Type: MarginPercentage, Value: 60, Priority: 1, Active: true},
	}
	for i := 0; i < 10; i++ {
		res := ResolveMargin(100, "roller", "", "", nil, rules)
		if res.RuleID != "a" {
			t.Fatalf("expected deterministic winner a, got %s", res.RuleID)
		}
	}
}

func TestMarginTiered(t *testing.T) {
	max1 := 50.0
	max2 := 150.0
	rule := MarginRule{
		ID:          "tiered",
		ProductType: "roller",
		Type:        MarginTiered,
		Tiers: []MarginTier{
			{MinCost: 0, MaxCost: &max1, MarginPercent: 60},
			{MinCost: 50, MaxCost: &max2, MarginPercent: 45},
			{MinCost: 150, MarginPercent: 30},
		},
		Active: true,
	}

	res := ResolveMargin(50, "roller", "", "", nil, []MarginRule{rule})
	if res.Amount != 22.5 {
		t.Fatalf("cost 50 must land in the second bracket, got amount %v", res.Amount)
	}
	res = ResolveMargin(200, "roller", "", "", nil, []MarginRule{rule})
	if res.Amount != 60 {
		t.Fatalf("cost 200 must use the unbounded bracket, got amount %v", res.Amount)
	}
}

func TestMarginFloorAndCeiling(t *testing.T) {
	minMargin := 25.0
	rule := MarginRule{ID: "floor", ProductType: "roller", Type: MarginPercentage, Value: 10, MinMarginAmount: &minMargin, Active: true}
	res := ResolveMargin(100, "roller", "", "", nil, []MarginRule{rule})
	if res.Amount != 25 {
		t.Fatalf("expected min-margin floor 25, got %v", res.Amount)
	}

	maxPrice := 110.0
	rule = MarginRule{ID: "ceiling", ProductType: "roller", Type: MarginPercentage, Value: 50, MaxCustomerPrice: &maxPrice, Active: true}
	res = ResolveMargin(100, "roller", "", "", nil, []MarginRule{rule})
	if res.CustomerPrice != 110 || res.Amount != 10 {
		t.Fatalf("ceiling must recompute the amount, got price %v amount %v", res.CustomerPrice, res.Amount)
	}
	if res.Percent != 10 {
		t.Fatalf("expected effective percent 10, got %v", res.Percent)
	}
}

func TestAggregateOptionsLooseMatching(t *testing.T) {
	cat := OptionCatalog{
		MountOptions: []HardwareOption{
			{ID: "m1", Value: "Outside Mount (white)", Price: 12, ManufacturerCost: 5, Active: true},
		},
		ValanceOptions: []HardwareOption{
			{ID: "v1", Label: "Deluxe Valance", Price: 4, ManufacturerCost: 1.5, PriceType: PricePerSqm, Active: true},
		},
	}
	area := Area{BillableSqm: 2}

	totals := AggregateOptions(Selections{MountType: "outside-mount", ValanceType: "DELUXE_VALANCE"}, ControlManual, area, cat)
	if len(totals.Lines) != 2 {
		t.Fatalf("expected 2 option lines, got %d", len(totals.Lines))
	}
	if totals.Lines[0].Type != "mount" || totals.Lines[0].Price != 12 {
		t.Fatalf("unexpected mount line %+v", totals.Lines[0])
	}
	// per-sqm valance scales with billable area
	if totals.Lines[1].Price != 8 {
		t.Fatalf("expected per-sqm valance priced at 8, got %v", totals.Lines[1].Price)
	}
	if Round2(totals.Price) != 20 {
		t.Fatalf("expected option total 20, got %v", totals.Price)
	}
}

func TestAggregateOptionsUnknownSelectionSkipped(t *testing.T) {
	totals := AggregateOptions(Selections{MountType: "no-such-mount"}, ControlManual, Area{BillableSqm: 1.2}, OptionCatalog{})
	if len(totals.Lines) != 0 || totals.Price != 0 {
		t.Fatalf("unknown selections must contribute nothing, got %+v", totals)
	}
}

func TestAggregateOptionsMotorization(t *testing.T) {
	cat := OptionCatalog{
		MotorBrands: []MotorBrand{
			{ID: "mb1", Name: "Acme", Price: 199, ManufacturerCost: 120, TypePrices: map[string]float64{"rechargeable": 229}, Active: true},
		},
		RemoteOptions: []HardwareOption{{ID: "r1", Name: "15-channel remote", Price: 35, ManufacturerCost: 18, Active: true}},
	}
	sel := Selections{MotorBrandID: "mb1", MotorType: "Rechargeable", Remote: true}

	totals := AggregateOptions(sel, ControlMotorized, Area{BillableSqm: 1.2}, cat)
	if len(totals.Lines) != 2 {
		t.Fatalf("expected motor and remote lines, got %d", len(totals.Lines))
	}
	if totals.Lines[0].Price != 229 {
		t.Fatalf("expected rechargeable type price 229, got %v", totals.Lines[0].Price)
	}

	// Manual control prices no motor parts even when selected.
	totals = AggregateOptions(sel, ControlManual, Area{BillableSqm: 1.2}, cat)
	if len(totals.Lines) != 0 {
		t.Fatalf("manual control must skip motor options, got %d lines", len(totals.Lines))
	}
}

func TestAggregateOptionsDefaultMotor(t *testing.T) {
	totals := AggregateOptions(Selections{MotorBrandID: "ghost"}, ControlMotorized, Area{BillableSqm: 1.2}, OptionCatalog{})
	if len(totals.Lines) != 1 || totals.Lines[0].Price != defaultMotorPrice {
		t.Fatalf("expected default motor line, got %+v", totals.Lines)
	}
}

func TestAggregateOptionsAccessoryQuantities(t *testing.T) {
	cat := OptionCatalog{
		Accessories: []Accessory{
			{ID: "a1", Code: "smart-hub", Name: "Smart Hub", Price: 49, ManufacturerCost: 30, Active: true},
			{ID: "a2", Code: "usb-charger", Name: "USB Charger", Price: 15, ManufacturerCost: 8, Active: true},
		},
	}
	totals := AggregateOptions(Selections{SmartHubQty: 2, ChargerQty: 1}, ControlManual, Area{BillableSqm: 1.2}, cat)
	if Round2(totals.Price) != 113 {
		t.Fatalf("expected 2*49 + 15 = 113, got %v", totals.Price)
	}
	if totals.Lines[0].Quantity != 2 {
		t.Fatalf("expected smart hub quantity 2, got %d", totals.Lines[0].Quantity)
	}
}

func TestEstimateShippingFreeThresholdInclusive(t *testing.T) {
	cfg := ShippingConfig{DefaultRate: 19.99, FreeShippingThreshold: 100}

	q := EstimateShipping(cfg, 100.00, 1, Destination{State: "TX"})
	if q.Method != "free" || q.Amount != 0 {
		t.Fatalf("subtotal at the threshold must ship free, got %+v", q)
	}
	q = EstimateShipping(cfg, 99.99, 1, Destination{State: "TX"})
	if q.Method != "standard" || q.Amount != 19.99 {
		t.Fatalf("subtotal below the threshold must pay, got %+v", q)
	}
}

func TestEstimateShippingZonesAndTiers(t *testing.T) {
	cfg := ShippingConfig{
		DefaultRate:   19.99,
		UnitWeightLbs: 6,
		Zones: []ShippingZone{
			{
				Name:      "Contiguous US",
				Countries: []string{"US"},
				Tiers: []WeightTier{
					{MaxWeightLbs: 20, Rate: 14.99},
					{MaxWeightLbs: 0, Rate: 29.99},
				},
				EstimatedDays: "5-7",
			},
			{
				Name:   "Remote US",
				Remote: true,
				Tiers:  []WeightTier{{MaxWeightLbs: 0, Rate: 49.99}},
			},
		},
	}

	q := EstimateShipping(cfg, 50, 2, Destination{State: "TX"})
	if q.Amount != 14.99 || q.Description != "Contiguous US" {
		t.Fatalf("expected light-tier contiguous rate, got %+v", q)
	}
	// 6 lbs * 5 units = 30 lbs lands in the catch-all tier.
	q = EstimateShipping(cfg, 50, 5, Destination{State: "TX"})
	if q.Amount != 29.99 {
		t.Fatalf("expected heavy-tier rate, got %+v", q)
	}
	q = EstimateShipping(cfg, 50, 1, Destination{State: "AK"})
	if q.Amount != 49.99 {
		t.Fatalf("Alaska must route to the remote zone, got %+v", q)
	}
	q = EstimateShipping(cfg, 50, 1, Destination{State: "HI"})
	if q.Amount != 49.99 {
		t.Fatalf("Hawaii must route to the remote zone, got %+v", q)
	}
}

func TestEstimateShippingCountryMatching(t *testing.T) {
	cfg := ShippingConfig{
		DefaultRate:   19.99,
		UnitWeightLbs: 6,
		Zones: []ShippingZone{
			{
				Name:      "US Domestic",
				Countries: []string{"US"},
				Tiers:     []WeightTier{{MaxWeightLbs: 0, Rate: 14.99}},
			},
			{
				Name:      "Canada",
				Countries: []string{"CA"},
				Tiers:     []WeightTier{{MaxWeightLbs: 0, Rate: 34.99}},
			},
		},
	}

	q := EstimateShipping(cfg, 50, 1, Destination{Country: "CA", State: "ON"})
	if q.Amount != 34.99 || q.Description != "Canada" {
		t.Fatalf("Canadian destination must match the CA zone, got %+v", q)
	}
	// An empty country is treated as US.
	q = EstimateShipping(cfg, 50, 1, Destination{State: "TX"})
	if q.Amount != 14.99 || q.Description != "US Domestic" {
		t.Fatalf("empty country must default to US, got %+v", q)
	}
}

func TestEstimateTax(t *testing.T) {
	cfg := TaxConfig{
		Enabled:     true,
		DefaultRate: 0.05,
		Rules:       []TaxRule{{Region: "TX", Rate: 0.0625, Name: "Texas sales tax"}},
	}

	q := EstimateTax(cfg, 100, "tx")
	if Round2(q.Amount) != 6.25 || q.Name != "Texas sales tax" {
		t.Fatalf("expected the TX rule, got %+v", q)
	}
	q = EstimateTax(cfg, 100, "NV")
	if Round2(q.Amount) != 5 {
		t.Fatalf("expected the default rate, got %+v", q)
	}
	q = EstimateTax(TaxConfig{}, 100, "TX")
	if q.Amount != 0 {
		t.Fatalf("disabled config must yield zero tax, got %+v", q)
	}
}

func TestPromotionMinPurchaseBoundary(t *testing.T) {
	promo := Promotion{Code: "SAVE10", Type: "percentage", Value: 10, MinPurchase: 50, Active: true}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := promo.Validate(now, 49.99); !errors.Is(err, ErrPromoMinPurchase) {
		t.Fatalf("expected ErrPromoMinPurchase at 49.99, got %v", err)
	}
	if err := promo.Validate(now, 50.00); err != nil {
		t.Fatalf("50.00 must satisfy the inclusive minimum, got %v", err)
	}
}

func TestPromotionWindowAndUsage(t *testing.T) {
	starts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ends := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	limit := 2
	promo := Promotion{
		Code: "JUNE", Type: "fixed", Value: 15,
		UsageLimit: &limit, UsageCount: 2,
		StartsAt: &starts, EndsAt: &ends, Active: true,
	}

	if err := promo.Validate(starts.Add(time.Hour), 100); !errors.Is(err, ErrPromoExhausted) {
		t.Fatalf("expected ErrPromoExhausted, got %v", err)
	}
	promo.UsageCount = 1
	if err := promo.Validate(starts.Add(-time.Hour), 100); !errors.Is(err, ErrPromoNotStarted) {
		t.Fatalf("expected ErrPromoNotStarted, got %v", err)
	}
	if err := promo.Validate(ends.Add(time.Hour), 100); !errors.Is(err, ErrPromoExpired) {
		t.Fatalf("expected ErrPromoExpired, got %v", err)
	}
	if err := promo.Validate(starts.Add(time.Hour), 100); err != nil {
		t.Fatalf("in-window validation failed: %v", err)
	}
}

func TestPromotionDiscountCaps(t *testing.T) {
	maxDiscount := 25.0
	promo := Promotion{Type: "percentage", Value: 20, MaxDiscount: &maxDiscount}
	if d := promo.Discount(200); d != 25 {
		t.Fatalf("expected max-discount cap 25, got %v", d)
	}
	fixed := Promotion{Type: "fixed", Value: 80}
	if d := fixed.Discount(50); d != 50 {
		t.Fatalf("a discount must never exceed the total, got %v", d)
	}
}

func TestVerifyTolerance(t *testing.T) {
	v := verifyAgainst(100.00, 100.01)
	if !v.Valid {
		t.Fatalf("one cent difference must verify, got %+v", v)
	}
	v = verifyAgainst(100.00, 100.02)
	if v.Valid {
		t.Fatalf("two cent difference must fail, got %+v", v)
	}
	if v.VerifiedPrice != 100.00 {
		t.Fatalf("verified price must be the server value, got %v", v.VerifiedPrice)
	}
	// Sub-cent float artifacts round away before comparison.
	v = verifyAgainst(100.004999, 100.00)
	if !v.Valid {
		t.Fatalf("rounding artifact must not flip the outcome, got %+v", v)
	}
	// A client value that rounds to one display cent away still verifies.
	v = verifyAgainst(23.52, 23.529)
	if !v.Valid {
		t.Fatalf("client price within a display cent must verify, got %+v", v)
	}
	if v.Delta != 0.01 {
		t.Fatalf("expected delta of exactly one cent, got %v", v.Delta)
	}
}

func TestValidateOrderBounds(t *testing.T) {
	rules := BusinessRules{MinimumOrderValue: 25, MaximumOrderValue: 10000}

	if err := validateOrderBounds(rules, 24.99); !errors.Is(err, ErrOrderBelowMinimum) {
		t.Fatalf("expected ErrOrderBelowMinimum, got %v", err)
	}
	if err := validateOrderBounds(rules, 10000.00); err != nil {
		t.Fatalf("exactly the maximum must pass, got %v", err)
	}
	if err := validateOrderBounds(rules, 10000.01); !errors.Is(err, ErrOrderAboveMaximum) {
		t.Fatalf("one cent above the maximum must fail, got %v", err)
	}
	if err := validateOrderBounds(BusinessRules{}, 5); err != nil {
		t.Fatalf("zero bounds disable validation, got %v", err)
	}
}

func TestRound2Idempotent(t *testing.T) {
	for _, v := range []float64{0, 23.515, 23.514999, 16.799999999999997, 99.994999, -10.005} {
		once := Round2(v)
		if Round2(once) != once {
			t.Fatalf("Round2 not idempotent for %v", v)
		}
	}
}
