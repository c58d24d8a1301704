package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/peekabooshades/pricing-api/internal/pricing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedProducts(ctx, pool)
	seedManufacturerPrices(ctx, pool)
	seedMarginRules(ctx, pool)
	seedHardwareOptions(ctx, pool)
	seedAccessories(ctx, pool)
	seedMotorBrands(ctx, pool)
	seedFabricUpgrades(ctx, pool)
	seedPromotions(ctx, pool)
	seedSettings(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := []struct {
		ID        string
		Slug      string
		Name      string
		Type      string
		BasePrice float64
	}{
		{"prod-classic-roller", "classic-roller", "Classic Roller Shade", "roller", 89.00},
		{"prod-blackout-roller", "blackout-roller", "Blackout Roller Shade", "roller", 119.00},
		{"prod-day-night-zebra", "day-night-zebra", "Day & Night Zebra Shade", "zebra", 139.00},
		{"prod-premium-zebra", "premium-zebra", "Premium Zebra Shade", "zebra", 169.00},
		{"prod-cellular-light", "cellular-light-filter", "Light Filtering Cellular Shade", "honeycomb", 129.00},
		{"prod-cellular-blackout", "cellular-blackout", "Blackout Cellular Shade", "honeycomb", 159.00},
		{"prod-linen-roman", "linen-roman", "Linen Roman Shade", "roman", 189.00},
		{"prod-flat-fold-roman", "flat-fold-roman", "Flat Fold Roman Shade", "roman", 209.00},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, slug, name, product_type, base_price, active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				product_type = EXCLUDED.product_type,
				base_price = EXCLUDED.base_price,
				updated_at = now();
		`, p.ID, p.Slug, p.Name, p.Type, p.BasePrice)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Slug, err)
		}
	}
}

func seedManufacturerPrices(ctx context.Context, pool *pgxpool.Pool) {
	prices := []struct {
		Type     string
		Fabric   string
		PerSqm   float64
		Cordless float64
		MinArea  float64
	}{
		{"roller", "FB-100", 14.00, 0, 0},
		{"roller", "FB-200", 18.50, 0, 0},
		{"roller", "BL-300", 22.00, 27.50, 0},
		{"zebra", "ZB-100", 19.00, 0, 0},
		{"zebra", "ZB-200", 24.50, 0, 1.8},
		{"honeycomb", "HC-100", 21.00, 0, 0},
		{"roman", "RM-LINEN", 28.00, 0, 2.0},
	}

	log.Println("Seeding manufacturer prices...")
	for _, mp := range prices {
		_, err := pool.Exec(ctx, `
			INSERT INTO manufacturer_prices
				(product_type, fabric_code, price_per_sqm, cordless_price_per_sqm, min_area_sqm, active)
			VALUES ($1, $2, $3, NULLIF($4, 0::double precision), NULLIF($5, 0::double precision), true)
			ON CONFLICT (product_type, fabric_code) DO UPDATE SET
				price_per_sqm = EXCLUDED.price_per_sqm,
				cordless_price_per_sqm = EXCLUDED.cordless_price_per_sqm,
				min_area_sqm = EXCLUDED.min_area_sqm,
				updated_at = now();
		`, mp.Type, mp.Fabric, mp.PerSqm, mp.Cordless, mp.MinArea)
		if err != nil {
			log.Printf("Failed to seed price %s/%s: %v", mp.Type, mp.Fabric, err)
		}
	}
}

func seedMarginRules(ctx context.Context, pool *pgxpool.Pool) {
	type tier struct {
		MinCost       float64  `json:"minCost"`
		MaxCost       *float64 `json:"maxCost,omitempty"`
		MarginPercent float64  `json:"marginPercent"`
	}
	upTo := func(v float64) *float64 { return &v }
	rules := []struct {
		ID       string
		Type     string
		RuleType string
		Value    float64
		Priority int
		Tiers    []tier
	}{
		{"mr-universal", "all", "percentage", 40, 0, nil},
		{"mr-roller", "roller", "percentage", 42, 10, nil},
		{"mr-roman", "roman", "percentage", 48, 10, nil},
		{"mr-zebra-tiered", "zebra", "tiered", 0, 20, []tier{
			{MinCost: 0, MaxCost: upTo(100), MarginPercent: 45},
			{MinCost: 100, MarginPercent: 30},
		}},
	}

	log.Println("Seeding margin rules...")
	for _, r := range rules {
		var tiers []byte
		if r.Tiers != nil {
			encoded, err := json.Marshal(r.Tiers)
			if err != nil {
				log.Printf("Failed to encode tiers for %s: %v", r.ID, err)
				continue
			}
			tiers = encoded
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO margin_rules (id, product_type, rule_type, value, tiers, priority, active)
			VALUES ($1, $2, $3, $4, $5, $6, true)
			ON CONFLICT (id) DO UPDATE SET
				rule_type = EXCLUDED.rule_type,
				value = EXCLUDED.value,
				tiers = EXCLUDED.tiers,
				priority = EXCLUDED.priority,
				updated_at = now();
		`, r.ID, r.Type, r.RuleType, r.Value, tiers, r.Priority)
		if err != nil {
			log.Printf("Failed to seed margin rule %s: %v", r.ID, err)
		}
	}
}

func seedHardwareOptions(ctx context.Context, pool *pgxpool.Pool) {
	options := []struct {
		ID        string
		Category  string
		Code      string
		Label     string
		Price     float64
		Cost      float64
		PriceType string
	}{
		{"hw-inside-mount", "mount", "inside-mount", "Inside Mount", 0, 0, "flat"},
		{"hw-outside-mount", "mount", "outside-mount", "Outside Mount", 5.00, 2.00, "flat"},
		{"hw-standard-valance", "valance", "standard-valance", "Standard Valance", 0, 0, "flat"},
		{"hw-deluxe-valance", "valance", "deluxe-valance", "Deluxe Cassette Valance", 4.00, 1.50, "per-sqm"},
		{"hw-standard-rail", "bottom-rail", "standard-rail", "Standard Bottom Rail", 0, 0, "flat"},
		{"hw-weighted-rail", "bottom-rail", "weighted-rail", "Weighted Bottom Rail", 8.00, 3.00, "flat"},
		{"hw-remote-single", "remote", "single-channel", "Single Channel Remote", 29.00, 12.00, "flat"},
		{"hw-remote-multi", "remote", "multi-channel", "15 Channel Remote", 49.00, 21.00, "flat"},
		{"hw-solar-panel", "solar-panel", "solar-panel", "Solar Charging Panel", 59.00, 26.00, "flat"},
	}

	log.Println("Seeding hardware options...")
	for _, o := range options {
		_, err := pool.Exec(ctx, `
			INSERT INTO hardware_options (id, category, code, label, name, price, manufacturer_cost, price_type, active)
			VALUES ($1, $2, $3, $4, $4, $5, $6, $7, true)
			ON CONFLICT (id) DO UPDATE SET
				label = EXCLUDED.label,
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				manufacturer_cost = EXCLUDED.manufacturer_cost,
				price_type = EXCLUDED.price_type;
		`, o.ID, o.Category, o.Code, o.Label, o.Price, o.Cost, o.PriceType)
		if err != nil {
			log.Printf("Failed to seed hardware option %s: %v", o.ID, err)
		}
	}
}

func seedAccessories(ctx context.Context, pool *pgxpool.Pool) {
	accessories := []struct {
		ID    string
		Code  string
		Name  string
		Price float64
		Cost  float64
	}{
		{"acc-smart-hub", "smart-hub", "Smart Home Hub", 99.00, 48.00},
		{"acc-extension-wand", "extension-wand", "Extension Wand", 15.00, 5.00},
		{"acc-spare-battery", "spare-battery", "Rechargeable Battery Pack", 49.00, 22.00},
		{"acc-safety-kit", "child-safety-kit", "Child Safety Kit", 9.00, 3.00},
	}

	log.Println("Seeding accessories...")
	for _, a := range accessories {
		_, err := pool.Exec(ctx, `
			INSERT INTO accessories (id, code, name, price, manufacturer_cost, active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				manufacturer_cost = EXCLUDED.manufacturer_cost;
		`, a.ID, a.Code, a.Name, a.Price, a.Cost)
		if err != nil {
			log.Printf("Failed to seed accessory %s: %v", a.ID, err)
		}
	}
}

func seedMotorBrands(ctx context.Context, pool *pgxpool.Pool) {
	brands := []struct {
		ID         string
		Name       string
		Price      float64
		Cost       float64
		TypePrices map[string]float64
	}{
		{"motor-quietdrive", "QuietDrive", 189.00, 92.00, map[string]float64{"rechargeable": 229.00, "wired": 189.00}},
		{"motor-aventek", "Aventek", 149.00, 71.00, map[string]float64{"rechargeable": 179.00, "wired": 149.00}},
	}

	log.Println("Seeding motor brands...")
	for _, b := range brands {
		prices, err := json.Marshal(b.TypePrices)
		if err != nil {
			log.Printf("Failed to encode motor prices for %s: %v", b.ID, err)
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO motor_brands (id, name, price, manufacturer_cost, type_prices, active)
			VALUES ($1, $2, $3, $4, $5, true)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				manufacturer_cost = EXCLUDED.manufacturer_cost,
				type_prices = EXCLUDED.type_prices;
		`, b.ID, b.Name, b.Price, b.Cost, prices)
		if err != nil {
			log.Printf("Failed to seed motor brand %s: %v", b.ID, err)
		}
	}
}

func seedFabricUpgrades(ctx context.Context, pool *pgxpool.Pool) {
	upgrades := []struct {
		Fabric string
		Price  float64
		Cost   float64
	}{
		{"FB-200", 3.50, 1.20},
		{"BL-300", 5.25, 2.10},
		{"ZB-200", 4.00, 1.60},
	}

	log.Println("Seeding fabric upgrades...")
	for _, u := range upgrades {
		_, err := pool.Exec(ctx, `
			INSERT INTO fabric_upgrades (fabric_code, price, manufacturer_cost, active)
			VALUES ($1, $2, $3, true)
			ON CONFLICT (fabric_code) DO UPDATE SET
				price = EXCLUDED.price,
				manufacturer_cost = EXCLUDED.manufacturer_cost;
		`, u.Fabric, u.Price, u.Cost)
		if err != nil {
			log.Printf("Failed to seed fabric upgrade %s: %v", u.Fabric, err)
		}
	}
}

func seedPromotions(ctx context.Context, pool *pgxpool.Pool) {
	promos := []struct {
		Code        string
		Type        string
		Value       float64
		MinPurchase float64
		MaxDiscount float64
		UsageLimit  int
	}{
		{"SAVE10", "percentage", 10, 50, 0, 0},
		{"WELCOME15", "percentage", 15, 100, 75, 0},
		{"FLASH25", "fixed", 25, 150, 0, 500},
	}

	log.Println("Seeding promotions...")
	for _, p := range promos {
		_, err := pool.Exec(ctx, `
			INSERT INTO promotions
				(code, promo_type, value, min_purchase, max_discount, usage_limit, usage_count, starts_at, ends_at, active)
			VALUES ($1, $2, $3, $4, NULLIF($5, 0::double precision), NULLIF($6, 0), 0, NOW(), NOW() + INTERVAL '1 year', true)
			ON CONFLICT (code) DO UPDATE SET
				value = EXCLUDED.value,
				min_purchase = EXCLUDED.min_purchase,
				max_discount = EXCLUDED.max_discount,
				usage_limit = EXCLUDED.usage_limit;
		`, p.Code, p.Type, p.Value, p.MinPurchase, p.MaxDiscount, p.UsageLimit)
		if err != nil {
			log.Printf("Failed to seed promotion %s: %v", p.Code, err)
		}
	}
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool) {
	settings := map[string]any{
		"tax": pricing.TaxConfig{
			Enabled:     true,
			DefaultRate: 0.05,
			Rules: []pricing.TaxRule{
				{Region: "TX", Rate: 0.0625, Name: "Texas Sales Tax"},
				{Region: "CA", Rate: 0.0725, Name: "California Sales Tax"},
			},
		},
		"shipping": pricing.ShippingConfig{
			DefaultRate:           19.99,
			FreeShippingThreshold: 100,
			UnitWeightLbs:         6,
			Zones: []pricing.ShippingZone{
				{
					Name:          "Contiguous US",
					ExcludeStates: []string{"AK", "HI"},
					EstimatedDays: "5-7",
					Tiers: []pricing.WeightTier{
						{MaxWeightLbs: 20, Rate: 14.99},
						{MaxWeightLbs: 40, Rate: 29.99},
						{MaxWeightLbs: 0, Rate: 39.99},
					},
				},
				{
					Name:          "Remote US",
					States:        []string{"AK", "HI"},
					Remote:        true,
					EstimatedDays: "10-14",
					Tiers:         []pricing.WeightTier{{MaxWeightLbs: 0, Rate: 49.99}},
				},
			},
		},
		"business": pricing.BusinessRules{
			MinimumOrderValue: 25,
			MaximumOrderValue: 10000,
		},
	}

	log.Println("Seeding pricing settings...")
	for key, value := range settings {
		payload, err := json.Marshal(value)
		if err != nil {
			log.Printf("Failed to encode setting %s: %v", key, err)
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO pricing_settings (key, payload)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET
				payload = EXCLUDED.payload,
				updated_at = now();
		`, key, payload)
		if err != nil {
			log.Printf("Failed to seed setting %s: %v", key, err)
		}
	}
}
