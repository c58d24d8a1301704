package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peekabooshades/pricing-api/internal/pricing"
)

// ErrStoreUnavailable indicates the catalog store dependency is not configured.
var ErrStoreUnavailable = errors.New("catalog: store unavailable")

// Store provides read access to the product, cost and rule tables backing
// the pricing pipeline. It satisfies pricing.CatalogReader.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ProductBySlug resolves a product by its URL slug.
func (s *Store) ProductBySlug(ctx context.Context, slug string) (pricing.Product, error) {
	if s == nil || s.pool == nil {
		return pricing.Product{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT id, slug, name, product_type, base_price, active
FROM products WHERE slug = $1`, strings.TrimSpace(slug))
	var p pricing.Product
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Type, &p.BasePrice, &p.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Product{}, pricing.ErrProductNotFound
		}
		return pricing.Product{}, fmt.Errorf("query product %q: %w", slug, err)
	}
	return p, nil
}

// ManufacturerPrice fetches the active cost record for a product type and
// fabric. A missing record returns (nil, nil); the pricing core falls back
// to estimated costs.
func (s *Store) ManufacturerPrice(ctx context.Context, productType, fabricCode string) (*pricing.ManufacturerPrice, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT product_type, fabric_code, price_per_sqm, cordless_price_per_sqm,
       min_area_sqm, margin_percent, cordless_margin_percent, active
FROM manufacturer_prices
WHERE lower(product_type) = lower($1) AND lower(fabric_code) = lower($2) AND active`,
		strings.TrimSpace(productType), strings.TrimSpace(fabricCode))
	var rec pricing.ManufacturerPrice
	err := row.Scan(&rec.ProductType, &rec.FabricCode, &rec.PricePerSqm, &rec.CordlessPricePerSqm,
		&rec.MinAreaSqm, &rec.MarginPercent, &rec.CordlessMarginPercent, &rec.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query manufacturer price %s/%s: %w", productType, fabricCode, err)
	}
	return &rec, nil
}

// MarginRules loads the active margin rules relevant to a product type,
// including universal ("all") rules. Tier tables are stored as JSONB.
func (s *Store) MarginRules(ctx context.Context, productType string) ([]pricing.MarginRule, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, `SELECT id, product_id, fabric_code, product_type, rule_type, value,
       tiers, min_margin_amount, max_customer_price, priority, active
FROM margin_rules
WHERE active AND (lower(product_type) = lower($1) OR lower(product_type) = 'all')
ORDER BY priority DESC, id`, strings.TrimSpace(productType))
	if err != nil {
		return nil, fmt.Errorf("query margin rules: %w", err)
	}
	defer rows.Close()

	var out []pricing.MarginRule
	for rows.Next() {
		var (
			r         pricing.MarginRule
			productID *string
			fabric    *string
			ruleType  string
			tiersJSON []byte
		)
		if err := rows.Scan(&r.ID, &productID, &fabric, &r.ProductType, &ruleType, &r.Value,
			&tiersJSON, &r.MinMarginAmount, &r.MaxCustomerPrice, &r.Priority, &r.Active); err != nil {
			return nil, fmt.Errorf("scan margin rule: %w", err)
		}
		if productID != nil {
			r.ProductID = *productID
		}
		if fabric != nil {
			r.FabricCode = *fabric
		}
		r.Type = pricing.MarginType(ruleType)
		if len(tiersJSON) > 0 {
			if err := json.Unmarshal(tiersJSON, &r.Tiers); err != nil {
				return nil, fmt.Errorf("decode tiers for rule %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Options loads every priced add-on table in one snapshot.
func (s *Store) Options(ctx context.Context) (pricing.OptionCatalog, error) {
	if s == nil || s.pool == nil {
		return pricing.OptionCatalog{}, ErrStoreUnavailable
	}
	var cat pricing.OptionCatalog

	hardware, err := s.hardwareOptions(ctx)
	if err != nil {
		return pricing.OptionCatalog{}, err
	}
	cat.MountOptions = hardware["mount"]
	cat.ValanceOptions = hardware["valance"]
	cat.BottomRailOptions = hardware["bottom-rail"]
	cat.RemoteOptions = hardware["remote"]
	cat.SolarOptions = hardware["solar-panel"]

	if cat.Accessories, err = s.accessories(ctx); err != nil {
		return pricing.OptionCatalog{}, err
	}
	if cat.MotorBrands, err = s.motorBrands(ctx); err != nil {
		return pricing.OptionCatalog{}, err
	}
	if cat.FabricUpgrades, err = s.fabricUpgrades(ctx); err != nil {
		return pricing.OptionCatalog{}, err
	}
	return cat, nil
}

func (s *Store) hardwareOptions(ctx context.Context) (map[string][]pricing.HardwareOption, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, category, code, value, label, name, price, manufacturer_cost, price_type, active
FROM hardware_options WHERE active ORDER BY category, id`)
	if err != nil {
		return nil, fmt.Errorf("query hardware options: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]pricing.HardwareOption)
	for rows.Next() {
		var (
			opt       pricing.HardwareOption
			category  string
			code      *string
			value     *string
			label     *string
			name      *string
			priceType *string
		)
		if err := rows.Scan(&opt.ID, &category, &code, &value, &label, &name,
			&opt.Price, &opt.ManufacturerCost, &priceType, &opt.Active); err != nil {
			return nil, fmt.Errorf("scan hardware option: %w", err)
		}
		opt.Code = deref(code)
		opt.Value = deref(value)
		opt.Label = deref(label)
		opt.Name = deref(name)
		if priceType != nil {
			opt.PriceType = pricing.PriceType(*priceType)
		}
		out[category] = append(out[category], opt)
	}
	return out, rows.Err()
}

func (s *Store) accessories(ctx context.Context) ([]pricing.Accessory, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, code, name, price, manufacturer_cost, active
FROM accessories WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query accessories: %w", err)
	}
	defer rows.Close()

	var out []pricing.Accessory
	for rows.Next() {
		var (
			acc  pricing.Accessory
			code *string
			name *string
		)
		if err := rows.Scan(&acc.ID, &code, &name, &acc.Price, &acc.ManufacturerCost, &acc.Active); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		acc.Code = deref(code)
		acc.Name = deref(name)
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) motorBrands(ctx context.Context) ([]pricing.MotorBrand, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, price, manufacturer_cost, type_prices, active
FROM motor_brands WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query motor brands: %w", err)
	}
	defer rows.Close()

	var out []pricing.MotorBrand
	for rows.Next() {
		var (
			brand      pricing.MotorBrand
			pricesJSON []byte
		)
		if err := rows.Scan(&brand.ID, &brand.Name, &brand.Price, &brand.ManufacturerCost, &pricesJSON, &brand.Active); err != nil {
			return nil, fmt.Errorf("scan motor brand: %w", err)
		}
		if len(pricesJSON) > 0 {
			if err := json.Unmarshal(pricesJSON, &brand.TypePrices); err != nil {
				return nil, fmt.Errorf("decode type prices for brand %s: %w", brand.ID, err)
			}
		}
		out = append(out, brand)
	}
	return out, rows.Err()
}

func (s *Store) fabricUpgrades(ctx context.Context) ([]pricing.FabricUpgrade, error) {
	rows, err := s.pool.Query(ctx, `SELECT fabric_code, price, manufacturer_cost
FROM fabric_upgrades WHERE active ORDER BY fabric_code`)
	if err != nil {
		return nil, fmt.Errorf("query fabric upgrades: %w", err)
	}
	defer rows.Close()

	var out []pricing.FabricUpgrade
	for rows.Next() {
		var up pricing.FabricUpgrade
		if err := rows.Scan(&up.FabricCode, &up.Price, &up.ManufacturerCost); err != nil {
			return nil, fmt.Errorf("scan fabric upgrade: %w", err)
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

// Promotion fetches a promotion by code. Missing codes return (nil, nil) so
// the pricing core can produce its own domain error.
func (s *Store) Promotion(ctx context.Context, code string) (*pricing.Promotion, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT code, promo_type, value, min_purchase, max_discount,
       usage_limit, usage_count, starts_at, ends_at, active
FROM promotions WHERE lower(code) = lower($1)`, strings.TrimSpace(code))
	var p pricing.Promotion
	err := row.Scan(&p.Code, &p.Type, &p.Value, &p.MinPurchase, &p.MaxDiscount,
		&p.UsageLimit, &p.UsageCount, &p.StartsAt, &p.EndsAt, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query promotion %q: %w", code, err)
	}
	return &p, nil
}

// LoadSettings reads the key/value configuration table into one snapshot.
// Missing keys keep their defaults.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	if s == nil || s.pool == nil {
		return Settings{}, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, `SELECT key, payload FROM pricing_settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("query pricing settings: %w", err)
	}
	defer rows.Close()

	settings := DefaultSettings()
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return Settings{}, fmt.Errorf("scan pricing setting: %w", err)
		}
		if err := settings.apply(key, payload); err != nil {
			return Settings{}, err
		}
	}
	return settings, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ pricing.CatalogReader = (*Store)(nil)
