package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/peekabooshades/pricing-api/internal/obs"
	"github.com/peekabooshades/pricing-api/internal/pricing"
)

// SettingsKey is the Redis key holding the cached configuration snapshot.
const SettingsKey = "pricing:settings:v1"

// Settings is the admin-editable configuration consumed by the pricing
// pipeline, persisted as keyed JSON payloads.
type Settings struct {
	Dimensions pricing.DimensionRules `json:"dimensions"`
	Area       pricing.AreaRules      `json:"area"`
	Tax        pricing.TaxConfig      `json:"tax"`
	Shipping   pricing.ShippingConfig `json:"shipping"`
	Business   pricing.BusinessRules  `json:"business"`
}

// DefaultSettings returns the baseline configuration used when a settings
// key is absent from the store.
func DefaultSettings() Settings {
	return Settings{
		Dimensions: pricing.DimensionRules{
			Width:    pricing.Bounds{Min: 12, Max: 120},
			Height:   pricing.Bounds{Min: 12, Max: 144},
			Quantity: pricing.QuantityBounds{Min: 1, Max: 50},
		},
		Area: pricing.DefaultAreaRules(),
	}
}

func (s *Settings) apply(key string, payload []byte) error {
	var dst any
	switch key {
	case "dimensions":
		dst = &s.Dimensions
	case "area":
		dst = &s.Area
	case "tax":
		dst = &s.Tax
	case "shipping":
		dst = &s.Shipping
	case "business":
		dst = &s.Business
	default:
		// Unknown keys are tolerated so new settings can ship ahead of code.
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode pricing setting %q: %w", key, err)
	}
	return nil
}

// SettingsLoader loads the authoritative settings from the store.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) (Settings, error)
}

// Snapshot serves pricing configuration with a short in-process cache in
// front of Redis in front of the store. It satisfies pricing.ConfigProvider.
// Stale settings are served when a refresh fails and a previous snapshot
// exists.
type Snapshot struct {
	Loader SettingsLoader
	Cache  *Cache
	TTL    time.Duration
	Now    func() time.Time

	mu      sync.RWMutex
	current *Settings
	expires time.Time
}

// DimensionRules implements pricing.ConfigProvider.
func (s *Snapshot) DimensionRules(ctx context.Context) (pricing.DimensionRules, error) {
	set, err := s.settings(ctx)
	return set.Dimensions, err
}

// AreaRules implements pricing.ConfigProvider.
func (s *Snapshot) AreaRules(ctx context.Context) (pricing.AreaRules, error) {
	set, err := s.settings(ctx)
	return set.Area, err
}

// TaxConfig implements pricing.ConfigProvider.
func (s *Snapshot) TaxConfig(ctx context.Context) (pricing.TaxConfig, error) {
	set, err := s.settings(ctx)
	return set.Tax, err
}

// ShippingConfig implements pricing.ConfigProvider.
func (s *Snapshot) ShippingConfig(ctx context.Context) (pricing.ShippingConfig, error) {
	set, err := s.settings(ctx)
	return set.Shipping, err
}

// BusinessRules implements pricing.ConfigProvider.
func (s *Snapshot) BusinessRules(ctx context.Context) (pricing.BusinessRules, error) {
	set, err := s.settings(ctx)
	return set.Business, err
}

// Invalidate drops both cache layers. The next read reloads from the store.
func (s *Snapshot) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.expires = time.Time{}
	s.mu.Unlock()
	return s.Cache.Delete(ctx, SettingsKey)
}

// Refresh forces a store reload and repopulates both cache layers.
func (s *Snapshot) Refresh(ctx context.Context) error {
	if s.Loader == nil {
		return ErrStoreUnavailable
	}
	settings, err := s.Loader.LoadSettings(ctx)
	if err != nil {
		s.observe("store", "error")
		return err
	}
	s.observe("store", "ok")
	s.store(ctx, settings)
	return nil
}

func (s *Snapshot) settings(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	if s.current != nil && s.now().Before(s.expires) {
		set := *s.current
		s.mu.RUnlock()
		return set, nil
	}
	s.mu.RUnlock()

	var cached Settings
	hit, err := s.Cache.GetJSON(ctx, SettingsKey, &cached)
	if err == nil && hit {
		s.observe("redis", "ok")
		s.remember(cached)
		return cached, nil
	}

	if s.Loader == nil {
		return Settings{}, ErrStoreUnavailable
	}
	settings, err := s.Loader.LoadSettings(ctx)
	if err != nil {
		s.observe("store", "error")
		// Serve the last known snapshot past its TTL rather than failing
		// every quote during a store outage.
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.current != nil {
			return *s.current, nil
		}
		return Settings{}, err
	}
	s.observe("store", "ok")
	s.store(ctx, settings)
	return settings, nil
}

func (s *Snapshot) store(ctx context.Context, settings Settings) {
	s.remember(settings)
	// Cache write failures are not fatal; the in-process copy still serves.
	_ = s.Cache.SetJSON(ctx, SettingsKey, settings)
}

func (s *Snapshot) remember(settings Settings) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	s.mu.Lock()
	s.current = &settings
	s.expires = s.now().Add(ttl)
	s.mu.Unlock()
}

func (s *Snapshot) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Snapshot) observe(source, result string) {
	if obs.SnapshotRefreshTotal != nil {
		obs.SnapshotRefreshTotal.WithLabelValues(source, result).Inc()
	}
}

var _ pricing.ConfigProvider = (*Snapshot)(nil)
