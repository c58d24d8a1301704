package pricing

import "strings"

// WeightTier maps an estimated shipment weight to a flat rate. Tiers are
// checked in ascending order; a MaxWeightLbs of zero marks the catch-all
// last tier.
type WeightTier struct {
	MaxWeightLbs float64 `json:"maxWeightLbs"`
	Rate         float64 `json:"rate"`
}

// ShippingZone groups destinations sharing a rate table. States use
// two-letter codes; ExcludeStates wins over States/Countries inclusion.
type ShippingZone struct {
	Name          string       `json:"name"`
	Countries     []string     `json:"countries,omitempty"`
	States        []string     `json:"states,omitempty"`
	ExcludeStates []string     `json:"excludeStates,omitempty"`
	Remote        bool         `json:"remote,omitempty"`
	Tiers         []WeightTier `json:"tiers"`
	EstimatedDays string       `json:"estimatedDays,omitempty"`
}

// ShippingConfig is the admin-editable shipping table.
type ShippingConfig struct {
	Zones                 []ShippingZone `json:"zones"`
	DefaultRate           float64        `json:"defaultRate"`
	FreeShippingThreshold float64        `json:"freeShippingThreshold"`
	UnitWeightLbs         float64        `json:"unitWeightLbs"`
}

// ShippingQuote is the estimator output. EstimatedDays is a static string
// per zone, not a computed promise.
type ShippingQuote struct {
	Method        string  `json:"method"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	EstimatedDays string  `json:"estimatedDays,omitempty"`
}

// Remote US states routed to a remote-rate zone when one is configured.
var remoteStates = map[string]bool{"AK": true, "HI": true}

const defaultUnitWeightLbs = 6.0

// EstimateShipping computes the shipping quote for a subtotal, item count
// and destination. Weight is a fixed per-unit estimate, not a physical
// model.
func EstimateShipping(cfg ShippingConfig, subtotal float64, quantity int, dest Destination) ShippingQuote {
	if cfg.FreeShippingThreshold > 0 && subtotal >= cfg.FreeShippingThreshold {
		return ShippingQuote{Method: "free", Amount: 0, Description: "Free shipping"}
	}

	zone := selectZone(cfg.Zones, dest)
	if zone == nil {
		return ShippingQuote{Method: "standard", Amount: cfg.DefaultRate, Description: "Standard shipping"}
	}

	unitWeight := cfg.UnitWeightLbs
	if unitWeight <= 0 {
		unitWeight = defaultUnitWeightLbs
	}
	if quantity < 1 {
		quantity = 1
	}
	weight := unitWeight * float64(quantity)

	rate := cfg.DefaultRate
	for _, tier := range zone.Tiers {
		if tier.MaxWeightLbs <= 0 || weight <= tier.MaxWeightLbs {
			rate = tier.Rate
			break
		}
	}
	return ShippingQuote{
		Method:        "standard",
		Amount:        rate,
		Description:   zone.Name,
		EstimatedDays: zone.EstimatedDays,
	}
}

// selectZone returns the first zone matching the destination. An empty
// country means US. Alaska and Hawaii route to a remote zone when one is
// configured; any other destination lands in the first zone that includes
// its state, or whose country list covers it; the first configured zone is
// the default.
func selectZone(zones []ShippingZone, dest Destination) *ShippingZone {
	if len(zones) == 0 {
		return nil
	}
	st := strings.ToUpper(strings.TrimSpace(dest.State))
	country := strings.ToUpper(strings.TrimSpace(dest.Country))
	if country == "" {
		country = "US"
	}

	if country == "US" && remoteStates[st] {
		for i := range zones {
			if zones[i].Remote {
				return &zones[i]
			}
		}
	}
	for i := range zones {
		z := &zones[i]
		if z.Remote && !remoteStates[st] {
			continue
		}
		if containsFold(z.ExcludeStates, st) {
			continue
		}
		if len(z.States) > 0 {
			if containsFold(z.States, st) {
				return z
			}
			continue
		}
		if len(z.Countries) > 0 && !containsFold(z.Countries, country) {
			continue
		}
		return z
	}
	return &zones[0]
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
