package pricing

import "strings"

// Control types understood by the cost resolver and option aggregator.
const (
	ControlManual           = "manual"
	ControlCordless         = "cordless"
	ControlMotorized        = "motorized"
	ControlMotorizedApp     = "motorized-app"
	ControlCordlessMotorize = "cordless-motorized"
)

// CostSource distinguishes an authoritative catalog price from a fallback
// estimate used when no manufacturer record exists.
type CostSource string

const (
	// SourceCatalog marks a cost derived from a manufacturer price record.
	SourceCatalog CostSource = "catalog"
	// SourceFallback marks an estimated cost; downstream logic floors the
	// customer price at the product's catalog base price when it sees this.
	SourceFallback CostSource = "fallback"
)

// ManufacturerPrice is one active row of the manufacturer cost table,
// uniquely keyed by (productType, fabricCode).
type ManufacturerPrice struct {
	ProductType           string   `json:"productType"`
	FabricCode            string   `json:"fabricCode"`
	PricePerSqm           float64  `json:"pricePerSqm"`
	CordlessPricePerSqm   *float64 `json:"cordlessPricePerSqm,omitempty"`
	MinAreaSqm            *float64 `json:"minAreaSqm,omitempty"`
	MarginPercent         *float64 `json:"marginPercent,omitempty"`
	CordlessMarginPercent *float64 `json:"cordlessMarginPercent,omitempty"`
	Active                bool     `json:"active"`
}

// CostResult carries the resolved manufacturer cost plus the per-fabric
// margin override (if any) that the margin resolver must honour first.
type CostResult struct {
	PricePerSqm    float64    `json:"pricePerSqm"`
	UnitCost       float64    `json:"unitCost"`
	Source         CostSource `json:"source"`
	MarginOverride *float64   `json:"-"`
}

// fallbackPricePerSqm supplies a rough per-area estimate when the fabric has
// no manufacturer record. Values track the low end of each product line so
// the base-price floor (applied later) governs the final price.
var fallbackPricePerSqm = map[string]float64{
	"roller":    12.0,
	"honeycomb": 14.0,
	"zebra":     16.0,
	"roman":     18.0,
}

const defaultFallbackPricePerSqm = 15.0

// ResolveCost computes the manufacturer unit cost for an item. A nil record
// is not an error: the resolver degrades to a fallback estimate and marks
// the result so callers can tell authoritative from estimated prices.
func ResolveCost(rec *ManufacturerPrice, productType, controlType string, area Area) CostResult {
	if rec == nil {
		perSqm, ok := fallbackPricePerSqm[strings.ToLower(strings.TrimSpace(productType))]
		if !ok {
			perSqm = defaultFallbackPricePerSqm
		}
		return CostResult{
			PricePerSqm: perSqm,
			UnitCost:    area.BillableSqm * perSqm,
			Source:      SourceFallback,
		}
	}

	billable := area.BillableSqm
	if rec.MinAreaSqm != nil && *rec.MinAreaSqm > billable {
		billable = *rec.MinAreaSqm
	}

	perSqm := rec.PricePerSqm
	override := rec.MarginPercent
	// Only an exact cordless control uses the cordless fabric variant.
	// Motorized controls price the motor separately on top of the manual
	// fabric price.
	if strings.EqualFold(strings.TrimSpace(controlType), ControlCordless) {
		if rec.CordlessPricePerSqm != nil && *rec.CordlessPricePerSqm > 0 {
			perSqm = *rec.CordlessPricePerSqm
		}
		if rec.CordlessMarginPercent != nil {
			override = rec.CordlessMarginPercent
		}
	}

	return CostResult{
		PricePerSqm:    perSqm,
		UnitCost:       billable * perSqm,
		Source:         SourceCatalog,
		MarginOverride: override,
	}
}

// IsMotorized reports whether the control type requires a motor.
func IsMotorized(controlType string) bool {
	switch strings.ToLower(strings.TrimSpace(controlType)) {
	case ControlMotorized, ControlMotorizedApp, ControlCordlessMotorize:
		return true
	}
	return false
}
