package pricing

// InchesToMeters is the linear conversion factor applied to raw dimensions.
const InchesToMeters = 0.0254

// AreaRules keys the minimum billable area floor (m²) by product type.
// Small blinds still consume a minimum cut of fabric, so raw area below the
// floor is billed at the floor.
type AreaRules struct {
	MinBillableSqm map[string]float64 `json:"minBillableSqm"`
	DefaultMinSqm  float64            `json:"defaultMinSqm"`
}

// DefaultAreaRules mirrors the shipped configuration: roller and honeycomb
// floor at 1.2 m², zebra and roman at 1.5 m².
func DefaultAreaRules() AreaRules {
	return AreaRules{
		MinBillableSqm: map[string]float64{
			"roller":    1.2,
			"honeycomb": 1.2,
			"zebra":     1.5,
			"roman":     1.5,
		},
		DefaultMinSqm: 1.2,
	}
}

// Area is the billable area computed for one item.
type Area struct {
	RawSqm         float64 `json:"rawSqm"`
	BillableSqm    float64 `json:"billableSqm"`
	MinAreaApplied bool    `json:"minAreaApplied"`
}

// Calculate converts inch dimensions to m² and applies the product-type
// minimum floor. RawSqm and BillableSqm stay unrounded; callers round for
// display only.
func (r AreaRules) Calculate(productType string, d Dimensions) Area {
	raw := d.Width * InchesToMeters * d.Height * InchesToMeters
	floor := r.floorFor(productType)
	if raw < floor {
		return Area{RawSqm: raw, BillableSqm: floor, MinAreaApplied: true}
	}
	return Area{RawSqm: raw, BillableSqm: raw}
}

func (r AreaRules) floorFor(productType string) float64 {
	if v, ok := r.MinBillableSqm[productType]; ok && v > 0 {
		return v
	}
	return r.DefaultMinSqm
}
