package pricing

import (
	"sort"
	"strings"
)

// MarginType enumerates how a rule turns manufacturer cost into markup.
type MarginType string

const (
	MarginPercentage MarginType = "percentage"
	MarginFixed      MarginType = "fixed"
	MarginTiered     MarginType = "tiered"
)

// DefaultMarginPercent applies when no override or rule matches.
const DefaultMarginPercent = 40.0

// MarginTier is one half-open cost bracket: MinCost <= cost < MaxCost.
// A nil MaxCost marks the unbounded last bracket.
type MarginTier struct {
	MinCost       float64  `json:"minCost"`
	MaxCost       *float64 `json:"maxCost,omitempty"`
	MarginPercent float64  `json:"marginPercent"`
}

// MarginRule is an admin-defined margin override. Scope fields narrow the
// rule: the more scope fields set, the more specific the rule.
type MarginRule struct {
	ID               string       `json:"id"`
	ProductID        string       `json:"productId,omitempty"`
	FabricCode       string       `json:"fabricCode,omitempty"`
	ProductType      string       `json:"productType"` // "all" matches every type
	Type             MarginType   `json:"type"`
	Value            float64      `json:"value"`
	Tiers            []MarginTier `json:"tiers,omitempty"`
	MinMarginAmount  *float64     `json:"minMarginAmount,omitempty"`
	MaxCustomerPrice *float64     `json:"maxCustomerPrice,omitempty"`
	Priority         int          `json:"priority"`
	Active           bool         `json:"active"`
}

// Margin rule sources, most specific first. Recorded on the result so
// auditors can see which level of the cascade produced a price.
const (
	MarginSourceFabricOverride = "fabric-override"
	MarginSourceProductFabric  = "product-fabric"
	MarginSourceProduct        = "product"
	MarginSourceFabric         = "fabric"
	MarginSourceProductType    = "product-type"
	MarginSourceUniversal      = "universal"
	MarginSourceDefault        = "default"
)

// MarginResult is the audit trail of one margin resolution.
type MarginResult struct {
	Type          MarginType `json:"type"`
	Value         float64    `json:"value"`
	Amount        float64    `json:"amount"`
	Percent       float64    `json:"percent"`
	CustomerPrice float64    `json:"customerPrice"`
	RuleID        string     `json:"ruleId,omitempty"`
	Source        string     `json:"source"`
}

// ResolveMargin runs the priority cascade: the per-fabric override from the
// manufacturer record beats every CustomerMarginRule; rules are then matched
// most-specific first; 40% is the terminal default. Each level is consulted
// only when every higher level produced nothing.
func ResolveMargin(cost float64, productType, productID, fabricCode string, fabricOverride *float64, rules []MarginRule) MarginResult {
	if fabricOverride != nil {
		amount := cost * *fabricOverride / 100
		return finishMargin(MarginResult{
			Type:   MarginPercentage,
			Value:  *fabricOverride,
			Amount: amount,
			Source: MarginSourceFabricOverride,
		}, cost, nil)
	}

	active := make([]MarginRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	// Priority breaks ties inside a specificity level; rule ID keeps the
	// pick deterministic across runs.
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority > active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	for _, level := range []struct {
		source string
		match  func(MarginRule) bool
	}{
		{MarginSourceProductFabric, func(r MarginRule) bool {
			return r.ProductID != "" && r.ProductID == productID &&
				r.FabricCode != "" && strings.EqualFold(r.FabricCode, fabricCode)
		}},
		{MarginSourceProduct, func(r MarginRule) bool {
			return r.ProductID != "" && r.ProductID == productID && r.FabricCode == ""
		}},
		{MarginSourceFabric, func(r MarginRule) bool {
			return r.ProductID == "" && r.FabricCode != "" && strings.EqualFold(r.FabricCode, fabricCode)
		}},
		{MarginSourceProductType, func(r MarginRule) bool {
			return r.ProductID == "" && r.FabricCode == "" &&
				strings.EqualFold(r.ProductType, productType)
		}},
		{MarginSourceUniversal, func(r MarginRule) bool {
			return r.ProductID == "" && r.FabricCode == "" &&
				strings.EqualFold(r.ProductType, "all")
		}},
	} {
		for _, r := range active {
			if level.match(r) {
				return applyRule(cost, r, level.source)
			}
		}
	}

	amount := cost * DefaultMarginPercent / 100
	return finishMargin(MarginResult{
		Type:   MarginPercentage,
		Value:  DefaultMarginPercent,
		Amount: amount,
		Source: MarginSourceDefault,
	}, cost, nil)
}

func applyRule(cost float64, r MarginRule, source string) MarginResult {
	res := MarginResult{Type: r.Type, Value: r.Value, RuleID: r.ID, Source: source}
	switch r.Type {
	case MarginFixed:
		res.Amount = r.Value
	case MarginTiered:
		res.Amount = cost * tierPercent(cost, r.Tiers) / 100
	default:
		res.Type = MarginPercentage
		res.Amount = cost * r.Value / 100
	}
	return finishMargin(res, cost, &r)
}

// tierPercent scans ordered half-open brackets and returns the margin
// percent for the bracket containing cost. Falls back to the default margin
// when the tier table is empty or nothing matches.
func tierPercent(cost float64, tiers []MarginTier) float64 {
	for _, t := range tiers {
		if cost < t.MinCost {
			continue
		}
		if t.MaxCost == nil || cost < *t.MaxCost {
			return t.MarginPercent
		}
	}
	return DefaultMarginPercent
}

// finishMargin applies the min-margin floor and the max-customer-price
// ceiling. The ceiling runs last, so it wins over the floor.
func finishMargin(res MarginResult, cost float64, rule *MarginRule) MarginResult {
	if rule != nil && rule.MinMarginAmount != nil && res.Amount < *rule.MinMarginAmount {
		res.Amount = *rule.MinMarginAmount
	}
	res.CustomerPrice = cost + res.Amount
	if rule != nil && rule.MaxCustomerPrice != nil && res.CustomerPrice > *rule.MaxCustomerPrice {
		res.CustomerPrice = *rule.MaxCustomerPrice
		res.Amount = res.CustomerPrice - cost
	}
	if cost > 0 {
		res.Percent = res.Amount / cost * 100
	}
	return res
}
