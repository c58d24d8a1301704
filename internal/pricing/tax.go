package pricing

import "strings"

// TaxRule maps a destination region (state code) to a rate.
type TaxRule struct {
	Region string  `json:"region"`
	Rate   float64 `json:"rate"`
	Name   string  `json:"name,omitempty"`
}

// TaxConfig is the region-keyed tax table. Rates are fractions (0.0625 for
// 6.25%).
type TaxConfig struct {
	Enabled     bool      `json:"enabled"`
	DefaultRate float64   `json:"defaultRate"`
	Rules       []TaxRule `json:"rules,omitempty"`
}

// TaxQuote is the estimator output.
type TaxQuote struct {
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
	Name   string  `json:"name,omitempty"`
}

// EstimateTax applies the region rate (or the default) to the taxable
// amount. No compounding, no category exemptions.
func EstimateTax(cfg TaxConfig, taxable float64, region string) TaxQuote {
	if !cfg.Enabled || taxable <= 0 {
		return TaxQuote{}
	}
	rate := cfg.DefaultRate
	name := "Sales tax"
	for _, rule := range cfg.Rules {
		if strings.EqualFold(strings.TrimSpace(rule.Region), strings.TrimSpace(region)) {
			rate = rule.Rate
			if rule.Name != "" {
				name = rule.Name
			}
			break
		}
	}
	return TaxQuote{Amount: taxable * rate, Rate: rate, Name: name}
}
