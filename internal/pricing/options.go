package pricing

import (
	"sort"
	"strings"
)

// PriceType controls whether an add-on is flat priced or scaled by billable
// area.
type PriceType string

const (
	PriceFlat   PriceType = "flat"
	PricePerSqm PriceType = "per-sqm"
)

// HardwareOption is an admin-managed priced add-on (mount, valance, bottom
// rail, remote, solar panel). Admin-entered catalogs are inconsistent about
// which naming field they fill, so lookups match against all of them.
type HardwareOption struct {
	ID               string    `json:"id"`
	Code             string    `json:"code,omitempty"`
	Value            string    `json:"value,omitempty"`
	Label            string    `json:"label,omitempty"`
	Name             string    `json:"name,omitempty"`
	Price            float64   `json:"price"`
	ManufacturerCost float64   `json:"manufacturerCost"`
	PriceType        PriceType `json:"priceType,omitempty"`
	Active           bool      `json:"active"`
}

// Accessory is a flat-priced catalog item, optionally quantity-bearing.
type Accessory struct {
	ID               string  `json:"id"`
	Code             string  `json:"code,omitempty"`
	Name             string  `json:"name,omitempty"`
	Price            float64 `json:"price"`
	ManufacturerCost float64 `json:"manufacturerCost"`
	Active           bool    `json:"active"`
}

// MotorBrand prices motorization. TypePrices overrides the base price per
// motor sub-type (battery, plug-in, rechargeable).
type MotorBrand struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Price            float64            `json:"price"`
	ManufacturerCost float64            `json:"manufacturerCost"`
	TypePrices       map[string]float64 `json:"typePrices,omitempty"`
	Active           bool               `json:"active"`
}

// FabricUpgrade is a flat surcharge keyed by fabric code.
type FabricUpgrade struct {
	FabricCode       string  `json:"fabricCode"`
	Price            float64 `json:"price"`
	ManufacturerCost float64 `json:"manufacturerCost"`
}

// OptionCatalog is the read-only snapshot of every priced add-on table.
type OptionCatalog struct {
	MountOptions      []HardwareOption `json:"mountOptions"`
	ValanceOptions    []HardwareOption `json:"valanceOptions"`
	BottomRailOptions []HardwareOption `json:"bottomRailOptions"`
	RemoteOptions     []HardwareOption `json:"remoteOptions"`
	SolarOptions      []HardwareOption `json:"solarOptions"`
	FabricUpgrades    []FabricUpgrade  `json:"fabricUpgrades"`
	Accessories       []Accessory      `json:"accessories"`
	MotorBrands       []MotorBrand     `json:"motorBrands"`
}

// Selections is the options map of one pricing request, decoded into typed
// fields.
type Selections struct {
	FabricUpgrade  string   `json:"fabricUpgrade,omitempty"`
	MountType      string   `json:"mountType,omitempty"`
	ValanceType    string   `json:"valanceType,omitempty"`
	BottomRailType string   `json:"bottomRailType,omitempty"`
	MotorBrandID   string   `json:"motorBrandId,omitempty"`
	MotorType      string   `json:"motorType,omitempty"`
	Remote         bool     `json:"remote,omitempty"`
	SolarPanel     bool     `json:"solarPanel,omitempty"`
	SmartHubQty    int      `json:"smartHubQty,omitempty"`
	ChargerQty     int      `json:"chargerQty,omitempty"`
	Accessories    []string `json:"accessories,omitempty"`
}

// OptionLine is one entry of the ordered option breakdown.
type OptionLine struct {
	Type             string  `json:"type"`
	Code             string  `json:"code,omitempty"`
	Name             string  `json:"name,omitempty"`
	Price            float64 `json:"price"`
	ManufacturerCost float64 `json:"manufacturerCost"`
	AreaSqm          float64 `json:"areaSqm,omitempty"`
	Quantity         int     `json:"quantity,omitempty"`
}

// OptionTotals aggregates the per-option breakdown with running totals.
// Totals stay unrounded; line prices are rounded for display.
type OptionTotals struct {
	Lines            []OptionLine `json:"lines"`
	Price            float64      `json:"price"`
	ManufacturerCost float64      `json:"manufacturerCost"`
}

// Default motor pricing used when the requested brand id matches nothing.
const (
	defaultMotorName  = "standard"
	defaultMotorPrice = 159.0
	defaultMotorCost  = 95.0
)

// Known accessory codes with quantity semantics.
const (
	accessorySmartHub = "smart-hub"
	accessoryCharger  = "usb-charger"
)

// AggregateOptions prices every selected add-on. Matching is loose by
// design (upstream catalogs are admin-entered and inconsistent); keys are
// normalized once per request before comparison. Categories are walked in a
// fixed order so repeated requests produce identical breakdowns.
func AggregateOptions(sel Selections, controlType string, area Area, cat OptionCatalog) OptionTotals {
	var out OptionTotals

	if sel.FabricUpgrade != "" {
		if up := matchFabricUpgrade(cat.FabricUpgrades, sel.FabricUpgrade); up != nil {
			out.add(OptionLine{
				Type:             "fabric-upgrade",
				Code:             up.FabricCode,
				Price:            up.Price,
				ManufacturerCost: up.ManufacturerCost,
			})
		}
	}

	hardware := []struct {
		kind string
		key  string
		opts []HardwareOption
	}{
		{"mount", sel.MountType, cat.MountOptions},
		{"valance", sel.ValanceType, cat.ValanceOptions},
		{"bottom-rail", sel.BottomRailType, cat.BottomRailOptions},
	}
	for _, h := range hardware {
		if h.key == "" {
			continue
		}
		if opt := matchHardware(h.opts, h.key); opt != nil {
			out.add(hardwareLine(h.kind, *opt, area))
		}
	}

	if IsMotorized(controlType) {
		out.add(motorLine(cat.MotorBrands, sel.MotorBrandID, sel.MotorType))
		if sel.Remote {
			if opt := firstActive(cat.RemoteOptions); opt != nil {
				out.add(hardwareLine("remote", *opt, area))
			}
		}
		if sel.SolarPanel {
			if opt := firstActive(cat.SolarOptions); opt != nil {
				out.add(hardwareLine("solar-panel", *opt, area))
			}
		}
	}

	if sel.SmartHubQty > 0 {
		if acc := matchAccessory(cat.Accessories, accessorySmartHub); acc != nil {
			out.add(accessoryLine(*acc, sel.SmartHubQty))
		}
	}
	if sel.ChargerQty > 0 {
		if acc := matchAccessory(cat.Accessories, accessoryCharger); acc != nil {
			out.add(accessoryLine(*acc, sel.ChargerQty))
		}
	}

	// List accessories are each priced once; sorted so map-free but
	// client-order-independent output stays deterministic.
	wanted := append([]string(nil), sel.Accessories...)
	sort.Strings(wanted)
	for _, id := range wanted {
		if acc := matchAccessory(cat.Accessories, id); acc != nil {
			out.add(accessoryLine(*acc, 1))
		}
	}

	return out
}

func (t *OptionTotals) add(line OptionLine) {
	t.Price += line.Price
	t.ManufacturerCost += line.ManufacturerCost
	line.Price = Round2(line.Price)
	line.ManufacturerCost = Round2(line.ManufacturerCost)
	t.Lines = append(t.Lines, line)
}

func hardwareLine(kind string, opt HardwareOption, area Area) OptionLine {
	line := OptionLine{
		Type:             kind,
		Code:             displayCode(opt),
		Name:             opt.Name,
		Price:            opt.Price,
		ManufacturerCost: opt.ManufacturerCost,
	}
	if opt.PriceType == PricePerSqm {
		line.Price *= area.BillableSqm
		line.ManufacturerCost *= area.BillableSqm
		line.AreaSqm = Round2(area.BillableSqm)
	}
	return line
}

func motorLine(brands []MotorBrand, brandID, motorType string) OptionLine {
	brand := matchMotorBrand(brands, brandID)
	if brand == nil {
		return OptionLine{
			Type:             "motor",
			Name:             defaultMotorName,
			Price:            defaultMotorPrice,
			ManufacturerCost: defaultMotorCost,
		}
	}
	price := brand.Price
	if motorType != "" {
		key := normalizeKey(motorType)
		names := make([]string, 0, len(brand.TypePrices))
		for name := range brand.TypePrices {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if normalizeKey(name) == key {
				price = brand.TypePrices[name]
				break
			}
		}
	}
	return OptionLine{
		Type:             "motor",
		Code:             brand.ID,
		Name:             brand.Name,
		Price:            price,
		ManufacturerCost: brand.ManufacturerCost,
	}
}

func accessoryLine(acc Accessory, qty int) OptionLine {
	if qty < 1 {
		qty = 1
	}
	return OptionLine{
		Type:             "accessory",
		Code:             acc.Code,
		Name:             acc.Name,
		Price:            acc.Price * float64(qty),
		ManufacturerCost: acc.ManufacturerCost * float64(qty),
		Quantity:         qty,
	}
}

// normalizeKey lowercases and strips every non-alphanumeric rune so that
// "Outside Mount", "outside-mount" and "outside_mount" all collide.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchHardware(opts []HardwareOption, key string) *HardwareOption {
	norm := normalizeKey(key)
	if norm == "" {
		return nil
	}
	for i := range opts {
		if !opts[i].Active {
			continue
		}
		for _, field := range []string{opts[i].ID, opts[i].Code, opts[i].Value, opts[i].Label, opts[i].Name} {
			if field != "" && normalizeKey(field) == norm {
				return &opts[i]
			}
		}
	}
	// Substring as a last resort: admin catalogs append qualifiers like
	// "(white)" that exact matching misses.
	for i := range opts {
		if !opts[i].Active {
			continue
		}
		for _, field := range []string{opts[i].Value, opts[i].Label, opts[i].Name} {
			nf := normalizeKey(field)
			if nf != "" && (strings.Contains(nf, norm) || strings.Contains(norm, nf)) {
				return &opts[i]
			}
		}
	}
	return nil
}

func matchAccessory(accs []Accessory, key string) *Accessory {
	norm := normalizeKey(key)
	if norm == "" {
		return nil
	}
	for i := range accs {
		if !accs[i].Active {
			continue
		}
		for _, field := range []string{accs[i].ID, accs[i].Code, accs[i].Name} {
			if field != "" && normalizeKey(field) == norm {
				return &accs[i]
			}
		}
	}
	for i := range accs {
		if !accs[i].Active {
			continue
		}
		nf := normalizeKey(accs[i].Name)
		if nf != "" && (strings.Contains(nf, norm) || strings.Contains(norm, nf)) {
			return &accs[i]
		}
	}
	return nil
}

func matchMotorBrand(brands []MotorBrand, id string) *MotorBrand {
	norm := normalizeKey(id)
	if norm == "" {
		return nil
	}
	for i := range brands {
		if !brands[i].Active {
			continue
		}
		if normalizeKey(brands[i].ID) == norm || normalizeKey(brands[i].Name) == norm {
			return &brands[i]
		}
	}
	return nil
}

func matchFabricUpgrade(ups []FabricUpgrade, code string) *FabricUpgrade {
	norm := normalizeKey(code)
	for i := range ups {
		if normalizeKey(ups[i].FabricCode) == norm {
			return &ups[i]
		}
	}
	return nil
}

func firstActive(opts []HardwareOption) *HardwareOption {
	for i := range opts {
		if opts[i].Active {
			return &opts[i]
		}
	}
	return nil
}

func displayCode(opt HardwareOption) string {
	for _, field := range []string{opt.Code, opt.Value, opt.ID} {
		if field != "" {
			return field
		}
	}
	return ""
}
