package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDimension is returned on the strict (order) path when a width or
// height is non-numeric or outside the configured bounds.
var ErrInvalidDimension = errors.New("invalid dimension")

// Bounds describes an inclusive numeric range for a single dimension.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QuantityBounds describes the allowed quantity range for a line item.
type QuantityBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DimensionRules carries the configured width/height/quantity bounds.
type DimensionRules struct {
	Width    Bounds         `json:"width"`
	Height   Bounds         `json:"height"`
	Quantity QuantityBounds `json:"quantity"`
}

// Dimensions holds normalized inputs. WidthClamped/HeightClamped record that
// the lenient path moved a value to the nearest bound, for transparency in
// the quote response.
type Dimensions struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Quantity      int     `json:"quantity"`
	WidthClamped  bool    `json:"widthClamped,omitempty"`
	HeightClamped bool    `json:"heightClamped,omitempty"`
}

// NormalizeLenient clamps out-of-range width and height to the nearest bound
// instead of rejecting them. This is the single-item quote behaviour; the
// order path uses NormalizeStrict. The asymmetry is intentional, see
// DESIGN.md.
func (r DimensionRules) NormalizeLenient(width, height float64, quantity int) (Dimensions, error) {
	if !isFinite(width) || !isFinite(height) {
		return Dimensions{}, fmt.Errorf("width/height must be numeric: %w", ErrInvalidDimension)
	}
	d := Dimensions{Quantity: r.clampQuantity(quantity)}
	d.Width, d.WidthClamped = clamp(width, r.Width)
	d.Height, d.HeightClamped = clamp(height, r.Height)
	return d, nil
}

// NormalizeStrict rejects non-numeric or out-of-range width and height.
// Quantity is still clamped; only dimensions are validated hard.
func (r DimensionRules) NormalizeStrict(width, height float64, quantity int) (Dimensions, error) {
	if !isFinite(width) || !isFinite(height) {
		return Dimensions{}, fmt.Errorf("width/height must be numeric: %w", ErrInvalidDimension)
	}
	if out(width, r.Width) {
		return Dimensions{}, fmt.Errorf("width %.2f outside [%.2f, %.2f]: %w", width, r.Width.Min, r.Width.Max, ErrInvalidDimension)
	}
	if out(height, r.Height) {
		return Dimensions{}, fmt.Errorf("height %.2f outside [%.2f, %.2f]: %w", height, r.Height.Min, r.Height.Max, ErrInvalidDimension)
	}
	return Dimensions{Width: width, Height: height, Quantity: r.clampQuantity(quantity)}, nil
}

func (r DimensionRules) clampQuantity(q int) int {
	min := r.Quantity.Min
	if min <= 0 {
		min = 1
	}
	if q < min {
		return min
	}
	if r.Quantity.Max > 0 && q > r.Quantity.Max {
		return r.Quantity.Max
	}
	return q
}

func clamp(v float64, b Bounds) (float64, bool) {
	if b.Min > 0 && v < b.Min {
		return b.Min, true
	}
	if b.Max > 0 && v > b.Max {
		return b.Max, true
	}
	return v, false
}

func out(v float64, b Bounds) bool {
	if b.Min > 0 && v < b.Min {
		return true
	}
	if b.Max > 0 && v > b.Max {
		return true
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
