package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInstrumentSpec is returned when an instrument specification cannot
// support pip or position-size arithmetic.
var ErrInvalidInstrumentSpec = errors.New("invalid instrument spec")

// InstrumentSpec carries the broker-side economics of a symbol: quoting
// precision, tick economics and lot constraints.
type InstrumentSpec struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	Digits       int     `json:"digits" yaml:"digits"`
	Point        float64 `json:"point" yaml:"point"`
	TickSize     float64 `json:"tick_size" yaml:"tick_size"`
	TickValue    float64 `json:"tick_value" yaml:"tick_value"`
	ContractSize float64 `json:"contract_size" yaml:"contract_size"`
	MinLot       float64 `json:"min_lot" yaml:"min_lot"`
	MaxLot       float64 `json:"max_lot" yaml:"max_lot"`
	LotStep      float64 `json:"lot_step" yaml:"lot_step"`
}

func invalidSpec(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInstrumentSpec, field, fmt.Sprintf(format, args...))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate rejects specs that would make pip or lot math produce NaN or Inf.
func (s InstrumentSpec) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"point", s.Point},
		{"tick_size", s.TickSize},
		{"tick_value", s.TickValue},
		{"contract_size", s.ContractSize},
		{"min_lot", s.MinLot},
		{"max_lot", s.MaxLot},
		{"lot_step", s.LotStep},
	} {
		if !finite(f.v) {
			return invalidSpec(f.name, "must be finite, got %v", f.v)
		}
	}

	if s.Digits < 0 {
		return invalidSpec("digits", "must not be negative, got %d", s.Digits)
	}
	if s.Point <= 0 {
		return invalidSpec("point", "must be positive, got %v", s.Point)
	}
	if s.TickSize <= 0 {
		return invalidSpec("tick_size", "must be positive, got %v", s.TickSize)
	}
	if s.TickValue <= 0 {
		return invalidSpec("tick_value", "must be positive, got %v", s.TickValue)
	}
	if s.MinLot <= 0 {
		return invalidSpec("min_lot", "must be positive, got %v", s.MinLot)
	}
	if s.MaxLot < s.MinLot {
		return invalidSpec("max_lot", "%v is below min_lot %v", s.MaxLot, s.MinLot)
	}
	if s.LotStep < 0 {
		return invalidSpec("lot_step", "must not be negative, got %v", s.LotStep)
	}
	return nil
}

// PipSize returns the price distance of one pip. Five and three digit quotes
// carry a fractional pipette, so a pip is ten points there.
func PipSize(s InstrumentSpec) (float64, error) {
	if s.Point <= 0 || !finite(s.Point) {
		return 0, invalidSpec("point", "must be positive, got %v", s.Point)
	}
	if s.Digits == 3 || s.Digits == 5 {
		return s.Point * 10, nil
	}
	return s.Point, nil
}

// PipValue returns the account-currency value of a one pip move for one lot.
func PipValue(s InstrumentSpec, pipSize float64) (float64, error) {
	if s.TickSize == 0 || !finite(s.TickSize) {
		return 0, invalidSpec("tick_size", "must be non-zero, got %v", s.TickSize)
	}
	return (s.TickValue / s.TickSize) * pipSize, nil
}
