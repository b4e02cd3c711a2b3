package strategy

import (
	"fmt"
	"math"
	"time"
)

// Kind tags an Element variant on the wire.
type Kind string

const (
	KindHorizontalLine Kind = "horizontal_line"
	KindZone           Kind = "zone"
	KindTrendline      Kind = "trendline"
)

// Action tells the evaluator which side an element trades and when.
// Unrecognized actions decode fine and never match.
type Action string

const (
	BuyAbove   Action = "buy_above"
	SellBelow  Action = "sell_below"
	BuyInZone  Action = "buy_in_zone"
	SellInZone Action = "sell_in_zone"
)

// Element is a chart drawing that can produce an entry signal. The set of
// variants is closed: HorizontalLine, Zone and Trendline.
type Element interface {
	Kind() Kind
	validate() error
}

// HorizontalLine triggers when the previous close is above (buy_above) or
// below (sell_below) Price.
type HorizontalLine struct {
	Price  float64
	Action Action
}

func (HorizontalLine) Kind() Kind { return KindHorizontalLine }

func (h HorizontalLine) validate() error {
	if !finite(h.Price) {
		return fmt.Errorf("price must be finite, got %v", h.Price)
	}
	return nil
}

// Zone triggers when the previous close lies within [Lower, Upper].
type Zone struct {
	Lower  float64
	Upper  float64
	Action Action
}

func (Zone) Kind() Kind { return KindZone }

func (z Zone) validate() error {
	if !finite(z.Lower) || !finite(z.Upper) {
		return fmt.Errorf("bounds must be finite, got [%v, %v]", z.Lower, z.Upper)
	}
	if z.Lower > z.Upper {
		return fmt.Errorf("lower %v is above upper %v", z.Lower, z.Upper)
	}
	return nil
}

// Anchor is one end of a trendline.
type Anchor struct {
	Time  time.Time `json:"time" yaml:"time"`
	Price float64   `json:"price" yaml:"price"`
}

// Trendline is accepted so stored strategies round-trip, but evaluation is
// not implemented: it never produces a signal.
type Trendline struct {
	Points []Anchor
	Action Action
}

func (Trendline) Kind() Kind { return KindTrendline }

func (Trendline) validate() error { return nil }

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
