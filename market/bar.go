package market

import "time"

// Bar represents one OHLCV bar. Bars are values; the engine never mutates them.
//
// A slice of bars handed to the engine must already be sorted by Time in
// ascending order. Nothing downstream sorts or checks this.
type Bar struct {
	Time   time.Time `json:"timestamp" yaml:"timestamp"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}
