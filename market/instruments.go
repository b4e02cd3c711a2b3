// market/instruments.go
package market

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog maps a normalized symbol to its spec.
type Catalog map[string]InstrumentSpec

// Instruments holds specs for the majors we test with most. Tick values assume
// a USD account.
var Instruments = Catalog{
	"EURUSD": {
		Symbol:       "EURUSD",
		Digits:       5,
		Point:        0.00001,
		TickSize:     0.00001,
		TickValue:    1,
		ContractSize: 100_000,
		MinLot:       0.01,
		MaxLot:       100,
		LotStep:      0.01,
	},
	"GBPUSD": {
		Symbol:       "GBPUSD",
		Digits:       5,
		Point:        0.00001,
		TickSize:     0.00001,
		TickValue:    1,
		ContractSize: 100_000,
		MinLot:       0.01,
		MaxLot:       100,
		LotStep:      0.01,
	},
	"USDJPY": {
		Symbol:       "USDJPY",
		Digits:       3,
		Point:        0.001,
		TickSize:     0.001,
		TickValue:    0.67,
		ContractSize: 100_000,
		MinLot:       0.01,
		MaxLot:       100,
		LotStep:      0.01,
	},
	"XAUUSD": {
		Symbol:       "XAUUSD",
		Digits:       2,
		Point:        0.01,
		TickSize:     0.01,
		TickValue:    1,
		ContractSize: 100,
		MinLot:       0.01,
		MaxLot:       50,
		LotStep:      0.01,
	},
}

// NormalizeSymbol maps "EUR_USD", "eur/usd" and "EURUSD" to the same key.
func NormalizeSymbol(s string) string {
	r := strings.NewReplacer("_", "", "/", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}

// Lookup returns the spec for symbol.
func (c Catalog) Lookup(symbol string) (InstrumentSpec, error) {
	spec, ok := c[NormalizeSymbol(symbol)]
	if !ok {
		return InstrumentSpec{}, fmt.Errorf("unknown instrument %q", symbol)
	}
	return spec, nil
}

// Merge returns a new catalog holding c overlaid with other.
func (c Catalog) Merge(other Catalog) Catalog {
	out := make(Catalog, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

type catalogFile struct {
	Instruments []InstrumentSpec `yaml:"instruments"`
}

// LoadInstruments reads a YAML catalog of the form
//
//	instruments:
//	  - symbol: EURUSD
//	    digits: 5
//	    ...
//
// Every entry is validated.
func LoadInstruments(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instrument catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse instrument catalog: %w", err)
	}

	out := make(Catalog, len(f.Instruments))
	for i, spec := range f.Instruments {
		key := NormalizeSymbol(spec.Symbol)
		if key == "" {
			return nil, fmt.Errorf("instrument catalog entry %d: symbol is required", i)
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("instrument %s: %w", spec.Symbol, err)
		}
		spec.Symbol = key
		out[key] = spec
	}
	return out, nil
}
