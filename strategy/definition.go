package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidStrategy is wrapped by every structural rejection of a Definition.
var ErrInvalidStrategy = errors.New("invalid strategy")

// MaxRiskPercent caps risk_management.risk_percent.
const MaxRiskPercent = 10.0

// ExitRules are distances in pips from the entry price.
type ExitRules struct {
	StopLossPips   float64 `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TakeProfitPips float64 `json:"take_profit_pips" yaml:"take_profit_pips"`
}

// RiskManagement sizes each position so a stop-out costs RiskPercent of the
// balance at entry.
type RiskManagement struct {
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"`
}

// Definition is a chart-drawn strategy: entry elements plus fixed exits and
// risk sizing.
type Definition struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Symbol    string         `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Timeframe string         `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	Elements  Elements       `json:"visual_elements" yaml:"visual_elements"`
	Exit      ExitRules      `json:"exit_rules" yaml:"exit_rules"`
	Risk      RiskManagement `json:"risk_management" yaml:"risk_management"`
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidStrategy, field, fmt.Sprintf(format, args...))
}

// Validate rejects definitions the engine cannot run. It never fills in
// defaults.
func (d Definition) Validate() error {
	if !finite(d.Exit.StopLossPips) || d.Exit.StopLossPips <= 0 {
		return invalid("exit_rules.stop_loss_pips", "must be positive, got %v", d.Exit.StopLossPips)
	}
	if !finite(d.Exit.TakeProfitPips) || d.Exit.TakeProfitPips <= 0 {
		return invalid("exit_rules.take_profit_pips", "must be positive, got %v", d.Exit.TakeProfitPips)
	}
	if !finite(d.Risk.RiskPercent) || d.Risk.RiskPercent <= 0 || d.Risk.RiskPercent > MaxRiskPercent {
		return invalid("risk_management.risk_percent", "must be in (0, %v], got %v", MaxRiskPercent, d.Risk.RiskPercent)
	}
	for i, el := range d.Elements {
		if el == nil {
			return invalid(fmt.Sprintf("visual_elements[%d]", i), "is empty")
		}
		switch el.(type) {
		case HorizontalLine, Zone, Trendline:
		default:
			return invalid(fmt.Sprintf("visual_elements[%d]", i), "has unsupported type %T", el)
		}
		if err := el.validate(); err != nil {
			return invalid(fmt.Sprintf("visual_elements[%d]", i), "(%s): %v", el.Kind(), err)
		}
	}
	return nil
}

// Default returns the starter strategy written by `config init`.
func Default() Definition {
	return Definition{
		Name:      "eurusd-breakout",
		Symbol:    "EURUSD",
		Timeframe: "H1",
		Elements: Elements{
			HorizontalLine{Price: 1.1000, Action: BuyAbove},
			HorizontalLine{Price: 1.0900, Action: SellBelow},
		},
		Exit: ExitRules{StopLossPips: 50, TakeProfitPips: 100},
		Risk: RiskManagement{RiskPercent: 2.0},
	}
}

// LoadFile reads a definition from YAML (.yaml/.yml) or JSON and validates it.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read strategy file: %w", err)
	}

	var d Definition
	if isYAML(path) {
		err = yaml.Unmarshal(data, &d)
	} else {
		err = json.Unmarshal(data, &d)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidStrategy, path, err)
	}

	if err := d.Validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// SaveFile writes d as YAML or JSON based on the extension.
func (d Definition) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(d)
	} else {
		data, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
