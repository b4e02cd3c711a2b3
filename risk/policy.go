package risk

import "fmt"

// Policy holds soft limits for a strategy's risk settings. Percentages are
// whole numbers (2 = 2%).
type Policy struct {
	DefaultRiskPercent float64
	MaxRiskPercent     float64
	MinRR              float64
}

// DefaultPolicy mirrors the limits the strategy builder ships with.
func DefaultPolicy() Policy {
	return Policy{
		DefaultRiskPercent: 2.0,
		MaxRiskPercent:     10.0,
		MinRR:              1.0,
	}
}

// Intent is the risk shape of a strategy before any bar is seen.
type Intent struct {
	RiskPercent    float64
	StopPips       float64
	TakeProfitPips float64
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRR float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks intent against p. Violations are advisory; the engine runs
// any structurally valid strategy.
func Evaluate(p Policy, intent Intent) Decision {
	d := Decision{Allowed: true}

	if intent.StopPips <= 0 {
		d.add("NO_STOP", "stop loss pips must be positive")
		return d
	}

	// pips are symmetric around entry, so RR is the pip ratio
	d.PlannedRR = RR(0, intent.StopPips, -intent.TakeProfitPips)

	if intent.RiskPercent > p.MaxRiskPercent {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("risk %.2f%% exceeds max %.2f%%", intent.RiskPercent, p.MaxRiskPercent))
	}
	if intent.RiskPercent > p.DefaultRiskPercent {
		d.add("RISK_OVER_DEFAULT",
			fmt.Sprintf("risk %.2f%% exceeds default %.2f%%", intent.RiskPercent, p.DefaultRiskPercent))
	}
	if d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}
	return d
}
