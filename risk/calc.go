package risk

import "math"

// Inputs describe one risk-sized entry. RiskPercent is a whole percentage:
// 2 means 2% of Balance.
type Inputs struct {
	Balance     float64
	RiskPercent float64
	StopPips    float64
	PipValue    float64 // account currency per pip per lot
	MinLot      float64
	MaxLot      float64
}

type Result struct {
	Lots    float64 // clamped
	RawLots float64
}

// Calculate sizes a position so that a stop-out loses RiskPercent of the
// balance, then clamps the size into [MinLot, MaxLot]. It does not round to
// the instrument lot step.
func Calculate(in Inputs) Result {
	riskAmt := in.Balance * (in.RiskPercent / 100.0)
	raw := riskAmt / (in.StopPips * in.PipValue)

	return Result{
		Lots:    math.Max(in.MinLot, math.Min(raw, in.MaxLot)),
		RawLots: raw,
	}
}
