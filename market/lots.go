package market

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/risk"
)

// RecommendedLots sizes a position so a stop of slPips costs riskPercent of
// balance, rounded to the nearest LotStep and clamped to [MinLot, MaxLot].
//
// The backtest engine does not use this helper; it applies risk.Calculate
// unrounded at entry. The run command prints this size as advice.
func RecommendedLots(s InstrumentSpec, balance, riskPercent, slPips float64) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if slPips <= 0 {
		return 0, fmt.Errorf("stop loss pips must be positive, got %v", slPips)
	}

	pip, err := PipSize(s)
	if err != nil {
		return 0, err
	}
	pv, err := PipValue(s, pip)
	if err != nil {
		return 0, err
	}

	lots := risk.Calculate(risk.Inputs{
		Balance:     balance,
		RiskPercent: riskPercent,
		StopPips:    slPips,
		PipValue:    pv,
	}).RawLots

	if s.LotStep > 0 {
		lots = math.RoundToEven(lots/s.LotStep) * s.LotStep
	}
	return math.Max(s.MinLot, math.Min(lots, s.MaxLot)), nil
}
