package risk

import "math"

// PlannedRisk is the account-currency loss if a position of lots is stopped
// out stopPips away.
func PlannedRisk(lots, stopPips, pipValue float64) float64 {
	return math.Abs(lots * stopPips * pipValue)
}

// RR is the reward to risk multiple of a bracket.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskPct returns planned risk as a whole percentage of balance.
func RiskPct(plannedRisk, balance float64) float64 {
	if balance <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / balance * 100
}
