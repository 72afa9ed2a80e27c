package technical

import "math"

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// LogReturns returns ln(p[i]/p[i-1]) for each consecutive pair. Pairs where
// either price is zero are skipped.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev == 0 || cur == 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// PopulationStdDev is the standard deviation with divisor n.
func PopulationStdDev(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	ss := 0.0
	for _, v := range data {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// AnnualizedVolatility returns the population standard deviation of daily
// log returns scaled by sqrt(252). ok is false when no return can be formed.
func AnnualizedVolatility(prices []float64) (vol float64, ok bool) {
	rets := LogReturns(prices)
	if len(rets) == 0 {
		return 0, false
	}
	return PopulationStdDev(rets) * math.Sqrt(TradingDaysPerYear), true
}

// PctChange returns latest/oldest - 1. ok is false when oldest is zero.
func PctChange(oldest, latest float64) (float64, bool) {
	if oldest == 0 {
		return 0, false
	}
	return latest/oldest - 1, true
}
