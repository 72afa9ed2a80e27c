// Package technical computes indicators over daily close series.
package technical

// SMALatest returns the mean of the trailing period values. ok is false
// when the series is shorter than period.
func SMALatest(data []float64, period int) (avg float64, ok bool) {
	n := len(data)
	if period <= 0 || n < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range data[n-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// MultiSMA computes the trailing SMA for several periods at once. Periods
// longer than the series are omitted.
func MultiSMA(data []float64, periods []int) map[int]float64 {
	result := make(map[int]float64, len(periods))
	for _, p := range periods {
		if v, ok := SMALatest(data, p); ok {
			result[p] = v
		}
	}
	return result
}

// Trailing windows behind SMA20 and SMA50.
const (
	ShortPeriod = 20
	LongPeriod  = 50
)

// StandardPeriods are the moving-average windows reported for daily closes.
var StandardPeriods = []int{ShortPeriod, LongPeriod}
