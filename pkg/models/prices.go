package models

import (
	"encoding/json"
	"fmt"
)

// PricePoint is a single daily close. It serializes as a two-element array
// ["2006-01-02", 123.45].
type PricePoint struct {
	Date  string
	Close float64
}

// MarshalJSON encodes the point as a [date, close] pair.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Close})
}

// UnmarshalJSON decodes a [date, close] pair.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("price point: expected [date, close], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Date); err != nil {
		return fmt.Errorf("price point date: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Close); err != nil {
		return fmt.Errorf("price point close: %w", err)
	}
	return nil
}

// PriceMetrics summarizes a trailing daily close series. When Error is set
// the value is in its error shape and no numeric field is meaningful.
type PriceMetrics struct {
	LatestClose   float64      `json:"latest_close"`
	OldestClose   float64      `json:"oldest_close"`
	PctChange     *float64     `json:"pct_change"`
	SMA20         *float64     `json:"sma20"`
	SMA50         *float64     `json:"sma50"`
	AnnualizedVol *float64     `json:"annualized_vol"`
	Sample        []PricePoint `json:"sample"` // most recent 5, oldest first
	Error         string       `json:"error,omitempty"`
}

type priceMetricsJSON PriceMetrics

// PriceError builds the error shape.
func PriceError(msg string) PriceMetrics {
	return PriceMetrics{Error: msg}
}

// Failed reports whether the metrics carry the error shape.
func (m PriceMetrics) Failed() bool { return m.Error != "" }

// MarshalJSON emits {"error": ...} for the error shape.
func (m PriceMetrics) MarshalJSON() ([]byte, error) {
	if m.Failed() {
		return json.Marshal(errorShape{Error: m.Error})
	}
	return json.Marshal(priceMetricsJSON(m))
}

type errorShape struct {
	Error string `json:"error"`
}
