// Package models defines the core data structures used throughout edgarlens.
package models

// ResolvedTicker maps an exchange symbol to its SEC identity.
type ResolvedTicker struct {
	Ticker      string `json:"ticker"`       // upper-cased, e.g., "AAPL"
	CIK         string `json:"cik"`          // zero-padded to 10 digits, e.g., "0000320193"
	CompanyName string `json:"company_name"` // registry title, e.g., "Apple Inc."
}

// RawBundle is the unified per-ticker aggregate handed to every downstream
// consumer. All four keys are always present in its JSON form; Meta is null
// when the ticker could not be resolved.
type RawBundle struct {
	Meta   *ResolvedTicker `json:"meta"`
	SEC    FinancialFacts  `json:"sec"`
	Prices PriceMetrics    `json:"prices"`
	News   NewsDigest      `json:"news"`
}

// Float returns a pointer to v. Handy for building optional metric fields.
func Float(v float64) *float64 {
	return &v
}
