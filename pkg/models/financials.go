package models

import "encoding/json"

// FinancialFacts holds the latest annual figures extracted from a company's
// XBRL facts plus the ratios derived from them. A nil field means the value
// was not reported (or could not be derived); it is never a computed zero.
type FinancialFacts struct {
	Revenue            *float64 `json:"revenue"`
	GrossProfit        *float64 `json:"gross_profit"`
	OperatingIncome    *float64 `json:"operating_income"`
	NetIncome          *float64 `json:"net_income"`
	Cash               *float64 `json:"cash"`
	CurrentAssets      *float64 `json:"current_assets"`
	CurrentLiabilities *float64 `json:"current_liabilities"`
	Equity             *float64 `json:"equity"`
	TotalDebt          *float64 `json:"total_debt"`

	// Derived ratios.
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	CurrentRatio    *float64 `json:"current_ratio"`
	DebtToEquity    *float64 `json:"debt_to_equity"`
}

// financialFactsJSON strips the custom marshaler to avoid recursion.
type financialFactsJSON FinancialFacts

// Fields returns the facts keyed by their JSON names, in declaration order.
func (f FinancialFacts) Fields() []NamedValue {
	return []NamedValue{
		{"revenue", f.Revenue},
		{"gross_profit", f.GrossProfit},
		{"operating_income", f.OperatingIncome},
		{"net_income", f.NetIncome},
		{"cash", f.Cash},
		{"current_assets", f.CurrentAssets},
		{"current_liabilities", f.CurrentLiabilities},
		{"equity", f.Equity},
		{"total_debt", f.TotalDebt},
		{"gross_margin", f.GrossMargin},
		{"operating_margin", f.OperatingMargin},
		{"current_ratio", f.CurrentRatio},
		{"debt_to_equity", f.DebtToEquity},
	}
}

// IsEmpty reports whether no field carries a value.
func (f FinancialFacts) IsEmpty() bool {
	for _, nv := range f.Fields() {
		if nv.Value != nil {
			return false
		}
	}
	return true
}

// Missing returns the JSON names of absent fields.
func (f FinancialFacts) Missing() []string {
	var missing []string
	for _, nv := range f.Fields() {
		if nv.Value == nil {
			missing = append(missing, nv.Name)
		}
	}
	return missing
}

// MarshalJSON renders empty facts as {} and everything else with explicit
// nulls for absent fields.
func (f FinancialFacts) MarshalJSON() ([]byte, error) {
	if f.IsEmpty() {
		return []byte("{}"), nil
	}
	return json.Marshal(financialFactsJSON(f))
}

// NamedValue pairs an optional metric with its JSON name.
type NamedValue struct {
	Name  string
	Value *float64
}
