package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annual(end string, year int, val float64) factValue {
	return factValue{End: end, Val: val, FY: &year, FP: "FY", Form: "10-K"}
}

func quarterly(end string, year int, fp string, val float64) factValue {
	return factValue{End: end, Val: val, FY: &year, FP: fp, Form: "10-Q"}
}

func usd(values ...factValue) factConcept {
	return factConcept{Units: map[string][]factValue{"USD": values}}
}

func rawConcept(c factConcept) json.RawMessage {
	b, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	return b
}

func gaapDoc(concepts map[string]factConcept) *companyFacts {
	tags := make(map[string]json.RawMessage, len(concepts))
	for tag, c := range concepts {
		tags[tag] = rawConcept(c)
	}
	return &companyFacts{Facts: map[string]map[string]json.RawMessage{gaapTaxonomy: tags}}
}

func TestLatestAnnualPrefersLatestEndDate(t *testing.T) {
	// Input order must not matter.
	for _, values := range [][]factValue{
		{annual("2023-12-31", 2023, 100), annual("2024-12-31", 2024, 200)},
		{annual("2024-12-31", 2024, 200), annual("2023-12-31", 2023, 100)},
	} {
		got, ok := latestAnnual(values)
		require.True(t, ok)
		assert.Equal(t, 200.0, got.Val)
	}
}

func TestLatestAnnualIgnoresLaterQuarters(t *testing.T) {
	got, ok := latestAnnual([]factValue{
		annual("2023-12-31", 2023, 100),
		quarterly("2024-03-31", 2024, "Q1", 30),
	})
	require.True(t, ok)
	assert.Equal(t, 100.0, got.Val)
}

func TestLatestAnnualFormOnly(t *testing.T) {
	// A 20-F qualifies even when the fiscal period is not FY.
	year := 2023
	got, ok := latestAnnual([]factValue{
		{End: "2023-06-30", Val: 7, FY: &year, FP: "Q4", Form: "20-F"},
		quarterly("2023-09-30", 2024, "Q1", 3),
	})
	require.True(t, ok)
	assert.Equal(t, 7.0, got.Val)
}

func TestLatestAnnualFallsBackToAllValues(t *testing.T) {
	got, ok := latestAnnual([]factValue{
		quarterly("2024-03-31", 2024, "Q1", 30),
		quarterly("2024-06-30", 2024, "Q2", 40),
	})
	require.True(t, ok)
	assert.Equal(t, 40.0, got.Val)
}

func TestLatestAnnualTieBreaks(t *testing.T) {
	// Same end date: the later fiscal year wins (restated in a later filing).
	got, ok := latestAnnual([]factValue{
		annual("2023-12-31", 2023, 1),
		annual("2023-12-31", 2024, 2),
	})
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Val)

	// Full tie: input order is kept.
	got, _ = latestAnnual([]factValue{
		annual("2023-12-31", 2023, 10),
		annual("2023-12-31", 2023, 20),
	})
	assert.Equal(t, 10.0, got.Val)

	// A missing fiscal year counts as zero.
	got, _ = latestAnnual([]factValue{
		{End: "2023-12-31", Val: 5, FP: "FY"},
		annual("2023-12-31", 2023, 6),
	})
	assert.Equal(t, 6.0, got.Val)
}

func TestLatestAnnualUnparseableDateSortsOldest(t *testing.T) {
	got, ok := latestAnnual([]factValue{
		annual("not-a-date", 2030, 1),
		annual("2019-12-31", 2019, 2),
	})
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Val)
}

func TestLatestAnnualEmpty(t *testing.T) {
	_, ok := latestAnnual(nil)
	assert.False(t, ok)
}

func TestUnitPreference(t *testing.T) {
	tests := []struct {
		name  string
		units map[string][]factValue
		want  float64
	}{
		{"usd first", map[string][]factValue{
			"shares": {annual("2024-12-31", 2024, 1)},
			"USD":    {annual("2024-12-31", 2024, 2)},
		}, 2},
		{"per share before pure", map[string][]factValue{
			"pure":       {annual("2024-12-31", 2024, 3)},
			"USD/shares": {annual("2024-12-31", 2024, 4)},
		}, 4},
		{"pure", map[string][]factValue{
			"pure":   {annual("2024-12-31", 2024, 5)},
			"shares": {annual("2024-12-31", 2024, 6)},
		}, 5},
		{"first available by key", map[string][]factValue{
			"EUR": {annual("2024-12-31", 2024, 7)},
			"CHF": {annual("2024-12-31", 2024, 8)},
		}, 8},
		{"empty usd falls through", map[string][]factValue{
			"USD": {},
			"JPY": {annual("2024-12-31", 2024, 9)},
		}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := gaapDoc(map[string]factConcept{"Revenues": {Units: tt.units}})
			got := gaapValue(doc, "Revenues")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestGaapValueStructuralMisses(t *testing.T) {
	assert.Nil(t, gaapValue(nil, "Revenues"))
	assert.Nil(t, gaapValue(&companyFacts{}, "Revenues"))
	assert.Nil(t, gaapValue(gaapDoc(nil), "Revenues"))
	assert.Nil(t, gaapValue(gaapDoc(map[string]factConcept{"Revenues": {}}), "Revenues"))
	assert.Nil(t, gaapValue(gaapDoc(map[string]factConcept{
		"Revenues": {Units: map[string][]factValue{"USD": {}}},
	}), "Revenues"))
}

func TestExtractFactsRevenueFallback(t *testing.T) {
	doc := gaapDoc(map[string]factConcept{
		"Revenues": usd(annual("2024-12-31", 2024, 900)),
		"GrossProfit": usd(annual("2024-12-31", 2024, 300)),
	})
	f := extractFacts(doc)
	require.NotNil(t, f.Revenue)
	assert.Equal(t, 900.0, *f.Revenue)
	require.NotNil(t, f.GrossMargin)
	assert.InDelta(t, 1.0/3.0, *f.GrossMargin, 1e-12)

	// The contract-revenue tag outranks Revenues.
	doc.Facts[gaapTaxonomy]["RevenueFromContractWithCustomerExcludingAssessedTax"] = rawConcept(usd(annual("2024-12-31", 2024, 1000)))
	f = extractFacts(doc)
	assert.Equal(t, 1000.0, *f.Revenue)
}

func TestExtractFactsFullStatement(t *testing.T) {
	doc := gaapDoc(map[string]factConcept{
		"RevenueFromContractWithCustomerExcludingAssessedTax": usd(annual("2024-12-31", 2024, 1000)),
		"GrossProfit": usd(annual("2024-12-31", 2024, 400)),
		"OperatingIncomeLoss": usd(annual("2024-12-31", 2024, 250)),
		"ProfitLoss": usd(annual("2024-12-31", 2024, 200)),
		"CashCashEquivalentsAndShortTermInvestments": usd(annual("2024-12-31", 2024, 120)),
		"AssetsCurrent": usd(annual("2024-12-31", 2024, 500)),
		"LiabilitiesCurrent": usd(annual("2024-12-31", 2024, 250)),
		"StockholdersEquity": usd(annual("2024-12-31", 2024, 800)),
		"LongTermDebtNoncurrent": usd(annual("2024-12-31", 2024, 300)),
		"LongTermDebt": usd(annual("2024-12-31", 2024, 9999)),
		"LongTermDebtCurrent": usd(annual("2024-12-31", 2024, 50)),
		"ShortTermBorrowings": usd(annual("2024-12-31", 2024, 25)),
		"CommercialPaper": usd(annual("2024-12-31", 2024, 25)),
	})

	f := extractFacts(doc)
	assert.Empty(t, f.Missing())

	assert.Equal(t, 1000.0, *f.Revenue)
	assert.Equal(t, 200.0, *f.NetIncome)
	assert.Equal(t, 120.0, *f.Cash)
	assert.Equal(t, 400.0, *f.TotalDebt, "LongTermDebtNoncurrent outranks LongTermDebt")
	assert.InDelta(t, 0.4, *f.GrossMargin, 1e-12)
	assert.InDelta(t, 0.25, *f.OperatingMargin, 1e-12)
	assert.InDelta(t, 2.0, *f.CurrentRatio, 1e-12)
	assert.InDelta(t, 0.5, *f.DebtToEquity, 1e-12)
}

func TestExtractFactsRatioGuards(t *testing.T) {
	doc := gaapDoc(map[string]factConcept{
		"Revenues": usd(annual("2024-12-31", 2024, 0)),
		"GrossProfit": usd(annual("2024-12-31", 2024, 10)),
		"AssetsCurrent": usd(annual("2024-12-31", 2024, 0)),
		"LiabilitiesCurrent": usd(annual("2024-12-31", 2024, 40)),
		"StockholdersEquity": usd(annual("2024-12-31", 2024, 100)),
	})
	f := extractFacts(doc)

	assert.Nil(t, f.GrossMargin, "zero revenue")
	assert.Nil(t, f.OperatingMargin, "missing operating income")
	require.NotNil(t, f.CurrentRatio, "a zero numerator is still a ratio")
	assert.Equal(t, 0.0, *f.CurrentRatio)
	assert.Nil(t, f.TotalDebt)
	assert.Nil(t, f.DebtToEquity, "no debt tags means no leverage ratio")
}

func TestExtractFactsZeroDebtIsAbsent(t *testing.T) {
	doc := gaapDoc(map[string]factConcept{
		"LongTermDebt": usd(annual("2024-12-31", 2024, 0)),
		"CommercialPaper": usd(annual("2024-12-31", 2024, 0)),
		"StockholdersEquity": usd(annual("2024-12-31", 2024, 100)),
	})
	f := extractFacts(doc)
	assert.Nil(t, f.TotalDebt)
	assert.Nil(t, f.DebtToEquity)
}

func TestRatio(t *testing.T) {
	one, two, zero := 1.0, 2.0, 0.0
	assert.Nil(t, ratio(nil, &two))
	assert.Nil(t, ratio(&one, nil))
	assert.Nil(t, ratio(&one, &zero))
	require.NotNil(t, ratio(&one, &two))
	assert.Equal(t, 0.5, *ratio(&one, &two))
}

const appleFactsJSON = `{
	"cik": 320193,
	"entityName": "Apple Inc.",
	"facts": {
		"dei": {"EntityCommonStockSharesOutstanding": {"units": {"shares": [{"end": "2024-10-18", "val": 15115823000}]}}},
		"us-gaap": {
			"RevenueFromContractWithCustomerExcludingAssessedTax": {
				"label": "Revenue",
				"units": {"USD": [
					{"end": "2023-09-30", "val": 383285000000, "fy": 2023, "fp": "FY", "form": "10-K"},
					{"end": "2024-09-28", "val": 391035000000, "fy": 2024, "fp": "FY", "form": "10-K"},
					{"end": "2024-06-29", "val": 85777000000, "fy": 2024, "fp": "Q3", "form": "10-Q"}
				]}
			},
			"NetIncomeLoss": {
				"units": {"USD": [
					{"end": "2024-09-28", "val": 93736000000, "fy": null, "fp": "FY", "form": "10-K"}
				]}
			}
		}
	}
}`

func TestFactsExtractorExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/xbrl/companyfacts/CIK0000320193.json", r.URL.Path)
		_, _ = w.Write([]byte(appleFactsJSON))
	}))
	defer srv.Close()

	e := NewFactsExtractor(testClient(), srv.URL+"/", nil)
	f := e.Extract(context.Background(), "0000320193")

	require.NotNil(t, f.Revenue)
	assert.Equal(t, 391035000000.0, *f.Revenue)
	require.NotNil(t, f.NetIncome)
	assert.Equal(t, 93736000000.0, *f.NetIncome)
	assert.Nil(t, f.GrossProfit)
	assert.Nil(t, f.GrossMargin)
}

const malformedTagFactsJSON = `{
	"entityName": "Mixed Corp",
	"facts": {
		"dei": {"EntityCommonStockSharesOutstanding": {"units": {"shares": [{"end": "2024-10-18", "val": "lots"}]}}},
		"us-gaap": {
			"Revenues": {"units": {"USD": [{"end": "2024-12-31", "val": 1000, "fy": 2024, "fp": "FY", "form": "10-K"}]}},
			"GrossProfit": {"units": {"USD": [{"end": "2024-12-31", "val": 400, "fy": 2024, "fp": "FY", "form": "10-K"}]}},
			"OddTag": {"units": {"USD": [{"end": "2024-12-31", "val": "n/a", "fy": "2024"}]}},
			"NetIncomeLoss": {"units": {"USD": [{"end": "2024-12-31", "val": "n/a", "fy": 2024, "fp": "FY", "form": "10-K"}]}},
			"ProfitLoss": {"units": {"USD": [{"end": "2024-12-31", "val": 90, "fy": 2024, "fp": "FY", "form": "10-K"}]}}
		}
	}
}`

func TestFactsExtractorMalformedTagIsIsolated(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, malformedTagFactsJSON)
	e := NewFactsExtractor(testClient(), srv.URL, nil)

	f := e.Extract(context.Background(), "0000000002")
	require.NotNil(t, f.Revenue)
	assert.Equal(t, 1000.0, *f.Revenue)
	require.NotNil(t, f.GrossProfit)
	assert.Equal(t, 400.0, *f.GrossProfit)
	require.NotNil(t, f.GrossMargin)
	assert.InDelta(t, 0.4, *f.GrossMargin, 1e-12)

	// A bad NetIncomeLoss falls through to the next candidate tag.
	require.NotNil(t, f.NetIncome)
	assert.Equal(t, 90.0, *f.NetIncome)
}

func TestGaapValueMalformedTag(t *testing.T) {
	doc := gaapDoc(map[string]factConcept{"GrossProfit": usd(annual("2024-12-31", 2024, 400))})
	doc.Facts[gaapTaxonomy]["Revenues"] = json.RawMessage(`{"units": {"USD": [{"val": "n/a"}]}}`)

	assert.Nil(t, gaapValue(doc, "Revenues"))
	require.NotNil(t, gaapValue(doc, "GrossProfit"))
}

func TestFactsExtractorFailureYieldsEmpty(t *testing.T) {
	srv, hits := countingServer(t, http.StatusNotFound, `{"message":"not found"}`)
	e := NewFactsExtractor(testClient(), srv.URL, nil)

	f := e.Extract(context.Background(), "0000000001")
	assert.True(t, f.IsEmpty())
	assert.EqualValues(t, 1, hits.Load())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestFactsExtractorEmptyCIK(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, appleFactsJSON)
	e := NewFactsExtractor(testClient(), srv.URL, nil)

	f := e.Extract(context.Background(), "")
	assert.True(t, f.IsEmpty())
	assert.Zero(t, hits.Load())
}
