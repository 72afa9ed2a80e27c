package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

// ── FinancialFacts ──

func TestFinancialFactsEmptyMarshalsAsObject(t *testing.T) {
	data, err := json.Marshal(FinancialFacts{})
	if err != nil {
		t.Fatalf("json.Marshal(FinancialFacts{}) error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("got %s, want {}", data)
	}
}

func TestFinancialFactsPartialKeepsNulls(t *testing.T) {
	f := FinancialFacts{Revenue: Float(100), TotalDebt: Float(0)}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if len(m) != 13 {
		t.Errorf("expected 13 keys, got %d", len(m))
	}
	if v, ok := m["equity"]; !ok || v != nil {
		t.Errorf("equity: got %v (present=%v), want explicit null", v, ok)
	}
	if m["total_debt"] != 0.0 {
		t.Errorf("total_debt: got %v, want 0", m["total_debt"])
	}
}

func TestFinancialFactsMissing(t *testing.T) {
	f := FinancialFacts{Revenue: Float(1), GrossProfit: Float(1)}
	missing := f.Missing()
	if len(missing) != 11 {
		t.Fatalf("expected 11 missing, got %d: %v", len(missing), missing)
	}
	if missing[0] != "operating_income" || missing[len(missing)-1] != "debt_to_equity" {
		t.Errorf("unexpected order: %v", missing)
	}
	if f.IsEmpty() {
		t.Error("IsEmpty() = true with two fields set")
	}
	if !(FinancialFacts{}).IsEmpty() {
		t.Error("IsEmpty() = false for zero value")
	}
}

// ── PricePoint / PriceMetrics ──

func TestPricePointPair(t *testing.T) {
	data, err := json.Marshal(PricePoint{Date: "2024-05-15", Close: 189.5})
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	if string(data) != `["2024-05-15",189.5]` {
		t.Errorf("got %s", data)
	}

	var p PricePoint
	if err := json.Unmarshal([]byte(`["2024-05-14", 187]`), &p); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if p.Date != "2024-05-14" || p.Close != 187 {
		t.Errorf("got %+v", p)
	}
}

func TestPricePointRejectsBadShape(t *testing.T) {
	for _, in := range []string{`["2024-05-14"]`, `{"date":"x"}`, `[1, 2]`, `["x", "y"]`} {
		var p PricePoint
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("json.Unmarshal(%s) succeeded, want error", in)
		}
	}
}

func TestPriceErrorShape(t *testing.T) {
	m := PriceError("No price data")
	if !m.Failed() {
		t.Error("Failed() = false for error shape")
	}
	data, _ := json.Marshal(m)
	if string(data) != `{"error":"No price data"}` {
		t.Errorf("got %s", data)
	}
}

func TestPriceMetricsNullOptionals(t *testing.T) {
	data, _ := json.Marshal(PriceMetrics{LatestClose: 10, OldestClose: 10, Sample: []PricePoint{{"2024-01-02", 10}}})
	want := `{"latest_close":10,"oldest_close":10,"pct_change":null,"sma20":null,"sma50":null,"annualized_vol":null,"sample":[["2024-01-02",10]]}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

// ── NewsItem / NewsDigest ──

func TestNewsItemTimestamp(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"1715760000", 1715760000, true},
		{"1715760000.9", 1715760000, true},
		{"", 0, false},
		{"null", 0, false},
		{`"yesterday"`, 0, false},
		{"1e300", 0, false},
	}
	for _, tt := range tests {
		n := NewsItem{Datetime: json.RawMessage(tt.raw)}
		got, ok := n.Timestamp()
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Timestamp(%q) = %d,%v; want %d,%v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewsDigestShapes(t *testing.T) {
	data, _ := json.Marshal(NewsDigest{Count: 0, Sample: []NewsItem{}})
	if string(data) != `{"count":0,"sample":[]}` {
		t.Errorf("empty digest: got %s", data)
	}

	e := NewsError("No FINNHUB_API_KEY set")
	if !e.Failed() {
		t.Error("Failed() = false for error shape")
	}
	data, _ = json.Marshal(e)
	if string(data) != `{"error":"No FINNHUB_API_KEY set"}` {
		t.Errorf("error digest: got %s", data)
	}
}

// ── RawBundle ──

func TestRawBundleRoundtrip(t *testing.T) {
	b := RawBundle{
		Meta: &ResolvedTicker{Ticker: "AAPL", CIK: "0000320193", CompanyName: "Apple Inc."},
		SEC:  FinancialFacts{Revenue: Float(383285000000), CurrentRatio: Float(0.988)},
		Prices: PriceMetrics{
			LatestClose: 189.5,
			OldestClose: 170,
			PctChange:   Float(0.1147),
			Sample:      []PricePoint{{"2024-05-15", 189.5}},
		},
		News: NewsDigest{
			Count: 1,
			Sample: []NewsItem{{
				Datetime:    UnixDatetime(1715760000),
				Headline:    "Apple unveils new iPad lineup",
				ID:          42,
				Source:      "Reuters",
				DatetimeISO: "2024-05-15T08:00:00Z",
			}},
		},
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	var decoded RawBundle
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if !reflect.DeepEqual(b, decoded) {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", decoded, b)
	}
}

func TestRawBundleUnresolved(t *testing.T) {
	b := RawBundle{Prices: PriceError("No price data"), News: NewsError("boom")}
	data, _ := json.Marshal(b)
	want := `{"meta":null,"sec":{},"prices":{"error":"No price data"},"news":{"error":"boom"}}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}
