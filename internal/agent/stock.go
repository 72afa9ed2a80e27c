package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/agent/prompts"
	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// Signal thresholds.
const (
	trendThreshold   = 0.05
	lowVolCeiling    = 0.20
	moderateVolLimit = 0.35
)

// Crossover labels.
const (
	CrossoverBullish = "Bullish (20D above 50D)"
	CrossoverBearish = "Bearish (20D below 50D)"
	CrossoverNeutral = "Neutral (20D ~ 50D)"
)

// DerivedSignals are the rule-based labels computed before the model call.
type DerivedSignals struct {
	TrendLabel      string  `json:"trend_label"` // Up, Down or Flat
	AboveSMA20      bool    `json:"above_sma20"`
	AboveSMA50      bool    `json:"above_sma50"`
	Crossover       *string `json:"crossover"`
	VolatilityLabel *string `json:"volatility_label"` // Low, Moderate or High
	DaysWindow      *int    `json:"days_window"`
}

// DeriveSignals labels trend, SMA posture, crossover and volatility.
// windowDays is reported as the window when positive; otherwise the sample
// length stands in.
func DeriveSignals(m models.PriceMetrics, windowDays int) DerivedSignals {
	s := DerivedSignals{TrendLabel: "Flat"}

	pct := 0.0
	if m.PctChange != nil {
		pct = *m.PctChange
	}
	switch {
	case pct > trendThreshold:
		s.TrendLabel = "Up"
	case pct < -trendThreshold:
		s.TrendLabel = "Down"
	}

	s.AboveSMA20 = m.SMA20 != nil && m.LatestClose > *m.SMA20
	s.AboveSMA50 = m.SMA50 != nil && m.LatestClose > *m.SMA50

	if m.SMA20 != nil && m.SMA50 != nil {
		label := CrossoverNeutral
		switch {
		case *m.SMA20 > *m.SMA50:
			label = CrossoverBullish
		case *m.SMA20 < *m.SMA50:
			label = CrossoverBearish
		}
		s.Crossover = &label
	}

	if m.AnnualizedVol != nil {
		label := "High"
		switch {
		case *m.AnnualizedVol < lowVolCeiling:
			label = "Low"
		case *m.AnnualizedVol < moderateVolLimit:
			label = "Moderate"
		}
		s.VolatilityLabel = &label
	}

	days := windowDays
	if days <= 0 {
		days = len(m.Sample)
	}
	if days > 0 {
		s.DaysWindow = &days
	}
	return s
}

// Flags are the model's bullet points.
type Flags struct {
	Positives []string `json:"positives"`
	RedFlags  []string `json:"red_flags"`
}

// StockMetrics is the price summary plus the derived signals.
type StockMetrics struct {
	LatestClose    float64             `json:"latest_close"`
	OldestClose    float64             `json:"oldest_close"`
	PctChange      *float64            `json:"pct_change"`
	SMA20          *float64            `json:"sma20"`
	SMA50          *float64            `json:"sma50"`
	AnnualizedVol  *float64            `json:"annualized_vol"`
	Sample         []models.PricePoint `json:"sample"`
	DerivedSignals DerivedSignals      `json:"derived_signals"`
}

// StockAnalysis is the stock agent's output.
type StockAnalysis struct {
	AnalysisTechnical string       `json:"analysis_technical"`
	SummaryPlain      string       `json:"summary_plain"`
	Flags             Flags        `json:"flags"`
	Metrics           StockMetrics `json:"metrics"`
	RawModelText      string       `json:"raw_model_text"`
}

type recentClose struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type stockPayload struct {
	TickerHint    string        `json:"ticker_hint"`
	LatestClose   float64       `json:"latest_close"`
	OldestClose   float64       `json:"oldest_close"`
	PctChange     *float64      `json:"pct_change"`
	SMA20         *float64      `json:"sma20"`
	SMA50         *float64      `json:"sma50"`
	AnnualizedVol *float64      `json:"annualized_vol"`
	WindowDays    *int          `json:"window_days"`
	RecentSample  []recentClose `json:"recent_sample"`
}

func stockDefaults() map[string]any {
	return map[string]any{
		"analysis_technical": "",
		"summary_plain":      "",
		"flags":              map[string]any{"positives": []any{}, "red_flags": []any{}},
	}
}

// StockAgent turns the price summary into a technical note and a plain
// summary.
type StockAgent struct {
	*BaseAgent
	windowDays int
}

// NewStockAgent creates the price trend analyst. windowDays is the price
// window the bundle was collected with.
func NewStockAgent(provider llm.LLMProvider, windowDays int, logger *zap.Logger) *StockAgent {
	return &StockAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentStock,
			Role:         "Quantitative analyst for the trailing price trend",
			SystemPrompt: prompts.StockSystemPrompt,
			Provider:     provider,
			ChatOptions:  llm.WithTemperature(prompts.StockTemperature),
			Logger:       logger,
		}),
		windowDays: windowDays,
	}
}

// Process analyzes bundle.Prices.
func (a *StockAgent) Process(ctx context.Context, ticker string, bundle *models.RawBundle) (*AgentResult, error) {
	start := time.Now()
	if bundle == nil {
		return a.result(ticker, start, nil, fmt.Errorf("%w: no bundle", ErrInsufficientData))
	}
	out, err := a.AnalyzePrices(ctx, bundle.Prices, companyHint(ticker, bundle))
	return a.result(ticker, start, out, err)
}

// AnalyzePrices derives signals from m and asks the model to narrate them.
// Metrics in the error shape are refused.
func (a *StockAgent) AnalyzePrices(ctx context.Context, m models.PriceMetrics, tickerHint string) (*StockAnalysis, error) {
	if m.Failed() {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, m.Error)
	}

	signals := DeriveSignals(m, a.windowDays)

	payload := stockPayload{
		TickerHint:    tickerHint,
		LatestClose:   m.LatestClose,
		OldestClose:   m.OldestClose,
		PctChange:     m.PctChange,
		SMA20:         m.SMA20,
		SMA50:         m.SMA50,
		AnnualizedVol: m.AnnualizedVol,
		RecentSample:  make([]recentClose, 0, len(m.Sample)),
	}
	if a.windowDays > 0 {
		payload.WindowDays = &a.windowDays
	}
	for _, p := range m.Sample {
		payload.RecentSample = append(payload.RecentSample, recentClose{Date: p.Date, Close: p.Close})
	}

	dataJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode price data: %w", err)
	}
	signalsJSON, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode signals: %w", err)
	}

	raw, err := a.complete(ctx, prompts.StockTask(string(dataJSON), string(signalsJSON)))
	if err != nil {
		return nil, err
	}
	parsed := parseReply(raw, stockDefaults(), stockDefaults())

	return &StockAnalysis{
		AnalysisTechnical: stringValue(parsed["analysis_technical"]),
		SummaryPlain:      stringValue(parsed["summary_plain"]),
		Flags:             flagsValue(parsed["flags"]),
		Metrics: StockMetrics{
			LatestClose:    m.LatestClose,
			OldestClose:    m.OldestClose,
			PctChange:      m.PctChange,
			SMA20:          m.SMA20,
			SMA50:          m.SMA50,
			AnnualizedVol:  m.AnnualizedVol,
			Sample:         m.Sample,
			DerivedSignals: signals,
		},
		RawModelText: raw,
	}, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// flagsValue reads {"positives": [...], "red_flags": [...]}, keeping only
// string bullets.
func flagsValue(v any) Flags {
	f := Flags{Positives: []string{}, RedFlags: []string{}}
	obj, ok := v.(map[string]any)
	if !ok {
		return f
	}
	f.Positives = append(f.Positives, stringList(obj["positives"])...)
	f.RedFlags = append(f.RedFlags, stringList(obj["red_flags"])...)
	return f
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
