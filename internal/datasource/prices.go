package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/analysis/technical"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// DefaultWindowDays is the trailing calendar window used for price metrics.
const DefaultWindowDays = 60

// sampleSize is the number of trailing closes echoed in PriceMetrics.Sample.
const sampleSize = 5

// noPriceData is the error-shape message for a series with no usable close.
const noPriceData = "No price data returned"

// --- Yahoo Finance v8 chart API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"` // seconds east of UTC
}

type yfIndicators struct {
	Quote []yfQuote `json:"quote"`
}

type yfQuote struct {
	Close []*float64 `json:"close"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PriceAnalyzer pulls daily closes from the Yahoo Finance chart API and
// summarizes them.
type PriceAnalyzer struct {
	client   *infra.Client
	chartURL string
	logger   *zap.Logger
	now      func() time.Time
}

// NewPriceAnalyzer creates an analyzer against the v8 chart endpoint.
func NewPriceAnalyzer(client *infra.Client, chartURL string, logger *zap.Logger) *PriceAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceAnalyzer{
		client:   client,
		chartURL: strings.TrimRight(chartURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze returns metrics over the trailing windowDays calendar days. It
// never fails: any problem is reported through the error shape.
func (a *PriceAnalyzer) Analyze(ctx context.Context, symbol string, windowDays int) (m models.PriceMetrics) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("price analysis panicked", zap.String("symbol", symbol), zap.Any("panic", r))
			m = models.PriceError(fmt.Sprint(r))
		}
	}()

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	points, err := a.fetchCloses(ctx, symbol, windowDays)
	if err != nil {
		a.logger.Warn("price history unavailable", zap.String("symbol", symbol), zap.Error(err))
		return models.PriceError(err.Error())
	}
	return ComputePriceMetrics(points)
}

// fetchCloses returns the non-null daily closes, oldest first.
func (a *PriceAnalyzer) fetchCloses(ctx context.Context, symbol string, windowDays int) ([]models.PricePoint, error) {
	to := a.now()
	from := to.AddDate(0, 0, -windowDays)

	q := url.Values{}
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(to.Unix()))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/%s?%s", a.chartURL, url.PathEscape(utils.ToYahooSymbol(symbol)), q.Encode())

	var resp yfChartResponse
	if err := a.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, newFetchError("yahoo", u, err)
	}
	if resp.Chart.Error != nil {
		return nil, newFetchError("yahoo", u, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description))
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return parseYFCloses(resp.Chart.Result[0]), nil
}

// parseYFCloses pairs timestamps with closes, dropping null closes. Dates
// are rendered in the exchange's own timezone.
func parseYFCloses(result yfChartResult) []models.PricePoint {
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close
	loc := exchangeLocation(result.Meta)

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0).In(loc).Format("2006-01-02"),
			Close: *closes[i],
		})
	}
	return points
}

func exchangeLocation(meta yfChartMeta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	if meta.GMTOffset != 0 {
		return time.FixedZone("", meta.GMTOffset)
	}
	return time.UTC
}

// ComputePriceMetrics summarizes a chronologically ordered close series.
// An empty series yields the error shape.
func ComputePriceMetrics(points []models.PricePoint) models.PriceMetrics {
	if len(points) == 0 {
		return models.PriceError(noPriceData)
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	m := models.PriceMetrics{
		OldestClose: closes[0],
		LatestClose: closes[len(closes)-1],
	}
	if v, ok := technical.PctChange(m.OldestClose, m.LatestClose); ok {
		m.PctChange = models.Float(v)
	}
	smas := technical.MultiSMA(closes, technical.StandardPeriods)
	if v, ok := smas[technical.ShortPeriod]; ok {
		m.SMA20 = models.Float(v)
	}
	if v, ok := smas[technical.LongPeriod]; ok {
		m.SMA50 = models.Float(v)
	}
	if v, ok := technical.AnnualizedVolatility(closes); ok {
		m.AnnualizedVol = models.Float(v)
	}

	start := len(points) - sampleSize
	if start < 0 {
		start = 0
	}
	m.Sample = append([]models.PricePoint(nil), points[start:]...)
	return m
}
