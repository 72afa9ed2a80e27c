// Package datasource fetches and normalizes per-ticker data from SEC EDGAR,
// Yahoo Finance and a company-news provider, and assembles it into a single
// raw bundle.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker is absent from the SEC registry.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrMissingAPIKey is returned by sources that need a key they were not given.
var ErrMissingAPIKey = errors.New("missing API key")

// FetchError describes a failed upstream call: transport failure, non-2xx
// status or an undecodable payload.
type FetchError struct {
	Source     string // "sec", "yahoo", "finnhub", "rss"
	URL        string // redacted request URL
	StatusCode int    // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch %s: status %d: %v", e.Source, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// newFetchError wraps err, lifting the status code out of *infra.ErrHTTP.
// Credentials in url are masked.
func newFetchError(source, url string, err error) *FetchError {
	fe := &FetchError{Source: source, URL: infra.RedactURL(url), Err: err}
	var httpErr *infra.ErrHTTP
	if errors.As(err, &httpErr) {
		fe.StatusCode = httpErr.StatusCode
	}
	return fe
}

// --- Component contracts consumed by the Aggregator ---

// TickerResolver maps a ticker to its SEC identity.
type TickerResolver interface {
	Resolve(ctx context.Context, ticker string) (*models.ResolvedTicker, error)
}

// FactsProvider extracts annual financial facts for a CIK.
type FactsProvider interface {
	Extract(ctx context.Context, cik string) models.FinancialFacts
}

// PriceProvider summarizes a trailing window of daily closes.
type PriceProvider interface {
	Analyze(ctx context.Context, symbol string, windowDays int) models.PriceMetrics
}

// NewsProvider samples recent company news.
type NewsProvider interface {
	Sample(ctx context.Context, symbol string, days int) models.NewsDigest
}
