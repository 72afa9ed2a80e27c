package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// registryCacheKey is the single key the parsed registry is stored under.
const registryCacheKey = "company_tickers"

// tickerEntry is a row from company_tickers.json.
type tickerEntry struct {
	CIK    json.Number `json:"cik_str"` // a number upstream; quoted digits are accepted too
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

// Resolver maps exchange tickers to SEC CIKs using the public
// company_tickers.json registry. The registry is cached for ttl.
type Resolver struct {
	client *infra.Client
	url    string
	ttl    time.Duration
	cache  *infra.Cache[[]tickerEntry]
	logger *zap.Logger
}

// NewResolver creates a resolver reading the registry at tickersURL.
// A ttl of zero disables caching.
func NewResolver(client *infra.Client, tickersURL string, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client: client,
		url:    tickersURL,
		ttl:    ttl,
		cache:  infra.NewCache[[]tickerEntry](ttl),
		logger: logger,
	}
}

// Resolve returns the SEC identity for ticker. Matching ignores case and the
// share-class separator (BRK.B matches the registry's BRK-B), and the first
// registry entry in index order wins. It returns an error
// wrapping ErrTickerNotFound when no entry matches, or a *FetchError when
// the registry could not be retrieved.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (*models.ResolvedTicker, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrTickerNotFound)
	}

	entries, err := r.registry(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if utils.SameTicker(e.Ticker, symbol) {
			return &models.ResolvedTicker{
				Ticker:      symbol,
				CIK:         padCIK(e.CIK.String()),
				CompanyName: e.Title,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
}

// registry returns the registry entries in ascending index order.
func (r *Resolver) registry(ctx context.Context) ([]tickerEntry, error) {
	if r.ttl > 0 {
		if cached, ok := r.cache.Get(registryCacheKey); ok {
			return cached, nil
		}
	}

	var raw map[string]tickerEntry
	if err := r.client.GetJSON(ctx, r.url, &raw); err != nil {
		return nil, newFetchError("sec", r.url, err)
	}

	entries := sortRegistry(raw)
	r.logger.Debug("loaded ticker registry", zap.Int("entries", len(entries)))

	if r.ttl > 0 {
		r.cache.Set(registryCacheKey, entries)
	}
	return entries, nil
}

// sortRegistry flattens the index-keyed registry. Numeric keys sort
// numerically; anything else sorts after them, lexically.
func sortRegistry(raw map[string]tickerEntry) []tickerEntry {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	entries := make([]tickerEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, raw[k])
	}
	return entries
}

// padCIK left-pads a CIK with zeros to the 10 digits EDGAR URLs expect.
func padCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
