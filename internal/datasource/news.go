package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
)

const (
	// DefaultNewsDays is the trailing window, in days, searched for news.
	DefaultNewsDays = 30

	// DefaultNewsSampleSize caps the items kept in a NewsDigest.
	DefaultNewsSampleSize = 20
)

// NewsSource lists company news published in [from, to].
type NewsSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// CompanyNews returns the articles for symbol, in any order.
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// --- Finnhub ---

// Finnhub reads the /company-news endpoint.
type Finnhub struct {
	client  *infra.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewFinnhub creates a Finnhub news source.
func NewFinnhub(client *infra.Client, baseURL, apiKey string, logger *zap.Logger) *Finnhub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finnhub{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		logger:  logger,
	}
}

// Name returns the data source name.
func (f *Finnhub) Name() string { return "Finnhub" }

// CompanyNews fetches articles for symbol between the two dates, inclusive.
func (f *Finnhub) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("%w: set FINNHUB_API_KEY", ErrMissingAPIKey)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("token", f.apiKey)
	u := f.baseURL + "/company-news?" + q.Encode()

	var raw json.RawMessage
	if err := f.client.GetJSON(ctx, u, &raw); err != nil {
		return nil, newFetchError("finnhub", u, err)
	}
	items, skipped, err := decodeFinnhubNews(raw)
	if err != nil {
		return nil, newFetchError("finnhub", u, err)
	}
	if len(skipped) > 0 {
		f.logger.Warn("skipped malformed news items",
			zap.String("symbol", symbol),
			zap.Int("skipped", len(skipped)),
			zap.Error(errors.Join(skipped...)),
		)
	}
	return items, nil
}

// decodeFinnhubNews accepts the article array or Finnhub's {"error": ...}
// object. Array elements are decoded one at a time; an element that does not
// fit NewsItem is skipped and its error returned in skipped. A non-empty
// array where no element decodes is an error.
func decodeFinnhubNews(raw json.RawMessage) (items []models.NewsItem, skipped []error, err error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return nil, nil, errors.New("empty response")
	case trimmed[0] == '{':
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, nil, fmt.Errorf("parse error payload: %w", err)
		}
		if payload.Error == "" {
			return nil, nil, errors.New("unexpected object payload")
		}
		return nil, nil, errors.New(payload.Error)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, fmt.Errorf("parse news: %w", err)
	}

	items = make([]models.NewsItem, 0, len(elems))
	for i, elem := range elems {
		var item models.NewsItem
		if err := json.Unmarshal(elem, &item); err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	if len(elems) > 0 && len(items) == 0 {
		return nil, skipped, fmt.Errorf("parse news: %w", errors.Join(skipped...))
	}
	return items, skipped, nil
}

// --- Yahoo Finance RSS ---

// YahooRSS reads the per-symbol Yahoo Finance headline feed. It needs no key.
type YahooRSS struct {
	client  *infra.Client
	feedURL string
	parser  *gofeed.Parser
}

// NewYahooRSS creates an RSS news source.
func NewYahooRSS(client *infra.Client, feedURL string) *YahooRSS {
	return &YahooRSS{
		client:  client,
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (y *YahooRSS) Name() string { return "Yahoo Finance RSS" }

// CompanyNews returns feed items published within [from, to]. Items without
// a publication date are kept.
func (y *YahooRSS) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	q := url.Values{}
	q.Set("s", symbol)
	q.Set("region", "US")
	q.Set("lang", "en-US")
	u := y.feedURL + "?" + q.Encode()

	body, _, err := y.client.Get(ctx, u)
	if err != nil {
		return nil, newFetchError("rss", u, err)
	}
	defer body.Close()

	feed, err := y.parser.Parse(body)
	if err != nil {
		return nil, newFetchError("rss", u, fmt.Errorf("parse RSS: %w", err))
	}

	source := feed.Title
	if source == "" {
		source = "Yahoo Finance"
	}
	until := to.AddDate(0, 0, 1)

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		n := models.NewsItem{
			Category: "company",
			Headline: strings.TrimSpace(it.Title),
			Related:  symbol,
			Source:   source,
			Summary:  cleanHTML(it.Description),
			URL:      it.Link,
		}
		if it.Image != nil {
			n.Image = it.Image.URL
		}
		published := it.PublishedParsed
		if published == nil {
			published = it.UpdatedParsed
		}
		if published != nil {
			if published.Before(from) || !published.Before(until) {
				continue
			}
			n.Datetime = models.UnixDatetime(published.Unix())
		}
		items = append(items, n)
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// --- Sampler ---

// NewsSampler windows, orders and truncates a source's articles.
type NewsSampler struct {
	source NewsSource
	size   int
	logger *zap.Logger
	now    func() time.Time
}

// NewNewsSampler creates a sampler keeping at most size items.
func NewNewsSampler(source NewsSource, size int, logger *zap.Logger) *NewsSampler {
	if size <= 0 {
		size = DefaultNewsSampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsSampler{source: source, size: size, logger: logger, now: time.Now}
}

// Sample returns the most recent articles for symbol over the trailing days
// (UTC calendar dates). Source failures produce the error shape.
func (s *NewsSampler) Sample(ctx context.Context, symbol string, days int) models.NewsDigest {
	if days <= 0 {
		days = DefaultNewsDays
	}
	now := s.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -days)

	items, err := s.source.CompanyNews(ctx, symbol, from, to)
	if err != nil {
		s.logger.Warn("news unavailable",
			zap.String("source", s.source.Name()),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return models.NewsError(err.Error())
	}
	return sampleNews(items, s.size)
}

// sampleNews orders items newest first, keeps the first size and stamps
// each kept item with datetime_iso where its timestamp parses. Items whose
// timestamp is missing or unusable sort as epoch zero and are kept as is.
func sampleNews(items []models.NewsItem, size int) models.NewsDigest {
	sorted := append([]models.NewsItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newsSortKey(sorted[i]) > newsSortKey(sorted[j])
	})

	sample := make([]models.NewsItem, min(size, len(sorted)))
	copy(sample, sorted)
	for i := range sample {
		if ts, ok := sample[i].Timestamp(); ok {
			sample[i].DatetimeISO = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
	}
	return models.NewsDigest{Count: len(items), Sample: sample}
}

func newsSortKey(n models.NewsItem) int64 {
	ts, _ := n.Timestamp()
	return ts
}
