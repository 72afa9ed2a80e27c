package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// browserUserAgent is sent to Yahoo, which rejects unknown clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options are the trailing windows Collect asks its components for.
type Options struct {
	PriceWindowDays int
	NewsDays        int
}

// Aggregator resolves a ticker and then fetches its filings, prices and news
// concurrently into a single RawBundle.
type Aggregator struct {
	resolver TickerResolver
	facts    FactsProvider
	prices   PriceProvider
	news     NewsProvider
	opts     Options
	logger   *zap.Logger
}

// NewAggregator wires the four components together.
func NewAggregator(resolver TickerResolver, facts FactsProvider, prices PriceProvider, news NewsProvider, opts Options, logger *zap.Logger) *Aggregator {
	if opts.PriceWindowDays <= 0 {
		opts.PriceWindowDays = DefaultWindowDays
	}
	if opts.NewsDays <= 0 {
		opts.NewsDays = DefaultNewsDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		resolver: resolver,
		facts:    facts,
		prices:   prices,
		news:     news,
		opts:     opts,
		logger:   logger,
	}
}

// NewAggregatorFromConfig builds every component, each with its own paced
// HTTP client, from the application config.
func NewAggregatorFromConfig(cfg *config.Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	secClient := infra.NewClient(
		infra.WithTimeout(cfg.HTTP.Timeout),
		infra.WithRateLimit(cfg.SEC.RateLimit),
		infra.WithHeader("User-Agent", cfg.SEC.UserAgent),
		infra.WithLogger(logger.Named("sec")),
	)
	yahooClient := infra.NewClient(
		infra.WithTimeout(cfg.HTTP.Timeout),
		infra.WithRateLimit(cfg.Yahoo.RateLimit),
		infra.WithHeader("User-Agent", browserUserAgent),
		infra.WithLogger(logger.Named("yahoo")),
	)

	var source NewsSource
	switch cfg.News.Provider {
	case "rss":
		source = NewYahooRSS(infra.NewClient(
			infra.WithTimeout(cfg.HTTP.Timeout),
			infra.WithRateLimit(cfg.Yahoo.RateLimit),
			infra.WithHeader("User-Agent", browserUserAgent),
			infra.WithHeader("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8"),
			infra.WithLogger(logger.Named("rss")),
		), cfg.Yahoo.RSSURL)
	default:
		source = NewFinnhub(infra.NewClient(
			infra.WithTimeout(cfg.HTTP.Timeout),
			infra.WithRateLimit(cfg.Finnhub.RateLimit),
			infra.WithLogger(logger.Named("finnhub")),
		), cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey, logger.Named("finnhub"))
	}

	return NewAggregator(
		NewResolver(secClient, cfg.SEC.TickersURL, cfg.SEC.RegistryTTL, logger.Named("resolver")),
		NewFactsExtractor(secClient, cfg.SEC.DataURL, logger.Named("facts")),
		NewPriceAnalyzer(yahooClient, cfg.Yahoo.ChartURL, logger.Named("prices")),
		NewNewsSampler(source, cfg.News.SampleSize, logger.Named("news")),
		Options{PriceWindowDays: cfg.Prices.WindowDays, NewsDays: cfg.News.Days},
		logger,
	)
}

// Collect assembles the raw bundle for ticker. It always returns a bundle:
// an unresolvable ticker leaves Meta nil and SEC empty, and component
// failures surface as error shapes inside the bundle.
func (a *Aggregator) Collect(ctx context.Context, ticker string) *models.RawBundle {
	symbol := utils.NormalizeTicker(ticker)
	log := a.logger.With(zap.String("run_id", uuid.NewString()), zap.String("ticker", symbol))
	start := time.Now()

	meta, err := a.resolver.Resolve(ctx, symbol)
	switch {
	case errors.Is(err, ErrTickerNotFound):
		log.Warn("ticker not in SEC registry")
	case err != nil:
		log.Warn("ticker resolution failed", zap.Error(err))
	}

	bundle := &models.RawBundle{Meta: meta}

	// Each goroutine owns one bundle field; none of them fails the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if meta != nil && meta.CIK != "" {
			bundle.SEC = a.facts.Extract(gctx, meta.CIK)
		}
		return nil
	})
	g.Go(func() error {
		bundle.Prices = a.prices.Analyze(gctx, symbol, a.opts.PriceWindowDays)
		return nil
	})
	g.Go(func() error {
		bundle.News = a.news.Sample(gctx, symbol, a.opts.NewsDays)
		return nil
	})
	_ = g.Wait()

	log.Info("collected raw bundle",
		zap.Bool("resolved", meta != nil),
		zap.Int("sec_missing", len(bundle.SEC.Missing())),
		zap.Bool("prices_ok", !bundle.Prices.Failed()),
		zap.Int("news_count", bundle.News.Count),
		zap.Duration("elapsed", time.Since(start)),
	)
	return bundle
}
