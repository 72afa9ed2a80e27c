package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/edgarlens/pkg/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 15, 9, 30, 5, 0, time.UTC) }

func sampleBundle() *models.RawBundle {
	return &models.RawBundle{
		Meta: &models.ResolvedTicker{Ticker: "AAPL", CIK: "0000320193", CompanyName: "Apple Inc."},
		SEC: models.FinancialFacts{
			Revenue:     models.Float(383285000000),
			GrossProfit: models.Float(169148000000),
			GrossMargin: models.Float(169148000000.0 / 383285000000.0),
		},
		Prices: models.PriceMetrics{
			LatestClose: 189.87,
			OldestClose: 170.12,
			PctChange:   models.Float(189.87/170.12 - 1),
			SMA20:       models.Float(185.5),
			Sample: []models.PricePoint{
				{Date: "2024-05-13", Close: 186.28},
				{Date: "2024-05-14", Close: 187.43},
			},
		},
		News: models.NewsDigest{
			Count: 1,
			Sample: []models.NewsItem{{
				Category:    "company",
				Datetime:    models.UnixDatetime(1715760000),
				Headline:    "Apple ships",
				Source:      "Reuters",
				Summary:     "Shipping update.",
				DatetimeISO: "2024-05-15T08:00:00Z",
			}},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bundle := sampleBundle()

	path, err := Save("aapl", bundle, Options{Dir: dir, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AAPL_raw.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bundle, loaded)
}

func TestSaveLoadErrorShapes(t *testing.T) {
	dir := t.TempDir()
	bundle := &models.RawBundle{
		Prices: models.PriceError("No price data returned"),
		News:   models.NewsError("missing API key: set FINNHUB_API_KEY"),
	}

	path, err := Save("ZZZZ", bundle, Options{Dir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"meta": null,
		"sec": {},
		"prices": {"error": "No price data returned"},
		"news": {"error": "missing API key: set FINNHUB_API_KEY"}
	}`, string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bundle, loaded)
}

func TestSaveIndentsTwoSpaces(t *testing.T) {
	path, err := Save("MSFT", &models.RawBundle{}, Options{Dir: t.TempDir()})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"meta\": null")
}

func TestSaveTimestampedName(t *testing.T) {
	dir := t.TempDir()
	path, err := Save("brk.b", sampleBundle(), Options{Dir: dir, Timestamp: true, Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BRK.B_raw_20240515-093005.json"), path)
}

func TestSaveFilenameOverride(t *testing.T) {
	dir := t.TempDir()
	path, err := Save("AAPL", sampleBundle(), Options{Dir: dir, Filename: "latest.json", Timestamp: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "latest.json"), path)
	assert.FileExists(t, path)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, err := Save("AAPL", sampleBundle(), Options{Dir: dir})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSaveNilBundle(t *testing.T) {
	_, err := Save("AAPL", nil, Options{Dir: t.TempDir()})
	require.Error(t, err)
}

func TestFileNameSanitizes(t *testing.T) {
	now := fixedNow()
	assert.Equal(t, "A-B_raw.json", FileName(" a/b ", false, now))
	assert.Equal(t, "UNKNOWN_raw.json", FileName("..", false, now))
	assert.Equal(t, "UNKNOWN_raw_20240515-093005.json", FileName("", true, now))
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "nope.json"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
