package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// NewsItem is a company news article in the Finnhub company-news layout.
// Datetime is kept as the raw JSON value the source sent, since upstream
// feeds occasionally send strings or nulls where a Unix timestamp belongs.
type NewsItem struct {
	Category    string          `json:"category"`
	Datetime    json.RawMessage `json:"datetime,omitempty"`
	Headline    string          `json:"headline"`
	ID          int64           `json:"id"`
	Image       string          `json:"image"`
	Related     string          `json:"related"`
	Source      string          `json:"source"`
	Summary     string          `json:"summary"`
	URL         string          `json:"url"`
	DatetimeISO string          `json:"datetime_iso,omitempty"` // UTC, RFC 3339
}

// Timestamp returns the item's Unix timestamp in seconds, if Datetime holds
// a usable number.
func (n NewsItem) Timestamp() (int64, bool) {
	raw := bytes.TrimSpace(n.Datetime)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if math.Abs(f) > 1e15 {
		return 0, false
	}
	ts := int64(f)
	if y := time.Unix(ts, 0).UTC().Year(); y < 1 || y > 9999 {
		return 0, false
	}
	return ts, true
}

// UnixDatetime encodes a Unix timestamp as a raw Datetime value.
func UnixDatetime(ts int64) json.RawMessage {
	b, _ := json.Marshal(ts)
	return b
}

// NewsDigest is a recency-ordered sample of a ticker's news. Count is the
// number of items the source returned before truncation.
type NewsDigest struct {
	Count  int        `json:"count"`
	Sample []NewsItem `json:"sample"`
	Error  string     `json:"error,omitempty"`
}

type newsDigestJSON NewsDigest

// NewsError builds the error shape.
func NewsError(msg string) NewsDigest {
	return NewsDigest{Error: msg}
}

// Failed reports whether the digest carries the error shape.
func (d NewsDigest) Failed() bool { return d.Error != "" }

// MarshalJSON emits {"error": ...} for the error shape.
func (d NewsDigest) MarshalJSON() ([]byte, error) {
	if d.Failed() {
		return json.Marshal(errorShape{Error: d.Error})
	}
	return json.Marshal(newsDigestJSON(d))
}
