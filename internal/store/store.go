// Package store persists raw bundles as indented JSON files.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// TimestampLayout is appended to generated file names.
const TimestampLayout = "20060102-150405"

// Options controls where and under which name a bundle is written.
type Options struct {
	Dir       string // created if missing; "." when empty
	Filename  string // overrides the generated name when set
	Timestamp bool   // append _YYYYMMDD-HHMMSS to the generated name
	Now       func() time.Time
}

// FileName returns the generated name for a ticker's bundle.
func FileName(ticker string, timestamp bool, now time.Time) string {
	name := sanitize(ticker) + "_raw"
	if timestamp {
		name += "_" + now.Format(TimestampLayout)
	}
	return name + ".json"
}

func sanitize(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.NewReplacer("/", "-", "\\", "-").Replace(t)
	if t == "" || t == "." || t == ".." {
		return "UNKNOWN"
	}
	return t
}

// Save writes the bundle to disk and returns the path written.
func Save(ticker string, bundle *models.RawBundle, opts Options) (string, error) {
	if bundle == nil {
		return "", fmt.Errorf("save %s: nil bundle", ticker)
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	name := opts.Filename
	if name == "" {
		name = FileName(ticker, opts.Timestamp, now())
	}
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Load reads a bundle previously written by Save.
func Load(path string) (*models.RawBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var bundle models.RawBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &bundle, nil
}
