package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/edgarlens/internal/agent"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatText ReportFormat = "text"
)

// TimestampLayout is used for the "Generated" header line.
const TimestampLayout = "02 Jan 2006, 15:04 UTC"

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format   ReportFormat     // output format (default: text)
	Title    string           // custom report title (optional)
	Author   string           // author name (optional, default: "edgarlens")
	ChartCfg ChartConfig      // chart rendering config
	Now      func() time.Time // clock override for tests
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format:   FormatText,
		Author:   "edgarlens",
		ChartCfg: DefaultChartConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Data — Flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model shared by the text and HTML renderers.
type ReportData struct {
	Title       string
	Ticker      string
	CompanyName string
	CIK         string
	Author      string
	GeneratedAt string

	// SEC facts
	Facts      []RatioRow
	FactsEmpty bool

	// Prices
	PriceError string
	Prices     []RatioRow
	PriceChart template.HTML

	// News
	NewsError string
	NewsCount int
	Headlines []HeadlineRow

	// Agents, in name order
	Agents []AgentRow
}

// RatioRow represents a key-value row.
type RatioRow struct {
	Label string
	Value string
}

// HeadlineRow is one sampled news item.
type HeadlineRow struct {
	Date     string
	Source   string
	Headline string
	URL      string
}

// AgentRow is the flattened outcome of one agent run.
type AgentRow struct {
	Name     string
	Duration string
	Verdict  string // verdict, sentiment or trend label
	Summary  string
	Bullets  []BulletGroup
	Error    string
}

// BulletGroup is a titled list of short findings.
type BulletGroup struct {
	Title string
	Items []string
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// Generate renders bundle, and any agent results, in cfg.Format.
func Generate(bundle *models.RawBundle, results map[string]*agent.AgentResult, cfg ReportConfig) (string, error) {
	switch cfg.Format {
	case FormatHTML:
		return GenerateHTML(bundle, results, cfg)
	case FormatText, "":
		return GenerateText(bundle, results, cfg)
	default:
		return "", fmt.Errorf("unsupported report format %q", cfg.Format)
	}
}

// GenerateHTML generates an HTML research note.
func GenerateHTML(bundle *models.RawBundle, results map[string]*agent.AgentResult, cfg ReportConfig) (string, error) {
	if bundle == nil {
		return "", fmt.Errorf("bundle is nil")
	}

	data := buildReportData(bundle, results, cfg)
	chartCfg := cfg.ChartCfg
	chartCfg.Title = fmt.Sprintf("%s recent closes", data.Ticker)
	data.PriceChart = template.HTML(PriceChart(bundle.Prices, chartCfg))

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// GenerateText generates a plain-text research note (terminal / CLI friendly).
func GenerateText(bundle *models.RawBundle, results map[string]*agent.AgentResult, cfg ReportConfig) (string, error) {
	if bundle == nil {
		return "", fmt.Errorf("bundle is nil")
	}
	return renderTextReport(buildReportData(bundle, results, cfg)), nil
}

// ════════════════════════════════════════════════════════════════════
// Internal — Build template data
// ════════════════════════════════════════════════════════════════════

func buildReportData(b *models.RawBundle, results map[string]*agent.AgentResult, cfg ReportConfig) ReportData {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	data := ReportData{
		Title:       cfg.Title,
		Author:      cfg.Author,
		GeneratedAt: now().UTC().Format(TimestampLayout),
		Ticker:      "UNKNOWN",
		CompanyName: "Unresolved ticker",
	}
	if data.Author == "" {
		data.Author = "edgarlens"
	}
	if b.Meta != nil {
		data.Ticker = b.Meta.Ticker
		data.CompanyName = b.Meta.CompanyName
		data.CIK = b.Meta.CIK
	} else {
		for _, r := range results {
			if r != nil && r.Ticker != "" {
				data.Ticker = utils.NormalizeTicker(r.Ticker)
				break
			}
		}
	}
	if data.Title == "" {
		data.Title = fmt.Sprintf("%s Research Note", data.Ticker)
	}

	data.FactsEmpty = b.SEC.IsEmpty()
	if !data.FactsEmpty {
		data.Facts = buildFactRows(b.SEC)
	}

	if b.Prices.Failed() {
		data.PriceError = b.Prices.Error
	} else {
		data.Prices = buildPriceRows(b.Prices)
	}

	if b.News.Failed() {
		data.NewsError = b.News.Error
	} else {
		data.NewsCount = b.News.Count
		data.Headlines = buildHeadlines(b.News.Sample)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if r := results[name]; r != nil {
			data.Agents = append(data.Agents, flattenAgent(r))
		}
	}

	return data
}

// factLabels maps fact JSON names to display labels.
var factLabels = map[string]string{
	"revenue":             "Revenue",
	"gross_profit":        "Gross Profit",
	"operating_income":    "Operating Income",
	"net_income":          "Net Income",
	"cash":                "Cash",
	"current_assets":      "Current Assets",
	"current_liabilities": "Current Liabilities",
	"equity":              "Equity",
	"total_debt":          "Total Debt",
	"gross_margin":        "Gross Margin",
	"operating_margin":    "Operating Margin",
	"current_ratio":       "Current Ratio",
	"debt_to_equity":      "Debt/Equity",
}

func buildFactRows(f models.FinancialFacts) []RatioRow {
	rows := make([]RatioRow, 0, 13)
	for _, nv := range f.Fields() {
		var format func(float64) string
		switch nv.Name {
		case "gross_margin", "operating_margin":
			format = utils.FormatPct
		case "current_ratio", "debt_to_equity":
			format = formatRatio
		default:
			format = utils.FormatUSDCompact
		}
		rows = append(rows, RatioRow{Label: factLabels[nv.Name], Value: utils.FormatOptional(nv.Value, format)})
	}
	return rows
}

func buildPriceRows(m models.PriceMetrics) []RatioRow {
	return []RatioRow{
		{Label: "Latest Close", Value: utils.FormatUSD(m.LatestClose)},
		{Label: "Oldest Close", Value: utils.FormatUSD(m.OldestClose)},
		{Label: "Change", Value: utils.FormatOptional(m.PctChange, utils.FormatPct)},
		{Label: "SMA 20", Value: utils.FormatOptional(m.SMA20, utils.FormatUSD)},
		{Label: "SMA 50", Value: utils.FormatOptional(m.SMA50, utils.FormatUSD)},
		{Label: "Annualized Vol", Value: utils.FormatOptional(m.AnnualizedVol, utils.FormatPct)},
	}
}

func buildHeadlines(items []models.NewsItem) []HeadlineRow {
	rows := make([]HeadlineRow, 0, len(items))
	for _, it := range items {
		date := "n/a"
		if ts, ok := it.Timestamp(); ok {
			date = time.Unix(ts, 0).UTC().Format("2006-01-02")
		}
		rows = append(rows, HeadlineRow{
			Date:     date,
			Source:   it.Source,
			Headline: strings.TrimSpace(it.Headline),
			URL:      it.URL,
		})
	}
	return rows
}

func flattenAgent(r *agent.AgentResult) AgentRow {
	row := AgentRow{
		Name:     r.AgentName,
		Duration: FormatDuration(r.Duration),
		Error:    r.Error,
	}
	switch out := r.Output.(type) {
	case *agent.SECAnalysis:
		if out == nil {
			break
		}
		a := out.AnalysisJSON
		row.Verdict = str(a["verdict"])
		row.Summary = str(a["plain_summary"])
		row.Bullets = groups(
			BulletGroup{"Profitability", strs(a["profitability"])},
			BulletGroup{"Liquidity", strs(a["liquidity"])},
			BulletGroup{"Solvency", strs(a["solvency"])},
			BulletGroup{"Green flags", strs(a["green_flags"])},
			BulletGroup{"Red flags", strs(a["red_flags"])},
		)
	case *agent.NewsAnalysis:
		if out == nil {
			break
		}
		a := out.AnalysisJSON
		row.Verdict = str(a["sentiment"])
		row.Summary = str(a["plain_summary"])
		row.Bullets = groups(
			BulletGroup{"Opportunities", strs(a["opportunities"])},
			BulletGroup{"Risks", strs(a["risks"])},
		)
	case *agent.StockAnalysis:
		if out == nil {
			break
		}
		row.Verdict = out.Metrics.DerivedSignals.TrendLabel
		row.Summary = out.SummaryPlain
		row.Bullets = groups(
			BulletGroup{"Positives", out.Flags.Positives},
			BulletGroup{"Red flags", out.Flags.RedFlags},
		)
	}
	return row
}

// groups drops empty bullet groups.
func groups(in ...BulletGroup) []BulletGroup {
	var out []BulletGroup
	for _, g := range in {
		if len(g.Items) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s | Author: %s\n", d.GeneratedAt, d.Author))
	sb.WriteString(line + "\n\n")

	if d.CIK != "" {
		sb.WriteString(fmt.Sprintf("  %s (%s) | CIK %s\n", d.CompanyName, d.Ticker, d.CIK))
	} else {
		sb.WriteString(fmt.Sprintf("  %s (%s)\n", d.CompanyName, d.Ticker))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ SEC FUNDAMENTALS (latest 10-K)\n")
	if d.FactsEmpty {
		sb.WriteString("    No facts available.\n")
	}
	for _, r := range d.Facts {
		sb.WriteString(fmt.Sprintf("    %-20s %s\n", r.Label, r.Value))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ PRICE TREND\n")
	if d.PriceError != "" {
		sb.WriteString(fmt.Sprintf("    Unavailable: %s\n", d.PriceError))
	}
	for _, r := range d.Prices {
		sb.WriteString(fmt.Sprintf("    %-20s %s\n", r.Label, r.Value))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ NEWS\n")
	switch {
	case d.NewsError != "":
		sb.WriteString(fmt.Sprintf("    Unavailable: %s\n", d.NewsError))
	case len(d.Headlines) == 0:
		sb.WriteString("    No recent articles.\n")
	default:
		sb.WriteString(fmt.Sprintf("    %d articles, showing %d\n", d.NewsCount, len(d.Headlines)))
		for _, h := range d.Headlines {
			sb.WriteString(fmt.Sprintf("    %s  %s (%s)\n", h.Date, h.Headline, h.Source))
		}
	}
	sb.WriteString(thinLine + "\n")

	for _, a := range d.Agents {
		sb.WriteString(fmt.Sprintf("\n  ■ %s AGENT (%s)\n", strings.ToUpper(a.Name), a.Duration))
		if a.Error != "" {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", a.Error))
			sb.WriteString(thinLine + "\n")
			continue
		}
		if a.Verdict != "" {
			sb.WriteString(fmt.Sprintf("  Verdict: %s\n", a.Verdict))
		}
		if a.Summary != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", a.Summary))
		}
		for _, g := range a.Bullets {
			sb.WriteString(fmt.Sprintf("    %s:\n", g.Title))
			for _, item := range g.Items {
				sb.WriteString(fmt.Sprintf("      • %s\n", item))
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Disclaimer: This note is generated from public data and model output.\n")
	sb.WriteString("  It is not investment advice.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Utility
// ════════════════════════════════════════════════════════════════════

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
