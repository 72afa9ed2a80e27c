package report

// ReportTemplate is the HTML template for the research note.
// It is embedded as a Go constant, with no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 12px 0 6px; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .error { color: var(--red); }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
    line-height: 1.7;
  }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1><span class="ticker-badge">{{.Ticker}}</span> {{.CompanyName}}</h1>
    {{if .CIK}}<p class="muted">CIK {{.CIK}}</p>{{end}}
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<!-- ═══════ SEC ═══════ -->
<div class="section">
  <h2>SEC Fundamentals</h2>
  {{if .FactsEmpty}}<p class="muted">No facts available.</p>{{end}}
  {{if .Facts}}
  <table>
    <tbody>
    {{range .Facts}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>

<!-- ═══════ PRICES ═══════ -->
<div class="section">
  <h2>Price Trend</h2>
  {{if .PriceError}}<p class="error">{{.PriceError}}</p>{{end}}
  {{if .Prices}}
  <table>
    <tbody>
    {{range .Prices}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
  {{if .PriceChart}}<div class="chart-container">{{.PriceChart}}</div>{{end}}
</div>

<!-- ═══════ NEWS ═══════ -->
<div class="section">
  <h2>News</h2>
  {{if .NewsError}}<p class="error">{{.NewsError}}</p>
  {{else if .Headlines}}
  <p class="muted">{{.NewsCount}} articles, showing {{len .Headlines}}</p>
  <table>
    <thead><tr><th>Date</th><th>Headline</th><th>Source</th></tr></thead>
    <tbody>
    {{range .Headlines}}
    <tr>
      <td>{{.Date}}</td>
      <td>{{if .URL}}<a href="{{.URL}}">{{.Headline}}</a>{{else}}{{.Headline}}{{end}}</td>
      <td>{{.Source}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{else}}<p class="muted">No recent articles.</p>{{end}}
</div>

<!-- ═══════ AGENTS ═══════ -->
{{range .Agents}}
<div class="section">
  <h2>{{.Name}} agent <span class="muted">{{.Duration}}</span></h2>
  {{if .Error}}<p class="error">{{.Error}}</p>{{else}}
  {{if .Verdict}}<p><strong>Verdict:</strong> {{.Verdict}}</p>{{end}}
  {{if .Summary}}<div class="section-summary">{{.Summary}}</div>{{end}}
  {{range .Bullets}}
  <h3>{{.Title}}</h3>
  <ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{end}}
</div>
{{end}}

<div class="footer">
  <p><strong>Disclaimer:</strong> This note is generated from public SEC, market and news data plus model output.
  It is not investment advice.</p>
  <p>Generated on {{.GeneratedAt}}</p>
</div>

</body>
</html>`
