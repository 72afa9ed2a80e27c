// Package prompts contains the system prompts, JSON contracts and task
// templates for the edgarlens analyst agents.
package prompts

// ── Agent Names (canonical identifiers) ──

const (
	AgentSEC   = "sec"
	AgentNews  = "news"
	AgentStock = "stock"
)

// ── Sampling temperatures ──

const (
	SECTemperature   = 0.25
	NewsTemperature  = 0.2
	StockTemperature = 0.25
)

// ── System Prompts ──

// SECSystemPrompt is the system prompt for the SEC financial health analyst.
const SECSystemPrompt = "You are a CFA financial analyst. Be precise, conservative, and evidence-based. " +
	"ONLY use the provided numeric fields. If something is not present, do not invent it."

// NewsSystemPrompt is the system prompt for the news analyst.
const NewsSystemPrompt = "You are a senior financial news analyst. " +
	"Analyze only the provided articles. " +
	"Be precise, evidence-based, and concise. " +
	"ALWAYS return valid JSON ONLY that matches the provided schema. " +
	"If information is missing, use empty lists/strings."

// StockSystemPrompt is the system prompt for the price trend analyst.
const StockSystemPrompt = "You are a disciplined, evidence-based quantitative equity analyst who communicates clearly " +
	"to both experts and non-experts. Use ONLY the provided fields; do not invent numbers. " +
	"Return VALID JSON ONLY that matches the given schema."

// ── JSON contracts ──

// SECSchema is the reply contract for the SEC agent.
const SECSchema = `{
  "analyst_summary": "2 short paragraphs for a CFA audience.",
  "plain_summary": "2-4 sentences for non-technical readers.",
  "profitability": [
    "Short bullet(s) on gross/operating margin quality and trends if implied."
  ],
  "liquidity": [
    "Short bullet(s) on current ratio and near-term cash coverage."
  ],
  "solvency": [
    "Short bullet(s) on leverage (debt/equity) and balance-sheet risk."
  ],
  "red_flags": [
    "Specific risks (e.g., high leverage, weak liquidity, margin compression)."
  ],
  "green_flags": [
    "Specific strengths (e.g., robust margins, strong cash, improving leverage)."
  ],
  "verdict": "One of: strong | stable | watch | fragile"
}`

// NewsSchema is the reply contract for the news agent.
const NewsSchema = `{
  "relevant_articles": [
    {
      "headline": "string",
      "source": "string",
      "date": "YYYY-MM-DD (or raw ISO)",
      "why_relevant": "string"
    }
  ],
  "themes": [
    {
      "name": "string",
      "article_count": "int",
      "snippets": ["string"]
    }
  ],
  "sentiment": "one of: positive | negative | mixed | neutral",
  "risks": ["string"],
  "opportunities": ["string"],
  "pro_summary": "1-3 sentences, for analysts",
  "plain_summary": "1-3 sentences, for regular readers"
}`

// StockSchema is the reply contract for the stock agent.
const StockSchema = `{
  "analysis_technical": "6-8 sentences for finance readers; discuss pct_change, SMAs (20D/50D), crossover, volatility label, and flags.",
  "summary_plain": "3-5 short sentences for non-experts, no jargon.",
  "flags": {
    "positives": ["bullet list of positives"],
    "red_flags": ["bullet list of risks"]
  }
}`
