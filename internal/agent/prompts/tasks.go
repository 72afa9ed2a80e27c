package prompts

import (
	"fmt"
	"strings"
)

// SECTask builds the user message for the SEC agent.
func SECTask(factsJSON, company string) string {
	var b strings.Builder
	b.WriteString("You are reviewing structured SEC 10-K/annual data for a company. Using ONLY the fields provided,\n")
	b.WriteString("evaluate financial health from a CFA perspective.\n\n")
	b.WriteString("Required focal points:\n")
	b.WriteString("• Profitability: gross_margin, operating_margin\n")
	b.WriteString("• Liquidity: current_ratio\n")
	b.WriteString("• Solvency: debt_to_equity (and cash context if provided)\n")
	b.WriteString("• Call out risks and strengths explicitly\n")
	b.WriteString("• Provide two summaries: (a) analyst_summary (pro audience), (b) plain_summary (general audience)\n")
	b.WriteString("• Give a one-word verdict: strong | stable | watch | fragile\n\n")
	fmt.Fprintf(&b, "Return VALID JSON ONLY using this schema:\n%s\n\n", SECSchema)
	fmt.Fprintf(&b, "Here is the structured data:\n%s\n", factsJSON)
	if company != "" {
		fmt.Fprintf(&b, "Target company: %s", company)
	}
	return b.String()
}

// NewsTask builds the user message for the news agent.
func NewsTask(articlesJSON, company string) string {
	var b strings.Builder
	b.WriteString("You are given a list of news articles an upstream API tagged for a target company.\n")
	b.WriteString("Tasks:\n")
	b.WriteString("1) Identify which articles are actually about the target company (from the text).\n")
	b.WriteString("2) Group them into themes (e.g., leadership, litigation, product, AI, macro, supply chain, guidance, etc.).\n")
	b.WriteString("3) Assess overall sentiment (positive/negative/mixed/neutral) with brief rationale implied by content.\n")
	b.WriteString("4) Highlight key risks and opportunities.\n")
	b.WriteString("5) Provide two summaries: (a) pro_summary for analysts, (b) plain_summary for regular readers.\n\n")
	fmt.Fprintf(&b, "Return JSON ONLY using this schema:\n%s\n\n", NewsSchema)
	fmt.Fprintf(&b, "Articles:\n%s\n", articlesJSON)
	if company != "" {
		fmt.Fprintf(&b, "Target company hint (optional): %s", company)
	}
	return b.String()
}

// StockTask builds the user message for the stock agent.
func StockTask(dataJSON, signalsJSON string) string {
	var b strings.Builder
	b.WriteString("Given structured stock data and derived signals, produce:\n")
	b.WriteString("1) analysis_technical: 6-8 sentences for technical readers covering trend via pct_change, ")
	b.WriteString("20D/50D SMA posture, any bullish/bearish crossover, and annualized volatility implications.\n")
	b.WriteString("2) summary_plain: 3-5 short sentences for general audience (no jargon) explaining recent direction, ")
	b.WriteString("position vs averages, and whether price swings are calm/moderate/large; end neutral.\n")
	b.WriteString("3) flags: positives[] and red_flags[] bullet points.\n\n")
	fmt.Fprintf(&b, "Return JSON ONLY using this schema:\n%s\n\n", StockSchema)
	fmt.Fprintf(&b, "DATA:\n%s\n\n", dataJSON)
	fmt.Fprintf(&b, "SIGNALS:\n%s\n", signalsJSON)
	return b.String()
}
