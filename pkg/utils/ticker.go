package utils

import "strings"

// NormalizeTicker normalizes user input to the canonical upper-case symbol.
// It strips whitespace and a leading "$" (common in chat).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimSpace(strings.TrimPrefix(ticker, "$"))
}

// ToYahooSymbol converts a share-class ticker to Yahoo Finance form, which
// separates the class with a dash (BRK.B → BRK-B).
func ToYahooSymbol(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}

// SameTicker reports whether two tickers name the same listing, ignoring
// case and treating "." and "-" as the same share-class separator. The SEC
// registry lists BRK-B where most users type BRK.B.
func SameTicker(a, b string) bool {
	return ToYahooSymbol(a) == ToYahooSymbol(b)
}
