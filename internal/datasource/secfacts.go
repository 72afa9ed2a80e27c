package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/infra"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// --- EDGAR Company Facts (XBRL) ---

// companyFacts is the response from the company facts endpoint. Concepts
// stay raw until looked up, so one malformed tag cannot fail the document.
type companyFacts struct {
	EntityName string                                `json:"entityName"`
	Facts      map[string]map[string]json.RawMessage `json:"facts"` // taxonomy -> concept -> raw fact
}

type factConcept struct {
	Label string                 `json:"label"`
	Units map[string][]factValue `json:"units"` // unit ("USD", "shares") -> values
}

type factValue struct {
	End  string  `json:"end"`
	Val  float64 `json:"val"`
	FY   *int    `json:"fy"`
	FP   string  `json:"fp"` // "Q1", "Q2", "Q3", "FY"
	Form string  `json:"form"`
}

func (v factValue) fiscalYear() int {
	if v.FY == nil {
		return 0
	}
	return *v.FY
}

const gaapTaxonomy = "us-gaap"

// unitChoice is one step of the unit preference order.
type unitChoice int

const (
	unitUSD unitChoice = iota
	unitUSDPerShare
	unitPure
	unitAny // first non-empty unit, by key
)

// unitPreference is tried in order; the first choice that yields values wins.
var unitPreference = []unitChoice{unitUSD, unitUSDPerShare, unitPure, unitAny}

func (u unitChoice) pick(units map[string][]factValue) []factValue {
	switch u {
	case unitUSD:
		return units["USD"]
	case unitUSDPerShare:
		return units["USD/shares"]
	case unitPure:
		return units["pure"]
	case unitAny:
		keys := make([]string, 0, len(units))
		for k := range units {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if len(units[k]) > 0 {
				return units[k]
			}
		}
	}
	return nil
}

// annualForms are the annual-report form types.
var annualForms = map[string]bool{"10-K": true, "20-F": true}

// latestAnnual picks the most recent annual observation: fiscal-period FY
// or an annual form, falling back to every value when none qualify. Ties on
// end date go to the later fiscal year, then to input order.
func latestAnnual(values []factValue) (factValue, bool) {
	if len(values) == 0 {
		return factValue{}, false
	}

	var annuals []factValue
	for _, v := range values {
		if v.FP == "FY" || annualForms[v.Form] {
			annuals = append(annuals, v)
		}
	}
	if len(annuals) == 0 {
		annuals = append([]factValue(nil), values...)
	}

	sort.SliceStable(annuals, func(i, j int) bool {
		ei, ej := parseSECDate(annuals[i].End), parseSECDate(annuals[j].End)
		if !ei.Equal(ej) {
			return ei.After(ej)
		}
		return annuals[i].fiscalYear() > annuals[j].fiscalYear()
	})
	return annuals[0], true
}

// gaapValue returns the latest annual value for a us-gaap tag, or nil when
// the tag, its units or its values are missing. A tag that fails to decode
// counts as missing.
func gaapValue(doc *companyFacts, tag string) *float64 {
	if doc == nil {
		return nil
	}
	raw, ok := doc.Facts[gaapTaxonomy][tag]
	if !ok {
		return nil
	}
	var concept factConcept
	if err := json.Unmarshal(raw, &concept); err != nil || len(concept.Units) == 0 {
		return nil
	}

	var values []factValue
	for _, choice := range unitPreference {
		if values = choice.pick(concept.Units); len(values) > 0 {
			break
		}
	}

	latest, ok := latestAnnual(values)
	if !ok {
		return nil
	}
	return models.Float(latest.Val)
}

// firstOf returns the first tag that yields a value.
func firstOf(doc *companyFacts, tags ...string) *float64 {
	for _, tag := range tags {
		if v := gaapValue(doc, tag); v != nil {
			return v
		}
	}
	return nil
}

// Candidate tags per field, in priority order.
var (
	revenueTags            = []string{"RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet", "Revenues"}
	grossProfitTags        = []string{"GrossProfit"}
	operatingIncomeTags    = []string{"OperatingIncomeLoss", "OperatingIncome"}
	netIncomeTags          = []string{"NetIncomeLoss", "ProfitLoss"}
	currentAssetsTags      = []string{"AssetsCurrent"}
	currentLiabilitiesTags = []string{"LiabilitiesCurrent"}
	equityTags             = []string{"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest", "StockholdersEquity"}
	cashTags               = []string{"CashAndCashEquivalentsAtCarryingValue", "CashCashEquivalentsAndShortTermInvestments"}

	longTermDebtTags        = []string{"LongTermDebtNoncurrent", "LongTermDebt"}
	currentLongTermDebtTags = []string{"LongTermDebtCurrent"}
	shortTermBorrowingTags  = []string{"ShortTermBorrowings"}
	commercialPaperTags     = []string{"CommercialPaper"}
)

// extractFacts derives the 13 financial fields from a company facts
// document. It performs no I/O.
func extractFacts(doc *companyFacts) models.FinancialFacts {
	f := models.FinancialFacts{
		Revenue:            firstOf(doc, revenueTags...),
		GrossProfit:        firstOf(doc, grossProfitTags...),
		OperatingIncome:    firstOf(doc, operatingIncomeTags...),
		NetIncome:          firstOf(doc, netIncomeTags...),
		Cash:               firstOf(doc, cashTags...),
		CurrentAssets:      firstOf(doc, currentAssetsTags...),
		CurrentLiabilities: firstOf(doc, currentLiabilitiesTags...),
		Equity:             firstOf(doc, equityTags...),
	}

	f.TotalDebt = sumPresent(
		firstOf(doc, longTermDebtTags...),
		firstOf(doc, currentLongTermDebtTags...),
		firstOf(doc, shortTermBorrowingTags...),
		firstOf(doc, commercialPaperTags...),
	)

	f.GrossMargin = ratio(f.GrossProfit, f.Revenue)
	f.OperatingMargin = ratio(f.OperatingIncome, f.Revenue)
	f.CurrentRatio = ratio(f.CurrentAssets, f.CurrentLiabilities)
	f.DebtToEquity = ratio(f.TotalDebt, f.Equity)
	return f
}

// sumPresent adds the non-nil components. The result is nil when every
// component is nil, and also when they sum to exactly zero, so a reported
// zero total reads the same as no debt tags at all.
func sumPresent(components ...*float64) *float64 {
	var total float64
	for _, c := range components {
		if c != nil {
			total += *c
		}
	}
	if total == 0 {
		return nil
	}
	return models.Float(total)
}

// ratio returns num/den, or nil when either side is absent or den is zero.
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	return models.Float(*num / *den)
}

// parseSECDate parses the date layouts EDGAR emits. Unparseable input
// yields the zero time, which sorts oldest.
func parseSECDate(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02T15:04:05.000Z",
		"01/02/2006",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FactsExtractor fetches XBRL company facts from EDGAR and reduces them to
// models.FinancialFacts.
type FactsExtractor struct {
	client  *infra.Client
	dataURL string
	logger  *zap.Logger
}

// NewFactsExtractor creates an extractor against the data.sec.gov base URL.
func NewFactsExtractor(client *infra.Client, dataURL string, logger *zap.Logger) *FactsExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactsExtractor{
		client:  client,
		dataURL: strings.TrimRight(dataURL, "/"),
		logger:  logger,
	}
}

// Extract returns the latest annual facts for a 10-digit CIK. Any fetch or
// decode failure yields empty facts; an empty CIK makes no request.
func (e *FactsExtractor) Extract(ctx context.Context, cik string) models.FinancialFacts {
	if cik == "" {
		return models.FinancialFacts{}
	}

	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", e.dataURL, cik)
	var doc companyFacts
	if err := e.client.GetJSON(ctx, url, &doc); err != nil {
		e.logger.Warn("company facts unavailable",
			zap.String("cik", cik),
			zap.Error(newFetchError("sec", url, err)),
		)
		return models.FinancialFacts{}
	}

	facts := extractFacts(&doc)
	e.logger.Debug("extracted company facts",
		zap.String("cik", cik),
		zap.String("entity", doc.EntityName),
		zap.Strings("missing", facts.Missing()),
	)
	return facts
}
