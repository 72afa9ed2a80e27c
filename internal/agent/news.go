package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/agent/prompts"
	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// Article is the projection of a news item sent to the model.
type Article struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Date     string `json:"date"`
}

// NewsAnalysis is the news agent's output.
type NewsAnalysis struct {
	RawArticles  []Article      `json:"raw_articles"`
	AnalysisJSON map[string]any `json:"analysis_json"`
	RawModelText string         `json:"raw_model_text"`
}

func newsDefaults() map[string]any {
	return map[string]any{
		"relevant_articles": []any{},
		"themes":            []any{},
		"sentiment":         "",
		"risks":             []any{},
		"opportunities":     []any{},
		"pro_summary":       "",
		"plain_summary":     "",
	}
}

// emptyNewsPayload is returned when no article carries a summary.
func emptyNewsPayload() map[string]any {
	p := newsDefaults()
	p["sentiment"] = "neutral"
	return p
}

// NewsAgent reads the sampled headlines for themes, sentiment, risks and
// opportunities.
type NewsAgent struct {
	*BaseAgent
}

// NewNewsAgent creates the news analyst.
func NewNewsAgent(provider llm.LLMProvider, logger *zap.Logger) *NewsAgent {
	return &NewsAgent{BaseAgent: NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentNews,
		Role:         "News analyst for recent company headlines",
		SystemPrompt: prompts.NewsSystemPrompt,
		Provider:     provider,
		ChatOptions:  llm.WithTemperature(prompts.NewsTemperature),
		Logger:       logger,
	})}
}

// Process analyzes bundle.News. A digest in its error shape is treated as
// an empty sample.
func (a *NewsAgent) Process(ctx context.Context, ticker string, bundle *models.RawBundle) (*AgentResult, error) {
	start := time.Now()
	var items []models.NewsItem
	if bundle != nil && !bundle.News.Failed() {
		items = bundle.News.Sample
	}
	out, err := a.AnalyzeNews(ctx, items, companyHint(ticker, bundle))
	return a.result(ticker, start, out, err)
}

// AnalyzeNews sends the items that carry a summary to the model. With none
// left the neutral empty payload is returned without a model call.
func (a *NewsAgent) AnalyzeNews(ctx context.Context, items []models.NewsItem, company string) (*NewsAnalysis, error) {
	articles := projectArticles(items)
	if len(articles) == 0 {
		empty := emptyNewsPayload()
		raw, _ := json.Marshal(empty)
		return &NewsAnalysis{
			RawArticles:  []Article{},
			AnalysisJSON: empty,
			RawModelText: string(raw),
		}, nil
	}

	articlesJSON, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode articles: %w", err)
	}

	raw, err := a.complete(ctx, prompts.NewsTask(string(articlesJSON), company))
	if err != nil {
		return nil, err
	}

	return &NewsAnalysis{
		RawArticles:  articles,
		AnalysisJSON: parseReply(raw, emptyNewsPayload(), newsDefaults()),
		RawModelText: raw,
	}, nil
}

func projectArticles(items []models.NewsItem) []Article {
	out := make([]Article, 0, len(items))
	for _, n := range items {
		if n.Summary == "" {
			continue
		}
		out = append(out, Article{
			Headline: n.Headline,
			Summary:  n.Summary,
			Source:   n.Source,
			Date:     n.DatetimeISO,
		})
	}
	return out
}
