package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/agent/prompts"
	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// SECAnalysis is the SEC agent's output.
type SECAnalysis struct {
	Metrics      models.FinancialFacts `json:"metrics"`
	AnalysisJSON map[string]any        `json:"analysis_json"`
	RawModelText string                `json:"raw_model_text"`
}

// MissingFieldsError reports which required facts were absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required SEC fields: [%s]", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrInsufficientData }

func secDefaults() map[string]any {
	return map[string]any{
		"analyst_summary": "",
		"plain_summary":   "",
		"profitability":   []any{},
		"liquidity":       []any{},
		"solvency":        []any{},
		"red_flags":       []any{},
		"green_flags":     []any{},
		"verdict":         "",
	}
}

// SECAgent assesses financial health from the extracted SEC facts.
type SECAgent struct {
	*BaseAgent
}

// NewSECAgent creates the SEC financial health analyst.
func NewSECAgent(provider llm.LLMProvider, logger *zap.Logger) *SECAgent {
	return &SECAgent{BaseAgent: NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentSEC,
		Role:         "Financial health analyst for SEC annual facts",
		SystemPrompt: prompts.SECSystemPrompt,
		Provider:     provider,
		ChatOptions:  llm.WithTemperature(prompts.SECTemperature),
		Logger:       logger,
	})}
}

// Process analyzes bundle.SEC.
func (a *SECAgent) Process(ctx context.Context, ticker string, bundle *models.RawBundle) (*AgentResult, error) {
	start := time.Now()
	if bundle == nil {
		return a.result(ticker, start, nil, fmt.Errorf("%w: no bundle", ErrInsufficientData))
	}
	out, err := a.AnalyzeFacts(ctx, bundle.SEC, companyHint(ticker, bundle))
	return a.result(ticker, start, out, err)
}

// AnalyzeFacts asks the model for a CFA-style review of facts. Every one of
// the thirteen facts must be present.
func (a *SECAgent) AnalyzeFacts(ctx context.Context, facts models.FinancialFacts, company string) (*SECAnalysis, error) {
	if missing := facts.Missing(); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode facts: %w", err)
	}

	raw, err := a.complete(ctx, prompts.SECTask(string(factsJSON), company))
	if err != nil {
		return nil, err
	}

	return &SECAnalysis{
		Metrics:      facts,
		AnalysisJSON: parseReply(raw, secDefaults(), secDefaults()),
		RawModelText: raw,
	}, nil
}
