// Package agent implements the LLM analyst agents that read a collected
// RawBundle: an SEC financial health analyst, a news analyst and a price
// trend analyst, plus an orchestrator that runs them side by side.
package agent

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// ErrInsufficientData is returned when a bundle lacks the inputs an agent
// needs; no model call is made in that case.
var ErrInsufficientData = errors.New("insufficient data")

// ── Agent Interface ──

// Agent defines the interface that all analyst agents implement.
type Agent interface {
	// Name returns the agent's unique identifier (e.g., "sec").
	Name() string

	// Role returns a human-readable description of the agent's role.
	Role() string

	// Process analyzes the slice of the bundle the agent is responsible for.
	Process(ctx context.Context, ticker string, bundle *models.RawBundle) (*AgentResult, error)
}

// ── AgentResult ──

// AgentResult holds the output from an agent's processing.
type AgentResult struct {
	AgentName string        `json:"agent_name"`
	Ticker    string        `json:"ticker"`
	Output    any           `json:"output,omitempty"` // *SECAnalysis, *NewsAnalysis or *StockAnalysis
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// ── BaseAgent ──

// BaseAgent carries what every analyst agent shares: its identity, system
// prompt and model access.
type BaseAgent struct {
	name         string
	role         string
	systemPrompt string
	provider     llm.LLMProvider
	opts         *llm.ChatOptions
	logger       *zap.Logger
}

// BaseAgentConfig configures a BaseAgent.
type BaseAgentConfig struct {
	Name         string
	Role         string
	SystemPrompt string
	Provider     llm.LLMProvider
	ChatOptions  *llm.ChatOptions
	Logger       *zap.Logger
}

// NewBaseAgent creates a new BaseAgent from the given configuration.
func NewBaseAgent(cfg BaseAgentConfig) *BaseAgent {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseAgent{
		name:         cfg.Name,
		role:         cfg.Role,
		systemPrompt: cfg.SystemPrompt,
		provider:     cfg.Provider,
		opts:         cfg.ChatOptions,
		logger:       logger.With(zap.String("agent", cfg.Name)),
	}
}

// Name returns the agent's identifier.
func (a *BaseAgent) Name() string { return a.name }

// Role returns the agent's role description.
func (a *BaseAgent) Role() string { return a.role }

// SystemPrompt returns the agent's system prompt.
func (a *BaseAgent) SystemPrompt() string { return a.systemPrompt }

// complete sends the task under the agent's system prompt and returns the
// raw reply text.
func (a *BaseAgent) complete(ctx context.Context, task string) (string, error) {
	start := time.Now()
	text, err := llm.Complete(ctx, a.provider, a.systemPrompt, task, a.opts)
	if err != nil {
		a.logger.Warn("model call failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}
	a.logger.Debug("model call done",
		zap.String("provider", a.provider.Name()),
		zap.Int("reply_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

// result wraps an agent output in an AgentResult.
func (a *BaseAgent) result(ticker string, start time.Time, out any, err error) (*AgentResult, error) {
	r := &AgentResult{
		AgentName: a.name,
		Ticker:    ticker,
		Duration:  time.Since(start),
	}
	if err != nil {
		r.Error = err.Error()
		return r, err
	}
	r.Output = out
	return r, nil
}

// companyHint names the company for prompts, falling back to the ticker.
func companyHint(ticker string, bundle *models.RawBundle) string {
	if bundle != nil && bundle.Meta != nil && bundle.Meta.CompanyName != "" {
		return bundle.Meta.CompanyName
	}
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// parseReply recovers the model's JSON object and back-fills any key of
// defaults the reply lacks. Unparseable replies yield fallback.
func parseReply(text string, fallback, defaults map[string]any) map[string]any {
	obj, ok := llm.ParseObject(text)
	if !ok {
		obj = fallback
	}
	return llm.EnsureKeys(obj, defaults)
}

// ── Agent Registry ──

// Registry holds a collection of named agents for the orchestrator.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent to the registry.
func (r *Registry) Register(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.Name()] = agent
}

// Get retrieves an agent by name.
func (r *Registry) Get(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Names returns the names of all registered agents, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
