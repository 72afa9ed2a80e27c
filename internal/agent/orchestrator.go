package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/pkg/models"
)

// Orchestrator runs one or more analyst agents over a collected bundle.
type Orchestrator struct {
	registry *Registry
	logger   *zap.Logger
}

// OrchestratorConfig holds configuration for creating an Orchestrator.
type OrchestratorConfig struct {
	Provider   llm.LLMProvider
	WindowDays int // price window the bundles are collected with
	Logger     *zap.Logger
}

// NewOrchestrator creates an Orchestrator with the SEC, news and stock agents.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := NewRegistry()
	reg.Register(NewSECAgent(cfg.Provider, logger))
	reg.Register(NewNewsAgent(cfg.Provider, logger))
	reg.Register(NewStockAgent(cfg.Provider, cfg.WindowDays, logger))

	return &Orchestrator{registry: reg, logger: logger}
}

// Names returns the available agent names.
func (o *Orchestrator) Names() []string { return o.registry.Names() }

// Agent returns the agent registered under name.
func (o *Orchestrator) Agent(name string) (Agent, bool) {
	return o.registry.Get(strings.ToLower(strings.TrimSpace(name)))
}

// Run executes the named agents concurrently, or all of them when names is
// empty. Agent failures are recorded in each result's Error; only an
// unknown agent name fails the whole run.
func (o *Orchestrator) Run(ctx context.Context, ticker string, bundle *models.RawBundle, names ...string) (map[string]*AgentResult, error) {
	if len(names) == 0 {
		names = o.Names()
	}

	agents := make([]Agent, 0, len(names))
	for _, name := range names {
		a, ok := o.Agent(name)
		if !ok {
			return nil, fmt.Errorf("unknown agent %q (available: %s)", name, strings.Join(o.Names(), ", "))
		}
		agents = append(agents, a)
	}

	start := time.Now()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]*AgentResult, len(agents))
	)
	for _, a := range agents {
		wg.Add(1)
		go func(a Agent) {
			defer wg.Done()
			res, err := a.Process(ctx, ticker, bundle)
			if err != nil {
				o.logger.Warn("agent failed",
					zap.String("agent", a.Name()),
					zap.String("ticker", ticker),
					zap.Error(err),
				)
			}
			mu.Lock()
			results[a.Name()] = res
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	o.logger.Info("agents complete",
		zap.String("ticker", ticker),
		zap.Int("agents", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
