package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/intent"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/resilience"
)

// Config configures the generation orchestrator.
type Config struct {
	// Timeout bounds each provider call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Temperature is passed to every provider.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// BreakerFailureThreshold is the consecutive failures before a
	// provider's breaker opens.
	BreakerFailureThreshold int `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	// BreakerCoolDown is how long an open breaker skips a provider.
	BreakerCoolDown time.Duration `yaml:"breaker_cool_down" mapstructure:"breaker_cool_down"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.1
	}
	if c.BreakerFailureThreshold <= 0 {
		c.BreakerFailureThreshold = 3
	}
	if c.BreakerCoolDown <= 0 {
		c.BreakerCoolDown = time.Minute
	}
}

// Orchestrator walks generation providers in priority order, each behind
// its own circuit breaker, and enforces the structured-output contract.
type Orchestrator struct {
	cfg       Config
	providers []Provider
	breakers  map[string]*resilience.Breaker
	log       *logger.Logger
}

// NewOrchestrator creates an orchestrator. Provider order is priority order.
func NewOrchestrator(cfg Config, providers []Provider, log *logger.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("generation")

	breakers := make(map[string]*resilience.Breaker, len(providers))
	for _, p := range providers {
		name := p.Name()
		breakers[name] = resilience.NewBreaker(resilience.BreakerConfig{
			Name:             name,
			FailureThreshold: cfg.BreakerFailureThreshold,
			CoolDown:         cfg.BreakerCoolDown,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("provider breaker state change", logger.Fields(
					logger.FieldProvider, name, "from", from.String(), "to", to.String()))
			},
		})
	}

	return &Orchestrator{cfg: cfg, providers: providers, breakers: breakers, log: log}
}

// BreakerState exposes a provider's breaker state for health reporting.
func (o *Orchestrator) BreakerState(provider string) (resilience.State, bool) {
	br, ok := o.breakers[provider]
	if !ok {
		return resilience.StateClosed, false
	}
	return br.State(), true
}

// Generate produces a workflow graph for the intent. The first provider
// yielding a structurally parseable, grounding-conformant graph wins.
// Returns the accumulated attempt log alongside the result; on total
// failure the error carries code ALL_PROVIDERS_FAILED.
func (o *Orchestrator) Generate(ctx context.Context, in intent.Intent, grounding Grounding) (*graph.Graph, []Attempt, error) {
	prompt := BuildPrompt(in, grounding)
	promptDigest := digest(prompt)
	allowedTypes := grounding.NodeTypes()

	var attempts []Attempt

	for _, p := range o.providers {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		br := o.breakers[p.Name()]
		attempt := Attempt{
			ID:           uuid.NewString(),
			Provider:     p.Name(),
			PromptDigest: promptDigest,
			StartedAt:    time.Now(),
		}

		var result *graph.Graph
		err := br.Execute(func() error {
			g, callErr := o.callProvider(ctx, p, prompt, allowedTypes)
			if callErr != nil {
				return callErr
			}
			result = g
			return nil
		})
		attempt.Duration = time.Since(attempt.StartedAt)

		if err == nil {
			attempt.ParseOK = true
			attempts = append(attempts, attempt)
			o.log.Info("generation succeeded", logger.Fields(
				logger.FieldProvider, p.Name(), "nodes", len(result.Nodes)))
			return result, attempts, nil
		}

		if err == resilience.ErrBreakerOpen {
			attempt.Skipped = true
			attempt.Error = err.Error()
			attempts = append(attempts, attempt)
			o.log.Debug("provider skipped, breaker open", logger.Fields(logger.FieldProvider, p.Name()))
			continue
		}

		attempt.Error = err.Error()
		attempts = append(attempts, attempt)
		o.log.Warn("provider failed", logger.Fields(
			logger.FieldProvider, p.Name(), logger.FieldError, err.Error()))
	}

	return nil, attempts, errors.AllProvidersFailed(len(attempts))
}

// callProvider runs one bounded provider call and enforces the output
// contract: schema-valid graph referencing only grounded node types.
func (o *Orchestrator) callProvider(ctx context.Context, p Provider, prompt string, allowedTypes map[string]bool) (*graph.Graph, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := p.Generate(callCtx, Request{
		Prompt:      prompt,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Timeout("generation").WithCause(err)
		}
		return nil, errors.ProviderFailure(p.Name(), err.Error()).WithCause(err)
	}

	g, err := graph.Decode(resp.Raw)
	if err != nil {
		return nil, errors.ProviderFailure(p.Name(), "malformed output").WithCause(err)
	}

	for _, n := range g.Nodes {
		if !allowedTypes[n.Type] {
			return nil, errors.ProviderFailure(p.Name(),
				fmt.Sprintf("output references ungrounded node type %q", n.Type))
		}
	}

	return g, nil
}
