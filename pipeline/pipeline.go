package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/generation"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/intent"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/repair"
	"github.com/kbukum/flowkit/saga"
	"github.com/kbukum/flowkit/store"
	"github.com/kbukum/flowkit/template"
	"github.com/kbukum/flowkit/validate"
)

var tracer = otel.Tracer("github.com/kbukum/flowkit/pipeline")

// Config tunes pipeline behavior. All values are policy, adjustable per
// deployment.
type Config struct {
	// MaxConcurrent bounds simultaneous pipeline runs.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// ShortCircuitConfidence is the template match confidence at or above
	// which generation is skipped and the template graph used directly.
	ShortCircuitConfidence float64 `yaml:"short_circuit_confidence" mapstructure:"short_circuit_confidence"`
	// TemplateTopK is how many ranked templates feed the generation prompt.
	TemplateTopK int `yaml:"template_top_k" mapstructure:"template_top_k"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.ShortCircuitConfidence <= 0 {
		c.ShortCircuitConfidence = 0.85
	}
	if c.TemplateTopK <= 0 {
		c.TemplateTopK = 3
	}
}

// Request is one natural-language automation request.
type Request struct {
	UserID         string
	Text           string
	IdempotencyKey string
}

// Status labels how a pipeline run ended.
type Status string

const (
	StatusDeployed Status = "deployed"
	// StatusCapabilityGap means the request needs integrations the catalog
	// does not have; nothing was generated.
	StatusCapabilityGap Status = "capability_gap"
	// StatusGracefulFailure means generation or validation failed after all
	// fix attempts; nothing reached the engine permanently.
	StatusGracefulFailure Status = "graceful_failure"
	// StatusRolledBack means deployment started and was compensated.
	StatusRolledBack Status = "rolled_back"
)

// Outcome is the terminal result of one pipeline run.
type Outcome struct {
	Status       Status               `json:"status"`
	Message      string               `json:"message"`
	WorkflowID   string               `json:"workflow_id,omitempty"`
	DeploymentID string               `json:"deployment_id,omitempty"`
	Graph        *graph.Graph         `json:"graph,omitempty"`
	Intent       intent.Intent        `json:"intent"`
	Validation   *validate.Result     `json:"validation,omitempty"`
	Diagnosis    string               `json:"diagnosis,omitempty"`
	Attempts     []generation.Attempt `json:"attempts,omitempty"`
	FeedbackID   string               `json:"feedback_id,omitempty"`
}

// Catalog is the capability surface the pipeline reads.
type Catalog interface {
	validate.Capabilities
	Snapshot(ctx context.Context) []catalog.Schema
}

// TemplateSource lists the verified templates available for matching.
type TemplateSource interface {
	Templates(ctx context.Context) ([]template.Template, error)
}

// Generator produces candidate graphs from an intent.
type Generator interface {
	Generate(ctx context.Context, in intent.Intent, grounding generation.Grounding) (*graph.Graph, []generation.Attempt, error)
}

// StructuralChecker validates a graph against the catalog.
type StructuralChecker interface {
	Check(ctx context.Context, g *graph.Graph) *validate.Result
}

// DryRunner submits a graph to the engine without keeping it.
type DryRunner interface {
	Run(ctx context.Context, g *graph.Graph) error
}

// Simulator executes a graph once with sample input.
type Simulator interface {
	Run(ctx context.Context, g *graph.Graph, input map[string]any) (*validate.Execution, error)
}

// Fixer applies bounded automatic repairs.
type Fixer interface {
	FixStructural(ctx context.Context, g *graph.Graph, res *validate.Result) (*graph.Graph, []string, bool)
	FixRejection(ctx context.Context, g *graph.Graph, message string) (*graph.Graph, repair.Diagnosis, bool)
	FixExecution(ctx context.Context, g *graph.Graph, exec *validate.Execution) (*graph.Graph, repair.Diagnosis, bool)
}

// Deployer runs the deployment saga.
type Deployer interface {
	Deploy(ctx context.Context, req saga.Request) (*store.Deployment, error)
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Catalog    Catalog
	Templates  TemplateSource // optional
	Matcher    *template.Matcher
	Generator  Generator
	Structural StructuralChecker
	DryRun     DryRunner
	Simulator  Simulator
	Fixer      Fixer
	RepairCfg  repair.Config
	Deployer   Deployer
	Store      store.Store
	Log        *logger.Logger
}

// Pipeline runs requests end to end.
type Pipeline struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
}

// New creates a pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	cfg.ApplyDefaults()
	deps.RepairCfg.ApplyDefaults()
	if deps.Matcher == nil {
		deps.Matcher = template.NewMatcher(template.DefaultWeights())
	}
	log := deps.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Pipeline{cfg: cfg, deps: deps, log: log.WithComponent("pipeline")}
}

// Run takes a request to a terminal outcome. Errors are returned only for
// infrastructure failures (dead context, unreachable engine mid-validation);
// every domain failure ends as an Outcome with a recorded feedback entry.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("request.user_id", req.UserID))

	in := intent.Extract(req.Text)
	p.log.Info("intent extracted", logger.Fields(
		logger.FieldUserID, req.UserID,
		"action", string(in.Action),
		"trigger", string(in.TriggerKind),
		"integrations", strings.Join(in.Integrations, ","),
		"complexity", in.Complexity))

	schemas := p.deps.Catalog.Snapshot(ctx)

	if out := p.capabilityPrecheck(ctx, req, in, schemas); out != nil {
		span.SetAttributes(attribute.String("pipeline.status", string(out.Status)))
		return out, nil
	}

	ranked := p.rankTemplates(ctx, in)

	candidate, attempts, out, err := p.produceCandidate(ctx, req, in, schemas, ranked)
	if err != nil {
		return nil, err
	}
	if out != nil {
		span.SetAttributes(attribute.String("pipeline.status", string(out.Status)))
		return out, nil
	}

	candidate, res, out, err := p.validateAndRepair(ctx, req, in, candidate, attempts)
	if err != nil {
		return nil, err
	}
	if out != nil {
		span.SetAttributes(attribute.String("pipeline.status", string(out.Status)))
		return out, nil
	}

	out, err = p.deploy(ctx, req, in, candidate, res, attempts)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("pipeline.status", string(out.Status)))
	return out, nil
}

// capabilityPrecheck rejects requests naming integrations the catalog has
// no node types for, before any provider is called.
func (p *Pipeline) capabilityPrecheck(ctx context.Context, req Request, in intent.Intent, schemas []catalog.Schema) *Outcome {
	known := make(map[string]bool)
	for _, s := range schemas {
		if s.Integration != "" {
			known[s.Integration] = true
		}
	}

	for _, integration := range in.Integrations {
		if known[integration] {
			continue
		}
		alternatives := p.deps.Catalog.Alternatives(ctx, integration, 3)
		msg := fmt.Sprintf("no capability for integration %q", integration)
		if len(alternatives) > 0 {
			msg += fmt.Sprintf("; closest available: %s", strings.Join(alternatives, ", "))
		}
		out := &Outcome{
			Status:    StatusCapabilityGap,
			Message:   msg,
			Intent:    in,
			Diagnosis: string(errors.ErrCodeCapabilityGap),
		}
		out.FeedbackID = p.record(ctx, req, in, nil, nil, store.OutcomeCapabilityGap, msg)
		return out
	}
	return nil
}

func (p *Pipeline) rankTemplates(ctx context.Context, in intent.Intent) []template.Ranked {
	if p.deps.Templates == nil {
		return nil
	}
	candidates, err := p.deps.Templates.Templates(ctx)
	if err != nil {
		p.log.Warn("template source unavailable", logger.Fields(logger.FieldError, err.Error()))
		return nil
	}
	ranked := p.deps.Matcher.Match(in, candidates)
	if len(ranked) > p.cfg.TemplateTopK {
		ranked = ranked[:p.cfg.TemplateTopK]
	}
	return ranked
}

// produceCandidate returns the graph to validate: a short-circuited
// template copy when the match is strong enough, otherwise provider output.
func (p *Pipeline) produceCandidate(ctx context.Context, req Request, in intent.Intent, schemas []catalog.Schema, ranked []template.Ranked) (*graph.Graph, []generation.Attempt, *Outcome, error) {
	if len(ranked) > 0 && ranked[0].Confidence >= p.cfg.ShortCircuitConfidence && ranked[0].Template.Graph != nil {
		p.log.Info("template short-circuit", logger.Fields(
			"template", ranked[0].Template.Name, "confidence", ranked[0].Confidence))
		g := ranked[0].Template.Graph.Clone()
		if g.Name == "" {
			g.Name = workflowName(in)
		}
		return g, nil, nil, nil
	}

	ctx, span := tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	g, attempts, err := p.deps.Generator.Generate(ctx, in, generation.Grounding{
		Schemas:   schemas,
		Templates: ranked,
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeAllProvidersFailed) {
			out := &Outcome{
				Status:    StatusGracefulFailure,
				Message:   "no generation provider produced a usable workflow",
				Intent:    in,
				Diagnosis: string(errors.ErrCodeAllProvidersFailed),
				Attempts:  attempts,
			}
			out.FeedbackID = p.record(ctx, req, in, nil, attempts, store.OutcomeGracefulFailure, out.Diagnosis)
			return nil, nil, out, nil
		}
		return nil, nil, nil, err
	}
	if g.Name == "" {
		g.Name = workflowName(in)
	}
	return g, attempts, nil, nil
}

// validateAndRepair runs the structural / dry-run / simulate ladder with a
// bounded fix budget. A non-nil Outcome is a terminal graceful failure.
func (p *Pipeline) validateAndRepair(ctx context.Context, req Request, in intent.Intent, candidate *graph.Graph, attempts []generation.Attempt) (*graph.Graph, *validate.Result, *Outcome, error) {
	ctx, span := tracer.Start(ctx, "pipeline.validate")
	defer span.End()

	fixesLeft := p.deps.RepairCfg.MaxAttempts
	var res *validate.Result

	for {
		res = p.deps.Structural.Check(ctx, candidate)
		if !res.Valid {
			if fixesLeft > 0 {
				if fixed, _, changed := p.deps.Fixer.FixStructural(ctx, candidate, res); changed {
					fixesLeft--
					candidate = fixed
					continue
				}
			}
			out := p.gracefulFailure(ctx, req, in, candidate, res, attempts,
				string(errors.ErrCodeStructuralValidation),
				fmt.Sprintf("workflow failed structural validation: %s", summarizeIssues(res)))
			return nil, nil, out, nil
		}

		if err := p.deps.DryRun.Run(ctx, candidate); err != nil {
			if !errors.IsCode(err, errors.ErrCodeEngineRejection) {
				return nil, nil, nil, err
			}
			if fixesLeft > 0 {
				if fixed, diag, changed := p.deps.Fixer.FixRejection(ctx, candidate, err.Error()); changed {
					p.log.Info("rejection fix applied", logger.Fields("kind", string(diag.Kind)))
					fixesLeft--
					candidate = fixed
					continue
				}
			}
			out := p.gracefulFailure(ctx, req, in, candidate, res, attempts,
				string(errors.ErrCodeEngineRejection),
				fmt.Sprintf("engine rejected the workflow: %v", err))
			return nil, nil, out, nil
		}

		exec, err := p.deps.Simulator.Run(ctx, candidate, sampleInput(in))
		if err != nil {
			return nil, nil, nil, err
		}
		if exec.Success {
			return candidate, res, nil, nil
		}

		if fixesLeft > 0 {
			if fixed, diag, changed := p.deps.Fixer.FixExecution(ctx, candidate, exec); changed {
				p.log.Info("execution fix applied", logger.Fields(
					logger.FieldNodeID, exec.FailedNodeID, "kind", string(diag.Kind)))
				fixesLeft--
				candidate = fixed
				continue
			}
		}

		diag := repair.Diagnose(exec.RawError)
		out := p.gracefulFailure(ctx, req, in, candidate, res, attempts,
			fmt.Sprintf("%s: %s", errors.ErrCodeExecutionError, diag.Kind),
			fmt.Sprintf("simulated execution failed at %s: %s", exec.FailedNodeID, diag.Hint))
		return nil, nil, out, nil
	}
}

func (p *Pipeline) deploy(ctx context.Context, req Request, in intent.Intent, candidate *graph.Graph, res *validate.Result, attempts []generation.Attempt) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "pipeline.deploy")
	defer span.End()

	dep, err := p.deps.Deployer.Deploy(ctx, saga.Request{
		Name:           candidate.Name,
		UserID:         req.UserID,
		IdempotencyKey: req.IdempotencyKey,
		Graph:          candidate,
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeSagaStepFailure) {
			out := &Outcome{
				Status:     StatusRolledBack,
				Message:    fmt.Sprintf("deployment failed and was rolled back: %v", err),
				Intent:     in,
				Graph:      candidate,
				Validation: res,
				Diagnosis:  string(errors.ErrCodeSagaStepFailure),
				Attempts:   attempts,
			}
			out.FeedbackID = p.record(ctx, req, in, candidate, attempts, store.OutcomeRolledBack, out.Diagnosis)
			return out, nil
		}
		return nil, err
	}

	out := &Outcome{
		Status:       StatusDeployed,
		Message:      fmt.Sprintf("workflow %q deployed", candidate.Name),
		WorkflowID:   dep.ExternalWorkflowID,
		DeploymentID: dep.ID,
		Graph:        candidate,
		Intent:       in,
		Validation:   res,
		Attempts:     attempts,
	}
	out.FeedbackID = p.record(ctx, req, in, candidate, attempts, store.OutcomeDeployed, "")
	return out, nil
}

func (p *Pipeline) gracefulFailure(ctx context.Context, req Request, in intent.Intent, g *graph.Graph, res *validate.Result, attempts []generation.Attempt, diagnosis, message string) *Outcome {
	out := &Outcome{
		Status:     StatusGracefulFailure,
		Message:    message,
		Intent:     in,
		Graph:      g,
		Validation: res,
		Diagnosis:  diagnosis,
		Attempts:   attempts,
	}
	out.FeedbackID = p.record(ctx, req, in, g, attempts, store.OutcomeGracefulFailure, diagnosis)
	return out
}

// record persists a feedback entry; failures are logged, never fatal.
func (p *Pipeline) record(ctx context.Context, req Request, in intent.Intent, g *graph.Graph, attempts []generation.Attempt, outcome store.Outcome, diagnosis string) string {
	f := &store.Feedback{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		RequestText: req.Text,
		Intent:      in,
		Outcome:     outcome,
		Diagnosis:   diagnosis,
		Attempts:    attempts,
	}
	if g != nil {
		f.GraphShape = g.Shape()
	}
	if err := p.deps.Store.SaveFeedback(ctx, f); err != nil {
		p.log.Error("failed to save feedback", logger.Fields(
			logger.FieldFeedbackID, f.ID, logger.FieldError, err.Error()))
		return ""
	}
	return f.ID
}

// workflowName derives a workflow name from the request text.
func workflowName(in intent.Intent) string {
	text := strings.TrimSpace(in.Text)
	if len(text) > 60 {
		text = text[:60]
	}
	if text == "" {
		return "generated workflow"
	}
	return text
}

// summarizeIssues renders the first few issues for an outcome message.
func summarizeIssues(res *validate.Result) string {
	limit := len(res.Issues)
	if limit > 3 {
		limit = 3
	}
	parts := make([]string, 0, limit)
	for _, issue := range res.Issues[:limit] {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// sampleInput is the synthetic payload used for simulated executions.
func sampleInput(in intent.Intent) map[string]any {
	return map[string]any{
		"simulated": true,
		"trigger":   string(in.TriggerKind),
	}
}
