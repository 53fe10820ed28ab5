package saga

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/store"
)

// compensateTimeout bounds each compensation call; compensation runs on a
// detached context because the caller's may already be dead.
const compensateTimeout = 15 * time.Second

// Config configures per-step retry behavior.
type Config struct {
	// StepAttempts is the attempts per saga step, including the first.
	StepAttempts int `yaml:"step_attempts" mapstructure:"step_attempts"`
	// StepBackoff is the initial backoff between step retries.
	StepBackoff time.Duration `yaml:"step_backoff" mapstructure:"step_backoff"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.StepAttempts <= 0 {
		c.StepAttempts = 3
	}
	if c.StepBackoff <= 0 {
		c.StepBackoff = 100 * time.Millisecond
	}
}

// Engine is the engine-client surface the saga drives.
type Engine interface {
	CreateWorkflow(ctx context.Context, req engine.CreateRequest) (string, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ActivateWorkflow(ctx context.Context, id string) error
	DeactivateWorkflow(ctx context.Context, id string) error
}

// Request is one deployment request.
type Request struct {
	Name           string
	UserID         string
	IdempotencyKey string
	Graph          *graph.Graph
}

// step is one compensable unit of the deployment.
type step struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// Coordinator runs deployment sagas.
type Coordinator struct {
	cfg Config
	eng Engine
	st  store.Store
	log *logger.Logger
}

// NewCoordinator creates a saga coordinator.
func NewCoordinator(cfg Config, eng Engine, st store.Store, log *logger.Logger) *Coordinator {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Coordinator{cfg: cfg, eng: eng, st: st, log: log.WithComponent("saga")}
}

// Deploy runs the deployment saga for a validated graph. On success the
// returned record is active and carries the engine-side workflow id. A
// repeated idempotency key returns the earlier active deployment without
// touching the engine.
func (c *Coordinator) Deploy(ctx context.Context, req Request) (*store.Deployment, error) {
	if req.IdempotencyKey != "" {
		existing, err := c.st.DeploymentByKey(ctx, req.IdempotencyKey)
		if err == nil && existing.State == store.StateActive {
			c.log.Info("idempotency key already deployed", logger.Fields(
				logger.FieldIdempotencyKey, req.IdempotencyKey,
				logger.FieldWorkflowID, existing.ExternalWorkflowID))
			return existing, nil
		}
		if err != nil && !errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, err
		}
	}

	rec := &store.Deployment{
		ID:             uuid.NewString(),
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		Name:           req.Name,
		State:          store.StateDraft,
	}

	steps := []step{
		{
			name: "persist_draft",
			execute: func(ctx context.Context) error {
				return c.st.CreateDeployment(ctx, rec)
			},
			compensate: func(ctx context.Context) error {
				rec.State = store.StateRolledBack
				return c.st.UpdateDeployment(ctx, rec)
			},
		},
		{
			name: "create_workflow",
			execute: func(ctx context.Context) error {
				id, err := c.eng.CreateWorkflow(ctx, engine.CreateRequest{
					Name:        req.Name,
					Nodes:       req.Graph.Nodes,
					Connections: req.Graph.Connections,
					Active:      false,
					Settings:    engine.Settings{SaveExecutionHistory: true},
				})
				if err != nil {
					return err
				}
				rec.ExternalWorkflowID = id
				return nil
			},
			compensate: func(ctx context.Context) error {
				return c.eng.DeleteWorkflow(ctx, rec.ExternalWorkflowID)
			},
		},
		{
			name: "activate_workflow",
			execute: func(ctx context.Context) error {
				return c.eng.ActivateWorkflow(ctx, rec.ExternalWorkflowID)
			},
			compensate: func(ctx context.Context) error {
				return c.eng.DeactivateWorkflow(ctx, rec.ExternalWorkflowID)
			},
		},
		{
			name: "mark_active",
			execute: func(ctx context.Context) error {
				rec.State = store.StateActive
				return c.st.UpdateDeployment(ctx, rec)
			},
		},
	}

	for i, s := range steps {
		if err := c.runStep(ctx, s); err != nil {
			compensated := c.compensate(steps[:i])
			return nil, errors.SagaStepFailure(s.name, compensated, err)
		}
		rec.StepsCompleted = append(rec.StepsCompleted, s.name)
	}

	c.log.Info("deployment saga completed", logger.Fields(
		logger.FieldWorkflowID, rec.ExternalWorkflowID, "deployment_id", rec.ID))
	return rec, nil
}

// runStep executes one step with bounded retries. Non-retryable errors
// fail the step immediately.
func (c *Coordinator) runStep(ctx context.Context, s step) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = c.cfg.StepAttempts
	cfg.InitialBackoff = c.cfg.StepBackoff
	cfg.RetryIf = func(err error) bool {
		if ae, ok := errors.AsAppError(err); ok {
			return ae.Retryable
		}
		return resilience.DefaultRetryIf(err)
	}
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("saga step retrying", logger.Fields(
			logger.FieldSagaStep, s.name,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error()))
	}

	return resilience.RetryFunc(ctx, cfg, func() error {
		return s.execute(ctx)
	})
}

// compensate undoes completed steps in strict reverse order. Each
// compensation is retried with the same bound as a forward step; one that
// still fails is logged and the walk continues, so every undo gets its
// chance to run.
func (c *Coordinator) compensate(completed []step) []string {
	ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
	defer cancel()

	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = c.cfg.StepAttempts
	cfg.InitialBackoff = c.cfg.StepBackoff

	var compensated []string
	for i := len(completed) - 1; i >= 0; i-- {
		s := completed[i]
		if s.compensate == nil {
			continue
		}
		err := resilience.RetryFunc(ctx, cfg, func() error {
			return s.compensate(ctx)
		})
		if err != nil {
			c.log.Error("compensation failed", logger.Fields(
				logger.FieldSagaStep, s.name, logger.FieldError, err.Error()))
			continue
		}
		compensated = append(compensated, s.name)
	}
	return compensated
}
