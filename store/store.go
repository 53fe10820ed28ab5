package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/flowkit/generation"
	"github.com/kbukum/flowkit/intent"
)

// DeploymentState tracks where a deployment is in its lifecycle.
type DeploymentState string

const (
	// StateDraft marks a record persisted before any engine-side work.
	StateDraft DeploymentState = "draft"
	// StateActive marks a fully deployed, activated workflow.
	StateActive DeploymentState = "active"
	// StateRolledBack marks a deployment whose saga compensated.
	StateRolledBack DeploymentState = "rolled_back"
)

// Deployment is the persistent record of one deployment attempt. It is
// written before engine-side work begins so compensation always has a
// record to consult.
type Deployment struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	State          DeploymentState `json:"state"`
	// StepsCompleted lists saga step names in completion order.
	StepsCompleted []string `json:"steps_completed"`
	// ExternalWorkflowID is the engine-side workflow id, once created.
	ExternalWorkflowID string    `json:"external_workflow_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Outcome labels how a pipeline run ended, for feedback entries.
type Outcome string

const (
	OutcomeDeployed        Outcome = "deployed"
	OutcomeCapabilityGap   Outcome = "capability_gap"
	OutcomeGracefulFailure Outcome = "graceful_failure"
	OutcomeRolledBack      Outcome = "rolled_back"
)

// Feedback is one request's outcome record: what was asked, what was
// built, and how it ended.
type Feedback struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	RequestText string               `json:"request_text"`
	Intent      intent.Intent        `json:"intent"`
	Outcome     Outcome              `json:"outcome"`
	GraphShape  string               `json:"graph_shape,omitempty"`
	Diagnosis   string               `json:"diagnosis,omitempty"`
	Attempts    []generation.Attempt `json:"attempts,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Store is the persistence surface the saga and pipeline use.
type Store interface {
	// CreateDeployment persists a new record. The idempotency key must be
	// unique among non-rolled-back deployments.
	CreateDeployment(ctx context.Context, d *Deployment) error
	// DeploymentByKey returns the record for an idempotency key, or a
	// NOT_FOUND error.
	DeploymentByKey(ctx context.Context, idempotencyKey string) (*Deployment, error)
	// UpdateDeployment persists state, steps and external id changes.
	UpdateDeployment(ctx context.Context, d *Deployment) error
	// DeleteDeployment removes a record. Deleting a missing record is not
	// an error.
	DeleteDeployment(ctx context.Context, id string) error

	SaveFeedback(ctx context.Context, f *Feedback) error
	FeedbackByID(ctx context.Context, id string) (*Feedback, error)

	Close()
}

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config selects and configures the store backend.
type Config struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
}

// Validate validates the store configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for the postgres driver")
		}
		return nil
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
}
