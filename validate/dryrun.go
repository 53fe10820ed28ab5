package validate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
)

// scratchPrefix marks validation artifacts in the engine. The prefix sorts
// last in workflow listings and makes stray artifacts easy to spot.
const scratchPrefix = "ZZZ_DRYRUN_"

// cleanupTimeout bounds artifact deletion when the caller's context is
// already dead.
const cleanupTimeout = 10 * time.Second

// Engine is the engine-client surface dry-run and simulation use.
type Engine interface {
	CreateWorkflow(ctx context.Context, req engine.CreateRequest) (string, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ExecuteWorkflow(ctx context.Context, id string, input map[string]any) (*engine.ExecutionReport, error)
}

// DryRunner submits a graph to the engine as an inactive scratch workflow
// to surface engine-side rejections, then removes it.
type DryRunner struct {
	eng Engine
	log *logger.Logger
}

// NewDryRunner creates a dry-run validator.
func NewDryRunner(eng Engine, log *logger.Logger) *DryRunner {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &DryRunner{eng: eng, log: log.WithComponent("dryrun")}
}

// Run submits g as an inactive workflow. A nil return means the engine
// accepted the graph; rejection surfaces as an ENGINE_REJECTION error. The
// scratch workflow is deleted before returning, whatever happens.
func (d *DryRunner) Run(ctx context.Context, g *graph.Graph) error {
	id, err := d.eng.CreateWorkflow(ctx, scratchRequest(g))
	if err != nil {
		return err
	}
	defer d.cleanup(id)
	return nil
}

// cleanup deletes a scratch workflow on a detached context so removal
// still happens when the caller's context is cancelled or timed out.
func (d *DryRunner) cleanup(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := d.eng.DeleteWorkflow(ctx, id); err != nil {
		d.log.Error("failed to delete scratch workflow", logger.Fields(
			logger.FieldWorkflowID, id, logger.FieldError, err.Error()))
	}
}

// scratchRequest builds the inactive, history-free creation payload used
// for validation artifacts.
func scratchRequest(g *graph.Graph) engine.CreateRequest {
	return engine.CreateRequest{
		Name:        scratchPrefix + uuid.NewString(),
		Nodes:       g.Nodes,
		Connections: g.Connections,
		Active:      false,
		Settings:    engine.Settings{SaveExecutionHistory: false},
	}
}
