package validate

import (
	"context"

	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
)

// UnknownNode is the failure attribution used when the engine reports an
// execution error without naming the failing node.
const UnknownNode = "UNKNOWN"

// Execution is the outcome of one simulated run.
type Execution struct {
	Success bool `json:"success"`
	// FailedNodeID names the failing node, or UnknownNode when the engine
	// did not attribute the failure.
	FailedNodeID string `json:"failed_node_id,omitempty"`
	// RawError is the engine's error text, kept verbatim for diagnosis.
	RawError string `json:"raw_error,omitempty"`
}

// Simulator runs a graph once against the engine with sample input. Like
// dry-run, the scratch workflow never outlives the call.
type Simulator struct {
	eng Engine
	log *logger.Logger
}

// NewSimulator creates a simulated-execution validator.
func NewSimulator(eng Engine, log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Simulator{eng: eng, log: log.WithComponent("simulate")}
}

// Run creates a scratch workflow, executes it once with input, and reports
// the outcome. Transport failures return an error; an execution that ran
// and failed returns a non-nil Execution with Success false.
func (s *Simulator) Run(ctx context.Context, g *graph.Graph, input map[string]any) (*Execution, error) {
	id, err := s.eng.CreateWorkflow(ctx, scratchRequest(g))
	if err != nil {
		return nil, err
	}
	defer s.cleanup(id)

	report, err := s.eng.ExecuteWorkflow(ctx, id, input)
	if err != nil {
		return nil, err
	}

	if report.Succeeded() {
		return &Execution{Success: true}, nil
	}

	failed := report.FailedNodeID
	if failed == "" {
		failed = UnknownNode
	}
	s.log.Debug("simulated execution failed", logger.Fields(
		logger.FieldNodeID, failed, logger.FieldError, report.Error))
	return &Execution{Success: false, FailedNodeID: failed, RawError: report.Error}, nil
}

func (s *Simulator) cleanup(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.eng.DeleteWorkflow(ctx, id); err != nil {
		s.log.Error("failed to delete scratch workflow", logger.Fields(
			logger.FieldWorkflowID, id, logger.FieldError, err.Error()))
	}
}
