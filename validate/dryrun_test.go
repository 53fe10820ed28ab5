package validate

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/errors"
)

type fakeEngine struct {
	createErr  error
	executeErr error
	report     *engine.ExecutionReport

	created   []engine.CreateRequest
	deleted   []string
	deleteErr error
}

func (f *fakeEngine) CreateWorkflow(_ context.Context, req engine.CreateRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	return "wf-123", nil
}

func (f *fakeEngine) DeleteWorkflow(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeEngine) ExecuteWorkflow(_ context.Context, _ string, _ map[string]any) (*engine.ExecutionReport, error) {
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return f.report, nil
}

func TestDryRunAcceptedAndCleanedUp(t *testing.T) {
	eng := &fakeEngine{}
	d := NewDryRunner(eng, nil)

	if err := d.Run(context.Background(), validTestGraph()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(eng.created) != 1 {
		t.Fatalf("created %d workflows, want 1", len(eng.created))
	}
	req := eng.created[0]
	if !strings.HasPrefix(req.Name, scratchPrefix) {
		t.Errorf("workflow name = %q, want %s prefix", req.Name, scratchPrefix)
	}
	if req.Active {
		t.Error("scratch workflow must be inactive")
	}
	if req.Settings.SaveExecutionHistory {
		t.Error("scratch workflow must not save execution history")
	}
	if len(eng.deleted) != 1 || eng.deleted[0] != "wf-123" {
		t.Errorf("deleted = %v, want [wf-123]", eng.deleted)
	}
}

func TestDryRunRejectionPropagates(t *testing.T) {
	eng := &fakeEngine{createErr: errors.EngineRejection("unknown node type")}
	d := NewDryRunner(eng, nil)

	err := d.Run(context.Background(), validTestGraph())
	if !errors.IsCode(err, errors.ErrCodeEngineRejection) {
		t.Fatalf("Run() error = %v, want ENGINE_REJECTION", err)
	}
	if len(eng.deleted) != 0 {
		t.Errorf("deleted = %v, nothing was created so nothing should be deleted", eng.deleted)
	}
}

func TestDryRunDeleteFailureDoesNotFailRun(t *testing.T) {
	eng := &fakeEngine{deleteErr: errors.ServiceUnavailable("engine")}
	d := NewDryRunner(eng, nil)

	if err := d.Run(context.Background(), validTestGraph()); err != nil {
		t.Fatalf("Run() error = %v, cleanup failure must not fail the dry run", err)
	}
	if len(eng.deleted) != 1 {
		t.Errorf("deleted %d times, want 1", len(eng.deleted))
	}
}
