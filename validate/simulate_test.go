package validate

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/errors"
)

func TestSimulateSuccess(t *testing.T) {
	eng := &fakeEngine{report: &engine.ExecutionReport{Status: "success"}}
	s := NewSimulator(eng, nil)

	exec, err := s.Run(context.Background(), validTestGraph(), map[string]any{"sample": true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !exec.Success {
		t.Errorf("exec = %+v, want success", exec)
	}
	if len(eng.deleted) != 1 {
		t.Errorf("deleted %d times, want 1", len(eng.deleted))
	}
}

func TestSimulateFailureAttribution(t *testing.T) {
	tests := []struct {
		name       string
		report     *engine.ExecutionReport
		wantFailed string
	}{
		{
			"attributed failure",
			&engine.ExecutionReport{Status: "error", FailedNodeID: "fetch", Error: "connection refused"},
			"fetch",
		},
		{
			"unattributed failure",
			&engine.ExecutionReport{Status: "error", Error: "internal"},
			UnknownNode,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := &fakeEngine{report: tc.report}
			s := NewSimulator(eng, nil)

			exec, err := s.Run(context.Background(), validTestGraph(), nil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if exec.Success {
				t.Fatal("expected failed execution")
			}
			if exec.FailedNodeID != tc.wantFailed {
				t.Errorf("failed node = %q, want %q", exec.FailedNodeID, tc.wantFailed)
			}
			if exec.RawError != tc.report.Error {
				t.Errorf("raw error = %q, want %q", exec.RawError, tc.report.Error)
			}
			if len(eng.deleted) != 1 {
				t.Errorf("deleted %d times, want 1", len(eng.deleted))
			}
		})
	}
}

func TestSimulateExecuteErrorStillCleansUp(t *testing.T) {
	eng := &fakeEngine{executeErr: errors.Timeout("execute")}
	s := NewSimulator(eng, nil)

	_, err := s.Run(context.Background(), validTestGraph(), nil)
	if !errors.IsCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("Run() error = %v, want TIMEOUT", err)
	}
	if len(eng.deleted) != 1 {
		t.Errorf("deleted %d times, want 1; scratch workflow must never leak", len(eng.deleted))
	}
}

func TestSimulateCreateErrorDoesNotDelete(t *testing.T) {
	eng := &fakeEngine{createErr: errors.ServiceUnavailable("engine")}
	s := NewSimulator(eng, nil)

	if _, err := s.Run(context.Background(), validTestGraph(), nil); err == nil {
		t.Fatal("expected error")
	}
	if len(eng.deleted) != 0 {
		t.Errorf("deleted = %v, nothing was created", eng.deleted)
	}
}
