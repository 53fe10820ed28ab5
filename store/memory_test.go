package store

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/intent"
)

func TestMemoryDeploymentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	d := &Deployment{
		ID:             "dep-1",
		IdempotencyKey: "key-1",
		UserID:         "user-1",
		Name:           "daily report",
		State:          StateDraft,
	}
	if err := m.CreateDeployment(ctx, d); err != nil {
		t.Fatalf("CreateDeployment() error = %v", err)
	}
	if d.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := m.DeploymentByKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("DeploymentByKey() error = %v", err)
	}
	if got.ID != "dep-1" || got.State != StateDraft {
		t.Errorf("got %+v", got)
	}

	got.State = StateActive
	got.StepsCompleted = []string{"persist_draft", "create_workflow"}
	got.ExternalWorkflowID = "wf-9"
	if err := m.UpdateDeployment(ctx, got); err != nil {
		t.Fatalf("UpdateDeployment() error = %v", err)
	}

	got, err = m.DeploymentByKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("DeploymentByKey() after update error = %v", err)
	}
	if got.State != StateActive || got.ExternalWorkflowID != "wf-9" {
		t.Errorf("got %+v, want active with external id", got)
	}
	if len(got.StepsCompleted) != 2 {
		t.Errorf("steps = %v", got.StepsCompleted)
	}

	if err := m.DeleteDeployment(ctx, "dep-1"); err != nil {
		t.Fatalf("DeleteDeployment() error = %v", err)
	}
	if _, err := m.DeploymentByKey(ctx, "key-1"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("DeploymentByKey() after delete error = %v, want NOT_FOUND", err)
	}
}

func TestMemoryIdempotencyKeyConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := &Deployment{ID: "dep-1", IdempotencyKey: "key-1", State: StateDraft}
	if err := m.CreateDeployment(ctx, first); err != nil {
		t.Fatalf("CreateDeployment() error = %v", err)
	}

	dup := &Deployment{ID: "dep-2", IdempotencyKey: "key-1", State: StateDraft}
	if err := m.CreateDeployment(ctx, dup); !errors.IsCode(err, errors.ErrCodeConflict) {
		t.Fatalf("duplicate CreateDeployment() error = %v, want CONFLICT", err)
	}
}

func TestMemoryRolledBackKeyReusable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := &Deployment{ID: "dep-1", IdempotencyKey: "key-1", State: StateRolledBack}
	if err := m.CreateDeployment(ctx, first); err != nil {
		t.Fatalf("CreateDeployment() error = %v", err)
	}

	retry := &Deployment{ID: "dep-2", IdempotencyKey: "key-1", State: StateDraft}
	if err := m.CreateDeployment(ctx, retry); err != nil {
		t.Fatalf("retry after rollback error = %v, want nil", err)
	}
}

func TestMemoryDeleteMissingIsNotAnError(t *testing.T) {
	if err := NewMemory().DeleteDeployment(context.Background(), "ghost"); err != nil {
		t.Errorf("DeleteDeployment(missing) error = %v, want nil", err)
	}
}

func TestMemoryFeedback(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	f := &Feedback{
		ID:          "fb-1",
		UserID:      "user-1",
		RequestText: "email me the weather every morning",
		Intent:      intent.Intent{Action: intent.ActionSend, TriggerKind: intent.TriggerSchedule},
		Outcome:     OutcomeDeployed,
		GraphShape:  "schedule.trigger -> http.request -> email.send",
	}
	if err := m.SaveFeedback(ctx, f); err != nil {
		t.Fatalf("SaveFeedback() error = %v", err)
	}

	got, err := m.FeedbackByID(ctx, "fb-1")
	if err != nil {
		t.Fatalf("FeedbackByID() error = %v", err)
	}
	if got.Outcome != OutcomeDeployed || got.Intent.Action != intent.ActionSend {
		t.Errorf("got %+v", got)
	}

	if _, err := m.FeedbackByID(ctx, "ghost"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("FeedbackByID(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	d := &Deployment{ID: "dep-1", IdempotencyKey: "key-1", State: StateDraft}
	if err := m.CreateDeployment(ctx, d); err != nil {
		t.Fatalf("CreateDeployment() error = %v", err)
	}

	got, _ := m.DeploymentByKey(ctx, "key-1")
	got.State = StateActive // mutate the returned copy

	again, _ := m.DeploymentByKey(ctx, "key-1")
	if again.State != StateDraft {
		t.Error("mutating a returned record must not affect the store")
	}
}
