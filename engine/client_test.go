package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/graph"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}), srv
}

func TestClient_Introspect(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/node-types" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"schemas": []map[string]any{
				{"type": "schedule.trigger", "category": "trigger"},
				{"type": "email.send", "category": "action"},
			},
		})
	})

	schemas, err := client.Introspect(context.Background())
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if len(schemas) != 2 || schemas[0].Type != "schedule.trigger" {
		t.Errorf("unexpected schemas: %+v", schemas)
	}
}

func TestClient_CreateWorkflow(t *testing.T) {
	var received CreateRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "wf-123"})
	})

	id, err := client.CreateWorkflow(context.Background(), CreateRequest{
		Name:  "test",
		Nodes: []graph.Node{{ID: "a", Type: "manual.trigger"}},
	})
	if err != nil {
		t.Fatalf("CreateWorkflow: %v", err)
	}
	if id != "wf-123" {
		t.Errorf("expected wf-123, got %s", id)
	}
	if received.Settings.SaveExecutionHistory {
		t.Error("expected execution history off by default")
	}
}

func TestClient_CreateWorkflow_RejectionMapsToEngineRejection(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "required field 'channel' missing for node notify"})
	})

	_, err := client.CreateWorkflow(context.Background(), CreateRequest{Name: "bad"})
	if !errors.IsCode(err, errors.ErrCodeEngineRejection) {
		t.Fatalf("expected ENGINE_REJECTION, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Message == "" || appErr.Retryable {
		t.Errorf("expected non-retryable rejection with message, got %+v", appErr)
	}
}

func TestClient_DeleteWorkflow_NotFoundIsIdempotent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.DeleteWorkflow(context.Background(), "gone"); err != nil {
		t.Errorf("expected delete of missing workflow to succeed, got %v", err)
	}
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.ActivateWorkflow(context.Background(), "wf-1")
	appErr, ok := errors.AsAppError(err)
	if !ok || !appErr.Retryable {
		t.Errorf("expected retryable error for 502, got %v", err)
	}
}

func TestClient_TimeoutMapsToTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.cfg.Timeout = 20 * time.Millisecond
	client.client.Timeout = 20 * time.Millisecond

	err := client.ActivateWorkflow(context.Background(), "wf-1")
	if !errors.IsCode(err, errors.ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestClient_ExecuteWorkflow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ExecutionReport{
			Status:       "error",
			FailedNodeID: "notify",
			Error:        "channel not found",
		})
	})

	report, err := client.ExecuteWorkflow(context.Background(), "wf-1", map[string]any{"sample": true})
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if report.Succeeded() {
		t.Error("expected failed execution")
	}
	if report.FailedNodeID != "notify" {
		t.Errorf("expected notify, got %s", report.FailedNodeID)
	}
}
