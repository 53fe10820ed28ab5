package observability

import (
	"context"
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.ServiceName != "flowkitd" {
		t.Errorf("service name = %q, want flowkitd", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("sample rate = %v, want 1.0", cfg.SampleRate)
	}
}

func TestInitDisabledIsNoOp(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	// Without an initialized provider spans are no-ops but must not panic.
	ctx, span := StartSpan(context.Background(), "test.operation")
	defer span.End()

	if ctx == nil {
		t.Fatal("expected context")
	}
	SetSpanError(ctx, context.Canceled)
}

func TestServiceHealthAggregation(t *testing.T) {
	sh := NewServiceHealth("flowkitd", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Fatalf("initial status = %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "catalog", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("status = %s after healthy component", sh.Status)
	}

	sh.AddComponent(Health{Name: "provider", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("status = %s, want degraded", sh.Status)
	}

	sh.AddComponent(Health{Name: "engine", Status: HealthStatusDown})
	if sh.Status != HealthStatusDown {
		t.Errorf("status = %s, want down", sh.Status)
	}

	sh.AddComponent(Health{Name: "store", Status: HealthStatusUp})
	if sh.Status != HealthStatusDown {
		t.Errorf("status = %s, down must be sticky", sh.Status)
	}
}
