package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test"})

	if b.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", b.State())
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 3, CoolDown: time.Hour})
	fail := errors.New("provider down")

	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return fail })
	}

	if b.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", b.State())
	}

	// Calls while open are skipped without invoking fn.
	err := b.Execute(func() error {
		t.Error("function should not have been called")
		return nil
	})
	if !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsConsecutiveCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 3, CoolDown: time.Hour})
	fail := errors.New("flaky")

	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return fail })
	_ = b.Execute(func() error { return fail })

	if b.State() != StateClosed {
		t.Errorf("expected StateClosed after non-consecutive failures, got %s", b.State())
	}
	if b.Failures() != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", b.Failures())
	}
}

func TestBreaker_HalfOpenAfterCoolDown(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, CoolDown: 20 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("fail") })
	if b.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", b.State())
	}

	time.Sleep(25 * time.Millisecond)

	if b.State() != StateHalfOpen {
		t.Errorf("expected StateHalfOpen after cool-down, got %s", b.State())
	}
}

func TestBreaker_SingleProbeInHalfOpen(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, CoolDown: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("fail") })
	time.Sleep(15 * time.Millisecond)

	probeStarted := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = b.Execute(func() error {
			close(probeStarted)
			<-release
			return nil
		})
	}()
	<-probeStarted

	// Second call while the probe is in flight must be skipped.
	err := b.Execute(func() error {
		t.Error("second half-open call should not run")
		return nil
	})
	if !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen for second probe, got %v", err)
	}
	close(release)
}

func TestBreaker_ClosesOnProbeSuccess(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, CoolDown: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("fail") })
	time.Sleep(15 * time.Millisecond)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected probe to succeed, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected StateClosed after probe success, got %s", b.State())
	}
}

func TestBreaker_ReopensOnProbeFailure(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, CoolDown: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("fail") })
	time.Sleep(15 * time.Millisecond)

	_ = b.Execute(func() error { return errors.New("still failing") })
	if b.State() != StateOpen {
		t.Errorf("expected StateOpen after probe failure, got %s", b.State())
	}
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var changes []struct{ from, to State }

	b := NewBreaker(BreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		CoolDown:         10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			changes = append(changes, struct{ from, to State }{from, to})
			mu.Unlock()
		},
	})

	_ = b.Execute(func() error { return errors.New("fail") })
	time.Sleep(15 * time.Millisecond)
	_ = b.State()

	mu.Lock()
	defer mu.Unlock()
	if len(changes) < 2 {
		t.Fatalf("expected at least 2 state changes, got %d", len(changes))
	}
	if changes[0].from != StateClosed || changes[0].to != StateOpen {
		t.Errorf("expected Closed->Open, got %s->%s", changes[0].from, changes[0].to)
	}
	if changes[1].from != StateOpen || changes[1].to != StateHalfOpen {
		t.Errorf("expected Open->HalfOpen, got %s->%s", changes[1].from, changes[1].to)
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 1, CoolDown: time.Hour})

	_ = b.Execute(func() error { return errors.New("fail") })
	b.Reset()

	if b.State() != StateClosed {
		t.Errorf("expected StateClosed after reset, got %s", b.State())
	}
	if b.Failures() != 0 {
		t.Errorf("expected 0 failures after reset, got %d", b.Failures())
	}
}

func TestBreaker_ConcurrentAccess(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test"})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(func() error { return nil })
			_ = b.State()
			_ = b.Failures()
		}()
	}
	wg.Wait()

	if b.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", b.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
