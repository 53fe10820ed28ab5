package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows calls to pass through.
	StateClosed State = iota
	// StateOpen skips all calls until the cool-down lapses.
	StateOpen
	// StateHalfOpen allows a single trial call to decide recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when a call is skipped because the breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker for logging.
	Name string
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// CoolDown is how long to wait before transitioning from open to half-open.
	CoolDown time.Duration
	// OnStateChange is called when the state changes.
	OnStateChange func(name string, from, to State)
}

// Breaker is a per-dependency failure-tracking state machine. It opens after
// FailureThreshold consecutive failures, waits out CoolDown, then allows
// exactly one trial call; that call's outcome decides closed vs re-open.
type Breaker struct {
	cfg BreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	probeInFlight bool
}

// NewBreaker creates a circuit breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn through the breaker. Returns ErrBreakerOpen without
// calling fn if calls are currently skipped.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(err)
	return err
}

// State returns the current state, applying the cool-down transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset returns the breaker to the closed state with zero failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failures = 0
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.current()
	b.probeInFlight = false

	if err == nil {
		b.failures = 0
		if state == StateHalfOpen {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	switch state {
	case StateClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.open()
		}
	case StateHalfOpen:
		b.open()
	}
}

func (b *Breaker) open() {
	b.openedAt = time.Now()
	b.transition(StateOpen)
}

// current applies the cool-down transition; callers must hold mu.
func (b *Breaker) current() State {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cfg.CoolDown {
		b.transition(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if to != StateHalfOpen {
		b.probeInFlight = false
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
