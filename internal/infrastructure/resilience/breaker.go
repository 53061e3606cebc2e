package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when the breaker rejects a call outright.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerHalfOpen:
		return "half-open"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	// MaxFailures is the consecutive-failure count that trips the breaker.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(name string, from, to BreakerState)
}

// Breaker fails fast when the external browser tool keeps crashing or
// timing out, instead of queueing work that is doomed anyway.
type Breaker struct {
	name     string
	settings BreakerSettings

	mu            sync.Mutex
	state         BreakerState
	consecutive   uint32
	openedAt      time.Time
	probeInFlight bool
}

// NewBreaker creates a circuit breaker with the given settings.
func NewBreaker(name string, settings BreakerSettings) *Breaker {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{
		name:     name,
		settings: settings,
		state:    BreakerClosed,
	}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observe(time.Now())
}

// Execute runs fn if the breaker accepts the call.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn()
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.observe(time.Now()) {
	case BreakerOpen:
		return ErrBreakerOpen
	case BreakerHalfOpen:
		// One probe at a time in half-open.
		if b.probeInFlight {
			return ErrBreakerOpen
		}
		b.probeInFlight = true
	}
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.observe(now)
	b.probeInFlight = false

	if success {
		b.consecutive = 0
		if state == BreakerHalfOpen {
			b.transition(state, BreakerClosed, now)
		}
		return
	}

	b.consecutive++
	if state == BreakerHalfOpen || b.consecutive >= b.settings.MaxFailures {
		b.transition(state, BreakerOpen, now)
	}
}

// observe applies the cooldown transition. Caller holds the lock.
func (b *Breaker) observe(now time.Time) BreakerState {
	if b.state == BreakerOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(BreakerOpen, BreakerHalfOpen, now)
	}
	return b.state
}

// transition changes state. Caller holds the lock.
func (b *Breaker) transition(from, to BreakerState, now time.Time) {
	if from == to {
		return
	}
	b.state = to
	if to == BreakerOpen {
		b.openedAt = now
		b.consecutive = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
