package cache

import (
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("store breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig controls when Redis calls are short-circuited. After
// Threshold consecutive failures the breaker opens for Cooldown, then admits
// Trials calls; all of them must succeed to close it again.
type BreakerConfig struct {
	Threshold int
	Cooldown  time.Duration
	Trials    int
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		Trials:    3,
	}
}

type BreakerStats struct {
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	Threshold   int       `json:"threshold"`
	LastFailure time.Time `json:"lastFailure,omitempty"`
	OpenUntil   time.Time `json:"openUntil,omitempty"`
}

// Breaker guards the Redis store so that a dead Redis fails requests fast
// instead of stalling every login and token check on dial timeouts.
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     BreakerState
	failures  int
	passed    int
	trying    int
	lastFail  time.Time
	openUntil time.Time
	now       func() time.Time
}

func NewBreaker(cfg *BreakerConfig) *Breaker {
	if cfg == nil {
		cfg = DefaultBreakerConfig()
	}
	c := *cfg
	if c.Threshold <= 0 {
		c.Threshold = 1
	}
	if c.Trials <= 0 {
		c.Trials = 1
	}
	return &Breaker{cfg: c, now: time.Now}
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrBreakerOpen without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrBreakerOpen
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Before(b.openUntil) {
			return false
		}
		b.state, b.passed, b.trying = BreakerHalfOpen, 0, 0
	}
	if b.state == BreakerHalfOpen {
		if b.trying+b.passed >= b.cfg.Trials {
			return false
		}
		b.trying++
	}
	return true
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.trying--
		if !ok {
			b.trip()
			return
		}
		b.passed++
		if b.passed >= b.cfg.Trials {
			b.state, b.failures = BreakerClosed, 0
		}
		return
	}

	if ok {
		b.failures = 0
		return
	}
	b.failures++
	b.lastFail = b.now()
	if b.failures >= b.cfg.Threshold {
		b.trip()
	}
}

// trip must be called with mu held.
func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.lastFail = b.now()
	b.openUntil = b.lastFail.Add(b.cfg.Cooldown)
	b.passed, b.trying = 0, 0
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := BreakerStats{
		State:       b.state.String(),
		Failures:    b.failures,
		Threshold:   b.cfg.Threshold,
		LastFailure: b.lastFail,
	}
	if b.state == BreakerOpen {
		stats.OpenUntil = b.openUntil
	}
	return stats
}
