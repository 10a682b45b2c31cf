package graph

import (
	"errors"
	"sync"
	"time"
)

// ErrCatalogUnavailable is returned when the breaker rejects a request
// without sending it to the vendor service.
var ErrCatalogUnavailable = errors.New("vendor catalog circuit open")

// Breaker trips after enough transport-level failures inside a rolling
// window and rejects requests until the open period has elapsed. A 4xx
// response from the vendor counts as contact, not as a failure.
type Breaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
}

// NewBreaker creates a breaker that opens for openDuration once
// threshold failures are seen within window.
func NewBreaker(threshold int, window, openDuration time.Duration) *Breaker {
	return &Breaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
	}
}

// RecordFailure notes a failed request and opens the breaker when the
// threshold is reached.
func (b *Breaker) RecordFailure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-b.window)
	i := 0
	for ; i < len(b.failures); i++ {
		if b.failures[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		b.failures = append([]time.Time{}, b.failures[i:]...)
	}
	b.failures = append(b.failures, now)

	if len(b.failures) >= b.threshold {
		b.openUntil = now.Add(b.openDuration)
	}
}

// RecordSuccess clears the failure history and closes the breaker.
func (b *Breaker) RecordSuccess() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = b.failures[:0]
	b.openUntil = time.Time{}
}

// Open reports whether requests should currently be rejected.
func (b *Breaker) Open() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().Before(b.openUntil)
}
