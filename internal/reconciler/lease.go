package reconciler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Lease is a flag that clears itself once its deadline passes.
type Lease struct {
	clock    clock.Clock
	duration time.Duration

	mu    sync.Mutex
	until time.Time
}

func NewLease(c clock.Clock, duration time.Duration) *Lease {
	return &Lease{clock: c, duration: duration}
}

func (l *Lease) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.until = l.clock.Now().Add(l.duration)
}

func (l *Lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.clock.Now().Before(l.until)
}

func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.until = time.Time{}
}
