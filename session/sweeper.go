package session

import (
	"sync"
	"time"
)

// minSweepInterval is the floor on the sweeper's tick period, per spec.md
// §4.5 ("periodic timer at interval TTL/10, minimum 10 seconds").
const minSweepInterval = 10 * time.Second

// Sweeper periodically calls Registry.Sweep on a ticker. It is the
// background half of the registry's TTL enforcement; the foreground half
// runs inline on every mutating registry call.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
}

// NewSweeper builds a Sweeper over registry, ticking at max(ttl/10, 10s).
func NewSweeper(registry *Registry, ttl time.Duration) *Sweeper {
	interval := ttl / 10
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return &Sweeper{
		registry: registry,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep in the background. Non-blocking.
func (sw *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-sw.stopCh:
				return
			case <-ticker.C:
				sw.registry.Sweep()
			}
		}
	}()
}

// Stop signals the background goroutine to exit. Idempotent.
func (sw *Sweeper) Stop() {
	sw.once.Do(func() {
		close(sw.stopCh)
	})
}
