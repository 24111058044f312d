package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firasghr/GoSessionEngine/config"
	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/metrics"
)

// Registry holds the named sessions table and enforces capacity and TTL
// (spec.md §4.5). Every mutating operation sweeps expired sessions first.
type Registry struct {
	mu                    sync.RWMutex
	sessions              map[string]*Session
	ttl                   time.Duration
	maxSessions           int
	requestTimeoutSeconds int
	metrics               *metrics.Metrics
}

// NewRegistry builds an empty Registry configured from cfg. m may be nil,
// in which case session creation and expiry are not recorded (used by
// tests that don't care about the churn counters).
func NewRegistry(cfg *config.Config, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions:              make(map[string]*Session),
		ttl:                   cfg.SessionTTL,
		maxSessions:           cfg.MaxSessions,
		requestTimeoutSeconds: int(cfg.RequestTimeout.Seconds()),
		metrics:               m,
	}
}

// Create generates a UUIDv4 handle, allocates a session, and inserts it.
// Fails with errs.CapacityExhausted if the registry is at capacity after a
// sweep.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	if len(r.sessions) >= r.maxSessions {
		return nil, errs.New(errs.CapacityExhausted, "session: registry at capacity")
	}

	handle := uuid.NewString()
	s, err := newSession(handle, r.requestTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	r.sessions[handle] = s
	if r.metrics != nil {
		r.metrics.IncSessionsCreated()
	}
	return s, nil
}

// GetOrCreate returns the session registered under handle, updating its
// last-access instant, or creates one under that exact handle if absent
// and capacity permits.
func (r *Registry) GetOrCreate(handle string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	if s, ok := r.sessions[handle]; ok {
		s.touch()
		return s, nil
	}

	if len(r.sessions) >= r.maxSessions {
		return nil, errs.New(errs.CapacityExhausted, "session: registry at capacity")
	}

	s, err := newSession(handle, r.requestTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	r.sessions[handle] = s
	if r.metrics != nil {
		r.metrics.IncSessionsCreated()
	}
	return s, nil
}

// NewEphemeral allocates a session outside the registry table: used for a
// single call (including all redirect hops) and discarded by the caller
// afterward. It is never subject to capacity checks or the sweeper.
func (r *Registry) NewEphemeral() (*Session, error) {
	return newSession("", r.requestTimeoutSeconds)
}

// Delete removes handle's entry, releasing its transport resources.
// Idempotent: deleting an absent handle reports false without error.
func (r *Registry) Delete(handle string) bool {
	r.mu.Lock()
	r.sweepLocked()
	s, ok := r.sessions[handle]
	if ok {
		delete(r.sessions, handle)
	}
	r.mu.Unlock()

	if ok {
		s.close()
	}
	return ok
}

// Cookies returns handle's cookie-jar snapshot, or errs.SessionNotFound.
func (r *Registry) Cookies(handle string) (map[string]string, error) {
	r.mu.RLock()
	s, ok := r.sessions[handle]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.SessionNotFound, "session: no session with handle "+handle)
	}
	return s.Jar.Snapshot(), nil
}

// Sweep removes every session whose idle time has reached the TTL. It is
// called on every mutating registry operation and on a periodic timer
// (see Sweeper).
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
}

// Count returns the number of currently registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// sweepLocked performs the actual sweep; callers must hold r.mu for
// writing. A session whose token is currently held (an in-flight call) is
// left in place even past its TTL, per spec.md §4.5/§5.
func (r *Registry) sweepLocked() {
	now := time.Now()
	for handle, s := range r.sessions {
		if now.Sub(s.LastAccess()) < r.ttl {
			continue
		}
		if !s.TryLock() {
			continue
		}
		s.Unlock()
		delete(r.sessions, handle)
		s.close()
		if r.metrics != nil {
			r.metrics.IncSessionsExpired()
		}
	}
}
