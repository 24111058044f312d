// Package session implements the session registry (C5): named sessions,
// each owning a cookie jar and a reusable fingerprinted transport handle,
// under capacity and TTL enforcement.
package session

import (
	"sync"
	"time"

	"github.com/firasghr/GoSessionEngine/client"
	"github.com/firasghr/GoSessionEngine/cookiejar"
)

// Session is one independent automation session: its own cookie jar, its
// own transport handle, and a mutual-exclusion token serializing the
// orchestrator's use of both (spec.md §5).
//
// Handle, Jar, Transport, and CreatedAt are set once at construction and
// never replaced; lastAccess is the only field mutated after construction,
// guarded by mu.
type Session struct {
	Handle    string
	Jar       *cookiejar.Jar
	Transport *client.Client
	CreatedAt time.Time

	mu         sync.Mutex // guards lastAccess
	lastAccess time.Time

	// token is the mutual-exclusion token the orchestrator acquires before
	// invoking the redirect resolver and releases once the response is
	// assembled (spec.md §5). It is never held across the sweeper; a sweep
	// leaves a currently-locked session in place.
	token sync.Mutex
}

// newSession builds a Session bound to handle with a fresh jar and
// transport. The transport is constructed without a proxy; callers rebind
// it per call via Transport.SetProxy, since a request descriptor's proxy
// is a per-call attribute, not a per-session one.
func newSession(handle string, requestTimeoutSeconds int) (*Session, error) {
	tr, err := client.New("", requestTimeoutSeconds)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		Handle:     handle,
		Jar:        cookiejar.New(),
		Transport:  tr,
		CreatedAt:  now,
		lastAccess: now,
	}, nil
}

// touch records the current time as the session's last-access instant.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// LastAccess returns the last-access instant recorded by touch.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Lock acquires the session's mutual-exclusion token. The orchestrator
// holds it for the duration of one call, including all redirect hops.
func (s *Session) Lock() {
	s.token.Lock()
}

// Unlock releases the session's mutual-exclusion token.
func (s *Session) Unlock() {
	s.token.Unlock()
}

// TryLock attempts to acquire the token without blocking, reporting
// whether it succeeded. Used by the sweeper to skip sessions currently in
// use rather than block the sweep on an in-flight call.
func (s *Session) TryLock() bool {
	return s.token.TryLock()
}

// close releases the session's transport resources. Called by the
// registry once a session has been removed from the table.
func (s *Session) close() {
	s.Transport.Close()
}
