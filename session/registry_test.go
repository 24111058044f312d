package session

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/firasghr/GoSessionEngine/config"
	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/metrics"
)

func testConfig(ttl time.Duration, maxSessions int) *config.Config {
	return &config.Config{
		SessionTTL:     ttl,
		MaxSessions:    maxSessions,
		RequestTimeout: 5 * time.Second,
	}
}

func TestCreate_AssignsUniqueHandles(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 10), nil)
	a, err := r.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := r.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Handle == b.Handle {
		t.Fatal("expected distinct handles")
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}

func TestCreate_CapacityExhausted(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 1), nil)
	if _, err := r.Create(); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := r.Create()
	var e *errs.Error
	if !errs.As(err, &e) || e.Kind != errs.CapacityExhausted {
		t.Fatalf("expected capacity_exhausted, got %v", err)
	}
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 10), nil)
	s1, err := r.GetOrCreate("my-handle")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s2, err := r.GetOrCreate("my-handle")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if s1 != s2 {
		t.Fatal("expected the same session instance on second call")
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
}

func TestSweep_RemovesExpired(t *testing.T) {
	r := NewRegistry(testConfig(10*time.Millisecond, 10), nil)
	if _, err := r.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	r.Sweep()
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after sweep", r.Count())
	}
}

func TestSweep_SkipsLockedSession(t *testing.T) {
	r := NewRegistry(testConfig(10*time.Millisecond, 10), nil)
	s, err := r.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Lock()
	defer s.Unlock()

	time.Sleep(30 * time.Millisecond)
	r.Sweep()
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (locked session must survive sweep)", r.Count())
	}
}

func TestDelete_Idempotent(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 10), nil)
	s, _ := r.Create()
	if !r.Delete(s.Handle) {
		t.Fatal("expected first delete to report true")
	}
	if r.Delete(s.Handle) {
		t.Fatal("expected second delete to report false")
	}
}

func TestCookies_NotFound(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 10), nil)
	_, err := r.Cookies("nonexistent")
	var e *errs.Error
	if !errs.As(err, &e) || e.Kind != errs.SessionNotFound {
		t.Fatalf("expected session_not_found, got %v", err)
	}
}

func TestNewEphemeral_NotInRegistry(t *testing.T) {
	r := NewRegistry(testConfig(time.Hour, 1), nil)
	if _, err := r.NewEphemeral(); err != nil {
		t.Fatalf("NewEphemeral: %v", err)
	}
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 (ephemeral sessions are not registered)", r.Count())
	}
}

func TestRegistry_RecordsSessionChurn(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	r := NewRegistry(testConfig(10*time.Millisecond, 10), m)

	if _, err := r.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.GetOrCreate("fresh-handle"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	r.Sweep()

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range metricFamilies {
		for _, mm := range mf.GetMetric() {
			counts[mf.GetName()] += mm.GetCounter().GetValue()
		}
	}
	if counts["proxy_sessions_created_total"] != 2 {
		t.Errorf("created = %v, want 2", counts["proxy_sessions_created_total"])
	}
	if counts["proxy_sessions_expired_total"] != 2 {
		t.Errorf("expired = %v, want 2", counts["proxy_sessions_expired_total"])
	}
}
