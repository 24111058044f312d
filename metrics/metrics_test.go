package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveRequest_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("success", 50*time.Millisecond, 2)
	m.ObserveRequest("error", 10*time.Millisecond, 0)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "proxy_requests_total" {
			continue
		}
		found = true
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		if total != 2 {
			t.Errorf("proxy_requests_total = %v, want 2", total)
		}
	}
	if !found {
		t.Fatal("proxy_requests_total not registered")
	}
}

func TestSetActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetActiveSessions(7)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var got *dto.Metric
	for _, mf := range metricFamilies {
		if mf.GetName() == "proxy_active_sessions" {
			got = mf.GetMetric()[0]
		}
	}
	if got == nil || got.GetGauge().GetValue() != 7 {
		t.Fatalf("proxy_active_sessions = %v, want 7", got)
	}
}

func TestIncSessionsCreatedAndExpired(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.IncSessionsCreated()
	m.IncSessionsCreated()
	m.IncSessionsExpired()

	metricFamilies, _ := reg.Gather()
	counts := map[string]float64{}
	for _, mf := range metricFamilies {
		for _, mm := range mf.GetMetric() {
			counts[mf.GetName()] += mm.GetCounter().GetValue()
		}
	}
	if counts["proxy_sessions_created_total"] != 2 {
		t.Errorf("created = %v, want 2", counts["proxy_sessions_created_total"])
	}
	if counts["proxy_sessions_expired_total"] != 1 {
		t.Errorf("expired = %v, want 1", counts["proxy_sessions_expired_total"])
	}
}
