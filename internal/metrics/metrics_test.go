package metrics

import (
	"testing"
	"time"
)

func TestObserveRecordsOnRegistry(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("GET", "/api/v1/diary", 200, 20*time.Millisecond)
	m.ObserveAnalysis("analyze", "ok", time.Second)
	m.ObserveEntry("create", "created")
	m.ObserveEntry("create", "created")

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				got[family.GetName()] += c.GetValue()
			}
		}
	}

	want := map[string]float64{
		"emotional_diary_http_requests_total":       1,
		"emotional_diary_gemini_requests_total":     1,
		"emotional_diary_entries_operations_total": 2,
	}
	for name, value := range want {
		if got[name] != value {
			t.Fatalf("%s: want %v, got %v", name, value, got[name])
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveAnalysis("analyze", "ok", time.Millisecond)
	m.ObserveEntry("update", "updated")

	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
	if m.Handler() == nil {
		t.Fatal("expected a fallback handler")
	}
}
