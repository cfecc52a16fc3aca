package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveGeneration("ok", 20*time.Millisecond, 12)
	m.ObserveGeneration("fetch_error", time.Millisecond, 0)
	m.ObserveGeneration("ok", 30*time.Millisecond, 7)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}

	runs := byName["threads_insights_report_generations_total"]
	if runs == nil {
		t.Fatal("generation counter not registered")
	}
	counts := map[string]float64{}
	for _, m := range runs.GetMetric() {
		counts[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if counts["ok"] != 2 || counts["fetch_error"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if got := byName["threads_insights_report_last_posts"].GetMetric()[0].GetGauge().GetValue(); got != 7 {
		t.Fatalf("last posts = %v", got)
	}
	if got := byName["threads_insights_report_generation_seconds"].GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Fatalf("samples = %d", got)
	}
}
