package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestAllocationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewAllocationMetrics(reg)
	metrics.IncUpdate("preview", "ok")
	metrics.IncUpdate("apply", "error")
	metrics.ObserveDiff("preview", 125*time.Millisecond)
	metrics.AddOrdered(7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "deck_updates_total", "mode", "preview"); err != nil {
		t.Fatalf("fetch updates: %v", err)
	} else if got != 1 {
		t.Fatalf("expected updates=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "deck_update_duration_seconds", "mode", "preview"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	mf := findMetricFamily(mfs, "cards_ordered_total")
	if mf == nil {
		t.Fatal("cards_ordered_total not found")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 7 {
		t.Fatalf("expected ordered=7, got %f", got)
	}
}

func TestAllocationMetricsNilSafe(t *testing.T) {
	var metrics *AllocationMetrics
	metrics.IncUpdate("apply", "ok")
	metrics.ObserveDiff("apply", time.Second)
	metrics.AddOrdered(3)

	empty := NewAllocationMetrics(nil)
	empty.IncUpdate("apply", "ok")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
