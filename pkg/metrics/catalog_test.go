package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCatalogMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCatalogMetrics(reg)

	metrics.IncSearch("cross_reference")
	metrics.IncReconcileRow("updated")
	metrics.IncReconcileRow("skipped")
	metrics.ObserveReconcileDuration("completed", 250*time.Millisecond)
	metrics.IncSnapshotLookup("hit")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "catalog_searches_total", "strategy", "cross_reference"); err != nil {
		t.Fatalf("fetch searches: %v", err)
	} else if got != 1 {
		t.Fatalf("expected searches=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "catalog_reconcile_rows_total", "outcome", "updated"); err != nil {
		t.Fatalf("fetch reconcile rows: %v", err)
	} else if got != 1 {
		t.Fatalf("expected updated=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "catalog_reconcile_duration_seconds", "result", "completed"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "catalog_snapshot_lookups_total", "result", "hit"); err != nil {
		t.Fatalf("fetch snapshot lookups: %v", err)
	} else if got != 1 {
		t.Fatalf("expected hits=1, got %f", got)
	}
}

func TestCatalogMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewCatalogMetrics(nil)
	metrics.IncSearch("local_scan")
	metrics.IncReconcileRow("created")
	metrics.ObserveReconcileDuration("cancelled", time.Second)
	metrics.IncSnapshotLookup("miss")

	var nilMetrics *CatalogMetrics
	nilMetrics.IncSearch("remote")
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
