package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records counters for the search and reconciliation engines.
type CatalogMetrics struct {
	searches          *prometheus.CounterVec
	reconcileRows     *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	snapshotLookups   *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder so engines never need nil checks.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_searches_total",
		Help: "Catalog searches served, labeled by the strategy that answered.",
	}, []string{"strategy"})
	reconcileRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_reconcile_rows_total",
		Help: "Bulk reconciliation rows processed, labeled by outcome.",
	}, []string{"outcome"})
	reconcileDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_reconcile_duration_seconds",
		Help:    "Duration of bulk reconciliation batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	snapshotLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_snapshot_lookups_total",
		Help: "Catalog snapshot cache lookups, labeled hit or miss.",
	}, []string{"result"})
	reg.MustRegister(searches, reconcileRows, reconcileDuration, snapshotLookups)
	return &CatalogMetrics{
		searches:          searches,
		reconcileRows:     reconcileRows,
		reconcileDuration: reconcileDuration,
		snapshotLookups:   snapshotLookups,
	}
}

// IncSearch increments the search counter for the named strategy.
func (c *CatalogMetrics) IncSearch(strategy string) {
	if c == nil || c.searches == nil {
		return
	}
	c.searches.WithLabelValues(normalizeLabel(strategy)).Inc()
}

// IncReconcileRow increments the row counter for the named outcome.
func (c *CatalogMetrics) IncReconcileRow(outcome string) {
	if c == nil || c.reconcileRows == nil {
		return
	}
	c.reconcileRows.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReconcileDuration records how long a batch took, by final result.
func (c *CatalogMetrics) ObserveReconcileDuration(result string, duration time.Duration) {
	if c == nil || c.reconcileDuration == nil {
		return
	}
	c.reconcileDuration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncSnapshotLookup counts a snapshot cache hit or miss.
func (c *CatalogMetrics) IncSnapshotLookup(result string) {
	if c == nil || c.snapshotLookups == nil {
		return
	}
	c.snapshotLookups.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
