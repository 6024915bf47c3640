package catalog

import (
	"context"
	"time"

	"github.com/partsdesk/partsdesk-backend/pkg/cache"
	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"github.com/partsdesk/partsdesk-backend/pkg/metrics"
)

// snapshotKey is the only key the snapshot cache holds.
const snapshotKey = "catalog:snapshot"

type catalogLoader interface {
	FetchCatalogItems(ctx context.Context, q ItemQuery) ([]models.CatalogItem, error)
}

// Snapshot memoizes the full unfiltered catalog so navigating back to the
// listing does not refetch it. Entries expire lazily; every catalog mutation
// invalidates the snapshot so the next load is fresh.
type Snapshot struct {
	store   catalogLoader
	cache   *cache.Cache[[]models.CatalogItem]
	ttl     time.Duration
	metrics *metrics.CatalogMetrics
}

func NewSnapshot(store catalogLoader, c *cache.Cache[[]models.CatalogItem], ttl time.Duration, m *metrics.CatalogMetrics) *Snapshot {
	return &Snapshot{store: store, cache: c, ttl: ttl, metrics: m}
}

// Load returns the cached catalog, fetching and caching it on a miss.
func (s *Snapshot) Load(ctx context.Context) ([]models.CatalogItem, error) {
	if items, ok := s.cache.Get(snapshotKey); ok {
		s.metrics.IncSnapshotLookup("hit")
		return items, nil
	}
	s.metrics.IncSnapshotLookup("miss")

	items, err := s.store.FetchCatalogItems(ctx, ItemQuery{})
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotKey, items, s.ttl)
	return items, nil
}

// Peek returns the already-loaded catalog without going remote; nil when the
// snapshot is absent or expired. Search uses this for its local scan so a
// degraded backend never turns a local pass into a remote call.
func (s *Snapshot) Peek() []models.CatalogItem {
	items, ok := s.cache.Get(snapshotKey)
	if !ok {
		return nil
	}
	return items
}

// Invalidate drops the snapshot; called after every catalog mutation.
func (s *Snapshot) Invalidate() {
	s.cache.Invalidate(snapshotKey)
}
