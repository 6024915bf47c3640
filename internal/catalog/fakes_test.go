package catalog

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/partsdesk/partsdesk-backend/pkg/cache"
	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
)

// fakeStore is an in-memory Store mirroring the repository's semantics so
// engine and service tests run without a database.
type fakeStore struct {
	items    []models.CatalogItem
	stock    []models.WarehouseStock
	crossRef []models.CrossReference
	fitments []models.VehicleFitment

	catalogErr error
	compatErr  error
	stockErr   error
	suggestErr error
	findErr    error
	resolveErr error
	insertErr  error
	updateErr  error
	itemErr    error

	catalogCalls int
	compatCalls  int
	stockCalls   int
	inserted     []models.WarehouseStock
	updated      []models.WarehouseStock
	deletedIDs   []string
}

func (f *fakeStore) FetchCatalogItems(_ context.Context, q ItemQuery) ([]models.CatalogItem, error) {
	f.catalogCalls++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	var out []models.CatalogItem
	for _, item := range f.items {
		if q.IDPrefix != "" && !foldPrefix(item.ID, q.IDPrefix) {
			continue
		}
		if q.NamePrefix != "" && !foldPrefix(item.Name, q.NamePrefix) {
			continue
		}
		if q.ProviderPartPrefix != "" && (item.ProviderPartNumber == nil || !foldPrefix(*item.ProviderPartNumber, q.ProviderPartPrefix)) {
			continue
		}
		if q.BrandEquals != "" && !strings.EqualFold(item.Brand, q.BrandEquals) {
			continue
		}
		out = append(out, item)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) FetchCompatibilityAggregation(_ context.Context, q CompatibilityQuery) ([]models.CatalogItem, error) {
	f.compatCalls++
	if f.compatErr != nil {
		return nil, f.compatErr
	}

	if q.ProviderPartNumber != "" {
		var out []models.CatalogItem
		for _, item := range f.items {
			if item.ProviderPartNumber != nil && strings.EqualFold(*item.ProviderPartNumber, q.ProviderPartNumber) {
				out = append(out, item)
				for _, xr := range f.crossRef {
					if xr.ItemID == item.ID {
						if related := f.itemByID(xr.RelatedItemID); related != nil {
							out = append(out, *related)
						}
					}
				}
			}
		}
		return out, nil
	}

	// One row per matching fitment, duplicates included.
	var out []models.CatalogItem
	for _, fit := range f.fitments {
		if q.Model != "" && !strings.EqualFold(fit.Model, q.Model) {
			continue
		}
		if q.Motorization != "" && !strings.EqualFold(fit.Motorization, q.Motorization) {
			continue
		}
		if q.AssemblyPlant != "" && !strings.EqualFold(fit.AssemblyPlant, q.AssemblyPlant) {
			continue
		}
		item := f.itemByID(fit.ItemID)
		if item == nil {
			continue
		}
		if q.Brand != "" && !strings.EqualFold(item.Brand, q.Brand) {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeStore) FetchWarehouseStock(_ context.Context, itemIDs []string) ([]models.WarehouseStock, error) {
	f.stockCalls++
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	wanted := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	var out []models.WarehouseStock
	for _, row := range f.stock {
		if _, ok := wanted[row.ItemID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) FetchSuggestions(_ context.Context, term string, limit int) ([]models.CatalogItem, error) {
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	var out []models.CatalogItem
	for _, item := range f.items {
		if !foldPrefix(item.Name, term) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) FindWarehouseStock(_ context.Context, providerPartNumber, warehouseID string) (*models.WarehouseStock, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i, row := range f.stock {
		if row.WarehouseID != warehouseID || row.ProviderPartNumber == nil {
			continue
		}
		if strings.EqualFold(*row.ProviderPartNumber, providerPartNumber) {
			return &f.stock[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertWarehouseStock(_ context.Context, row *models.WarehouseStock) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.stock = append(f.stock, *row)
	f.inserted = append(f.inserted, *row)
	return nil
}

func (f *fakeStore) UpdateWarehouseStock(_ context.Context, row *models.WarehouseStock) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.stock {
		if f.stock[i].ItemID == row.ItemID && f.stock[i].WarehouseID == row.WarehouseID {
			f.stock[i] = *row
		}
	}
	f.updated = append(f.updated, *row)
	return nil
}

func (f *fakeStore) ResolveByProviderPartNumber(_ context.Context, providerPartNumber string) (*models.CatalogItem, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	var matches []models.CatalogItem
	for _, item := range f.items {
		if item.ProviderPartNumber != nil && strings.EqualFold(*item.ProviderPartNumber, providerPartNumber) {
			matches = append(matches, item)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return &matches[0], nil
}

func (f *fakeStore) FindItemByID(_ context.Context, id string) (*models.CatalogItem, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	item := f.itemByID(id)
	if item == nil {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (f *fakeStore) CreateItem(_ context.Context, item *models.CatalogItem) error {
	if f.itemErr != nil {
		return f.itemErr
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeStore) UpdateItem(_ context.Context, item *models.CatalogItem) error {
	if f.itemErr != nil {
		return f.itemErr
	}
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = *item
		}
	}
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id string) error {
	if f.itemErr != nil {
		return f.itemErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	keptStock := f.stock[:0]
	for _, row := range f.stock {
		if row.ItemID != id {
			keptStock = append(keptStock, row)
		}
	}
	f.stock = keptStock
	return nil
}

func (f *fakeStore) itemByID(id string) *models.CatalogItem {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i]
		}
	}
	return nil
}

func foldPrefix(value, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(value), strings.ToLower(prefix))
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
}

// testEngines wires the full engine stack over a fake store with a
// controllable clock on the snapshot cache.
type testEngines struct {
	store      *fakeStore
	snapshot   *Snapshot
	stock      *StockAggregator
	search     *SearchEngine
	filter     *FilterEngine
	reconciler *Reconciler
}

func newTestEngines(store *fakeStore) *testEngines {
	logg := testLogger()
	snapshot := NewSnapshot(store, cache.New[[]models.CatalogItem](), 15*time.Minute, nil)
	stock := NewStockAggregator(store, logg)
	search := NewSearchEngine(store, snapshot, stock, logg, nil, time.Second)
	filter := NewFilterEngine(store, search, snapshot, stock, logg)
	reconciler := NewReconciler(store, logg, nil)
	return &testEngines{
		store:      store,
		snapshot:   snapshot,
		stock:      stock,
		search:     search,
		filter:     filter,
		reconciler: reconciler,
	}
}

func (e *testEngines) warmSnapshot(t *testing.T) {
	t.Helper()
	if _, err := e.snapshot.Load(context.Background()); err != nil {
		t.Fatalf("warm snapshot: %v", err)
	}
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
