package catalog

import (
	"context"
	"strings"

	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdesk/partsdesk-backend/pkg/errors"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
)

type filterStore interface {
	FetchCatalogItems(ctx context.Context, q ItemQuery) ([]models.CatalogItem, error)
	FetchCompatibilityAggregation(ctx context.Context, q CompatibilityQuery) ([]models.CatalogItem, error)
}

// FilterEngine applies the structured facet filters, choosing between
// delegating to search, one compatibility aggregation call, a brand-filtered
// fetch, and the cached full snapshot. Remote failures here surface as
// engine-level errors so the caller can keep its previous result set.
type FilterEngine struct {
	store    filterStore
	search   *SearchEngine
	snapshot *Snapshot
	stock    *StockAggregator
	logg     *logger.Logger
}

func NewFilterEngine(store filterStore, search *SearchEngine, snapshot *Snapshot, stock *StockAggregator, logg *logger.Logger) *FilterEngine {
	return &FilterEngine{
		store:    store,
		search:   search,
		snapshot: snapshot,
		stock:    stock,
		logg:     logg,
	}
}

// Apply resolves the filter set into a list of items with stock attached.
// Decision order: a search term delegates entirely to the search engine; any
// vehicle facet triggers the compatibility aggregation; brand/category alone
// run a brand-filtered fetch; an empty filter set serves the cached snapshot.
func (f *FilterEngine) Apply(ctx context.Context, filters Filters, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var items []Item
	switch {
	case strings.TrimSpace(filters.Search) != "":
		found, err := f.search.Search(ctx, filters.Search, filters.Brand, limit)
		if err != nil {
			return nil, err
		}
		items = found

	case filters.hasVehicleFacet():
		rows, err := f.store.FetchCompatibilityAggregation(ctx, CompatibilityQuery{
			Brand:         filters.Brand,
			Model:         filters.Model,
			Motorization:  filters.Motorization,
			AssemblyPlant: filters.AssemblyPlant,
		})
		if err != nil {
			f.logg.Error(ctx, "compatibility aggregation failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compatibility aggregation")
		}
		// One row per matching vehicle variant; first occurrence wins.
		items, err = attachStock(ctx, f.stock, dedupeByID(rows))
		if err != nil {
			return nil, err
		}

	case filters.Brand != "" || filters.Category != "":
		rows, err := f.store.FetchCatalogItems(ctx, ItemQuery{BrandEquals: filters.Brand})
		if err != nil {
			f.logg.Error(ctx, "brand fetch failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch catalog by brand")
		}
		items, err = attachStock(ctx, f.stock, rows)
		if err != nil {
			return nil, err
		}

	default:
		rows, err := f.snapshot.Load(ctx)
		if err != nil {
			f.logg.Error(ctx, "catalog snapshot load failed", err)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog snapshot")
		}
		items, err = attachStock(ctx, f.stock, rows)
		if err != nil {
			return nil, err
		}
	}

	return applyPostFilters(items, filters), nil
}

// applyPostFilters narrows by category and visibility locally; the remote
// paths do not filter on either.
func applyPostFilters(items []Item, filters Filters) []Item {
	if filters.Category == "" && filters.Visible == nil {
		return items
	}
	out := items[:0:0]
	for _, item := range items {
		if filters.Category != "" && !strings.EqualFold(item.Category, filters.Category) {
			continue
		}
		if filters.Visible != nil && item.Visible != *filters.Visible {
			continue
		}
		out = append(out, item)
	}
	return out
}
