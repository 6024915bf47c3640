package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// stockBatchSize keeps each warehouse lookup inside backend request limits.
const stockBatchSize = 100

type stockReader interface {
	FetchWarehouseStock(ctx context.Context, itemIDs []string) ([]models.WarehouseStock, error)
}

// StockAggregator computes total on-hand stock per catalog item by summing
// warehouse rows, batching lookups and tolerating per-batch failures.
type StockAggregator struct {
	store stockReader
	logg  *logger.Logger
}

func NewStockAggregator(store stockReader, logg *logger.Logger) *StockAggregator {
	return &StockAggregator{store: store, logg: logg}
}

// Aggregate returns a map with exactly one entry per distinct input id. Ids
// with no warehouse rows are present with value 0, never absent. Batches are
// independent read-only fetches and run concurrently; a failed batch is
// logged and contributes nothing rather than aborting the aggregation.
func (a *StockAggregator) Aggregate(ctx context.Context, itemIDs []string) (map[string]int, error) {
	totals := make(map[string]int, len(itemIDs))
	distinct := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, seen := totals[id]; seen {
			continue
		}
		totals[id] = 0
		distinct = append(distinct, id)
	}
	if len(distinct) == 0 {
		return totals, nil
	}

	var mu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(distinct); start += stockBatchSize {
		end := start + stockBatchSize
		if end > len(distinct) {
			end = len(distinct)
		}
		batch := distinct[start:end]

		grp.Go(func() error {
			rows, err := a.fetchBatch(grpCtx, batch)
			if err != nil {
				a.logg.Error(grpCtx, "stock batch fetch failed", err)
				return nil
			}
			mu.Lock()
			for _, row := range rows {
				totals[row.ItemID] += row.OnHand
			}
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return totals, err
	}
	if err := ctx.Err(); err != nil {
		return totals, err
	}
	return totals, nil
}

// attachStock maps rows into client items carrying their aggregate stock.
func attachStock(ctx context.Context, agg *StockAggregator, rows []models.CatalogItem) ([]Item, error) {
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	totals, err := agg.Aggregate(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(rows))
	for i := range rows {
		item := NewItem(&rows[i])
		item.Stock = totals[item.ID]
		items[i] = item
	}
	return items, nil
}

// fetchBatch retries transient read failures a couple of times; the read is
// idempotent so retrying is safe.
func (a *StockAggregator) fetchBatch(ctx context.Context, batch []string) ([]models.WarehouseStock, error) {
	var rows []models.WarehouseStock
	backoff := retry.WithMaxRetries(2, retry.NewConstant(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := a.store.FetchWarehouseStock(ctx, batch)
		if err != nil {
			return retry.RetryableError(err)
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
