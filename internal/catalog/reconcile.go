package catalog

import (
	"context"
	"fmt"

	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdesk/partsdesk-backend/pkg/errors"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
	"github.com/partsdesk/partsdesk-backend/pkg/metrics"
	"go.uber.org/multierr"
)

type reconcileStore interface {
	FindWarehouseStock(ctx context.Context, providerPartNumber, warehouseID string) (*models.WarehouseStock, error)
	InsertWarehouseStock(ctx context.Context, row *models.WarehouseStock) error
	UpdateWarehouseStock(ctx context.Context, row *models.WarehouseStock) error
	ResolveByProviderPartNumber(ctx context.Context, providerPartNumber string) (*models.CatalogItem, error)
}

// Reconciler applies a bulk stock file row by row: locate the warehouse row
// for (provider part number, warehouse) and overwrite it, or resolve the
// part number to a catalog item and insert a fresh row. Rows run strictly in
// input order so progress counts are monotonic and reproducible, and writes
// never contend with each other.
type Reconciler struct {
	store   reconcileStore
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

func NewReconciler(store reconcileStore, logg *logger.Logger, m *metrics.CatalogMetrics) *Reconciler {
	return &Reconciler{store: store, logg: logg, metrics: m}
}

// ValidateRows splits the batch into runnable rows and a combined error
// carrying one message per malformed row. Malformed rows never reach the
// reconciler; unwrap the error with multierr.Errors for the message list.
func (r *Reconciler) ValidateRows(rows []ImportRow) ([]ImportRow, error) {
	valid := make([]ImportRow, 0, len(rows))
	var invalid error
	for i, row := range rows {
		switch {
		case row.ProviderPartNumber == "":
			invalid = multierr.Append(invalid, fmt.Errorf("row %d: provider part number is required", i+1))
		case row.WarehouseID == "":
			invalid = multierr.Append(invalid, fmt.Errorf("row %d: warehouse is required", i+1))
		case row.Quantity < 0:
			invalid = multierr.Append(invalid, fmt.Errorf("row %d: quantity must be non-negative", i+1))
		case row.Reserved != nil && *row.Reserved < 0:
			invalid = multierr.Append(invalid, fmt.Errorf("row %d: reserved must be non-negative", i+1))
		default:
			valid = append(valid, row)
		}
	}
	return valid, invalid
}

// Reconcile runs the batch and reports cumulative counts after every row.
// Cancellation is cooperative: the context is checked before any side effect
// for a row, so an already-started row finishes and nothing is rolled back.
// A cancelled batch returns the counts applied so far alongside a
// CodeCancelled error, which callers must not present as a failure.
func (r *Reconciler) Reconcile(ctx context.Context, rows []ImportRow, onProgress ProgressFunc) (Progress, error) {
	progress := Progress{Total: len(rows)}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return progress, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "stock import cancelled")
		}

		outcome := r.applyRow(ctx, row)
		progress.Processed++
		switch outcome {
		case outcomeUpdated:
			progress.Updated++
		case outcomeCreated:
			progress.Created++
		default:
			progress.Skipped++
		}
		r.metrics.IncReconcileRow(string(outcome))

		if onProgress != nil {
			onProgress(progress)
		}
	}
	return progress, nil
}

type outcome string

const (
	outcomeUpdated outcome = "updated"
	outcomeCreated outcome = "created"
	outcomeSkipped outcome = "skipped"
)

// applyRow walks the per-row state machine. Every failure path is a skip;
// a single bad row is never fatal to the batch.
func (r *Reconciler) applyRow(ctx context.Context, row ImportRow) outcome {
	existing, err := r.store.FindWarehouseStock(ctx, row.ProviderPartNumber, row.WarehouseID)
	if err != nil {
		r.logg.Error(ctx, "warehouse row lookup failed", err)
		return outcomeSkipped
	}

	if existing != nil {
		existing.OnHand = row.Quantity
		if row.Reserved != nil {
			existing.Reserved = *row.Reserved
		}
		if err := r.store.UpdateWarehouseStock(ctx, existing); err != nil {
			r.logg.Error(ctx, "warehouse row update failed", err)
			return outcomeSkipped
		}
		return outcomeUpdated
	}

	// The provider part number is denormalized, not a stable join key, so a
	// missing row means resolving against the catalog before inserting. An
	// unrecognized part number cannot fabricate a catalog item.
	item, err := r.store.ResolveByProviderPartNumber(ctx, row.ProviderPartNumber)
	if err != nil {
		r.logg.Error(ctx, "provider part number resolution failed", err)
		return outcomeSkipped
	}
	if item == nil {
		return outcomeSkipped
	}

	reserved := 0
	if row.Reserved != nil {
		reserved = *row.Reserved
	}
	fresh := &models.WarehouseStock{
		ItemID:             item.ID,
		WarehouseID:        row.WarehouseID,
		OnHand:             row.Quantity,
		Reserved:           reserved,
		ProviderPartNumber: &row.ProviderPartNumber,
	}
	if err := r.store.InsertWarehouseStock(ctx, fresh); err != nil {
		r.logg.Error(ctx, "warehouse row insert failed", err)
		return outcomeSkipped
	}
	return outcomeCreated
}
