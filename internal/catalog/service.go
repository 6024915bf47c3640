package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partsdesk/partsdesk-backend/pkg/db"
	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	pkgerrors "github.com/partsdesk/partsdesk-backend/pkg/errors"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
	"github.com/partsdesk/partsdesk-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service exposes catalog management operations to the API layer.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error)
	Create(ctx context.Context, input CreateItemInput) (*Item, error)
	Update(ctx context.Context, id string, input UpdateItemInput) (*Item, error)
	Delete(ctx context.Context, id string) error
	SetVisibility(ctx context.Context, id string, visible bool) (*Item, error)
	Import(ctx context.Context, rows []ImportRow, onProgress ProgressFunc) (*ImportResult, error)
}

type service struct {
	store      Store
	filter     *FilterEngine
	search     *SearchEngine
	reconciler *Reconciler
	snapshot   *Snapshot
	logg       *logger.Logger
	metrics    *metrics.CatalogMetrics
}

// NewService constructs the catalog service.
func NewService(store Store, filter *FilterEngine, search *SearchEngine, reconciler *Reconciler, snapshot *Snapshot, logg *logger.Logger, m *metrics.CatalogMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if filter == nil {
		return nil, fmt.Errorf("filter engine required")
	}
	if search == nil {
		return nil, fmt.Errorf("search engine required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:      store,
		filter:     filter,
		search:     search,
		reconciler: reconciler,
		snapshot:   snapshot,
		logg:       logg,
		metrics:    m,
	}, nil
}

// List resolves the filter set and returns one page. Whether more pages
// exist is inferred by asking the engines for one row beyond the page
// boundary instead of a count round trip.
func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := s.filter.Apply(ctx, input.Filters, page*pageSize+1)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return &ListResult{Items: []Item{}, Page: page}, nil
	}
	end := start + pageSize
	hasMore := len(items) > end
	if end > len(items) {
		end = len(items)
	}
	return &ListResult{Items: items[start:end], Page: page, HasMore: hasMore}, nil
}

func (s *service) Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	return s.search.Suggest(ctx, term, limit)
}

// Create inserts a new catalog item under a caller-chosen canonical id.
func (s *service) Create(ctx context.Context, input CreateItemInput) (*Item, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Name = strings.TrimSpace(input.Name)
	if input.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	item := &models.CatalogItem{
		ID:                 input.ID,
		Name:               input.Name,
		Brand:              input.Brand,
		BrandCode:          input.BrandCode,
		Category:           input.Category,
		Description:        input.Description,
		Price:              input.Price,
		ProviderID:         input.ProviderID,
		ProviderPartNumber: input.ProviderPartNumber,
		ImageURL:           input.ImageURL,
		Visible:            input.Visible,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "catalog id already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert catalog item")
	}
	s.snapshot.Invalidate()

	dto := NewItem(item)
	return &dto, nil
}

// Update mutates an existing item. The canonical id is immutable.
func (s *service) Update(ctx context.Context, id string, input UpdateItemInput) (*Item, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	applyUpdateToItem(item, input)
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update catalog item")
	}
	s.snapshot.Invalidate()

	dto := NewItem(item)
	return &dto, nil
}

// Delete removes the item together with its warehouse rows.
func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.loadItem(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete catalog item")
	}
	s.snapshot.Invalidate()
	return nil
}

// SetVisibility toggles whether the item shows up in storefront listings.
func (s *service) SetVisibility(ctx context.Context, id string, visible bool) (*Item, error) {
	item, err := s.loadItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Visible = visible
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update catalog item")
	}
	s.snapshot.Invalidate()

	dto := NewItem(item)
	return &dto, nil
}

// Import validates and reconciles a bulk stock file. Malformed rows are
// excluded up front and reported as messages; the rest run sequentially.
// A cancelled batch still returns the counts applied so far, alongside the
// cancellation error the API layer renders neutrally.
func (s *service) Import(ctx context.Context, rows []ImportRow, onProgress ProgressFunc) (*ImportResult, error) {
	ctx = s.logg.WithImportID(ctx, uuid.NewString())

	valid, invalid := s.reconciler.ValidateRows(rows)
	messages := validationMessages(invalid)

	startedAt := time.Now()
	progress, err := s.reconciler.Reconcile(ctx, valid, onProgress)

	result := "completed"
	if err != nil {
		result = "cancelled"
		if !pkgerrors.IsCancelled(err) {
			result = "failed"
		}
	}
	s.metrics.ObserveReconcileDuration(result, time.Since(startedAt))

	// Applied rows are not rolled back on cancellation, so the snapshot is
	// stale either way.
	if progress.Processed > 0 {
		s.snapshot.Invalidate()
	}

	return &ImportResult{Progress: progress, InvalidRows: messages}, err
}

func (s *service) loadItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, err := s.store.FindItemByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load catalog item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
	}
	return item, nil
}

func applyUpdateToItem(item *models.CatalogItem, input UpdateItemInput) {
	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Brand != nil {
		item.Brand = *input.Brand
	}
	if input.BrandCode != nil {
		item.BrandCode = *input.BrandCode
	}
	if input.Category != nil {
		item.Category = *input.Category
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.ProviderPartNumber != nil {
		item.ProviderPartNumber = input.ProviderPartNumber
	}
	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}
	if input.Visible != nil {
		item.Visible = *input.Visible
	}
}

func validationMessages(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Error()
	}
	return messages
}
