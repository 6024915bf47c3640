package catalog

import (
	"context"

	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
)

// ItemQuery describes the equality/prefix filters the backing store supports
// on catalog items. Zero-value fields are not applied; a zero-value query
// returns the full catalog.
type ItemQuery struct {
	IDPrefix           string
	NamePrefix         string
	ProviderPartPrefix string
	BrandEquals        string
	Limit              int
}

// CompatibilityQuery feeds the single compatibility-aware aggregation call.
// When ProviderPartNumber is set, the result also embeds items cross-referenced
// to the matched one. Compatibility joins may return duplicate canonical ids,
// one per matching vehicle variant.
type CompatibilityQuery struct {
	Brand              string
	Model              string
	Motorization       string
	AssemblyPlant      string
	ProviderPartNumber string
}

// Store is the opaque capability surface the engines consume. The gorm
// repository is the live implementation; tests substitute in-memory fakes.
// Lookups that can legitimately come up empty return (nil, nil) rather than
// a not-found error, so absence never reads as a dependency failure.
type Store interface {
	FetchCatalogItems(ctx context.Context, q ItemQuery) ([]models.CatalogItem, error)
	FetchCompatibilityAggregation(ctx context.Context, q CompatibilityQuery) ([]models.CatalogItem, error)
	FetchWarehouseStock(ctx context.Context, itemIDs []string) ([]models.WarehouseStock, error)
	FetchSuggestions(ctx context.Context, term string, limit int) ([]models.CatalogItem, error)

	FindWarehouseStock(ctx context.Context, providerPartNumber, warehouseID string) (*models.WarehouseStock, error)
	InsertWarehouseStock(ctx context.Context, row *models.WarehouseStock) error
	UpdateWarehouseStock(ctx context.Context, row *models.WarehouseStock) error
	ResolveByProviderPartNumber(ctx context.Context, providerPartNumber string) (*models.CatalogItem, error)

	FindItemByID(ctx context.Context, id string) (*models.CatalogItem, error)
	CreateItem(ctx context.Context, item *models.CatalogItem) error
	UpdateItem(ctx context.Context, item *models.CatalogItem) error
	DeleteItem(ctx context.Context, id string) error
}
