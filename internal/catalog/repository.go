package catalog

import (
	"context"
	"errors"

	"github.com/partsdesk/partsdesk-backend/pkg/db"
	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the live Store backed by the relational database.
type Repository struct {
	client *db.Client
	db     *gorm.DB
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client, db: client.DB()}
}

// crossReferenceQuery returns the item owning the provider part number plus
// every item recorded as interchangeable with it.
const crossReferenceQuery = `
SELECT ci.* FROM catalog_items ci
WHERE LOWER(ci.provider_part_number) = LOWER(?)
UNION
SELECT rel.* FROM catalog_items rel
JOIN cross_references cr ON cr.related_item_id = rel.id
JOIN catalog_items src ON src.id = cr.item_id
WHERE LOWER(src.provider_part_number) = LOWER(?)
`

// FetchCatalogItems applies the non-zero equality/prefix filters. A zero
// query returns the whole catalog.
func (r *Repository) FetchCatalogItems(ctx context.Context, q ItemQuery) ([]models.CatalogItem, error) {
	tx := r.db.WithContext(ctx).Model(&models.CatalogItem{})
	if q.IDPrefix != "" {
		tx = tx.Where("LOWER(id) LIKE LOWER(?)", q.IDPrefix+"%")
	}
	if q.NamePrefix != "" {
		tx = tx.Where("LOWER(name) LIKE LOWER(?)", q.NamePrefix+"%")
	}
	if q.ProviderPartPrefix != "" {
		tx = tx.Where("LOWER(provider_part_number) LIKE LOWER(?)", q.ProviderPartPrefix+"%")
	}
	if q.BrandEquals != "" {
		tx = tx.Where("LOWER(brand) = LOWER(?)", q.BrandEquals)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.CatalogItem
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchCompatibilityAggregation serves both aggregation shapes: keyed by
// provider part number it embeds cross-referenced items; keyed by vehicle
// facets it joins fitments and intentionally leaves duplicate ids in place
// (one per matching variant) for the engines to dedupe.
func (r *Repository) FetchCompatibilityAggregation(ctx context.Context, q CompatibilityQuery) ([]models.CatalogItem, error) {
	var rows []models.CatalogItem

	if q.ProviderPartNumber != "" {
		if err := r.db.WithContext(ctx).
			Raw(crossReferenceQuery, q.ProviderPartNumber, q.ProviderPartNumber).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	tx := r.db.WithContext(ctx).Model(&models.CatalogItem{}).
		Select("catalog_items.*").
		Joins("JOIN vehicle_fitments vf ON vf.item_id = catalog_items.id")
	if q.Brand != "" {
		tx = tx.Where("LOWER(catalog_items.brand) = LOWER(?)", q.Brand)
	}
	if q.Model != "" {
		tx = tx.Where("LOWER(vf.model) = LOWER(?)", q.Model)
	}
	if q.Motorization != "" {
		tx = tx.Where("LOWER(vf.motorization) = LOWER(?)", q.Motorization)
	}
	if q.AssemblyPlant != "" {
		tx = tx.Where("LOWER(vf.assembly_plant) = LOWER(?)", q.AssemblyPlant)
	}

	if err := tx.Order("catalog_items.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FetchWarehouseStock(ctx context.Context, itemIDs []string) ([]models.WarehouseStock, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var rows []models.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchSuggestions is the cheap name-prefix projection behind type-ahead.
func (r *Repository) FetchSuggestions(ctx context.Context, term string, limit int) ([]models.CatalogItem, error) {
	var rows []models.CatalogItem
	if err := r.db.WithContext(ctx).Model(&models.CatalogItem{}).
		Select("id", "name", "brand", "price", "image_url").
		Where("LOWER(name) LIKE LOWER(?)", term+"%").
		Order("name").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindWarehouseStock(ctx context.Context, providerPartNumber, warehouseID string) (*models.WarehouseStock, error) {
	var row models.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("LOWER(provider_part_number) = LOWER(?) AND warehouse_id = ?", providerPartNumber, warehouseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) InsertWarehouseStock(ctx context.Context, row *models.WarehouseStock) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) UpdateWarehouseStock(ctx context.Context, row *models.WarehouseStock) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// ResolveByProviderPartNumber maps a supplier part number onto the catalog.
// The part number is not unique, so the lowest canonical id wins to keep
// reconciliation deterministic.
func (r *Repository) ResolveByProviderPartNumber(ctx context.Context, providerPartNumber string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("LOWER(provider_part_number) = LOWER(?)", providerPartNumber).
		Order("id").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) UpdateItem(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes the item and everything hanging off it in one
// transaction, warehouse rows first to respect referential ordering.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&models.WarehouseStock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ? OR related_item_id = ?", id, id).Delete(&models.CrossReference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.VehicleFitment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CatalogItem{}, "id = ?", id).Error
	})
}
