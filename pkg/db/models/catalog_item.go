package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem is the canonical product record. The ID is the catalog's own
// stable key and is never reused; the provider part number is a supplier
// identifier and is not unique across the catalog.
type CatalogItem struct {
	ID                 string           `gorm:"column:id;primaryKey"`
	Name               string           `gorm:"column:name;not null"`
	Brand              string           `gorm:"column:brand;not null"`
	BrandCode          string           `gorm:"column:brand_code"`
	Category           string           `gorm:"column:category"`
	Description        string           `gorm:"column:description"`
	Price              decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	ProviderID         uuid.UUID        `gorm:"column:provider_id;type:uuid;not null"`
	ProviderPartNumber *string          `gorm:"column:provider_part_number"`
	ImageURL           *string          `gorm:"column:image_url"`
	Visible            bool             `gorm:"column:visible;not null;default:true"`
	Stock              []WarehouseStock `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Fitments           []VehicleFitment `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
