package models

import "time"

// WarehouseStock tracks on-hand/reserved counts for one catalog item at one
// warehouse. The provider part number is denormalized so bulk stock files can
// be reconciled without joining through catalog_items.
type WarehouseStock struct {
	ItemID             string    `gorm:"column:item_id;primaryKey"`
	WarehouseID        string    `gorm:"column:warehouse_id;primaryKey"`
	OnHand             int       `gorm:"column:on_hand;not null;default:0"`
	Reserved           int       `gorm:"column:reserved;not null;default:0"`
	ProviderPartNumber *string   `gorm:"column:provider_part_number"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
