package models

import "time"

// CrossReference records an equivalence between two catalog items, e.g.
// interchangeable parts from different brands.
type CrossReference struct {
	ItemID        string    `gorm:"column:item_id;primaryKey"`
	RelatedItemID string    `gorm:"column:related_item_id;primaryKey"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
