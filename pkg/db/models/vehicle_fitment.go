package models

// VehicleFitment marks a catalog item as compatible with one vehicle variant.
// An item usually carries several rows, which is why compatibility joins can
// return the same item more than once.
type VehicleFitment struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID        string `gorm:"column:item_id;not null;index"`
	AssemblyPlant string `gorm:"column:assembly_plant"`
	Model         string `gorm:"column:model"`
	Motorization  string `gorm:"column:motorization"`
}
