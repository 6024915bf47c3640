package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// Item is the catalog payload returned to clients, with aggregate stock
// attached. Stock is computed across warehouses, never persisted on the item.
type Item struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Brand              string          `json:"brand"`
	BrandCode          string          `json:"brand_code,omitempty"`
	Category           string          `json:"category,omitempty"`
	Description        string          `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	ProviderID         uuid.UUID       `json:"provider_id"`
	ProviderPartNumber *string         `json:"provider_part_number,omitempty"`
	ImageURL           *string         `json:"image_url,omitempty"`
	Visible            bool            `json:"visible"`
	Stock              int             `json:"stock"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewItem maps the persisted model into the client payload. Stock starts at
// zero; the engines attach the aggregate afterward.
func NewItem(m *models.CatalogItem) Item {
	return Item{
		ID:                 m.ID,
		Name:               m.Name,
		Brand:              m.Brand,
		BrandCode:          m.BrandCode,
		Category:           m.Category,
		Description:        m.Description,
		Price:              m.Price,
		ProviderID:         m.ProviderID,
		ProviderPartNumber: m.ProviderPartNumber,
		ImageURL:           m.ImageURL,
		Visible:            m.Visible,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// Suggestion is the ephemeral type-ahead projection of an item.
type Suggestion struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"image_url,omitempty"`
}

// NewSuggestion projects an item into its type-ahead shape.
func NewSuggestion(m *models.CatalogItem) Suggestion {
	return Suggestion{
		ID:       m.ID,
		Name:     m.Name,
		Brand:    m.Brand,
		Price:    m.Price,
		ImageURL: m.ImageURL,
	}
}

// Filters describe the structured facet knobs for the listing endpoint.
type Filters struct {
	Search        string `json:"search,omitempty"`
	Brand         string `json:"brand,omitempty"`
	Category      string `json:"category,omitempty"`
	Model         string `json:"model,omitempty"`
	Motorization  string `json:"motorization,omitempty"`
	AssemblyPlant string `json:"assembly_plant,omitempty"`
	Visible       *bool  `json:"visible,omitempty"`
}

func (f Filters) hasVehicleFacet() bool {
	return f.Model != "" || f.Motorization != "" || f.AssemblyPlant != ""
}

// ListInput captures pagination on top of the filter set.
type ListInput struct {
	Filters  Filters
	Page     int
	PageSize int
}

// ListResult carries one page plus a has-more probe inferred by fetching one
// row beyond the page boundary.
type ListResult struct {
	Items   []Item `json:"items"`
	Page    int    `json:"page"`
	HasMore bool   `json:"has_more"`
}

// CreateItemInput holds the validated payload to create a catalog item.
type CreateItemInput struct {
	ID                 string
	Name               string
	Brand              string
	BrandCode          string
	Category           string
	Description        string
	Price              decimal.Decimal
	ProviderID         uuid.UUID
	ProviderPartNumber *string
	ImageURL           *string
	Visible            bool
}

// UpdateItemInput holds optional mutation values for a catalog item. The
// canonical identifier is immutable and therefore absent here.
type UpdateItemInput struct {
	Name               *string
	Brand              *string
	BrandCode          *string
	Category           *string
	Description        *string
	Price              *decimal.Decimal
	ProviderPartNumber *string
	ImageURL           *string
	Visible            *bool
}

// ImportRow is one parsed spreadsheet line: provider part number, warehouse,
// target quantity. Consumed exactly once by the reconciler, never persisted.
type ImportRow struct {
	ProviderPartNumber string `json:"provider_part_number"`
	WarehouseID        string `json:"warehouse_id"`
	Quantity           int    `json:"quantity"`
	Reserved           *int   `json:"reserved,omitempty"`
}

// Progress reports cumulative reconciliation counts after every row.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Updated   int `json:"updated"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// ProgressFunc receives the running counts; invoked once per processed row.
type ProgressFunc func(Progress)

// ImportResult is the final shape handed back after a bulk import: counts for
// the rows that ran plus the validation messages for the rows that did not.
type ImportResult struct {
	Progress
	InvalidRows []string `json:"invalid_rows,omitempty"`
}
