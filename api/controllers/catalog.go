package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsdesk/partsdesk-backend/api/responses"
	"github.com/partsdesk/partsdesk-backend/api/validators"
	catalogsvc "github.com/partsdesk/partsdesk-backend/internal/catalog"
	pkgerrors "github.com/partsdesk/partsdesk-backend/pkg/errors"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
)

const (
	maxListPageSize  = 100
	maxSuggestLimit  = 25
	defaultSuggested = 10
)

// ListCatalog serves the filtered, ranked catalog listing.
func ListCatalog(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 0, 0, maxListPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		visible, err := parseStatusFilter(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := catalogsvc.ListInput{
			Filters: catalogsvc.Filters{
				Search:        strings.TrimSpace(query.Get("search")),
				Brand:         strings.TrimSpace(query.Get("brand")),
				Category:      strings.TrimSpace(query.Get("category")),
				Model:         strings.TrimSpace(query.Get("model")),
				Motorization:  strings.TrimSpace(query.Get("motorization")),
				AssemblyPlant: strings.TrimSpace(query.Get("assembly_plant")),
				Visible:       visible,
			},
			Page:     page,
			PageSize: pageSize,
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SuggestCatalog serves lightweight type-ahead suggestions.
func SuggestCatalog(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultSuggested, 1, maxSuggestLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		term := strings.TrimSpace(r.URL.Query().Get("q"))
		suggestions, err := svc.Suggest(r.Context(), term, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if suggestions == nil {
			suggestions = []catalogsvc.Suggestion{}
		}

		responses.WriteSuccess(w, suggestions)
	}
}

// CreateCatalogItem handles manual item creation by back-office operators.
func CreateCatalogItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCatalogItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateCatalogItem applies a partial update to an existing item.
func UpdateCatalogItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateCatalogItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Update(r.Context(), id, payload.toUpdateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// DeleteCatalogItem removes an item along with its stock and references.
func DeleteCatalogItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SetCatalogVisibility toggles whether an item is shown to resellers.
func SetCatalogVisibility(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload setVisibilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Visible == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "visible is required"))
			return
		}

		item, err := svc.SetVisibility(r.Context(), id, *payload.Visible)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ImportCatalogStock reconciles a batch of warehouse stock rows. A cancelled
// batch still reports the counts accumulated before the disconnect.
func ImportCatalogStock(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload importStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Import(r.Context(), payload.Rows, nil)
		if err != nil {
			if pkgerrors.IsCancelled(err) && result != nil {
				responses.WriteSuccess(w, importStockResponse{ImportResult: *result, Cancelled: true})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, importStockResponse{ImportResult: *result})
	}
}

// parseStatusFilter maps the listing's status facet onto the visibility flag.
// An empty or "all" status applies no constraint.
func parseStatusFilter(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return nil, nil
	case "visible":
		v := true
		return &v, nil
	case "hidden":
		v := false
		return &v, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of visible, hidden, all").
		WithDetails(map[string]any{"field": "status"})
}

type createCatalogItemRequest struct {
	ID                 string          `json:"id" validate:"required"`
	Name               string          `json:"name" validate:"required"`
	Brand              string          `json:"brand" validate:"required"`
	BrandCode          string          `json:"brand_code,omitempty"`
	Category           string          `json:"category,omitempty"`
	Description        string          `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	ProviderID         string          `json:"provider_id,omitempty"`
	ProviderPartNumber *string         `json:"provider_part_number,omitempty"`
	ImageURL           *string         `json:"image_url,omitempty"`
	Visible            *bool           `json:"visible,omitempty"`
}

func (r createCatalogItemRequest) toCreateInput() (catalogsvc.CreateItemInput, error) {
	var providerID uuid.UUID
	if trimmed := strings.TrimSpace(r.ProviderID); trimmed != "" {
		parsed, err := uuid.Parse(trimmed)
		if err != nil {
			return catalogsvc.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider id")
		}
		providerID = parsed
	}

	visible := true
	if r.Visible != nil {
		visible = *r.Visible
	}

	return catalogsvc.CreateItemInput{
		ID:                 strings.TrimSpace(r.ID),
		Name:               strings.TrimSpace(r.Name),
		Brand:              strings.TrimSpace(r.Brand),
		BrandCode:          strings.TrimSpace(r.BrandCode),
		Category:           strings.TrimSpace(r.Category),
		Description:        r.Description,
		Price:              r.Price,
		ProviderID:         providerID,
		ProviderPartNumber: r.ProviderPartNumber,
		ImageURL:           r.ImageURL,
		Visible:            visible,
	}, nil
}

type updateCatalogItemRequest struct {
	Name               *string          `json:"name,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	BrandCode          *string          `json:"brand_code,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	ProviderPartNumber *string          `json:"provider_part_number,omitempty"`
	ImageURL           *string          `json:"image_url,omitempty"`
	Visible            *bool            `json:"visible,omitempty"`
}

func (r updateCatalogItemRequest) toUpdateInput() catalogsvc.UpdateItemInput {
	return catalogsvc.UpdateItemInput{
		Name:               r.Name,
		Brand:              r.Brand,
		BrandCode:          r.BrandCode,
		Category:           r.Category,
		Description:        r.Description,
		Price:              r.Price,
		ProviderPartNumber: r.ProviderPartNumber,
		ImageURL:           r.ImageURL,
		Visible:            r.Visible,
	}
}

type setVisibilityRequest struct {
	Visible *bool `json:"visible"`
}

type importStockRequest struct {
	Rows []catalogsvc.ImportRow `json:"rows" validate:"required,min=1"`
}

type importStockResponse struct {
	catalogsvc.ImportResult
	Cancelled bool `json:"cancelled,omitempty"`
}
