package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	catalogsvc "github.com/partsdesk/partsdesk-backend/internal/catalog"
	pkgerrors "github.com/partsdesk/partsdesk-backend/pkg/errors"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
)

type fakeCatalogService struct {
	listInput    catalogsvc.ListInput
	listResult   *catalogsvc.ListResult
	listErr      error
	suggestTerm  string
	suggestLimit int
	suggestions  []catalogsvc.Suggestion
	createInput  catalogsvc.CreateItemInput
	createItem   *catalogsvc.Item
	createErr    error
	updateID     string
	updateInput  catalogsvc.UpdateItemInput
	updateItem   *catalogsvc.Item
	updateErr    error
	deletedID    string
	deleteErr    error
	visibilityID string
	visibility   bool
	importRows   []catalogsvc.ImportRow
	importResult *catalogsvc.ImportResult
	importErr    error
}

func (f *fakeCatalogService) List(_ context.Context, input catalogsvc.ListInput) (*catalogsvc.ListResult, error) {
	f.listInput = input
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &catalogsvc.ListResult{Items: []catalogsvc.Item{}, Page: input.Page}, nil
}

func (f *fakeCatalogService) Suggest(_ context.Context, term string, limit int) ([]catalogsvc.Suggestion, error) {
	f.suggestTerm = term
	f.suggestLimit = limit
	return f.suggestions, nil
}

func (f *fakeCatalogService) Create(_ context.Context, input catalogsvc.CreateItemInput) (*catalogsvc.Item, error) {
	f.createInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createItem != nil {
		return f.createItem, nil
	}
	item := catalogsvc.Item{ID: input.ID, Name: input.Name, Brand: input.Brand, Price: input.Price}
	return &item, nil
}

func (f *fakeCatalogService) Update(_ context.Context, id string, input catalogsvc.UpdateItemInput) (*catalogsvc.Item, error) {
	f.updateID = id
	f.updateInput = input
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateItem != nil {
		return f.updateItem, nil
	}
	return &catalogsvc.Item{ID: id}, nil
}

func (f *fakeCatalogService) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeCatalogService) SetVisibility(_ context.Context, id string, visible bool) (*catalogsvc.Item, error) {
	f.visibilityID = id
	f.visibility = visible
	return &catalogsvc.Item{ID: id, Visible: visible}, nil
}

func (f *fakeCatalogService) Import(_ context.Context, rows []catalogsvc.ImportRow, _ catalogsvc.ProgressFunc) (*catalogsvc.ImportResult, error) {
	f.importRows = rows
	return f.importResult, f.importErr
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newCatalogTestRouter(svc catalogsvc.Service) http.Handler {
	logg := testControllerLogger()
	r := chi.NewRouter()
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", ListCatalog(svc, logg))
		r.Get("/suggest", SuggestCatalog(svc, logg))
		r.Post("/", CreateCatalogItem(svc, logg))
		r.Put("/{id}", UpdateCatalogItem(svc, logg))
		r.Delete("/{id}", DeleteCatalogItem(svc, logg))
		r.Post("/{id}/visibility", SetCatalogVisibility(svc, logg))
		r.Post("/import", ImportCatalogStock(svc, logg))
	})
	return r
}

func TestListCatalogParsesQuery(t *testing.T) {
	svc := &fakeCatalogService{}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?search=brake&brand=Bosch&model=Clio&status=visible&page=2&page_size=25", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	got := svc.listInput
	if got.Filters.Search != "brake" || got.Filters.Brand != "Bosch" || got.Filters.Model != "Clio" {
		t.Fatalf("unexpected filters: %+v", got.Filters)
	}
	if got.Filters.Visible == nil || !*got.Filters.Visible {
		t.Fatalf("expected visible=true, got %v", got.Filters.Visible)
	}
	if got.Page != 2 || got.PageSize != 25 {
		t.Fatalf("expected page 2 size 25, got %d/%d", got.Page, got.PageSize)
	}
}

func TestListCatalogRejectsBadPagination(t *testing.T) {
	svc := &fakeCatalogService{}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?page=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListCatalogStatusFilter(t *testing.T) {
	t.Run("hidden", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?status=hidden", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if svc.listInput.Filters.Visible == nil || *svc.listInput.Filters.Visible {
			t.Fatalf("expected visible=false, got %v", svc.listInput.Filters.Visible)
		}
	})

	t.Run("all", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?status=all", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if svc.listInput.Filters.Visible != nil {
			t.Fatalf("expected no visibility constraint, got %v", *svc.listInput.Filters.Visible)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?status=archived", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSuggestCatalogDefaultsLimit(t *testing.T) {
	svc := &fakeCatalogService{}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/suggest?q=bra", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if svc.suggestTerm != "bra" || svc.suggestLimit != defaultSuggested {
		t.Fatalf("suggest called with %q/%d", svc.suggestTerm, svc.suggestLimit)
	}
	var envelope struct {
		Data []catalogsvc.Suggestion `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data == nil {
		t.Fatal("expected empty array, not null")
	}
}

func TestCreateCatalogItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		body := `{"id":" SKU1 ","name":"Brake Pad","brand":"Bosch","price":"19.90"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
		}
		if svc.createInput.ID != "SKU1" {
			t.Fatalf("expected trimmed id, got %q", svc.createInput.ID)
		}
		if !svc.createInput.Price.Equal(decimal.RequireFromString("19.90")) {
			t.Fatalf("price %s", svc.createInput.Price)
		}
		if !svc.createInput.Visible {
			t.Fatal("visible should default to true")
		}
	})

	t.Run("missingName", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog", strings.NewReader(`{"id":"SKU1","brand":"Bosch"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicateID", func(t *testing.T) {
		svc := &fakeCatalogService{createErr: pkgerrors.New(pkgerrors.CodeConflict, "item already exists")}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog", strings.NewReader(`{"id":"SKU1","name":"Brake Pad","brand":"Bosch"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestUpdateCatalogItemPassesPartialFields(t *testing.T) {
	svc := &fakeCatalogService{}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/SKU1", strings.NewReader(`{"name":"Brake Pad Pro"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.updateID != "SKU1" {
		t.Fatalf("update id %q", svc.updateID)
	}
	if svc.updateInput.Name == nil || *svc.updateInput.Name != "Brake Pad Pro" {
		t.Fatalf("name not forwarded: %+v", svc.updateInput)
	}
	if svc.updateInput.Brand != nil {
		t.Fatal("untouched fields must stay nil")
	}
}

func TestDeleteCatalogItemNotFound(t *testing.T) {
	svc := &fakeCatalogService{deleteErr: pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/catalog/MISSING", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if svc.deletedID != "MISSING" {
		t.Fatalf("delete id %q", svc.deletedID)
	}
}

func TestSetCatalogVisibility(t *testing.T) {
	t.Run("togglesOff", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/SKU1/visibility", strings.NewReader(`{"visible":false}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if svc.visibilityID != "SKU1" || svc.visibility {
			t.Fatalf("visibility call %q/%v", svc.visibilityID, svc.visibility)
		}
	})

	t.Run("missingFlag", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/SKU1/visibility", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestImportCatalogStock(t *testing.T) {
	t.Run("reportsCounts", func(t *testing.T) {
		svc := &fakeCatalogService{
			importResult: &catalogsvc.ImportResult{
				Progress:    catalogsvc.Progress{Processed: 3, Total: 3, Updated: 2, Created: 1},
				InvalidRows: []string{"row 4: quantity must be non-negative"},
			},
		}
		router := newCatalogTestRouter(svc)

		body := `{"rows":[{"provider_part_number":"PF1","warehouse_id":"W1","quantity":5}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data importStockResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.Updated != 2 || envelope.Data.Created != 1 {
			t.Fatalf("counts %+v", envelope.Data.Progress)
		}
		if len(envelope.Data.InvalidRows) != 1 {
			t.Fatalf("invalid rows %v", envelope.Data.InvalidRows)
		}
		if envelope.Data.Cancelled {
			t.Fatal("completed import must not be marked cancelled")
		}
	})

	t.Run("cancelledBatchStillReportsCounts", func(t *testing.T) {
		svc := &fakeCatalogService{
			importResult: &catalogsvc.ImportResult{Progress: catalogsvc.Progress{Processed: 2, Total: 5, Updated: 2}},
			importErr:    pkgerrors.New(pkgerrors.CodeCancelled, "stock import cancelled"),
		}
		router := newCatalogTestRouter(svc)

		body := `{"rows":[{"provider_part_number":"PF1","warehouse_id":"W1","quantity":5}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
		}
		var envelope struct {
			Data importStockResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !envelope.Data.Cancelled || envelope.Data.Processed != 2 {
			t.Fatalf("cancelled payload %+v", envelope.Data)
		}
	})

	t.Run("emptyRowsRejected", func(t *testing.T) {
		svc := &fakeCatalogService{}
		router := newCatalogTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", strings.NewReader(`{"rows":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
