package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partsdesk/partsdesk-backend/api/controllers"
	"github.com/partsdesk/partsdesk-backend/api/middleware"
	catalogsvc "github.com/partsdesk/partsdesk-backend/internal/catalog"
	"github.com/partsdesk/partsdesk-backend/pkg/config"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
	pkgredis "github.com/partsdesk/partsdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *pkgredis.Client,
	catalogService catalogsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP),
	)

	var redisPinger controllers.Pinger
	var importGuard pkgredis.IdempotencyStore
	if redisClient != nil {
		redisPinger = redisClient
		importGuard = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisPinger))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", controllers.ListCatalog(catalogService, logg))
		r.Get("/suggest", controllers.SuggestCatalog(catalogService, logg))
		r.Post("/", controllers.CreateCatalogItem(catalogService, logg))
		r.Put("/{id}", controllers.UpdateCatalogItem(catalogService, logg))
		r.Delete("/{id}", controllers.DeleteCatalogItem(catalogService, logg))
		r.Post("/{id}/visibility", controllers.SetCatalogVisibility(catalogService, logg))
		r.With(middleware.Idempotency(importGuard, cfg.Catalog.ImportKeyTTL, logg)).
			Post("/import", controllers.ImportCatalogStock(catalogService, logg))
	})

	return r
}
