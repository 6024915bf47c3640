package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/partsdesk/partsdesk-backend/pkg/config"
)

// CORS returns middleware that applies the dashboard's allowed origin policy.
func CORS(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
