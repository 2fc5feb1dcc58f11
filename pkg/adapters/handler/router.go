package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urltrimmer/url-trimmer/pkg/config"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService, resolver ports.ResolverService) http.Handler {
	h := NewHTTPHandler(service, resolver)
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	// Public routes. Literal patterns win over the catch-all short code.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{shortCode}", h.Redirect)

	// Protected API
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/urls", h.Create)
	protectedMux.HandleFunc("GET /api/urls", h.List)
	protectedMux.HandleFunc("GET /api/urls/analytics/summary", h.AnalyticsSummary)
	protectedMux.HandleFunc("GET /api/urls/{id}", h.Get)
	protectedMux.HandleFunc("GET /api/urls/{id}/qr", h.QR)
	protectedMux.HandleFunc("PUT /api/urls/{id}", h.Update)
	protectedMux.HandleFunc("DELETE /api/urls/{id}", h.Delete)

	mux.Handle("/api/", mw.AuthMiddleware(protectedMux))

	return mux
}
