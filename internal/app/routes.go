// internal/app/routes.go
package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	hh "sla-penalty/internal/handlers/http"
	"sla-penalty/internal/middleware"
	"sla-penalty/internal/services"
)

type routeDeps struct {
	Cache     *services.CacheService
	Report    *services.ReportService
	Dashboard *services.DashboardService
	Master    *services.MasterDataService
	Clock     clockwork.Clock
	CacheDir  string
}

// registerRoutes menambahkan semua route HTTP.
func registerRoutes(r *mux.Router, deps routeDeps) {
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	metrics := &hh.MetricsHandler{CacheDir: deps.CacheDir}

	// --- no prefix ---
	r.HandleFunc("/healthz", hh.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/readyz", hh.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/metrics", metrics.Get).Methods(http.MethodGet)

	// --- /api prefix (supaya FE bisa pakai /api/...) ---
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", hh.HealthHandler).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", hh.LoginHandler).Methods(http.MethodPost, http.MethodOptions)

	dashboard := &hh.DashboardHandler{Service: deps.Dashboard}
	api.HandleFunc("/dashboard/", dashboard.Get).Methods(http.MethodGet, http.MethodOptions)

	report := &hh.ReportHandler{Service: deps.Report}
	api.HandleFunc("/report/", report.Get).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/report/download", report.Download).Methods(http.MethodGet, http.MethodOptions)

	master := &hh.MasterDataHandler{Service: deps.Master}
	api.HandleFunc("/master/filters", master.Filters).Methods(http.MethodGet, http.MethodOptions)

	// Cache mutations (JWT protected)
	cacheAPI := api.PathPrefix("/cache").Subrouter()
	cacheAPI.Use(middleware.AdminJWTAuth)
	ch := &hh.CacheHandler{Service: deps.Cache, Clock: deps.Clock}
	cacheAPI.HandleFunc("/waive_penalty", ch.WaivePenalty).Methods(http.MethodPost)
	cacheAPI.HandleFunc("/refresh", ch.Refresh).Methods(http.MethodPost)
}
