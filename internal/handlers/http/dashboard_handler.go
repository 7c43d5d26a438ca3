// internal/handlers/http/dashboard_handler.go
// GET /api/dashboard/ - KPI object for the filtered period.

package http

import (
	"encoding/json"
	"net/http"

	"sla-penalty/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Dashboard never hard-fails: degraded metrics arrive as zeros plus
	// error_details entries.
	kpis := h.Service.Dashboard(r.Context(), f)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(kpis)
}
