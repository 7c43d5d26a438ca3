// internal/handlers/http/cache_handler.go
// POST /api/cache/waive_penalty - waive one incident and rebuild its month
// POST /api/cache/refresh       - force a rebuild for one month

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"sla-penalty/internal/cache"
	"sla-penalty/internal/services"
)

type CacheHandler struct {
	Service *services.CacheService
	Clock   clockwork.Clock
}

type waiveReq struct {
	IncidentLogID int64 `json:"incident_log_id"`
	SubCategoryID int64 `json:"sub_category_id"`
}

func (h *CacheHandler) WaivePenalty(w http.ResponseWriter, r *http.Request) {
	var in waiveReq
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if in.IncidentLogID <= 0 || in.SubCategoryID <= 0 {
		http.Error(w, "incident_log_id and sub_category_id are required", http.StatusBadRequest)
		return
	}

	m, err := h.Service.WaivePenalty(r.Context(), in.IncidentLogID, in.SubCategoryID)
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, services.ErrCacheRefreshFailed):
		// the waiver IS recorded; this is a consistency warning for the
		// operator, not a rejected request
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("penalty for incident_log_id=%d waived and cache for %s refreshed", in.IncidentLogID, m.Key()),
	})
}

type refreshReq struct {
	// Month as "YYYY-MM"; empty = previous calendar month.
	Month string `json:"month"`
}

func (h *CacheHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&in) // empty body is fine
	}

	m := cache.PreviousMonth(h.Clock.Now())
	if in.Month != "" {
		t, err := time.ParseInLocation("2006-01", in.Month, time.UTC)
		if err != nil {
			http.Error(w, "invalid month, want YYYY-MM", http.StatusBadRequest)
			return
		}
		m = cache.MonthOf(t)
	}

	if err := h.Service.Rebuild(r.Context(), m); err != nil {
		http.Error(w, "cache refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("cache for %s refreshed", m.Key()),
	})
}
