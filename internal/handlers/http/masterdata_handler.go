// internal/handlers/http/masterdata_handler.go
// GET /api/master/filters - zones/streets/units for the filter dropdowns.

package http

import (
	"encoding/json"
	"net/http"

	"sla-penalty/internal/services"
)

type MasterDataHandler struct {
	Service *services.MasterDataService
}

func (h *MasterDataHandler) Filters(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Filters(r.Context())
	if err != nil {
		http.Error(w, "master data unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
