// internal/handlers/http/report_handler.go
// GET /api/report/          - paginated penalty rows from the month cache
// GET /api/report/download  - same filter surface, streamed as CSV

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sla-penalty/internal/services"
)

type ReportHandler struct {
	Service *services.ReportService
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.Skip, f.Limit, err = parsePage(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.Service.Report(r.Context(), f)
	if err != nil {
		// billing-adjacent rows: no partial responses
		http.Error(w, "report unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("sla_report_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)

	if err := h.Service.WriteCSV(r.Context(), f, w); err != nil {
		// headers may already be gone; best effort
		http.Error(w, "export failed: "+err.Error(), http.StatusInternalServerError)
	}
}
