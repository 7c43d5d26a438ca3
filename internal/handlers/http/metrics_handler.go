// internal/handlers/http/metrics_handler.go
// Handler untuk metrics Prometheus format sederhana

package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type MetricsHandler struct {
	// CacheDir lets the exporter report how many month artifacts exist.
	CacheDir string
}

func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	artifacts := 0
	if entries, err := os.ReadDir(h.CacheDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasPrefix(e.Name(), "report_data_") && filepath.Ext(e.Name()) == ".db" {
				artifacts++
			}
		}
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP app_up 1 if the app is up\n# TYPE app_up gauge\napp_up 1\n")
	fmt.Fprintf(w, "# HELP sla_cache_artifacts number of month cache artifacts on disk\n# TYPE sla_cache_artifacts gauge\nsla_cache_artifacts %d\n", artifacts)
}
