// internal/app/app.go
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"sla-penalty/internal/cache"
	"sla-penalty/internal/config"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
	"sla-penalty/internal/services"
)

// App menampung router utama dan resources yang harus ditutup saat shutdown.
type App struct {
	Router *mux.Router
	DB     *sql.DB
	Store  *cache.Store
	Cache  *services.CacheService
	Log    *slog.Logger
}

// New membangun seluruh dependency graph: DB -> repos -> services -> handlers.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpen)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	// retry ping agar tahan saat container DB baru up
	ping := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10)
	err = backoff.RetryNotify(db.Ping, ping, func(e error, next time.Duration) {
		log.Warn("mysql not ready, retrying", "err", e, "next", next)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql not ready after retries: %w", err)
	}

	clock := clockwork.NewRealClock()

	store, err := cache.NewStore(cfg.Cache.Dir, cfg.Cache.StaleAfter, clock, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache store: %w", err)
	}

	cameraRepo := &mysqlrepo.CameraRepo{DB: db}
	incidentRepo := &mysqlrepo.IncidentRepo{DB: db}
	masterRepo := &mysqlrepo.MasterDataRepo{DB: db}

	builder := &services.PenaltyTableBuilder{
		Devices:     cameraRepo,
		Events:      incidentRepo,
		ContractTag: cfg.SLA.ContractTag,
		Clock:       clock,
	}

	cacheSvc := &services.CacheService{
		Store:     store,
		Builder:   builder,
		Incidents: incidentRepo,
		Log:       log,
	}
	reportSvc := &services.ReportService{
		Store: store,
		Cache: cacheSvc,
		Clock: clock,
		Log:   log,
	}
	dashboardSvc := &services.DashboardService{
		Master:    masterRepo,
		Incidents: incidentRepo,
		Store:     store,
		Cache:     cacheSvc,
		Clock:     clock,
		Log:       log,
	}
	masterSvc := &services.MasterDataService{Repo: masterRepo}

	r := mux.NewRouter()
	registerRoutes(r, routeDeps{
		Cache:     cacheSvc,
		Report:    reportSvc,
		Dashboard: dashboardSvc,
		Master:    masterSvc,
		Clock:     clock,
		CacheDir:  cfg.Cache.Dir,
	})

	return &App{Router: r, DB: db, Store: store, Cache: cacheSvc, Log: log}, nil
}

// Close melepas koneksi DB. Dipanggil dari main setelah server berhenti.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close mysql", "err", err)
		}
	}
}
