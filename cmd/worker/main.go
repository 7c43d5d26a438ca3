// cmd/worker/main.go
// Worker periodik: rebuild cache bulan berjalan + bulan sebelumnya
// supaya request pertama tidak membayar biaya rebuild.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"sla-penalty/internal/app"
	"sla-penalty/internal/cache"
	"sla-penalty/internal/config"
)

func main() {
	cfg := config.Load()

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.RFC3339}))
	slog.SetDefault(log)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	interval := time.Duration(getEnvInt("WORKER_INTERVAL_MINUTES", 60)) * time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	log.Info("worker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh(ctx, a, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopped")
			return
		case <-ticker.C:
			refresh(ctx, a, log)
		}
	}
}

func refresh(ctx context.Context, a *app.App, log *slog.Logger) {
	now := time.Now().UTC()
	months := []cache.Month{cache.PreviousMonth(now), cache.MonthOf(now)}
	for _, m := range months {
		if err := a.Cache.Rebuild(ctx, m); err != nil {
			log.Error("rebuild failed", "month", m.Key(), "err", err)
			continue
		}
		log.Info("rebuild done", "month", m.Key())
	}
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
