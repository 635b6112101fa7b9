package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pranuu07/Power-Predictor/internal/api/swagger"
	"github.com/Pranuu07/Power-Predictor/internal/config"
	migrate "github.com/Pranuu07/Power-Predictor/internal/migrate"
	"github.com/Pranuu07/Power-Predictor/internal/notification"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
	"github.com/Pranuu07/Power-Predictor/internal/ui"
)

// NewMux constructs the HTTP mux, wiring in storage, the tracker service,
// metrics, and health endpoints.
func NewMux(ctx context.Context, cfg config.Config) (*http.ServeMux, error) {
	// Optional auto-migration: run `goose up` on startup when enabled.
	if cfg.AutoMigrate && cfg.DBDriver != "memory" {
		if err := migrate.Up(ctx, cfg.DBDriver, cfg.DBDSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return nil, fmt.Errorf("open storage (driver=%s): %w", cfg.DBDriver, err)
	}
	log.Printf("tracker service using storage backend driver=%s", cfg.DBDriver)

	svc := tracker.New(cfg.Schedule, cfg.Analytics, st)
	notifSvc := notification.NewService(st)

	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	h := NewHandler(svc)
	h.RegisterLegacyRoutes(mux)
	RegisterV2Routes(mux, svc)
	registerNotificationRoutes(mux, notifSvc)

	// Internal refresh endpoint for CronJobs / manual refresh.
	RegisterRefreshHandler(mux, svc)

	// API documentation.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux, nil
}
