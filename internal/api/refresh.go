package api

import (
	"log"
	"net/http"
	"time"

	"github.com/Pranuu07/Power-Predictor/internal/analytics"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
)

// RefreshResponse is the response structure for the refresh endpoint.
type RefreshResponse struct {
	Status      string              `json:"status"`
	DurationMs  int64               `json:"duration_ms"`
	GeneratedAt time.Time           `json:"generated_at"`
	Forecast    *analytics.Forecast `json:"forecast,omitempty"`
}

// RegisterRefreshHandler mounts the internal endpoint that forces a forecast
// snapshot recomputation. CronJobs and operators hit this; it is not part of
// the public surface.
func RegisterRefreshHandler(mux *http.ServeMux, svc *tracker.Service) {
	mux.HandleFunc("/internal/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		f, err := svc.RefreshForecast(r.Context())
		if err != nil {
			log.Printf("manual forecast refresh failed: %v", err)
			writeJSON(w, "/internal/refresh", RefreshResponse{
				Status:     "error",
				DurationMs: time.Since(start).Milliseconds(),
			})
			return
		}
		writeJSON(w, "/internal/refresh", RefreshResponse{
			Status:      "ok",
			DurationMs:  time.Since(start).Milliseconds(),
			GeneratedAt: f.GeneratedAt,
			Forecast:    &f,
		})
	})
}
