package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Pranuu07/Power-Predictor/internal/billing"
	"github.com/Pranuu07/Power-Predictor/internal/metrics"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
)

// User-facing validation messages. The front end shows these verbatim.
const (
	msgReadingsRequired    = "Previous and current readings are required"
	msgNegativeConsumption = "Current reading cannot be less than previous reading"
)

// Handler serves the bill calculation surface. The same handlers back both
// the legacy root-level routes and /api/v2.
type Handler struct {
	svc *tracker.Service
}

func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterLegacyRoutes mounts the original flat surface: POST /bill,
// GET /forecast, GET /bills, DELETE /bills/{id}.
func (h *Handler) RegisterLegacyRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/bill", methodOnly(http.MethodPost, h.CalculateBill("/bill")))
	mux.HandleFunc("/forecast", methodOnly(http.MethodGet, h.GetForecast("/forecast")))
	mux.HandleFunc("/bills", methodOnly(http.MethodGet, h.ListBills("/bills")))
	mux.HandleFunc("/bills/", methodOnly(http.MethodDelete, h.DeleteBill("/bills/")))
}

// billRequest uses pointers so absent fields are distinguishable from zero.
type billRequest struct {
	PreviousReading *float64 `json:"previousReading"`
	CurrentReading  *float64 `json:"currentReading"`
}

// billResponse is a BillResult plus a persistence flag: false means the bill
// was computed but the history append failed, so the record may not be saved.
type billResponse struct {
	*billing.BillResult
	Persisted bool `json:"persisted"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// CalculateBill computes a bill and appends it to history
// @Summary Calculate an electricity bill
// @Description Compute a progressive-tariff bill from two meter readings and record it
// @Tags bills
// @Accept json
// @Produce json
// @Success 200 {object} billResponse
// @Failure 400 {object} messageResponse
// @Router /api/v2/bills [post]
func (h *Handler) CalculateBill(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		var req billRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PreviousReading == nil || req.CurrentReading == nil {
			metrics.BillsRejectedTotal.WithLabelValues("missing_readings").Inc()
			writeMessage(w, route, http.StatusBadRequest, msgReadingsRequired)
			return
		}

		bill, err := h.svc.RecordBill(r.Context(), *req.PreviousReading, *req.CurrentReading)
		switch {
		case errors.Is(err, billing.ErrNegativeConsumption):
			metrics.BillsRejectedTotal.WithLabelValues("negative_consumption").Inc()
			writeMessage(w, route, http.StatusBadRequest, msgNegativeConsumption)
			return
		case errors.Is(err, billing.ErrInvalidReading):
			metrics.BillsRejectedTotal.WithLabelValues("invalid_reading").Inc()
			writeMessage(w, route, http.StatusBadRequest, msgReadingsRequired)
			return
		}

		resp := billResponse{BillResult: bill, Persisted: true}
		if err != nil {
			// Calculation succeeded but the append did not. Return the bill
			// anyway so the caller can warn the user and retry.
			log.Printf("record bill: %v", err)
			resp.Persisted = false
		}

		metrics.BillsCalculatedTotal.Inc()
		metrics.UnitsConsumed.Observe(bill.UnitsConsumed)
		writeJSON(w, route, resp)
	}
}

// GetForecast returns the usage forecast for the stored history
// @Summary Get the usage forecast
// @Description Trend, next-period projection, efficiency score, and recommendations
// @Tags forecast
// @Produce json
// @Success 200 {object} analytics.Forecast
// @Router /api/v2/forecast [get]
func (h *Handler) GetForecast(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		f, err := h.svc.Forecast(r.Context())
		if err != nil {
			log.Printf("forecast failed: %v", err)
			metrics.RequestErrorsTotal.WithLabelValues(route, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, route, f)
	}
}

// ListBills returns recent bills, most recent first
// @Summary List recent bills
// @Tags bills
// @Produce json
// @Param limit query int false "Maximum number of bills" default(50)
// @Success 200 {array} billing.BillResult
// @Router /api/v2/bills [get]
func (h *Handler) ListBills(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeMessage(w, route, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		bills, err := h.svc.Recent(r.Context(), limit)
		if err != nil {
			log.Printf("list bills failed: %v", err)
			metrics.RequestErrorsTotal.WithLabelValues(route, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, route, bills)
	}
}

// DeleteBill removes one bill and recomputes derived views
// @Summary Delete a bill
// @Tags bills
// @Param id path string true "Bill ID"
// @Success 204
// @Failure 404 {object} messageResponse
// @Router /api/v2/bills/{id} [delete]
func (h *Handler) DeleteBill(prefix string) http.HandlerFunc {
	route := prefix + "{id}"
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			metrics.RequestErrorsTotal.WithLabelValues(route, "404").Inc()
			http.NotFound(w, r)
			return
		}

		err := h.svc.DeleteBill(r.Context(), id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeMessage(w, route, http.StatusNotFound, "bill not found")
			return
		case err != nil:
			log.Printf("delete bill %s failed: %v", id, err)
			metrics.RequestErrorsTotal.WithLabelValues(route, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func methodOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, route string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues(route, "500").Inc()
	}
}

func writeMessage(w http.ResponseWriter, route string, code int, msg string) {
	metrics.RequestErrorsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(messageResponse{Message: msg})
}
