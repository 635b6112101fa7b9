package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pranuu07/Power-Predictor/internal/analytics"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tariff"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc := tracker.New(tariff.Default(), analytics.DefaultOptions(), storage.NewMemory())
	mux := http.NewServeMux()
	NewHandler(svc).RegisterLegacyRoutes(mux)
	RegisterV2Routes(mux, svc)
	RegisterRefreshHandler(mux, svc)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPostBill(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/bill", `{"previousReading":1000,"currentReading":1250}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID               string  `json:"id"`
		UnitsConsumed    float64 `json:"unitsConsumed"`
		EnergyCharges    float64 `json:"energyCharges"`
		FixedCharges     float64 `json:"fixedCharges"`
		Taxes            float64 `json:"taxes"`
		TotalBill        float64 `json:"totalBill"`
		Persisted        bool    `json:"persisted"`
		PerSlabBreakdown []struct {
			Range string `json:"range"`
		} `json:"perSlabBreakdown"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UnitsConsumed != 250 || resp.TotalBill != 1265 {
		t.Fatalf("units=%v total=%v, want 250/1265", resp.UnitsConsumed, resp.TotalBill)
	}
	if !resp.Persisted {
		t.Fatal("bill should be persisted")
	}
	if resp.ID == "" {
		t.Fatal("missing bill id")
	}
	if len(resp.PerSlabBreakdown) != 3 {
		t.Fatalf("breakdown rows = %d, want 3", len(resp.PerSlabBreakdown))
	}
}

func TestPostBillValidation(t *testing.T) {
	mux := newTestMux(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing current", `{"previousReading":100}`, msgReadingsRequired},
		{"missing both", `{}`, msgReadingsRequired},
		{"non numeric", `{"previousReading":"abc","currentReading":200}`, msgReadingsRequired},
		{"negative consumption", `{"previousReading":500,"currentReading":400}`, msgNegativeConsumption},
		{"negative reading", `{"previousReading":-5,"currentReading":100}`, msgReadingsRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/bill", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != tc.want {
				t.Fatalf("message = %q, want %q", resp.Message, tc.want)
			}
		})
	}
}

func TestGetForecastAlwaysOK(t *testing.T) {
	mux := newTestMux(t)

	rec := get(t, mux, "/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var f struct {
		NextPeriodUsage float64  `json:"nextPeriodUsage"`
		Trend           string   `json:"trend"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Trend != "stable" {
		t.Fatalf("empty-history trend = %q, want stable", f.Trend)
	}
	if len(f.Recommendations) == 0 {
		t.Fatal("expected starter recommendations")
	}

	postJSON(t, mux, "/bill", `{"previousReading":0,"currentReading":200}`)
	rec = get(t, mux, "/api/v2/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.NextPeriodUsage != 210 {
		t.Fatalf("nextPeriodUsage = %v, want 210", f.NextPeriodUsage)
	}
}

func TestListBillsLimit(t *testing.T) {
	mux := newTestMux(t)

	prev := 0.0
	for _, curr := range []float64{100, 250, 400} {
		rec := postJSON(t, mux, "/api/v2/bills", `{"previousReading":`+jsonNum(prev)+`,"currentReading":`+jsonNum(curr)+`}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("seed bill: status %d", rec.Code)
		}
		prev = curr
	}

	rec := get(t, mux, "/bills?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var bills []struct {
		CurrentReading float64 `json:"currentReading"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bills); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("len = %d, want 2", len(bills))
	}
	if bills[0].CurrentReading != 400 {
		t.Fatalf("first bill reading = %v, want most recent (400)", bills[0].CurrentReading)
	}

	rec = get(t, mux, "/bills?limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d, want 400", rec.Code)
	}
}

func TestDeleteBill(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/bill", `{"previousReading":0,"currentReading":100}`)
	var bill struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/bills/"+bill.ID, nil)
	del := httptest.NewRecorder()
	mux.ServeHTTP(del, req)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", del.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v2/bills/"+bill.ID, nil)
	del = httptest.NewRecorder()
	mux.ServeHTTP(del, req)
	if del.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want 404", del.Code)
	}

	rec = get(t, mux, "/bills")
	if !strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "[]") {
		t.Fatalf("history should be empty, got %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec := get(t, mux, "/bill")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /bill status = %d, want 405", rec.Code)
	}

	rec = postJSON(t, mux, "/forecast", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /forecast status = %d, want 405", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	mux := newTestMux(t)

	postJSON(t, mux, "/api/v2/bills", `{"previousReading":0,"currentReading":300}`)

	rec := get(t, mux, "/api/v2/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var d struct {
		CurrentUsage   float64 `json:"currentUsage"`
		MonthlyData    []any   `json:"monthlyData"`
		UsageBreakdown []any   `json:"usageBreakdown"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.CurrentUsage != 300 {
		t.Fatalf("currentUsage = %v, want 300", d.CurrentUsage)
	}
	if len(d.MonthlyData) != 6 || len(d.UsageBreakdown) != 5 {
		t.Fatalf("monthly=%d breakdown=%d, want 6/5", len(d.MonthlyData), len(d.UsageBreakdown))
	}
}

func TestTipsEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := get(t, mux, "/api/v2/tips")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var tips []struct {
		Title    string `json:"title"`
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tips); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tips) == 0 {
		t.Fatal("expected tips")
	}
}

func TestScheduleEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := get(t, mux, "/api/v2/schedule")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var s ScheduleDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(s.Slabs) != 4 {
		t.Fatalf("slabs = %d, want 4", len(s.Slabs))
	}
	if s.FixedCharge != 50 || s.TaxRate != 0.10 {
		t.Fatalf("fixed=%v tax=%v, want 50/0.10", s.FixedCharge, s.TaxRate)
	}
	if s.Slabs[3].Range != "Above 300 units" {
		t.Fatalf("last slab range = %q", s.Slabs[3].Range)
	}
}

func TestChatEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/api/v2/chat/messages", `{"content":"what will my next bill be?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		UserMessage struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"userMessage"`
		BotMessage struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"botMessage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserMessage.Type != "user" || resp.BotMessage.Type != "bot" {
		t.Fatalf("roles = %q/%q", resp.UserMessage.Type, resp.BotMessage.Type)
	}
	if resp.BotMessage.Content == "" {
		t.Fatal("empty bot reply")
	}

	rec = get(t, mux, "/api/v2/chat/messages")
	var msgs []any
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("transcript = %d messages, want 2", len(msgs))
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v2/chat/messages", nil)
	del := httptest.NewRecorder()
	mux.ServeHTTP(del, req)
	if del.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", del.Code)
	}

	rec = postJSON(t, mux, "/api/v2/chat/messages", `{"content":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank content status = %d, want 400", rec.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	mux := newTestMux(t)

	postJSON(t, mux, "/bill", `{"previousReading":0,"currentReading":120}`)

	rec := postJSON(t, mux, "/internal/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp RefreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
	if resp.Forecast == nil || resp.Forecast.NextPeriodUsage != 126 {
		t.Fatalf("forecast = %+v, want 126 units", resp.Forecast)
	}
}

func jsonNum(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
