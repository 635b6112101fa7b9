package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tariff"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
)

// SlabDTO is one tariff slab row in the API.
type SlabDTO struct {
	Range string  `json:"range"`
	Rate  float64 `json:"rate"`
}

// ScheduleDTO is the active tariff schedule in the API.
type ScheduleDTO struct {
	Slabs       []SlabDTO `json:"slabs"`
	FixedCharge float64   `json:"fixedCharge"`
	TaxRate     float64   `json:"taxRate"`
}

type V2Handler struct {
	*Handler
}

func RegisterV2Routes(mux *http.ServeMux, svc *tracker.Service) {
	h := &V2Handler{Handler: NewHandler(svc)}

	mux.HandleFunc("/api/v2/bills", h.HandleBills)
	mux.HandleFunc("/api/v2/bills/", methodOnly(http.MethodDelete, h.DeleteBill("/api/v2/bills/")))
	mux.HandleFunc("/api/v2/forecast", methodOnly(http.MethodGet, h.GetForecast("/api/v2/forecast")))
	mux.HandleFunc("/api/v2/dashboard", methodOnly(http.MethodGet, h.HandleDashboard))
	mux.HandleFunc("/api/v2/tips", methodOnly(http.MethodGet, h.HandleTips))
	mux.HandleFunc("/api/v2/schedule", methodOnly(http.MethodGet, h.HandleSchedule))
	mux.HandleFunc("/api/v2/chat/messages", h.HandleChatMessages)
}

// HandleBills dispatches the collection routes: POST calculates and records a
// bill, GET lists recent ones.
func (h *V2Handler) HandleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CalculateBill("/api/v2/bills")(w, r)
	case http.MethodGet:
		h.ListBills("/api/v2/bills")(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDashboard returns the aggregate dashboard view
// @Summary Get the dashboard snapshot
// @Description Current usage, bill, prediction, monthly series, and category breakdown
// @Tags dashboard
// @Produce json
// @Success 200 {object} tracker.Dashboard
// @Router /api/v2/dashboard [get]
func (h *V2Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		log.Printf("dashboard failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, "/api/v2/dashboard", d)
}

// HandleTips returns the personalized saving tips
// @Summary List energy saving tips
// @Tags tips
// @Produce json
// @Success 200 {array} advisor.Tip
// @Router /api/v2/tips [get]
func (h *V2Handler) HandleTips(w http.ResponseWriter, r *http.Request) {
	tips, err := h.svc.Tips(r.Context())
	if err != nil {
		log.Printf("tips failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, "/api/v2/tips", tips)
}

// HandleSchedule returns the active tariff schedule
// @Summary Get the tariff schedule
// @Tags schedule
// @Produce json
// @Success 200 {object} ScheduleDTO
// @Router /api/v2/schedule [get]
func (h *V2Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "/api/v2/schedule", scheduleDTO(h.svc.Schedule()))
}

func scheduleDTO(s tariff.Schedule) ScheduleDTO {
	dto := ScheduleDTO{FixedCharge: s.FixedCharge, TaxRate: s.TaxRate}
	for _, slab := range s.Slabs {
		dto.Slabs = append(dto.Slabs, SlabDTO{Range: slab.RangeLabel(), Rate: slab.RatePerUnit})
	}
	return dto
}

type chatRequest struct {
	Content string `json:"content"`
}

type chatResponse struct {
	UserMessage storage.ChatMessage `json:"userMessage"`
	BotMessage  storage.ChatMessage `json:"botMessage"`
}

// HandleChatMessages serves the assistant transcript: GET lists the stored
// conversation, POST appends a user message and a fact-based reply, DELETE
// wipes it.
func (h *V2Handler) HandleChatMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := storage.ChatHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeMessage(w, "/api/v2/chat/messages", http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		msgs, err := h.svc.ChatMessages(r.Context(), limit)
		if err != nil {
			log.Printf("list chat messages failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, "/api/v2/chat/messages", msgs)

	case http.MethodPost:
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
			writeMessage(w, "/api/v2/chat/messages", http.StatusBadRequest, "content is required")
			return
		}
		userMsg, err := h.svc.SaveChatMessage(r.Context(), "user", req.Content)
		if err != nil {
			log.Printf("save chat message failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		reply, err := h.composeReply(r)
		if err != nil {
			log.Printf("compose chat reply failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		botMsg, err := h.svc.SaveChatMessage(r.Context(), "bot", reply)
		if err != nil {
			log.Printf("save chat reply failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, "/api/v2/chat/messages", chatResponse{UserMessage: userMsg, BotMessage: botMsg})

	case http.MethodDelete:
		if err := h.svc.ClearChat(r.Context()); err != nil {
			log.Printf("clear chat failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// composeReply formats the current forecast facts as a plain reply. No
// free-text understanding happens server side; the client renders the facts.
func (h *V2Handler) composeReply(r *http.Request) (string, error) {
	f, err := h.svc.Forecast(r.Context())
	if err != nil {
		return "", err
	}
	if f.NextPeriodUsage == 0 && len(f.Recommendations) > 0 {
		return "I don't have any bills on record yet. " + f.Recommendations[0], nil
	}
	return fmt.Sprintf(
		"Your usage trend is %s. Next month I project about %.0f units (around %.0f). Efficiency score: %d/100. Top tip: %s",
		f.Trend, f.NextPeriodUsage, f.NextPeriodCost, f.EfficiencyScore, f.Recommendations[0],
	), nil
}
