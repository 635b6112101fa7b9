// Package tracker coordinates the billing engine, the history store, and the
// analytics engine behind one service API consumed by the HTTP layer and the
// background worker.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pranuu07/Power-Predictor/internal/advisor"
	"github.com/Pranuu07/Power-Predictor/internal/analytics"
	"github.com/Pranuu07/Power-Predictor/internal/billing"
	"github.com/Pranuu07/Power-Predictor/internal/metrics"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tariff"
)

// ErrNotPersisted wraps a storage failure after a successful calculation: the
// returned bill is valid but was not appended to history. Callers should
// surface the result and warn that the record may not be saved.
var ErrNotPersisted = errors.New("tracker: bill computed but not persisted")

// Service owns the bill history workflow. Appends and deletes are serialized
// so concurrent submissions cannot race on the most-recent-entry reads the
// trend classifier depends on.
type Service struct {
	schedule tariff.Schedule
	opts     analytics.Options
	store    storage.Storage

	mu     sync.Mutex
	cached *analytics.Forecast // invalidated whenever history changes
}

// New returns a Service over the given schedule, analytics options, and
// history store.
func New(schedule tariff.Schedule, opts analytics.Options, st storage.Storage) *Service {
	return &Service{schedule: schedule, opts: opts, store: st}
}

// Schedule returns the active tariff schedule.
func (s *Service) Schedule() tariff.Schedule { return s.schedule }

// RecordBill computes a bill from the two readings and appends it to history.
// Calculation errors return a nil bill. A storage failure still returns the
// computed bill together with ErrNotPersisted (compute first, persist best
// effort).
func (s *Service) RecordBill(ctx context.Context, previousReading, currentReading float64) (*billing.BillResult, error) {
	bill, err := billing.Calculate(previousReading, currentReading, s.schedule)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := billToRecord(*bill)
	if err != nil {
		return bill, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	if err := s.store.AppendBill(ctx, rec); err != nil {
		return bill, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}

	s.refreshDerivedLocked(ctx)
	return bill, nil
}

// History returns the full bill history in chronological order.
func (s *Service) History(ctx context.Context) ([]billing.BillResult, error) {
	recs, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToBills(recs)
}

// Recent returns up to n bills, most recent first.
func (s *Service) Recent(ctx context.Context, n int) ([]billing.BillResult, error) {
	recs, err := s.store.ListRecentBills(ctx, n)
	if err != nil {
		return nil, err
	}
	return recordsToBills(recs)
}

// DeleteBill removes one record and recomputes every derived view from the
// remaining history in the same critical section, so readers never observe a
// deleted bill still reflected in the snapshot. Returns storage.ErrNotFound
// for an unknown id.
func (s *Service) DeleteBill(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteBill(ctx, id); err != nil {
		return err
	}
	s.refreshDerivedLocked(ctx)
	return nil
}

// ClearHistory removes all bills and resets derived views to the zero state.
func (s *Service) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearBills(ctx); err != nil {
		return err
	}
	s.refreshDerivedLocked(ctx)
	return nil
}

// Forecast returns the latest forecast for the current history, recomputing
// only when the history changed since the last computation.
func (s *Service) Forecast(ctx context.Context) (analytics.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}
	return s.computeForecastLocked(ctx)
}

// RefreshForecast forces a recomputation and write-back of the persisted
// forecast snapshot. Used by the background worker and the internal refresh
// endpoint.
func (s *Service) RefreshForecast(ctx context.Context) (analytics.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	return s.computeForecastLocked(ctx)
}

func (s *Service) computeForecastLocked(ctx context.Context) (analytics.Forecast, error) {
	history, err := s.historyLocked(ctx)
	if err != nil {
		return analytics.Forecast{}, err
	}
	f := analytics.GenerateForecast(history, s.opts)
	s.cached = &f
	metrics.ForecastsGeneratedTotal.Inc()

	// Best-effort write-back so external consumers can read the latest
	// forecast without recomputing.
	if payload, err := marshalForecast(f); err == nil {
		if err := s.store.SaveForecastSnapshot(ctx, storage.ForecastSnapshot{
			Payload:     payload,
			GeneratedAt: f.GeneratedAt,
		}); err != nil {
			log.Printf("tracker: forecast snapshot write-back failed: %v", err)
		}
	}
	return f, nil
}

func (s *Service) historyLocked(ctx context.Context) ([]billing.BillResult, error) {
	recs, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	return recordsToBills(recs)
}

// refreshDerivedLocked recomputes the forecast and the dashboard snapshot
// from the current history. Derived-state failures are logged, not
// propagated: the history append/delete already succeeded.
func (s *Service) refreshDerivedLocked(ctx context.Context) {
	s.cached = nil
	f, err := s.computeForecastLocked(ctx)
	if err != nil {
		log.Printf("tracker: derived refresh failed: %v", err)
		return
	}

	history, err := s.historyLocked(ctx)
	if err != nil {
		log.Printf("tracker: derived refresh failed: %v", err)
		return
	}

	snap := storage.DashboardSnapshot{}
	if len(history) > 0 {
		latest := history[len(history)-1]
		snap.CurrentUsage = latest.UnitsConsumed
		snap.CurrentBill = latest.TotalBill
		snap.AIPrediction = f.NextPeriodUsage
		snap.SavingsPotential = savingsPotential(latest.UnitsConsumed, f.NextPeriodUsage, s.opts.DefaultBlendedRate)
	}
	if err := s.store.SaveDashboardSnapshot(ctx, snap); err != nil {
		log.Printf("tracker: dashboard snapshot update failed: %v", err)
	}
}

// savingsPotential estimates the monthly amount saved if the household held
// usage at the projected level rather than the current one.
func savingsPotential(currentUsage, projectedUsage, rate float64) float64 {
	return math.Max(0, math.Round((currentUsage-projectedUsage)*rate))
}

// MonthlyPoint is one month of aggregated usage and cost.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Usage float64 `json:"usage"`
	Cost  float64 `json:"cost"`
}

// CategoryUsage splits current consumption across appliance categories using
// a fixed heuristic distribution.
type CategoryUsage struct {
	Category string  `json:"category"`
	Usage    float64 `json:"usage"`
	Color    string  `json:"color"`
}

// Dashboard is the aggregate view served to the dashboard surface.
type Dashboard struct {
	CurrentUsage     float64         `json:"currentUsage"`
	CurrentBill      float64         `json:"currentBill"`
	AIPrediction     float64         `json:"aiPrediction"`
	SavingsPotential float64         `json:"savingsPotential"`
	MonthlyData      []MonthlyPoint  `json:"monthlyData"`
	UsageBreakdown   []CategoryUsage `json:"usageBreakdown"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

var breakdownShares = []struct {
	category string
	share    float64
	color    string
}{
	{"Air Conditioning", 0.40, "#3b82f6"},
	{"Lighting", 0.20, "#10b981"},
	{"Water Heating", 0.15, "#f59e0b"},
	{"Refrigerator", 0.15, "#ef4444"},
	{"Others", 0.10, "#8b5cf6"},
}

// Dashboard assembles the current snapshot, the last six calendar months of
// usage/cost, and the category breakdown from history.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	history, err := s.History(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	f, err := s.Forecast(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{LastUpdated: time.Now().UTC()}
	if len(history) > 0 {
		latest := history[len(history)-1]
		d.CurrentUsage = latest.UnitsConsumed
		d.CurrentBill = latest.TotalBill
		d.AIPrediction = f.NextPeriodUsage
		d.SavingsPotential = savingsPotential(latest.UnitsConsumed, f.NextPeriodUsage, s.opts.DefaultBlendedRate)
	}

	d.MonthlyData = monthlySeries(history, time.Now().UTC(), 6)
	for _, sh := range breakdownShares {
		d.UsageBreakdown = append(d.UsageBreakdown, CategoryUsage{
			Category: sh.category,
			Usage:    math.Round(d.CurrentUsage * sh.share),
			Color:    sh.color,
		})
	}
	return d, nil
}

// monthlySeries aggregates usage and cost per calendar month for the last n
// months ending at ref, oldest first. Months without bills stay at zero.
func monthlySeries(history []billing.BillResult, ref time.Time, n int) []MonthlyPoint {
	type key struct{ year int; month time.Month }

	totals := make(map[key]*MonthlyPoint)
	series := make([]MonthlyPoint, 0, n)
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		m := start.AddDate(0, i, 0)
		series = append(series, MonthlyPoint{Month: m.Format("Jan")})
		totals[key{m.Year(), m.Month()}] = &series[len(series)-1]
	}

	for _, b := range history {
		ts := b.Timestamp.UTC()
		if p, ok := totals[key{ts.Year(), ts.Month()}]; ok {
			p.Usage += b.UnitsConsumed
			p.Cost += b.TotalBill
		}
	}
	return series
}

// Tips returns the personalized tip list for the current usage level.
func (s *Service) Tips(ctx context.Context) ([]advisor.Tip, error) {
	recent, err := s.store.ListRecentBills(ctx, 1)
	if err != nil {
		return nil, err
	}
	usage := 0.0
	if len(recent) > 0 {
		usage = recent[0].UnitsConsumed
	}
	return advisor.Tips(usage), nil
}

// SaveChatMessage appends one transcript entry. role is "user" or "bot".
func (s *Service) SaveChatMessage(ctx context.Context, role, content string) (storage.ChatMessage, error) {
	msg := storage.ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendChatMessage(ctx, msg); err != nil {
		return storage.ChatMessage{}, err
	}
	return msg, nil
}

// ChatMessages returns up to limit transcript entries, chronological.
func (s *Service) ChatMessages(ctx context.Context, limit int) ([]storage.ChatMessage, error) {
	return s.store.ListChatMessages(ctx, limit)
}

// ClearChat wipes the transcript.
func (s *Service) ClearChat(ctx context.Context) error {
	return s.store.ClearChatMessages(ctx)
}
