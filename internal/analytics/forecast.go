// Package analytics derives next-period forecasts from bill history. The
// models are deliberately simple heuristics (flat growth on the long-run
// average, two-point trend, linear efficiency decay), not regressions.
package analytics

import (
	"math"
	"time"

	"github.com/Pranuu07/Power-Predictor/internal/advisor"
	"github.com/Pranuu07/Power-Predictor/internal/billing"
)

// Trend classifies the short-run direction of consumption between the two
// most recent billing periods.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Forecast is the derived view over the bill history. It is recomputed on
// demand and never treated as a source of truth.
type Forecast struct {
	NextPeriodUsage float64   `json:"nextPeriodUsage"`
	NextPeriodCost  float64   `json:"nextPeriodCost"`
	EfficiencyScore int       `json:"efficiencyScore"`
	Trend           Trend     `json:"trend"`
	Confidence      int       `json:"confidence"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Options holds the analytics knobs that source variants disagree on.
type Options struct {
	// GrowthFactor is applied to the long-run average usage to project the
	// next period.
	GrowthFactor float64
	// DefaultBlendedRate prices the projection when the latest bill had zero
	// consumption and no effective rate can be derived from it.
	DefaultBlendedRate float64
	// TrendThresholdPct is the percent change beyond which consumption is
	// classified as increasing or decreasing. Boundary values are stable.
	TrendThresholdPct float64
}

// DefaultOptions returns the reference knobs: 5% growth, 5.50 fallback rate,
// 5% trend threshold.
func DefaultOptions() Options {
	return Options{
		GrowthFactor:       1.05,
		DefaultBlendedRate: 5.50,
		TrendThresholdPct:  5,
	}
}

// GenerateForecast computes the forecast for the given chronological history.
// It never fails: empty history yields the zero placeholder forecast with the
// getting-started recommendations and zero confidence.
//
// The average is taken over the entire history (long-run baseline) while the
// trend compares only the two most recent entries (short-run signal).
func GenerateForecast(history []billing.BillResult, opts Options) Forecast {
	now := time.Now().UTC()
	if len(history) == 0 {
		return Forecast{
			NextPeriodUsage: 0,
			NextPeriodCost:  0,
			EfficiencyScore: 0,
			Trend:           TrendStable,
			Confidence:      0,
			Recommendations: advisor.Recommendations(0, 0),
			GeneratedAt:     now,
		}
	}

	var totalUnits float64
	for _, b := range history {
		totalUnits += b.UnitsConsumed
	}
	averageUsage := totalUnits / float64(len(history))

	latest := history[len(history)-1]
	trend := classifyTrend(history, opts.TrendThresholdPct)

	nextUsage := math.Round(averageUsage * opts.GrowthFactor)
	nextCost := math.Round(nextUsage * blendedRate(latest, opts))

	efficiency := int(math.Round(clamp(100-averageUsage/10, 0, 100)))

	confidence := 60
	if len(history) > 2 {
		confidence = 85
	}

	return Forecast{
		NextPeriodUsage: nextUsage,
		NextPeriodCost:  nextCost,
		EfficiencyScore: efficiency,
		Trend:           trend,
		Confidence:      confidence,
		Recommendations: advisor.Recommendations(latest.UnitsConsumed, float64(efficiency)),
		GeneratedAt:     now,
	}
}

// classifyTrend compares the two most recent entries. Fewer than two entries,
// or a zero previous period (percent change undefined), reads as stable.
func classifyTrend(history []billing.BillResult, thresholdPct float64) Trend {
	if len(history) < 2 {
		return TrendStable
	}
	latest := history[len(history)-1].UnitsConsumed
	previous := history[len(history)-2].UnitsConsumed
	if previous == 0 {
		return TrendStable
	}
	change := (latest - previous) / previous * 100
	switch {
	case change > thresholdPct:
		return TrendIncreasing
	case change < -thresholdPct:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// blendedRate derives the effective per-unit cost from the most recent bill,
// falling back to the configured default for a zero-consumption bill.
func blendedRate(latest billing.BillResult, opts Options) float64 {
	if latest.UnitsConsumed > 0 {
		return latest.TotalBill / latest.UnitsConsumed
	}
	return opts.DefaultBlendedRate
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
