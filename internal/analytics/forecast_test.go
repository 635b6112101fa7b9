package analytics

import (
	"strings"
	"testing"

	"github.com/Pranuu07/Power-Predictor/internal/billing"
)

func bills(units ...float64) []billing.BillResult {
	out := make([]billing.BillResult, len(units))
	for i, u := range units {
		out[i] = billing.BillResult{
			UnitsConsumed: u,
			TotalBill:     u * 5, // flat synthetic rate
		}
	}
	return out
}

func TestGenerateForecast_EmptyHistory(t *testing.T) {
	f := GenerateForecast(nil, DefaultOptions())

	if f.NextPeriodUsage != 0 || f.NextPeriodCost != 0 {
		t.Errorf("expected zero projections, got usage=%g cost=%g", f.NextPeriodUsage, f.NextPeriodCost)
	}
	if f.EfficiencyScore != 0 || f.Confidence != 0 {
		t.Errorf("expected zero score and confidence, got %d / %d", f.EfficiencyScore, f.Confidence)
	}
	if f.Trend != TrendStable {
		t.Errorf("trend = %q, want stable", f.Trend)
	}
	if len(f.Recommendations) != 3 || !strings.Contains(f.Recommendations[0], "Start tracking") {
		t.Errorf("expected 3-item starter list, got %v", f.Recommendations)
	}
}

func TestGenerateForecast_TrendClassification(t *testing.T) {
	opts := DefaultOptions()
	cases := []struct {
		name  string
		hist  []billing.BillResult
		want  Trend
	}{
		{"increasing 20pct", bills(100, 120), TrendIncreasing},
		{"boundary -5pct is stable", bills(100, 95), TrendStable},
		{"decreasing beyond threshold", bills(100, 94), TrendDecreasing},
		{"boundary +5pct is stable", bills(100, 105), TrendStable},
		{"single entry", bills(100), TrendStable},
		{"zero previous period", bills(0, 50), TrendStable},
		{"trend uses last two only", bills(400, 100, 120), TrendIncreasing},
	}
	for _, tc := range cases {
		if got := GenerateForecast(tc.hist, opts).Trend; got != tc.want {
			t.Errorf("%s: trend = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGenerateForecast_AverageOverEntireHistory(t *testing.T) {
	// avg of (100, 200, 300) = 200; projection = round(200 * 1.05) = 210.
	f := GenerateForecast(bills(100, 200, 300), DefaultOptions())
	if f.NextPeriodUsage != 210 {
		t.Errorf("next usage = %g, want 210", f.NextPeriodUsage)
	}
	// Blended rate from the latest bill: 1500/300 = 5. Cost = 210*5 = 1050.
	if f.NextPeriodCost != 1050 {
		t.Errorf("next cost = %g, want 1050", f.NextPeriodCost)
	}
}

func TestGenerateForecast_BlendedRateFallback(t *testing.T) {
	// Latest bill has zero consumption: fall back to the default rate.
	hist := bills(100, 0)
	f := GenerateForecast(hist, DefaultOptions())
	// avg = 50, usage = round(52.5) = 53, cost = round(53 * 5.50) = 292.
	if f.NextPeriodUsage != 53 {
		t.Errorf("next usage = %g, want 53", f.NextPeriodUsage)
	}
	if f.NextPeriodCost != 292 {
		t.Errorf("next cost = %g, want 292", f.NextPeriodCost)
	}
}

func TestGenerateForecast_EfficiencyScore(t *testing.T) {
	// avg 100 -> 90; avg 2000 -> clamped to 0.
	if f := GenerateForecast(bills(100), DefaultOptions()); f.EfficiencyScore != 90 {
		t.Errorf("efficiency at avg 100 = %d, want 90", f.EfficiencyScore)
	}
	if f := GenerateForecast(bills(2000), DefaultOptions()); f.EfficiencyScore != 0 {
		t.Errorf("efficiency at avg 2000 = %d, want 0", f.EfficiencyScore)
	}
}

func TestGenerateForecast_Confidence(t *testing.T) {
	if f := GenerateForecast(bills(100, 110), DefaultOptions()); f.Confidence != 60 {
		t.Errorf("confidence with 2 entries = %d, want 60", f.Confidence)
	}
	if f := GenerateForecast(bills(100, 110, 120), DefaultOptions()); f.Confidence != 85 {
		t.Errorf("confidence with 3 entries = %d, want 85", f.Confidence)
	}
}
