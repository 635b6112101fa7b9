package advisor

import (
	"strings"
	"testing"
)

func TestRecommendations_ZeroUsageReturnsStarterList(t *testing.T) {
	recs := Recommendations(0, 0)
	if len(recs) != 3 {
		t.Fatalf("expected 3 starter recommendations, got %d", len(recs))
	}
	if !strings.Contains(recs[0], "Start tracking") {
		t.Errorf("unexpected first recommendation: %q", recs[0])
	}
}

func TestRecommendations_NeverMoreThanFour(t *testing.T) {
	for _, usage := range []float64{1, 100, 151, 200, 301, 1000} {
		for _, eff := range []float64{0, 30, 50, 60, 74, 75, 100} {
			if got := Recommendations(usage, eff); len(got) > 4 {
				t.Errorf("usage=%g eff=%g: %d recommendations, cap is 4", usage, eff, len(got))
			}
		}
	}
}

func TestRecommendations_HighUsageLeadsWithWarning(t *testing.T) {
	recs := Recommendations(350, 90)
	if !strings.Contains(recs[0], "quite high") {
		t.Errorf("expected high-usage warning first, got %q", recs[0])
	}
	// High efficiency: no efficiency bucket, so the generic message fits.
	last := recs[len(recs)-1]
	if !strings.Contains(last, "Monitor your usage") {
		t.Errorf("expected monitor message last, got %q", last)
	}
}

func TestRecommendations_ModerateBucketBoundary(t *testing.T) {
	// 150 is "good usage", anything above it up to 300 is moderate.
	if recs := Recommendations(150, 90); !strings.Contains(recs[0], "Good energy usage") {
		t.Errorf("usage 150: got %q", recs[0])
	}
	if recs := Recommendations(151, 90); !strings.Contains(recs[0], "Moderate usage") {
		t.Errorf("usage 151: got %q", recs[0])
	}
	if recs := Recommendations(300, 90); !strings.Contains(recs[0], "Moderate usage") {
		t.Errorf("usage 300: got %q", recs[0])
	}
	if recs := Recommendations(301, 90); !strings.Contains(recs[0], "quite high") {
		t.Errorf("usage 301: got %q", recs[0])
	}
}

func TestRecommendations_EfficiencyBuckets(t *testing.T) {
	low := Recommendations(100, 40)
	found := false
	for _, r := range low {
		if strings.Contains(r, "LED bulbs") {
			found = true
		}
	}
	if !found {
		t.Errorf("efficiency 40: expected LED recommendation, got %v", low)
	}

	mid := Recommendations(100, 60)
	found = false
	for _, r := range mid {
		if strings.Contains(r, "maintenance") || strings.Contains(r, "thermostats") {
			found = true
		}
	}
	if !found {
		t.Errorf("efficiency 60: expected maintenance recommendation, got %v", mid)
	}
}

func TestTips_ZeroUsageStarter(t *testing.T) {
	tips := Tips(0)
	if len(tips) != 4 {
		t.Fatalf("expected 4 tips at zero usage, got %d", len(tips))
	}
	if tips[0].ID != "start" {
		t.Errorf("first tip = %q, want start card", tips[0].ID)
	}
}

func TestTips_HighUsageAlertFirst(t *testing.T) {
	tips := Tips(350)
	if tips[0].ID != "high-usage" || tips[0].Priority != "Critical" {
		t.Errorf("expected high-usage alert first, got %+v", tips[0])
	}
	if len(tips) != 7 {
		t.Errorf("expected 7 tips, got %d", len(tips))
	}
}

func TestTips_PriorityScalesWithUsage(t *testing.T) {
	low := Tips(50)
	if low[0].Priority != "Medium" {
		t.Errorf("LED tip priority at 50 units = %q, want Medium", low[0].Priority)
	}
	high := Tips(250)
	if high[0].Priority != "High" {
		t.Errorf("LED tip priority at 250 units = %q, want High", high[0].Priority)
	}
}
