package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/Pranuu07/Power-Predictor/internal/analytics"
	"github.com/Pranuu07/Power-Predictor/internal/billing"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
)

// billToRecord flattens a calculation result into its storage row. The
// per-slab breakdown travels as a JSON payload in a single column.
func billToRecord(b billing.BillResult) (storage.BillRecord, error) {
	breakdown, err := json.Marshal(b.PerSlabBreakdown)
	if err != nil {
		return storage.BillRecord{}, fmt.Errorf("tracker: marshal breakdown: %w", err)
	}
	return storage.BillRecord{
		ID:              b.ID,
		PreviousReading: b.PreviousReading,
		CurrentReading:  b.CurrentReading,
		UnitsConsumed:   b.UnitsConsumed,
		EnergyCharges:   b.EnergyCharges,
		FixedCharges:    b.FixedCharges,
		Taxes:           b.Taxes,
		TotalBill:       b.TotalBill,
		Breakdown:       breakdown,
		CreatedAt:       b.Timestamp,
	}, nil
}

func recordToBill(r storage.BillRecord) (billing.BillResult, error) {
	b := billing.BillResult{
		ID:              r.ID,
		PreviousReading: r.PreviousReading,
		CurrentReading:  r.CurrentReading,
		UnitsConsumed:   r.UnitsConsumed,
		EnergyCharges:   r.EnergyCharges,
		FixedCharges:    r.FixedCharges,
		Taxes:           r.Taxes,
		TotalBill:       r.TotalBill,
		Timestamp:       r.CreatedAt,
	}
	if len(r.Breakdown) > 0 {
		if err := json.Unmarshal(r.Breakdown, &b.PerSlabBreakdown); err != nil {
			return billing.BillResult{}, fmt.Errorf("tracker: unmarshal breakdown for %s: %w", r.ID, err)
		}
	}
	return b, nil
}

func recordsToBills(recs []storage.BillRecord) ([]billing.BillResult, error) {
	bills := make([]billing.BillResult, 0, len(recs))
	for _, r := range recs {
		b, err := recordToBill(r)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func marshalForecast(f analytics.Forecast) ([]byte, error) {
	return json.Marshal(f)
}
