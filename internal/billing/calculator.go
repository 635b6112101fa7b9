package billing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pranuu07/Power-Predictor/internal/tariff"
)

// ErrInvalidReading indicates a reading that is not a usable meter value
// (NaN, infinite, or negative).
var ErrInvalidReading = errors.New("billing: invalid meter reading")

// ErrNegativeConsumption indicates currentReading < previousReading. The
// calculator rejects negative consumption rather than clamping it.
var ErrNegativeConsumption = errors.New("billing: current reading cannot be less than previous reading")

// SlabLine is one row of the per-slab breakdown. Slabs that received no
// units are omitted from the breakdown entirely.
type SlabLine struct {
	Range       string  `json:"range"`
	Rate        float64 `json:"rate"`
	UnitsInSlab float64 `json:"unitsInSlab"`
	Amount      float64 `json:"amount"`
}

// BillResult is an itemized bill for one pair of meter readings. It is
// created once by Calculate and never mutated afterwards; the history store
// owns it from then on.
type BillResult struct {
	ID               string     `json:"id"`
	PreviousReading  float64    `json:"previousReading"`
	CurrentReading   float64    `json:"currentReading"`
	UnitsConsumed    float64    `json:"unitsConsumed"`
	PerSlabBreakdown []SlabLine `json:"perSlabBreakdown"`
	EnergyCharges    float64    `json:"energyCharges"`
	FixedCharges     float64    `json:"fixedCharges"`
	Taxes            float64    `json:"taxes"`
	TotalBill        float64    `json:"totalBill"`
	Timestamp        time.Time  `json:"timestamp"`
}

// Calculate converts two meter readings into an itemized bill under the
// given progressive schedule. Pure: the caller is responsible for appending
// the result to history.
//
// Money math runs on decimals and is rounded half-up to two places at the
// edges, so slab amounts always sum exactly to the energy charges. Tax
// applies to the pre-tax subtotal (energy + fixed charges).
func Calculate(previousReading, currentReading float64, schedule tariff.Schedule) (*BillResult, error) {
	if !validReading(previousReading) || !validReading(currentReading) {
		return nil, ErrInvalidReading
	}
	if currentReading < previousReading {
		return nil, ErrNegativeConsumption
	}

	units := decimal.NewFromFloat(currentReading).Sub(decimal.NewFromFloat(previousReading))

	var breakdown []SlabLine
	energy := decimal.Zero
	remaining := units
	for _, slab := range schedule.Slabs {
		if remaining.IsZero() {
			break
		}
		take := remaining
		if !slab.Unbounded() {
			capacity := decimal.NewFromFloat(slab.UpperBound).Sub(decimal.NewFromFloat(slab.LowerBound))
			if take.GreaterThan(capacity) {
				take = capacity
			}
		}
		amount := take.Mul(decimal.NewFromFloat(slab.RatePerUnit))
		energy = energy.Add(amount)
		breakdown = append(breakdown, SlabLine{
			Range:       slab.RangeLabel(),
			Rate:        slab.RatePerUnit,
			UnitsInSlab: take.InexactFloat64(),
			Amount:      amount.Round(2).InexactFloat64(),
		})
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		// Validate guarantees an unbounded top slab, so this only happens
		// with a schedule that skipped validation.
		return nil, fmt.Errorf("billing: %s units not covered by schedule", remaining)
	}

	fixed := decimal.NewFromFloat(schedule.FixedCharge)
	taxes := energy.Add(fixed).Mul(decimal.NewFromFloat(schedule.TaxRate))
	total := energy.Add(fixed).Add(taxes)

	return &BillResult{
		ID:               uuid.New().String(),
		PreviousReading:  previousReading,
		CurrentReading:   currentReading,
		UnitsConsumed:    units.InexactFloat64(),
		PerSlabBreakdown: breakdown,
		EnergyCharges:    energy.Round(2).InexactFloat64(),
		FixedCharges:     fixed.Round(2).InexactFloat64(),
		Taxes:            taxes.Round(2).InexactFloat64(),
		TotalBill:        total.Round(2).InexactFloat64(),
		Timestamp:        time.Now().UTC(),
	}, nil
}

func validReading(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0
}
