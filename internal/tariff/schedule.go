package tariff

import (
	"fmt"
	"math"
)

// Slab is one consumption band of a progressive tariff. UpperBound == 0
// marks the unbounded top slab; every other slab bills units in
// [LowerBound, UpperBound).
type Slab struct {
	LowerBound  float64 `json:"lower" yaml:"lower"`
	UpperBound  float64 `json:"upper,omitempty" yaml:"upper"`
	RatePerUnit float64 `json:"rate" yaml:"rate"`
}

// Unbounded reports whether the slab absorbs all remaining consumption.
func (s Slab) Unbounded() bool { return s.UpperBound == 0 }

// Capacity returns the number of units the slab can bill, +Inf for the
// unbounded top slab.
func (s Slab) Capacity() float64 {
	if s.Unbounded() {
		return math.Inf(1)
	}
	return s.UpperBound - s.LowerBound
}

// RangeLabel renders the human-readable range used in bill breakdowns,
// e.g. "0-100 units", "101-200 units", "Above 300 units".
func (s Slab) RangeLabel() string {
	if s.Unbounded() {
		return fmt.Sprintf("Above %g units", s.LowerBound)
	}
	if s.LowerBound == 0 {
		return fmt.Sprintf("0-%g units", s.UpperBound)
	}
	return fmt.Sprintf("%g-%g units", s.LowerBound+1, s.UpperBound)
}

// Schedule is the full tariff configuration: ordered slabs, a flat
// per-period charge, and the tax rate applied to the pre-tax subtotal.
// A Schedule is loaded once at startup and never mutated.
type Schedule struct {
	Slabs       []Slab  `json:"slabs" yaml:"slabs"`
	FixedCharge float64 `json:"fixedCharge" yaml:"fixed_charge"`
	TaxRate     float64 `json:"taxRate" yaml:"tax_rate"`
}

// Default returns the reference residential schedule: 3.50/4.50/6.00 for the
// first three 100-unit bands, 7.50 above 300 units, 50 fixed, 10% tax.
func Default() Schedule {
	return Schedule{
		Slabs: []Slab{
			{LowerBound: 0, UpperBound: 100, RatePerUnit: 3.50},
			{LowerBound: 100, UpperBound: 200, RatePerUnit: 4.50},
			{LowerBound: 200, UpperBound: 300, RatePerUnit: 6.00},
			{LowerBound: 300, RatePerUnit: 7.50},
		},
		FixedCharge: 50,
		TaxRate:     0.10,
	}
}

// Validate checks the structural invariants: at least one slab, slabs sorted
// and contiguous starting at zero, non-negative rates, exactly one unbounded
// slab in last position, fixed charge >= 0 and tax rate in [0,1).
func (s Schedule) Validate() error {
	if len(s.Slabs) == 0 {
		return fmt.Errorf("tariff: schedule has no slabs")
	}
	if s.FixedCharge < 0 {
		return fmt.Errorf("tariff: fixed charge %g is negative", s.FixedCharge)
	}
	if s.TaxRate < 0 || s.TaxRate >= 1 {
		return fmt.Errorf("tariff: tax rate %g outside [0,1)", s.TaxRate)
	}

	expectedLower := 0.0
	for i, slab := range s.Slabs {
		if slab.RatePerUnit < 0 {
			return fmt.Errorf("tariff: slab %d has negative rate %g", i, slab.RatePerUnit)
		}
		if slab.LowerBound != expectedLower {
			return fmt.Errorf("tariff: slab %d starts at %g, want %g (slabs must be contiguous)", i, slab.LowerBound, expectedLower)
		}
		if slab.Unbounded() {
			if i != len(s.Slabs)-1 {
				return fmt.Errorf("tariff: unbounded slab %d is not last", i)
			}
			return nil
		}
		if slab.UpperBound <= slab.LowerBound {
			return fmt.Errorf("tariff: slab %d upper bound %g <= lower bound %g", i, slab.UpperBound, slab.LowerBound)
		}
		expectedLower = slab.UpperBound
	}
	return fmt.Errorf("tariff: last slab must be unbounded (upper bound 0)")
}
