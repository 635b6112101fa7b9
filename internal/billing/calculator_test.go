package billing

import (
	"errors"
	"math"
	"testing"

	"github.com/Pranuu07/Power-Predictor/internal/tariff"
)

func TestCalculate_EndToEndScenario(t *testing.T) {
	// 250 units: 100@3.50 + 100@4.50 + 50@6.00 = 1100 energy,
	// 50 fixed, 10% tax on 1150 = 115, total 1265.
	bill, err := Calculate(1000, 1250, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bill.UnitsConsumed != 250 {
		t.Errorf("units = %g, want 250", bill.UnitsConsumed)
	}
	if bill.EnergyCharges != 1100 {
		t.Errorf("energy charges = %g, want 1100", bill.EnergyCharges)
	}
	if bill.FixedCharges != 50 {
		t.Errorf("fixed charges = %g, want 50", bill.FixedCharges)
	}
	if bill.Taxes != 115 {
		t.Errorf("taxes = %g, want 115", bill.Taxes)
	}
	if bill.TotalBill != 1265 {
		t.Errorf("total = %g, want 1265", bill.TotalBill)
	}

	if len(bill.PerSlabBreakdown) != 3 {
		t.Fatalf("expected 3 breakdown rows, got %d", len(bill.PerSlabBreakdown))
	}
	wantRows := []SlabLine{
		{Range: "0-100 units", Rate: 3.5, UnitsInSlab: 100, Amount: 350},
		{Range: "101-200 units", Rate: 4.5, UnitsInSlab: 100, Amount: 450},
		{Range: "201-300 units", Rate: 6, UnitsInSlab: 50, Amount: 300},
	}
	for i, want := range wantRows {
		if bill.PerSlabBreakdown[i] != want {
			t.Errorf("row %d = %+v, want %+v", i, bill.PerSlabBreakdown[i], want)
		}
	}
}

func TestCalculate_SlabContinuity(t *testing.T) {
	sch := tariff.Default()

	b100, err := Calculate(0, 100, sch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b100.EnergyCharges != 350 {
		t.Errorf("energy(100) = %g, want 350", b100.EnergyCharges)
	}
	// Exactly at the boundary: nothing assigned to the second slab.
	if len(b100.PerSlabBreakdown) != 1 {
		t.Errorf("energy(100) touched %d slabs, want 1", len(b100.PerSlabBreakdown))
	}

	b150, err := Calculate(0, 150, sch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b150.EnergyCharges != 575 {
		t.Errorf("energy(150) = %g, want 575", b150.EnergyCharges)
	}
}

func TestCalculate_Monotonic(t *testing.T) {
	sch := tariff.Default()
	prevEnergy := -1.0
	for _, u := range []float64{0, 1, 50, 99, 100, 101, 199, 200, 250, 300, 301, 500, 10000} {
		bill, err := Calculate(0, u, sch)
		if err != nil {
			t.Fatalf("units %g: unexpected error: %v", u, err)
		}
		if bill.EnergyCharges < prevEnergy {
			t.Errorf("energy charges decreased at %g units: %g < %g", u, bill.EnergyCharges, prevEnergy)
		}
		prevEnergy = bill.EnergyCharges
	}
}

func TestCalculate_ZeroConsumption(t *testing.T) {
	bill, err := Calculate(100, 100, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bill.UnitsConsumed != 0 || bill.EnergyCharges != 0 {
		t.Errorf("expected zero units and energy, got %g units / %g energy", bill.UnitsConsumed, bill.EnergyCharges)
	}
	if len(bill.PerSlabBreakdown) != 0 {
		t.Errorf("expected empty breakdown, got %d rows", len(bill.PerSlabBreakdown))
	}
	// fixedCharge * (1 + taxRate) = 50 * 1.10 = 55
	if bill.TotalBill != 55 {
		t.Errorf("total = %g, want 55", bill.TotalBill)
	}
}

func TestCalculate_NegativeConsumptionRejected(t *testing.T) {
	_, err := Calculate(100, 90, tariff.Default())
	if !errors.Is(err, ErrNegativeConsumption) {
		t.Fatalf("expected ErrNegativeConsumption, got %v", err)
	}
}

func TestCalculate_InvalidReadings(t *testing.T) {
	sch := tariff.Default()
	for _, pair := range [][2]float64{
		{math.NaN(), 100},
		{100, math.NaN()},
		{math.Inf(1), 100},
		{-5, 100},
	} {
		if _, err := Calculate(pair[0], pair[1], sch); !errors.Is(err, ErrInvalidReading) {
			t.Errorf("Calculate(%g, %g): expected ErrInvalidReading, got %v", pair[0], pair[1], err)
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	a, err := Calculate(500, 742, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Calculate(500, 742, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == b.ID {
		t.Errorf("two calculations share an id")
	}
	if a.UnitsConsumed != b.UnitsConsumed ||
		a.EnergyCharges != b.EnergyCharges ||
		a.Taxes != b.Taxes ||
		a.TotalBill != b.TotalBill ||
		len(a.PerSlabBreakdown) != len(b.PerSlabBreakdown) {
		t.Errorf("identical inputs produced different bills: %+v vs %+v", a, b)
	}
}

func TestCalculate_LargeConsumptionAbsorbedByTopSlab(t *testing.T) {
	bill, err := Calculate(0, 1e6, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := bill.PerSlabBreakdown[len(bill.PerSlabBreakdown)-1]
	if top.Range != "Above 300 units" {
		t.Errorf("top row range = %q", top.Range)
	}
	if top.UnitsInSlab != 1e6-300 {
		t.Errorf("top slab units = %g, want %g", top.UnitsInSlab, 1e6-300)
	}
}

func TestCalculate_FractionalRounding(t *testing.T) {
	// 10.5 units @ 3.50 = 36.75 energy, fixed 50, tax 8.675 -> 8.68 (half-up),
	// total 95.425 -> 95.43.
	bill, err := Calculate(0, 10.5, tariff.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bill.EnergyCharges != 36.75 {
		t.Errorf("energy = %g, want 36.75", bill.EnergyCharges)
	}
	if bill.Taxes != 8.68 {
		t.Errorf("taxes = %g, want 8.68", bill.Taxes)
	}
	if bill.TotalBill != 95.43 {
		t.Errorf("total = %g, want 95.43", bill.TotalBill)
	}
}
