package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestComputeCollectionFigures(t *testing.T) {
	// 250 plays since last collection, $2.50 prizes, 30% venue commission
	figures := ComputeCollectionFigures(1250, 1000, d("500.00"), d("2.50"), d("30"))

	if figures.ToysDispensed != 250 {
		t.Errorf("toys dispensed = %d, want 250", figures.ToysDispensed)
	}
	if !figures.PrizeCost.Equal(d("625.00")) {
		t.Errorf("prize cost = %s, want 625.00", figures.PrizeCost)
	}
	// 625 / 500 * 100
	if !figures.PayoutPercentage.Equal(d("125.00")) {
		t.Errorf("payout = %s, want 125.00", figures.PayoutPercentage)
	}
	// 500 * 30%
	if !figures.Commission.Equal(d("150.00")) {
		t.Errorf("commission = %s, want 150.00", figures.Commission)
	}
}

func TestComputeCollectionFiguresCounterReset(t *testing.T) {
	// board swap resets the counter below the previous reading
	figures := ComputeCollectionFigures(40, 9950, d("120.00"), d("2.00"), d("25"))

	if figures.ToysDispensed != 0 {
		t.Errorf("toys dispensed = %d, want 0 after counter reset", figures.ToysDispensed)
	}
	if !figures.PrizeCost.IsZero() {
		t.Errorf("prize cost = %s, want 0", figures.PrizeCost)
	}
	if !figures.PayoutPercentage.IsZero() {
		t.Errorf("payout = %s, want 0", figures.PayoutPercentage)
	}
	// commission still applies to money collected
	if !figures.Commission.Equal(d("30.00")) {
		t.Errorf("commission = %s, want 30.00", figures.Commission)
	}
}

func TestComputeCollectionFiguresZeroMoney(t *testing.T) {
	figures := ComputeCollectionFigures(110, 100, decimal.Zero, d("3.00"), d("40"))

	if figures.ToysDispensed != 10 {
		t.Errorf("toys dispensed = %d, want 10", figures.ToysDispensed)
	}
	// no division by zero, payout reported as zero
	if !figures.PayoutPercentage.IsZero() {
		t.Errorf("payout = %s, want 0 when no money collected", figures.PayoutPercentage)
	}
	if !figures.Commission.IsZero() {
		t.Errorf("commission = %s, want 0", figures.Commission)
	}
}

func TestComputeCollectionFiguresRounding(t *testing.T) {
	// 3 toys at $1.99 over $10.00 -> 59.70%
	figures := ComputeCollectionFigures(3, 0, d("10.00"), d("1.99"), d("33.33"))

	if !figures.PrizeCost.Equal(d("5.97")) {
		t.Errorf("prize cost = %s, want 5.97", figures.PrizeCost)
	}
	if !figures.PayoutPercentage.Equal(d("59.70")) {
		t.Errorf("payout = %s, want 59.70", figures.PayoutPercentage)
	}
	if !figures.Commission.Equal(d("3.33")) {
		t.Errorf("commission = %s, want 3.33", figures.Commission)
	}
}
