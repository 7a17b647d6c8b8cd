package pricing

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceComboProportionalSplit(t *testing.T) {
	// Product A 35.00 x1, product B 30.00 x1, 10% off:
	// baseSum 65.00, discounted 58.50, A gets 31.50, B absorbs 27.00.
	components := []Component{
		{ProductID: 1, Name: "A", Price: 35.00, Quantity: 1},
		{ProductID: 2, Name: "B", Price: 30.00, Quantity: 1},
	}

	result, err := PriceCombo(components, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(result.BaseSum, 65.00) {
		t.Fatalf("expected baseSum 65.00, got %.2f", result.BaseSum)
	}
	if !almostEqual(result.DiscountedTotal, 58.50) {
		t.Fatalf("expected discounted total 58.50, got %.2f", result.DiscountedTotal)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	if !almostEqual(result.Lines[0].UnitPrice, 31.50) {
		t.Fatalf("expected first unit price 31.50, got %.2f", result.Lines[0].UnitPrice)
	}
	if !almostEqual(result.Lines[1].UnitPrice, 27.00) {
		t.Fatalf("expected last unit price 27.00, got %.2f", result.Lines[1].UnitPrice)
	}

	var sum float64
	for _, line := range result.Lines {
		sum += line.Subtotal
	}
	if !almostEqual(Round2(sum), result.DiscountedTotal) {
		t.Fatalf("line subtotals %.2f do not reconcile to %.2f", sum, result.DiscountedTotal)
	}
}

func TestPriceComboRemainderAbsorption(t *testing.T) {
	// baseSum 10.01, 10% off -> 9.01. Proportional unit prices round to 3.00
	// for the first two ids, so the highest id must absorb 3.01.
	components := []Component{
		{ProductID: 3, Name: "C", Price: 3.35, Quantity: 1},
		{ProductID: 1, Name: "A", Price: 3.33, Quantity: 1},
		{ProductID: 2, Name: "B", Price: 3.33, Quantity: 1},
	}

	result, err := PriceCombo(components, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(result.Lines[2].UnitPrice, 3.01) {
		t.Fatalf("expected last line to absorb 3.01, got %.2f", result.Lines[2].UnitPrice)
	}

	// Input order must not matter: components are processed by ascending id.
	if result.Lines[0].ProductID != 1 || result.Lines[1].ProductID != 2 || result.Lines[2].ProductID != 3 {
		t.Fatalf("expected lines ordered by product id, got %v, %v, %v",
			result.Lines[0].ProductID, result.Lines[1].ProductID, result.Lines[2].ProductID)
	}

	var sum float64
	for _, line := range result.Lines {
		sum += line.Subtotal
	}
	if !almostEqual(Round2(sum), result.DiscountedTotal) {
		t.Fatalf("line subtotals %.2f do not reconcile to %.2f", sum, result.DiscountedTotal)
	}
}

func TestPriceComboAbsorbsRemainderInSubtotal(t *testing.T) {
	// baseSum 9.99, 10% off -> 8.99. The first line takes 3.00, leaving 5.99
	// for the last component, whose quantity of 3 does not divide 5.99 into
	// whole cents. The subtotal must still carry the exact 5.99 so the lines
	// reconcile; the 2.00 unit price is display-only.
	components := []Component{
		{ProductID: 1, Name: "A", Price: 3.33, Quantity: 1},
		{ProductID: 2, Name: "B", Price: 2.22, Quantity: 3},
	}

	result, err := PriceCombo(components, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(result.DiscountedTotal, 8.99) {
		t.Fatalf("expected discounted total 8.99, got %.2f", result.DiscountedTotal)
	}
	if !almostEqual(result.Lines[1].UnitPrice, 2.00) {
		t.Fatalf("expected last unit price 2.00, got %.2f", result.Lines[1].UnitPrice)
	}
	if !almostEqual(result.Lines[1].Subtotal, 5.99) {
		t.Fatalf("expected last subtotal 5.99, got %.2f", result.Lines[1].Subtotal)
	}

	var sum float64
	for _, line := range result.Lines {
		sum += line.Subtotal
	}
	if !almostEqual(Round2(sum), result.DiscountedTotal) {
		t.Fatalf("line subtotals %.2f do not reconcile to %.2f", sum, result.DiscountedTotal)
	}

	// Same shape over several bundles keeps the reconciliation exact.
	result, err = PriceCombo(components, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum = 0
	for _, line := range result.Lines {
		sum += line.Subtotal
	}
	if !almostEqual(Round2(sum), result.Total) {
		t.Fatalf("line subtotals %.2f do not reconcile to total %.2f", sum, result.Total)
	}
}

func TestPriceComboDiscountBoundaries(t *testing.T) {
	components := []Component{
		{ProductID: 1, Name: "A", Price: 12.50, Quantity: 2},
		{ProductID: 2, Name: "B", Price: 7.25, Quantity: 1},
	}

	t.Run("zero discount keeps base sum", func(t *testing.T) {
		result, err := PriceCombo(components, 0, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(result.DiscountedTotal, result.BaseSum) {
			t.Fatalf("expected discounted total %.2f to equal base sum %.2f", result.DiscountedTotal, result.BaseSum)
		}
	})

	t.Run("full discount zeroes every line", func(t *testing.T) {
		result, err := PriceCombo(components, 100, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(result.Total, 0) {
			t.Fatalf("expected zero total, got %.2f", result.Total)
		}
		for _, line := range result.Lines {
			if !almostEqual(line.UnitPrice, 0) || !almostEqual(line.Subtotal, 0) {
				t.Fatalf("expected zero line, got unit %.2f subtotal %.2f", line.UnitPrice, line.Subtotal)
			}
		}
	})

	t.Run("discount clamped above 100", func(t *testing.T) {
		result, err := PriceCombo(components, 250, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(result.Total, 0) {
			t.Fatalf("expected clamp to 100%%, got total %.2f", result.Total)
		}
	})

	t.Run("negative discount clamped to zero", func(t *testing.T) {
		result, err := PriceCombo(components, -5, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(result.DiscountedTotal, result.BaseSum) {
			t.Fatalf("expected no discount, got %.2f", result.DiscountedTotal)
		}
	})
}

func TestPriceComboZeroBaseSumSplitsEqually(t *testing.T) {
	components := []Component{
		{ProductID: 1, Name: "A", Price: 0, Quantity: 1},
		{ProductID: 2, Name: "B", Price: 0, Quantity: 1},
	}

	result, err := PriceCombo(components, 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result.Total, 0) {
		t.Fatalf("expected zero total, got %.2f", result.Total)
	}
}

func TestPriceComboMultipleBundles(t *testing.T) {
	components := []Component{
		{ProductID: 1, Name: "A", Price: 35.00, Quantity: 1},
		{ProductID: 2, Name: "B", Price: 30.00, Quantity: 1},
	}

	result, err := PriceCombo(components, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(result.Total, 175.50) {
		t.Fatalf("expected total 175.50 for 3 bundles, got %.2f", result.Total)
	}
	if result.Lines[0].Quantity != 3 {
		t.Fatalf("expected line quantity 3, got %d", result.Lines[0].Quantity)
	}

	var sum float64
	for _, line := range result.Lines {
		sum += line.Subtotal
	}
	if !almostEqual(Round2(sum), result.Total) {
		t.Fatalf("line subtotals %.2f do not reconcile to total %.2f", sum, result.Total)
	}
}

func TestPriceComboRejectsInvalidInput(t *testing.T) {
	var pricingErr *Error

	_, err := PriceCombo(nil, 10, 1)
	if !errors.As(err, &pricingErr) || pricingErr.Code != ErrComboNoComponents {
		t.Fatalf("expected COMBO_NO_COMPONENTS, got %v", err)
	}

	_, err = PriceCombo([]Component{{ProductID: 1, Price: 5, Quantity: 1}}, 10, 0)
	if !errors.As(err, &pricingErr) || pricingErr.Code != ErrQuantityInvalid {
		t.Fatalf("expected QUANTITY_INVALID, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in       float64
		expected float64
	}{
		{1.004, 1.00},
		{1.006, 1.01},
		{-1.006, -1.01},
		{58.499999999, 58.50},
		{27.000000001, 27.00},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); !almostEqual(got, tc.expected) {
			t.Fatalf("Round2(%v): expected %v, got %v", tc.in, tc.expected, got)
		}
	}
}
