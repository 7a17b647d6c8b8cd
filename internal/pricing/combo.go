// Package pricing computes order money amounts: plain line subtotals and the
// proportional split of a discounted combo price across its component
// products, with the last component absorbing the rounding remainder so the
// component subtotals reconcile to the discounted bundle price.
package pricing

import (
	"fmt"
	"math"
	"sort"
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// LineSubtotal is the canonical line arithmetic: unit price times quantity,
// rounded once.
func LineSubtotal(unitPrice float64, quantity int32) float64 {
	return Round2(unitPrice * float64(quantity))
}

// Component is one product inside a combo bundle with its effective
// per-bundle quantity already resolved (override > combo default > 1).
type Component struct {
	ProductID int64
	Name      string
	Price     float64
	Quantity  int32
}

// Line is one priced order line derived from a combo component.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice float64
	Quantity  int32
	Subtotal  float64
}

// ComboBreakdown is the result of pricing one combo cart item.
type ComboBreakdown struct {
	BaseSum         float64
	DiscountPct     float64
	DiscountedTotal float64
	Total           float64
	Lines           []Line
}

// ClampDiscount bounds a discount percentage to [0,100].
func ClampDiscount(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// PriceCombo splits the discounted bundle price across components. Components
// are processed in ascending product id order; that order is the contract, not
// an accident: the last product id absorbs whatever cents the proportional
// rounding left over. Absorption happens at the subtotal level, so the line
// subtotals always sum to exactly DiscountedTotal times bundles; the last
// line's unit price is a rounded quotient kept for display and may not
// multiply back to its subtotal when its quantity exceeds 1.
func PriceCombo(components []Component, discountPct float64, bundles int32) (*ComboBreakdown, error) {
	if bundles < 1 {
		return nil, newError(ErrQuantityInvalid, fmt.Sprintf("combo quantity must be at least 1, got %d", bundles))
	}
	if len(components) == 0 {
		return nil, newError(ErrComboNoComponents, "combo has no resolvable components")
	}

	sorted := make([]Component, len(components))
	copy(sorted, components)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for i := range sorted {
		if sorted[i].Quantity < 1 {
			sorted[i].Quantity = 1
		}
	}

	discountPct = ClampDiscount(discountPct)

	var baseSum float64
	for _, c := range sorted {
		baseSum += c.Price * float64(c.Quantity)
	}
	baseSum = Round2(baseSum)

	discountedTotal := Round2(baseSum * (1 - discountPct/100))

	lines := make([]Line, 0, len(sorted))
	remaining := discountedTotal
	for i, c := range sorted {
		lineQty := bundles * c.Quantity
		var unitPrice, subtotal float64
		if i == len(sorted)-1 {
			unitPrice = Round2(remaining / float64(c.Quantity))
			subtotal = Round2(remaining * float64(bundles))
		} else {
			share := 1 / float64(len(sorted))
			if baseSum > 0 {
				share = (c.Price * float64(c.Quantity)) / baseSum
			}
			unitPrice = Round2(discountedTotal * share / float64(c.Quantity))
			subtotal = LineSubtotal(unitPrice, lineQty)
			remaining = Round2(remaining - LineSubtotal(unitPrice, c.Quantity))
		}

		lines = append(lines, Line{
			ProductID: c.ProductID,
			Name:      c.Name,
			UnitPrice: unitPrice,
			Quantity:  lineQty,
			Subtotal:  subtotal,
		})
	}

	return &ComboBreakdown{
		BaseSum:         baseSum,
		DiscountPct:     discountPct,
		DiscountedTotal: discountedTotal,
		Total:           Round2(discountedTotal * float64(bundles)),
		Lines:           lines,
	}, nil
}
