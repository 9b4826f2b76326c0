// Package payout models a geometric, winner-take-more payout curve and the
// per-placement net ROI against a one-unit buy-in.
package payout

import "math"

// minPaidPlaces keeps the curve from degenerating to a single winner at
// very low payout percentages.
const minPaidPlaces = 2

// PaidPlaces returns how many places get paid for a field of n players when
// a fraction pct of the field is paid. Zero for an empty field.
func PaidPlaces(n int, pct float64) int {
	if n <= 0 {
		return 0
	}
	paid := int(math.Ceil(float64(n) * pct))
	if paid < minPaidPlaces {
		paid = minPaidPlaces
	}
	return paid
}

// Fractions generates the payout fraction for each paid place, 1-indexed by
// position in the slice. Place k gets weight 1/k^steepness; weights are
// normalized to sum to exactly 1.0, with the rounding residual folded into
// first place.
func Fractions(n int, pct, steepness float64) []float64 {
	paid := PaidPlaces(n, pct)
	if paid == 0 {
		return nil
	}

	weights := make([]float64, paid)
	var total float64
	for place := 1; place <= paid; place++ {
		w := 1 / math.Pow(float64(place), steepness)
		weights[place-1] = w
		total += w
	}

	fractions := make([]float64, paid)
	var sum float64
	for i, w := range weights {
		fractions[i] = w / total
		sum += fractions[i]
	}
	fractions[0] += 1.0 - sum

	return fractions
}

// NetROI returns the net return for finishing at placement in a field of n,
// in buy-in units. A paid place returns its pool share times the field size
// minus the buy-in; everything below the paid places is a full loss.
func NetROI(placement, n int, pct, steepness float64) float64 {
	fractions := Fractions(n, pct, steepness)
	if placement >= 1 && placement <= len(fractions) {
		return fractions[placement-1]*float64(n) - 1.0
	}
	return -1.0
}
