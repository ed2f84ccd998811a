package metrack

import "math"

// arcBounds derives the angular extent of the tracked arc from the
// sorted site angles. The bounds are the two angles bordering the
// largest gap between consecutive sites; when no gap exceeds fullGap
// the sites span the whole curve and the bounds are (0, 2π). When the
// arc straddles the 0/2π seam, alpha2 carries a single +2π adjustment
// so that alpha1 ≤ alpha2 always holds.
func arcBounds(alphas []float64, fullGap float64) (alpha1, alpha2 float64, full bool) {
	n := len(alphas)
	if n == 0 {
		return 0, 0, false
	}
	if n == 1 {
		return alphas[0], alphas[0], false
	}

	// Gap across the seam, from the last site around to the first.
	maxGap := 2*math.Pi + alphas[0] - alphas[n-1]
	gapIdx := n - 1
	for i := 0; i+1 < n; i++ {
		if g := alphas[i+1] - alphas[i]; g > maxGap {
			maxGap = g
			gapIdx = i
		}
	}
	if maxGap <= fullGap {
		return 0, 2 * math.Pi, true
	}
	if gapIdx == n-1 {
		return alphas[0], alphas[n-1], false
	}
	return alphas[gapIdx+1], alphas[gapIdx] + 2*math.Pi, false
}
