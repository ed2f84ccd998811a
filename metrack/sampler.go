package metrack

// minAngularSeparation is the smallest angular distance allowed between
// two sampled sites. Sampling never produces sites closer than this.
const minAngularSeparation = 1e-3

// sampleSites generates candidate sites at evenly spaced parametric
// angles over [alpha1, alpha2]. Angles are distinct and strictly
// increasing. For a full revolution the end angle is excluded so the
// seam is not sampled twice. Positions come from the current geometric
// estimate; weights start at 1 until the edge search scores them.
func sampleSites(p GeometricParameters, k Coefficients, alpha1, alpha2 float64, n int, full bool) []Site {
	span := alpha2 - alpha1
	if span <= 0 || n < 1 {
		return nil
	}
	if span/float64(n) < minAngularSeparation {
		n = int(span / minAngularSeparation)
		if n < 1 {
			n = 1
		}
	}
	count := n
	step := span / float64(n)
	if !full {
		// Include both extremities on a partial arc.
		count = n + 1
	}
	sites := make([]Site, 0, count)
	for idx := 0; idx < count; idx++ {
		alpha := alpha1 + float64(idx)*step
		pos := p.PointAt(alpha)
		sites = append(sites, Site{
			Pos:    pos,
			Weight: 1,
			Alpha:  normalizeAngle(alpha),
			Theta:  k.normalAngle(pos),
		})
	}
	return sites
}
