package metrack

import "math"

// seekFailureTolerance halts an extremity's outward search for the
// frame after this many consecutive failed probes.
const seekFailureTolerance = 2

// seekExtremities recovers lost arc ends by stepping outward along the
// current curve estimate from both extremities, one sampling step at a
// time, validating each candidate through the edge search. A successful
// probe inserts a site and extends the corresponding bound; repeated
// failure halts that extremity for the frame. When the two extremities
// meet, the arc is marked fully visible.
func (t *Tracker[I]) seekExtremities(img I) {
	if t.fullArc || t.cfg.SeekSteps == 0 {
		return
	}
	step := 2 * math.Pi / float64(t.cfg.SampleCount)

	alpha := t.alpha1
	fails := 0
	for k := 0; k < t.cfg.SeekSteps && fails < seekFailureTolerance; k++ {
		alpha -= step
		if t.alpha2-alpha >= 2*math.Pi {
			break
		}
		if t.probeAt(img, alpha) {
			t.alpha1 = alpha
			fails = 0
		} else {
			fails++
		}
	}

	alpha = t.alpha2
	fails = 0
	for k := 0; k < t.cfg.SeekSteps && fails < seekFailureTolerance; k++ {
		alpha += step
		if alpha-t.alpha1 >= 2*math.Pi {
			break
		}
		if t.probeAt(img, alpha) {
			t.alpha2 = alpha
			fails = 0
		} else {
			fails++
		}
	}

	// Full loop closure.
	if t.alpha2-t.alpha1 >= 2*math.Pi-step/2 {
		t.alpha1 = 0
		t.alpha2 = 2 * math.Pi
		t.fullArc = true
	}
	t.iP1 = t.params.PointAt(t.alpha1)
	t.iP2 = t.params.PointAt(t.alpha2)
}

// probeAt asks the edge search to validate a candidate curve point at
// the given parametric angle, inserting a new site on success.
func (t *Tracker[I]) probeAt(img I, alpha float64) bool {
	cand := t.params.PointAt(alpha)
	pos, w, err := t.searcher.SearchEdge(img, cand, t.k.normalAngle(cand))
	if err != nil {
		return false
	}
	t.sites = append(t.sites, Site{
		Pos:    pos,
		Weight: clampUnit(w),
		Alpha:  normalizeAngle(alpha),
		Theta:  t.k.normalAngle(pos),
	})
	return true
}
