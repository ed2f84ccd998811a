package metrack

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	minEllipseSites = 5
	minCircleSites  = 3

	// The re-weighting loop stops when no surviving site's weight moved by
	// more than weightEpsilon, or after maxFitIterations.
	maxFitIterations = 8
	weightEpsilon    = 1e-6

	// Tukey biweight tuning constant and MAD-to-sigma factor.
	tukeyC   = 4.6851
	madScale = 1.4826
)

func minSitesFor(circle bool) int {
	if circle {
		return minCircleSites
	}
	return minEllipseSites
}

// fitConic runs the iteratively re-weighted least-squares fit of the
// implicit conic over the active sites. Each iteration solves the
// weighted linear system, converts per-site residuals to Tukey biweight
// confidences and permanently drops any site whose weight falls below
// threshold. It returns the coefficients and the surviving sites.
func fitConic(sites []Site, threshold float64, circle bool) (Coefficients, []Site, error) {
	active := append([]Site(nil), sites...)
	var k Coefficients

	for iter := 0; iter < maxFitIterations; iter++ {
		if n := distinctPositions(active); n < minSitesFor(circle) {
			return Coefficients{}, active, errors.Wrapf(ErrInsufficientPoints,
				"%d distinct sites, need %d", n, minSitesFor(circle))
		}
		var err error
		k, err = solveWeighted(active, circle)
		if err != nil {
			return Coefficients{}, active, errors.Wrap(ErrDegenerateGeometry, err.Error())
		}

		residuals := make([]float64, len(active))
		for i := range active {
			residuals[i] = k.residualAt(active[i].Pos)
		}
		weights := tukeyWeights(residuals)

		kept := make([]Site, 0, len(active))
		maxChange := 0.0
		for i := range active {
			if weights[i] < threshold {
				// Permanently suppressed: gone from this and all later
				// iterations until re-seeded by sampling.
				continue
			}
			if change := math.Abs(weights[i] - active[i].Weight); change > maxChange {
				maxChange = change
			}
			s := active[i]
			s.Weight = weights[i]
			kept = append(kept, s)
		}
		active = kept

		if n := distinctPositions(active); n < minSitesFor(circle) {
			return Coefficients{}, active, errors.Wrapf(ErrInsufficientPoints,
				"%d distinct sites left after suppression, need %d", n, minSitesFor(circle))
		}
		if maxChange < weightEpsilon {
			break
		}
	}

	if _, err := k.Params(circle); err != nil {
		return Coefficients{}, active, err
	}
	return k, active, nil
}

// solveWeighted solves the weighted least-squares system for the conic
// coefficients via QR. Ellipse rows are
//
//	[j², 2ij, 2i, 2j, 1]·K = −i²
//
// and the circle form fixes K0 = 1, K1 = 0, leaving [2i, 2j, 1].
func solveWeighted(sites []Site, circle bool) (Coefficients, error) {
	n := len(sites)
	if circle {
		a := mat.NewDense(n, 3, nil)
		b := mat.NewVecDense(n, nil)
		for r, s := range sites {
			w := math.Sqrt(clampUnit(s.Weight))
			i, j := s.Pos.I, s.Pos.J
			a.Set(r, 0, w*2*i)
			a.Set(r, 1, w*2*j)
			a.Set(r, 2, w)
			b.SetVec(r, -w*(i*i+j*j))
		}
		sol, err := solveQR(a, b)
		if err != nil {
			return Coefficients{}, err
		}
		return Coefficients{1, 0, sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)}, nil
	}

	a := mat.NewDense(n, 5, nil)
	b := mat.NewVecDense(n, nil)
	for r, s := range sites {
		w := math.Sqrt(clampUnit(s.Weight))
		i, j := s.Pos.I, s.Pos.J
		a.Set(r, 0, w*j*j)
		a.Set(r, 1, w*2*i*j)
		a.Set(r, 2, w*2*i)
		a.Set(r, 3, w*2*j)
		a.Set(r, 4, w)
		b.SetVec(r, -w*i*i)
	}
	sol, err := solveQR(a, b)
	if err != nil {
		return Coefficients{}, err
	}
	return Coefficients{sol.AtVec(0), sol.AtVec(1), sol.AtVec(2), sol.AtVec(3), sol.AtVec(4)}, nil
}

func solveQR(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, err
	}
	return &sol, nil
}

// tukeyWeights converts residuals to confidences in [0, 1] with the
// Tukey biweight on MAD-scaled residuals. When the MAD collapses (exact
// inliers) the mean absolute deviation takes over, and when even that
// is negligible every site is fully trusted.
func tukeyWeights(residuals []float64) []float64 {
	weights := make([]float64, len(residuals))
	med := median(residuals)
	devs := make([]float64, len(residuals))
	sum := 0.0
	for i, r := range residuals {
		devs[i] = math.Abs(r - med)
		sum += devs[i]
	}
	sigma := madScale * median(devs)
	if sigma < 1e-12 && len(residuals) > 0 {
		sigma = madScale * sum / float64(len(residuals))
	}
	c := tukeyC * sigma
	if c < 1e-8 {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}
	for i, r := range residuals {
		u := (r - med) / c
		if u <= -1 || u >= 1 {
			weights[i] = 0
			continue
		}
		t := 1 - u*u
		weights[i] = t * t
	}
	return weights
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
