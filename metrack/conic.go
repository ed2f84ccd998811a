package metrack

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Coefficients holds the implicit conic parameters K0..K4 of
//
//	i² + K0·j² + 2·K1·ij + 2·K2·i + 2·K3·j + K4 = 0
//
// over image-frame points (i, j). With K0 = 1 and K1 = 0 the equation
// describes a circle.
type Coefficients [5]float64

// GeometricParameters is the geometric form of the tracked conic:
// center, semi-minor axis A, semi-major axis B (A ≤ B) and the angle E
// of the major axis with the i axis, normalized to (−π/2, π/2].
type GeometricParameters struct {
	Center Point
	A      float64
	B      float64
	E      float64

	ce float64
	se float64
}

// NewGeometricParameters builds parameters with A ≤ B enforced and the
// orientation normalized.
func NewGeometricParameters(center Point, a, b, e float64) GeometricParameters {
	if a > b {
		a, b = b, a
		e += math.Pi / 2
	}
	e = normalizeOrientation(e)
	return GeometricParameters{
		Center: center,
		A:      a,
		B:      b,
		E:      e,
		ce:     math.Cos(e),
		se:     math.Sin(e),
	}
}

// normalizeOrientation maps an axis angle to (−π/2, π/2]. Axis
// directions are π-periodic.
func normalizeOrientation(e float64) float64 {
	for e > math.Pi/2 {
		e -= math.Pi
	}
	for e <= -math.Pi/2 {
		e += math.Pi
	}
	return e
}

// PointAt returns the curve point at parametric angle alpha:
//
//	i = ic + B·cos(E)·cos(α) − A·sin(E)·sin(α)
//	j = jc + B·sin(E)·cos(α) + A·cos(E)·sin(α)
func (p GeometricParameters) PointAt(alpha float64) Point {
	ca := math.Cos(alpha)
	sa := math.Sin(alpha)
	return Point{
		I: p.Center.I + p.B*p.ce*ca - p.A*p.se*sa,
		J: p.Center.J + p.B*p.se*ca + p.A*p.ce*sa,
	}
}

// AlphaAt inverts the parametrization for a point assumed on (or near)
// the curve, returning its parametric angle in [0, 2π).
func (p GeometricParameters) AlphaAt(pt Point) float64 {
	di := pt.I - p.Center.I
	dj := pt.J - p.Center.J
	ca := (p.ce*di + p.se*dj) / p.B
	sa := (-p.se*di + p.ce*dj) / p.A
	return normalizeAngle(math.Atan2(sa, ca))
}

func (p GeometricParameters) String() string {
	return fmt.Sprintf("center=(%.3f, %.3f) a=%.3f b=%.3f e=%.4f", p.Center.I, p.Center.J, p.A, p.B, p.E)
}

// Params extracts the geometric form from the coefficients. In circle
// mode the axes come straight from the centered constant term, skipping
// the general orientation formula which is unstable as K1 → 0.
func (k Coefficients) Params(circle bool) (GeometricParameters, error) {
	den := k[0] - k[1]*k[1]
	if den <= 1e-12 {
		return GeometricParameters{}, errors.Wrapf(ErrDegenerateGeometry, "discriminant %g not positive", den)
	}
	ic := (k[1]*k[3] - k[0]*k[2]) / den
	jc := (k[1]*k[2] - k[3]) / den

	// Value of the centered quadratic form on the curve.
	s := ic*ic + k[0]*jc*jc + 2*k[1]*ic*jc - k[4]
	if s <= 1e-12 {
		return GeometricParameters{}, errors.Wrapf(ErrDegenerateGeometry, "empty conic (scale %g)", s)
	}

	if circle {
		r := math.Sqrt(s)
		return NewGeometricParameters(Point{I: ic, J: jc}, r, r, 0), nil
	}

	// Eigenvalues of the quadratic form [[1, K1], [K1, K0]]. The larger
	// eigenvalue belongs to the shorter axis.
	tr := 1 + k[0]
	d := math.Hypot(1-k[0], 2*k[1])
	lmax := (tr + d) / 2
	lmin := (tr - d) / 2
	if lmin <= 1e-12 {
		return GeometricParameters{}, errors.Wrap(ErrDegenerateGeometry, "quadratic form not positive definite")
	}
	a := math.Sqrt(s / lmax)
	b := math.Sqrt(s / lmin)
	e := 0.5 * math.Atan2(-2*k[1], k[0]-1)
	return NewGeometricParameters(Point{I: ic, J: jc}, a, b, e), nil
}

// coefficientsFrom converts geometric parameters back to implicit
// coefficients, normalized so the i² coefficient is 1. Kept in sync
// with Params: a round-trip reproduces the input within floating
// tolerance.
func coefficientsFrom(p GeometricParameters) Coefficients {
	// Quadratic form R·diag(s/B², s/A²)·Rᵀ with the scale s chosen so the
	// leading coefficient is 1.
	qb := 1 / (p.B * p.B)
	qa := 1 / (p.A * p.A)
	a11 := p.ce*p.ce*qb + p.se*p.se*qa
	s := 1 / a11
	k0 := s * (p.se*p.se*qb + p.ce*p.ce*qa)
	k1 := s * p.ce * p.se * (qb - qa)
	ic := p.Center.I
	jc := p.Center.J
	k2 := -(ic + k1*jc)
	k3 := -(k1*ic + k0*jc)
	k4 := ic*ic + k0*jc*jc + 2*k1*ic*jc - s
	return Coefficients{k0, k1, k2, k3, k4}
}

// residualAt evaluates the implicit equation at a point. Zero on the
// curve; the robust fit weights sites by this value.
func (k Coefficients) residualAt(pt Point) float64 {
	return pt.I*pt.I + k[0]*pt.J*pt.J + 2*k[1]*pt.I*pt.J + 2*k[2]*pt.I + 2*k[3]*pt.J + k[4]
}

// normalAngle returns the angle of the curve normal at a point, from
// the gradient of the implicit equation.
func (k Coefficients) normalAngle(pt Point) float64 {
	gi := pt.I + k[1]*pt.J + k[2]
	gj := k[0]*pt.J + k[1]*pt.I + k[3]
	return math.Atan2(gj, gi)
}
