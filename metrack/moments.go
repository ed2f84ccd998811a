package metrack

import "math"

// Moments are the raw and central geometric moments of the area
// enclosed by the fitted conic. They are a pure function of the
// geometric parameters; sites play no part.
type Moments struct {
	// Raw moments m_nm = ∫∫ iⁿ jᵐ di dj over the enclosed area.
	M00 float64
	M10 float64
	M01 float64
	M11 float64
	M20 float64
	M02 float64
	// Second order central moments.
	Mu11 float64
	Mu20 float64
	Mu02 float64
}

// computeMoments integrates the ellipse area in closed form. In the
// axes frame the only non-zero second moments are m00·B²/4 along the
// major axis and m00·A²/4 along the minor one; rotating by E and
// translating to the centroid gives the rest.
func computeMoments(p GeometricParameters) Moments {
	m00 := math.Pi * p.A * p.B
	ic := p.Center.I
	jc := p.Center.J

	major := m00 * p.B * p.B / 4
	minor := m00 * p.A * p.A / 4

	mu20 := p.ce*p.ce*major + p.se*p.se*minor
	mu02 := p.se*p.se*major + p.ce*p.ce*minor
	mu11 := p.ce * p.se * (major - minor)

	return Moments{
		M00:  m00,
		M10:  m00 * ic,
		M01:  m00 * jc,
		M11:  mu11 + m00*ic*jc,
		M20:  mu20 + m00*ic*ic,
		M02:  mu02 + m00*jc*jc,
		Mu11: mu11,
		Mu20: mu20,
		Mu02: mu02,
	}
}
