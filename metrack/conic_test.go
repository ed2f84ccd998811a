package metrack

import (
	"math"
	"testing"
)

// axisAngleDiff compares axis orientations, which are π-periodic.
func axisAngleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), math.Pi)
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

func TestParamsRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		ic, jc  float64
		a, b, e float64
	}{
		{"axis aligned", 100, 100, 30, 50, 0},
		{"rotated", 240, 180, 20, 45, math.Pi / 6},
		{"negative orientation", 50, 75, 12, 33, -math.Pi / 3},
		{"steep orientation", 300, 120, 25, 40, 1.3},
		{"major axis vertical", 80, 80, 10, 30, math.Pi / 2},
	}
	for _, tc := range cases {
		orig := NewGeometricParameters(NewPoint(tc.ic, tc.jc), tc.a, tc.b, tc.e)
		k := coefficientsFrom(orig)
		got, err := k.Params(false)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if math.Abs(got.Center.I-tc.ic) > 1e-9 || math.Abs(got.Center.J-tc.jc) > 1e-9 {
			t.Errorf("%s: center (%f, %f), expected (%f, %f)", tc.name, got.Center.I, got.Center.J, tc.ic, tc.jc)
		}
		if math.Abs(got.A-tc.a) > 1e-9 {
			t.Errorf("%s: a=%f, expected %f", tc.name, got.A, tc.a)
		}
		if math.Abs(got.B-tc.b) > 1e-9 {
			t.Errorf("%s: b=%f, expected %f", tc.name, got.B, tc.b)
		}
		if axisAngleDiff(got.E, orig.E) > 1e-9 {
			t.Errorf("%s: e=%f, expected %f", tc.name, got.E, orig.E)
		}
	}
}

func TestParamsNearCircular(t *testing.T) {
	orig := NewGeometricParameters(NewPoint(10, 20), 30, 30+1e-9, 0.7)
	got, err := coefficientsFrom(orig).Params(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Orientation is meaningless at eccentricity zero; the axes and the
	// center must still come out right.
	if math.Abs(got.A-30) > 1e-6 || math.Abs(got.B-30) > 1e-6 {
		t.Errorf("axes (%f, %f), expected (30, 30)", got.A, got.B)
	}
	if math.Abs(got.Center.I-10) > 1e-6 || math.Abs(got.Center.J-20) > 1e-6 {
		t.Errorf("center (%f, %f), expected (10, 20)", got.Center.I, got.Center.J)
	}
}

func TestParamsCircleShortcut(t *testing.T) {
	// i² + j² + 2K2 i + 2K3 j + K4 = 0 for center (60, 80), radius 40.
	k := Coefficients{1, 0, -60, -80, 60*60 + 80*80 - 40*40}
	got, err := k.Params(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.A-40) > 1e-9 || math.Abs(got.B-40) > 1e-9 {
		t.Errorf("radius (%f, %f), expected 40", got.A, got.B)
	}
	if math.Abs(got.Center.I-60) > 1e-9 || math.Abs(got.Center.J-80) > 1e-9 {
		t.Errorf("center (%f, %f), expected (60, 80)", got.Center.I, got.Center.J)
	}
	if got.E != 0 {
		t.Errorf("circle orientation %f, expected 0", got.E)
	}
}

func TestParamsDegenerate(t *testing.T) {
	// Product of two lines (i − j)(i + j) = i² − j².
	k := Coefficients{-1, 0, 0, 0, 0}
	if _, err := k.Params(false); err == nil {
		t.Error("expected degenerate geometry error for a line pair")
	}
	// Empty conic: i² + j² + 1 = 0.
	k = Coefficients{1, 0, 0, 0, 1}
	if _, err := k.Params(false); err == nil {
		t.Error("expected degenerate geometry error for an empty conic")
	}
}

func TestAxisOrderNormalization(t *testing.T) {
	// Axes swapped on input: a > b must come out as a ≤ b with the
	// orientation turned by π/2.
	p := NewGeometricParameters(NewPoint(0, 0), 50, 30, 0)
	if p.A != 30 || p.B != 50 {
		t.Errorf("axes (%f, %f), expected (30, 50)", p.A, p.B)
	}
	if math.Abs(p.E-math.Pi/2) > 1e-12 {
		t.Errorf("orientation %f, expected %f", p.E, math.Pi/2)
	}
}

func TestAlphaAtInvertsPointAt(t *testing.T) {
	p := NewGeometricParameters(NewPoint(100, 100), 30, 50, math.Pi/5)
	for k := 0; k < 16; k++ {
		alpha := float64(k) * 2 * math.Pi / 16
		got := p.AlphaAt(p.PointAt(alpha))
		diff := math.Abs(got - alpha)
		if diff > math.Pi {
			diff = 2*math.Pi - diff
		}
		if diff > 1e-9 {
			t.Errorf("alpha %f recovered as %f", alpha, got)
		}
	}
}

func TestResidualZeroOnCurve(t *testing.T) {
	p := NewGeometricParameters(NewPoint(100, 100), 30, 50, math.Pi/6)
	k := coefficientsFrom(p)
	for i := 0; i < 12; i++ {
		alpha := float64(i) * 2 * math.Pi / 12
		if r := k.residualAt(p.PointAt(alpha)); math.Abs(r) > 1e-8 {
			t.Errorf("residual %g at alpha %f, expected 0", r, alpha)
		}
	}
}
