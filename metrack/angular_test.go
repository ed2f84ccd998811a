package metrack

import (
	"math"
	"testing"
)

func TestArcBoundsFullCoverage(t *testing.T) {
	n := 24
	alphas := make([]float64, n)
	for i := range alphas {
		alphas[i] = float64(i) * 2 * math.Pi / float64(n)
	}
	a1, a2, full := arcBounds(alphas, 2.5*2*math.Pi/float64(n))
	if !full {
		t.Fatal("expected full coverage")
	}
	if a1 != 0 || a2 != 2*math.Pi {
		t.Errorf("bounds (%f, %f), expected (0, 2π)", a1, a2)
	}
}

func TestArcBoundsPartialArc(t *testing.T) {
	alphas := []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0, 1.2, 1.4}
	a1, a2, full := arcBounds(alphas, 0.5)
	if full {
		t.Fatal("expected partial coverage")
	}
	if a1 != 0 || a2 != 1.4 {
		t.Errorf("bounds (%f, %f), expected (0, 1.4)", a1, a2)
	}
	if a1 > a2 {
		t.Errorf("bound invariant violated: %f > %f", a1, a2)
	}
}

func TestArcBoundsSeamCrossing(t *testing.T) {
	// Arc running from 5.9 through the 0/2π seam up to 0.3.
	alphas := []float64{0.1, 0.3, 5.9, 6.1}
	a1, a2, full := arcBounds(alphas, 0.5)
	if full {
		t.Fatal("expected partial coverage")
	}
	if math.Abs(a1-5.9) > 1e-12 {
		t.Errorf("alpha1=%f, expected 5.9", a1)
	}
	if math.Abs(a2-(0.3+2*math.Pi)) > 1e-12 {
		t.Errorf("alpha2=%f, expected %f", a2, 0.3+2*math.Pi)
	}
	if a1 > a2 {
		t.Errorf("bound invariant violated: %f > %f", a1, a2)
	}
	if a2-a1 > 2*math.Pi {
		t.Errorf("arc span %f exceeds a full turn", a2-a1)
	}
}

func TestArcBoundsSmallSets(t *testing.T) {
	if a1, a2, full := arcBounds(nil, 0.5); a1 != 0 || a2 != 0 || full {
		t.Errorf("empty set gave (%f, %f, %v)", a1, a2, full)
	}
	if a1, a2, full := arcBounds([]float64{1.5}, 0.5); a1 != 1.5 || a2 != 1.5 || full {
		t.Errorf("single site gave (%f, %f, %v)", a1, a2, full)
	}
}
