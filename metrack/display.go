package metrack

// Renderer is the drawing capability the external display collaborator
// provides. The tracker hands it short straight segments approximating
// the tracked arc; pixel formats and colors are the renderer's
// business.
type Renderer interface {
	DrawSegment(from, to Point)
}

// displayStep is the angular resolution of the drawn polyline.
const displayStep = 0.05

// DisplayEllipse draws the arc of an ellipse given explicit geometric
// values, without a live tracker. Angles follow the parametric
// convention; pass 0 and 2π for the full curve.
func DisplayEllipse(r Renderer, center Point, a, b, e, smallAlpha, highAlpha float64) {
	if r == nil || highAlpha <= smallAlpha {
		return
	}
	p := NewGeometricParameters(center, a, b, e)
	prev := p.PointAt(smallAlpha)
	for alpha := smallAlpha + displayStep; alpha < highAlpha; alpha += displayStep {
		cur := p.PointAt(alpha)
		r.DrawSegment(prev, cur)
		prev = cur
	}
	r.DrawSegment(prev, p.PointAt(highAlpha))
}

// Display draws the currently tracked arc.
func (t *Tracker[I]) Display(r Renderer) {
	DisplayEllipse(r, t.params.Center, t.params.A, t.params.B, t.params.E, t.alpha1, t.alpha2)
}
