package metrack

import (
	"fmt"
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// State is the lifecycle state of a tracker.
type State string

const (
	StateUninitialized State = "uninitialized" // No geometry yet
	StateInitializing  State = "initializing"  // Consuming initial points
	StateTracking      State = "tracking"      // Frame-synchronous tracking
	StateLost          State = "lost"          // Terminal until reinitialized
)

// EdgeSearcher locates the curve boundary near an approximate position.
// Given the current image, a position close to the curve and the angle
// of the curve normal there, it returns a refined sub-pixel position
// and a reliability weight in [0, 1]. An error means no edge was found
// near the candidate; the corresponding site is dropped for the frame.
//
// The image type is opaque to the tracker, so one searcher
// implementation per pixel format is enough.
type EdgeSearcher[I any] interface {
	SearchEdge(img I, approx Point, theta float64) (Point, float64, error)
}

// Config holds the tracker parameters. Search-range and convolution
// parameters of the edge search itself belong to the searcher, not
// here.
type Config struct {
	// SampleCount is the number of sites spread over a full revolution.
	SampleCount int
	// RejectionThreshold removes a site for good when its fit-derived
	// weight drops below it. 0 never rejects, 1 always rejects; values
	// outside [0, 1] are clamped.
	RejectionThreshold float64
	// Circle fixes K0 = 1 and K1 = 0 so the fit is constrained to circles
	// and the extracted axes satisfy a = b.
	Circle bool
	// SeekSteps bounds the outward extremity search per extremity per
	// frame.
	SeekSteps int
}

// DefaultConfig returns the default tracker parameters.
func DefaultConfig() Config {
	return Config{
		SampleCount:        24,
		RejectionThreshold: 0.2,
		SeekSteps:          4,
	}
}

// Tracker follows a single conic across frames by refining boundary
// sites through an edge-search collaborator and refitting the implicit
// conic with robust least squares each frame.
//
// A tracker owns all of its state and must not be shared across
// goroutines; independent instances need no coordination.
type Tracker[I any] struct {
	id       uuid.UUID
	cfg      Config
	searcher EdgeSearcher[I]
	state    State

	k       Coefficients
	params  GeometricParameters
	moments Moments

	sites   []Site
	alpha1  float64
	alpha2  float64
	iP1     Point
	iP2     Point
	fullArc bool

	// Center motion filter: its prediction shifts the sites before the
	// edge search so fast-moving curves stay inside the search range.
	kf *kalman_filter.Kalman2D
}

// NewTracker creates a tracker using the given edge-search
// collaborator.
func NewTracker[I any](searcher EdgeSearcher[I], cfg Config) *Tracker[I] {
	cfg.RejectionThreshold = clampUnit(cfg.RejectionThreshold)
	if cfg.SampleCount < 1 {
		cfg.SampleCount = DefaultConfig().SampleCount
	}
	if cfg.SeekSteps < 0 {
		cfg.SeekSteps = 0
	}
	return &Tracker[I]{
		id:       uuid.New(),
		cfg:      cfg,
		searcher: searcher,
		state:    StateUninitialized,
	}
}

// NewTrackerDefault creates a tracker with default parameters.
func NewTrackerDefault[I any](searcher EdgeSearcher[I]) *Tracker[I] {
	return NewTracker(searcher, DefaultConfig())
}

// InitTracking bootstraps the tracker from an ordered sequence of
// boundary points, at least 5 for an ellipse or 3 in circle mode. On
// failure the tracker stays in the initializing state and the error is
// returned.
func (t *Tracker[I]) InitTracking(img I, points []Point) error {
	t.state = StateInitializing
	min := minSitesFor(t.cfg.Circle)
	if len(points) < min {
		return errors.Wrapf(ErrInsufficientPoints, "%d initialization points, need %d", len(points), min)
	}
	sites := make([]Site, len(points))
	for i, pt := range points {
		sites[i] = Site{Pos: pt, Weight: 1}
	}
	// Bootstrap fit never rejects user-supplied points.
	k, _, err := fitConic(sites, 0, t.cfg.Circle)
	if err != nil {
		return errors.Wrap(err, "initial fit")
	}
	p, err := k.Params(t.cfg.Circle)
	if err != nil {
		return errors.Wrap(err, "initial fit")
	}
	t.seed(k, p)
	return t.bootstrap(img)
}

// InitFromEllipse seeds the tracker from already known geometric
// parameters, e.g. handed over by a detector or a previous tracker
// after a lost transition.
func (t *Tracker[I]) InitFromEllipse(img I, center Point, a, b, e float64) error {
	t.state = StateInitializing
	if a <= 0 || b <= 0 {
		return errors.Wrapf(ErrDegenerateGeometry, "non-positive axes a=%g b=%g", a, b)
	}
	if t.cfg.Circle {
		b = a
	}
	p := NewGeometricParameters(center, a, b, e)
	t.seed(coefficientsFrom(p), p)
	return t.bootstrap(img)
}

func (t *Tracker[I]) seed(k Coefficients, p GeometricParameters) {
	t.k = k
	t.params = p
	t.moments = computeMoments(p)
	t.sites = nil
	t.alpha1 = 0
	t.alpha2 = 2 * math.Pi
	t.fullArc = true
	t.iP1 = p.PointAt(t.alpha1)
	t.iP2 = p.PointAt(t.alpha2)
	t.kf = kalman_filter.NewKalman2D(1.0, 1.0, 1.0, 2.0, 0.1, 0.1,
		kalman_filter.WithState2D(p.Center.I, p.Center.J))
}

// bootstrap populates the active set over the full curve, validates it
// through the edge search and performs the first tracked fit.
func (t *Tracker[I]) bootstrap(img I) error {
	cands := sampleSites(t.params, t.k, 0, 2*math.Pi, t.cfg.SampleCount, true)
	t.sites = t.sites[:0]
	for _, s := range cands {
		pos, w, err := t.searcher.SearchEdge(img, s.Pos, s.Theta)
		if err != nil {
			continue
		}
		s.Pos = pos
		s.Weight = clampUnit(w)
		t.sites = append(t.sites, s)
	}
	if err := t.refit(); err != nil {
		return errors.Wrap(err, "bootstrap fit")
	}
	p, err := t.k.Params(t.cfg.Circle)
	if err != nil {
		return errors.Wrap(err, "bootstrap fit")
	}
	t.params = p
	t.updateAngularIndex()
	t.moments = computeMoments(p)
	t.state = StateTracking
	return nil
}

// Track processes one frame: every active site is refined through the
// edge search, the conic is refit with robust suppression, a receded
// arc is extended back and the geometric state is recomputed. On an
// unrecoverable fit failure the tracker transitions to the terminal
// lost state and keeps the last known-good geometry readable.
func (t *Tracker[I]) Track(img I) error {
	switch t.state {
	case StateTracking:
	case StateLost:
		return errors.Wrap(ErrTrackingLost, "tracker requires reinitialization")
	default:
		return errors.Errorf("track called in state %q", t.state)
	}

	t.shiftToPrediction()
	t.refineSites(img)

	fitErr := t.refit()
	before := len(t.sites)

	// Recovery: extend a receded arc and restore sampling density before
	// giving up on the frame.
	if !t.fullArc {
		t.seekExtremities(img)
	}
	if len(t.sites) < t.resampleFloor() {
		t.resample(img)
	}
	if fitErr != nil || len(t.sites) != before {
		fitErr = t.refit()
	}
	if fitErr != nil {
		t.state = StateLost
		if errors.Is(fitErr, ErrInsufficientPoints) {
			return errors.Wrapf(ErrTrackingLost, "%v", fitErr)
		}
		return fitErr
	}

	p, err := t.k.Params(t.cfg.Circle)
	if err != nil {
		t.state = StateLost
		return err
	}
	t.params = p
	t.updateAngularIndex()
	t.moments = computeMoments(p)
	if err := t.kf.Update(p.Center.I, p.Center.J); err != nil {
		return errors.Wrap(err, "can't update center filter")
	}
	return nil
}

// refit runs the robust fit over the active set. Suppression holds even
// when the fit itself fails.
func (t *Tracker[I]) refit() error {
	k, kept, err := fitConic(t.sites, t.cfg.RejectionThreshold, t.cfg.Circle)
	t.sites = kept
	if err != nil {
		return err
	}
	t.k = k
	return nil
}

// shiftToPrediction moves all sites by the center displacement the
// motion filter predicts for this frame.
func (t *Tracker[I]) shiftToPrediction() {
	if t.kf == nil {
		return
	}
	t.kf.Predict()
	pi, pj := t.kf.GetState()
	di := pi - t.params.Center.I
	dj := pj - t.params.Center.J
	if math.Hypot(di, dj) < 1e-9 {
		return
	}
	for i := range t.sites {
		t.sites[i].Pos.I += di
		t.sites[i].Pos.J += dj
	}
}

// refineSites delegates every active site to the edge search. Sites the
// search cannot relocate are dropped for this frame.
func (t *Tracker[I]) refineSites(img I) {
	kept := t.sites[:0]
	for _, s := range t.sites {
		pos, w, err := t.searcher.SearchEdge(img, s.Pos, s.Theta)
		if err != nil {
			continue
		}
		s.Pos = pos
		s.Weight = clampUnit(w)
		kept = append(kept, s)
	}
	t.sites = kept
}

// resample spreads a fresh site set over the current arc, validated
// through the edge search. The old set is replaced only when the fresh
// spread is denser than what survived the frame.
func (t *Tracker[I]) resample(img I) {
	a1, a2 := t.alpha1, t.alpha2
	if t.fullArc {
		a1, a2 = 0, 2*math.Pi
	}
	n := int(float64(t.cfg.SampleCount) * (a2 - a1) / (2 * math.Pi))
	if n < 1 {
		n = 1
	}
	cands := sampleSites(t.params, t.k, a1, a2, n, t.fullArc)
	fresh := make([]Site, 0, len(cands))
	for _, s := range cands {
		pos, w, err := t.searcher.SearchEdge(img, s.Pos, s.Theta)
		if err != nil {
			continue
		}
		s.Pos = pos
		s.Weight = clampUnit(w)
		fresh = append(fresh, s)
	}
	if len(fresh) > len(t.sites) {
		t.sites = fresh
	}
}

// updateAngularIndex recomputes every site's parametric angle and
// normal from the current geometry, reorders the set along the curve
// and refreshes the arc bounds and extremity points.
func (t *Tracker[I]) updateAngularIndex() {
	for i := range t.sites {
		t.sites[i].Alpha = t.params.AlphaAt(t.sites[i].Pos)
		t.sites[i].Theta = t.k.normalAngle(t.sites[i].Pos)
	}
	sortSitesByAlpha(t.sites)
	alphas := make([]float64, len(t.sites))
	for i := range t.sites {
		alphas[i] = t.sites[i].Alpha
	}
	t.alpha1, t.alpha2, t.fullArc = arcBounds(alphas, t.fullGap())
	t.iP1 = t.params.PointAt(t.alpha1)
	t.iP2 = t.params.PointAt(t.alpha2)
}

// fullGap is the largest inter-site gap still considered full coverage.
func (t *Tracker[I]) fullGap() float64 {
	return 2.5 * 2 * math.Pi / float64(t.cfg.SampleCount)
}

func (t *Tracker[I]) resampleFloor() int {
	floor := t.cfg.SampleCount / 2
	if min := minSitesFor(t.cfg.Circle); floor < min {
		floor = min
	}
	return floor
}

// SetRejectionThreshold updates the robust rejection threshold,
// clamping it to [0, 1].
func (t *Tracker[I]) SetRejectionThreshold(threshold float64) {
	t.cfg.RejectionThreshold = clampUnit(threshold)
}

// SetCircle constrains the tracker to circles. Switch modes before
// initialization; the fit form changes with it.
func (t *Tracker[I]) SetCircle(circle bool) {
	t.cfg.Circle = circle
}

// GetID returns the tracker's identifier.
func (t *Tracker[I]) GetID() uuid.UUID {
	return t.id
}

// GetState returns the lifecycle state. Check it before trusting
// geometric reads: after a lost transition the accessors keep returning
// the last known-good values.
func (t *Tracker[I]) GetState() State {
	return t.state
}

// GetCenter returns the center of the fitted conic.
func (t *Tracker[I]) GetCenter() Point {
	return t.params.Center
}

// GetA returns the semi-minor axis.
func (t *Tracker[I]) GetA() float64 {
	return t.params.A
}

// GetB returns the semi-major axis.
func (t *Tracker[I]) GetB() float64 {
	return t.params.B
}

// GetE returns the angle between the major axis and the i axis.
func (t *Tracker[I]) GetE() float64 {
	return t.params.E
}

// GetEquationParam returns the axes and orientation together.
func (t *Tracker[I]) GetEquationParam() (a, b, e float64) {
	return t.params.A, t.params.B, t.params.E
}

// GetParameters returns a snapshot of the geometric parameters.
func (t *Tracker[I]) GetParameters() GeometricParameters {
	return t.params
}

// GetK returns the implicit conic coefficients.
func (t *Tracker[I]) GetK() Coefficients {
	return t.k
}

// GetSmallestAngle returns the parametric angle of the lower arc
// extremity.
func (t *Tracker[I]) GetSmallestAngle() float64 {
	return t.alpha1
}

// GetHighestAngle returns the parametric angle of the upper arc
// extremity. It can exceed 2π by at most one turn when the arc
// straddles the 0/2π seam.
func (t *Tracker[I]) GetHighestAngle() float64 {
	return t.alpha2
}

// GetExtremities returns the curve points at the arc bounds.
func (t *Tracker[I]) GetExtremities() (Point, Point) {
	return t.iP1, t.iP2
}

// GetMoments returns the raw and central moments of the fitted shape.
func (t *Tracker[I]) GetMoments() Moments {
	return t.moments
}

// GetSites returns a copy of the active site set, ordered along the
// curve.
func (t *Tracker[I]) GetSites() []Site {
	return append([]Site(nil), t.sites...)
}

func (t *Tracker[I]) String() string {
	return fmt.Sprintf("conic tracker %s [%s] %s arc=[%.3f, %.3f] sites=%d",
		t.id, t.state, t.params, t.alpha1, t.alpha2, len(t.sites))
}
