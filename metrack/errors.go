package metrack

import "github.com/pkg/errors"

var (
	// ErrInsufficientPoints is returned when fewer distinct points remain
	// than the minimum required to fit the chosen conic form (5 for an
	// ellipse, 3 for a circle).
	ErrInsufficientPoints = errors.New("not enough distinct points to fit the conic")

	// ErrDegenerateGeometry is returned when the fitted coefficients do not
	// describe a real ellipse (non-positive discriminant, collinear input).
	ErrDegenerateGeometry = errors.New("coefficients do not describe a real ellipse")

	// ErrTrackingLost is returned when the active site count remains below
	// the minimum after suppression and recovery attempts within a frame.
	// The tracker is terminal until reinitialized.
	ErrTrackingLost = errors.New("tracking lost")
)
