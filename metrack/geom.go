package metrack

import (
	"image"
	"math"
)

// Point is a position in the image frame. I is the row coordinate and
// J the column coordinate, matching the implicit conic equation the
// tracker fits.
type Point struct {
	I float64
	J float64
}

func NewPoint(i, j float64) Point {
	return Point{
		I: i,
		J: j,
	}
}

// NewPointFrom converts a stdlib image point. Image points are (x, y)
// with x the column and y the row.
func NewPointFrom(point image.Point) Point {
	return Point{
		I: float64(point.Y),
		J: float64(point.X),
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Hypot(p1.I-p2.I, p1.J-p2.J)
}

// normalizeAngle maps an angle to [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
