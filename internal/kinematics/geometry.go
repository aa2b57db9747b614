package kinematics

import "math"

// Point2D is a position on the image plane.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3D is a position in an arbitrary relative 3D frame. World landmarks
// are metre-scale but uncalibrated.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TimedPoint3D is a Point3D stamped with its capture time in milliseconds.
type TimedPoint3D struct {
	Point3D
	T float64 `json:"t"`
}

// At stamps p with timestamp tMs.
func (p Point3D) At(tMs float64) TimedPoint3D {
	return TimedPoint3D{Point3D: p, T: tMs}
}

// Finite reports whether all coordinates are finite numbers.
func (p Point3D) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

// Distance2D returns the Euclidean distance between a and b.
func Distance2D(a, b Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance3D returns the Euclidean distance between a and b.
func Distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// AngleAt returns the angle ABC in degrees, measured at vertex b.
// A zero-length arm yields 0.
func AngleAt(a, b, c Point2D) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	m1 := math.Hypot(v1x, v1y)
	m2 := math.Hypot(v2x, v2y)
	if m1 == 0 || m2 == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (m1 * m2)
	// Rounding can push cos a hair outside [-1, 1].
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
