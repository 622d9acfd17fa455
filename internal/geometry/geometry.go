// Package geometry holds the value types and pure functions of the coordinate pipeline:
// points, rectangles, affine matrices, angle helpers and the canvas viewport.
package geometry

import "math"

// Point is a position or a vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns the vector sum p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector difference p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul scales p by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Length is the distance of p from the origin.
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return p.Sub(q).Length() }

// Near reports whether both coordinates are within eps of q.
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Mid returns the midpoint of a and b.
func Mid(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Rotate rotates v by deg degrees about the origin.
func Rotate(v Point, deg float64) Point {
	return RotateDegrees(deg).ApplyVector(v)
}

// Angle returns the direction from a to b in degrees, normalized into [0, 360).
// On a y-down canvas 0° points right and 270° points up.
func Angle(a, b Point) float64 {
	return NormalizeAngle(math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi)
}

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// QuantizeAngle snaps deg to the nearest multiple of step and normalizes the result.
// A non-positive step only normalizes.
func QuantizeAngle(deg, step float64) float64 {
	if step <= 0 {
		return NormalizeAngle(deg)
	}
	return NormalizeAngle(math.Round(deg/step) * step)
}

// PolylineContains reports whether p lies within tolerance of any segment of the polyline.
func PolylineContains(points []Point, p Point, tolerance float64) bool {
	for i := 1; i < len(points); i++ {
		if segmentDistance(points[i-1], points[i], p) <= tolerance {
			return true
		}
	}
	return false
}

func segmentDistance(a, b, p Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = max(0, min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}
