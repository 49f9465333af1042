package pcb

import "math"

// Board files store coordinates in millimeters but pcbnew works in integer
// nanometers. Snapping every computed coordinate to that grid keeps repeated
// runs byte-identical.
const nanometer = 1e-6

// Snap rounds a millimeter value to the nearest nanometer.
func Snap(v float64) float64 {
	return math.Round(v/nanometer) * nanometer
}

// Snap rounds both coordinates to the nanometer grid.
func (p Position) Snap() Position {
	return Position{X: Snap(p.X), Y: Snap(p.Y)}
}

// Add returns p + q.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Position) Sub(q Position) Position {
	return Position{X: p.X - q.X, Y: p.Y - q.Y}
}

// DistanceTo returns the euclidean distance between two points.
func (p Position) DistanceTo(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rotate rotates the vector by angle degrees using KiCad's orientation
// convention (positive angles are counterclockwise on screen, with the Y
// axis pointing down). Rotating (1, 0) by 90 yields (0, -1).
func (p Position) Rotate(angle float64) Position {
	if angle == 0 {
		return p
	}
	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return Position{
		X: p.X*cos + p.Y*sin,
		Y: -p.X*sin + p.Y*cos,
	}
}

// RotateAround rotates p around pivot by angle degrees.
func (p Position) RotateAround(pivot Position, angle float64) Position {
	return pivot.Add(p.Sub(pivot).Rotate(angle))
}

// SegmentDistance returns the distance from point p to the segment a-b.
func SegmentDistance(a, b, p Position) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := Position{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
	return p.DistanceTo(closest)
}
