package game

import "math"

// Rect is an axis-aligned rectangle. Containment is half-open:
// a point on the right or bottom edge belongs to the neighbour.
type Rect struct {
	X, Y float64
	W, H float64
}

// Positioned is anything that can be indexed spatially.
type Positioned interface {
	Position() (x, y float64)
	Radius() float64
}

// Entity is the constraint used by the engine: indexable and usable as a map key.
type Entity interface {
	comparable
	Positioned
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

func (r Rect) Empty() bool { return !(r.W > 0 && r.H > 0) }

// Contains reports whether (x, y) lies in [X, X+W) x [Y, Y+H).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersects reports whether the interiors of r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.MaxX() && r.MaxX() > o.X && r.Y < o.MaxY() && r.MaxY() > o.Y
}

// Overlaps is Intersects but also true for rects sharing an edge.
func (r Rect) Overlaps(o Rect) bool {
	return r.X <= o.MaxX() && r.MaxX() >= o.X && r.Y <= o.MaxY() && r.MaxY() >= o.Y
}

func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.MaxX(), o.MaxX())
	y1 := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clip returns the part of r inside bounds (possibly empty).
func (r Rect) Clip(bounds Rect) Rect {
	x0 := math.Max(r.X, bounds.X)
	y0 := math.Max(r.Y, bounds.Y)
	x1 := math.Min(r.MaxX(), bounds.MaxX())
	y1 := math.Min(r.MaxY(), bounds.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset grows r by m on every side (shrinks for negative m).
func (r Rect) Inset(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validPoint(x, y float64) bool {
	return finite(x) && finite(y)
}
