// Package geom provides the integer geometry used for object placement:
// unions of rectangles and points, and random point sampling over them.
//
// All rectangles are inclusive: Rect{X, Y, W, H} covers the cells
// X..X+W and Y..Y+H, so a zero-sized rectangle is a single cell.
package geom

import (
	"fmt"
	"strings"
)

// Point is an absolute or relative integer position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by off.
func (p Point) Add(off Point) Point {
	return Point{X: p.X + off.X, Y: p.Y + off.Y}
}

// Rect is an inclusive axis-aligned rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the last covered column.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the last covered row.
func (r Rect) Bottom() int { return r.Y + r.H }

// Cells returns the number of covered cells, (W+1)*(H+1).
func (r Rect) Cells() int64 {
	return int64(r.W+1) * int64(r.H+1)
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.Right() && p.Y <= r.Bottom()
}

// Intersects reports whether r and o share at least one cell.
// Both operands are padded by one in width and height, which turns the
// inclusive footprints into half-open ones before the overlap test.
func (r Rect) Intersects(o Rect) bool {
	if r.X >= o.X+o.W+1 || o.X >= r.X+r.W+1 {
		return false
	}
	if r.Y >= o.Y+o.H+1 || o.Y >= r.Y+r.H+1 {
		return false
	}

	return true
}

// Translate returns r moved by off.
func (r Rect) Translate(off Point) Rect {
	return Rect{X: r.X + off.X, Y: r.Y + off.Y, W: r.W, H: r.H}
}

// Points lists every cell of r in column-major order.
func (r Rect) Points() []Point {
	out := make([]Point, 0, r.Cells())
	for x := r.X; x <= r.Right(); x++ {
		for y := r.Y; y <= r.Bottom(); y++ {
			out = append(out, Point{X: x, Y: y})
		}
	}

	return out
}

// Shape is a region primitive: either a rectangle or a single point.
type Shape struct {
	rect  Rect
	point bool
}

// Rectangle builds a rectangle shape. Negative sizes are clamped to zero.
func Rectangle(x, y, w, h int) Shape {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	return Shape{rect: Rect{X: x, Y: y, W: w, H: h}}
}

// Pt builds a point shape.
func Pt(x, y int) Shape {
	return Shape{rect: Rect{X: x, Y: y}, point: true}
}

// IsPoint reports whether s is a point shape.
func (s Shape) IsPoint() bool { return s.point }

// Rect returns the footprint of s; a point is a zero-sized rectangle.
func (s Shape) Rect() Rect { return s.rect }

// Point returns the origin of s.
func (s Shape) Point() Point { return Point{X: s.rect.X, Y: s.rect.Y} }

// String formats s for diagnostics.
func (s Shape) String() string {
	if s.point {
		return fmt.Sprintf("point(%d,%d)", s.rect.X, s.rect.Y)
	}

	return fmt.Sprintf("rect(%d,%d,%d,%d)", s.rect.X, s.rect.Y, s.rect.W, s.rect.H)
}

func (s Shape) moveBy(off Point) Shape {
	return Shape{rect: s.rect.Translate(off), point: s.point}
}

// Region is an ordered union of shapes with a pluggable sampling strategy.
// Geometry is append-only; MoveBy produces a new Region.
type Region struct {
	sampler Sampler
	shapes  []Shape
}

// NewRegion creates a region from shapes using the weighted sampler.
func NewRegion(shapes ...Shape) *Region {
	r := &Region{}
	for _, s := range shapes {
		r.Add(s)
	}

	return r
}

// Add appends a shape.
func (r *Region) Add(s Shape) {
	r.shapes = append(r.shapes, s)
}

// Shapes returns a copy of the region's shapes in insertion order.
func (r *Region) Shapes() []Shape {
	return append([]Shape(nil), r.shapes...)
}

// Len returns the number of shapes.
func (r *Region) Len() int { return len(r.shapes) }

// Sampler returns the active sampling strategy.
func (r *Region) Sampler() Sampler {
	if r.sampler == nil {
		return Weighted{}
	}

	return r.sampler
}

// SetSampler replaces the sampling strategy. nil restores the default.
func (r *Region) SetSampler(s Sampler) {
	r.sampler = s
}

// Contains reports whether p is inside any shape.
func (r *Region) Contains(p Point) bool {
	for _, s := range r.shapes {
		if s.rect.Contains(p) {
			return true
		}
	}

	return false
}

// Bounds returns the minimal rectangle enclosing every shape.
// Each edge is compared independently so a single shape may extend
// several edges of the running bound at once.
func (r *Region) Bounds() (Rect, bool) {
	if len(r.shapes) == 0 {
		return Rect{}, false
	}

	first := r.shapes[0].rect
	minX, minY := first.X, first.Y
	maxX, maxY := first.Right(), first.Bottom()

	for _, s := range r.shapes[1:] {
		if s.rect.X < minX {
			minX = s.rect.X
		}
		if s.rect.Y < minY {
			minY = s.rect.Y
		}
		if s.rect.Right() > maxX {
			maxX = s.rect.Right()
		}
		if s.rect.Bottom() > maxY {
			maxY = s.rect.Bottom()
		}
	}

	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// IntersectsRect reports whether any shape shares a cell with rect.
func (r *Region) IntersectsRect(rect Rect) bool {
	for _, s := range r.shapes {
		if s.rect.Intersects(rect) {
			return true
		}
	}

	return false
}

// Intersects reports whether the two regions share at least one cell.
func (r *Region) Intersects(o *Region) bool {
	if o == nil {
		return false
	}

	for _, a := range r.shapes {
		for _, b := range o.shapes {
			if a.rect.Intersects(b.rect) {
				return true
			}
		}
	}

	return false
}

// MoveBy returns a translated copy sharing the same sampler.
func (r *Region) MoveBy(off Point) *Region {
	out := &Region{
		sampler: r.sampler,
		shapes:  make([]Shape, len(r.shapes)),
	}
	for i, s := range r.shapes {
		out.shapes[i] = s.moveBy(off)
	}

	return out
}

// Sample draws a point using the active strategy.
// ok is false when the region has no shapes.
func (r *Region) Sample(rng Rand) (Point, bool) {
	return r.Sampler().Sample(r, rng)
}

// String formats the region shapes in order.
func (r *Region) String() string {
	parts := make([]string, len(r.shapes))
	for i, s := range r.shapes {
		parts[i] = s.String()
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
