package geom

import "math/big"

// Rand is the subset of *rand.Rand (math/rand/v2) the samplers need.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Sampler draws a point inside a region.
type Sampler interface {
	Sample(r *Region, rng Rand) (Point, bool)
}

// Weighted samples shapes proportionally to their cell count.
// Overlapping shapes are not deduplicated, so overlaps are drawn more often.
type Weighted struct{}

// Sample implements Sampler.
func (Weighted) Sample(r *Region, rng Rand) (Point, bool) {
	var total int64
	for _, s := range r.shapes {
		total += s.rect.Cells()
	}
	if total == 0 {
		return Point{}, false
	}

	desired := scaleDraw(total, rng.Float64())

	var counter int64
	for _, s := range r.shapes {
		w := int64(s.rect.W + 1)
		incr := s.rect.Cells()
		if desired >= counter && desired < counter+incr {
			diff := desired - counter
			return Point{X: s.rect.X + int(diff%w), Y: s.rect.Y + int(diff/w)}, true
		}
		counter += incr
	}

	// f < 1 keeps desired below total; the last cell is a safe fallback.
	last := r.shapes[len(r.shapes)-1].rect
	return Point{X: last.Right(), Y: last.Bottom()}, true
}

// scaleDraw returns trunc(total * f) without float rounding on large totals.
func scaleDraw(total int64, f float64) int64 {
	prod := new(big.Float).SetPrec(128).SetInt64(total)
	prod.Mul(prod, new(big.Float).SetPrec(128).SetFloat64(f))
	v, _ := prod.Int64()

	if v >= total {
		return total - 1
	}
	if v < 0 {
		return 0
	}

	return v
}

// Quadrant samples by repeatedly halving the bounding box and keeping a
// random quadrant that still touches the region. It never materializes the
// whole coordinate space, at the price of exact uniformity near edges.
type Quadrant struct{}

// Sample implements Sampler.
func (Quadrant) Sample(r *Region, rng Rand) (Point, bool) {
	rect, ok := r.Bounds()
	if !ok {
		return Point{}, false
	}

	for rect.W > 1 || rect.H > 1 {
		wHalf := rect.W / 2
		hHalf := rect.H / 2
		quads := [4]Rect{
			{X: rect.X, Y: rect.Y, W: wHalf, H: hHalf},
			{X: rect.X + wHalf, Y: rect.Y, W: rect.W - wHalf, H: hHalf},
			{X: rect.X, Y: rect.Y + hHalf, W: wHalf, H: rect.H - hHalf},
			{X: rect.X + wHalf, Y: rect.Y + hHalf, W: rect.W - wHalf, H: rect.H - hHalf},
		}

		live := make([]Rect, 0, len(quads))
		for _, q := range quads {
			if r.IntersectsRect(q) {
				live = append(live, q)
			}
		}
		if len(live) == 0 {
			return Point{}, false
		}

		rect = live[rng.IntN(len(live))]
	}

	var cells []Point
	for _, p := range rect.Points() {
		if r.Contains(p) {
			cells = append(cells, p)
		}
	}
	if len(cells) == 0 {
		return Point{}, false
	}

	return cells[rng.IntN(len(cells))], true
}
