package geom

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSampleSingleCell(t *testing.T) {
	t.Parallel()

	for _, s := range []Sampler{Weighted{}, Quadrant{}} {
		r := NewRegion(Rectangle(0, 0, 0, 0))
		r.SetSampler(s)
		rng := newRand(1)
		for range 50 {
			p, ok := r.Sample(rng)
			require.True(t, ok)
			assert.Equal(t, Point{}, p)
		}
	}
}

func TestWeightedTwoPointsBalanced(t *testing.T) {
	t.Parallel()

	r := NewRegion(Pt(0, 0), Pt(10, 10))
	rng := newRand(7)

	const draws = 20000
	var first int
	for range draws {
		p, ok := r.Sample(rng)
		require.True(t, ok)
		switch p {
		case Point{0, 0}:
			first++
		case Point{10, 10}:
		default:
			t.Fatalf("unexpected point %+v", p)
		}
	}

	ratio := float64(first) / draws
	assert.InDelta(t, 0.5, ratio, 0.03)
}

func TestSampleSoundness(t *testing.T) {
	t.Parallel()

	regions := map[string]*Region{
		"disjoint":  NewRegion(Rectangle(0, 0, 3, 3), Rectangle(500, 40, 10, 0), Pt(-30, -30)),
		"overlap":   NewRegion(Rectangle(0, 0, 10, 10), Rectangle(5, 5, 10, 10)),
		"thin":      NewRegion(Rectangle(0, 0, 0, 300), Rectangle(1000, 0, 300, 0)),
		"large":     NewRegion(Rectangle(0, 0, 4000, 3000), Pt(9000, 9000)),
		"one_point": NewRegion(Pt(42, 17)),
	}

	for name, region := range regions {
		for _, s := range []Sampler{Weighted{}, Quadrant{}} {
			region.SetSampler(s)
			rng := newRand(uint64(len(name)))
			for range 500 {
				p, ok := region.Sample(rng)
				require.True(t, ok, name)
				require.True(t, region.Contains(p), "%s: %T produced %+v", name, s, p)
			}
		}
	}
}

func TestSampleEmptyRegion(t *testing.T) {
	t.Parallel()

	for _, s := range []Sampler{Weighted{}, Quadrant{}} {
		r := NewRegion()
		r.SetSampler(s)
		_, ok := r.Sample(newRand(3))
		assert.False(t, ok)
	}
}

func TestSampleDeterministic(t *testing.T) {
	t.Parallel()

	r := NewRegion(Rectangle(0, 0, 640, 200), Rectangle(900, 100, 50, 50))
	for _, s := range []Sampler{Weighted{}, Quadrant{}} {
		r.SetSampler(s)
		a, b := newRand(99), newRand(99)
		for range 100 {
			pa, _ := r.Sample(a)
			pb, _ := r.Sample(b)
			require.Equal(t, pa, pb)
		}
	}
}

func TestScaleDrawBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), scaleDraw(10, 0))
	assert.Equal(t, int64(9), scaleDraw(10, 0.99999))
	assert.Equal(t, int64(1<<62-512), scaleDraw(1<<62, 0.9999999999999999))
	assert.Equal(t, int64(1<<61), scaleDraw(1<<62, 0.5))
}
