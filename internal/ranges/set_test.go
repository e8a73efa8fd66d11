package ranges

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetNormalizes(t *testing.T) {
	t.Parallel()

	s := NewSet(
		Interval{Start: 50, End: 60},
		Interval{Start: 0, End: 10},
		Interval{Start: 5, End: 20},
		Interval{Start: 20, End: 25},
		Interval{Start: 30, End: 30},
	)

	assert.Equal(t, []Interval{{0, 25}, {50, 60}}, s.Intervals())
	assert.Equal(t, 35, s.Len())
}

func TestDifferenceThenFind(t *testing.T) {
	t.Parallel()

	s := NewSet(Interval{Start: 0, End: 100}).Difference(NewSet(Interval{Start: 20, End: 30}))
	assert.Equal(t, []Interval{{0, 20}, {30, 100}}, s.Intervals())

	got, ok := s.FindContinuousRange(50)
	require.True(t, ok)
	assert.Equal(t, Interval{Start: 30, End: 80}, got)

	got, ok = s.FindContinuousRange(20)
	require.True(t, ok)
	assert.Equal(t, Interval{Start: 0, End: 20}, got, "first fit by ascending address")

	_, ok = s.FindContinuousRange(71)
	assert.False(t, ok)

	_, err := s.Require(71)
	assert.True(t, errors.Is(err, ErrSpaceExhausted))
}

func TestDifferenceCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []Interval
		want []Interval
	}{
		{name: "disjoint", a: []Interval{{0, 10}}, b: []Interval{{20, 30}}, want: []Interval{{0, 10}}},
		{name: "cover", a: []Interval{{0, 10}}, b: []Interval{{0, 10}}, want: nil},
		{name: "left_cut", a: []Interval{{0, 10}}, b: []Interval{{-5, 3}}, want: []Interval{{3, 10}}},
		{name: "right_cut", a: []Interval{{0, 10}}, b: []Interval{{8, 15}}, want: []Interval{{0, 8}}},
		{
			name: "many_holes",
			a:    []Interval{{0, 10}, {20, 40}},
			b:    []Interval{{2, 3}, {5, 22}, {25, 26}, {39, 50}},
			want: []Interval{{0, 2}, {3, 5}, {22, 25}, {26, 39}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NewSet(tt.a...).Difference(NewSet(tt.b...))
			assert.Equal(t, tt.want, got.Intervals())
		})
	}
}

func TestUnionDifferenceRoundTrip(t *testing.T) {
	t.Parallel()

	pairs := [][2]Interval{
		{{0, 10}, {20, 30}},
		{{100, 200}, {0, 50}},
		{{5, 6}, {7, 8}},
	}

	for _, p := range pairs {
		a, b := NewSet(p[0]), NewSet(p[1])
		assert.True(t, a.Union(b).Difference(b).Equal(a), "%v %v", p[0], p[1])
	}
}

func TestFindContinuousRangeNonPositive(t *testing.T) {
	t.Parallel()

	_, ok := NewSet(Interval{Start: 0, End: 10}).FindContinuousRange(0)
	assert.False(t, ok)
}
