package placement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
)

func rec(typ uint16, x, y int, data ...byte) *object.Record {
	return &object.Record{Type: typ, Pos: geom.Point{X: x, Y: y}, Data: data}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Direction{"N": North, "sw": SouthWest, "": Omni, "omni": Omni, " e ": East} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("up")
	require.Error(t, err)
}

func TestBindNorthIgnoresCloserBinderBelow(t *testing.T) {
	t.Parallel()

	bindee := rec(2, 100, 100, 0, 0)
	below := rec(1, 100, 101, 0xBB, 0)
	above := rec(1, 100, 90, 0xAA, 0)

	b := NewBinder([]Binding{{Bindee: 2, Binder: 1, Direction: North, Range: 50, Len: 1}})
	require.NoError(t, b.Bind(bindee, []*object.Record{bindee, below, above}))

	assert.Equal(t, byte(0xAA), bindee.Data[0])
}

func TestBindDirectionPredicates(t *testing.T) {
	t.Parallel()

	at := geom.Point{X: 10, Y: 10}
	tests := []struct {
		dir  Direction
		pos  geom.Point
		want bool
	}{
		{North, geom.Point{X: 10, Y: 10}, true},
		{North, geom.Point{X: 10, Y: 11}, false},
		{South, geom.Point{X: 0, Y: 11}, true},
		{East, geom.Point{X: 11, Y: 0}, true},
		{West, geom.Point{X: 11, Y: 0}, false},
		{NorthEast, geom.Point{X: 11, Y: 9}, true},
		{NorthEast, geom.Point{X: 9, Y: 9}, false},
		{SouthWest, geom.Point{X: 9, Y: 11}, true},
		{Omni, geom.Point{X: -50, Y: 99}, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dir.allows(tt.pos, at), "%s %v", tt.dir, tt.pos)
	}
}

func TestBindTieKeepsFirstCandidate(t *testing.T) {
	t.Parallel()

	bindee := rec(2, 50, 50, 0)
	left := rec(1, 40, 50, 0x01)
	right := rec(1, 60, 50, 0x02)

	b := NewBinder([]Binding{{Bindee: 2, Binder: 1, Range: 20, Len: 1}})
	require.NoError(t, b.Bind(bindee, []*object.Record{left, right, bindee}))
	assert.Equal(t, byte(0x01), bindee.Data[0])
}

func TestBindNearestAcrossRules(t *testing.T) {
	t.Parallel()

	bindee := rec(2, 0, 0, 0, 0)
	far := rec(1, 30, 0, 0x11, 0x12)
	near := rec(3, 5, 0, 0x31, 0x32)

	b := NewBinder([]Binding{
		{Bindee: 2, Binder: 1, Range: 100, Src: 0, Dst: 0, Len: 1},
		{Bindee: 2, Binder: 3, Range: 100, Src: 1, Dst: 1, Len: 1},
	})
	require.NoError(t, b.BindAll([]*object.Record{far, near, bindee}))

	assert.Equal(t, []byte{0, 0x32}, bindee.Data)
}

func TestBindRangeIsExclusive(t *testing.T) {
	t.Parallel()

	bindee := rec(2, 0, 0, 0)
	edge := rec(1, 10, 0, 1)

	b := NewBinder([]Binding{{Bindee: 2, Binder: 1, Range: 10, Len: 1}})
	err := b.Bind(bindee, []*object.Record{edge})

	var be *BindingError
	require.True(t, errors.As(err, &be))
	assert.ErrorIs(t, err, ErrBindingUnresolved)
	assert.Equal(t, uint16(2), be.Bindee)
}

func TestBindSkipsSelf(t *testing.T) {
	t.Parallel()

	self := rec(1, 0, 0, 9)
	b := NewBinder([]Binding{{Bindee: 1, Binder: 1, Range: 10, Len: 1}})

	require.ErrorIs(t, b.Bind(self, []*object.Record{self}), ErrBindingUnresolved)
}

func TestBindOutOfBounds(t *testing.T) {
	t.Parallel()

	bindee := rec(2, 0, 0, 0)
	binder := rec(1, 1, 0, 1)

	b := NewBinder([]Binding{{Bindee: 2, Binder: 1, Range: 10, Src: 0, Dst: 1, Len: 1}})
	err := b.Bind(bindee, []*object.Record{binder})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBindingUnresolved)
}
