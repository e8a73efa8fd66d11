package randomizer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/music"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
)

type fixture struct {
	rules  *rules.Rules
	layout *rom.Layout
	img    []byte
}

var (
	doorCamera   = geom.Point{X: 0, Y: 60}
	graveCamera  = geom.Point{X: 100, Y: 200}
	factoryFloor = []geom.Point{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 100, Y: 400}, {X: 300, Y: 400}, {X: 100, Y: 700}, {X: 200, Y: 700}}
)

func newFixture(t *testing.T) fixture {
	t.Helper()

	r, err := rules.Load(filepath.Join("testdata", "rules.yaml"))
	require.NoError(t, err)
	l, err := rom.LoadLayout(filepath.Join("testdata", "layout.yaml"))
	require.NoError(t, err)

	img := make([]byte, l.Length)
	putCamera(t, img, 0x300, doorCamera)
	putCamera(t, img, 0x304, graveCamera)
	putCamera(t, img, 0x308, geom.Point{})

	stages := map[int][]*object.Record{}
	for i := range 4 {
		stages[0] = append(stages[0], &object.Record{
			Type: 0x50, Addr: uint16(0x10 + i), Pos: geom.Point{X: 100 + 200*i, Y: 160},
			Data: []byte{0, 0, 0x04, 0, 0, 0},
		})
	}
	for i := range 10 {
		stages[9] = append(stages[9], &object.Record{
			Type: 0x5A, Addr: uint16(0x20 + i), Pos: geom.Point{X: 150 + 180*i, Y: 200},
			Data: make([]byte, 6),
		})
	}
	for i := range 7 {
		stages[9] = append(stages[9], &object.Record{
			Type: caveMarkerType, Addr: uint16(0x30 + i), Pos: geom.Point{X: 50, Y: 50 + 10*i},
			Data: make([]byte, 6),
		})
	}
	for i := range 2 {
		stages[9] = append(stages[9], &object.Record{
			Type: 0x4C, Addr: uint16(0x40 + i), Pos: geom.Point{X: 200 + 300*i, Y: 310},
			Data: make([]byte, 6),
		})
	}
	stages[9] = append(stages[9], &object.Record{
		Type: 0x4D, Addr: 0x50, Pos: geom.Point{X: 500, Y: 320},
		Data: []byte{0xAB, 0xCD, 0, 0, 0, 0},
	})
	for i, p := range factoryFloor {
		stages[12] = append(stages[12], &object.Record{
			Type: 0x44, Addr: uint16(0x60 + i), Pos: p, Data: make([]byte, 6),
		})
	}
	require.NoError(t, rom.NewTableCodec(l).SaveObjects(img, stages))

	for i := range l.Music.Count {
		require.NoError(t, rom.WriteU32(img, l.Music.Table+4*i, uint32(0x10000+0x100*i)))
		require.NoError(t, rom.Put(img, l.Music.Names+i*l.Music.NameLen,
			music.EncodeName(fmt.Sprintf("track %d", i), l.Music.NameLen)))
	}

	return fixture{rules: r, layout: l, img: img}
}

func putCamera(t *testing.T, img []byte, off int, p geom.Point) {
	t.Helper()
	require.NoError(t, rom.WriteU32(img, off, uint32(p.X)<<16|uint32(p.Y)))
}

func (f fixture) run(t *testing.T, s rules.Settings, seedVal uint64, opts Options) ([]byte, *Result) {
	t.Helper()

	img := bytes.Clone(f.img)
	res, err := Randomize(img, f.rules, f.layout, s, seedVal, opts)
	require.NoError(t, err)

	return img, res
}

func (f fixture) objects(t *testing.T, img []byte) map[int][]*object.Record {
	t.Helper()

	stages, err := rom.NewTableCodec(f.layout).LoadObjects(img)
	require.NoError(t, err)
	rom.MergeAll(stages, rom.DefaultMergeThreshold)

	return stages
}

func ofType(recs []*object.Record, typ uint16) []*object.Record {
	var out []*object.Record
	for _, r := range recs {
		if r.Type == typ {
			out = append(out, r)
		}
	}

	return out
}

func TestRandomizeDeterministic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	a, resA := f.run(t, nil, 42, Options{})
	b, resB := f.run(t, nil, 42, Options{})
	c, _ := f.run(t, nil, 43, Options{})

	assert.Equal(t, a, b)
	assert.Equal(t, resA, resB)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, f.img, a)
	require.Len(t, resA.Stages, 3)
}

func TestRandomizeImageMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := Randomize(make([]byte, 10), f.rules, f.layout, nil, 1, Options{})
	require.ErrorIs(t, err, rom.ErrImageMismatch)
}

func TestRandomizeStages(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	img, res := f.run(t, nil, 7, Options{})
	stages := f.objects(t, img)

	t.Run("doors", func(t *testing.T) {
		doors := ofType(stages[0], 0x50)
		require.Len(t, doors, 4)
		for _, d := range doors {
			assert.Equal(t, 160, d.Pos.Y)
			assert.True(t, d.Pos.X >= 16 && d.Pos.X <= 916, "door x %d", d.Pos.X)

			left := d.Pos.X <= 300
			for _, i := range []int{0, 2, 4} {
				assert.Equal(t, left, d.Data[i]&doorLeftBit != 0, "door %s byte %d", d, i)
			}
		}
	})

	t.Run("caves", func(t *testing.T) {
		caves := ofType(stages[9], 0x5A)
		require.Len(t, caves, 10)

		var withChild []*object.Record
		for _, c := range caves {
			slot := c.U16(2)
			assert.Equal(t, caveIndex[slot], c.U16(0), "cave %s", c)
			if _, ok := childBit[slot]; ok {
				withChild = append(withChild, c)
			}
		}
		require.Len(t, withChild, 7)

		camera := f.layout.CameraRect(graveCamera)
		for _, m := range ofType(stages[9], caveMarkerType) {
			i := slices.IndexFunc(withChild, func(c *object.Record) bool {
				return c.Pos.Add(geom.Point{X: caveMarkerDX, Y: caveMarkerDY}) == m.Pos
			})
			require.GreaterOrEqual(t, i, 0, "marker %s not at a cave", m)
			assert.Equal(t, childBit[withChild[i].U16(2)], m.U16(4))
			assert.Equal(t, placement.Classify(m.Pos, camera, true), m.Container)
		}
	})

	t.Run("bound spiders", func(t *testing.T) {
		spiders := ofType(stages[9], 0x4C)
		require.Len(t, spiders, 2)
		for _, s := range spiders {
			assert.Equal(t, []byte{0xAB, 0xCD}, s.Data[4:6])
			assert.True(t, s.Pos.Y >= 300 && s.Pos.Y <= 340, "spider y %d", s.Pos.Y)
		}
	})

	t.Run("teleporters", func(t *testing.T) {
		tps := ofType(stages[12], 0x44)
		require.Len(t, tps, len(factoryFloor))

		addrs := map[uint16]bool{}
		for _, tp := range tps {
			addrs[tp.Addr] = true
		}
		for _, tp := range tps {
			assert.True(t, addrs[tp.U16(0)], "teleporter %s targets %#x", tp, tp.U16(0))
		}
		assert.Contains(t, res.Stages[2].Procedures, rules.ProcTeleporters)
	})

	t.Run("level order", func(t *testing.T) {
		order := res.LevelOrder
		require.Len(t, order, RoundCount+1)
		assert.Equal(t, 0, order[0])
		assert.Equal(t, RoundCount-1, order[RoundCount-1])
		assert.Equal(t, EndRound, order[RoundCount])

		require.NotEmpty(t, res.Allocations)
		iv := res.Allocations[0].Intervals[0]
		assert.Equal(t, 0x2000, iv.Start)
		assert.Equal(t, levelSwapLen, iv.Len())

		entry := f.layout.LevelOrder.Entry
		assert.Equal(t, []byte{0x4E, 0xB9}, img[entry:entry+2])
		assert.Equal(t, uint32(iv.Start+levelSwapCode), rom.ReadU32(img, entry+2))

		hook := f.layout.LevelOrder.Init
		assert.Equal(t, make([]byte, rom.InitHookLen), img[hook:hook+rom.InitHookLen], "round 1-1 first needs no init hook")

		for i := 1; i < len(order); i++ {
			off := iv.Start + order[i-1]*2
			assert.Equal(t, uint16(order[i]), uint16(img[off])<<8|uint16(img[off+1]))
		}
	})

	t.Run("title and checksum", func(t *testing.T) {
		assert.Equal(t, titleBlob(), img[f.layout.Title:f.layout.Title+rom.TitleLen])

		off := f.layout.Checksum.Offset
		assert.Equal(t, rom.Sum(img, f.layout.Checksum.Start), uint16(img[off])<<8|uint16(img[off+1]))
	})
}

func TestRandomizeSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := rules.Settings{
		rules.KeyRandomizePositions: false,
		rules.KeyReplaceTitleText:   false,
		rules.KeyKeepFirstRound:     false,
	}

	img, res := f.run(t, s, 9, Options{})

	assert.Empty(t, res.Stages)
	assert.Equal(t, f.objects(t, f.img), f.objects(t, img), "object tables untouched")
	assert.Equal(t, f.img[f.layout.Title:f.layout.Title+rom.TitleLen], img[f.layout.Title:f.layout.Title+rom.TitleLen])

	// level order does not depend on the positions feature
	_, full := f.run(t, rules.Settings{rules.KeyKeepFirstRound: false}, 9, Options{})
	assert.Equal(t, full.LevelOrder, res.LevelOrder)

	if res.LevelOrder[0] != 0 {
		hook := f.layout.LevelOrder.Init
		assert.Equal(t, []byte{0x4E, 0xB9}, img[hook:hook+2])
		assert.Equal(t, uint32(0x2000+levelSwapInit), rom.ReadU32(img, hook+2))
	}
}

func TestRandomizeDisabledPositionType(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := rules.Settings{rules.PositionsKey("1-1", 0x50): false}
	img, res := f.run(t, s, 3, Options{})

	assert.Empty(t, res.Stages[0].Placements)
	for i, d := range ofType(f.objects(t, img)[0], 0x50) {
		assert.Equal(t, geom.Point{X: 100 + 200*i, Y: 160}, d.Pos)
	}
}

func TestRandomizeLevelOrderNoSpace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	l := *f.layout
	l.FreeSpace = nil
	f.layout = &l

	img, res := f.run(t, nil, 5, Options{})

	assert.Nil(t, res.LevelOrder)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, placement.SpaceExhausted, res.Diagnostics[len(res.Diagnostics)-1].Kind)

	entry := f.layout.LevelOrder.Entry
	assert.Equal(t, f.img[entry:entry+rom.EntryHookLen], img[entry:entry+rom.EntryHookLen])
}

func TestRandomizeMusicShuffle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := rules.Settings{rules.KeyRandomizeMusic: true}
	img, res := f.run(t, s, 11, Options{})

	ml := f.layout.Music
	require.Len(t, res.Music, ml.Count)

	seen := map[int]bool{}
	for i, slot := range res.Music {
		src := slot.Source
		seen[src] = true

		assert.Equal(t, uint32(0x10000+0x100*src), rom.ReadU32(img, ml.Table+4*i))
		want := music.EncodeName(fmt.Sprintf("track %d", src), ml.NameLen)
		assert.Equal(t, want, img[ml.Names+i*ml.NameLen:ml.Names+(i+1)*ml.NameLen])
	}
	assert.Len(t, seen, ml.Count)
}

func TestRandomizeMusicCustom(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := rules.Settings{rules.KeyRandomizeMusic: true}
	tracks := []music.Track{
		{Name: "small", Data: bytes.Repeat([]byte{0x5A}, 0x100)},
		{Name: "huge", Data: make([]byte, 0x1000)},
		{Name: "empty"},
	}

	var inserted, rejected, empty bool
	for seedVal := range uint64(40) {
		img, res := f.run(t, s, seedVal, Options{Tracks: tracks})
		require.Len(t, res.Music, f.layout.Music.Count)

		for _, slot := range res.Music {
			if slot.Source >= 0 {
				continue
			}
			require.Equal(t, "small", slot.Track, "only the small track fits")
			inserted = true

			start := int(slot.Addr)
			assert.GreaterOrEqual(t, start, 0x2000+levelSwapLen, "custom track overlaps the level swap code")
			assert.Equal(t, tracks[0].Data, img[start:start+0x100])
		}

		for _, d := range res.Diagnostics {
			switch d.Subject {
			case "huge":
				assert.Equal(t, placement.SpaceExhausted, d.Kind)
				rejected = true
			case "empty":
				assert.Equal(t, placement.TrackRejected, d.Kind)
				assert.Equal(t, "custom track is empty", d.Message)
				empty = true
			}
		}

		for i, a := range res.Allocations {
			for _, b := range res.Allocations[i+1:] {
				for _, x := range a.Intervals {
					for _, y := range b.Intervals {
						assert.False(t, x.Overlaps(y), "%s/%s overlaps %s/%s", a.Owner, x, b.Owner, y)
					}
				}
			}
		}
	}

	assert.True(t, inserted, "small track never inserted")
	assert.True(t, rejected, "huge track never rejected")
	assert.True(t, empty, "empty track never rejected")
}

// withoutType returns a copy of the fixture image with every record of typ removed.
func (f fixture) withoutType(t *testing.T, typ uint16) fixture {
	t.Helper()

	img := bytes.Clone(f.img)
	codec := rom.NewTableCodec(f.layout)
	stages, err := codec.LoadObjects(img)
	require.NoError(t, err)

	for i, recs := range stages {
		stages[i] = slices.DeleteFunc(recs, func(r *object.Record) bool { return r.Type == typ })
	}
	require.NoError(t, codec.SaveObjects(img, stages))
	f.img = img

	return f
}

func TestRandomizeUnresolvedBinding(t *testing.T) {
	t.Parallel()

	f := newFixture(t).withoutType(t, 0x4D)

	img := bytes.Clone(f.img)
	res, err := Randomize(img, f.rules, f.layout, nil, 42, Options{})
	require.ErrorIs(t, err, placement.ErrBindingUnresolved)
	assert.Nil(t, res)

	var be *placement.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, uint16(0x4C), be.Bindee)
	assert.Contains(t, err.Error(), "stage 4-1")
}

func TestRandomizeBindingSkippedWithoutPositions(t *testing.T) {
	t.Parallel()

	f := newFixture(t).withoutType(t, 0x4D)

	s := rules.Settings{rules.KeyRandomizePositions: false}
	img, res := f.run(t, s, 42, Options{})
	assert.Empty(t, res.Stages)

	spiders := ofType(f.objects(t, img)[9], 0x4C)
	require.Len(t, spiders, 2)
	for _, sp := range spiders {
		assert.Equal(t, make([]byte, 6), sp.Data, "bindings run only with positions")
	}
}
