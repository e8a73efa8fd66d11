package randomizer

import (
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/music"
	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/ranges"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// Ledger keys of inserted tracks.
const (
	ownerMusic = "music"
	tagCustom  = "customMusic"
)

// MusicSlot is the track assigned to one sound test slot.
type MusicSlot struct {
	Track  string `json:"track"`
	Slot   int    `json:"slot"`
	Source int    `json:"source"` // standard track index, -1 for custom
	Addr   uint32 `json:"addr"`
}

// musicTables is the standard pointer table and its menu names.
type musicTables struct {
	addrs []uint32
	names [][]byte
}

func (r *run) readMusic() musicTables {
	ml := r.layout.Music
	t := musicTables{
		addrs: make([]uint32, ml.Count),
		names: make([][]byte, ml.Count),
	}
	for i := range ml.Count {
		t.addrs[i] = rom.ReadU32(r.img, ml.Table+i*4)
		name, err := rom.Get(r.img, ml.Names+i*ml.NameLen, ml.NameLen)
		if err != nil {
			name = music.BlankName(ml.NameLen)
		}
		t.names[i] = name
	}

	return t
}

func (r *run) writeMusic(addrs []uint32, names [][]byte) error {
	ml := r.layout.Music
	for i := range addrs {
		if err := rom.WriteU32(r.img, ml.Table+i*4, addrs[i]); err != nil {
			return fmt.Errorf("music slot %d: %w", i, err)
		}
		if err := rom.Put(r.img, ml.Names+i*ml.NameLen, names[i]); err != nil {
			return fmt.Errorf("music slot %d: %w", i, err)
		}
	}

	return nil
}

// music shuffles the sound test tracks and inserts custom ones.
func (r *run) music(rng *seed.Source) error {
	shuffle := r.settings.Enabled(rules.KeyMusicShuffleStandard, true)
	insert := r.settings.Enabled(rules.KeyMusicInsertCustom, true)

	switch {
	case insert && len(r.opts.Tracks) > 0:
		return r.customMusic(rng, shuffle)
	case shuffle:
		return r.shuffleMusic(rng)
	default:
		return nil
	}
}

// shuffleMusic permutes the standard tracks and their menu names together.
func (r *run) shuffleMusic(rng *seed.Source) error {
	t := r.readMusic()
	perm := rng.Perm(len(t.addrs))

	addrs := make([]uint32, len(perm))
	names := make([][]byte, len(perm))
	for i, n := range perm {
		addrs[i] = t.addrs[n]
		names[i] = t.names[n]
		r.res.Music = append(r.res.Music, MusicSlot{Slot: i, Source: n, Track: trackName(t.names[n]), Addr: addrs[i]})
	}

	return r.writeMusic(addrs, names)
}

// customMusic draws slot contents from the standard and custom tracks.
// Custom tracks that are empty or do not fit the free space are dropped with
// a diagnostic and the draw continues; standard tracks go back into the pool, so a slot
// always ends up with something playable.
func (r *run) customMusic(rng *seed.Source, shuffle bool) error {
	count := r.layout.Music.Count
	tracks := r.opts.Tracks

	pool := rng.Perm(count + len(tracks))
	pop := func() int {
		n := pool[0]
		pool = pool[1:]
		return n
	}

	free := r.ledger.Free(ownerMusic, tagCustom)
	found := map[int]ranges.Interval{}
	order := make([]int, 0, count)

	for range count {
		n := pop()
		for n >= count {
			tr := tracks[n-count]
			if len(tr.Data) == 0 {
				r.diagnose(placement.Diagnostic{
					Kind:    placement.TrackRejected,
					Subject: tr.Name,
					Message: "custom track is empty",
				})
				n = pop()
				continue
			}

			iv, err := free.Require(len(tr.Data))
			if err == nil {
				found[n] = iv
				free = free.Difference(ranges.NewSet(iv))
				break
			}

			r.diagnose(placement.Diagnostic{
				Kind:    placement.SpaceExhausted,
				Subject: tr.Name,
				Message: fmt.Sprintf("custom track of %d bytes does not fit", len(tr.Data)),
			})
			n = pop()
		}

		if n < count {
			pool = append(pool, n)
		}
		order = append(order, n)
	}

	t := r.readMusic()
	nameLen := r.layout.Music.NameLen
	addrs := make([]uint32, count)
	names := make([][]byte, count)

	var used []ranges.Interval
	for i, n := range order {
		if n < count {
			src := i
			if shuffle {
				src = n
			}
			addrs[i], names[i] = t.addrs[src], t.names[src]
			r.res.Music = append(r.res.Music, MusicSlot{Slot: i, Source: src, Track: trackName(t.names[src]), Addr: addrs[i]})
			continue
		}

		tr := tracks[n-count]
		iv := found[n]
		if err := rom.Put(r.img, iv.Start, tr.Data); err != nil {
			addrs[i], names[i] = t.addrs[i], music.BlankName(nameLen)
			r.res.Music = append(r.res.Music, MusicSlot{Slot: i, Source: i, Addr: addrs[i]})
			r.diagnose(placement.Diagnostic{
				Kind:    placement.SpaceExhausted,
				Subject: tr.Name,
				Message: err.Error(),
			})
			continue
		}

		used = append(used, iv)
		addrs[i], names[i] = uint32(iv.Start), music.EncodeName(tr.Name, nameLen)
		r.res.Music = append(r.res.Music, MusicSlot{Slot: i, Source: -1, Track: tr.Name, Addr: addrs[i]})
	}

	if err := r.writeMusic(addrs, names); err != nil {
		return err
	}

	r.ledger.Assign(ownerMusic, tagCustom, ranges.NewSet(used...))
	r.allocate(ownerMusic, tagCustom, used...)

	return nil
}

// trackName turns a menu entry back into text for reports.
func trackName(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}

	return string(b[:end])
}
