// Package ranges provides integer interval sets used to track free space
// inside a fixed-size image.
package ranges

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrSpaceExhausted is returned when no contiguous gap is large enough.
var ErrSpaceExhausted = errors.New("not enough contiguous free space")

// Interval is a half-open range [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of units covered.
func (iv Interval) Len() int {
	if iv.End <= iv.Start {
		return 0
	}

	return iv.End - iv.Start
}

// Empty reports whether iv covers nothing.
func (iv Interval) Empty() bool { return iv.End <= iv.Start }

// Overlaps reports whether iv and o share at least one unit.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

// String formats iv as [start,end) in hex.
func (iv Interval) String() string {
	return fmt.Sprintf("[0x%X,0x%X)", iv.Start, iv.End)
}

// Set is an immutable set of disjoint intervals kept sorted and coalesced.
type Set struct {
	items []Interval
}

// NewSet builds a set from arbitrary, possibly overlapping intervals.
func NewSet(ivs ...Interval) Set {
	items := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.Empty() {
			items = append(items, iv)
		}
	}

	return Set{items: normalize(items)}
}

// normalize sorts and merges overlapping or touching intervals.
func normalize(items []Interval) []Interval {
	if len(items) == 0 {
		return nil
	}

	slices.SortFunc(items, func(a, b Interval) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	out := items[:1]
	for _, iv := range items[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}

	return out
}

// Intervals returns a copy of the intervals in ascending order.
func (s Set) Intervals() []Interval {
	return append([]Interval(nil), s.items...)
}

// Empty reports whether the set covers nothing.
func (s Set) Empty() bool { return len(s.items) == 0 }

// Len returns the total number of units covered.
func (s Set) Len() int {
	n := 0
	for _, iv := range s.items {
		n += iv.Len()
	}

	return n
}

// Equal reports whether both sets cover the same units.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s.items, o.items)
}

// Overlaps reports whether any unit of iv is in s.
func (s Set) Overlaps(iv Interval) bool {
	for _, it := range s.items {
		if it.Overlaps(iv) {
			return true
		}
	}

	return false
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	items := make([]Interval, 0, len(s.items)+len(o.items))
	items = append(items, s.items...)
	items = append(items, o.items...)

	return Set{items: normalize(items)}
}

// Difference returns s \ o.
func (s Set) Difference(o Set) Set {
	var out []Interval
	j := 0
	for _, iv := range s.items {
		cur := iv
		for j < len(o.items) && o.items[j].End <= cur.Start {
			j++
		}
		for k := j; k < len(o.items) && o.items[k].Start < cur.End; k++ {
			cut := o.items[k]
			if cut.Start > cur.Start {
				out = append(out, Interval{Start: cur.Start, End: cut.Start})
			}
			if cut.End >= cur.End {
				cur.Start = cur.End
				break
			}
			cur.Start = cut.End
		}
		if !cur.Empty() {
			out = append(out, cur)
		}
	}

	return Set{items: out}
}

// FindContinuousRange returns the lowest-addressed interval of exactly n
// units that fits inside a single gap of s.
func (s Set) FindContinuousRange(n int) (Interval, bool) {
	if n <= 0 {
		return Interval{}, false
	}

	for _, iv := range s.items {
		if iv.Len() >= n {
			return Interval{Start: iv.Start, End: iv.Start + n}, true
		}
	}

	return Interval{}, false
}

// Require is FindContinuousRange returning ErrSpaceExhausted on failure.
func (s Set) Require(n int) (Interval, error) {
	iv, ok := s.FindContinuousRange(n)
	if !ok {
		return Interval{}, fmt.Errorf("need %d bytes, largest gap %d: %w", n, s.largest(), ErrSpaceExhausted)
	}

	return iv, nil
}

func (s Set) largest() int {
	best := 0
	for _, iv := range s.items {
		best = max(best, iv.Len())
	}

	return best
}

// String formats the set for diagnostics.
func (s Set) String() string {
	parts := make([]string, len(s.items))
	for i, iv := range s.items {
		parts[i] = iv.String()
	}

	return "{" + strings.Join(parts, " ") + "}"
}
