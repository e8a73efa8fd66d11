package placement

import (
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
)

// HitboxEntry is the collision footprint of an object type, optionally
// narrowed by a payload predicate.
type HitboxEntry struct {
	Match object.Predicate // nil matches any payload
	Box   *geom.Region     // object-relative footprint
	Name  string           // unique hitbox name
	Type  uint16           // owning object type
}

// Matches reports whether the entry applies to r.
func (h *HitboxEntry) Matches(r *object.Record) bool {
	if h.Type != r.Type {
		return false
	}

	return h.Match == nil || h.Match(r.Data)
}

// At returns the footprint translated to pos.
func (h *HitboxEntry) At(pos geom.Point) *geom.Region {
	return h.Box.MoveBy(pos)
}

// CollisionIndex maps a hitbox name to the names it is checked against.
// The relation is directed: A listing B does not make B check A.
type CollisionIndex map[string][]string

// Hitboxes is the resolved, read-only hitbox table.
type Hitboxes struct {
	byName   map[string]*HitboxEntry
	partners map[string][]*HitboxEntry
	entries  []*HitboxEntry
}

// NewHitboxes resolves the collision index against the entries.
func NewHitboxes(entries []*HitboxEntry, index CollisionIndex) (*Hitboxes, error) {
	h := &Hitboxes{
		entries:  entries,
		byName:   make(map[string]*HitboxEntry, len(entries)),
		partners: make(map[string][]*HitboxEntry, len(index)),
	}

	for _, e := range entries {
		if e.Box == nil {
			return nil, fmt.Errorf("hitbox %q: no footprint", e.Name)
		}
		if _, dup := h.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate hitbox %q", e.Name)
		}
		h.byName[e.Name] = e
	}

	for name, targets := range index {
		if _, ok := h.byName[name]; !ok {
			return nil, fmt.Errorf("collision check for unknown hitbox %q", name)
		}
		list := make([]*HitboxEntry, 0, len(targets))
		for _, t := range targets {
			e, ok := h.byName[t]
			if !ok {
				return nil, fmt.Errorf("collision check %q: unknown partner hitbox %q", name, t)
			}
			list = append(list, e)
		}
		h.partners[name] = list
	}

	return h, nil
}

// Len returns the number of hitbox entries.
func (h *Hitboxes) Len() int {
	if h == nil {
		return 0
	}

	return len(h.entries)
}

// Resolve returns the first entry matching r, or nil.
func (h *Hitboxes) Resolve(r *object.Record) *HitboxEntry {
	if h == nil {
		return nil
	}

	for _, e := range h.entries {
		if e.Matches(r) {
			return e
		}
	}

	return nil
}

// Partners returns the entries the named hitbox is checked against.
func (h *Hitboxes) Partners(name string) []*HitboxEntry {
	if h == nil {
		return nil
	}

	return h.partners[name]
}

// Collides reports whether obj placed at pos overlaps any accepted record
// that its hitbox is checked against.
func (h *Hitboxes) Collides(obj *object.Record, pos geom.Point, accepted []*object.Record) bool {
	src := h.Resolve(obj)
	if src == nil {
		return false
	}

	partners := h.Partners(src.Name)
	if len(partners) == 0 {
		return false
	}

	box := src.At(pos)
	for _, o := range accepted {
		if o == obj {
			continue
		}

		var target *HitboxEntry
		for _, p := range partners {
			if p.Matches(o) {
				target = p
				break
			}
		}
		if target == nil {
			continue
		}

		if box.Intersects(target.At(o.Pos)) {
			return true
		}
	}

	return false
}
