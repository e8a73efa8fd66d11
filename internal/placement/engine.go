// Package placement scatters object records into their spawn regions while
// avoiding hitbox overlaps, and binds derived attributes between records.
package placement

import (
	"errors"
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

const (
	// RegionWidth is the width of a camera region in the target engine.
	RegionWidth = 320
	// BorderBuffer is the minimal distance kept from a region seam.
	BorderBuffer = 3
	// DefaultRetryLimit is the default number of sampling attempts per object.
	DefaultRetryLimit = 100
)

// ErrEmptyRegion is returned when a spawn region has nothing to sample.
var ErrEmptyRegion = errors.New("spawn region is empty")

// Config holds the per-run knobs of the engine.
type Config struct {
	RetryLimit int
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.RetryLimit <= 0 {
		c.RetryLimit = DefaultRetryLimit
	}

	return c
}

// Target is where an object may spawn: a region plus a pixel offset.
type Target struct {
	Region *geom.Region
	Name   string
	Offset geom.Point
}

// Resolver selects the target for a record; ok=false leaves it in place.
type Resolver func(r *object.Record) (Target, bool)

// Stage is one stage worth of placement input.
type Stage struct {
	Resolve      Resolver
	Name         string
	Records      []*object.Record
	Camera       geom.Rect // initial camera viewport
	RegionScoped bool      // classify by camera instead of INITIAL
}

// Placement describes the outcome for one randomized record.
type Placement struct {
	Record    *object.Record `json:"-"`
	Region    string         `json:"region"`
	Type      string         `json:"type"`
	From      geom.Point     `json:"from"`
	To        geom.Point     `json:"to"`
	Container string         `json:"container"`
	Attempts  int            `json:"attempts"`
	Exhausted bool           `json:"exhausted,omitempty"`
}

// Engine places objects. It is stateless between calls.
type Engine struct {
	hitboxes *Hitboxes
	cfg      Config
}

// NewEngine creates an engine using the given hitbox table.
func NewEngine(h *Hitboxes, cfg Config) *Engine {
	return &Engine{hitboxes: h, cfg: cfg.withDefaults()}
}

// PlaceStage randomizes the stage in place. Records the resolver skips are
// finalized first; the rest are placed in scan order, each one checked
// against everything finalized before it. Every queued record draws its own
// stream from src, so the order of draws is fixed by the scan order.
func (e *Engine) PlaceStage(st Stage, src *seed.Source) ([]Placement, []Diagnostic, error) {
	type queued struct {
		rec    *object.Record
		target Target
	}

	finished := make([]*object.Record, 0, len(st.Records))
	var queue []queued

	for _, r := range st.Records {
		t, ok := st.Resolve(r)
		if !ok {
			finished = append(finished, r)
			continue
		}
		queue = append(queue, queued{rec: r, target: t})
	}

	placements := make([]Placement, 0, len(queue))
	var diags []Diagnostic

	for _, q := range queue {
		p, err := e.Place(q.rec, finished, q.target, st.Camera, st.RegionScoped, src.Child())
		if err != nil {
			return placements, diags, fmt.Errorf("stage %s: object %s: %w", st.Name, q.rec, err)
		}
		if p.Exhausted {
			diags = append(diags, Diagnostic{
				Kind:    PlacementExhausted,
				Stage:   st.Name,
				Subject: q.rec.TypeKey(),
				Message: fmt.Sprintf("retry limit %d reached, keeping (%d,%d)", e.cfg.RetryLimit, p.To.X, p.To.Y),
			})
		}

		placements = append(placements, p)
		finished = append(finished, q.rec)
	}

	return placements, diags, nil
}

// Place samples positions for obj until it no longer collides with
// accepted or the retry budget runs out; the last candidate is kept either way.
func (e *Engine) Place(obj *object.Record, accepted []*object.Record, t Target, camera geom.Rect, regionScoped bool, rng geom.Rand) (Placement, error) {
	if t.Region == nil {
		return Placement{}, ErrEmptyRegion
	}

	out := Placement{
		Record: obj,
		Region: t.Name,
		Type:   obj.TypeKey(),
		From:   obj.Pos,
	}

	var p geom.Point
	for out.Attempts < e.cfg.RetryLimit {
		out.Attempts++

		sample, ok := t.Region.Sample(rng)
		if !ok {
			return Placement{}, ErrEmptyRegion
		}

		p = sample.Add(t.Offset)
		p.X = Snap(p.X)

		if !e.hitboxes.Collides(obj, p, accepted) {
			break
		}
		if out.Attempts >= e.cfg.RetryLimit {
			out.Exhausted = true
		}
	}

	obj.Pos = p
	obj.Container = Classify(p, camera, regionScoped)

	out.To = p
	out.Container = obj.Container.String()

	return out, nil
}

// Snap pushes x away from region seams: a coordinate within BorderBuffer of
// a multiple of RegionWidth is moved to exactly BorderBuffer from it.
func Snap(x int) int {
	if x <= BorderBuffer {
		return x
	}

	off := x % RegionWidth
	switch {
	case off <= BorderBuffer:
		return x + BorderBuffer - off
	case off >= RegionWidth-BorderBuffer:
		return x - (off - RegionWidth + BorderBuffer)
	default:
		return x
	}
}

// Classify decides the storage container of a record at p.
func Classify(p geom.Point, camera geom.Rect, regionScoped bool) object.Container {
	if !regionScoped {
		return object.Initial
	}
	if camera.Contains(p) {
		return object.All
	}

	return object.Region
}
