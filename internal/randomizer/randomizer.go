// Package randomizer applies the rule tables to an image: object placement,
// stage procedures, attribute bindings, level order, music and title text.
package randomizer

import (
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/logger"
	"github.com/woozymasta/mw-randomizer/internal/music"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/ranges"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// Codec reads and writes the object tables of an image.
type Codec interface {
	LoadObjects(img []byte) (map[int][]*object.Record, error)
	SaveObjects(img []byte, stages map[int][]*object.Record) error
	CameraPosition(img []byte, stage int) (geom.Point, error)
	CameraSize() (w, h int)
	FixChecksum(img []byte)
}

// Options holds the per-run knobs.
type Options struct {
	Codec          Codec            // defaults to rom.TableCodec over the layout
	Tracks         []music.Track    // custom music candidates
	Engine         placement.Config // placement retry limit
	MergeThreshold int              // table duplicate merge distance
}

// Result summarizes a run.
type Result struct {
	Stages      []StageResult          `json:"stages,omitempty"`
	Diagnostics []placement.Diagnostic `json:"diagnostics,omitempty"`
	LevelOrder  []int                  `json:"level_order,omitempty"`
	Music       []MusicSlot            `json:"music,omitempty"`
	Allocations []Allocation           `json:"allocations,omitempty"`
	Seed        uint64                 `json:"seed"`
	Fingerprint uint64                 `json:"fingerprint"`
}

// StageResult is the outcome of one stage.
type StageResult struct {
	Name       string                `json:"name"`
	Placements []placement.Placement `json:"placements,omitempty"`
	Procedures []string              `json:"procedures,omitempty"`
	Index      int                   `json:"index"`
}

// Allocation is free space consumed by a feature.
type Allocation struct {
	Owner     string            `json:"owner"`
	Tag       string            `json:"tag"`
	Intervals []ranges.Interval `json:"intervals"`
}

// run carries the state of one Randomize call.
type run struct {
	img      []byte
	rules    *rules.Rules
	layout   *rom.Layout
	settings rules.Settings
	codec    Codec
	ledger   *ranges.Ledger
	res      *Result
	opts     Options
}

// Randomize rewrites img in place. Identical inputs and seed produce an
// identical image. On error img may be partially modified.
func Randomize(img []byte, r *rules.Rules, l *rom.Layout, s rules.Settings, seedVal uint64, opts Options) (*Result, error) {
	if err := l.Check(img); err != nil {
		return nil, err
	}
	if err := r.CheckPayload(l.PayloadLen); err != nil {
		return nil, err
	}

	if opts.Codec == nil {
		opts.Codec = rom.NewTableCodec(l)
	}
	if opts.MergeThreshold <= 0 {
		opts.MergeThreshold = rom.DefaultMergeThreshold
	}
	if s == nil {
		s = rules.Settings{}
	}

	rn := &run{
		img:      img,
		rules:    r,
		layout:   l,
		settings: s,
		codec:    opts.Codec,
		ledger:   ranges.NewLedger(l.FreeSet()),
		res:      &Result{Seed: seedVal},
		opts:     opts,
	}

	root := seed.New(seedVal)

	if s.Enabled(rules.KeyRandomizePositions, true) {
		if err := rn.positions(root); err != nil {
			return nil, err
		}
	} else {
		for range r.Stages {
			root.Next()
		}
	}

	if err := rn.levelOrder(root.Child()); err != nil {
		return nil, err
	}

	// reserved for boss order
	root.Next()

	musicRng := root.Child()
	if s.Enabled(rules.KeyRandomizeMusic, false) {
		if err := rn.music(musicRng); err != nil {
			return nil, err
		}
	}

	if s.Enabled(rules.KeyReplaceTitleText, true) {
		if err := rom.Put(img, l.Title, titleBlob()); err != nil {
			return nil, fmt.Errorf("title text: %w", err)
		}
	}

	rn.codec.FixChecksum(img)
	rn.res.Fingerprint = seed.Fingerprint(img)

	logger.Info("randomized",
		"seed", seed.Format(seedVal),
		"fingerprint", fmt.Sprintf("%016x", rn.res.Fingerprint),
		"diagnostics", len(rn.res.Diagnostics))

	return rn.res, nil
}

// positions places objects, runs procedures and binds attributes per stage.
func (r *run) positions(root *seed.Source) error {
	stages, err := r.codec.LoadObjects(r.img)
	if err != nil {
		return fmt.Errorf("load objects: %w", err)
	}
	rom.MergeAll(stages, r.opts.MergeThreshold)

	engine := placement.NewEngine(r.rules.Hitboxes, r.opts.Engine)
	binder := placement.NewBinder(r.rules.Bindings)

	for _, st := range r.rules.Stages {
		stageRng := root.Child()
		posRng := stageRng.Child()
		procRng := stageRng.Child()

		recs, ok := stages[st.Index]
		if !ok {
			return fmt.Errorf("stage %s: index %#x not in layout", st.Name, st.Index)
		}

		pos, err := r.codec.CameraPosition(r.img, st.Index)
		if err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
		w, h := r.codec.CameraSize()
		camera := geom.Rect{X: pos.X, Y: pos.Y, W: w, H: h}

		logger.Debug("placing stage", "stage", st.Name, "index", st.Index, "records", len(recs))

		placed, diags, err := engine.PlaceStage(placement.Stage{
			Resolve:      r.resolver(st),
			Name:         st.Name,
			Records:      recs,
			Camera:       camera,
			RegionScoped: st.RegionScoped(),
		}, posRng)
		if err != nil {
			return err
		}
		r.diagnose(diags...)

		sr := StageResult{Name: st.Name, Index: st.Index, Placements: placed}

		for _, p := range st.Procedures {
			if !r.settings.Enabled(rules.ProcedureKey(st.Name, p.Name), true) {
				continue
			}

			d, err := runProcedure(st, p, recs, camera, procRng.Child())
			if err != nil {
				return fmt.Errorf("stage %s: %s: %w", st.Name, p.Name, err)
			}
			if d != nil {
				r.diagnose(*d)
				continue
			}
			sr.Procedures = append(sr.Procedures, p.Name)
		}

		if err := binder.BindAll(recs); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}

		r.res.Stages = append(r.res.Stages, sr)
	}

	if err := r.codec.SaveObjects(r.img, stages); err != nil {
		return fmt.Errorf("save objects: %w", err)
	}

	return nil
}

// resolver adapts the stage rules and position settings to the engine.
func (r *run) resolver(st *rules.Stage) placement.Resolver {
	return func(rec *object.Record) (placement.Target, bool) {
		res, ok := st.Objects[rec.Type]
		if !ok {
			return placement.Target{}, false
		}

		t, ok := res.Resolve(rec.Data)
		if !ok {
			return placement.Target{}, false
		}
		if !r.settings.Enabled(rules.PositionsKey(st.Name, rec.Type), true) {
			return placement.Target{}, false
		}

		return t, true
	}
}

func (r *run) diagnose(ds ...placement.Diagnostic) {
	for _, d := range ds {
		logger.Warn(string(d.Kind), "stage", d.Stage, "subject", d.Subject, "msg", d.Message)
	}
	r.res.Diagnostics = append(r.res.Diagnostics, ds...)
}

func (r *run) allocate(owner, tag string, ivs ...ranges.Interval) {
	if len(ivs) == 0 {
		return
	}
	r.res.Allocations = append(r.res.Allocations, Allocation{Owner: owner, Tag: tag, Intervals: ivs})
}
