// Package rules loads the placement rule tables: spawn regions, object
// resolvers, hitboxes, collision checks, bindings and stage procedures.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/invopop/yaml"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/placement"
)

// Stage procedures known to the randomizer.
const (
	ProcCaveData    = "randomizeCaveData"
	ProcStage1Doors = "fixStage1Doors"
	ProcTeleporters = "randomizeTeleporters"
)

// procedureStages bounds the stage indices each procedure may run on.
var procedureStages = map[string][2]int{
	ProcCaveData:    {0x9, 0xB},
	ProcStage1Doors: {0x0, 0x2},
	ProcTeleporters: {0xC, 0xC},
}

// DoorType is the object type handled by fixStage1Doors when no types are given.
const DoorType uint16 = 0x50

// Rules is the compiled, read-only rule set.
type Rules struct {
	Hitboxes *placement.Hitboxes
	Bindings []placement.Binding
	Stages   []*Stage
}

// Stage holds the compiled rules of one stage.
type Stage struct {
	Regions    map[string]*geom.Region
	Objects    map[uint16]*Resolver
	Name       string
	Procedures []Procedure
	Index      int
}

// Procedure is an enabled stage procedure with its arguments.
type Procedure struct {
	Target placement.Target // region argument, if the procedure takes one
	Name   string
	Types  []uint16 // object types the procedure works on
}

// Resolver picks the spawn target of an object from its payload.
type Resolver struct {
	def   *placement.Target
	cases []resolverCase
}

type resolverCase struct {
	match  object.Predicate
	target placement.Target
	keep   bool
}

// Resolve returns the target for a payload; ok=false means the object
// stays where it is.
func (r *Resolver) Resolve(data []byte) (placement.Target, bool) {
	for _, c := range r.cases {
		if !c.match(data) {
			continue
		}
		if c.keep {
			return placement.Target{}, false
		}
		return c.target, true
	}

	if r.def == nil {
		return placement.Target{}, false
	}

	return *r.def, true
}

// Load reads and compiles a rules file.
func Load(path string) (*Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return r, nil
}

// Parse validates a YAML or JSON rules document and compiles it.
func Parse(data []byte) (*Rules, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if err := validateSchema(js); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, &ConfigError{Err: err}
	}

	return Compile(doc)
}

// Compile runs the semantic checks and builds the rule set.
func Compile(doc Document) (*Rules, error) {
	out := &Rules{}

	bindings, err := compileBindings(doc.Bindings)
	if err != nil {
		return nil, err
	}
	out.Bindings = bindings

	entries := make([]*placement.HitboxEntry, 0, len(doc.Hitboxes))
	for i, h := range doc.Hitboxes {
		path := fmt.Sprintf("hitboxes[%d]", i)
		if h.Name != "" {
			path = fmt.Sprintf("hitboxes[%s]", h.Name)
		}

		typ, err := word(h.Type)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}

		box, err := compileShapes(h.Shapes)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}

		e := &placement.HitboxEntry{Name: h.Name, Type: typ, Box: box}
		if h.Match != nil {
			if e.Match, err = CompilePredicate(*h.Match); err != nil {
				return nil, &ConfigError{Path: path + ".match", Err: err}
			}
		}
		entries = append(entries, e)
	}

	if out.Hitboxes, err = placement.NewHitboxes(entries, placement.CollisionIndex(doc.CollisionChecks)); err != nil {
		return nil, &ConfigError{Path: "collision_checks", Err: err}
	}

	names := make(map[string]struct{}, len(doc.Stages))
	indices := make(map[int]string, len(doc.Stages))
	for _, sd := range doc.Stages {
		if _, dup := names[sd.Name]; dup {
			return nil, configErr("stages", "duplicate stage %q", sd.Name)
		}
		if prev, dup := indices[sd.Index]; dup {
			return nil, configErr("stages", "stages %q and %q share index %d", prev, sd.Name, sd.Index)
		}
		names[sd.Name] = struct{}{}
		indices[sd.Index] = sd.Name

		st, err := compileStage(sd)
		if err != nil {
			return nil, err
		}
		out.Stages = append(out.Stages, st)
	}

	return out, nil
}

// Stage returns the stage with the given name, or nil.
func (r *Rules) Stage(name string) *Stage {
	for _, s := range r.Stages {
		if s.Name == name {
			return s
		}
	}

	return nil
}

// CheckPayload verifies that every binding fits records of payload length n.
func (r *Rules) CheckPayload(n int) error {
	for i, b := range r.Bindings {
		if !b.Fits(n, n) {
			return configErr(fmt.Sprintf("bindings[%d]", i),
				"copy [%d:%d] -> [%d:%d] exceeds payload length %d", b.Src, b.Src+b.Len, b.Dst, b.Dst+b.Len, n)
		}
	}

	return nil
}

// ObjectTypes returns the sorted object types the stage randomizes.
func (s *Stage) ObjectTypes() []uint16 {
	out := make([]uint16, 0, len(s.Objects))
	for t := range s.Objects {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// RegionScoped reports whether records of the stage are split by camera.
func (s *Stage) RegionScoped() bool { return s.Index < 0x10 }

func compileBindings(docs []BindingDoc) ([]placement.Binding, error) {
	out := make([]placement.Binding, 0, len(docs))
	for i, b := range docs {
		path := fmt.Sprintf("bindings[%d]", i)

		bindee, err := word(b.Bindee)
		if err != nil {
			return nil, &ConfigError{Path: path + ".bindee", Err: err}
		}
		binder, err := word(b.Binder)
		if err != nil {
			return nil, &ConfigError{Path: path + ".binder", Err: err}
		}
		dir, err := placement.ParseDirection(b.Direction)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		if b.Range <= 0 {
			return nil, configErr(path, "range must be positive")
		}
		if b.Src < 0 || b.Dst < 0 || b.Len <= 0 {
			return nil, configErr(path, "bad copy window src=%d dst=%d len=%d", b.Src, b.Dst, b.Len)
		}

		out = append(out, placement.Binding{
			Bindee:    bindee,
			Binder:    binder,
			Direction: dir,
			Range:     b.Range,
			Src:       b.Src,
			Dst:       b.Dst,
			Len:       b.Len,
		})
	}

	return out, nil
}

func compileStage(sd StageDoc) (*Stage, error) {
	base := fmt.Sprintf("stages[%s]", sd.Name)
	if strings.TrimSpace(sd.Name) == "" {
		return nil, configErr("stages", "stage without a name")
	}

	st := &Stage{
		Name:    sd.Name,
		Index:   sd.Index,
		Regions: make(map[string]*geom.Region, len(sd.Regions)),
		Objects: make(map[uint16]*Resolver, len(sd.Objects)),
	}

	for name, shapes := range sd.Regions {
		r, err := compileShapes(shapes)
		if err != nil {
			return nil, &ConfigError{Path: fmt.Sprintf("%s.regions[%s]", base, name), Err: err}
		}
		r.SetSampler(geom.Quadrant{})
		st.Regions[name] = r
	}

	for i, od := range sd.Objects {
		path := fmt.Sprintf("%s.objects[%d]", base, i)

		typ, err := word(od.Type)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		path = fmt.Sprintf("%s.objects[%s]", base, object.TypeKey(typ))
		if _, dup := st.Objects[typ]; dup {
			return nil, configErr(path, "duplicate object type")
		}

		res, err := compileResolver(st, od)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		st.Objects[typ] = res
	}

	seen := make(map[string]struct{}, len(sd.Procedures))
	for i, pd := range sd.Procedures {
		path := fmt.Sprintf("%s.procedures[%d]", base, i)

		if _, dup := seen[pd.Name]; dup {
			return nil, configErr(path, "procedure %q listed twice", pd.Name)
		}
		seen[pd.Name] = struct{}{}

		p, err := compileProcedure(st, pd)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		st.Procedures = append(st.Procedures, p)
	}

	return st, nil
}

func compileResolver(st *Stage, od ObjectDoc) (*Resolver, error) {
	res := &Resolver{}

	if od.Region != "" {
		if od.Default != nil {
			return nil, errors.New("both region and default are set")
		}
		t, err := target(st, od.TargetDoc)
		if err != nil {
			return nil, err
		}
		res.def = &t
	} else if od.Offset != nil {
		return nil, errors.New("offset without region")
	}

	if od.Default != nil {
		t, err := target(st, *od.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		res.def = &t
	}

	for i, cd := range od.Cases {
		match, err := CompilePredicate(cd.When)
		if err != nil {
			return nil, fmt.Errorf("cases[%d].when: %w", i, err)
		}

		c := resolverCase{match: match, keep: cd.Keep}
		switch {
		case cd.Keep && cd.Region != "":
			return nil, fmt.Errorf("cases[%d]: both keep and region are set", i)
		case !cd.Keep && cd.Region == "":
			return nil, fmt.Errorf("cases[%d]: neither keep nor region is set", i)
		case !cd.Keep:
			if c.target, err = target(st, cd.TargetDoc); err != nil {
				return nil, fmt.Errorf("cases[%d]: %w", i, err)
			}
		}
		res.cases = append(res.cases, c)
	}

	if res.def == nil && len(res.cases) == 0 {
		return nil, errors.New("resolver has neither cases nor a default")
	}

	return res, nil
}

func compileProcedure(st *Stage, pd ProcedureDoc) (Procedure, error) {
	bounds, ok := procedureStages[pd.Name]
	if !ok {
		return Procedure{}, fmt.Errorf("unknown procedure %q", pd.Name)
	}
	if st.Index < bounds[0] || st.Index > bounds[1] {
		return Procedure{}, fmt.Errorf("procedure %s used on stage index %#x, allowed %#x..%#x",
			pd.Name, st.Index, bounds[0], bounds[1])
	}

	p := Procedure{Name: pd.Name}
	for _, n := range pd.Types {
		t, err := word(n)
		if err != nil {
			return Procedure{}, err
		}
		p.Types = append(p.Types, t)
	}

	switch pd.Name {
	case ProcStage1Doors:
		if pd.Region == "" {
			return Procedure{}, fmt.Errorf("%s needs a region", pd.Name)
		}
		t, err := target(st, pd.TargetDoc)
		if err != nil {
			return Procedure{}, err
		}
		p.Target = t
		if len(p.Types) == 0 {
			p.Types = []uint16{DoorType}
		}
	default:
		if len(p.Types) == 0 {
			return Procedure{}, fmt.Errorf("%s needs object types", pd.Name)
		}
	}

	return p, nil
}

func target(st *Stage, td TargetDoc) (placement.Target, error) {
	r, ok := st.Regions[td.Region]
	if !ok {
		return placement.Target{}, fmt.Errorf("unknown region %q", td.Region)
	}

	t := placement.Target{Region: r, Name: td.Region}
	if td.Offset != nil {
		t.Offset = geom.Point{X: td.Offset.X, Y: td.Offset.Y}
	}

	return t, nil
}

func compileShapes(docs []ShapeDoc) (*geom.Region, error) {
	if len(docs) == 0 {
		return nil, errors.New("no shapes")
	}

	r := geom.NewRegion()
	for i, s := range docs {
		switch {
		case len(s.Rect) == 4 && s.Point == nil:
			if s.Rect[2] < 0 || s.Rect[3] < 0 {
				return nil, fmt.Errorf("shapes[%d]: negative rectangle size", i)
			}
			r.Add(geom.Rectangle(s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3]))
		case len(s.Point) == 2 && s.Rect == nil:
			r.Add(geom.Pt(s.Point[0], s.Point[1]))
		default:
			return nil, fmt.Errorf("shapes[%d]: expected rect [x,y,w,h] or point [x,y]", i)
		}
	}

	return r, nil
}

func word(n Num) (uint16, error) {
	if n < 0 || n > 0xFFFF {
		return 0, fmt.Errorf("%#x does not fit 16 bits", int64(n))
	}

	return uint16(n), nil
}
