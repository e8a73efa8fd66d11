package randomizer

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/logger"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/rules"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// errNoSafeTarget is returned when no teleporter target passes the trap check.
var errNoSafeTarget = errors.New("no safe teleport target")

// runProcedure executes one stage procedure on recs. A soft failure comes
// back as a diagnostic with the stage left as it was.
func runProcedure(st *rules.Stage, p rules.Procedure, recs []*object.Record, camera geom.Rect, rng *seed.Source) (*placement.Diagnostic, error) {
	switch p.Name {
	case rules.ProcCaveData:
		return nil, caveData(st.Index, p.Types, recs, camera, rng)
	case rules.ProcStage1Doors:
		return nil, stage1Doors(st.Index, p, recs)
	case rules.ProcTeleporters:
		err := teleporters(st.Index, p.Types, recs, rng)
		if errors.Is(err, errNoSafeTarget) {
			return &placement.Diagnostic{
				Kind:    placement.ProcedureSkipped,
				Stage:   st.Name,
				Subject: p.Name,
				Message: err.Error(),
			}, nil
		}
		return nil, err
	default:
		return nil, fmt.Errorf("%w: unknown procedure %q", rules.ErrConfig, p.Name)
	}
}

// Cave table of the graveyard stages.
const (
	caveMarkerType = 0x49
	caveMarkerDX   = 28
	caveMarkerDY   = 56
)

var (
	// caveChildCount is the number of caves holding a child, per stage 9..11.
	caveChildCount = [3]int{7, 9, 10}

	// caveSlotsEmpty are cave table slots without a child.
	caveSlotsEmpty = []uint16{0x2C, 0x30, 0x34, 0x38}

	// caveSlotsLate are child slots whose marker is placed after the others.
	caveSlotsLate = []uint16{0x14, 0x20}

	// caveIndex maps a cave table slot to the cave object variant.
	caveIndex = map[uint16]uint16{
		0x00: 0x10, 0x04: 0x10, 0x18: 0x10, 0x1C: 0x10, 0x20: 0x10, 0x30: 0x10,
		0x0C: 0x11, 0x10: 0x11, 0x14: 0x11, 0x2C: 0x11, 0x38: 0x11,
		0x08: 0x12, 0x24: 0x12, 0x28: 0x12, 0x34: 0x12,
	}

	// childBit maps a cave table slot to the rescue flag of its child.
	childBit = map[uint16]uint16{
		0x00: 0x001, 0x04: 0x002, 0x08: 0x004, 0x0C: 0x008, 0x10: 0x010, 0x14: 0x008,
		0x18: 0x020, 0x1C: 0x040, 0x20: 0x080, 0x24: 0x100, 0x28: 0x200,
	}
)

// caveData reassigns cave table slots to the cave objects and moves the
// child markers in front of the caves that now hold a child.
func caveData(stage int, types []uint16, recs []*object.Record, camera geom.Rect, rng *seed.Source) error {
	if stage < 9 || stage > 0xB {
		return fmt.Errorf("cave data on stage index %#x", stage)
	}
	count := caveChildCount[stage-9]

	withChild := []uint16{0x00, 0x04, 0x08, 0x10, 0x18, 0x1C, 0x20, 0x24, 0x28, []uint16{0x0C, 0x14}[rng.IntN(2)]}

	var caves, markers []*object.Record
	for _, r := range recs {
		switch {
		case slices.Contains(types, r.Type):
			caves = append(caves, r)
		case r.Type == caveMarkerType:
			markers = append(markers, r)
		}
	}

	rng.Shuffle(len(caves), func(i, j int) { caves[i], caves[j] = caves[j], caves[i] })
	rng.Shuffle(len(withChild), func(i, j int) { withChild[i], withChild[j] = withChild[j], withChild[i] })

	for i, c := range caves {
		var slot uint16
		if i < count {
			slot = withChild[i]
		} else {
			slot = caveSlotsEmpty[rng.IntN(len(caveSlotsEmpty))]
		}
		c.PutU16(0, caveIndex[slot])
		c.PutU16(2, slot)
	}

	mark := func(c *object.Record) {
		m := markers[0]
		markers = markers[1:]
		m.Pos = c.Pos.Add(geom.Point{X: caveMarkerDX, Y: caveMarkerDY})
		m.PutU16(4, childBit[c.U16(2)])
	}

	var late []*object.Record
	for _, c := range caves {
		if len(markers) == 0 {
			break
		}
		slot := c.U16(2)
		if !slices.Contains(withChild, slot) {
			continue
		}
		if slices.Contains(caveSlotsLate, slot) {
			late = append(late, c)
			continue
		}
		mark(c)
	}
	for _, c := range late {
		if len(markers) == 0 {
			break
		}
		mark(c)
	}

	for _, r := range recs {
		if r.Type == caveMarkerType {
			r.Container = placement.Classify(r.Pos, camera, true)
		}
	}

	return nil
}

// doorKinds are the payload[2] values of doors that have a left variant.
var doorKinds = []byte{0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C}

const doorLeftBit = 0x10

// stage1Doors flips doors inside the procedure region to their left-facing
// variant and every other door back to the right-facing one.
func stage1Doors(stage int, p rules.Procedure, recs []*object.Record) error {
	if stage < 0 || stage > 2 {
		return fmt.Errorf("door fix on stage index %#x", stage)
	}
	if p.Target.Region == nil {
		return errors.New("door fix without region")
	}
	left := p.Target.Region.MoveBy(p.Target.Offset)

	for _, r := range recs {
		if !slices.Contains(p.Types, r.Type) || len(r.Data) < 5 {
			continue
		}
		if !slices.Contains(doorKinds, r.Data[2]) {
			continue
		}

		// edges count as inside, like every other region test
		if left.Contains(r.Pos) {
			r.Data[0] |= doorLeftBit
			r.Data[2] |= doorLeftBit
			r.Data[4] |= doorLeftBit
		} else {
			r.Data[0] &^= doorLeftBit
			r.Data[2] &^= doorLeftBit
			r.Data[4] &^= doorLeftBit
		}
	}

	return nil
}

// Teleporter constants of the factory stage.
const (
	teleportRatio     = 16
	teleportTries     = 100
	teleportTrapMinDY = 300
)

var (
	teleportTrap      = geom.Point{X: 288, Y: 496}
	teleportClampLow  = geom.Point{X: 128, Y: 96}
	teleportClampHigh = geom.Point{X: 448, Y: 772}
)

// teleporters rewires every teleporter to a random target. Floors are
// chained in a shuffled cycle: one teleporter per floor leads to the next
// floor, the rest point anywhere safe. Nothing is written unless
// every teleporter got a target.
func teleporters(stage int, types []uint16, recs []*object.Record, rng *seed.Source) error {
	if stage != 0xC {
		return fmt.Errorf("teleporters on stage index %#x", stage)
	}

	var tps []*object.Record
	floors := map[int][]*object.Record{}
	for _, r := range recs {
		if !slices.Contains(types, r.Type) {
			continue
		}
		tps = append(tps, r)
		floors[r.Pos.Y] = append(floors[r.Pos.Y], r)
	}
	if len(tps) == 0 {
		return nil
	}

	ys := make([]int, 0, len(floors))
	for y := range floors {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	rng.Shuffle(len(ys), func(i, j int) { ys[i], ys[j] = ys[j], ys[i] })

	targets := make(map[*object.Record]*object.Record, len(tps))
	for i, y := range ys {
		group := floors[y]
		key := group[rng.IntN(len(group))]

		t, err := pickSafeTarget(key, floors[ys[(i+1)%len(ys)]], rng)
		if err != nil {
			return err
		}
		targets[key] = t
	}
	for _, r := range tps {
		if _, ok := targets[r]; ok {
			continue
		}
		t, err := pickSafeTarget(r, tps, rng)
		if err != nil {
			return err
		}
		targets[r] = t
	}

	for _, r := range tps {
		writeTeleport(r, targets[r])
	}

	return nil
}

// pickSafeTarget draws a target from candidates, rejecting the trap spot
// when it is reached from nearby.
func pickSafeTarget(src *object.Record, candidates []*object.Record, rng *seed.Source) (*object.Record, error) {
	limit := min(len(candidates)*10, teleportTries)
	for range limit {
		t := candidates[rng.IntN(len(candidates))]
		if t.Pos == teleportTrap {
			if abs(src.Pos.Y-t.Pos.Y) < teleportTrapMinDY {
				logger.Debug("teleport target rejected", "from", src.Pos, "to", t.Pos)
				continue
			}
			logger.Debug("teleport target near trap accepted", "from", src.Pos, "to", t.Pos)
		}
		return t, nil
	}

	return nil, fmt.Errorf("%w for %s", errNoSafeTarget, src)
}

// writeTeleport stores the target address and the scaled camera offset.
func writeTeleport(src, dst *object.Record) {
	x, y := 1, 1
	if src.Pos != dst.Pos {
		x = teleportStep(dst.Pos.X - clamp(src.Pos.X, teleportClampLow.X, teleportClampHigh.X))
		y = teleportStep(dst.Pos.Y - clamp(src.Pos.Y, teleportClampLow.Y, teleportClampHigh.Y))
	}

	src.PutU16(0, dst.Addr)
	src.PutU16(2, uint16(y))
	src.PutU16(4, uint16(x))
}

// teleportStep scales a pixel offset and rounds it away from zero.
func teleportStep(off int) int {
	v := off / teleportRatio
	if v < 0 {
		return v - 1
	}

	return v + 1
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
