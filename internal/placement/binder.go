package placement

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
)

// ErrBindingUnresolved is returned when no binder satisfies a binding.
var ErrBindingUnresolved = errors.New("no binder found")

// BindingError reports a bindee that found no binder.
type BindingError struct {
	Pos    geom.Point
	Bindee uint16
	Binder uint16
}

// Error implements error.
func (e *BindingError) Error() string {
	return fmt.Sprintf("bind %s at (%d,%d) to %s: %v",
		object.TypeKey(e.Bindee), e.Pos.X, e.Pos.Y, object.TypeKey(e.Binder), ErrBindingUnresolved)
}

// Unwrap returns ErrBindingUnresolved.
func (e *BindingError) Unwrap() error { return ErrBindingUnresolved }

// Direction restricts where a binder may sit relative to the bindee.
type Direction uint8

// Directions are screen oriented: north has the smaller y.
const (
	Omni Direction = iota
	North
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

var directionNames = map[string]Direction{
	"":     Omni,
	"omni": Omni,
	"n":    North,
	"s":    South,
	"e":    East,
	"w":    West,
	"ne":   NorthEast,
	"nw":   NorthWest,
	"se":   SouthEast,
	"sw":   SouthWest,
}

// ParseDirection parses a compass abbreviation, case insensitive.
func ParseDirection(s string) (Direction, error) {
	d, ok := directionNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Omni, fmt.Errorf("unknown direction %q", s)
	}

	return d, nil
}

// String returns the compass abbreviation.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	case NorthEast:
		return "NE"
	case NorthWest:
		return "NW"
	case SouthEast:
		return "SE"
	case SouthWest:
		return "SW"
	default:
		return "omni"
	}
}

// allows reports whether a binder at b is on the permitted side of a.
func (d Direction) allows(b, a geom.Point) bool {
	north := b.Y <= a.Y
	south := b.Y >= a.Y
	west := b.X <= a.X
	east := b.X >= a.X

	switch d {
	case North:
		return north
	case South:
		return south
	case East:
		return east
	case West:
		return west
	case NorthEast:
		return north && east
	case NorthWest:
		return north && west
	case SouthEast:
		return south && east
	case SouthWest:
		return south && west
	default:
		return true
	}
}

// Binding copies payload bytes from the nearest binder into the bindee.
type Binding struct {
	Direction Direction
	Bindee    uint16
	Binder    uint16
	Range     int
	Src       int // offset in the binder payload
	Dst       int // offset in the bindee payload
	Len       int
}

// Fits reports whether the copy stays inside payloads of the given lengths.
func (b Binding) Fits(binderLen, bindeeLen int) bool {
	if b.Src < 0 || b.Dst < 0 || b.Len < 0 {
		return false
	}

	return b.Src+b.Len <= binderLen && b.Dst+b.Len <= bindeeLen
}

// Binder applies bindings grouped by bindee type.
type Binder struct {
	byType map[uint16][]Binding
}

// NewBinder indexes bindings by bindee type keeping their order.
func NewBinder(bindings []Binding) *Binder {
	b := &Binder{byType: make(map[uint16][]Binding)}
	for _, bd := range bindings {
		b.byType[bd.Bindee] = append(b.byType[bd.Bindee], bd)
	}

	return b
}

// Has reports whether type t has any bindings.
func (b *Binder) Has(t uint16) bool {
	return len(b.byType[t]) > 0
}

// BindAll binds every record of the stage that has bindings.
func (b *Binder) BindAll(records []*object.Record) error {
	for _, r := range records {
		if !b.Has(r.Type) {
			continue
		}
		if err := b.Bind(r, records); err != nil {
			return err
		}
	}

	return nil
}

// Bind resolves the bindings of obj against records. The globally nearest
// candidate across all rules wins; on ties the first one seen is kept.
func (b *Binder) Bind(obj *object.Record, records []*object.Record) error {
	rules := b.byType[obj.Type]
	if len(rules) == 0 {
		return nil
	}

	var (
		best     *object.Record
		bestRule Binding
		bestDist = math.Inf(1)
	)

	for _, rule := range rules {
		for _, c := range records {
			if c == obj || c.Type != rule.Binder {
				continue
			}
			if !rule.Direction.allows(c.Pos, obj.Pos) {
				continue
			}

			d := math.Hypot(float64(c.Pos.X-obj.Pos.X), float64(c.Pos.Y-obj.Pos.Y))
			if d >= float64(rule.Range) || d >= bestDist {
				continue
			}

			best, bestRule, bestDist = c, rule, d
		}
	}

	if best == nil {
		return &BindingError{Bindee: obj.Type, Binder: rules[0].Binder, Pos: obj.Pos}
	}

	if !bestRule.Fits(len(best.Data), len(obj.Data)) {
		return fmt.Errorf("bind %s to %s: copy [%d:%d] -> [%d:%d] out of payload bounds",
			obj.TypeKey(), best.TypeKey(), bestRule.Src, bestRule.Src+bestRule.Len, bestRule.Dst, bestRule.Dst+bestRule.Len)
	}

	copy(obj.Data[bestRule.Dst:bestRule.Dst+bestRule.Len], best.Data[bestRule.Src:bestRule.Src+bestRule.Len])

	return nil
}
