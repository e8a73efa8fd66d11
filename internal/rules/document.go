package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Document is the on-disk rules file.
type Document struct {
	CollisionChecks map[string][]string `json:"collision_checks,omitempty"` // hitbox -> partner hitboxes
	Bindings        []BindingDoc        `json:"bindings,omitempty"`         // attribute bindings
	Hitboxes        []HitboxDoc         `json:"hitboxes,omitempty"`         // collision footprints
	Stages          []StageDoc          `json:"stages"`                     // stages in processing order
}

// BindingDoc declares one attribute binding.
type BindingDoc struct {
	Direction string `json:"direction,omitempty"` // N, S, E, W, NE, NW, SE, SW or omni
	Bindee    Num    `json:"bindee"`              // type receiving bytes
	Binder    Num    `json:"binder"`              // type providing bytes
	Range     int    `json:"range"`               // exclusive search radius
	Src       int    `json:"src"`                 // offset in binder payload
	Dst       int    `json:"dst"`                 // offset in bindee payload
	Len       int    `json:"len"`                 // bytes to copy
}

// HitboxDoc declares a collision footprint.
type HitboxDoc struct {
	Match  *PredicateDoc `json:"match,omitempty"` // optional payload filter
	Name   string        `json:"name"`
	Shapes []ShapeDoc    `json:"shapes"`
	Type   Num           `json:"type"`
}

// ShapeDoc is either a rectangle [x, y, w, h] or a point [x, y].
type ShapeDoc struct {
	Rect  []int `json:"rect,omitempty"`
	Point []int `json:"point,omitempty"`
}

// PredicateDoc is one node of a payload predicate tree. Exactly one field is set.
type PredicateDoc struct {
	Equals *EqualsDoc     `json:"equals,omitempty"`
	Const  *bool          `json:"const,omitempty"`
	All    []PredicateDoc `json:"all,omitempty"`
	Any    []PredicateDoc `json:"any,omitempty"`
	Xor    []PredicateDoc `json:"xor,omitempty"`
	Not    Operands       `json:"not,omitempty"`
}

// EqualsDoc compares one payload byte.
type EqualsDoc struct {
	Index int `json:"index"`
	Value Num `json:"value"`
}

// Operands accepts either a single predicate node or a list of them.
type Operands []PredicateDoc

// UnmarshalJSON implements json.Unmarshaler.
func (o *Operands) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var one PredicateDoc
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*o = Operands{one}
		return nil
	}

	var many []PredicateDoc
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*o = many

	return nil
}

// StageDoc declares the rules of one stage.
type StageDoc struct {
	Regions    map[string][]ShapeDoc `json:"regions,omitempty"`    // named spawn regions
	Name       string                `json:"name"`                 // stage name used in settings keys
	Objects    []ObjectDoc           `json:"objects,omitempty"`    // movable object types
	Procedures []ProcedureDoc        `json:"procedures,omitempty"` // post-placement procedures
	Index      int                   `json:"index"`                // stage index in the image
}

// ObjectDoc maps an object type to its spawn target.
type ObjectDoc struct {
	TargetDoc
	Default *TargetDoc `json:"default,omitempty"`
	Cases   []CaseDoc  `json:"cases,omitempty"`
	Type    Num        `json:"type"`
}

// TargetDoc points at a named region with a pixel offset.
type TargetDoc struct {
	Offset *OffsetDoc `json:"offset,omitempty"`
	Region string     `json:"region,omitempty"`
}

// OffsetDoc is a pixel offset.
type OffsetDoc struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CaseDoc selects a target when its predicate matches.
type CaseDoc struct {
	TargetDoc
	When PredicateDoc `json:"when"`
	Keep bool         `json:"keep,omitempty"` // leave the object where it is
}

// ProcedureDoc enables a stage procedure.
type ProcedureDoc struct {
	TargetDoc
	Name  string `json:"name"`
	Types []Num  `json:"types,omitempty"`
}

// Num is an integer that may be written as a number or a string holding a
// decimal or 0x-prefixed hex value.
type Num int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseNum(s)
		if err != nil {
			return err
		}
		*n = Num(v)
		return nil
	}

	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Num(v)

	return nil
}

// MarshalJSON writes the value as a hex string.
func (n Num) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%X", int64(n)))
}

// ParseNum parses a number written as text: 0x-prefixed hex or decimal,
// so a quoted "10" means the same as a bare 10.
func ParseNum(s string) (int64, error) {
	s = strings.TrimSpace(s)

	base := 10
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = h, 16
	}

	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}

	return v, nil
}
