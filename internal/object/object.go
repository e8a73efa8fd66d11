// Package object defines the movable object records shared by the image
// codec, the placement engine and the attribute binder.
package object

import (
	"fmt"

	"github.com/woozymasta/mw-randomizer/internal/geom"
)

// Container tells which storage table(s) of the image hold a record.
type Container uint8

const (
	// Initial records are loaded with the stage (initial table only).
	Initial Container = iota
	// Region records are streamed in by camera region (region table only).
	Region
	// All records live in both tables.
	All
)

// String returns the container name.
func (c Container) String() string {
	switch c {
	case Initial:
		return "initial"
	case Region:
		return "region"
	case All:
		return "all"
	default:
		return fmt.Sprintf("container(%d)", uint8(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Container) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Record is one object of a stage.
type Record struct {
	Data      []byte     `json:"data"`      // fixed-length payload
	Pos       geom.Point `json:"pos"`       // absolute position
	Type      uint16     `json:"type"`      // object type tag
	Addr      uint16     `json:"addr"`      // runtime allocation slot
	Container Container  `json:"container"` // storage classification
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	out.Data = append([]byte(nil), r.Data...)

	return &out
}

// TypeKey formats the type tag the way settings keys spell it (e.g. "0x4C").
func (r *Record) TypeKey() string {
	return TypeKey(r.Type)
}

// TypeKey formats a type tag as upper-case hex with a 0x prefix.
func TypeKey(t uint16) string {
	return fmt.Sprintf("0x%X", t)
}

// U16 reads a big-endian word from the payload; out of range reads zero.
func (r *Record) U16(off int) uint16 {
	if off < 0 || off+2 > len(r.Data) {
		return 0
	}

	return uint16(r.Data[off])<<8 | uint16(r.Data[off+1])
}

// PutU16 writes a big-endian word into the payload; out of range is ignored.
func (r *Record) PutU16(off int, v uint16) {
	if off < 0 || off+2 > len(r.Data) {
		return
	}

	r.Data[off] = byte(v >> 8)
	r.Data[off+1] = byte(v)
}

// String formats r for logs.
func (r *Record) String() string {
	return fmt.Sprintf("%s@(%d,%d)", r.TypeKey(), r.Pos.X, r.Pos.Y)
}
