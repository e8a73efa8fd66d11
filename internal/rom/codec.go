package rom

import (
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
)

// ErrTableOverflow is returned when a stage has more records than slots.
var ErrTableOverflow = errors.New("object table overflow")

// DefaultMergeThreshold is the distance under which table duplicates merge.
const DefaultMergeThreshold = 16

// TableCodec reads and writes the object tables described by a Layout.
type TableCodec struct {
	layout *Layout
}

// NewTableCodec creates a codec for the layout.
func NewTableCodec(l *Layout) *TableCodec {
	return &TableCodec{layout: l}
}

// Layout returns the layout the codec works on.
func (c *TableCodec) Layout() *Layout { return c.layout }

// LoadObjects decodes both tables of every stage, initial table first.
func (c *TableCodec) LoadObjects(img []byte) (map[int][]*object.Record, error) {
	if err := c.layout.Check(img); err != nil {
		return nil, err
	}

	out := make(map[int][]*object.Record, len(c.layout.Stages))
	for _, s := range c.layout.Stages {
		initial, err := c.readTable(img, s.Initial, object.Initial)
		if err != nil {
			return nil, fmt.Errorf("stage %d initial table: %w", s.Index, err)
		}
		region, err := c.readTable(img, s.Region, object.Region)
		if err != nil {
			return nil, fmt.Errorf("stage %d region table: %w", s.Index, err)
		}
		out[s.Index] = append(initial, region...)
	}

	return out, nil
}

// SaveObjects writes INITIAL and ALL records into the initial table and
// REGION and ALL records into the region table. Stages absent from the map
// are left untouched.
func (c *TableCodec) SaveObjects(img []byte, stages map[int][]*object.Record) error {
	if err := c.layout.Check(img); err != nil {
		return err
	}

	for _, s := range c.layout.Stages {
		recs, ok := stages[s.Index]
		if !ok {
			continue
		}

		var initial, region []*object.Record
		for _, r := range recs {
			switch r.Container {
			case object.Initial:
				initial = append(initial, r)
			case object.Region:
				region = append(region, r)
			default:
				initial = append(initial, r)
				region = append(region, r)
			}
		}

		if err := c.writeTable(img, s.Initial, initial); err != nil {
			return fmt.Errorf("stage %d initial table: %w", s.Index, err)
		}
		if err := c.writeTable(img, s.Region, region); err != nil {
			return fmt.Errorf("stage %d region table: %w", s.Index, err)
		}
	}

	return nil
}

// CameraPosition reads the initial camera position of a stage.
func (c *TableCodec) CameraPosition(img []byte, stage int) (geom.Point, error) {
	s, ok := c.layout.Stage(stage)
	if !ok {
		return geom.Point{}, fmt.Errorf("stage %d: not in layout", stage)
	}

	b, err := span(img, s.Camera, 4)
	if err != nil {
		return geom.Point{}, fmt.Errorf("stage %d camera: %w", stage, err)
	}

	return geom.Point{X: int(readU16(b)), Y: int(readU16(b[2:]))}, nil
}

// CameraSize returns the viewport size.
func (c *TableCodec) CameraSize() (w, h int) {
	return c.layout.Camera.W, c.layout.Camera.H
}

// FixChecksum recomputes the header checksum.
func (c *TableCodec) FixChecksum(img []byte) {
	FixChecksum(img, c.layout.Checksum)
}

func (c *TableCodec) readTable(img []byte, t Table, cont object.Container) ([]*object.Record, error) {
	hdr, err := span(img, t.Offset, 2)
	if err != nil {
		return nil, err
	}

	n := int(readU16(hdr))
	if n > t.Capacity {
		return nil, fmt.Errorf("count %d exceeds capacity %d", n, t.Capacity)
	}

	size := c.layout.RecordLen()
	out := make([]*object.Record, 0, n)
	for i := range n {
		b, err := span(img, t.Offset+2+i*size, size)
		if err != nil {
			return nil, err
		}

		out = append(out, &object.Record{
			Type:      readU16(b),
			Addr:      readU16(b[2:]),
			Pos:       geom.Point{X: int(readU16(b[4:])), Y: int(readU16(b[6:]))},
			Data:      append([]byte(nil), b[recordHeaderLen:]...),
			Container: cont,
		})
	}

	return out, nil
}

func (c *TableCodec) writeTable(img []byte, t Table, recs []*object.Record) error {
	if len(recs) > t.Capacity {
		return fmt.Errorf("%w: %d records, %d slots", ErrTableOverflow, len(recs), t.Capacity)
	}

	size := c.layout.RecordLen()
	area, err := span(img, t.Offset, c.layout.tableLen(t))
	if err != nil {
		return err
	}

	buf := make([]byte, len(area))
	writeU16(buf, uint16(len(recs)))

	for i, r := range recs {
		b := buf[2+i*size : 2+(i+1)*size]
		writeU16(b, r.Type)
		writeU16(b[2:], r.Addr)
		if err := writeU16FromInt(b[4:], r.Pos.X); err != nil {
			return fmt.Errorf("record %s x=%d: %w", r, r.Pos.X, err)
		}
		if err := writeU16FromInt(b[6:], r.Pos.Y); err != nil {
			return fmt.Errorf("record %s y=%d: %w", r, r.Pos.Y, err)
		}
		if len(r.Data) != c.layout.PayloadLen {
			return fmt.Errorf("record %s: payload %d bytes, expected %d", r, len(r.Data), c.layout.PayloadLen)
		}
		copy(b[recordHeaderLen:], r.Data)
	}

	copy(area, buf)

	return nil
}

// MergeMisalignments folds records that appear in both tables into one ALL
// record. A record merges into an earlier record of the opposite table with
// the same type and address lying closer than threshold; the earlier record
// keeps its position. ALL records are never merge targets.
func MergeMisalignments(recs []*object.Record, threshold int) []*object.Record {
	out := make([]*object.Record, 0, len(recs))

outer:
	for _, src := range recs {
		if src.Container == object.All {
			out = append(out, src)
			continue
		}

		want := object.Initial
		if src.Container == object.Initial {
			want = object.Region
		}

		for _, cmp := range out {
			if cmp.Container != want || cmp.Type != src.Type || cmp.Addr != src.Addr {
				continue
			}

			d := math.Hypot(float64(cmp.Pos.X-src.Pos.X), float64(cmp.Pos.Y-src.Pos.Y))
			if d < float64(threshold) {
				cmp.Container = object.All
				continue outer
			}
		}

		out = append(out, src)
	}

	return out
}

// MergeAll applies MergeMisalignments to every stage.
func MergeAll(stages map[int][]*object.Record, threshold int) {
	for idx, recs := range stages {
		stages[idx] = MergeMisalignments(recs, threshold)
	}
}
