// Package rom describes the cartridge image layout and encodes the object
// tables, checksum and patch locations inside it.
package rom

import (
	"errors"
	"fmt"
	"os"

	"github.com/invopop/yaml"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/ranges"
)

// ErrImageMismatch is returned when an image does not match the layout.
var ErrImageMismatch = errors.New("image does not match layout")

// recordHeaderLen is type, addr, x and y, two bytes each.
const recordHeaderLen = 8

// Layout locates everything the randomizer reads or patches in an image.
type Layout struct {
	Stages     []StageLayout `json:"stages"`               // object tables per stage
	FreeSpace  []Span        `json:"free_space,omitempty"` // bytes safe to overwrite
	Music      MusicLayout   `json:"music"`                // sound test tables
	LevelOrder HookLayout    `json:"level_order"`          // round order hooks
	Camera     Size          `json:"camera"`               // viewport size in pixels
	Checksum   Checksum      `json:"checksum"`             // header checksum
	Length     int           `json:"length"`               // exact image length
	PayloadLen int           `json:"payload_len"`          // bytes after the record header
	Title      int           `json:"title"`                // title screen text block
}

// StageLayout holds the table locations of one stage.
type StageLayout struct {
	Initial Table `json:"initial"` // objects present at stage start
	Region  Table `json:"region"`  // objects spawned by camera region
	Index   int   `json:"index"`
	Camera  int   `json:"camera"` // offset of the initial camera x,y words
}

// Table is a counted object table: a u16 record count and Capacity slots.
type Table struct {
	Offset   int `json:"offset"`
	Capacity int `json:"capacity"`
}

// Span is a half-open byte range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Size is a width and height.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Checksum locates the header checksum and the first summed byte.
type Checksum struct {
	Offset int `json:"offset"`
	Start  int `json:"start"`
}

// MusicLayout locates the track pointer table and the options menu names.
type MusicLayout struct {
	Table   int `json:"table"`
	Names   int `json:"names"`
	Count   int `json:"count"`
	NameLen int `json:"name_len"`
}

// HookLayout locates the code patched to follow a custom round order.
type HookLayout struct {
	Entry int `json:"entry"`
	Init  int `json:"init"`
}

// Defaults matching the retail image.
const (
	DefaultCameraW        = 320
	DefaultCameraH        = 224
	DefaultChecksumOffset = 0x18E
	DefaultChecksumStart  = 0x200
	DefaultPayloadLen     = 6
	DefaultMusicTable     = 0x600A4
	DefaultMusicNames     = 0x6936
	DefaultMusicCount     = 5
	DefaultMusicNameLen   = 0x13
	DefaultLevelEntry     = 0x511C
	DefaultLevelInit      = 0x6432
	DefaultTitle          = 0x34846
)

// Sizes of the patched code and text blocks.
const (
	EntryHookLen = 0x14
	InitHookLen  = 6
	TitleLen     = 0x1CE
)

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	l, err := ParseLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return l, nil
}

// ParseLayout decodes a YAML or JSON layout, fills defaults and validates it.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}

	l.applyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}

	return &l, nil
}

func (l *Layout) applyDefaults() {
	if l.Camera.W == 0 && l.Camera.H == 0 {
		l.Camera = Size{W: DefaultCameraW, H: DefaultCameraH}
	}
	if l.Checksum == (Checksum{}) {
		l.Checksum = Checksum{Offset: DefaultChecksumOffset, Start: DefaultChecksumStart}
	}
	if l.PayloadLen == 0 {
		l.PayloadLen = DefaultPayloadLen
	}
	if l.Music == (MusicLayout{}) {
		l.Music = MusicLayout{
			Table:   DefaultMusicTable,
			Names:   DefaultMusicNames,
			Count:   DefaultMusicCount,
			NameLen: DefaultMusicNameLen,
		}
	}
	if l.LevelOrder == (HookLayout{}) {
		l.LevelOrder = HookLayout{Entry: DefaultLevelEntry, Init: DefaultLevelInit}
	}
	if l.Title == 0 {
		l.Title = DefaultTitle
	}
}

// Validate checks that every location fits inside the image.
func (l *Layout) Validate() error {
	if l.Length <= 0 {
		return errors.New("layout: length must be positive")
	}
	if l.PayloadLen <= 0 {
		return errors.New("layout: payload_len must be positive")
	}

	inside := func(what string, off, n int) error {
		if off < 0 || n < 0 || off+n > l.Length {
			return fmt.Errorf("layout: %s [%#x, %#x) outside of image", what, off, off+n)
		}
		return nil
	}

	if err := inside("checksum", l.Checksum.Offset, 2); err != nil {
		return err
	}
	if l.Checksum.Start < 0 || l.Checksum.Start > l.Length {
		return fmt.Errorf("layout: checksum start %#x outside of image", l.Checksum.Start)
	}

	seen := make(map[int]struct{}, len(l.Stages))
	for _, s := range l.Stages {
		if _, dup := seen[s.Index]; dup {
			return fmt.Errorf("layout: stage %d listed twice", s.Index)
		}
		seen[s.Index] = struct{}{}

		if err := inside(fmt.Sprintf("stage %d camera", s.Index), s.Camera, 4); err != nil {
			return err
		}
		for name, t := range map[string]Table{"initial": s.Initial, "region": s.Region} {
			if t.Capacity < 0 {
				return fmt.Errorf("layout: stage %d %s table: negative capacity", s.Index, name)
			}
			if err := inside(fmt.Sprintf("stage %d %s table", s.Index, name), t.Offset, l.tableLen(t)); err != nil {
				return err
			}
		}
	}

	if err := inside("music table", l.Music.Table, 4*l.Music.Count); err != nil {
		return err
	}
	if err := inside("music names", l.Music.Names, l.Music.Count*l.Music.NameLen); err != nil {
		return err
	}
	if err := inside("level order entry hook", l.LevelOrder.Entry, EntryHookLen); err != nil {
		return err
	}
	if err := inside("level order init hook", l.LevelOrder.Init, InitHookLen); err != nil {
		return err
	}
	if err := inside("title text", l.Title, TitleLen); err != nil {
		return err
	}

	for _, sp := range l.FreeSpace {
		if sp.End < sp.Start {
			return fmt.Errorf("layout: free space [%#x, %#x) is reversed", sp.Start, sp.End)
		}
		if err := inside("free space", sp.Start, sp.End-sp.Start); err != nil {
			return err
		}
	}

	return nil
}

// Check verifies that img has the expected length.
func (l *Layout) Check(img []byte) error {
	if len(img) != l.Length {
		return fmt.Errorf("%w: length %#x, expected %#x", ErrImageMismatch, len(img), l.Length)
	}

	return nil
}

// Stage returns the layout of a stage index.
func (l *Layout) Stage(index int) (StageLayout, bool) {
	for _, s := range l.Stages {
		if s.Index == index {
			return s, true
		}
	}

	return StageLayout{}, false
}

// RecordLen is the encoded size of one record.
func (l *Layout) RecordLen() int { return recordHeaderLen + l.PayloadLen }

func (l *Layout) tableLen(t Table) int { return 2 + t.Capacity*l.RecordLen() }

// FreeSet returns the free space as an interval set.
func (l *Layout) FreeSet() ranges.Set {
	ivs := make([]ranges.Interval, 0, len(l.FreeSpace))
	for _, sp := range l.FreeSpace {
		ivs = append(ivs, ranges.Interval{Start: sp.Start, End: sp.End})
	}

	return ranges.NewSet(ivs...)
}

// CameraRect returns the initial camera viewport at pos.
func (l *Layout) CameraRect(pos geom.Point) geom.Rect {
	return geom.Rect{X: pos.X, Y: pos.Y, W: l.Camera.W, H: l.Camera.H}
}
