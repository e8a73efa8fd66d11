// Package report writes the spoiler log of a run as JSON lines, optionally
// zstd compressed.
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/randomizer"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// Ext marks a compressed report.
const Ext = ".zst"

// Entry kinds.
const (
	KindRun        = "run"
	KindStage      = "stage"
	KindPlacement  = "placement"
	KindDiagnostic = "diagnostic"
	KindAllocation = "allocation"
)

// Entry is one line of the report.
type Entry struct {
	Run        *Run                   `json:"run,omitempty"`
	Placement  *placement.Placement   `json:"placement,omitempty"`
	Diagnostic *placement.Diagnostic  `json:"diagnostic,omitempty"`
	Allocation *randomizer.Allocation `json:"allocation,omitempty"`
	Kind       string                 `json:"kind"`
	Stage      string                 `json:"stage,omitempty"`
	Procedures []string               `json:"procedures,omitempty"`
}

// Run is the header entry.
type Run struct {
	Seed        string                 `json:"seed"`
	Fingerprint string                 `json:"fingerprint"`
	Input       string                 `json:"input,omitempty"`
	Output      string                 `json:"output,omitempty"`
	Version     string                 `json:"version,omitempty"`
	LevelOrder  []int                  `json:"level_order,omitempty"`
	Music       []randomizer.MusicSlot `json:"music,omitempty"`
}

// Writer writes entries as JSON lines.
type Writer struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens path for writing, compressing when it ends with Ext.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer{f: f}
	var out io.Writer = f
	if strings.HasSuffix(path, Ext) {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		w.enc = enc
		out = enc
	}
	w.w = bufio.NewWriterSize(out, 64*1024)

	return w, nil
}

// Write appends one entry.
func (w *Writer) Write(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}

	return w.w.WriteByte('\n')
}

// Close flushes and closes the report.
func (w *Writer) Close() error {
	var errs []error
	if w.w != nil {
		errs = append(errs, w.w.Flush())
		w.w = nil
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
		w.f = nil
	}

	return errors.Join(errs...)
}

// Entries flattens a result into report lines: the run header, then every
// stage followed by its placements, then diagnostics and allocations.
func Entries(res *randomizer.Result, run Run) []Entry {
	run.Seed = seed.Format(res.Seed)
	run.Fingerprint = fmt.Sprintf("%016x", res.Fingerprint)
	run.LevelOrder = res.LevelOrder
	run.Music = res.Music

	out := []Entry{{Kind: KindRun, Run: &run}}
	for _, st := range res.Stages {
		out = append(out, Entry{Kind: KindStage, Stage: st.Name, Procedures: st.Procedures})
		for i := range st.Placements {
			out = append(out, Entry{Kind: KindPlacement, Stage: st.Name, Placement: &st.Placements[i]})
		}
	}
	for i := range res.Diagnostics {
		d := &res.Diagnostics[i]
		out = append(out, Entry{Kind: KindDiagnostic, Stage: d.Stage, Diagnostic: d})
	}
	for i := range res.Allocations {
		out = append(out, Entry{Kind: KindAllocation, Allocation: &res.Allocations[i]})
	}

	return out
}

// WriteFile writes the report of res to path.
func WriteFile(path string, res *randomizer.Result, run Run) (err error) {
	w, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	for _, e := range Entries(res, run) {
		if err := w.Write(e); err != nil {
			return err
		}
	}

	return nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var in io.Reader = f
	if strings.HasSuffix(path, Ext) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		in = dec
	}

	var out []Entry
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
