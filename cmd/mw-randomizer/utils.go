package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invopop/yaml"

	"github.com/woozymasta/mw-randomizer/internal/randomizer"
	"github.com/woozymasta/mw-randomizer/internal/report"
	"github.com/woozymasta/mw-randomizer/internal/seed"
)

// encodeOutput encodes v to the raw data.
func encodeOutput(v any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(v)
	case "json":
		return json.MarshalIndent(v, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// defaultOutput places the randomized image next to the input, tagged with
// the seed: game.bin becomes game.12345.bin.
func defaultOutput(in string, seedVal uint64) string {
	ext := filepath.Ext(in)
	base := strings.TrimSuffix(in, ext)

	return base + "." + seed.Format(seedVal) + ext
}

// isReport reports whether path names a report file.
func isReport(path string) bool {
	return strings.HasSuffix(path, ".jsonl") || strings.HasSuffix(path, ".jsonl"+report.Ext)
}

// printRunStats prints the run summary.
func printRunStats(res *randomizer.Result, outPath string) {
	var placed, exhausted int
	for _, st := range res.Stages {
		for _, p := range st.Placements {
			placed++
			if p.Exhausted {
				exhausted++
			}
		}
	}

	fmt.Printf("randomized %s\n", outPath)
	fmt.Printf("seed: %s\n", seed.Format(res.Seed))
	fmt.Printf("fingerprint: %016x\n", res.Fingerprint)
	fmt.Printf("stages: %d\n", len(res.Stages))
	fmt.Printf("objects placed: %d (%d kept after retries)\n", placed, exhausted)
	if len(res.LevelOrder) > 0 {
		fmt.Printf("level order: %v\n", res.LevelOrder)
	}
	if len(res.Music) > 0 {
		fmt.Printf("music slots: %d\n", len(res.Music))
	}
	for _, d := range res.Diagnostics {
		fmt.Printf("warning: %s\n", d)
	}
}
