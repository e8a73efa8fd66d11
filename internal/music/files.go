// Package music finds custom sound driver tracks and encodes their names
// for the options menu.
package music

import (
	"os"
	"path/filepath"
	"strings"
)

// Ext is the file extension of custom tracks.
const Ext = ".smps"

// MaxTrackSize is the exclusive upper bound of a track file size.
const MaxTrackSize = 0x400000

// Track is a custom track loaded from disk.
type Track struct {
	Name string // file name without extension
	Path string
	Data []byte
}

// ParseFile returns the track name of path and whether it looks like a track.
func ParseFile(path string) (string, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if !strings.EqualFold(ext, Ext) {
		return "", false
	}

	name := strings.TrimSuffix(base, ext)
	if name == "" {
		return "", false
	}

	return name, true
}

// LoadTracks reads the tracks in dir sorted by file name. Subdirectories,
// foreign extensions, empty, oversized and unreadable files are skipped.
func LoadTracks(dir string) ([]Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []Track
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name, ok := ParseFile(e.Name())
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil || info.Size() == 0 || info.Size() >= MaxTrackSize {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		out = append(out, Track{Name: name, Path: path, Data: data})
	}

	return out, nil
}
