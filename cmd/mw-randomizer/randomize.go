package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/woozymasta/mw-randomizer/internal/logger"
	"github.com/woozymasta/mw-randomizer/internal/music"
	"github.com/woozymasta/mw-randomizer/internal/placement"
	"github.com/woozymasta/mw-randomizer/internal/randomizer"
	"github.com/woozymasta/mw-randomizer/internal/report"
	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
	"github.com/woozymasta/mw-randomizer/internal/seed"
	"github.com/woozymasta/mw-randomizer/internal/vars"
)

type randomizeCmd struct {
	Args struct {
		Input  string `positional-arg-name:"IN" required:"true" description:"Input image"`
		Output string `positional-arg-name:"OUT" description:"Output image (default: IN with the seed appended)"`
	} `positional-args:"true"`

	commonOpts

	Seed           string   `short:"s" long:"seed" description:"Seed: a number or any text (default: random)"`
	Settings       string   `long:"settings" description:"YAML file of feature toggles"`
	Set            []string `long:"set" value-name:"KEY=BOOL" description:"Override one toggle, repeatable"`
	MusicDir       string   `long:"music-dir" description:"Directory of custom tracks (env MWR_MUSIC_DIR)"`
	Report         string   `long:"report" description:"Write a JSON lines report, zstd compressed for .zst"`
	RetryLimit     int      `long:"retry-limit" description:"Placement attempts per object (env MWR_RETRY_LIMIT)"`
	MergeThreshold int      `long:"merge-threshold" description:"Duplicate table entry distance (env MWR_MERGE_THRESHOLD)"`
}

// Execute randomizes the input image and writes the result.
func (c *randomizeCmd) Execute(_ []string) error {
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	c.resolveRun(cfg)

	r, l, err := c.load(true)
	if err != nil {
		return err
	}

	settings, err := c.settings()
	if err != nil {
		return err
	}

	var tracks []music.Track
	if c.MusicDir != "" {
		if tracks, err = music.LoadTracks(c.MusicDir); err != nil {
			return fmt.Errorf("music dir: %w", err)
		}
		logger.Debug("custom tracks loaded", "dir", c.MusicDir, "count", len(tracks))
	}

	img, err := os.ReadFile(c.Args.Input)
	if err != nil {
		return err
	}
	if ok, kind := rom.SniffBytes(img); !ok {
		logger.Warn("input does not look like a cartridge image", "path", c.Args.Input, "kind", kind)
	}

	seedVal, err := c.seed()
	if err != nil {
		return err
	}
	res, err := randomizer.Randomize(img, r, l, settings, seedVal, randomizer.Options{
		Tracks:         tracks,
		Engine:         placement.Config{RetryLimit: c.RetryLimit},
		MergeThreshold: c.MergeThreshold,
	})
	if err != nil {
		return err
	}

	out := c.Args.Output
	if out == "" {
		out = defaultOutput(c.Args.Input, seedVal)
	}
	if err := os.WriteFile(out, img, 0o600); err != nil {
		return err
	}

	if c.Report != "" {
		run := report.Run{
			Seed:        seed.Format(seedVal),
			Fingerprint: fmt.Sprintf("%016x", res.Fingerprint),
			Input:       c.Args.Input,
			Output:      out,
			Version:     vars.String(),
			LevelOrder:  res.LevelOrder,
			Music:       res.Music,
		}
		if err := report.WriteFile(c.Report, res, run); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	printRunStats(res, out)

	return nil
}

// resolveRun fills the run knobs from the environment.
func (c *randomizeCmd) resolveRun(cfg envConfig) {
	if c.MusicDir == "" {
		c.MusicDir = cfg.MusicDir
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = cfg.RetryLimit
	}
	if c.MergeThreshold <= 0 {
		c.MergeThreshold = cfg.MergeThreshold
	}
}

// settings reads the settings file and applies the --set overrides.
func (c *randomizeCmd) settings() (rules.Settings, error) {
	s := rules.Settings{}
	if c.Settings != "" {
		var err error
		if s, err = rules.LoadSettings(c.Settings); err != nil {
			return nil, err
		}
	}

	for _, kv := range c.Set {
		if err := s.Set(kv); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// seed returns the requested seed or a fresh random one.
func (c *randomizeCmd) seed() (uint64, error) {
	if c.Seed != "" {
		return seed.FromString(c.Seed), nil
	}

	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
