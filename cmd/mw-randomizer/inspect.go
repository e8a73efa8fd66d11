package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/woozymasta/mw-randomizer/internal/report"
	"github.com/woozymasta/mw-randomizer/internal/rom"
)

type inspectCmd struct {
	Args struct {
		Input  string `positional-arg-name:"IN" required:"true" description:"Image, or a report written by randomize"`
		Output string `positional-arg-name:"OUT" description:"Output file (default: stdout)"`
	} `positional-args:"true"`

	commonOpts

	Format string `short:"f" long:"format" choice:"yaml" choice:"json" default:"yaml" description:"Output format"`
	Stage  []int  `long:"stage" description:"Only dump this stage index, repeatable"`
}

// stageDump is the inspect view of one stage.
type stageDump struct {
	Objects []objectDump `json:"objects"`
	Camera  [2]int       `json:"camera"`
	Index   int          `json:"index"`
}

// objectDump is the inspect view of one record.
type objectDump struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	Container string `json:"container"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Addr      uint16 `json:"addr"`
}

// Execute dumps the object tables of an image or the entries of a report.
func (c *inspectCmd) Execute(_ []string) error {
	if _, err := c.setup(); err != nil {
		return err
	}

	var v any
	if isReport(c.Args.Input) {
		entries, err := report.ReadFile(c.Args.Input)
		if err != nil {
			return err
		}
		v = entries
	} else {
		dump, err := c.dumpImage()
		if err != nil {
			return err
		}
		v = dump
	}

	out, err := encodeOutput(v, strings.ToLower(c.Format))
	if err != nil {
		return err
	}

	if c.Args.Output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}

	return os.WriteFile(c.Args.Output, out, 0o600)
}

func (c *inspectCmd) dumpImage() ([]stageDump, error) {
	_, l, err := c.load(false)
	if err != nil {
		return nil, err
	}

	img, err := os.ReadFile(c.Args.Input)
	if err != nil {
		return nil, err
	}
	if err := l.Check(img); err != nil {
		return nil, err
	}

	codec := rom.NewTableCodec(l)
	stages, err := codec.LoadObjects(img)
	if err != nil {
		return nil, err
	}

	var out []stageDump
	for _, sl := range l.Stages {
		if len(c.Stage) > 0 && !slices.Contains(c.Stage, sl.Index) {
			continue
		}

		cam, err := codec.CameraPosition(img, sl.Index)
		if err != nil {
			return nil, fmt.Errorf("stage %#x: %w", sl.Index, err)
		}

		sd := stageDump{Index: sl.Index, Camera: [2]int{cam.X, cam.Y}}
		for _, r := range stages[sl.Index] {
			sd.Objects = append(sd.Objects, objectDump{
				Type:      r.TypeKey(),
				Addr:      r.Addr,
				X:         r.Pos.X,
				Y:         r.Pos.Y,
				Container: r.Container.String(),
				Data:      fmt.Sprintf("% X", r.Data),
			})
		}
		out = append(out, sd)
	}

	return out, nil
}
