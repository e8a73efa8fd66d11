package main

import (
	"fmt"
	"os"

	"github.com/woozymasta/mw-randomizer/internal/rom"
	"github.com/woozymasta/mw-randomizer/internal/rules"
)

type validateCmd struct {
	Args struct {
		Image string `positional-arg-name:"IMAGE" description:"Image to check against the layout"`
	} `positional-args:"true"`

	commonOpts

	Schema bool `long:"schema" description:"Print the JSON schema of the rules file and exit"`
}

// Execute checks the rules and layout, and the image when given.
func (c *validateCmd) Execute(_ []string) error {
	if c.Schema {
		_, err := fmt.Println(rules.Schema())
		return err
	}

	if _, err := c.setup(); err != nil {
		return err
	}

	r, l, err := c.load(true)
	if err != nil {
		return err
	}

	for _, st := range r.Stages {
		if _, ok := l.Stage(st.Index); !ok {
			return fmt.Errorf("stage %s: index %#x has no tables in %s", st.Name, st.Index, c.Layout)
		}
	}
	fmt.Printf("rules ok: %d stages, %d bindings\n", len(r.Stages), len(r.Bindings))

	if c.Args.Image == "" {
		return nil
	}

	ok, kind, err := rom.Sniff(c.Args.Image)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: not a cartridge image (%s)", c.Args.Image, kind)
	}

	img, err := os.ReadFile(c.Args.Image)
	if err != nil {
		return err
	}
	if err := l.Check(img); err != nil {
		return fmt.Errorf("%s: %w", c.Args.Image, err)
	}

	stages, err := rom.NewTableCodec(l).LoadObjects(img)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Args.Image, err)
	}
	fmt.Printf("image ok: %s, %d stage tables\n", kind, len(stages))

	return nil
}
