// Command mw-randomizer shuffles object placement, round order and music of
// a Moonwalker cartridge image.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/woozymasta/mw-randomizer/internal/logger"
	"github.com/woozymasta/mw-randomizer/internal/vars"
)

type rootCmd struct {
	Version   versionCmd   `command:"version" description:"Show version information"`
	Randomize randomizeCmd `command:"randomize" description:"Randomize an image"`
	Validate  validateCmd  `command:"validate" description:"Check rules and layout, optionally against an image"`
	Inspect   inspectCmd   `command:"inspect" description:"Dump object tables of an image or read a report"`
}

func main() {
	var root rootCmd
	parser := flags.NewParser(&root, flags.Default)
	_, err := parser.Parse()
	logger.Close()
	if err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

type versionCmd struct{}

// Execute prints the version information.
func (c *versionCmd) Execute(_ []string) error {
	vars.Print()
	return nil
}
