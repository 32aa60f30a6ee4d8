// Package cmd implements the sirad command line: split raw administrative
// records into data/pii/link channels and assemble the anonymized
// research release.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"v.io/x/lib/cmdline"
)

var (
	configFlag = flag.String("config", "", "Path to the configuration file. Defaults to ./"+config.DefaultFile+" when present.")
	quietFlag  = flag.Bool("q", false, "Suppress all logging messages except for errors.")
	debugFlag  = flag.Bool("d", false, "Show all logging messages, including debugging output.")
)

// outputter writes to stderr, filtered to the level chosen by -q/-d.
type outputter struct {
	level log.Level
}

func (o outputter) Level() log.Level { return o.level }

func (o outputter) Output(calldepth int, level log.Level, s string) error {
	_, err := fmt.Fprintln(os.Stderr, s)
	return err
}

func setupLogging() {
	level := log.Info
	switch {
	case *debugFlag:
		level = log.Debug
	case *quietFlag:
		level = log.Error
	}
	log.SetOutputter(outputter{level})
}

// setup loads the configuration and parses every layout document.
func setup() (*config.Config, []*layout.Dataset, error) {
	setupLogging()
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return nil, nil, err
	}
	datasets, err := layout.ParseDir(cfg.LayoutsDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, datasets, nil
}

// Run assembles and executes the sirad command tree.
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "sirad",
		Short: "Split administrative records into anonymized research releases",
		Long: `
sirad splits raw administrative datasets into de-identified data files,
identifying pii files, and the link files that bridge them, then pools
pii across datasets to attach a stable anonymous identifier to every
research file.
`,
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdSources(),
			newCmdValidate(),
			newCmdProcess(),
			newCmdResearch(),
			newCmdStage(),
		},
	})
}
