package cmd

import (
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/sirad/research"
	"v.io/x/lib/cmdline"
)

func newCmdResearch() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "research",
		Short: "Resolve the SIRAD ID and emit the research release",
		Long: `
Research pools pii across every processed dataset, assigns the SIRAD ID
as a randomized dense rank over identity keys, and attaches it to each
dataset's data file.
`,
	}
	seed := cmd.Flags.Int64("seed", 0, "Random seed for a reproducible SIRAD ID. 0 draws a seed from a cryptographic source.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, datasets, err := setup()
		if err != nil {
			return err
		}
		return research.Run(cfg, datasets, *seed)
	})
	return cmd
}
