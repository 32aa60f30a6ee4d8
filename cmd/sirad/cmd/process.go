package cmd

import (
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/sirad/process"
	"v.io/x/lib/cmdline"
)

func newCmdProcess() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "process",
		Short: "Split every dataset into data, pii, and link files",
		Long: `
Process runs the split-and-anonymize phase for all datasets, in parallel
up to -n workers. Datasets already recorded in the process log are
skipped; a failing dataset is reported and does not stop the run.
`,
	}
	parallelism := cmd.Flags.Int("n", 1, "Number of datasets to process in parallel.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, datasets, err := setup()
		if err != nil {
			return err
		}
		return process.Run(cfg, datasets, *parallelism)
	})
	return cmd
}
