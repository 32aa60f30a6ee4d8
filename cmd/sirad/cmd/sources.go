package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
)

func newCmdSources() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "sources",
		Short: "List the resolved raw source path of every dataset",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, datasets, err := setup()
		if err != nil {
			return err
		}
		for _, ds := range datasets {
			fmt.Fprintln(env.Stdout, cfg.SourcePath(ds.Source))
		}
		return nil
	})
	return cmd
}
