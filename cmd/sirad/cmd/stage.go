package cmd

import (
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/stage"
	"v.io/x/lib/cmdline"
)

func newCmdStage() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "stage",
		Short: "Load processed files into the staged SQLite databases",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, datasets, err := setup()
		if err != nil {
			return err
		}
		return stage.Stage(vcontext.Background(), cfg, datasets)
	})
	return cmd
}
