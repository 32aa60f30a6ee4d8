package cmd

import (
	"sync/atomic"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/validate"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"
)

func newCmdValidate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "validate",
		Short: "Check each dataset's source header against its layout",
	}
	parallelism := cmd.Flags.Int("n", 1, "Number of datasets to validate in parallel.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, datasets, err := setup()
		if err != nil {
			return err
		}
		workers := *parallelism
		if workers < 1 {
			workers = 1
		}
		var warnings int64
		err = traverse.Limit(workers).Each(len(datasets), func(i int) error {
			n, err := validate.Headers(vcontext.Background(), cfg, datasets[i])
			if err != nil {
				return err
			}
			atomic.AddInt64(&warnings, int64(n))
			return nil
		})
		if err != nil {
			return err
		}
		if warnings > 0 {
			return errors.Errorf("%d validation warnings", warnings)
		}
		return nil
	})
	return cmd
}
