package process

import (
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/pkg/errors"
)

// checkSalts refuses to hash without the corresponding salt configured.
func checkSalts(cfg *config.Config, datasets []*layout.Dataset) error {
	for _, ds := range datasets {
		for _, f := range ds.Fields {
			if !f.Hash {
				continue
			}
			if f.Data && cfg.DataSalt == nil {
				return errors.Errorf("dataset %q hashes field %q into the data channel but data_salt is not configured", ds.Name, f.Name)
			}
			if f.Pii != "" && cfg.PiiSalt == nil {
				return errors.Errorf("dataset %q hashes field %q into the pii channel but pii_salt is not configured", ds.Name, f.Name)
			}
		}
	}
	return nil
}

// Run executes the process phase over all datasets with at most workers
// in parallel. Datasets already recorded in the process log are skipped,
// and a failed dataset is reported and skipped without stopping the run.
func Run(cfg *config.Config, datasets []*layout.Dataset, workers int) error {
	if err := checkSalts(cfg, datasets); err != nil {
		return err
	}
	rlog := NewRunLog(cfg.ProcessLog)
	done, err := rlog.Completed()
	if err != nil {
		return errors.Wrapf(err, "read process log %s", cfg.ProcessLog)
	}
	var todo []*layout.Dataset
	for _, ds := range datasets {
		if done[ds.Name] {
			log.Printf("skipping %s: already in process log", ds.Name)
			continue
		}
		todo = append(todo, ds)
	}
	if workers < 1 {
		workers = 1
	}
	return traverse.Limit(workers).Each(len(todo), func(i int) error {
		ds := todo[i]
		ctx := vcontext.Background()
		start := time.Now()
		nrows, err := Dataset(ctx, cfg, ds, nil)
		if err != nil {
			log.Error.Printf("error processing dataset %q: %+v", ds.Name, err)
			return nil
		}
		elapsed := time.Since(start)
		if err := rlog.Append(ds.Name, nrows, elapsed); err != nil {
			return errors.Wrapf(err, "append process log for %s", ds.Name)
		}
		log.Printf("processed %s: %d rows in %.3fs", ds.Name, nrows, elapsed.Seconds())
		return nil
	})
}
