package process

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/csv"
	"math/rand"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/extract"
	"github.com/grailbio/sirad/layout"
	"github.com/pkg/errors"
)

type piiRow struct {
	recordID int
	values   []string
}

// newPipeWriter returns a csv.Writer configured for the output dialect:
// pipe-delimited, LF-terminated, minimal double-quoting.
func newPipeWriter(w *csv.Writer) *csv.Writer {
	w.Comma = '|'
	w.UseCRLF = false
	return w
}

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		log.Panicf("crypto seed: %v", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

// Dataset processes one dataset: it streams data rows to disk with
// monotonic record ids, buffers pii rows, and, after the stream ends,
// writes the pii file in a uniformly shuffled order together with the
// link file that maps record ids to pii ids. rnd may be nil, in which
// case a cryptographically seeded source is drawn.
func Dataset(ctx context.Context, cfg *config.Config, ds *layout.Dataset, rnd *rand.Rand) (nrows int, err error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(cryptoSeed()))
	}
	ex := &extract.Extractor{DataSalt: cfg.DataSalt, PiiSalt: cfg.PiiSalt, DateFormat: cfg.DateFormat}
	sp, err := NewSplitter(ctx, cfg, ds, ex)
	if err != nil {
		return 0, err
	}
	defer sp.Close() // nolint: errcheck

	dataPath, err := cfg.Path(ds.Name, cfg.DataDir)
	if err != nil {
		return 0, err
	}
	out, err := file.Create(ctx, dataPath)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", dataPath)
	}
	w := newPipeWriter(csv.NewWriter(out.Writer(ctx)))
	if err := w.Write(ds.DataHeader()); err != nil {
		_ = out.Close(ctx)
		return 0, err
	}

	var (
		data, pii []string
		prows     []piiRow
		record    []string
		recordID  int
	)
	for sp.Scan(&data, &pii) {
		recordID++
		record = append(record[:0], strconv.Itoa(recordID))
		record = append(record, data...)
		if err := w.Write(record); err != nil {
			_ = out.Close(ctx)
			return 0, err
		}
		if ds.HasPII {
			values := make([]string, len(pii))
			copy(values, pii)
			prows = append(prows, piiRow{recordID, values})
		}
	}
	if err := sp.Err(); err != nil {
		_ = out.Close(ctx)
		return 0, errors.Wrapf(err, "read %s", ds.Source)
	}
	if dropped := sp.Dropped(); dropped > 0 {
		log.Printf("%s: dropped %d misshapen rows", ds.Name, dropped)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close(ctx)
		return 0, err
	}
	if err := out.Close(ctx); err != nil {
		return 0, err
	}
	if err := sp.Close(); err != nil {
		return 0, err
	}
	if !ds.HasPII {
		return recordID, nil
	}

	// Shuffle the pii rows so their file order is independent of record
	// order; the link file is the only bridge back.
	rnd.Shuffle(len(prows), func(i, j int) {
		prows[i], prows[j] = prows[j], prows[i]
	})
	piiPath, err := cfg.Path(ds.Name, cfg.PiiDir)
	if err != nil {
		return 0, err
	}
	linkPath, err := cfg.Path(ds.Name, cfg.LinkDir)
	if err != nil {
		return 0, err
	}
	piiOut, err := file.Create(ctx, piiPath)
	if err != nil {
		return 0, errors.Wrapf(err, "create %s", piiPath)
	}
	linkOut, err := file.Create(ctx, linkPath)
	if err != nil {
		_ = piiOut.Close(ctx)
		return 0, errors.Wrapf(err, "create %s", linkPath)
	}
	pw := newPipeWriter(csv.NewWriter(piiOut.Writer(ctx)))
	lw := newPipeWriter(csv.NewWriter(linkOut.Writer(ctx)))
	err = func() error {
		if err := pw.Write(ds.PiiHeader()); err != nil {
			return err
		}
		if err := lw.Write(ds.LinkHeader()); err != nil {
			return err
		}
		var prow []string
		for i, row := range prows {
			piiID := strconv.Itoa(i + 1)
			if err := lw.Write([]string{strconv.Itoa(row.recordID), piiID}); err != nil {
				return err
			}
			prow = append(prow[:0], piiID)
			prow = append(prow, row.values...)
			if err := pw.Write(prow); err != nil {
				return err
			}
		}
		pw.Flush()
		if err := pw.Error(); err != nil {
			return err
		}
		lw.Flush()
		return lw.Error()
	}()
	if err != nil {
		_ = piiOut.Close(ctx)
		_ = linkOut.Close(ctx)
		return 0, err
	}
	if err := piiOut.Close(ctx); err != nil {
		return 0, err
	}
	if err := linkOut.Close(ctx); err != nil {
		return 0, err
	}
	return recordID, nil
}
