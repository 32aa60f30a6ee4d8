// Package process runs the split-and-anonymize phase: it drives each
// dataset through its reader and extractor, separates every row into data
// and pii channels, and emits the data, pii, and link files.
package process

import (
	"context"

	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/extract"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/grailbio/sirad/validate"
	"github.com/pkg/errors"
)

type ssnCell struct {
	digits string
	field  *layout.Field
}

// Splitter streams one dataset's raw rows as (data row, pii row) pairs.
// It owns the source reader and must be closed once scanning completes.
type Splitter struct {
	ds    *layout.Dataset
	ex    *extract.Extractor
	r     reader.Reader
	close func() error
	row   reader.Row
	ssns  []ssnCell
	err   error
}

// NewSplitter opens the dataset's source and builds the reader its layout
// calls for.
func NewSplitter(ctx context.Context, cfg *config.Config, ds *layout.Dataset, ex *extract.Extractor) (*Splitter, error) {
	src := cfg.SourcePath(ds.Source)
	r, closer, err := reader.Open(ctx, src, ds.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", ds.Name)
	}
	var header []string
	if ds.Header {
		header = ds.FieldNames()
	}
	var rows reader.Reader
	switch ds.Type {
	case layout.TypeCSV:
		rows, err = reader.NewCSV(r, header, ds.DelimiterRune())
	case layout.TypeFixed:
		rows = reader.NewFixed(r, ds.Widths())
	case layout.TypeXLSX:
		rows, err = reader.NewXLSX(r, header)
	default:
		err = errors.Errorf("unknown dataset type %q", ds.Type)
	}
	if err != nil {
		_ = closer()
		return nil, errors.Wrapf(err, "dataset %s", ds.Name)
	}
	return &Splitter{ds: ds, ex: ex, r: rows, close: closer}, nil
}

// Scan splits the next raw row into data and pii, reusing the provided
// slices. SSN fields are digit-normalized before extraction and their
// validity verdicts appended to each participating channel in field
// declaration order.
func (s *Splitter) Scan(data, pii *[]string) bool {
	if s.err != nil {
		return false
	}
	if !s.r.Scan(&s.row) {
		s.err = s.r.Err()
		return false
	}
	*data = (*data)[:0]
	*pii = (*pii)[:0]
	s.ssns = s.ssns[:0]
	n := len(s.row)
	if len(s.ds.Fields) < n {
		n = len(s.ds.Fields)
	}
	for i := 0; i < n; i++ {
		f := s.ds.Fields[i]
		cell := s.row[i]
		if f.SSN {
			cell.Text = validate.Digits(cell.Text)
			s.ssns = append(s.ssns, ssnCell{cell.Text, f})
		}
		if v, ok := s.ex.Data(cell, f); ok {
			*data = append(*data, v)
		}
		if v, ok := s.ex.Pii(cell, f); ok {
			*pii = append(*pii, v)
		}
	}
	for _, sc := range s.ssns {
		verdict := validate.SSN(sc.digits)
		if sc.field.Data {
			*data = append(*data, verdict)
		}
		if sc.field.Pii != "" {
			*pii = append(*pii, verdict)
		}
	}
	return true
}

// Err returns the first error encountered while scanning.
func (s *Splitter) Err() error { return s.err }

// Dropped reports rows the reader skipped for shape mismatches.
func (s *Splitter) Dropped() int {
	if d, ok := s.r.(reader.Dropper); ok {
		return d.Dropped()
	}
	return 0
}

// Close releases the underlying source.
func (s *Splitter) Close() error {
	if s.close == nil {
		return nil
	}
	c := s.close
	s.close = nil
	return c()
}
