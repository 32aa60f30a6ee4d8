// Package reader provides uniform row iterators over delimited text,
// fixed-width text, and XLSX workbook sources. Every textual cell passes
// through the Clean translation; workbook cells that carry a native date
// keep it as a typed value for the extractor.
package reader

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Cell is one value read from a source. Text holds the sanitized string
// form; workbook date cells set Time and HasTime instead.
type Cell struct {
	Text    string
	Time    time.Time
	HasTime bool
}

// Row is an ordered list of cells aligned to the dataset's field list.
type Row []Cell

// Reader iterates over the rows of one source. The Scan/Err protocol
// follows bufio.Scanner: Scan returns false at the end of the stream or on
// the first error, and Err reports the error, if any.
type Reader interface {
	Scan(row *Row) bool
	Err() error
}

// Dropper is implemented by readers that silently skip malformed rows.
type Dropper interface {
	// Dropped reports how many rows were skipped so far.
	Dropped() int
}

// Open opens a raw source for reading, decompressing a trailing ".gz" and
// decoding the named character set to UTF-8. The returned closer must be
// called once reading completes.
func Open(ctx context.Context, path, encoding string) (io.Reader, func() error, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var (
		r  io.Reader = f.Reader(ctx)
		gz *gzip.Reader
	)
	if strings.HasSuffix(path, ".gz") {
		if gz, err = gzip.NewReader(r); err != nil {
			_ = f.Close(ctx)
			return nil, nil, errors.Wrapf(err, "open %s", path)
		}
		r = gz
	}
	if enc := strings.ToLower(strings.TrimSpace(encoding)); enc != "" && enc != "utf-8" && enc != "utf8" {
		e, err := htmlindex.Get(enc)
		if err != nil {
			_ = f.Close(ctx)
			return nil, nil, errors.Wrapf(err, "unknown encoding %q for %s", encoding, path)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}
	closer := func() error {
		if gz != nil {
			_ = gz.Close()
		}
		return f.Close(ctx)
	}
	return r, closer, nil
}
