package reader

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CSV reads delimited text. When the source declares a header, the raw
// first row names the columns and each subsequent row is re-projected into
// the order of the layout's field list; rows too short to cover every
// projected column are dropped and counted. Without a header, rows are
// emitted as-is.
type CSV struct {
	r       *csv.Reader
	proj    []int // layout order -> source column index; nil without header
	err     error
	dropped int
}

// NewCSV returns a CSV reader over r. header is the layout's ordered field
// name list, or nil when the source carries no header row. Column name
// matching is case-insensitive and ignores surrounding whitespace.
func NewCSV(r io.Reader, header []string, delimiter rune) (*CSV, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	c := &CSV{r: cr}
	if header != nil {
		raw, err := cr.Read()
		if err != nil {
			return nil, errors.Wrap(err, "read header")
		}
		index := make(map[string]int, len(raw))
		for i, name := range raw {
			index[strings.ToUpper(strings.TrimSpace(name))] = i
		}
		c.proj = make([]int, len(header))
		for i, name := range header {
			j, ok := index[strings.ToUpper(strings.TrimSpace(name))]
			if !ok {
				return nil, errors.Errorf("column %q not present in source header", name)
			}
			c.proj[i] = j
		}
	}
	return c, nil
}

// Scan reads the next row into row, returning false at EOF or on error.
func (c *CSV) Scan(row *Row) bool {
	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			c.err = err
			return false
		}
		if c.proj == nil {
			*row = (*row)[:0]
			for _, cell := range rec {
				*row = append(*row, Cell{Text: Clean(cell)})
			}
			return true
		}
		short := false
		for _, j := range c.proj {
			if j >= len(rec) {
				short = true
				break
			}
		}
		if short {
			c.dropped++
			continue
		}
		*row = (*row)[:0]
		for _, j := range c.proj {
			*row = append(*row, Cell{Text: Clean(rec[j])})
		}
		return true
	}
}

// Err returns the first error encountered while scanning.
func (c *CSV) Err() error { return c.err }

// Dropped reports rows skipped because they were too short to project.
func (c *CSV) Dropped() int { return c.dropped }
