package reader

import (
	"bufio"
	"io"
)

type fixedField struct {
	start, end int
}

// Fixed reads fixed-width text. Consecutive field widths define half-open
// [start, end) slices of each line, measured in characters. The final
// field may be shorter than its declared width.
type Fixed struct {
	s      *bufio.Scanner
	fields []fixedField
	err    error
}

// NewFixed returns a Fixed reader over r with the given field widths.
func NewFixed(r io.Reader, widths []int) *Fixed {
	f := &Fixed{s: bufio.NewScanner(r)}
	f.s.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	start := 0
	for _, w := range widths {
		f.fields = append(f.fields, fixedField{start, start + w})
		start += w
	}
	return f
}

// Scan reads the next line into row, one cell per field.
func (f *Fixed) Scan(row *Row) bool {
	if f.err != nil {
		return false
	}
	if !f.s.Scan() {
		f.err = f.s.Err()
		return false
	}
	line := []rune(f.s.Text())
	*row = (*row)[:0]
	for _, fld := range f.fields {
		start, end := fld.start, fld.end
		if start > len(line) {
			start = len(line)
		}
		if end > len(line) {
			end = len(line)
		}
		*row = append(*row, Cell{Text: Clean(string(line[start:end]))})
	}
	return true
}

// Err returns the first error encountered while scanning.
func (f *Fixed) Err() error { return f.err }
