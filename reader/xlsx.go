package reader

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// XLSX reads the first worksheet of a workbook as a table. Date-formatted
// cells retain their native value as a typed Cell; everything else is read
// as sanitized text. Workbooks are loaded wholesale, so Scan never fails
// after construction.
type XLSX struct {
	rows []Row
	next int
}

// builtin number formats 14-22 and 45-47 render dates or times.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// NewXLSX reads the workbook from r. header is the layout's ordered field
// name list: when non-nil, the first worksheet row names the columns and
// data rows are re-projected into layout order, with missing trailing
// cells becoming empty strings.
func NewXLSX(r io.Reader, header []string) (*XLSX, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close() // nolint: errcheck
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	sheet := sheets[0]
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read worksheet %s", sheet)
	}
	cellAt := func(ri, ci int, text string) (Cell, error) {
		axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
		if err != nil {
			return Cell{}, err
		}
		if t, ok, err := dateValue(f, sheet, axis); err != nil {
			return Cell{}, err
		} else if ok {
			return Cell{Time: t, HasTime: true}, nil
		}
		return Cell{Text: Clean(text)}, nil
	}
	x := &XLSX{}
	if header == nil {
		for ri, rrow := range raw {
			row := make(Row, 0, len(rrow))
			for ci, text := range rrow {
				cell, err := cellAt(ri, ci, text)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			}
			x.rows = append(x.rows, row)
		}
		return x, nil
	}
	if len(raw) == 0 {
		return nil, errors.New("worksheet is empty but a header was declared")
	}
	index := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	proj := make([]int, len(header))
	for i, name := range header {
		j, ok := index[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, errors.Errorf("column %q not present in worksheet header", name)
		}
		proj[i] = j
	}
	for ri, rrow := range raw[1:] {
		row := make(Row, 0, len(proj))
		for _, j := range proj {
			if j >= len(rrow) {
				row = append(row, Cell{})
				continue
			}
			cell, err := cellAt(ri+1, j, rrow[j])
			if err != nil {
				return nil, err
			}
			row = append(row, cell)
		}
		x.rows = append(x.rows, row)
	}
	return x, nil
}

// Scan returns the next worksheet row.
func (x *XLSX) Scan(row *Row) bool {
	if x.next >= len(x.rows) {
		return false
	}
	*row = append((*row)[:0], x.rows[x.next]...)
	x.next++
	return true
}

// Err is always nil: the workbook is fully decoded at construction.
func (x *XLSX) Err() error { return nil }

// dateValue reports whether the cell at axis is date-formatted and, if so,
// converts its raw serial value to a time.
func dateValue(f *excelize.File, sheet, axis string) (time.Time, bool, error) {
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return time.Time{}, false, err
	}
	dated := typ == excelize.CellTypeDate
	if !dated && (typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset) {
		styleID, err := f.GetCellStyle(sheet, axis)
		if err != nil {
			return time.Time{}, false, err
		}
		style, err := f.GetStyle(styleID)
		if err != nil {
			return time.Time{}, false, err
		}
		dated = style != nil && isDateNumFmt(style.NumFmt)
	}
	if !dated {
		return time.Time{}, false, nil
	}
	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false, err
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		// ISO8601 date cells carry text, not a serial.
		if t, terr := time.Parse("2006-01-02T15:04:05", strings.TrimSpace(raw)); terr == nil {
			return t, true, nil
		}
		if t, terr := time.Parse("2006-01-02", strings.TrimSpace(raw)); terr == nil {
			return t, true, nil
		}
		return time.Time{}, false, nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
