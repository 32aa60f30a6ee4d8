package validate

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Headers compares a dataset's raw header row against its layout and
// returns the number of warnings found: declared fields absent from the
// source, and source columns the layout does not cover. Headerless
// sources always validate clean.
func Headers(ctx context.Context, cfg *config.Config, ds *layout.Dataset) (int, error) {
	if !ds.Header || ds.Type == layout.TypeFixed {
		return 0, nil
	}
	actual, err := headerRow(ctx, cfg, ds)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(actual))
	for _, name := range actual {
		seen[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	declared := make(map[string]bool, len(ds.Fields))
	warnings := 0
	for _, name := range ds.FieldNames() {
		upper := strings.ToUpper(strings.TrimSpace(name))
		declared[upper] = true
		if !seen[upper] {
			warnings++
			log.Error.Printf("%s: layout field %q not present in source header", ds.Name, name)
		}
	}
	for _, name := range actual {
		if !declared[strings.ToUpper(strings.TrimSpace(name))] {
			warnings++
			log.Error.Printf("%s: source column %q not covered by layout", ds.Name, name)
		}
	}
	return warnings, nil
}

func headerRow(ctx context.Context, cfg *config.Config, ds *layout.Dataset) ([]string, error) {
	src := cfg.SourcePath(ds.Source)
	r, closer, err := reader.Open(ctx, src, ds.Encoding)
	if err != nil {
		return nil, err
	}
	defer closer() // nolint: errcheck
	if ds.Type == layout.TypeXLSX {
		wb, err := excelize.OpenReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "open workbook %s", src)
		}
		defer wb.Close() // nolint: errcheck
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Errorf("%s: workbook has no worksheets", src)
		}
		rows, err := wb.GetRows(sheets[0])
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errors.Errorf("%s: worksheet is empty", src)
		}
		return rows[0], nil
	}
	cr := csv.NewReader(r)
	cr.Comma = ds.DelimiterRune()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	record, err := cr.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", src)
	}
	return record, nil
}
