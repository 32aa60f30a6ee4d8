// Package stage loads processed data, pii, and link files into three
// SQLite databases for downstream querying. Each channel gets its own
// database with one table per dataset.
package stage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/config"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // database/sql driver
)

// Stage loads every processed dataset into the staged databases. The
// data channel is always staged; pii and link only for datasets that
// carry pii.
func Stage(ctx context.Context, cfg *config.Config, datasets []*layout.Dataset) error {
	dir := filepath.Join(cfg.StagedDir, fmt.Sprintf("%s_V%d", cfg.Project, cfg.Version))
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	channels := []struct {
		name string
		dir  string
		cols func(*layout.Dataset) []layout.Col
		pii  bool
	}{
		{"data", cfg.DataDir, func(ds *layout.Dataset) []layout.Col { return ds.DataCols }, false},
		{"pii", cfg.PiiDir, func(ds *layout.Dataset) []layout.Col { return ds.PiiCols }, true},
		{"link", cfg.LinkDir, func(ds *layout.Dataset) []layout.Col { return ds.LinkCols }, true},
	}
	for _, ch := range channels {
		db, err := sql.Open("sqlite", filepath.Join(dir, ch.name+".db"))
		if err != nil {
			return errors.Wrapf(err, "open %s.db", ch.name)
		}
		for _, ds := range datasets {
			if ch.pii && !ds.HasPII {
				continue
			}
			path, err := cfg.Path(ds.Name, ch.dir)
			if err != nil {
				_ = db.Close()
				return err
			}
			log.Printf("staging %s into %s.db", ds.Name, ch.name)
			if err := load(ctx, db, ds.Name, ch.cols(ds), path); err != nil {
				_ = db.Close()
				return errors.Wrapf(err, "stage %s into %s.db", ds.Name, ch.name)
			}
		}
		if err := db.Close(); err != nil {
			return err
		}
	}
	return nil
}

func sqlType(t string) string {
	switch t {
	case layout.TypeInt:
		return "INTEGER"
	default: // dates are stored in their canonical text form
		return "TEXT"
	}
}

// load recreates the table for one processed file and bulk-inserts its
// rows inside a single transaction. The first column is the primary key
// and an import_dt timestamp is appended to every row.
func load(ctx context.Context, db *sql.DB, table string, cols []layout.Col, path string) error {
	var defs []string
	for i, c := range cols {
		def := fmt.Sprintf("%q %s", c.Name, sqlType(c.Type))
		if i == 0 {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	defs = append(defs, `"import_dt" TEXT`)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))); err != nil {
		return err
	}

	r, closer, err := reader.Open(ctx, path, "")
	if err != nil {
		return err
	}
	defer closer() // nolint: errcheck
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = len(cols)
	header, err := cr.Read()
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	for i, c := range cols {
		if header[i] != c.Name {
			return errors.Errorf("%s: header column %d is %q, expected %q", path, i, header[i], c.Name)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	importDt := time.Now().UTC().Format(time.RFC3339)
	args := make([]interface{}, len(cols)+1)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "read %s", path)
		}
		for i, c := range cols {
			args[i], err = convert(record[i], c.Type)
			if err != nil {
				_ = tx.Rollback()
				return errors.Wrapf(err, "%s column %s", path, c.Name)
			}
		}
		args[len(cols)] = importDt
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// convert maps the serialized empty string to NULL and int columns to
// integers.
func convert(value, typ string) (interface{}, error) {
	if value == "" {
		return nil, nil
	}
	if typ == layout.TypeInt {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return value, nil
}
