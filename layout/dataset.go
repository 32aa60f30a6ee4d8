// Package layout models the declarative layout documents that describe
// each dataset: where its raw source lives, how to read it, and how every
// field splits into the data and pii output channels.
package layout

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Source types accepted by layouts.
const (
	TypeCSV   = "csv"
	TypeFixed = "fixed"
	TypeXLSX  = "xlsx"
)

// Col is one output column: a name and a storage type.
type Col struct {
	Name string
	Type string
}

// Dataset is the parsed layout for one dataset, together with the derived
// output column lists for the data, pii, and link channels.
type Dataset struct {
	Name      string
	Source    string // relative to the raw directory
	Type      string
	Delimiter string
	Header    bool
	Encoding  string
	Fields    []*Field

	HasPII   bool
	DataCols []Col
	PiiCols  []Col
	LinkCols []Col
}

type rawLayout struct {
	Source    string        `yaml:"source"`
	Type      string        `yaml:"type"`
	Delimiter string        `yaml:"delimiter"`
	Header    *bool         `yaml:"header"`
	Encoding  string        `yaml:"encoding"`
	Fields    []interface{} `yaml:"fields"`
}

// Parse builds a Dataset from one YAML layout document.
func Parse(name string, doc []byte) (*Dataset, error) {
	var raw rawLayout
	if err := yaml.UnmarshalStrict(doc, &raw); err != nil {
		return nil, errors.Wrapf(err, "layout for %q", name)
	}
	if raw.Source == "" {
		return nil, errors.Errorf("no 'source' specified in layout for %q", name)
	}
	if len(raw.Fields) == 0 {
		return nil, errors.Errorf("no 'fields' specified in layout for %q", name)
	}
	ds := &Dataset{
		Name:      name,
		Source:    raw.Source,
		Type:      TypeCSV,
		Delimiter: ",",
		Header:    true,
		Encoding:  "utf-8",
	}
	if raw.Type != "" {
		ds.Type = raw.Type
	}
	switch ds.Type {
	case TypeCSV, TypeFixed, TypeXLSX:
	default:
		return nil, errors.Errorf("unknown type %q in layout for %q", ds.Type, name)
	}
	if raw.Delimiter != "" {
		ds.Delimiter = raw.Delimiter
	}
	if raw.Header != nil {
		ds.Header = *raw.Header
	}
	if raw.Encoding != "" {
		ds.Encoding = raw.Encoding
	}
	for _, entry := range raw.Fields {
		f, err := parseFieldEntry(entry, name)
		if err != nil {
			return nil, err
		}
		ds.Fields = append(ds.Fields, f)
	}
	ds.derive()
	return ds, nil
}

// parseFieldEntry accepts either a bare name (a varchar data field) or a
// single-entry mapping from name to an options map.
func parseFieldEntry(entry interface{}, dataset string) (*Field, error) {
	switch e := entry.(type) {
	case string:
		return newField(e, nil, dataset)
	case map[interface{}]interface{}:
		if len(e) != 1 {
			return nil, errors.Errorf("field entry in %q must have exactly one name, got %d", dataset, len(e))
		}
		for k, v := range e {
			name, ok := k.(string)
			if !ok {
				return nil, errors.Errorf("field name in %q must be a string, got %T", dataset, k)
			}
			options := map[string]interface{}{}
			if v != nil {
				opts, ok := v.(map[interface{}]interface{})
				if !ok {
					return nil, errors.Errorf("options for field %q/%q must be a mapping, got %T", dataset, name, v)
				}
				for optKey, optVal := range opts {
					key, isStr := optKey.(string)
					if !isStr {
						return nil, errors.Errorf("option key for field %q/%q must be a string, got %T", dataset, name, optKey)
					}
					options[key] = optVal
				}
			}
			return newField(name, options, dataset)
		}
	}
	return nil, errors.Errorf("field entry in %q must be a name or a single-entry mapping, got %T", dataset, entry)
}

func (d *Dataset) derive() {
	d.DataCols = []Col{{"record_id", TypeInt}}
	d.PiiCols = []Col{{"pii_id", TypeInt}}
	d.LinkCols = []Col{{"record_id", TypeInt}, {"pii_id", TypeInt}}
	for _, f := range d.Fields {
		if f.Data {
			d.DataCols = append(d.DataCols, Col{f.Name, f.Type})
		}
		if f.Pii != "" {
			d.HasPII = true
			d.PiiCols = append(d.PiiCols, Col{f.Pii, f.Type})
		}
	}
	for _, f := range d.Fields {
		if f.SSN && f.Data {
			d.DataCols = append(d.DataCols, Col{f.Name + "_invalid", TypeInt})
		}
	}
	for _, f := range d.Fields {
		if f.SSN && f.Pii != "" {
			d.PiiCols = append(d.PiiCols, Col{f.Pii + "_invalid", TypeInt})
		}
	}
}

// FieldNames returns the declared field names in order; with a header
// source this is also the expected column-name list.
func (d *Dataset) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

func colNames(cols []Col) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// DataHeader returns the data channel's output header.
func (d *Dataset) DataHeader() []string { return colNames(d.DataCols) }

// PiiHeader returns the pii channel's output header.
func (d *Dataset) PiiHeader() []string { return colNames(d.PiiCols) }

// LinkHeader returns the link channel's output header.
func (d *Dataset) LinkHeader() []string { return colNames(d.LinkCols) }

// Widths returns the declared field widths for fixed-width sources.
func (d *Dataset) Widths() []int {
	widths := make([]int, 0, len(d.Fields))
	for _, f := range d.Fields {
		widths = append(widths, f.Width)
	}
	return widths
}

// DelimiterRune returns the first rune of the declared delimiter.
func (d *Dataset) DelimiterRune() rune {
	for _, r := range d.Delimiter {
		return r
	}
	return ','
}

// ParseFile parses the layout file at path; the dataset name is the file
// name without its extension.
func ParseFile(path string) (*Dataset, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, doc)
}

// ParseDir parses every .yaml/.yml layout under dir, in sorted path order.
func ParseDir(dir string) ([]*Dataset, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan layouts in %s", dir)
	}
	sort.Strings(paths)
	datasets := make([]*Dataset, 0, len(paths))
	for _, path := range paths {
		ds, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}
