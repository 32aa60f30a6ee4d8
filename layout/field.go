package layout

import (
	"strings"

	"github.com/pkg/errors"
)

// Field types accepted by layouts.
const (
	TypeVarchar = "varchar"
	TypeInt     = "int"
	TypeDate    = "date"
)

// Field describes one column of a raw source and how it splits into the
// data and pii channels.
type Field struct {
	Name string
	// Data marks the field for the data channel; Pii, when non-empty, is
	// the output column name on the pii channel. Skip fields emit nothing.
	Data bool
	Pii  string
	Skip bool

	Type   string
	Hash   bool
	SSN    bool
	Width  int
	Format string // pipe-separated strptime alternates

	// Formats holds Format compiled to Go reference layouts, one per
	// alternate, in declaration order.
	Formats []string
}

const defaultDateFormat = "%Y%m%d"

func newField(name string, options map[string]interface{}, dataset string) (*Field, error) {
	f := &Field{
		Name:   name,
		Type:   TypeVarchar,
		Format: defaultDateFormat,
	}
	for k, v := range options {
		var err error
		switch k {
		case "data":
			f.Data, err = boolOption(v)
		case "format":
			f.Format, err = stringOption(v)
		case "hash":
			f.Hash, err = boolOption(v)
		case "pii":
			f.Pii, err = stringOption(v)
		case "ssn":
			f.SSN, err = boolOption(v)
		case "type":
			f.Type, err = stringOption(v)
		case "skip":
			f.Skip, err = boolOption(v)
		case "width", "offsets":
			f.Width, err = intOption(v)
		default:
			return nil, errors.Errorf("unknown %q option in field %q/%q", k, dataset, name)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "field %q/%q option %q", dataset, name, k)
		}
	}
	// Default to data unless the field is pii or skipped.
	if !f.Skip && f.Pii == "" {
		f.Data = true
	}
	switch f.Type {
	case TypeVarchar, TypeInt, TypeDate:
	default:
		return nil, errors.Errorf("unknown type %q in field %q/%q", f.Type, dataset, name)
	}
	if f.SSN && f.Type != TypeVarchar {
		return nil, errors.Errorf("ssn field %q/%q must have type varchar", dataset, name)
	}
	if f.Hash && f.Type == TypeInt {
		return nil, errors.Errorf("hash is not meaningful for int field %q/%q", dataset, name)
	}
	if f.Data && f.Pii == f.Name {
		return nil, errors.Errorf("field %q/%q is both data and pii under the same name", dataset, name)
	}
	for _, alt := range strings.Split(f.Format, "|") {
		layout, err := compileTimeFormat(alt)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q/%q", dataset, name)
		}
		f.Formats = append(f.Formats, layout)
	}
	return f, nil
}

func stringOption(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func boolOption(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func intOption(v interface{}) (int, error) {
	i, ok := v.(int)
	if !ok {
		return 0, errors.Errorf("expected int, got %T", v)
	}
	return i, nil
}

// strptime directives recognized in layout date formats.
var timeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'b': "Jan",
	'B': "January",
	'p': "PM",
	'%': "%",
}

// compileTimeFormat translates a strptime-style template into a Go
// reference layout.
func compileTimeFormat(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", errors.Errorf("trailing %% in date format %q", format)
		}
		repl, ok := timeDirectives[format[i]]
		if !ok {
			return "", errors.Errorf("unsupported directive %%%c in date format %q", format[i], format)
		}
		b.WriteString(repl)
	}
	return b.String(), nil
}
