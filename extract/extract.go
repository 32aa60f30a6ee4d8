// Package extract normalizes raw cell values into the data and pii
// channels: null tokens become empty strings, hashed fields become salted
// SHA-1 digests, and dates are reduced to one canonical format.
package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
)

// nullValues are the tokens treated as semantic null on read.
var nullValues = map[string]bool{
	"":       true,
	"NULL":   true,
	"null":   true,
	"NA":     true,
	"na":     true,
	"N/A":    true,
	"#N/A":   true,
	"NaN":    true,
	"nan":    true,
	".":      true,
	"#NULL!": true,
}

// IsNull reports whether a raw token is in the null set.
func IsNull(s string) bool { return nullValues[s] }

// Extractor turns raw cells into channel values. Salts are nil when
// unconfigured, in which case hashed fields digest the raw bytes alone.
type Extractor struct {
	DataSalt   *string
	PiiSalt    *string
	DateFormat string // Go reference layout for all emitted dates
}

// Data extracts the data-channel value for f, reporting false when f does
// not participate in the data channel.
func (e *Extractor) Data(cell reader.Cell, f *layout.Field) (string, bool) {
	if !f.Data {
		return "", false
	}
	return e.value(cell, f, e.DataSalt), true
}

// Pii extracts the pii-channel value for f, reporting false when f does
// not participate in the pii channel.
func (e *Extractor) Pii(cell reader.Cell, f *layout.Field) (string, bool) {
	if f.Pii == "" {
		return "", false
	}
	return e.value(cell, f, e.PiiSalt), true
}

func (e *Extractor) value(cell reader.Cell, f *layout.Field, salt *string) string {
	if !cell.HasTime && IsNull(cell.Text) {
		return ""
	}
	if f.Hash {
		text := cell.Text
		if cell.HasTime {
			text = cell.Time.Format(e.DateFormat)
		}
		return SaltedHash(text, salt)
	}
	if f.Type == layout.TypeDate {
		if cell.HasTime {
			return cell.Time.Format(e.DateFormat)
		}
		return e.date(cell.Text, f.Formats)
	}
	return cell.Text
}

// date parses raw against each alternate layout in order, returning the
// first success in the canonical format and an empty string on total
// failure.
func (e *Extractor) date(raw string, formats []string) string {
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.Format(e.DateFormat)
		}
	}
	log.Debug.Printf("unable to parse %q as a date", raw)
	return ""
}

// SaltedHash returns the lowercase hex SHA-1 of value concatenated with
// the salt, or of the value alone when the salt is unset.
func SaltedHash(value string, salt *string) string {
	h := sha1.New()
	h.Write([]byte(value)) // nolint: errcheck
	if salt != nil {
		h.Write([]byte(*salt)) // nolint: errcheck
	}
	return hex.EncodeToString(h.Sum(nil))
}
