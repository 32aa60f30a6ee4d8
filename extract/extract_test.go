package extract

import (
	"testing"
	"time"

	"github.com/grailbio/sirad/layout"
	"github.com/grailbio/sirad/reader"
	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func newExtractor() *Extractor {
	return &Extractor{
		DataSalt:   strp("testcode"),
		PiiSalt:    strp("pepper"),
		DateFormat: "2006-01-02",
	}
}

func TestSaltedHash(t *testing.T) {
	// SHA1("Smith" ++ "testcode")
	assert.Equal(t, "358e4c20c5ee759c6af937cfd9a5cb7b96dcf94a", SaltedHash("Smith", strp("testcode")))
	// Changing the salt changes the digest.
	assert.Equal(t, "0f9b4a339c2d9cf442a01ac64d1ca62af4f71afb", SaltedHash("Smith", strp("othersalt")))
	// An absent salt hashes the raw bytes alone.
	assert.Equal(t, "96bcf8c98f94b6ace4a4b716cf0e3b32743a08b1", SaltedHash("Smith", nil))
}

func TestHashField(t *testing.T) {
	ex := newExtractor()
	f := &layout.Field{Name: "last", Data: true, Type: layout.TypeVarchar, Hash: true}
	got, ok := ex.Data(reader.Cell{Text: "Smith"}, f)
	assert.True(t, ok)
	assert.Equal(t, "358e4c20c5ee759c6af937cfd9a5cb7b96dcf94a", got)

	p := &layout.Field{Name: "last", Pii: "last_name", Type: layout.TypeVarchar, Hash: true}
	got, ok = ex.Pii(reader.Cell{Text: "1970-03-02"}, p)
	assert.True(t, ok)
	// SHA1("1970-03-02" ++ "pepper")
	assert.Equal(t, "d4a817623dee79793bf10ae9cb24b67bbc6ac79f", got)
}

func TestDateFormats(t *testing.T) {
	ex := newExtractor()
	f := &layout.Field{
		Name: "dob", Data: true, Type: layout.TypeDate,
		Formats: []string{"01/02/2006", "20060102"},
	}
	tests := []struct {
		in   string
		want string
	}{
		{"03/02/1970", "1970-03-02"},
		{"19700302", "1970-03-02"},
		{"not-a-date", ""},
		{"13/45/1970", ""},
	}
	for _, test := range tests {
		got, ok := ex.Data(reader.Cell{Text: test.in}, f)
		assert.True(t, ok)
		assert.Equal(t, test.want, got, "date %q", test.in)
	}

	// A native date value passes through re-formatted without parsing.
	got, _ := ex.Data(reader.Cell{Time: time.Date(1970, 3, 2, 0, 0, 0, 0, time.UTC), HasTime: true}, f)
	assert.Equal(t, "1970-03-02", got)
}

func TestNullSet(t *testing.T) {
	ex := newExtractor()
	f := &layout.Field{Name: "job", Data: true, Type: layout.TypeVarchar}
	for _, null := range []string{"", "NULL", "null", "NA", "na", "N/A", "#N/A", "NaN", "nan", ".", "#NULL!"} {
		got, ok := ex.Data(reader.Cell{Text: null}, f)
		assert.True(t, ok)
		assert.Equal(t, "", got, "null token %q", null)
	}
	got, _ := ex.Data(reader.Cell{Text: "cook"}, f)
	assert.Equal(t, "cook", got)
}

func TestChannelExclusivity(t *testing.T) {
	ex := newExtractor()
	pii := &layout.Field{Name: "last", Pii: "last_name", Type: layout.TypeVarchar}
	data := &layout.Field{Name: "job", Data: true, Type: layout.TypeVarchar}
	skip := &layout.Field{Name: "record", Skip: true, Type: layout.TypeVarchar}

	_, ok := ex.Data(reader.Cell{Text: "Smith"}, pii)
	assert.False(t, ok)
	_, ok = ex.Pii(reader.Cell{Text: "cook"}, data)
	assert.False(t, ok)
	_, ok = ex.Data(reader.Cell{Text: "1"}, skip)
	assert.False(t, ok)
	_, ok = ex.Pii(reader.Cell{Text: "1"}, skip)
	assert.False(t, ok)
}
