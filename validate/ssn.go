// Package validate classifies Social Security Numbers against SSA
// issuance rules and checks source headers against their layouts.
package validate

import "strings"

// SSN verdicts. The verdict column is named {field}_invalid, so 0 means
// the number passed every rule.
const (
	Valid   = "0"
	Invalid = "1"
)

// advertising SSNs excluded from issuance.
var ssnExclude = map[string]bool{
	"078051120": true,
	"219099999": true,
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// SSN classifies a raw Social Security Number, normalizing it to digits
// first. It returns Invalid when any of: the normalization is not 9
// digits; the area is 000, 666, or 900-999; the group is 00; the serial
// is 0000; or the number is a historical advertising exclusion.
func SSN(raw string) string {
	ssn := Digits(raw)
	if len(ssn) != 9 {
		return Invalid
	}
	area, group, serial := ssn[0:3], ssn[3:5], ssn[5:9]
	switch {
	case area == "000" || area == "666" || area[0] == '9':
		return Invalid
	case group == "00":
		return Invalid
	case serial == "0000":
		return Invalid
	case ssnExclude[ssn]:
		return Invalid
	}
	return Valid
}
