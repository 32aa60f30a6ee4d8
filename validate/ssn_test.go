package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSSNInvalid(t *testing.T) {
	for _, ssn := range []string{
		"000111111", // area 000
		"123001111", // group 00
		"666111111", // area 666
		"900111111", // area 9xx
		"111110000", // serial 0000
		"078051120", // advertising exclusion
		"219099999", // advertising exclusion
		"12345678",  // too short
		"1234567890",
		"",
		"abcdefghi",
	} {
		assert.Equal(t, Invalid, SSN(ssn), "SSN(%q)", ssn)
	}
}

func TestSSNValid(t *testing.T) {
	for _, ssn := range []string{"590111111", "710111111", "680111111"} {
		assert.Equal(t, Valid, SSN(ssn), "SSN(%q)", ssn)
	}
	// Normalization strips punctuation before classifying.
	assert.Equal(t, Valid, SSN("590-11-1111"))
	assert.Equal(t, Invalid, SSN("666-11-1111"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "123456789", Digits("123-45-6789"))
	assert.Equal(t, "", Digits("none"))
	assert.Equal(t, "19700302", Digits(" 1970/03/02 "))
}
