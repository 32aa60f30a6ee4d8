package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoundex(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Robert", "R163"},
		{"Rupert", "R163"},
		{"Jane", "J500"},
		{"Janet", "J530"},
		{"Smith", "S530"},
		{"Smyth", "S530"},
		{"Ashcraft", "A261"}, // h does not separate s and c
		{"Ashcroft", "A261"},
		{"Honeyman", "H555"}, // vowels separate the nasals
		{"Tymczak", "T522"},
		{"Pfister", "P236"}, // adjacent same-code letters collapse with the first
		{"Washington", "W252"},
		{"Lee", "L000"},
		{"Wu", "W000"},
		{"o'neil", "O540"}, // punctuation ignored, case-insensitive
		{"O Neil", "O540"},
		{"", ""},
		{"123", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Soundex(test.name), "Soundex(%q)", test.name)
	}
}
