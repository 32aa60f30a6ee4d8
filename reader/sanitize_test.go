package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  padded\t ", "padded"},
		{"tab\tkept", "tab\tkept"},
		{"new\nline", "newline"},
		{"pipe|gone", "pipegone"},
		{"nul\x00byte", "nulbyte"},
		{"c1\u0085block", "c1block"},
		{"José", "Jose"},
		{"Muñoz", "Munoz"},
		{"Straße", "Strase"},
		{"Æon", "AEon"},
		{"90°", "90 degrees"},
		{"« quoted »", "<< quoted >>"},
		{"a·b", "a.b"},
		{"6÷2", "6/2"},
		{"3×4", "3x4"},
		{"¡Hola!", "!Hola!"},
		{"¿que?", "?que?"},
		{"© 2001", "Copyright 2001"},
		{"® mark", "Registered mark"},
		{"§ 12", "Sec.  12"},
		{"non\u00a0breaking", "non breaking"},
		{"½ cup", "1/2  cup"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Clean(test.in), "Clean(%q)", test.in)
	}
}

// Sanitation is idempotent: cleaning a cleaned value is a no-op.
func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"José O'Neil|\n", "½ ° ©", "already clean",
		"«»×÷", "tab\there",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean(Clean(%q))", in)
	}
}
