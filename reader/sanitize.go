package reader

import "strings"

// charMap rewrites Latin-1 supplement characters into ASCII approximations
// and drops a few marks (broken bar, diacritics, pilcrow, thorn). Control characters
// (C0 except tab, and the whole C1 block) and the pipe delimiter are
// handled in Clean directly; everything absent from both passes through.
var charMap = map[rune]string{
	'\u00a0': " ", // non-breaking space
	'¡': "!",          // inverted exclamation mark
	'¢': " cents",
	'¥': " Yen",
	'¦': "",           // broken bar
	'§': "Sec. ",
	'¨': "",           // diaeresis
	'©': " Copyright",
	'«': "<<",
	'\u00ad': "-", // soft hyphen
	'®': " Registered",
	'¯': "",           // macron
	'°': " degrees",
	'±': "+/-",
	'´': "",           // acute accent
	'µ': " micro",
	'¶': "",           // pilcrow
	'·': ".",
	'¸': "",           // cedilla
	'»': ">>",
	'¼': " 1/4 ",
	'½': " 1/2 ",
	'¾': " 3/4 ",
	'¿': "?",
	'À': "A", 'Á': "A", 'Â': "A", 'Ã': "A", 'Ä': "A", 'Å': "A",
	'Æ': "AE",
	'Ç': "C",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I",
	'Ð': "D",
	'Ñ': "N",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ö': "O",
	'×': "x",
	'Ø': "O",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U",
	'Ý': "Y",
	'Þ': "", // capital thorn
	'ß': "s",
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'æ': "ae",
	'ç': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'ð': "d",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o",
	'÷': "/",
	'ø': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y",
	'þ': "", // lower-case thorn
	'ÿ': "y",
}

// Clean applies the fixed character translation to one cell and trims
// surrounding whitespace. The translation is idempotent: no replacement
// contains a character that the table maps or strips.
func Clean(s string) string {
	clean := true
	for _, r := range s {
		if r == '|' || r < 0x20 || (r >= 0x80 && r <= 0xff) {
			clean = false
			break
		}
	}
	if clean {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20: // C0 controls, including newlines
		case r == '|': // reserved output delimiter
		case r >= 0x80 && r <= 0x9f: // C1 controls
		default:
			if repl, ok := charMap[r]; ok {
				b.WriteString(repl)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
