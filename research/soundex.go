package research

// soundexCode maps letters to their Soundex digit; 0 marks vowels and
// the silent letters.
var soundexCode = [26]byte{
	'A' - 'A': 0,
	'B' - 'A': 1,
	'C' - 'A': 2,
	'D' - 'A': 3,
	'E' - 'A': 0,
	'F' - 'A': 1,
	'G' - 'A': 2,
	'H' - 'A': 0,
	'I' - 'A': 0,
	'J' - 'A': 2,
	'K' - 'A': 2,
	'L' - 'A': 4,
	'M' - 'A': 5,
	'N' - 'A': 5,
	'O' - 'A': 0,
	'P' - 'A': 1,
	'Q' - 'A': 2,
	'R' - 'A': 6,
	'S' - 'A': 2,
	'T' - 'A': 3,
	'U' - 'A': 0,
	'V' - 'A': 1,
	'W' - 'A': 0,
	'X' - 'A': 2,
	'Y' - 'A': 0,
	'Z' - 'A': 2,
}

// Soundex computes the classical US Census phonetic code of a name: the
// first letter followed by three digits. Letters with the same code
// separated only by H or W collapse into one digit; vowels separate.
// Non-letters are ignored, and a name with no letters codes to "".
func Soundex(name string) string {
	var letters []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	if len(letters) == 0 {
		return ""
	}
	out := [4]byte{letters[0], '0', '0', '0'}
	n := 1
	last := soundexCode[letters[0]-'A']
	for _, c := range letters[1:] {
		code := soundexCode[c-'A']
		switch {
		case c == 'H' || c == 'W':
			// silent: the previous code survives across them
		case code == 0:
			last = 0
		default:
			if code != last {
				out[n] = '0' + code
				n++
				if n == 4 {
					return string(out[:])
				}
			}
			last = code
		}
	}
	return string(out[:])
}
