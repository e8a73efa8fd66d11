package music

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// menuCharset maps printable characters to options menu glyph codes.
// Digits and upper-case letters map to themselves.
var menuCharset = map[rune]byte{
	' ':  0x20,
	'\'': 0x3A,
	'=':  0x3B,
	'.':  0x3C,
	'!':  0x3D,
	'-':  0x3E,
	'?':  0x3F,
	'×':  0x40,
	',':  0x5B,
}

// fold strips diacritics so accented letters keep their base glyph.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// glyph returns the menu code of r.
func glyph(r rune) (byte, bool) {
	if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
		return byte(r), true
	}

	b, ok := menuCharset[r]

	return b, ok
}

// EncodeName renders a track name as a fixed-size menu entry: n-1 glyphs
// padded with spaces and a terminating zero. Unsupported characters are dropped.
func EncodeName(name string, n int) []byte {
	if n <= 0 {
		return nil
	}

	out := make([]byte, n)
	i := 0
	for _, r := range strings.ToUpper(fold(name)) {
		if i >= n-1 {
			break
		}
		if b, ok := glyph(r); ok {
			out[i] = b
			i++
		}
	}
	for ; i < n-1; i++ {
		out[i] = ' '
	}
	out[n-1] = 0

	return out
}

// BlankName is the menu entry used when a name cannot be written.
func BlankName(n int) []byte {
	return EncodeName("", n)
}
