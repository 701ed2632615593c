package httpwire

// DecodeTarget percent-decodes a request target in place and returns the
// shortened slice. '+' maps to space, "%HH" (case-insensitive hex) maps to
// the byte 0xHH, and everything else copies verbatim. A lone '%' not
// followed by two hex digits copies verbatim.
//
// The write index never outruns the read index, so decoding src into its
// own backing array is safe.
func DecodeTarget(b []byte) []byte {
	w := 0
	for r := 0; r < len(b); r++ {
		switch {
		case b[r] == '+':
			b[w] = ' '
			w++
		case b[r] == '%' && r+2 < len(b):
			hi, okHi := unhex(b[r+1])
			lo, okLo := unhex(b[r+2])
			if okHi && okLo {
				b[w] = hi<<4 | lo
				w++
				r += 2
			} else {
				b[w] = b[r]
				w++
			}
		default:
			b[w] = b[r]
			w++
		}
	}
	return b[:w]
}

// EncodeLocation escapes untrusted bytes for use inside a Location header
// value: control bytes (< 0x20 or 0x7F) and bytes > 0x7F become "%XX" with
// uppercase hex; all other bytes copy verbatim.
func EncodeLocation(s string) string {
	const hexdig = "0123456789ABCDEF"

	n := 0
	for i := 0; i < len(s); i++ {
		if needsEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	out := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			out = append(out, '%', hexdig[c>>4], hexdig[c&0x0f])
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}

func needsEscape(c byte) bool {
	return c < 0x20 || c >= 0x7f
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
