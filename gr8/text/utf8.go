// Package text implements the UTF-8 and visible-width helpers used to lay
// out the dashboard. Decoding is lenient: a malformed lead byte is taken as
// a single-byte code so that rendering always makes progress.
package text

const maxCode = 0x1FFFFF

// DecodeRune decodes the first codepoint of b and returns it with the number
// of bytes it occupies. An empty slice returns (0, 0).
func DecodeRune(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}

	lead := b[0]
	if lead < 0x80 {
		return rune(lead), 1
	}

	var n int
	var mask byte
	switch {
	case lead&0xE0 == 0xC0:
		n, mask = 2, 0x1F
	case lead&0xF0 == 0xE0:
		n, mask = 3, 0x0F
	case lead&0xF8 == 0xF0:
		n, mask = 4, 0x07
	default:
		return rune(lead), 1
	}

	if n > len(b) {
		n = len(b)
	}

	r := rune(lead & mask)
	for i := 1; i < n; i++ {
		r = r<<6 | rune(b[i]&0x3F)
	}
	return r, n
}

// decodeString is DecodeRune for strings without copying.
func decodeString(s string) (rune, int) {
	if len(s) == 0 {
		return 0, 0
	}
	if s[0] < 0x80 {
		return rune(s[0]), 1
	}
	end := 4
	if end > len(s) {
		end = len(s)
	}
	return DecodeRune([]byte(s[:end]))
}

// AppendRune appends the UTF-8 encoding of r to buf. Zero and codes above
// 0x1FFFFF append nothing.
func AppendRune(buf []byte, r rune) []byte {
	switch {
	case r <= 0 || r > maxCode:
		return buf
	case r <= 0x7F:
		return append(buf, byte(r))
	case r <= 0x7FF:
		return append(buf,
			0xC0|byte(r>>6)&0x1F,
			0x80|byte(r)&0x3F)
	case r <= 0xFFFF:
		return append(buf,
			0xE0|byte(r>>12)&0x0F,
			0x80|byte(r>>6)&0x3F,
			0x80|byte(r)&0x3F)
	default:
		return append(buf,
			0xF0|byte(r>>18)&0x07,
			0x80|byte(r>>12)&0x3F,
			0x80|byte(r>>6)&0x3F,
			0x80|byte(r)&0x3F)
	}
}

// Len returns the number of codepoints in s.
func Len(s string) int {
	count := 0
	for i := 0; i < len(s); {
		_, n := decodeString(s[i:])
		i += n
		count++
	}
	return count
}

// Substring skips offset codepoints of s and spans count more, returning
// the byte offset and byte length of the span. A string that ends early
// yields a shorter span.
func Substring(s string, offset, count int) (start, length int) {
	return span(s, offset, count, nextCodepoint)
}

func nextCodepoint(s string) (width, n int) {
	_, n = decodeString(s)
	return 1, n
}

// span walks s in units produced by next, shared by the codepoint and
// visible-width variants. Zero-width units never count against offset or
// count.
func span(s string, offset, count int, next func(string) (int, int)) (int, int) {
	i := 0
	for offset > 0 && i < len(s) {
		w, n := next(s[i:])
		i += n
		offset -= w
	}
	start := i
	for count > 0 && i < len(s) {
		w, n := next(s[i:])
		i += n
		count -= w
	}
	return start, i - start
}
