package text

const esc = 0x1B

// nextVisible consumes any CSI sequences at the head of s followed by one
// visible codepoint. The width is 0 when s held only escape sequences.
func nextVisible(s string) (width, n int) {
	i := 0
	for i < len(s) {
		if s[i] == esc && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] == ';' || (s[i] >= '0' && s[i] <= '9')) {
				i++
			}
			if i < len(s) {
				_, t := decodeString(s[i:])
				i += t
			}
			continue
		}
		_, c := decodeString(s[i:])
		return 1, i + c
	}
	return 0, i
}

// VisibleLen returns the number of codepoints in s, not counting ANSI CSI
// sequences.
func VisibleLen(s string) int {
	count := 0
	for i := 0; i < len(s); {
		w, n := nextVisible(s[i:])
		i += n
		count += w
	}
	return count
}

// VisibleSubstring is Substring measured in visible units. Escape sequences
// that precede a visible codepoint belong to it, so a span keeps the styling
// of its first character.
func VisibleSubstring(s string, offset, count int) (start, length int) {
	return span(s, offset, count, nextVisible)
}
