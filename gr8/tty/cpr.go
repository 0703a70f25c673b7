package tty

// parseCPR finds a cursor position report (ESC [ row ; col R) in buf. It
// returns the byte range of the report so the caller can keep whatever
// surrounds it.
func parseCPR(buf []byte) (start, end, row, col int, ok bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] != 0x1B || buf[i+1] != '[' {
			continue
		}
		j := i + 2
		row, j = parseNumber(buf, j)
		if row < 0 || j >= len(buf) || buf[j] != ';' {
			continue
		}
		col, j = parseNumber(buf, j+1)
		if col < 0 || j >= len(buf) || buf[j] != 'R' {
			continue
		}
		if row == 0 || col == 0 {
			continue
		}
		return i, j + 1, row, col, true
	}
	return 0, 0, 0, 0, false
}

// parseNumber reads decimal digits at buf[i:]. It returns -1 if there are
// none.
func parseNumber(buf []byte, i int) (int, int) {
	n, digits := 0, 0
	for ; i < len(buf) && buf[i] >= '0' && buf[i] <= '9'; i++ {
		if n < 1<<20 {
			n = n*10 + int(buf[i]-'0')
		}
		digits++
	}
	if digits == 0 {
		return -1, i
	}
	return n, i
}
