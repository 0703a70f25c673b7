package text

// ANSI sequences used by the dashboard and the virtual terminal.
const (
	Reset       = "\x1b[0m"
	Bold        = "\x1b[1m"
	Dim         = "\x1b[2m"
	BoldInverse = "\x1b[1;7m"
	// ClearLine erases from the cursor to the end of the screen.
	ClearLine = "\x1b[0J"
)

// Escape is the byte that starts every ANSI sequence.
const Escape byte = 0x1B
