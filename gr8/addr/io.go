package addr

// Memory-mapped I/O ports
const (
	// Keyboard port: reading pops one byte from the keyboard buffer, 0 if empty.
	Keyboard uint16 = 0xFEFC
	// Output port: writes go to the virtual terminal. Values with the high
	// bit set select an IBM437 glyph.
	Output uint16 = 0xFEFD
)

// ProgramLimit is the largest program image that fits below the I/O page.
const ProgramLimit = 0xFDFF

// Direction key codes delivered through the keyboard port for arrow keys.
const (
	KeyUp    byte = 0x11
	KeyDown  byte = 0x12
	KeyLeft  byte = 0x13
	KeyRight byte = 0x14
)
