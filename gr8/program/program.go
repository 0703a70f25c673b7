// Package program loads GR8 program images.
package program

import (
	"os"

	"github.com/pkg/errors"

	"github.com/valerio/go-gr8/gr8/addr"
)

// HelloWorld prints "Hello, World!" through the output port and halts.
var HelloWorld = []byte{
	// entry:
	0x7E, 0xFF, // VST $ff
	0x7B, 0x24, 0x00, // GPTR text
	0x2A, 0x00, 0x01, // MOV [ptr], X
	0x2B, 0x01, 0x01, // MOV [ptr+1], Y
	0x02, 0x0F, 0x00, // CALL print
	0x7F, // HLT

	// print:
	0x25, 0x00, 0x01, // MOV A, (ptr)
	0x3C, 0x00, // CMP A, $00
	0x0F, 0x23, 0x00, // BEQ done
	0x29, 0xFD, 0xFE, // MOV [$fefd], A
	0x3F, 0x00, 0x01, // INC [ptr]
	0x4B, 0x01, 0x01, // INCC [ptr+1]
	0x0E, 0x0F, 0x00, // JMP print
	// done:
	0x03, // RET

	// text:
	'H', 'e', 'l', 'l', 'o', ',', ' ',
	'W', 'o', 'r', 'l', 'd', '!', '\n',
	0x00,
}

// ErrTooLarge is returned for images that would overlap the I/O page.
var ErrTooLarge = errors.New("program image too large")

// Load reads a program image from path.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading program %s", path)
	}
	if len(data) > addr.ProgramLimit {
		return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes", path, len(data))
	}
	return data, nil
}
