package bytecode

import (
	"encoding/binary"
	"io"
)

// magic is the 4-byte ASCII header written at the start of a compile-only
// output file.
var magic = [4]byte{'A', 'L', 'P', 'H'}

// WriteFingerprint writes the §6 bytecode fingerprint format: magic, a
// little-endian instruction count, then one byte per main-stream opcode.
// Operands are not preserved — this is a debug artifact, not a
// round-trip-executable program.
func WriteFingerprint(w io.Writer, main []Instruction) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(main)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	ops := make([]byte, len(main))
	for i, instr := range main {
		ops[i] = byte(instr.Op)
	}
	_, err := w.Write(ops)
	return err
}
