package cpu

import (
	"iter"
)

// Program is an assembled program image plus the map from instruction
// addresses back to their source lines. It is immutable after assembly;
// Machine.Load copies it into instruction memory.
type Program struct {
	Code  []byte      // Opcode and operand bytes, in address order.
	Lines map[int]int // Instruction address to 0-based source line.
}

// SourceLine returns the 0-based source line of the instruction at an
// address, or 0 if the address is unmapped.
func (prog *Program) SourceLine(addr int) int {
	return prog.Lines[addr]
}

// Listing iterates the program as (address, instruction) pairs,
// skipping over operand bytes. Bytes that decode to no instruction
// yield a one-byte entry with only the opcode set.
func (prog *Program) Listing() iter.Seq2[int, Instruction] {
	return func(yield func(int, Instruction) bool) {
		addr := 0
		for addr < len(prog.Code) {
			in, ok := Lookup(Op(prog.Code[addr]))
			if !ok {
				in = Instruction{Op: Op(prog.Code[addr])}
			}
			if !yield(addr, in) {
				return
			}
			addr += in.Size()
		}
	}
}
