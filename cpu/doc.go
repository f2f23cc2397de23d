// Package cpu implements the machine and assembler for an 8-bit
// accumulator computer.
//
// The machine consists of two general registers (only A is reachable
// from the instruction set), a program counter, an instruction
// register, zero and carry flags, an output register, and two separate
// 256-byte memories for instructions and data. Every call to Step
// performs one fetch-decode-execute cycle and records which functional
// units took part, so a visualization can highlight them.
//
// The assembler translates the textual instruction language into a
// program image over two passes, resolving labels to byte addresses and
// keeping a map from instruction addresses back to source lines.
package cpu
