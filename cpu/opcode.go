package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Op is an instruction opcode byte.
type Op byte

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_NOP = Op(0)  // NOP
	OP_LDA = Op(1)  // LDA
	OP_ADD = Op(2)  // ADD
	OP_SUB = Op(3)  // SUB
	OP_STA = Op(4)  // STA
	OP_LDI = Op(5)  // LDI
	OP_JMP = Op(6)  // JMP
	OP_JC  = Op(7)  // JC
	OP_JZ  = Op(8)  // JZ
	OP_OUT = Op(9)  // OUT
	OP_HLT = Op(15) // HLT
)

// Instruction describes one member of the fixed instruction set.
type Instruction struct {
	Op          Op     // Opcode byte.
	Operands    int    // Number of operand bytes following the opcode (0 or 1).
	Description string // Human-readable description for display.
}

// Name returns the instruction mnemonic.
func (in Instruction) Name() string {
	return in.Op.String()
}

// Size returns the instruction size in bytes.
func (in Instruction) Size() int {
	return 1 + in.Operands
}

// The fixed instruction set, in opcode order. HLT sits at 15, not 10,
// matching the opcode table the display layer ships with.
var instructionSet = []Instruction{
	{OP_NOP, 0, "Do nothing for one cycle"},
	{OP_LDA, 1, "Load the accumulator from a data memory address"},
	{OP_ADD, 1, "Add a data memory value to the accumulator"},
	{OP_SUB, 1, "Subtract a data memory value from the accumulator"},
	{OP_STA, 1, "Store the accumulator to a data memory address"},
	{OP_LDI, 1, "Load an immediate value into the accumulator"},
	{OP_JMP, 1, "Jump to an instruction memory address"},
	{OP_JC, 1, "Jump if the carry flag is set"},
	{OP_JZ, 1, "Jump if the zero flag is set"},
	{OP_OUT, 0, "Copy the accumulator to the output register"},
	{OP_HLT, 0, "Halt execution"},
}

// opMap is the decode table, total over all 256 opcode byte values.
var opMap = func() (m [256]*Instruction) {
	for n := range instructionSet {
		m[instructionSet[n].Op] = &instructionSet[n]
	}
	return
}()

// Lookup finds the instruction for an opcode. Bytes that decode to no
// instruction return ok == false.
func Lookup(op Op) (in Instruction, ok bool) {
	entry := opMap[op]
	if entry == nil {
		return
	}

	return *entry, true
}

// ByMnemonic finds an instruction by mnemonic, case-insensitively.
func ByMnemonic(name string) (in Instruction, ok bool) {
	for _, entry := range instructionSet {
		if strings.EqualFold(entry.Name(), name) {
			return entry, true
		}
	}

	return
}

// Instructions iterates the fixed instruction set in opcode order.
func Instructions() iter.Seq[Instruction] {
	return slices.Values(instructionSet)
}

var _cpu_defines = func() map[string]string {
	m := map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	}
	for _, in := range instructionSet {
		m["OP_"+in.Name()] = fmt.Sprintf("%#x", byte(in.Op))
	}
	return m
}()

// Defines for the machine and instruction set, for display consumers.
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}
