package cpu

import (
	"fmt"
	"log"
	"maps"
)

const (
	MEMORY_SIZE = 256 // Size of each of the instruction and data memories.
)

// AluOp tags the kind of the last arithmetic operation.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_NONE = AluOp(0) // -
	ALU_OP_ADD  = AluOp(1) // add
	ALU_OP_SUB  = AluOp(2) // sub
)

// AluState records the operands and result of the last arithmetic
// operation, for display only.
type AluState struct {
	Op       AluOp
	OperandA byte
	OperandB byte
	Result   byte
}

// Machine is the complete architectural state of the 8-bit computer.
// It is mutated only by Load, Reset, and Step; callers that poll state
// from another timing domain must use Snapshot.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	RegisterA byte // Accumulator.
	RegisterB byte // Second general register, unused by the instruction set.
	Pc        byte // Address of the next instruction fetch. Wraps at 256.
	Ir        byte // Most recently fetched opcode.
	Zero      bool // Set when a register-producing instruction yields 0.
	Carry     bool // Set by ADD on overflow and SUB on borrow.
	Out       byte // Last value written by OUT.

	InstrMem [MEMORY_SIZE]byte // Written only by Load.
	DataMem  [MEMORY_SIZE]byte // Read and written during execution.

	DataAddr int      // Last data memory address touched, -1 if none.
	Units    UnitSet  // Functional units active in the current cycle.
	Alu      AluState // Last arithmetic operation performed.

	length int         // Loaded program length in bytes.
	lineOf map[int]int // Instruction address to 0-based source line.
}

// NewMachine creates a machine with all-zero state.
func NewMachine() (m *Machine) {
	m = &Machine{
		DataAddr: -1,
	}
	m.Units.Add(UNIT_PC)

	return
}

// executeUnits is the per-instruction functional unit activation table.
// Fetch units and the ALU are added by Step for every instruction.
var executeUnits = map[Op]UnitSet{
	OP_LDA: UnitsOf(UNIT_REG_A, UNIT_DMEM),
	OP_ADD: UnitsOf(UNIT_REG_A, UNIT_DMEM),
	OP_SUB: UnitsOf(UNIT_REG_A, UNIT_DMEM),
	OP_STA: UnitsOf(UNIT_REG_A, UNIT_DMEM),
	OP_LDI: UnitsOf(UNIT_REG_A),
	OP_OUT: UnitsOf(UNIT_REG_A, UNIT_OUT),
}

// Reset zeroes all architectural state, both memories included.
// The address-to-source-line map carried by the last Load survives, so
// line highlighting keeps working across a reset; only the next Load
// replaces it.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}

	m.RegisterA = 0
	m.RegisterB = 0
	m.Pc = 0
	m.Ir = 0
	m.Zero = false
	m.Carry = false
	m.Out = 0
	clear(m.InstrMem[:])
	clear(m.DataMem[:])
	m.DataAddr = -1
	m.Alu = AluState{}
	m.Units = UnitsOf(UNIT_PC)
	m.length = 0
}

// Load resets the machine and copies the program image into instruction
// memory. The program's source-line map replaces the previous one.
func (m *Machine) Load(prog *Program) {
	m.Reset()

	m.length = copy(m.InstrMem[:], prog.Code)
	m.lineOf = maps.Clone(prog.Lines)

	if m.Verbose {
		log.Printf("machine: loaded %v bytes", m.length)
	}
}

// Len returns the loaded program length in bytes.
func (m *Machine) Len() int {
	return m.length
}

// AtEnd reports whether the program counter has run past the loaded
// program.
func (m *Machine) AtEnd() bool {
	return int(m.Pc) >= m.length
}

// LineNo returns the 0-based source line of the instruction at the
// current program counter, or 0 if the address is unmapped.
func (m *Machine) LineNo() int {
	return m.lineOf[int(m.Pc)]
}

// Step performs one fetch-decode-execute cycle and reports whether the
// instruction requested a halt. It is total over all 256 opcode byte
// values: bytes that decode to no instruction execute as a one-byte
// no-op.
func (m *Machine) Step() (halt bool) {
	fetched := m.Pc

	m.Units = UnitsOf(UNIT_IMEM, UNIT_PC)
	m.Ir = m.InstrMem[m.Pc]
	m.Units.Add(UNIT_IR)

	in, ok := Lookup(Op(m.Ir))
	if !ok {
		m.Pc++
		return
	}

	var operand byte
	if in.Operands > 0 {
		m.Pc++
		operand = m.InstrMem[m.Pc]
	}
	m.Pc++

	m.Units |= executeUnits[in.Op]
	m.Units.Add(UNIT_ALU)

	if m.Verbose {
		log.Printf("machine: %3d: %v %v", fetched, in.Name(), operand)
	}

	switch in.Op {
	case OP_NOP:
		// no state change
	case OP_LDA:
		m.RegisterA = m.DataMem[operand]
		m.DataAddr = int(operand)
		m.Zero = m.RegisterA == 0
	case OP_ADD:
		a, b := m.RegisterA, m.DataMem[operand]
		sum := uint16(a) + uint16(b)
		m.RegisterA = byte(sum)
		m.DataAddr = int(operand)
		m.Carry = sum > 0xff
		m.Zero = m.RegisterA == 0
		m.Alu = AluState{Op: ALU_OP_ADD, OperandA: a, OperandB: b, Result: m.RegisterA}
	case OP_SUB:
		a, b := m.RegisterA, m.DataMem[operand]
		diff := int(a) - int(b)
		m.RegisterA = byte(diff)
		m.DataAddr = int(operand)
		m.Carry = diff < 0
		m.Zero = m.RegisterA == 0
		m.Alu = AluState{Op: ALU_OP_SUB, OperandA: a, OperandB: b, Result: m.RegisterA}
	case OP_STA:
		m.DataMem[operand] = m.RegisterA
		m.DataAddr = int(operand)
	case OP_LDI:
		m.RegisterA = operand
		m.Zero = m.RegisterA == 0
	case OP_JMP:
		m.Pc = operand
	case OP_JC:
		if m.Carry {
			m.Pc = operand
		}
	case OP_JZ:
		if m.Zero {
			m.Pc = operand
		}
	case OP_OUT:
		m.Out = m.RegisterA
	case OP_HLT:
		halt = true
	}

	return
}

// State is a defensive copy of all machine state. The memory arrays are
// copied by value, so a caller polling from another timing domain never
// observes an in-progress mutation.
type State struct {
	RegisterA byte
	RegisterB byte
	Pc        byte
	Ir        byte
	Zero      bool
	Carry     bool
	Out       byte
	InstrMem  [MEMORY_SIZE]byte
	DataMem   [MEMORY_SIZE]byte
	DataAddr  int
	Units     UnitSet
	Alu       AluState
	Line      int // 0-based source line of the next instruction.
}

// Snapshot returns a defensive copy of the machine state.
func (m *Machine) Snapshot() State {
	return State{
		RegisterA: m.RegisterA,
		RegisterB: m.RegisterB,
		Pc:        m.Pc,
		Ir:        m.Ir,
		Zero:      m.Zero,
		Carry:     m.Carry,
		Out:       m.Out,
		InstrMem:  m.InstrMem,
		DataMem:   m.DataMem,
		DataAddr:  m.DataAddr,
		Units:     m.Units,
		Alu:       m.Alu,
		Line:      m.LineNo(),
	}
}

// String returns the register state as a string.
func (st State) String() (text string) {
	regs := []string{"a", "b", "pc", "ir", "zero", "carry", "out", "units", "alu"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "a":
			strval = fmt.Sprintf("%02X", st.RegisterA)
		case "b":
			strval = fmt.Sprintf("%02X", st.RegisterB)
		case "pc":
			strval = fmt.Sprintf("%02X", st.Pc)
		case "ir":
			strval = fmt.Sprintf("%02X %v", st.Ir, Op(st.Ir))
		case "zero":
			strval = fmt.Sprintf("%v", st.Zero)
		case "carry":
			strval = fmt.Sprintf("%v", st.Carry)
		case "out":
			strval = fmt.Sprintf("%02X", st.Out)
		case "units":
			strval = st.Units.String()
		case "alu":
			if st.Alu.Op == ALU_OP_NONE {
				strval = "-"
			} else {
				strval = fmt.Sprintf("%v %02X %02X -> %02X",
					st.Alu.Op, st.Alu.OperandA, st.Alu.OperandB, st.Alu.Result)
			}
		}
		text += fmt.Sprintf("% 6s: %v\n", reg, strval)
	}

	return
}
