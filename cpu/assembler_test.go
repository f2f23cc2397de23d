package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doAssemble(t *testing.T, lines []string) *Program {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Assemble(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	return prog
}

func TestAssembleBasic(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{
		"LDI 6",
		"STA 20",
		"LDI 7",
		"STA 21",
		"LDA 20",
		"ADD 21",
		"STA 22",
		"OUT",
		"HLT",
	})

	assert.Equal([]byte{5, 6, 4, 20, 5, 7, 4, 21, 1, 20, 2, 21, 4, 22, 9, 15}, prog.Code)
	assert.Equal(0, prog.SourceLine(0))
	assert.Equal(4, prog.SourceLine(8))
	assert.Equal(7, prog.SourceLine(14))
	assert.Equal(8, prog.SourceLine(15))
}

func TestAssembleCaseInsensitive(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{
		"ldi 1",
		"Out",
		"hLt",
	})

	assert.Equal([]byte{5, 1, 9, 15}, prog.Code)
}

func TestAssembleLabels(t *testing.T) {
	assert := assert.New(t)

	// 'fwd' is a forward reference, 'top' a backward one. Both resolve
	// to the same addresses the two passes computed.
	prog := doAssemble(t, []string{
		"top: LDI 0",
		"JMP fwd",
		"fwd: JMP top",
	})

	assert.Equal([]byte{5, 0, 6, 4, 6, 0}, prog.Code)
}

func TestAssembleLabelOnlyLine(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{
		"loop:",
		"LDI 1",
		"JMP loop",
	})

	assert.Equal([]byte{5, 1, 6, 0}, prog.Code)
	// The instruction line takes over the label line's address mapping.
	assert.Equal(1, prog.SourceLine(0))
}

func TestAssembleCommentsAndBlanks(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{
		"; whole-line comment",
		"",
		"LDI 3 ; trailing comment",
		"   ",
		"OUT",
		"HLT",
	})

	assert.Equal([]byte{5, 3, 9, 15}, prog.Code)
	assert.Equal(2, prog.SourceLine(0))
	assert.Equal(4, prog.SourceLine(2))
	assert.Equal(5, prog.SourceLine(3))
}

func TestAssembleOperandMasked(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{"LDI 300"})

	assert.Equal([]byte{5, 44}, prog.Code)
}

func TestAssembleTrailingTokenIgnored(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{"OUT 5", "HLT"})

	assert.Equal([]byte{9, 15}, prog.Code)
}

func TestAssembleEquates(t *testing.T) {
	assert := assert.New(t)

	prog := doAssemble(t, []string{
		".equ TEN 10",
		"LDI $(TEN + 5)",
		"STA TEN",
		"HLT",
	})

	assert.Equal([]byte{5, 15, 4, 10, 15}, prog.Code)
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader("FOO 1\nBAR\nHLT"))
	assert.Error(err)

	var asmErr *ErrAssembly
	assert.True(errors.As(err, &asmErr))
	assert.Len(asmErr.Diags, 2)

	var unknown ErrMnemonicUnknown
	assert.True(errors.As(err, &unknown))
	assert.Equal("FOO", string(unknown))
}

func TestAssembleUnresolvedLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader("JMP nowhere"))
	assert.Error(err)

	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal("nowhere", string(missing))

	var syntax *ErrSyntax
	assert.True(errors.As(err, &syntax))
	assert.Equal(1, syntax.LineNo)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader("a: NOP\na: HLT"))
	assert.ErrorIs(err, ErrLabelDuplicate)
}

func TestAssembleDuplicateEquate(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader(".equ A 1\n.equ A 2"))
	assert.ErrorIs(err, ErrEquateDuplicate)
}

func TestAssembleOperandMissing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader("LDI"))
	assert.ErrorIs(err, ErrOperandMissing)
}

func TestAssembleProgramTooLong(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Assemble(strings.NewReader(strings.Repeat("LDI 1\n", 129)))
	assert.ErrorIs(err, ErrProgramTooLong)
}

func TestAssemblePredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("START", "7")
	prog, err := asm.Assemble(strings.NewReader("LDI START"))
	assert.NoError(err)
	assert.Equal([]byte{5, 7}, prog.Code)
}

func TestListingRoundTrip(t *testing.T) {
	assert := assert.New(t)

	var source []string
	for in := range Instructions() {
		line := in.Name()
		if in.Operands > 0 {
			line += " 1"
		}
		source = append(source, line)
	}

	prog := doAssemble(t, source)

	var names []string
	for _, in := range prog.Listing() {
		names = append(names, in.Name())
	}
	assert.Equal([]string{"NOP", "LDA", "ADD", "SUB", "STA", "LDI", "JMP", "JC", "JZ", "OUT", "HLT"}, names)
}

func TestListingUnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{Code: []byte{12, 9, 15}}

	var addrs []int
	for addr, in := range prog.Listing() {
		addrs = append(addrs, addr)
		assert.Equal(1, in.Size())
	}
	assert.Equal([]int{0, 1, 2}, addrs)
}
