package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
}

// Assembler is a two-pass assembler for the instruction set. Pass 1
// binds labels to byte addresses and builds the address-to-source-line
// map; pass 2 emits opcode and operand bytes with labels resolved.
//
// Diagnostics are collected instead of aborting at the first problem;
// Assemble fails with the complete list when any line is bad.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Label  map[string]int    // Map of labels to byte addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string // Predefines
	diags     []error
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// statement is one surviving source line after preprocessing.
type statement struct {
	LineNo      int    // 1-based source line number.
	Line        string // Line text, for diagnostics.
	Labels      []string
	Mnemonic    string
	Operand     string
	Instruction Instruction // Valid when Known is set by pass 1.
	Known       bool
}

func (asm *Assembler) diag(st *statement, err error) {
	asm.diags = append(asm.diags, &ErrSyntax{LineNo: st.LineNo, Line: st.Line, Err: err})
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	value, err = strconv.ParseUint(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value64, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value64))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(st_int64)
	return
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// parseLine preprocesses a single source line into words, with the
// comment stripped, $() expressions evaluated, and equates substituted.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// resolveOperand resolves an operand token to a byte value: a
// nonnegative integer is used literally, anything else is looked up as
// a label. Values are masked to 8 bits.
func (asm *Assembler) resolveOperand(word string) (value byte, err error) {
	v64, verr := strconv.ParseUint(word, 0, 64)
	if verr == nil {
		return byte(v64 & 0xff), nil
	}

	addr, ok := asm.Label[word]
	if !ok {
		err = ErrLabelMissing(word)
		return
	}

	return byte(addr & 0xff), nil
}

// Assemble parses an input stream into a program image. On failure the
// returned error is an *ErrAssembly listing every offending line.
func (asm *Assembler) Assemble(input io.Reader) (prog *Program, err error) {
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.diags = nil

	var stmts []statement

	scanner := bufio.NewScanner(input)
	var lineno int
	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		// Lines that are empty or comment-only survive no further.
		text_comment := strings.Split(text, ";")
		line := strings.TrimSpace(text_comment[0])
		if len(line) == 0 {
			continue
		}

		st := statement{LineNo: lineno, Line: line}

		words, perr := asm.parseLine(line, lineno)
		if perr != nil {
			asm.diag(&st, perr)
			continue
		}

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			st.Labels = append(st.Labels, words[0][:len(words[0])-1])
			words = words[1:]
		}

		if len(words) > 0 {
			st.Mnemonic = words[0]
		}
		if len(words) > 1 {
			st.Operand = words[1]
		}

		if len(st.Labels) == 0 && st.Mnemonic == "" {
			continue
		}

		stmts = append(stmts, st)
	}
	if serr := scanner.Err(); serr != nil {
		return nil, serr
	}

	// Pass 1: bind labels, size instructions, map addresses to lines.
	addr := 0
	lines := make(map[int]int, len(stmts))
	for n := range stmts {
		st := &stmts[n]

		for _, label := range st.Labels {
			if _, ok := asm.Label[label]; ok {
				asm.diag(st, ErrLabelDuplicate)
				continue
			}
			asm.Label[label] = addr
		}

		// A label with no instruction still occupies its address; a
		// later instruction at the same address takes over the mapping.
		lines[addr] = st.LineNo - 1

		if st.Mnemonic == "" {
			continue
		}

		in, ok := ByMnemonic(st.Mnemonic)
		if !ok {
			asm.diag(st, ErrMnemonicUnknown(st.Mnemonic))
			continue
		}
		if in.Operands > 0 && st.Operand == "" {
			asm.diag(st, ErrOperandMissing)
			continue
		}

		st.Instruction = in
		st.Known = true
		addr += in.Size()
	}

	// Pass 2: emit code with operands resolved.
	code := make([]byte, 0, addr)
	for n := range stmts {
		st := &stmts[n]
		if !st.Known {
			continue
		}

		code = append(code, byte(st.Instruction.Op))
		if st.Instruction.Operands == 0 {
			// A trailing token on an operand-less instruction is ignored.
			continue
		}

		value, verr := asm.resolveOperand(st.Operand)
		if verr != nil {
			asm.diag(st, verr)
			value = 0
		}
		code = append(code, value)
	}

	if len(code) > MEMORY_SIZE {
		asm.diags = append(asm.diags, ErrProgramTooLong)
	}

	if len(asm.diags) > 0 {
		return nil, &ErrAssembly{Diags: asm.diags}
	}

	prog = &Program{
		Code:  code,
		Lines: lines,
	}

	return
}
