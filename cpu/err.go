package cpu

import (
	"errors"
	"strings"

	"github.com/eightbitsim/eightbit/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrProgramTooLong  = errors.New(f("program exceeds instruction memory"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrMnemonicUnknown string

func (em ErrMnemonicUnknown) Error() string {
	return f("mnemonic %v unknown", string(em))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax locates a diagnostic on its source line.
type ErrSyntax struct {
	LineNo int // 1-based source line number.
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrAssembly aggregates all per-line diagnostics of a failed assembly,
// so a caller can display every problem at once.
type ErrAssembly struct {
	Diags []error
}

func (err *ErrAssembly) Error() string {
	msgs := make([]string, len(err.Diags))
	for n, diag := range err.Diags {
		msgs[n] = diag.Error()
	}

	return strings.Join(msgs, "\n")
}

func (err *ErrAssembly) Unwrap() []error {
	return err.Diags
}
