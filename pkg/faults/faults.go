// Package faults defines the error taxonomy shared by the lexer, parser and
// execution engine.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fault.
type Kind int

const (
	SyntaxFault Kind = iota + 1
	TypeFault
	RangeFault
	UndefinedNameFault
	StackFault
	ArithmeticFault
	// UserFault is raised by the ERROR statement.
	UserFault
	// EscapeFault is raised when the host interrupts a run.
	EscapeFault
)

var kindNames = map[Kind]string{
	SyntaxFault:        "syntax",
	TypeFault:          "type",
	RangeFault:         "range",
	UndefinedNameFault: "undefined name",
	StackFault:         "stack",
	ArithmeticFault:    "arithmetic",
	UserFault:          "user",
	EscapeFault:        "escape",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error numbers, BBC BASIC numbering.
const (
	CodeNoRoom           = 0
	CodeMistake          = 4
	CodeTypeMismatch     = 6
	CodeBadDim           = 10
	CodeNotLocal         = 12
	CodeNoProc           = 13
	CodeArray            = 14
	CodeSubscript        = 15
	CodeSyntax           = 16
	CodeEscape           = 17
	CodeDivisionByZero   = 18
	CodeStringTooLong    = 19
	CodeTooBig           = 20
	CodeNegativeRoot     = 21
	CodeLogRange         = 22
	CodeExpRange         = 24
	CodeNoSuchVariable   = 26
	CodeMissingParen     = 27
	CodeNoSuchFnProc     = 29
	CodeArguments        = 31
	CodeNoFor            = 32
	CodeCantMatchFor     = 33
	CodeTooManyFors      = 35
	CodeZeroStep         = 36
	CodeNoGosub          = 38
	CodeNoSuchLine       = 41
	CodeOutOfData        = 42
	CodeNoRepeat         = 43
	CodeTooManyRepeats   = 44
	CodeNoWhile          = 46
	CodeNoEndwhile       = 47
	CodeTooManyWhiles    = 48
	CodeBadUse           = 49
	CodeUserErrorDefault = 255
)

// Messages maps error numbers to the text reported by REPORT$.
var Messages = map[int]string{
	CodeNoRoom:         "No room",
	CodeMistake:        "Mistake",
	CodeTypeMismatch:   "Type mismatch",
	CodeBadDim:         "Bad DIM",
	CodeNotLocal:       "Not LOCAL",
	CodeNoProc:         "No PROC",
	CodeArray:          "Array",
	CodeSubscript:      "Subscript out of range",
	CodeSyntax:         "Syntax error",
	CodeEscape:         "Escape",
	CodeDivisionByZero: "Division by zero",
	CodeStringTooLong:  "String too long",
	CodeTooBig:         "Too big",
	CodeNegativeRoot:   "-ve root",
	CodeLogRange:       "Log range",
	CodeExpRange:       "Exp range",
	CodeNoSuchVariable: "No such variable",
	CodeMissingParen:   "Missing )",
	CodeNoSuchFnProc:   "No such FN/PROC",
	CodeArguments:      "Arguments",
	CodeNoFor:          "No FOR",
	CodeCantMatchFor:   "Can't match FOR",
	CodeTooManyFors:    "Too many FORs",
	CodeZeroStep:       "STEP cannot be zero",
	CodeNoGosub:        "No GOSUB",
	CodeNoSuchLine:     "No such line",
	CodeOutOfData:      "Out of DATA",
	CodeNoRepeat:       "No REPEAT",
	CodeTooManyRepeats: "Too many REPEATs",
	CodeNoWhile:        "Not in a WHILE loop",
	CodeNoEndwhile:     "Missing ENDWHILE",
	CodeTooManyWhiles:  "Too many WHILEs",
	CodeBadUse:         "Bad use",
}

// Fault is a lexer, parser or runtime error. Line is 0 in direct mode;
// Column is only set for syntax faults.
type Fault struct {
	Kind    Kind
	Code    int
	Message string
	Line    int
	Column  int
	Detail  string
}

func (f *Fault) Error() string {
	msg := f.Message
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Line > 0 {
		msg += fmt.Sprintf(" at line %d", f.Line)
	}
	if f.Kind == SyntaxFault && f.Column > 0 {
		msg += fmt.Sprintf(" (column %d)", f.Column)
	}
	return msg
}

// At stamps the originating line unless one is already recorded.
func (f *Fault) At(line int) *Fault {
	if f.Line == 0 {
		f.Line = line
	}
	return f
}

// Is reports whether the fault is of the given kind.
func (f *Fault) Is(kind Kind) bool {
	return f != nil && f.Kind == kind
}

// New builds a fault whose message comes from the catalogue.
func New(kind Kind, code int) *Fault {
	msg, ok := Messages[code]
	if !ok {
		msg = fmt.Sprintf("Error %d", code)
	}
	return &Fault{Kind: kind, Code: code, Message: msg}
}

// Newf builds a fault with a detail string.
func Newf(kind Kind, code int, format string, args ...interface{}) *Fault {
	f := New(kind, code)
	f.Detail = fmt.Sprintf(format, args...)
	return f
}

// Syntax builds a syntax fault pointing at a column.
func Syntax(column int, format string, args ...interface{}) *Fault {
	f := Newf(SyntaxFault, CodeSyntax, format, args...)
	f.Column = column
	return f
}

// User builds the fault raised by ERROR n, "text".
func User(code int, message string) *Fault {
	return &Fault{Kind: UserFault, Code: code, Message: message}
}

// Common faults.
func TypeMismatch() *Fault        { return New(TypeFault, CodeTypeMismatch) }
func DivisionByZero() *Fault      { return New(ArithmeticFault, CodeDivisionByZero) }
func Subscript(name string) *Fault { return Newf(RangeFault, CodeSubscript, "%s", name) }
func NoSuchVariable(name string) *Fault {
	return Newf(UndefinedNameFault, CodeNoSuchVariable, "%s", name)
}
func StringTooLong() *Fault { return New(RangeFault, CodeStringTooLong) }
func Escape() *Fault        { return New(EscapeFault, CodeEscape) }

// As extracts a *Fault from an error chain.
func As(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Wrap converts any error into a fault, leaving faults untouched.
func Wrap(err error, line int) *Fault {
	if err == nil {
		return nil
	}
	if f, ok := As(err); ok {
		return f.At(line)
	}
	return &Fault{Kind: UserFault, Code: CodeMistake, Message: err.Error(), Line: line}
}
