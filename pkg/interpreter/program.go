package interpreter

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
)

// Navigator moves through the stored program. Jump fails with a fault when
// the line does not exist; NextLine advances the current line and reports
// false past the end.
type Navigator interface {
	CurrentLine() int
	Jump(line int) error
	NextLine() (int, bool)
}

// Program is the line store the interpreter runs: navigation plus the
// text of each line, the line list for the DEF pre-scan, and the DATA
// values gathered before RUN.
type Program interface {
	Navigator
	Lines() []int
	Text(line int) (string, bool)
	Data() ([]ast.DataItem, error)
}
