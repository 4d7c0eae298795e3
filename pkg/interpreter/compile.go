package interpreter

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
)

type opcode int

const (
	opStatement opcode = iota
	// opIf evaluates the condition of stmt and continues at target when
	// it is false.
	opIf
	// opSkip continues at target; it closes a THEN branch that has an ELSE.
	opSkip
)

// instr is one entry of a flattened line. IF statements become an opIf
// followed by the THEN statements, an opSkip and the ELSE statements, so
// every statement of a line has its own index to resume at.
type instr struct {
	op     opcode
	stmt   ast.Statement
	target int
}

func compile(stmts []ast.Statement) []instr {
	var out []instr
	flatten(&out, stmts)
	return out
}

func flatten(out *[]instr, stmts []ast.Statement) {
	for _, stmt := range stmts {
		ifStmt, ok := stmt.(*ast.If)
		if !ok {
			*out = append(*out, instr{op: opStatement, stmt: stmt})
			continue
		}

		test := len(*out)
		*out = append(*out, instr{op: opIf, stmt: ifStmt})
		flatten(out, ifStmt.Then)
		if len(ifStmt.Else) == 0 {
			(*out)[test].target = len(*out)
			continue
		}
		skip := len(*out)
		*out = append(*out, instr{op: opSkip})
		(*out)[test].target = len(*out)
		flatten(out, ifStmt.Else)
		(*out)[skip].target = len(*out)
	}
}
