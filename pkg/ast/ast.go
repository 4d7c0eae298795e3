// Package ast defines the parsed form of BASIC statements and expressions.
package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// Node is anything that can print itself back as BASIC text.
type Node interface {
	String() string
}

// Expression is a node that yields a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is one executable unit of a line.
type Statement interface {
	Node
	statementNode()
}

// IntegerLiteral is a 32-bit integer constant.
type IntegerLiteral struct {
	Value int32
}

func (il *IntegerLiteral) expressionNode() {}
func (il *IntegerLiteral) String() string { return strconv.Itoa(int(il.Value)) }

// RealLiteral is a floating point constant.
type RealLiteral struct {
	Value float64
}

func (rl *RealLiteral) expressionNode() {}
func (rl *RealLiteral) String() string {
	s := strconv.FormatFloat(rl.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// StringLiteral is a quoted string constant.
type StringLiteral struct {
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) String() string {
	return `"` + strings.ReplaceAll(sl.Value, `"`, `""`) + `"`
}

// Variable is a scalar variable reference. The name keeps its sigil.
type Variable struct {
	Name string
}

func (v *Variable) expressionNode() {}
func (v *Variable) String() string { return v.Name }

// Call is `name(args)` or a built-in function keyword. Whether it reads an
// array element or calls a function is decided when it is evaluated.
type Call struct {
	Name string
	Args []Expression
}

func (c *Call) expressionNode() {}
func (c *Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + "(" + joinExpressions(c.Args) + ")"
}

// FnCall calls a user-defined function, FNname(args).
type FnCall struct {
	Name string
	Args []Expression
}

func (fc *FnCall) expressionNode() {}
func (fc *FnCall) String() string {
	if len(fc.Args) == 0 {
		return "FN" + fc.Name
	}
	return "FN" + fc.Name + "(" + joinExpressions(fc.Args) + ")"
}

// Binary is a binary operation. Op is the canonical operator spelling
// (`+`, `DIV`, `<=`, `AND`, ...).
type Binary struct {
	Op    string
	Left  Expression
	Right Expression
}

func (b *Binary) expressionNode() {}
func (b *Binary) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Op + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")
	return out.String()
}

// Unary is `-x`, `+x` or `NOT x`.
type Unary struct {
	Op      string
	Operand Expression
}

func (u *Unary) expressionNode() {}
func (u *Unary) String() string {
	if u.Op == "NOT" {
		return "(NOT " + u.Operand.String() + ")"
	}
	return "(" + u.Op + u.Operand.String() + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Sigil returns the type suffix of a name: '%', '$' or 0 for real.
func Sigil(name string) byte {
	if name == "" {
		return 0
	}
	switch c := name[len(name)-1]; c {
	case '%', '$':
		return c
	}
	return 0
}
