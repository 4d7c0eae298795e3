package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// Target is an assignable place: a scalar, or an array element when
// Indices is non-empty.
type Target struct {
	Name    string
	Indices []Expression
}

func (t Target) String() string {
	if len(t.Indices) == 0 {
		return t.Name
	}
	return t.Name + "(" + joinExpressions(t.Indices) + ")"
}

// IsElement reports whether the target addresses an array element.
func (t Target) IsElement() bool { return len(t.Indices) > 0 }

func joinTargets(targets []Target) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}

func joinStatements(stmts []Statement) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, " : ")
}

// Assignment is `name = expr`.
type Assignment struct {
	Name  string
	Value Expression
}

func (a *Assignment) statementNode() {}
func (a *Assignment) String() string { return a.Name + " = " + a.Value.String() }

// ArrayAssignment is `name(i, ...) = expr`.
type ArrayAssignment struct {
	Name    string
	Indices []Expression
	Value   Expression
}

func (aa *ArrayAssignment) statementNode() {}
func (aa *ArrayAssignment) String() string {
	return aa.Name + "(" + joinExpressions(aa.Indices) + ") = " + aa.Value.String()
}

// PrintKind identifies a PRINT list element.
type PrintKind int

const (
	PrintExpression PrintKind = iota
	PrintTab
	PrintSpc
	PrintSemicolon
	PrintComma
)

// PrintItem is one element of a PRINT list.
type PrintItem struct {
	Kind PrintKind
	Expr Expression
}

func (pi PrintItem) String() string {
	switch pi.Kind {
	case PrintTab:
		return "TAB(" + pi.Expr.String() + ")"
	case PrintSpc:
		return "SPC(" + pi.Expr.String() + ")"
	case PrintSemicolon:
		return ";"
	case PrintComma:
		return ","
	}
	return pi.Expr.String()
}

// Print is PRINT with its item list.
type Print struct {
	Items []PrintItem
}

func (p *Print) statementNode() {}
func (p *Print) String() string {
	var out bytes.Buffer
	out.WriteString("PRINT")
	for _, item := range p.Items {
		out.WriteString(" ")
		out.WriteString(item.String())
	}
	return out.String()
}

// Input reads values into targets, with an optional prompt.
type Input struct {
	Prompt    string
	HasPrompt bool
	Targets   []Target
}

func (in *Input) statementNode() {}
func (in *Input) String() string {
	s := "INPUT "
	if in.HasPrompt {
		s += (&StringLiteral{Value: in.Prompt}).String() + ", "
	}
	return s + joinTargets(in.Targets)
}

// If is a single-line IF ... THEN ... ELSE.
type If struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
}

func (i *If) statementNode() {}
func (i *If) String() string {
	s := "IF " + i.Condition.String() + " THEN " + joinStatements(i.Then)
	if len(i.Else) > 0 {
		s += " ELSE " + joinStatements(i.Else)
	}
	return s
}

// For opens a counted loop. Step is nil when omitted.
type For struct {
	Variable string
	Start    Expression
	Limit    Expression
	Step     Expression
}

func (f *For) statementNode() {}
func (f *For) String() string {
	s := "FOR " + f.Variable + " = " + f.Start.String() + " TO " + f.Limit.String()
	if f.Step != nil {
		s += " STEP " + f.Step.String()
	}
	return s
}

// Next closes one or more counted loops.
type Next struct {
	Variables []string
}

func (n *Next) statementNode() {}
func (n *Next) String() string {
	if len(n.Variables) == 0 {
		return "NEXT"
	}
	return "NEXT " + strings.Join(n.Variables, ", ")
}

// Repeat opens a REPEAT ... UNTIL loop.
type Repeat struct{}

func (r *Repeat) statementNode() {}
func (r *Repeat) String() string { return "REPEAT" }

// Until closes a REPEAT loop.
type Until struct {
	Condition Expression
}

func (u *Until) statementNode() {}
func (u *Until) String() string { return "UNTIL " + u.Condition.String() }

// While opens a WHILE ... ENDWHILE loop.
type While struct {
	Condition Expression
}

func (w *While) statementNode() {}
func (w *While) String() string { return "WHILE " + w.Condition.String() }

// EndWhile closes a WHILE loop.
type EndWhile struct{}

func (ew *EndWhile) statementNode() {}
func (ew *EndWhile) String() string { return "ENDWHILE" }

// Goto jumps to a line.
type Goto struct {
	Line int
}

func (g *Goto) statementNode() {}
func (g *Goto) String() string { return "GOTO " + strconv.Itoa(g.Line) }

// Gosub calls a subroutine at a line.
type Gosub struct {
	Line int
}

func (g *Gosub) statementNode() {}
func (g *Gosub) String() string { return "GOSUB " + strconv.Itoa(g.Line) }

// Return ends a subroutine.
type Return struct{}

func (r *Return) statementNode() {}
func (r *Return) String() string { return "RETURN" }

// OnGoto is the computed GOTO. Targets are 1-indexed by the selector.
type OnGoto struct {
	Selector Expression
	Targets  []int
}

func (o *OnGoto) statementNode() {}
func (o *OnGoto) String() string {
	return "ON " + o.Selector.String() + " GOTO " + joinLines(o.Targets)
}

// OnGosub is the computed GOSUB.
type OnGosub struct {
	Selector Expression
	Targets  []int
}

func (o *OnGosub) statementNode() {}
func (o *OnGosub) String() string {
	return "ON " + o.Selector.String() + " GOSUB " + joinLines(o.Targets)
}

// OnError installs the program-wide error handler.
type OnError struct {
	Line int
}

func (o *OnError) statementNode() {}
func (o *OnError) String() string { return "ON ERROR GOTO " + strconv.Itoa(o.Line) }

// OnErrorOff removes the error handler.
type OnErrorOff struct{}

func (o *OnErrorOff) statementNode() {}
func (o *OnErrorOff) String() string { return "ON ERROR OFF" }

// DefProc starts a procedure body.
type DefProc struct {
	Name   string
	Params []string
}

func (d *DefProc) statementNode() {}
func (d *DefProc) String() string {
	if len(d.Params) == 0 {
		return "DEF PROC" + d.Name
	}
	return "DEF PROC" + d.Name + "(" + strings.Join(d.Params, ", ") + ")"
}

// DefFn defines a single-expression function.
type DefFn struct {
	Name   string
	Params []string
	Body   Expression
}

func (d *DefFn) statementNode() {}
func (d *DefFn) String() string {
	s := "DEF FN" + d.Name
	if len(d.Params) > 0 {
		s += "(" + strings.Join(d.Params, ", ") + ")"
	}
	return s + " = " + d.Body.String()
}

// ProcCall invokes a procedure.
type ProcCall struct {
	Name string
	Args []Expression
}

func (pc *ProcCall) statementNode() {}
func (pc *ProcCall) String() string {
	if len(pc.Args) == 0 {
		return "PROC" + pc.Name
	}
	return "PROC" + pc.Name + "(" + joinExpressions(pc.Args) + ")"
}

// EndProc returns from a procedure.
type EndProc struct{}

func (ep *EndProc) statementNode() {}
func (ep *EndProc) String() string { return "ENDPROC" }

// Local declares names local to the active PROC or FN.
type Local struct {
	Names []string
}

func (l *Local) statementNode() {}
func (l *Local) String() string { return "LOCAL " + strings.Join(l.Names, ", ") }

// ArrayDecl is one array in a DIM list; Bounds are inclusive upper bounds.
type ArrayDecl struct {
	Name   string
	Bounds []Expression
}

func (ad ArrayDecl) String() string {
	return ad.Name + "(" + joinExpressions(ad.Bounds) + ")"
}

// Dim declares arrays.
type Dim struct {
	Arrays []ArrayDecl
}

func (d *Dim) statementNode() {}
func (d *Dim) String() string {
	parts := make([]string, len(d.Arrays))
	for i, a := range d.Arrays {
		parts[i] = a.String()
	}
	return "DIM " + strings.Join(parts, ", ")
}

// Data holds literal values; execution skips it.
type Data struct {
	Items []DataValue
}

func (d *Data) statementNode() {}
func (d *Data) String() string {
	parts := make([]string, len(d.Items))
	for i, item := range d.Items {
		parts[i] = item.String()
	}
	return "DATA " + strings.Join(parts, ", ")
}

// Read assigns the next DATA values to targets.
type Read struct {
	Targets []Target
}

func (r *Read) statementNode() {}
func (r *Read) String() string { return "READ " + joinTargets(r.Targets) }

// Restore resets the DATA cursor, optionally to a line.
type Restore struct {
	Line    int
	HasLine bool
}

func (r *Restore) statementNode() {}
func (r *Restore) String() string {
	if r.HasLine {
		return "RESTORE " + strconv.Itoa(r.Line)
	}
	return "RESTORE"
}

// End terminates the run.
type End struct{}

func (e *End) statementNode() {}
func (e *End) String() string { return "END" }

// Stop terminates the run and reports the line.
type Stop struct{}

func (s *Stop) statementNode() {}
func (s *Stop) String() string { return "STOP" }

// Rem is a comment.
type Rem struct {
	Text string
}

func (r *Rem) statementNode() {}
func (r *Rem) String() string { return "REM" + r.Text }

// RaiseError is ERROR code, message.
type RaiseError struct {
	Code    Expression
	Message Expression
}

func (re *RaiseError) statementNode() {}
func (re *RaiseError) String() string {
	return "ERROR " + re.Code.String() + ", " + re.Message.String()
}

// Report prints the last error message.
type Report struct{}

func (r *Report) statementNode() {}
func (r *Report) String() string { return "REPORT" }

// Clear forgets all variables and arrays.
type Clear struct{}

func (c *Clear) statementNode() {}
func (c *Clear) String() string { return "CLEAR" }

// Cls clears the output device.
type Cls struct{}

func (c *Cls) statementNode() {}
func (c *Cls) String() string { return "CLS" }

// Quit leaves the interpreter.
type Quit struct{}

func (q *Quit) statementNode() {}
func (q *Quit) String() string { return "QUIT" }

// Swap exchanges two variables of the same type.
type Swap struct {
	A, B Target
}

func (s *Swap) statementNode() {}
func (s *Swap) String() string { return "SWAP " + s.A.String() + ", " + s.B.String() }
