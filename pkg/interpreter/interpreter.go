// Package interpreter executes parsed BASIC statements against the runtime
// state. Control flow lives in explicit frame stacks so GOTO can leave a
// loop or subroutine without unwinding anything.
package interpreter

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/goforj/godump"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/builtins"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/logger"
	"github.com/agileandy/bbcbasic/pkg/parser"
	"github.com/agileandy/bbcbasic/pkg/state"
)

// Reason says why a run stopped.
type Reason int

const (
	Ended Reason = iota
	Stopped
	Quit
	Faulted
	Escaped
)

func (r Reason) String() string {
	switch r {
	case Ended:
		return "ended"
	case Stopped:
		return "stopped"
	case Quit:
		return "quit"
	case Faulted:
		return "faulted"
	}
	return "escaped"
}

// Outcome is the result of Run or ExecuteDirect. Line is the line the run
// stopped on; 0 means direct mode.
type Outcome struct {
	Reason Reason
	Line   int
}

type control int

const (
	ctrlNone control = iota
	ctrlEnd
	ctrlStop
	ctrlQuit
)

// Interpreter runs one program. It is not safe for concurrent use, except
// for Interrupt.
type Interpreter struct {
	opts Options
	st   *state.State
	lib  *builtins.Library
	prog Program
	out  Output
	in   Input

	cache      map[int][]instr
	direct     []instr
	current    []instr
	pos        state.Pos
	next       state.Pos
	dataLoaded bool
	escape     atomic.Bool
}

// New creates an interpreter over a program and I/O pair. in may be nil,
// in which case INPUT ends the run.
func New(prog Program, out Output, in Input, opts Options) *Interpreter {
	if out == nil {
		out = NewTextOutput(discard{}, opts.ZoneWidth)
	}
	return &Interpreter{
		opts:  opts,
		st:    state.New(opts.limits()),
		lib:   builtins.New(opts.Seed, opts.MaxStringLength),
		prog:  prog,
		out:   out,
		in:    in,
		cache: make(map[int][]instr),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// State exposes the runtime state, mainly for inspection after a run.
func (it *Interpreter) State() *state.State { return it.st }

// SetTrace switches dumping of parsed lines on or off.
func (it *Interpreter) SetTrace(on bool) { it.opts.TraceParse = on }

// Tracing reports whether parsed lines are dumped.
func (it *Interpreter) Tracing() bool { return it.opts.TraceParse }

// Interrupt asks the running program to stop before its next statement.
// It may be called from any goroutine.
func (it *Interpreter) Interrupt() { it.escape.Store(true) }

// Invalidate drops parsed lines and gathered DATA after the program text
// changed.
func (it *Interpreter) Invalidate() {
	it.cache = make(map[int][]instr)
	it.dataLoaded = false
}

// Run clears the state and runs the program from its first line.
func (it *Interpreter) Run(ctx context.Context) (Outcome, error) {
	it.st.Reset()
	it.Invalidate()
	it.escape.Store(false)
	if err := it.loadData(); err != nil {
		return Outcome{Reason: Faulted}, err
	}
	it.scanDefinitions()

	lines := it.prog.Lines()
	if len(lines) == 0 {
		return Outcome{Reason: Ended}, nil
	}
	if err := it.prog.Jump(lines[0]); err != nil {
		return Outcome{Reason: Faulted}, err
	}
	logger.InterpreterInfo("RUN from line %d, %d lines", lines[0], len(lines))
	outcome, err := it.execute(ctx, state.Pos{Line: lines[0]})
	logger.InterpreterInfo("run %s at line %d", outcome.Reason, outcome.Line)
	return outcome, err
}

// ExecuteDirect runs one unnumbered line against the current state. A GOTO
// or GOSUB from it carries on into the program.
func (it *Interpreter) ExecuteDirect(ctx context.Context, text string) (Outcome, error) {
	stmts, err := parser.ParseLine(text)
	if err != nil {
		return Outcome{Reason: Faulted}, err
	}
	it.trace(0, stmts)
	it.direct = compile(stmts)
	it.escape.Store(false)
	return it.execute(ctx, state.Pos{Line: 0})
}

// Evaluate parses and evaluates an expression against the current state.
func (it *Interpreter) Evaluate(text string) (state.Value, error) {
	expr, err := parser.ParseExpression(text)
	if err != nil {
		return state.Value{}, err
	}
	return it.eval(expr)
}

func (it *Interpreter) trace(line int, stmts []ast.Statement) {
	if !it.opts.TraceParse {
		return
	}
	logger.Debug(logger.AreaParser, "line %d parsed into %d statements", line, len(stmts))
	var dump strings.Builder
	godump.Fdump(&dump, stmts)
	it.out.Print(dump.String())
}

func (it *Interpreter) loadData() error {
	items, err := it.prog.Data()
	if err != nil {
		return err
	}
	it.st.Data.Load(items)
	it.dataLoaded = true
	return nil
}

// instrs returns the compiled statements of a line, parsing on first use.
func (it *Interpreter) instrs(line int) ([]instr, error) {
	if line == 0 {
		return it.direct, nil
	}
	if c, ok := it.cache[line]; ok {
		return c, nil
	}
	text, ok := it.prog.Text(line)
	if !ok {
		return nil, faults.Newf(faults.UndefinedNameFault, faults.CodeNoSuchLine, "%d", line)
	}
	stmts, err := parser.ParseLine(text)
	if err != nil {
		if f, ok := faults.As(err); ok {
			f.At(line)
		}
		return nil, err
	}
	it.trace(line, stmts)
	c := compile(stmts)
	it.cache[line] = c
	return c, nil
}

// scanDefinitions records every DEF PROC and DEF FN in the program. Lines
// that do not parse are skipped here; a lookup that misses reports them.
func (it *Interpreter) scanDefinitions() {
	for _, line := range it.prog.Lines() {
		instrs, err := it.instrs(line)
		if err != nil {
			continue
		}
		for i, ins := range instrs {
			switch def := ins.stmt.(type) {
			case *ast.DefProc:
				it.st.Defs.DefineProc(state.ProcDef{
					Name:   def.Name,
					Params: def.Params,
					Body:   state.Pos{Line: line, Index: i + 1},
				})
			case *ast.DefFn:
				it.st.Defs.DefineFn(state.FnDef{
					Name:   def.Name,
					Params: def.Params,
					Expr:   def.Body,
					Line:   line,
				})
			}
		}
	}
}

func (it *Interpreter) checkEscape(ctx context.Context) error {
	if it.escape.Swap(false) || ctx.Err() != nil {
		return faults.Escape()
	}
	return nil
}

// execute is the statement loop. Each statement sets it.next, which
// defaults to the following statement; jumps overwrite it.
func (it *Interpreter) execute(ctx context.Context, start state.Pos) (Outcome, error) {
	it.pos = start
	for {
		if err := it.checkEscape(ctx); err != nil {
			return Outcome{Reason: Escaped, Line: it.pos.Line}, faults.Wrap(err, it.pos.Line)
		}

		instrs, err := it.instrs(it.pos.Line)
		if err != nil {
			return Outcome{Reason: Faulted, Line: it.pos.Line}, err
		}
		if it.pos.Index >= len(instrs) {
			if it.pos.Line == 0 {
				return Outcome{Reason: Ended}, nil
			}
			line, ok := it.prog.NextLine()
			if !ok {
				return Outcome{Reason: Ended, Line: it.pos.Line}, nil
			}
			it.pos = state.Pos{Line: line}
			continue
		}

		it.current = instrs
		it.next = state.Pos{Line: it.pos.Line, Index: it.pos.Index + 1}
		ctrl, err := it.step(ctx, instrs[it.pos.Index])
		if err != nil {
			f := faults.Wrap(err, it.pos.Line)
			if f.Kind == faults.EscapeFault {
				return Outcome{Reason: Escaped, Line: it.pos.Line}, f
			}
			if it.trap(f) {
				continue
			}
			return Outcome{Reason: Faulted, Line: it.pos.Line}, f
		}
		switch ctrl {
		case ctrlEnd:
			return Outcome{Reason: Ended, Line: it.pos.Line}, nil
		case ctrlStop:
			return Outcome{Reason: Stopped, Line: it.pos.Line}, nil
		case ctrlQuit:
			return Outcome{Reason: Quit, Line: it.pos.Line}, nil
		}
		it.pos = it.next
	}
}

// trap hands a fault to the ON ERROR handler. Frames are left as they are.
// Faults in direct mode are never trapped.
func (it *Interpreter) trap(f *faults.Fault) bool {
	handler := it.st.Errors
	if !handler.HasHandler || it.pos.Line == 0 {
		return false
	}
	if err := it.prog.Jump(handler.Handler); err != nil {
		return false
	}
	it.st.Errors.Record(f)
	logger.InterpreterDebug("trapped %q at line %d, handler %d", f.Message, f.Line, handler.Handler)
	it.pos = state.Pos{Line: handler.Handler}
	return true
}

// jumpTo continues at the first statement of a line.
func (it *Interpreter) jumpTo(line int) error {
	if err := it.prog.Jump(line); err != nil {
		return err
	}
	it.next = state.Pos{Line: line}
	return nil
}

// resume continues at a recorded position.
func (it *Interpreter) resume(pos state.Pos) error {
	if pos.Line != 0 {
		if err := it.prog.Jump(pos.Line); err != nil {
			return err
		}
	}
	it.next = pos
	return nil
}

// findEndWhile scans forward from pos for the ENDWHILE matching a WHILE,
// counting nested loops, and returns the position after it.
func (it *Interpreter) findEndWhile(pos state.Pos) (state.Pos, error) {
	depth := 0
	var lines []int
	for {
		instrs, err := it.instrs(pos.Line)
		if err != nil {
			return state.Pos{}, err
		}
		for i := pos.Index; i < len(instrs); i++ {
			switch instrs[i].stmt.(type) {
			case *ast.While:
				depth++
			case *ast.EndWhile:
				if depth == 0 {
					return state.Pos{Line: pos.Line, Index: i + 1}, nil
				}
				depth--
			}
		}
		if pos.Line == 0 {
			break
		}
		if lines == nil {
			lines = it.prog.Lines()
		}
		idx := sort.SearchInts(lines, pos.Line+1)
		if idx >= len(lines) {
			break
		}
		pos = state.Pos{Line: lines[idx]}
	}
	return state.Pos{}, faults.New(faults.StackFault, faults.CodeNoEndwhile)
}
