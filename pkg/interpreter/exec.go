package interpreter

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/builtins"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

// step runs one compiled instruction.
func (it *Interpreter) step(ctx context.Context, ins instr) (control, error) {
	switch ins.op {
	case opIf:
		ok, err := it.evalBool(ins.stmt.(*ast.If).Condition)
		if err != nil {
			return ctrlNone, err
		}
		if !ok {
			it.next.Index = ins.target
		}
		return ctrlNone, nil
	case opSkip:
		it.next.Index = ins.target
		return ctrlNone, nil
	}
	return it.exec(ctx, ins.stmt)
}

func (it *Interpreter) exec(ctx context.Context, stmt ast.Statement) (control, error) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		v, err := it.eval(s.Value)
		if err != nil {
			return ctrlNone, err
		}
		return ctrlNone, it.st.Vars.Set(s.Name, v)
	case *ast.ArrayAssignment:
		indices, err := it.evalIndices(s.Indices)
		if err != nil {
			return ctrlNone, err
		}
		v, err := it.eval(s.Value)
		if err != nil {
			return ctrlNone, err
		}
		return ctrlNone, it.st.Arrays.Set(s.Name, indices, v)
	case *ast.Print:
		return ctrlNone, it.execPrint(s)
	case *ast.Input:
		return ctrlNone, it.execInput(ctx, s)
	case *ast.For:
		return ctrlNone, it.execFor(s)
	case *ast.Next:
		return ctrlNone, it.execNext(s)
	case *ast.Repeat:
		return ctrlNone, it.st.Frames.PushRepeat(state.RepeatFrame{Body: it.next})
	case *ast.Until:
		return ctrlNone, it.execUntil(s)
	case *ast.While:
		return ctrlNone, it.execWhile(s)
	case *ast.EndWhile:
		return ctrlNone, it.execEndWhile()
	case *ast.Goto:
		return ctrlNone, it.jumpTo(s.Line)
	case *ast.Gosub:
		return ctrlNone, it.gosub(s.Line)
	case *ast.Return:
		frame, err := it.st.Frames.PopCall(state.GosubCall)
		if err != nil {
			return ctrlNone, err
		}
		return ctrlNone, it.resume(frame.Resume)
	case *ast.OnGoto:
		return ctrlNone, it.execOn(s.Selector, s.Targets, it.jumpTo)
	case *ast.OnGosub:
		return ctrlNone, it.execOn(s.Selector, s.Targets, it.gosub)
	case *ast.OnError:
		it.st.Errors.Handler = s.Line
		it.st.Errors.HasHandler = true
		return ctrlNone, nil
	case *ast.OnErrorOff:
		it.st.Errors.HasHandler = false
		return ctrlNone, nil
	case *ast.DefProc, *ast.DefFn:
		// Definitions are collected before the run; reaching one skips
		// the rest of its line.
		it.next.Index = len(it.current)
		return ctrlNone, nil
	case *ast.ProcCall:
		return ctrlNone, it.callProc(s)
	case *ast.EndProc:
		return ctrlNone, it.endProc()
	case *ast.Local:
		return ctrlNone, it.execLocal(s)
	case *ast.Dim:
		return ctrlNone, it.execDim(s)
	case *ast.Data, *ast.Rem:
		return ctrlNone, nil
	case *ast.Read:
		return ctrlNone, it.execRead(s)
	case *ast.Restore:
		if !it.dataLoaded {
			if err := it.loadData(); err != nil {
				return ctrlNone, err
			}
		}
		if s.HasLine {
			it.st.Data.RestoreLine(s.Line)
		} else {
			it.st.Data.Restore()
		}
		return ctrlNone, nil
	case *ast.End:
		return ctrlEnd, nil
	case *ast.Stop:
		return ctrlStop, nil
	case *ast.Quit:
		return ctrlQuit, nil
	case *ast.RaiseError:
		return ctrlNone, it.raiseError(s)
	case *ast.Report:
		return ctrlNone, it.out.Print(it.st.Errors.Message)
	case *ast.Clear:
		it.st.Vars.Clear()
		it.st.Arrays.Clear()
		return ctrlNone, nil
	case *ast.Cls:
		return ctrlNone, it.out.Cls()
	case *ast.Swap:
		return ctrlNone, it.execSwap(s)
	}
	return ctrlNone, faults.Newf(faults.SyntaxFault, faults.CodeMistake, "%s", stmt)
}

func (it *Interpreter) execPrint(s *ast.Print) error {
	newline := true
	for _, item := range s.Items {
		newline = true
		switch item.Kind {
		case ast.PrintExpression:
			v, err := it.eval(item.Expr)
			if err != nil {
				return err
			}
			if err := it.out.Print(v.String()); err != nil {
				return err
			}
		case ast.PrintTab, ast.PrintSpc:
			n, err := it.evalInt(item.Expr)
			if err != nil {
				return err
			}
			if item.Kind == ast.PrintTab {
				err = it.out.Tab(int(n))
			} else {
				err = it.out.Spc(int(n))
			}
			if err != nil {
				return err
			}
		case ast.PrintSemicolon:
			newline = false
		case ast.PrintComma:
			if err := it.out.Zone(); err != nil {
				return err
			}
			newline = false
		}
	}
	if newline {
		return it.out.Newline()
	}
	return nil
}

// execInput reads one line per prompt. Several targets may be answered on
// one line separated by commas; text that is not a number reads as 0.
func (it *Interpreter) execInput(ctx context.Context, s *ast.Input) error {
	if it.in == nil {
		return faults.Escape()
	}
	prompt := "?"
	if s.HasPrompt {
		prompt = s.Prompt + "?"
	}
	var fields []string
	for _, target := range s.Targets {
		if len(fields) == 0 {
			line, err := it.in.ReadLine(ctx, prompt)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return faults.Escape()
				}
				return err
			}
			prompt = "?"
			if len(s.Targets) == 1 {
				fields = []string{line}
			} else {
				fields = strings.Split(line, ",")
			}
		}
		field := strings.TrimLeft(fields[0], " ")
		fields = fields[1:]

		var v state.Value
		if state.TypeOf(target.Name) == state.StringType {
			v = state.Str(field)
		} else {
			v = builtins.Val(field)
		}
		if err := it.assign(target, v); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) execDim(s *ast.Dim) error {
	for _, decl := range s.Arrays {
		bounds, err := it.evalIndices(decl.Bounds)
		if err != nil {
			return err
		}
		if err := it.st.Arrays.Dim(decl.Name, bounds); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) execRead(s *ast.Read) error {
	if !it.dataLoaded {
		if err := it.loadData(); err != nil {
			return err
		}
	}
	for _, target := range s.Targets {
		item, err := it.st.Data.Next()
		if err != nil {
			return err
		}
		v, err := it.st.Data.Value(item, state.TypeOf(target.Name))
		if err != nil {
			return err
		}
		if err := it.assign(target, v); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) raiseError(s *ast.RaiseError) error {
	code, err := it.evalInt(s.Code)
	if err != nil {
		return err
	}
	msg, err := it.eval(s.Message)
	if err != nil {
		return err
	}
	if msg.Type != state.StringType {
		return faults.TypeMismatch()
	}
	return faults.User(int(code), msg.Str)
}

func (it *Interpreter) execSwap(s *ast.Swap) error {
	if state.TypeOf(s.A.Name) != state.TypeOf(s.B.Name) {
		return faults.TypeMismatch()
	}
	a, err := it.read(s.A)
	if err != nil {
		return err
	}
	b, err := it.read(s.B)
	if err != nil {
		return err
	}
	if err := it.assign(s.A, b); err != nil {
		return err
	}
	return it.assign(s.B, a)
}

// assign stores into a scalar or an array element.
func (it *Interpreter) assign(target ast.Target, v state.Value) error {
	if !target.IsElement() {
		return it.st.Vars.Set(target.Name, v)
	}
	indices, err := it.evalIndices(target.Indices)
	if err != nil {
		return err
	}
	return it.st.Arrays.Set(target.Name, indices, v)
}

func (it *Interpreter) read(target ast.Target) (state.Value, error) {
	if !target.IsElement() {
		return it.st.Vars.Get(target.Name)
	}
	indices, err := it.evalIndices(target.Indices)
	if err != nil {
		return state.Value{}, err
	}
	return it.st.Arrays.Get(target.Name, indices)
}
