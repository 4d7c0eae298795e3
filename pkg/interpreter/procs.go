package interpreter

import (
	"strings"
	"unicode"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

// lookupProc finds a procedure, rescanning the program once when it is
// unknown, which covers direct mode before the first RUN.
func (it *Interpreter) lookupProc(name string) (state.ProcDef, error) {
	def, err := it.st.Defs.Proc(name)
	if err == nil {
		return def, nil
	}
	it.scanDefinitions()
	if def, err = it.st.Defs.Proc(name); err != nil {
		if broken := it.brokenDefinition("PROC", name); broken != nil {
			return def, broken
		}
	}
	return def, err
}

func (it *Interpreter) lookupFn(name string) (state.FnDef, error) {
	def, err := it.st.Defs.Fn(name)
	if err == nil {
		return def, nil
	}
	it.scanDefinitions()
	if def, err = it.st.Defs.Fn(name); err != nil {
		if broken := it.brokenDefinition("FN", name); broken != nil {
			return def, broken
		}
	}
	return def, err
}

// brokenDefinition returns the parse fault of a DEF line for keyword and
// name that scanDefinitions had to skip, or nil.
func (it *Interpreter) brokenDefinition(keyword, name string) error {
	for _, line := range it.prog.Lines() {
		text, _ := it.prog.Text(line)
		if !definesName(text, keyword, name) {
			continue
		}
		if _, err := it.instrs(line); err != nil {
			return err
		}
	}
	return nil
}

// definesName reports whether text starts with DEF keyword followed by
// exactly name.
func definesName(text, keyword, name string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(text), "DEF")
	if !ok {
		return false
	}
	rest, ok = strings.CutPrefix(strings.TrimLeft(rest, " "), keyword)
	if !ok {
		return false
	}
	rest, ok = strings.CutPrefix(strings.TrimLeft(rest, " "), name)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	c := rest[0]
	return !(c == '_' || c == '$' || c == '%' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)))
}

// evalArgs evaluates actual arguments in the caller's scope and checks the
// count against the formal parameters.
func (it *Interpreter) evalArgs(name string, params []string, args []ast.Expression) ([]state.Value, error) {
	if len(args) != len(params) {
		return nil, faults.Newf(faults.TypeFault, faults.CodeArguments, "%s", name)
	}
	values := make([]state.Value, len(args))
	for i, arg := range args {
		v, err := it.eval(arg)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// bind makes each parameter local to scope and assigns its argument.
func (it *Interpreter) bind(scope *state.Scope, params []string, args []state.Value) error {
	for i, param := range params {
		scope.Shadow(it.st.Vars, param)
		it.st.Vars.Reset(param)
		if err := it.st.Vars.Set(param, args[i]); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) callProc(s *ast.ProcCall) error {
	def, err := it.lookupProc(s.Name)
	if err != nil {
		return err
	}
	args, err := it.evalArgs("PROC"+s.Name, def.Params, s.Args)
	if err != nil {
		return err
	}

	frames := it.st.Frames
	if err := frames.PushCall(state.ProcCall, s.Name, it.next); err != nil {
		return err
	}
	scope := frames.PushScope("PROC" + s.Name)
	err = it.bind(scope, def.Params, args)
	if err == nil {
		err = it.resume(def.Body)
	}
	if err != nil {
		frames.PopScope(it.st.Vars)
		frames.PopCall(state.ProcCall)
		return err
	}
	return nil
}

// endProc restores the procedure's locals and returns to the caller.
func (it *Interpreter) endProc() error {
	frame, err := it.st.Frames.PopCall(state.ProcCall)
	if err != nil {
		return err
	}
	it.st.Frames.PopScope(it.st.Vars)
	return it.resume(frame.Resume)
}

func (it *Interpreter) execLocal(s *ast.Local) error {
	scope, err := it.st.Frames.TopScope()
	if err != nil {
		return err
	}
	for _, name := range s.Names {
		scope.Shadow(it.st.Vars, name)
		it.st.Vars.Reset(name)
	}
	return nil
}

// callFn evaluates a user function in its own scope. The scope is restored
// however the body finishes, so a faulting FN never leaks its locals.
func (it *Interpreter) callFn(e *ast.FnCall) (state.Value, error) {
	def, err := it.lookupFn(e.Name)
	if err != nil {
		return state.Value{}, err
	}
	args, err := it.evalArgs("FN"+e.Name, def.Params, e.Args)
	if err != nil {
		return state.Value{}, err
	}

	frames := it.st.Frames
	if err := frames.EnterFn(); err != nil {
		return state.Value{}, err
	}
	defer frames.ExitFn()
	scope := frames.PushScope("FN" + e.Name)
	defer frames.PopScope(it.st.Vars)

	if err := it.bind(scope, def.Params, args); err != nil {
		return state.Value{}, err
	}
	return it.eval(def.Expr)
}
