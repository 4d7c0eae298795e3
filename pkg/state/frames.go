package state

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// Pos addresses one statement: a program line and the index of the
// statement within that line's flattened statement list.
type Pos struct {
	Line  int
	Index int
}

// CallKind tells GOSUB frames from PROC frames on the shared return stack.
type CallKind int

const (
	GosubCall CallKind = iota
	ProcCall
)

// CallFrame is one entry of the return stack. The loop heights record the
// loop stacks at the time of the call so a return can discard loops left
// open inside the subroutine.
type CallFrame struct {
	Kind    CallKind
	Name    string
	Resume  Pos
	fors    int
	repeats int
	whiles  int
}

// ForFrame is an active FOR loop. Body is the statement after the FOR.
type ForFrame struct {
	Variable string
	Limit    Value
	Step     Value
	Body     Pos
}

// RepeatFrame is an active REPEAT loop.
type RepeatFrame struct {
	Body Pos
}

// WhileFrame is an active WHILE loop. The condition is kept so ENDWHILE can
// evaluate it again; At is the WHILE statement itself.
type WhileFrame struct {
	Condition ast.Expression
	At        Pos
	Body      Pos
}

// Scope records the prior state of every name a PROC or FN made local.
type Scope struct {
	Name  string
	saved []Slot
	seen  map[string]bool
}

// Shadow records the current state of name unless the scope already holds
// it. Only the first save of a name is kept, so the outer value comes back.
func (s *Scope) Shadow(vars *Variables, name string) {
	if s.seen[name] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[name] = true
	s.saved = append(s.saved, vars.Save(name))
}

// Restore puts every shadowed name back.
func (s *Scope) Restore(vars *Variables) {
	for i := len(s.saved) - 1; i >= 0; i-- {
		vars.Restore(s.saved[i])
	}
}

// Len returns the number of shadowed names.
func (s *Scope) Len() int { return len(s.saved) }

// Frames holds the return stack, the three loop stacks and the scope stack.
// Call depth counts return frames plus FN evaluations in progress.
type Frames struct {
	calls   []CallFrame
	fors    []ForFrame
	repeats []RepeatFrame
	whiles  []WhileFrame
	scopes  []*Scope
	fnDepth int

	maxCalls int
	maxLoops int
}

// NewFrames creates empty stacks with the given limits.
func NewFrames(maxCalls, maxLoops int) *Frames {
	if maxCalls <= 0 {
		maxCalls = 256
	}
	if maxLoops <= 0 {
		maxLoops = 200
	}
	return &Frames{maxCalls: maxCalls, maxLoops: maxLoops}
}

// Reset empties every stack.
func (f *Frames) Reset() {
	f.calls = nil
	f.fors = nil
	f.repeats = nil
	f.whiles = nil
	f.scopes = nil
	f.fnDepth = 0
}

// CallDepth returns the number of active GOSUB, PROC and FN calls.
func (f *Frames) CallDepth() int { return len(f.calls) + f.fnDepth }

func (f *Frames) checkCallDepth() error {
	if f.CallDepth() >= f.maxCalls {
		return faults.Newf(faults.StackFault, faults.CodeNoRoom, "call depth %d", f.maxCalls)
	}
	return nil
}

// PushCall pushes a return frame.
func (f *Frames) PushCall(kind CallKind, name string, resume Pos) error {
	if err := f.checkCallDepth(); err != nil {
		return err
	}
	f.calls = append(f.calls, CallFrame{
		Kind:    kind,
		Name:    name,
		Resume:  resume,
		fors:    len(f.fors),
		repeats: len(f.repeats),
		whiles:  len(f.whiles),
	})
	return nil
}

// PopCall pops the top return frame, which must be of the given kind, and
// discards loops opened since the call.
func (f *Frames) PopCall(kind CallKind) (CallFrame, error) {
	if len(f.calls) == 0 || f.calls[len(f.calls)-1].Kind != kind {
		if kind == ProcCall {
			return CallFrame{}, faults.New(faults.StackFault, faults.CodeNoProc)
		}
		return CallFrame{}, faults.New(faults.StackFault, faults.CodeNoGosub)
	}
	top := f.calls[len(f.calls)-1]
	f.calls = f.calls[:len(f.calls)-1]
	f.fors = f.fors[:min(top.fors, len(f.fors))]
	f.repeats = f.repeats[:min(top.repeats, len(f.repeats))]
	f.whiles = f.whiles[:min(top.whiles, len(f.whiles))]
	return top, nil
}

// Calls returns a copy of the return stack, innermost last.
func (f *Frames) Calls() []CallFrame {
	return append([]CallFrame(nil), f.calls...)
}

// EnterFn counts an FN evaluation against the call depth.
func (f *Frames) EnterFn() error {
	if err := f.checkCallDepth(); err != nil {
		return err
	}
	f.fnDepth++
	return nil
}

// ExitFn ends an FN evaluation.
func (f *Frames) ExitFn() {
	if f.fnDepth > 0 {
		f.fnDepth--
	}
}

func (f *Frames) loopDepth() int {
	return len(f.fors) + len(f.repeats) + len(f.whiles)
}

// PushFor opens a FOR loop. An open loop over the same variable is closed
// first, together with every loop nested inside it, so re-running a FOR
// does not leak frames.
func (f *Frames) PushFor(frame ForFrame) error {
	floor := 0
	if len(f.calls) > 0 {
		floor = f.calls[len(f.calls)-1].fors
	}
	for i := len(f.fors) - 1; i >= floor; i-- {
		if f.fors[i].Variable == frame.Variable {
			f.fors = f.fors[:i]
			break
		}
	}
	if f.loopDepth() >= f.maxLoops {
		return faults.New(faults.StackFault, faults.CodeTooManyFors)
	}
	f.fors = append(f.fors, frame)
	return nil
}

// FindFor locates the loop NEXT closes. An empty name means the innermost
// loop. Loops nested inside the match are discarded.
func (f *Frames) FindFor(name string) (*ForFrame, error) {
	if len(f.fors) == 0 {
		return nil, faults.New(faults.StackFault, faults.CodeNoFor)
	}
	if name == "" {
		return &f.fors[len(f.fors)-1], nil
	}
	for i := len(f.fors) - 1; i >= 0; i-- {
		if f.fors[i].Variable == name {
			f.fors = f.fors[:i+1]
			return &f.fors[i], nil
		}
	}
	return nil, faults.Newf(faults.StackFault, faults.CodeCantMatchFor, "%s", name)
}

// PopFor closes the innermost FOR loop.
func (f *Frames) PopFor() {
	if len(f.fors) > 0 {
		f.fors = f.fors[:len(f.fors)-1]
	}
}

// ForDepth returns the number of open FOR loops.
func (f *Frames) ForDepth() int { return len(f.fors) }

// PushRepeat opens a REPEAT loop.
func (f *Frames) PushRepeat(frame RepeatFrame) error {
	if f.loopDepth() >= f.maxLoops {
		return faults.New(faults.StackFault, faults.CodeTooManyRepeats)
	}
	f.repeats = append(f.repeats, frame)
	return nil
}

// TopRepeat returns the innermost REPEAT loop.
func (f *Frames) TopRepeat() (RepeatFrame, error) {
	if len(f.repeats) == 0 {
		return RepeatFrame{}, faults.New(faults.StackFault, faults.CodeNoRepeat)
	}
	return f.repeats[len(f.repeats)-1], nil
}

// PopRepeat closes the innermost REPEAT loop.
func (f *Frames) PopRepeat() {
	if len(f.repeats) > 0 {
		f.repeats = f.repeats[:len(f.repeats)-1]
	}
}

// RepeatDepth returns the number of open REPEAT loops.
func (f *Frames) RepeatDepth() int { return len(f.repeats) }

// PushWhile opens a WHILE loop. A WHILE re-entered at the same position
// replaces its own open frame.
func (f *Frames) PushWhile(frame WhileFrame) error {
	if n := len(f.whiles); n > 0 && f.whiles[n-1].At == frame.At {
		f.whiles[n-1] = frame
		return nil
	}
	if f.loopDepth() >= f.maxLoops {
		return faults.New(faults.StackFault, faults.CodeTooManyWhiles)
	}
	f.whiles = append(f.whiles, frame)
	return nil
}

// TopWhile returns the innermost WHILE loop.
func (f *Frames) TopWhile() (WhileFrame, error) {
	if len(f.whiles) == 0 {
		return WhileFrame{}, faults.New(faults.StackFault, faults.CodeNoWhile)
	}
	return f.whiles[len(f.whiles)-1], nil
}

// PopWhile closes the innermost WHILE loop.
func (f *Frames) PopWhile() {
	if len(f.whiles) > 0 {
		f.whiles = f.whiles[:len(f.whiles)-1]
	}
}

// WhileDepth returns the number of open WHILE loops.
func (f *Frames) WhileDepth() int { return len(f.whiles) }

// PushScope opens a local scope for a PROC or FN.
func (f *Frames) PushScope(name string) *Scope {
	s := &Scope{Name: name}
	f.scopes = append(f.scopes, s)
	return s
}

// TopScope returns the innermost scope; LOCAL outside any PROC or FN is a
// Not LOCAL fault.
func (f *Frames) TopScope() (*Scope, error) {
	if len(f.scopes) == 0 {
		return nil, faults.New(faults.StackFault, faults.CodeNotLocal)
	}
	return f.scopes[len(f.scopes)-1], nil
}

// PopScope restores and removes the innermost scope.
func (f *Frames) PopScope(vars *Variables) {
	if len(f.scopes) == 0 {
		return
	}
	s := f.scopes[len(f.scopes)-1]
	f.scopes = f.scopes[:len(f.scopes)-1]
	s.Restore(vars)
}

// ScopeDepth returns the number of open scopes.
func (f *Frames) ScopeDepth() int { return len(f.scopes) }
