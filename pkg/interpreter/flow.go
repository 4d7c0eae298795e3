package interpreter

import (
	"math"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

func (it *Interpreter) gosub(line int) error {
	if err := it.st.Frames.PushCall(state.GosubCall, "", it.next); err != nil {
		return err
	}
	if err := it.jumpTo(line); err != nil {
		it.st.Frames.PopCall(state.GosubCall)
		return err
	}
	return nil
}

// execOn is ON expr GOTO/GOSUB. A selector outside 1..len(targets) falls
// through to the next statement.
func (it *Interpreter) execOn(selector ast.Expression, targets []int, branch func(int) error) error {
	n, err := it.evalInt(selector)
	if err != nil {
		return err
	}
	if n < 1 || int(n) > len(targets) {
		return nil
	}
	return branch(targets[n-1])
}

// execFor opens a loop. The counter is an integer when the variable is
// integer-typed, or when it has no sigil and start, limit and step are all
// integers; otherwise it is real. The body always runs once.
func (it *Interpreter) execFor(s *ast.For) error {
	start, err := it.evalNumber(s.Start)
	if err != nil {
		return err
	}
	limit, err := it.evalNumber(s.Limit)
	if err != nil {
		return err
	}
	step := state.Int(1)
	if s.Step != nil {
		if step, err = it.evalNumber(s.Step); err != nil {
			return err
		}
	}

	varType := state.TypeOf(s.Variable)
	if varType == state.StringType {
		return faults.TypeMismatch()
	}
	counterType := state.RealType
	if varType == state.IntegerType ||
		(start.Type == state.IntegerType && limit.Type == state.IntegerType && step.Type == state.IntegerType) {
		counterType = state.IntegerType
	}
	if start, err = start.Coerce(counterType); err != nil {
		return err
	}
	if limit, err = limit.Coerce(counterType); err != nil {
		return err
	}
	if step, err = step.Coerce(counterType); err != nil {
		return err
	}
	if (counterType == state.IntegerType && step.Int == 0) || (counterType == state.RealType && step.Real == 0) {
		return faults.New(faults.RangeFault, faults.CodeZeroStep)
	}

	if err := it.st.Vars.SetCounter(s.Variable, start); err != nil {
		return err
	}
	return it.st.Frames.PushFor(state.ForFrame{
		Variable: s.Variable,
		Limit:    limit,
		Step:     step,
		Body:     it.next,
	})
}

// execNext steps each named loop in turn. A loop that continues jumps back
// to its body; one that finishes is closed and the next name is tried.
func (it *Interpreter) execNext(s *ast.Next) error {
	names := s.Variables
	if len(names) == 0 {
		names = []string{""}
	}
	for _, name := range names {
		frame, err := it.st.Frames.FindFor(name)
		if err != nil {
			return err
		}
		current, err := it.st.Vars.Get(frame.Variable)
		if err != nil {
			return err
		}
		next, more, err := advance(current, frame)
		if err != nil {
			return err
		}
		if err := it.st.Vars.SetCounter(frame.Variable, next); err != nil {
			return err
		}
		if more {
			return it.resume(frame.Body)
		}
		it.st.Frames.PopFor()
	}
	return nil
}

// advance adds the step to a counter and reports whether the loop goes on.
func advance(current state.Value, frame *state.ForFrame) (state.Value, bool, error) {
	if current.Type == state.IntegerType && frame.Step.Type == state.IntegerType {
		sum := int64(current.Int) + int64(frame.Step.Int)
		if sum > math.MaxInt32 || sum < math.MinInt32 {
			return current, false, nil
		}
		limit, err := frame.Limit.Integer()
		if err != nil {
			return state.Value{}, false, err
		}
		if frame.Step.Int > 0 {
			return state.Int(int32(sum)), sum <= int64(limit), nil
		}
		return state.Int(int32(sum)), sum >= int64(limit), nil
	}

	cur, err := current.Float()
	if err != nil {
		return state.Value{}, false, err
	}
	step, _ := frame.Step.Float()
	limit, _ := frame.Limit.Float()
	sum := cur + step
	if step > 0 {
		return state.Real(sum), sum <= limit, nil
	}
	return state.Real(sum), sum >= limit, nil
}

func (it *Interpreter) execUntil(s *ast.Until) error {
	frame, err := it.st.Frames.TopRepeat()
	if err != nil {
		return err
	}
	done, err := it.evalBool(s.Condition)
	if err != nil {
		return err
	}
	if !done {
		return it.resume(frame.Body)
	}
	it.st.Frames.PopRepeat()
	return nil
}

// execWhile enters the loop when the condition holds; otherwise it skips
// past the matching ENDWHILE.
func (it *Interpreter) execWhile(s *ast.While) error {
	ok, err := it.evalBool(s.Condition)
	if err != nil {
		return err
	}
	if ok {
		return it.st.Frames.PushWhile(state.WhileFrame{
			Condition: s.Condition,
			At:        it.pos,
			Body:      it.next,
		})
	}
	if top, err := it.st.Frames.TopWhile(); err == nil && top.At == it.pos {
		it.st.Frames.PopWhile()
	}
	after, err := it.findEndWhile(it.next)
	if err != nil {
		return err
	}
	return it.resume(after)
}

// execEndWhile re-evaluates the condition of the innermost WHILE.
func (it *Interpreter) execEndWhile() error {
	frame, err := it.st.Frames.TopWhile()
	if err != nil {
		return err
	}
	ok, err := it.evalBool(frame.Condition)
	if err != nil {
		return err
	}
	if ok {
		return it.resume(frame.Body)
	}
	it.st.Frames.PopWhile()
	return nil
}
