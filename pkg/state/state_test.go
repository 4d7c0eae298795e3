package state

import (
	"testing"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
)

func faultCode(t *testing.T, err error) (faults.Kind, int) {
	t.Helper()
	f, ok := faults.As(err)
	if !ok {
		t.Fatalf("expected a fault, got %v", err)
	}
	return f.Kind, f.Code
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1024, "1024"},
		{-3, "-3"},
		{0.5, "0.5"},
		{1.0 / 3.0, "0.333333333"},
		{1e10, "1E10"},
		{1.5e-5, "1.5E-5"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got := FormatReal(tt.in); got != tt.want {
			t.Errorf("FormatReal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueCoerce(t *testing.T) {
	v, err := Real(3.9).Coerce(IntegerType)
	if err != nil || v.Int != 3 {
		t.Errorf("Real(3.9) as integer = %v, %v", v, err)
	}
	v, err = Real(-3.9).Coerce(IntegerType)
	if err != nil || v.Int != -3 {
		t.Errorf("Real(-3.9) as integer = %v, %v", v, err)
	}
	if _, err := Str("x").Coerce(IntegerType); err == nil {
		t.Error("string coerced to integer without a fault")
	}
	if _, err := Int(1).Coerce(StringType); err == nil {
		t.Error("integer coerced to string without a fault")
	}
	if _, err := Real(1e12).Coerce(IntegerType); err == nil {
		t.Error("out-of-range real coerced to integer without a fault")
	}
}

func TestVariablesTypedByName(t *testing.T) {
	vars := NewVariables(0)
	if err := vars.Set("X%", Real(2.7)); err != nil {
		t.Fatal(err)
	}
	v, _ := vars.Get("X%")
	if v.Type != IntegerType || v.Int != 2 {
		t.Errorf("X%% = %+v, want integer 2", v)
	}

	if err := vars.Set("N%", Str("hello")); err == nil {
		t.Error("string stored into N% without a fault")
	} else if kind, _ := faultCode(t, err); kind != faults.TypeFault {
		t.Errorf("got %v fault, want type fault", kind)
	}

	if _, err := vars.Get("UNSET"); err == nil {
		t.Error("unset variable read without a fault")
	} else if kind, code := faultCode(t, err); kind != faults.UndefinedNameFault || code != faults.CodeNoSuchVariable {
		t.Errorf("got %v/%d", kind, code)
	}
}

func TestVariablesIntegerFallback(t *testing.T) {
	vars := NewVariables(0)
	if err := vars.SetCounter("I", Int(3)); err != nil {
		t.Fatal(err)
	}
	v, err := vars.Get("I")
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != IntegerType || v.Int != 3 {
		t.Errorf("I = %+v, want integer 3 through fallback", v)
	}

	// A real slot takes precedence over the integer fallback.
	vars.Set("I", Real(1.5))
	v, _ = vars.Get("I")
	if v.Type != RealType || v.Real != 1.5 {
		t.Errorf("I = %+v, want real 1.5", v)
	}
}

func TestVariablesStringLimit(t *testing.T) {
	vars := NewVariables(4)
	if err := vars.Set("A$", Str("four")); err != nil {
		t.Fatal(err)
	}
	err := vars.Set("A$", Str("fives"))
	if err == nil {
		t.Fatal("over-long string stored")
	}
	if _, code := faultCode(t, err); code != faults.CodeStringTooLong {
		t.Errorf("code = %d, want %d", code, faults.CodeStringTooLong)
	}
}

func TestSaveRestore(t *testing.T) {
	vars := NewVariables(0)
	vars.Set("x", Real(5))

	present := vars.Save("x")
	absent := vars.Save("y")
	vars.Set("x", Real(99))
	vars.Set("y", Real(1))

	vars.Restore(present)
	vars.Restore(absent)

	v, _ := vars.Get("x")
	if v.Real != 5 {
		t.Errorf("x = %v after restore, want 5", v)
	}
	if vars.Exists("y") {
		t.Error("y exists after restoring an absent slot")
	}
}

func TestArrays(t *testing.T) {
	arrays := NewArrays(0)
	if err := arrays.Dim("A%", []int{2, 3}); err != nil {
		t.Fatal(err)
	}
	a, _ := arrays.Lookup("A%")
	if a.Len() != 12 {
		t.Errorf("A%%(2,3) has %d elements, want 12", a.Len())
	}
	if err := arrays.Set("A%", []int{2, 3}, Real(7.8)); err != nil {
		t.Fatal(err)
	}
	v, err := arrays.Get("A%", []int{2, 3})
	if err != nil || v.Int != 7 {
		t.Errorf("A%%(2,3) = %v, %v", v, err)
	}
	v, _ = arrays.Get("A%", []int{0, 0})
	if v.Type != IntegerType || v.Int != 0 {
		t.Errorf("fresh element = %+v", v)
	}

	tests := []struct {
		name    string
		indices []int
	}{
		{"past bound", []int{3, 0}},
		{"negative", []int{-1, 0}},
		{"wrong rank", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := arrays.Get("A%", tt.indices)
			if kind, code := faultCode(t, err); kind != faults.RangeFault || code != faults.CodeSubscript {
				t.Errorf("got %v/%d", kind, code)
			}
		})
	}

	if err := arrays.Dim("A%", []int{1}); err == nil {
		t.Error("redimension allowed")
	}
	if err := arrays.Dim("B", []int{-1}); err == nil {
		t.Error("negative bound allowed")
	}
	if _, err := arrays.Get("Z", []int{0}); err == nil {
		t.Error("undeclared array read")
	} else if kind, _ := faultCode(t, err); kind != faults.UndefinedNameFault {
		t.Errorf("got %v", kind)
	}
}

func TestDataCursor(t *testing.T) {
	var dc DataCursor
	dc.Load([]ast.DataItem{
		{Line: 10, Value: ast.ParseDataValue("1")},
		{Line: 10, Value: ast.ParseDataValue("hello")},
		{Line: 20, Value: ast.ParseDataValue("2.5")},
	})

	item, _ := dc.Next()
	v, err := dc.Value(item, RealType)
	if err != nil || v.Real != 1 {
		t.Errorf("first value = %v, %v", v, err)
	}
	item, _ = dc.Next()
	if _, err := dc.Value(item, IntegerType); err == nil {
		t.Error("string DATA read into integer")
	}
	dc.Next()
	if _, err := dc.Next(); err == nil {
		t.Error("read past end of DATA")
	} else if _, code := faultCode(t, err); code != faults.CodeOutOfData {
		t.Errorf("code = %d", code)
	}

	dc.RestoreLine(15)
	item, _ = dc.Next()
	if item.Line != 20 {
		t.Errorf("RESTORE 15 read line %d, want 20", item.Line)
	}
	dc.Restore()
	if dc.Remaining() != 3 {
		t.Errorf("remaining = %d after RESTORE", dc.Remaining())
	}
}

func TestFramesCallDepth(t *testing.T) {
	f := NewFrames(3, 10)
	for i := 0; i < 2; i++ {
		if err := f.PushCall(GosubCall, "", Pos{Line: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.EnterFn(); err != nil {
		t.Fatal(err)
	}
	err := f.PushCall(ProcCall, "x", Pos{})
	if kind, code := faultCode(t, err); kind != faults.StackFault || code != faults.CodeNoRoom {
		t.Errorf("got %v/%d", kind, code)
	}
	f.ExitFn()

	if _, err := f.PopCall(ProcCall); err == nil {
		t.Error("ENDPROC popped a GOSUB frame")
	}
	top, err := f.PopCall(GosubCall)
	if err != nil || top.Resume.Line != 1 {
		t.Errorf("popped %+v, %v", top, err)
	}
}

func TestFramesReturnDiscardsInnerLoops(t *testing.T) {
	f := NewFrames(0, 0)
	f.PushFor(ForFrame{Variable: "I"})
	f.PushCall(GosubCall, "", Pos{Line: 10})
	f.PushFor(ForFrame{Variable: "J"})
	f.PushRepeat(RepeatFrame{})
	f.PopCall(GosubCall)
	if f.ForDepth() != 1 || f.RepeatDepth() != 0 {
		t.Errorf("after RETURN fors=%d repeats=%d", f.ForDepth(), f.RepeatDepth())
	}
}

func TestFramesNextMatching(t *testing.T) {
	f := NewFrames(0, 0)
	f.PushFor(ForFrame{Variable: "I"})
	f.PushFor(ForFrame{Variable: "J"})

	frame, err := f.FindFor("I")
	if err != nil || frame.Variable != "I" {
		t.Fatalf("FindFor(I) = %+v, %v", frame, err)
	}
	if f.ForDepth() != 1 {
		t.Errorf("inner loop kept: depth %d", f.ForDepth())
	}
	if _, err := f.FindFor("K"); err == nil {
		t.Error("matched a loop that was never opened")
	}

	// Re-running FOR I replaces the open loop.
	f.PushFor(ForFrame{Variable: "I"})
	if f.ForDepth() != 1 {
		t.Errorf("depth %d after re-entering FOR I", f.ForDepth())
	}

	f.PopFor()
	if _, err := f.FindFor(""); err == nil {
		t.Error("NEXT with no loop open")
	}
}

func TestFramesLoopLimit(t *testing.T) {
	f := NewFrames(0, 2)
	f.PushRepeat(RepeatFrame{})
	f.PushWhile(WhileFrame{At: Pos{Line: 10}})
	if err := f.PushRepeat(RepeatFrame{}); err == nil {
		t.Error("loop limit not enforced")
	}
	// The same WHILE re-entered replaces its frame.
	if err := f.PushWhile(WhileFrame{At: Pos{Line: 10}}); err != nil {
		t.Errorf("re-entered WHILE: %v", err)
	}
	if _, err := NewFrames(0, 0).TopWhile(); err == nil {
		t.Error("ENDWHILE with no loop open")
	}
}

func TestScopeRestoresOuterValues(t *testing.T) {
	vars := NewVariables(0)
	vars.Set("x", Real(1))
	f := NewFrames(0, 0)

	if _, err := f.TopScope(); err == nil {
		t.Error("LOCAL allowed outside a scope")
	}

	s := f.PushScope("p")
	s.Shadow(vars, "x")
	vars.Set("x", Real(2))
	s.Shadow(vars, "x")
	vars.Set("x", Real(3))
	s.Shadow(vars, "n%")
	vars.Set("n%", Int(4))

	f.PopScope(vars)
	v, _ := vars.Get("x")
	if v.Real != 1 {
		t.Errorf("x = %v after scope exit, want 1", v)
	}
	if vars.Exists("n%") {
		t.Error("local n% leaked out of its scope")
	}
}

func TestDefinitions(t *testing.T) {
	d := NewDefinitions()
	d.DefineProc(ProcDef{Name: "box", Params: []string{"w"}, Body: Pos{Line: 100, Index: 1}})
	d.DefineProc(ProcDef{Name: "box", Body: Pos{Line: 200, Index: 1}})
	def, err := d.Proc("box")
	if err != nil || def.Body.Line != 200 {
		t.Errorf("Proc(box) = %+v, %v", def, err)
	}
	if _, err := d.Fn("sq"); err == nil {
		t.Error("undefined FN found")
	} else if kind, code := faultCode(t, err); kind != faults.UndefinedNameFault || code != faults.CodeNoSuchFnProc {
		t.Errorf("got %v/%d", kind, code)
	}
}
