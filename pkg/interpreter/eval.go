package interpreter

import (
	"cmp"
	"math"
	"strings"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

func (it *Interpreter) eval(expr ast.Expression) (state.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return state.Int(e.Value), nil
	case *ast.RealLiteral:
		return state.Real(e.Value), nil
	case *ast.StringLiteral:
		return state.Str(e.Value), nil
	case *ast.Variable:
		return it.st.Vars.Get(e.Name)
	case *ast.Call:
		return it.evalCall(e)
	case *ast.FnCall:
		return it.callFn(e)
	case *ast.Binary:
		return it.evalBinary(e)
	case *ast.Unary:
		return it.evalUnary(e)
	}
	return state.Value{}, faults.Newf(faults.SyntaxFault, faults.CodeMistake, "%s", expr)
}

func (it *Interpreter) evalNumber(expr ast.Expression) (state.Value, error) {
	v, err := it.eval(expr)
	if err != nil {
		return state.Value{}, err
	}
	if !v.IsNumeric() {
		return state.Value{}, faults.TypeMismatch()
	}
	return v, nil
}

func (it *Interpreter) evalInt(expr ast.Expression) (int32, error) {
	v, err := it.eval(expr)
	if err != nil {
		return 0, err
	}
	return v.Integer()
}

func (it *Interpreter) evalBool(expr ast.Expression) (bool, error) {
	v, err := it.eval(expr)
	if err != nil {
		return false, err
	}
	return v.Truthy()
}

func (it *Interpreter) evalIndices(exprs []ast.Expression) ([]int, error) {
	indices := make([]int, len(exprs))
	for i, expr := range exprs {
		n, err := it.evalInt(expr)
		if err != nil {
			return nil, err
		}
		indices[i] = int(n)
	}
	return indices, nil
}

// evalCall resolves name(args): a DIMmed array first, then the error
// pseudo-variables, then the built-in table.
func (it *Interpreter) evalCall(e *ast.Call) (state.Value, error) {
	if it.st.Arrays.Exists(e.Name) {
		indices, err := it.evalIndices(e.Args)
		if err != nil {
			return state.Value{}, err
		}
		return it.st.Arrays.Get(e.Name, indices)
	}

	switch e.Name {
	case "ERR":
		return state.Int(int32(it.st.Errors.Code)), nil
	case "ERL":
		return state.Int(int32(it.st.Errors.Line)), nil
	case "REPORT$":
		return state.Str(it.st.Errors.Message), nil
	}

	if !it.lib.Has(e.Name) {
		return state.Value{}, faults.Newf(faults.UndefinedNameFault, faults.CodeArray, "%s", e.Name)
	}
	args := make([]state.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := it.eval(arg)
		if err != nil {
			return state.Value{}, err
		}
		args[i] = v
	}
	return it.lib.Call(e.Name, args)
}

func (it *Interpreter) evalUnary(e *ast.Unary) (state.Value, error) {
	v, err := it.eval(e.Operand)
	if err != nil {
		return state.Value{}, err
	}
	switch e.Op {
	case "-":
		switch v.Type {
		case state.IntegerType:
			if v.Int == math.MinInt32 {
				return state.Real(-float64(v.Int)), nil
			}
			return state.Int(-v.Int), nil
		case state.RealType:
			return state.Real(-v.Real), nil
		}
		return state.Value{}, faults.TypeMismatch()
	case "+":
		if !v.IsNumeric() {
			return state.Value{}, faults.TypeMismatch()
		}
		return v, nil
	case "NOT":
		n, err := v.Integer()
		if err != nil {
			return state.Value{}, err
		}
		return state.Int(^n), nil
	}
	return state.Value{}, faults.Newf(faults.SyntaxFault, faults.CodeMistake, "operator %s", e.Op)
}

func (it *Interpreter) evalBinary(e *ast.Binary) (state.Value, error) {
	left, err := it.eval(e.Left)
	if err != nil {
		return state.Value{}, err
	}
	right, err := it.eval(e.Right)
	if err != nil {
		return state.Value{}, err
	}

	switch e.Op {
	case "+":
		if left.Type == state.StringType && right.Type == state.StringType {
			return it.concat(left.Str, right.Str)
		}
		return arithmetic(e.Op, left, right)
	case "-", "*":
		return arithmetic(e.Op, left, right)
	case "/":
		return divide(left, right)
	case "^":
		return power(left, right)
	case "DIV", "MOD":
		return integerDivide(e.Op, left, right)
	case "AND", "OR", "EOR":
		return bitwise(e.Op, left, right)
	case "=", "<>", "<", ">", "<=", ">=":
		return compare(e.Op, left, right)
	}
	return state.Value{}, faults.Newf(faults.SyntaxFault, faults.CodeMistake, "operator %s", e.Op)
}

func (it *Interpreter) concat(a, b string) (state.Value, error) {
	limit := it.opts.MaxStringLength
	if limit <= 0 {
		limit = state.MaxStringLength
	}
	if len(a)+len(b) > limit {
		return state.Value{}, faults.StringTooLong()
	}
	return state.Str(a + b), nil
}

func numbers(left, right state.Value) (float64, float64, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return 0, 0, faults.TypeMismatch()
	}
	a, _ := left.Float()
	b, _ := right.Float()
	return a, b, nil
}

func checkReal(f float64) (state.Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return state.Value{}, faults.New(faults.ArithmeticFault, faults.CodeTooBig)
	}
	return state.Real(f), nil
}

// arithmetic does + - * on numbers. Two integers give an integer unless the
// result overflows 32 bits, in which case it becomes real.
func arithmetic(op string, left, right state.Value) (state.Value, error) {
	if left.Type == state.IntegerType && right.Type == state.IntegerType {
		a, b := int64(left.Int), int64(right.Int)
		var r int64
		switch op {
		case "+":
			r = a + b
		case "-":
			r = a - b
		default:
			r = a * b
		}
		if r >= math.MinInt32 && r <= math.MaxInt32 {
			return state.Int(int32(r)), nil
		}
		return state.Real(float64(r)), nil
	}
	a, b, err := numbers(left, right)
	if err != nil {
		return state.Value{}, err
	}
	switch op {
	case "+":
		return checkReal(a + b)
	case "-":
		return checkReal(a - b)
	}
	return checkReal(a * b)
}

func divide(left, right state.Value) (state.Value, error) {
	a, b, err := numbers(left, right)
	if err != nil {
		return state.Value{}, err
	}
	if b == 0 {
		return state.Value{}, faults.DivisionByZero()
	}
	return checkReal(a / b)
}

func power(left, right state.Value) (state.Value, error) {
	a, b, err := numbers(left, right)
	if err != nil {
		return state.Value{}, err
	}
	r := math.Pow(a, b)
	if math.IsNaN(r) {
		return state.Value{}, faults.New(faults.ArithmeticFault, faults.CodeLogRange)
	}
	return checkReal(r)
}

// integerDivide is DIV and MOD: operands truncate to integers and the
// result takes the sign of the dividend.
func integerDivide(op string, left, right state.Value) (state.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return state.Value{}, faults.TypeMismatch()
	}
	a, err := left.Integer()
	if err != nil {
		return state.Value{}, err
	}
	b, err := right.Integer()
	if err != nil {
		return state.Value{}, err
	}
	if b == 0 {
		return state.Value{}, faults.DivisionByZero()
	}
	if op == "MOD" {
		return state.Int(int32(int64(a) % int64(b))), nil
	}
	q := int64(a) / int64(b)
	if q > math.MaxInt32 {
		return state.Value{}, faults.New(faults.RangeFault, faults.CodeTooBig)
	}
	return state.Int(int32(q)), nil
}

func bitwise(op string, left, right state.Value) (state.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return state.Value{}, faults.TypeMismatch()
	}
	a, err := left.Integer()
	if err != nil {
		return state.Value{}, err
	}
	b, err := right.Integer()
	if err != nil {
		return state.Value{}, err
	}
	switch op {
	case "AND":
		return state.Int(a & b), nil
	case "OR":
		return state.Int(a | b), nil
	}
	return state.Int(a ^ b), nil
}

// compare yields -1 for true and 0 for false. Strings compare by byte
// value; a string never compares with a number.
func compare(op string, left, right state.Value) (state.Value, error) {
	var c int
	switch {
	case left.Type == state.StringType && right.Type == state.StringType:
		c = strings.Compare(left.Str, right.Str)
	case left.Type == state.StringType || right.Type == state.StringType:
		return state.Value{}, faults.TypeMismatch()
	case left.Type == state.IntegerType && right.Type == state.IntegerType:
		c = cmp.Compare(left.Int, right.Int)
	default:
		a, _ := left.Float()
		b, _ := right.Float()
		c = cmp.Compare(a, b)
	}

	var result bool
	switch op {
	case "=":
		result = c == 0
	case "<>":
		result = c != 0
	case "<":
		result = c < 0
	case ">":
		result = c > 0
	case "<=":
		result = c <= 0
	default:
		result = c >= 0
	}
	return state.Bool(result), nil
}
