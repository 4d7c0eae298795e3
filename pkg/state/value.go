// Package state holds the runtime data of a BASIC program: typed
// variables, arrays, PROC/FN definitions, the DATA cursor and the
// control-flow frames. It contains no control logic.
package state

import (
	"math"
	"strconv"
	"strings"

	"github.com/agileandy/bbcbasic/pkg/faults"
)

// MaxStringLength is the default longest string a variable can hold.
const MaxStringLength = 255

// Type is the type tag of a value.
type Type int

const (
	IntegerType Type = iota
	RealType
	StringType
)

func (t Type) String() string {
	switch t {
	case IntegerType:
		return "integer"
	case RealType:
		return "real"
	}
	return "string"
}

// TypeOf returns the type fixed by a name's sigil.
func TypeOf(name string) Type {
	if name == "" {
		return RealType
	}
	switch name[len(name)-1] {
	case '%':
		return IntegerType
	case '$':
		return StringType
	}
	return RealType
}

// Value is a tagged BASIC value.
type Value struct {
	Type Type
	Int  int32
	Real float64
	Str  string
}

// Int returns an integer value.
func Int(n int32) Value { return Value{Type: IntegerType, Int: n} }

// Real returns a real value.
func Real(f float64) Value { return Value{Type: RealType, Real: f} }

// Str returns a string value.
func Str(s string) Value { return Value{Type: StringType, Str: s} }

// Bool returns the BASIC truth values -1 and 0.
func Bool(b bool) Value {
	if b {
		return Int(-1)
	}
	return Int(0)
}

// Zero returns the initial value for a type.
func Zero(t Type) Value { return Value{Type: t} }

// IsNumeric reports whether the value is an integer or real.
func (v Value) IsNumeric() bool { return v.Type != StringType }

// Float returns the numeric value as float64.
func (v Value) Float() (float64, error) {
	switch v.Type {
	case IntegerType:
		return float64(v.Int), nil
	case RealType:
		return v.Real, nil
	}
	return 0, faults.TypeMismatch()
}

// Integer converts a numeric value to int32, truncating reals toward zero.
func (v Value) Integer() (int32, error) {
	switch v.Type {
	case IntegerType:
		return v.Int, nil
	case RealType:
		return RealToInt(v.Real)
	}
	return 0, faults.TypeMismatch()
}

// RealToInt truncates toward zero and faults when out of 32-bit range.
func RealToInt(f float64) (int32, error) {
	t := math.Trunc(f)
	if math.IsNaN(t) || t > math.MaxInt32 || t < math.MinInt32 {
		return 0, faults.New(faults.RangeFault, faults.CodeTooBig)
	}
	return int32(t), nil
}

// Truthy reports whether a numeric value is non-zero.
func (v Value) Truthy() (bool, error) {
	switch v.Type {
	case IntegerType:
		return v.Int != 0, nil
	case RealType:
		return v.Real != 0, nil
	}
	return false, faults.TypeMismatch()
}

// Coerce converts v to type t the way assignment does: integers widen to
// reals, reals truncate to integers, strings never mix with numbers.
func (v Value) Coerce(t Type) (Value, error) {
	if v.Type == t {
		return v, nil
	}
	switch t {
	case IntegerType:
		n, err := v.Integer()
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case RealType:
		f, err := v.Float()
		if err != nil {
			return Value{}, err
		}
		return Real(f), nil
	}
	return Value{}, faults.TypeMismatch()
}

// String formats the value the way PRINT shows it.
func (v Value) String() string {
	switch v.Type {
	case IntegerType:
		return strconv.Itoa(int(v.Int))
	case RealType:
		return FormatReal(v.Real)
	}
	return v.Str
}

// FormatReal prints integral reals without a fraction and others with up to
// nine significant digits, using BBC exponent style (1E10, 1.5E-5).
func FormatReal(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e9 {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'g', 9, 64)
	mantissa, exp, hasExp := strings.Cut(s, "e")
	if strings.Contains(mantissa, ".") {
		mantissa = strings.TrimRight(strings.TrimRight(mantissa, "0"), ".")
	}
	if !hasExp {
		return mantissa
	}
	sign := ""
	if exp[0] == '-' {
		sign = "-"
	}
	exp = strings.TrimLeft(exp[1:], "0")
	return mantissa + "E" + sign + exp
}
