package builtins

import (
	"math"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

func (l *Library) registerMath() {
	l.register("SIN", 1, 1, unaryReal(math.Sin, faults.CodeTooBig))
	l.register("COS", 1, 1, unaryReal(math.Cos, faults.CodeTooBig))
	l.register("TAN", 1, 1, unaryReal(math.Tan, faults.CodeTooBig))
	l.register("ATN", 1, 1, unaryReal(math.Atan, faults.CodeTooBig))
	l.register("ASN", 1, 1, unaryReal(math.Asin, faults.CodeNegativeRoot))
	l.register("ACS", 1, 1, unaryReal(math.Acos, faults.CodeNegativeRoot))
	l.register("DEG", 1, 1, unaryReal(func(x float64) float64 { return x * 180 / math.Pi }, faults.CodeTooBig))
	l.register("RAD", 1, 1, unaryReal(func(x float64) float64 { return x * math.Pi / 180 }, faults.CodeTooBig))
	l.register("EXP", 1, 1, unaryReal(math.Exp, faults.CodeExpRange))

	l.register("SQR", 1, 1, func(args []state.Value) (state.Value, error) {
		x, err := number(args[0])
		if err != nil {
			return state.Value{}, err
		}
		if x < 0 {
			return state.Value{}, faults.New(faults.ArithmeticFault, faults.CodeNegativeRoot)
		}
		return state.Real(math.Sqrt(x)), nil
	})
	l.register("LN", 1, 1, logarithm(math.Log))
	l.register("LOG", 1, 1, logarithm(math.Log10))

	l.register("ABS", 1, 1, func(args []state.Value) (state.Value, error) {
		switch v := args[0]; v.Type {
		case state.IntegerType:
			if v.Int == math.MinInt32 {
				return state.Real(-float64(v.Int)), nil
			}
			if v.Int < 0 {
				return state.Int(-v.Int), nil
			}
			return v, nil
		case state.RealType:
			return state.Real(math.Abs(v.Real)), nil
		}
		return state.Value{}, faults.TypeMismatch()
	})
	l.register("SGN", 1, 1, func(args []state.Value) (state.Value, error) {
		x, err := number(args[0])
		if err != nil {
			return state.Value{}, err
		}
		switch {
		case x > 0:
			return state.Int(1), nil
		case x < 0:
			return state.Int(-1), nil
		}
		return state.Int(0), nil
	})
	l.register("INT", 1, 1, func(args []state.Value) (state.Value, error) {
		if args[0].Type == state.IntegerType {
			return args[0], nil
		}
		x, err := number(args[0])
		if err != nil {
			return state.Value{}, err
		}
		return intOrReal(math.Floor(x)), nil
	})

	l.register("PI", 0, 0, func([]state.Value) (state.Value, error) {
		return state.Real(math.Pi), nil
	})
	l.register("TRUE", 0, 0, func([]state.Value) (state.Value, error) {
		return state.Bool(true), nil
	})
	l.register("FALSE", 0, 0, func([]state.Value) (state.Value, error) {
		return state.Bool(false), nil
	})
	l.register("RND", 0, 1, l.rnd)
}

func logarithm(fn func(float64) float64) func([]state.Value) (state.Value, error) {
	return func(args []state.Value) (state.Value, error) {
		x, err := number(args[0])
		if err != nil {
			return state.Value{}, err
		}
		if x <= 0 {
			return state.Value{}, faults.New(faults.ArithmeticFault, faults.CodeLogRange)
		}
		return state.Real(fn(x)), nil
	}
}

// rnd follows the BBC forms: RND gives a random 32-bit integer, RND(1) a
// real in [0,1), RND(n) an integer in 1..n, RND(0) repeats the last RND(1)
// and a negative argument reseeds the generator and returns the argument.
func (l *Library) rnd(args []state.Value) (state.Value, error) {
	if len(args) == 0 {
		return state.Int(int32(l.rng.Uint32())), nil
	}
	n, err := integer(args[0])
	if err != nil {
		return state.Value{}, err
	}
	switch {
	case n < 0:
		l.rng.Seed(int64(n))
		return state.Int(n), nil
	case n == 0:
		return state.Real(l.lastRnd), nil
	case n == 1:
		l.lastRnd = l.rng.Float64()
		return state.Real(l.lastRnd), nil
	}
	return state.Int(1 + l.rng.Int31n(n)), nil
}
