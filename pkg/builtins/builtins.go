// Package builtins is the table of host functions the expression evaluator
// calls by name: maths, strings and conversions.
package builtins

import (
	"math"
	"math/rand"
	"sort"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

// Func is one built-in. MaxArgs < 0 means no upper limit.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int
	Call    func(args []state.Value) (state.Value, error)
}

// Library holds the function table and the RND generator.
type Library struct {
	funcs     map[string]Func
	rng       *rand.Rand
	lastRnd   float64
	maxString int
}

// New builds the library. A zero seed seeds from the clock source of
// math/rand; maxString <= 0 selects state.MaxStringLength.
func New(seed int64, maxString int) *Library {
	if maxString <= 0 {
		maxString = state.MaxStringLength
	}
	l := &Library{funcs: make(map[string]Func), maxString: maxString}
	if seed == 0 {
		seed = rand.Int63()
	}
	l.rng = rand.New(rand.NewSource(seed))
	l.registerMath()
	l.registerStrings()
	return l
}

func (l *Library) register(name string, minArgs, maxArgs int, call func([]state.Value) (state.Value, error)) {
	l.funcs[name] = Func{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Call: call}
}

// Has reports whether name is a built-in.
func (l *Library) Has(name string) bool {
	_, ok := l.funcs[name]
	return ok
}

// Names lists the built-ins, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.funcs))
	for name := range l.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call checks the argument count and invokes a built-in.
func (l *Library) Call(name string, args []state.Value) (state.Value, error) {
	fn, ok := l.funcs[name]
	if !ok {
		return state.Value{}, faults.Newf(faults.UndefinedNameFault, faults.CodeNoSuchFnProc, "%s", name)
	}
	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return state.Value{}, faults.Newf(faults.TypeFault, faults.CodeArguments, "%s", name)
	}
	return fn.Call(args)
}

// Seed restarts the RND sequence.
func (l *Library) Seed(seed int64) {
	l.rng.Seed(seed)
}

func number(v state.Value) (float64, error) {
	return v.Float()
}

func integer(v state.Value) (int32, error) {
	return v.Integer()
}

func text(v state.Value) (string, error) {
	if v.Type != state.StringType {
		return "", faults.TypeMismatch()
	}
	return v.Str, nil
}

// realResult returns f, faulting on NaN or infinity with the given code.
func realResult(f float64, code int) (state.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return state.Value{}, faults.New(faults.ArithmeticFault, code)
	}
	return state.Real(f), nil
}

// intOrReal returns an integer when f is integral and fits in 32 bits.
func intOrReal(f float64) state.Value {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return state.Int(int32(f))
	}
	return state.Real(f)
}

func unaryReal(fn func(float64) float64, code int) func([]state.Value) (state.Value, error) {
	return func(args []state.Value) (state.Value, error) {
		x, err := number(args[0])
		if err != nil {
			return state.Value{}, err
		}
		return realResult(fn(x), code)
	}
}
