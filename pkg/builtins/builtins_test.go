package builtins

import (
	"math"
	"testing"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

func call(t *testing.T, lib *Library, name string, args ...state.Value) state.Value {
	t.Helper()
	v, err := lib.Call(name, args)
	if err != nil {
		t.Fatalf("%s%v: %v", name, args, err)
	}
	return v
}

func TestStringFunctions(t *testing.T) {
	lib := New(1, 0)
	tests := []struct {
		name string
		fn   string
		args []state.Value
		want string
	}{
		{"left", "LEFT$", []state.Value{state.Str("HELLO"), state.Int(2)}, "HE"},
		{"left past end", "LEFT$", []state.Value{state.Str("HI"), state.Int(9)}, "HI"},
		{"right", "RIGHT$", []state.Value{state.Str("HELLO"), state.Int(3)}, "LLO"},
		{"mid with length", "MID$", []state.Value{state.Str("HELLO"), state.Int(2), state.Int(3)}, "ELL"},
		{"mid to end", "MID$", []state.Value{state.Str("HELLO"), state.Int(4)}, "LO"},
		{"mid past end", "MID$", []state.Value{state.Str("HELLO"), state.Int(9)}, ""},
		{"chr", "CHR$", []state.Value{state.Int(65)}, "A"},
		{"str integer", "STR$", []state.Value{state.Int(42)}, "42"},
		{"str real", "STR$", []state.Value{state.Real(2.5)}, "2.5"},
		{"string repeat", "STRING$", []state.Value{state.Int(3), state.Str("ab")}, "ababab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := call(t, lib, tt.fn, tt.args...); got.Str != tt.want {
				t.Errorf("%s = %q, want %q", tt.fn, got.Str, tt.want)
			}
		})
	}
}

func TestNumericFunctions(t *testing.T) {
	lib := New(1, 0)
	tests := []struct {
		name string
		fn   string
		arg  state.Value
		want float64
	}{
		{"abs integer", "ABS", state.Int(-4), 4},
		{"abs real", "ABS", state.Real(-1.5), 1.5},
		{"int floors", "INT", state.Real(-2.5), -3},
		{"int positive", "INT", state.Real(2.9), 2},
		{"sgn", "SGN", state.Real(-0.1), -1},
		{"sqr", "SQR", state.Int(16), 4},
		{"len", "LEN", state.Str("four"), 4},
		{"asc", "ASC", state.Str("A"), 65},
		{"asc empty", "ASC", state.Str(""), -1},
		{"val", "VAL", state.Str("12.5abc"), 12.5},
		{"val junk", "VAL", state.Str("abc"), 0},
		{"val exponent", "VAL", state.Str(" 1E3"), 1000},
		{"deg", "DEG", state.Real(math.Pi), 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, lib, tt.fn, tt.arg).Float()
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s(%v) = %v, want %v", tt.fn, tt.arg, got, tt.want)
			}
		})
	}
}

func TestInstr(t *testing.T) {
	lib := New(1, 0)
	tests := []struct {
		args []state.Value
		want int32
	}{
		{[]state.Value{state.Str("HELLO"), state.Str("L")}, 3},
		{[]state.Value{state.Str("HELLO"), state.Str("L"), state.Int(4)}, 4},
		{[]state.Value{state.Str("HELLO"), state.Str("Z")}, 0},
		{[]state.Value{state.Str("HI"), state.Str("I"), state.Int(9)}, 0},
	}
	for _, tt := range tests {
		if got := call(t, lib, "INSTR", tt.args...); got.Int != tt.want {
			t.Errorf("INSTR%v = %d, want %d", tt.args, got.Int, tt.want)
		}
	}
}

func TestDomainFaults(t *testing.T) {
	lib := New(1, 0)
	tests := []struct {
		fn   string
		arg  state.Value
		code int
	}{
		{"SQR", state.Int(-1), faults.CodeNegativeRoot},
		{"LN", state.Int(0), faults.CodeLogRange},
		{"LOG", state.Real(-2), faults.CodeLogRange},
		{"EXP", state.Int(1000), faults.CodeExpRange},
		{"ASN", state.Int(2), faults.CodeNegativeRoot},
	}
	for _, tt := range tests {
		_, err := lib.Call(tt.fn, []state.Value{tt.arg})
		f, ok := faults.As(err)
		if !ok || f.Kind != faults.ArithmeticFault || f.Code != tt.code {
			t.Errorf("%s(%v) err = %v, want arithmetic fault %d", tt.fn, tt.arg, err, tt.code)
		}
	}
}

func TestArgumentChecks(t *testing.T) {
	lib := New(1, 0)
	_, err := lib.Call("LEFT$", []state.Value{state.Str("x")})
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeArguments {
		t.Errorf("LEFT$ with one argument: %v", err)
	}
	_, err = lib.Call("LEN", []state.Value{state.Int(1)})
	if f, ok := faults.As(err); !ok || f.Kind != faults.TypeFault {
		t.Errorf("LEN of a number: %v", err)
	}
	_, err = lib.Call("NOPE", nil)
	if f, ok := faults.As(err); !ok || f.Kind != faults.UndefinedNameFault {
		t.Errorf("unknown function: %v", err)
	}
	_, err = New(1, 5).Call("STRING$", []state.Value{state.Int(6), state.Str("x")})
	if f, ok := faults.As(err); !ok || f.Code != faults.CodeStringTooLong {
		t.Errorf("long STRING$: %v", err)
	}
}

func TestRnd(t *testing.T) {
	lib := New(42, 0)
	for i := 0; i < 100; i++ {
		v := call(t, lib, "RND", state.Int(6))
		if v.Int < 1 || v.Int > 6 {
			t.Fatalf("RND(6) = %d", v.Int)
		}
		f := call(t, lib, "RND", state.Int(1))
		if f.Real < 0 || f.Real >= 1 {
			t.Fatalf("RND(1) = %v", f.Real)
		}
		if again := call(t, lib, "RND", state.Int(0)); again.Real != f.Real {
			t.Fatalf("RND(0) = %v, want %v", again.Real, f.Real)
		}
	}

	// Reseeding repeats the sequence.
	call(t, lib, "RND", state.Int(-7))
	first := call(t, lib, "RND", state.Int(1000)).Int
	call(t, lib, "RND", state.Int(-7))
	if second := call(t, lib, "RND", state.Int(1000)).Int; second != first {
		t.Errorf("sequence after reseed: %d then %d", first, second)
	}
}
