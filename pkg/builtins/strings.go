package builtins

import (
	"strconv"
	"strings"

	"github.com/agileandy/bbcbasic/pkg/faults"
	"github.com/agileandy/bbcbasic/pkg/state"
)

func (l *Library) registerStrings() {
	l.register("LEN", 1, 1, func(args []state.Value) (state.Value, error) {
		s, err := text(args[0])
		if err != nil {
			return state.Value{}, err
		}
		return state.Int(int32(len(s))), nil
	})
	l.register("ASC", 1, 1, func(args []state.Value) (state.Value, error) {
		s, err := text(args[0])
		if err != nil {
			return state.Value{}, err
		}
		if s == "" {
			return state.Int(-1), nil
		}
		return state.Int(int32(s[0])), nil
	})
	l.register("CHR$", 1, 1, func(args []state.Value) (state.Value, error) {
		n, err := integer(args[0])
		if err != nil {
			return state.Value{}, err
		}
		return state.Str(string([]byte{byte(n & 0xFF)})), nil
	})
	l.register("LEFT$", 2, 2, func(args []state.Value) (state.Value, error) {
		s, n, err := stringAndCount(args)
		if err != nil {
			return state.Value{}, err
		}
		return state.Str(s[:n]), nil
	})
	l.register("RIGHT$", 2, 2, func(args []state.Value) (state.Value, error) {
		s, n, err := stringAndCount(args)
		if err != nil {
			return state.Value{}, err
		}
		return state.Str(s[len(s)-n:]), nil
	})
	l.register("MID$", 2, 3, midString)
	l.register("INSTR", 2, 3, instr)
	l.register("STR$", 1, 1, func(args []state.Value) (state.Value, error) {
		if !args[0].IsNumeric() {
			return state.Value{}, faults.TypeMismatch()
		}
		return state.Str(args[0].String()), nil
	})
	l.register("VAL", 1, 1, func(args []state.Value) (state.Value, error) {
		s, err := text(args[0])
		if err != nil {
			return state.Value{}, err
		}
		return Val(s), nil
	})
	l.register("STRING$", 2, 2, func(args []state.Value) (state.Value, error) {
		n, err := integer(args[0])
		if err != nil {
			return state.Value{}, err
		}
		s, err := text(args[1])
		if err != nil {
			return state.Value{}, err
		}
		if n <= 0 || s == "" {
			return state.Str(""), nil
		}
		if int(n)*len(s) > l.maxString {
			return state.Value{}, faults.StringTooLong()
		}
		return state.Str(strings.Repeat(s, int(n))), nil
	})
}

// stringAndCount reads (string, n) with n clamped to 0..len(string).
func stringAndCount(args []state.Value) (string, int, error) {
	s, err := text(args[0])
	if err != nil {
		return "", 0, err
	}
	n, err := integer(args[1])
	if err != nil {
		return "", 0, err
	}
	return s, clamp(int(n), 0, len(s)), nil
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

// midString is MID$(s, start [, length]) with a 1-based start.
func midString(args []state.Value) (state.Value, error) {
	s, err := text(args[0])
	if err != nil {
		return state.Value{}, err
	}
	start, err := integer(args[1])
	if err != nil {
		return state.Value{}, err
	}
	from := clamp(int(start)-1, 0, len(s))
	to := len(s)
	if len(args) == 3 {
		n, err := integer(args[2])
		if err != nil {
			return state.Value{}, err
		}
		to = from + clamp(int(n), 0, len(s)-from)
	}
	return state.Str(s[from:to]), nil
}

// instr is INSTR(haystack, needle [, start]); it returns the 1-based
// position of needle at or after start, or 0.
func instr(args []state.Value) (state.Value, error) {
	hay, err := text(args[0])
	if err != nil {
		return state.Value{}, err
	}
	needle, err := text(args[1])
	if err != nil {
		return state.Value{}, err
	}
	start := 1
	if len(args) == 3 {
		n, err := integer(args[2])
		if err != nil {
			return state.Value{}, err
		}
		start = max(int(n), 1)
	}
	if start > len(hay)+1 {
		return state.Int(0), nil
	}
	idx := strings.Index(hay[start-1:], needle)
	if idx < 0 {
		return state.Int(0), nil
	}
	return state.Int(int32(start + idx)), nil
}

// Val reads the longest numeric prefix of s, ignoring leading spaces.
// Text with no numeric prefix is 0.
func Val(s string) state.Value {
	s = strings.TrimLeft(s, " ")
	end := numericPrefix(s)
	if end == 0 {
		return state.Int(0)
	}
	prefix := s[:end]
	if n, err := strconv.ParseInt(prefix, 10, 32); err == nil {
		return state.Int(int32(n))
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return state.Int(0)
	}
	return state.Real(f)
}

func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'E' || s[i] == 'e') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
