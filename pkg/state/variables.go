package state

import (
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// Variables is the scalar variable store. Integer, real and string
// variables live in separate maps keyed by the full name, sigil included.
// A bare name may also be held in the integer map: FOR loops store an
// all-integer counter there.
type Variables struct {
	ints      map[string]int32
	reals     map[string]float64
	strs      map[string]string
	maxString int
}

// NewVariables creates an empty store. maxString <= 0 selects
// MaxStringLength.
func NewVariables(maxString int) *Variables {
	if maxString <= 0 {
		maxString = MaxStringLength
	}
	v := &Variables{maxString: maxString}
	v.Clear()
	return v
}

// Clear forgets every variable.
func (v *Variables) Clear() {
	v.ints = make(map[string]int32)
	v.reals = make(map[string]float64)
	v.strs = make(map[string]string)
}

// MaxString is the longest string the store accepts.
func (v *Variables) MaxString() int { return v.maxString }

// Get looks a variable up by name. For a name without a sigil the real
// slot is tried first and an integer stored under the same bare name is
// used as a fallback.
func (v *Variables) Get(name string) (Value, error) {
	switch TypeOf(name) {
	case IntegerType:
		if n, ok := v.ints[name]; ok {
			return Int(n), nil
		}
	case StringType:
		if s, ok := v.strs[name]; ok {
			return Str(s), nil
		}
	default:
		if f, ok := v.reals[name]; ok {
			return Real(f), nil
		}
		if n, ok := v.ints[name]; ok {
			return Int(n), nil
		}
	}
	return Value{}, faults.NoSuchVariable(name)
}

// Exists reports whether Get would succeed.
func (v *Variables) Exists(name string) bool {
	_, err := v.Get(name)
	return err == nil
}

// Set stores a value, converting it to the type fixed by the name.
func (v *Variables) Set(name string, val Value) error {
	t := TypeOf(name)
	val, err := val.Coerce(t)
	if err != nil {
		return err
	}
	switch t {
	case IntegerType:
		v.ints[name] = val.Int
	case StringType:
		if len(val.Str) > v.maxString {
			return faults.StringTooLong()
		}
		v.strs[name] = val.Str
	default:
		v.reals[name] = val.Real
	}
	return nil
}

// SetCounter stores a FOR loop counter. An all-integer loop over a bare
// name keeps the counter in the integer slot of that name, which Get
// reaches through its fallback; a real slot of the same name is dropped so
// the counter is visible.
func (v *Variables) SetCounter(name string, val Value) error {
	if TypeOf(name) == RealType && val.Type == IntegerType {
		delete(v.reals, name)
		v.ints[name] = val.Int
		return nil
	}
	return v.Set(name, val)
}

// Slot is the saved state of one name: each typed slot it occupied.
type Slot struct {
	Name    string
	Int     int32
	HasInt  bool
	Real    float64
	HasReal bool
	Str     string
	HasStr  bool
}

// Save captures the current state of a name.
func (v *Variables) Save(name string) Slot {
	s := Slot{Name: name}
	switch TypeOf(name) {
	case IntegerType:
		s.Int, s.HasInt = v.ints[name]
	case StringType:
		s.Str, s.HasStr = v.strs[name]
	default:
		s.Real, s.HasReal = v.reals[name]
		s.Int, s.HasInt = v.ints[name]
	}
	return s
}

// Restore puts a saved name back exactly, removing slots it did not have.
func (v *Variables) Restore(s Slot) {
	restoreSlot(v.ints, s.Name, s.Int, s.HasInt)
	restoreSlot(v.strs, s.Name, s.Str, s.HasStr)
	restoreSlot(v.reals, s.Name, s.Real, s.HasReal)
}

func restoreSlot[T any](m map[string]T, name string, val T, ok bool) {
	if ok {
		m[name] = val
	} else {
		delete(m, name)
	}
}

// Reset rebinds a name to the zero value of its type, dropping any
// integer counter held under a bare name.
func (v *Variables) Reset(name string) {
	switch TypeOf(name) {
	case IntegerType:
		v.ints[name] = 0
	case StringType:
		v.strs[name] = ""
	default:
		delete(v.ints, name)
		v.reals[name] = 0
	}
}

// Len returns the number of defined variables.
func (v *Variables) Len() int {
	return len(v.ints) + len(v.reals) + len(v.strs)
}
