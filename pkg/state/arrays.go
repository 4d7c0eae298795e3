package state

import (
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// maxArrayElements caps the storage a single DIM may request.
const maxArrayElements = 1 << 20

// Array is a DIMmed array. Each dimension holds bound+1 elements, stored
// row-major.
type Array struct {
	Name   string
	Type   Type
	Dims   []int
	values []Value
}

func (a *Array) offset(indices []int) (int, error) {
	if len(indices) != len(a.Dims) {
		return 0, faults.Subscript(a.Name)
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.Dims[i] {
			return 0, faults.Subscript(a.Name)
		}
		off = off*a.Dims[i] + idx
	}
	return off, nil
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.values) }

// Arrays holds every array declared by DIM.
type Arrays struct {
	arrays    map[string]*Array
	maxString int
}

// NewArrays creates an empty array table.
func NewArrays(maxString int) *Arrays {
	if maxString <= 0 {
		maxString = MaxStringLength
	}
	return &Arrays{arrays: make(map[string]*Array), maxString: maxString}
}

// Clear forgets every array.
func (as *Arrays) Clear() {
	as.arrays = make(map[string]*Array)
}

// Dim declares an array with inclusive upper bounds. Redeclaring a name or
// giving a negative bound is a Bad DIM fault.
func (as *Arrays) Dim(name string, bounds []int) error {
	if _, ok := as.arrays[name]; ok {
		return faults.Newf(faults.RangeFault, faults.CodeBadDim, "%s", name)
	}
	if len(bounds) == 0 {
		return faults.Newf(faults.RangeFault, faults.CodeBadDim, "%s", name)
	}
	dims := make([]int, len(bounds))
	size := 1
	for i, b := range bounds {
		if b < 0 {
			return faults.Newf(faults.RangeFault, faults.CodeBadDim, "%s", name)
		}
		dims[i] = b + 1
		size *= dims[i]
		if size > maxArrayElements {
			return faults.Newf(faults.StackFault, faults.CodeNoRoom, "DIM %s", name)
		}
	}
	t := TypeOf(name)
	values := make([]Value, size)
	for i := range values {
		values[i] = Zero(t)
	}
	as.arrays[name] = &Array{Name: name, Type: t, Dims: dims, values: values}
	return nil
}

// Lookup returns the array declared under name.
func (as *Arrays) Lookup(name string) (*Array, bool) {
	a, ok := as.arrays[name]
	return a, ok
}

// Exists reports whether name has been DIMmed.
func (as *Arrays) Exists(name string) bool {
	_, ok := as.arrays[name]
	return ok
}

func (as *Arrays) lookup(name string) (*Array, error) {
	a, ok := as.arrays[name]
	if !ok {
		return nil, faults.Newf(faults.UndefinedNameFault, faults.CodeArray, "%s", name)
	}
	return a, nil
}

// Get reads one element.
func (as *Arrays) Get(name string, indices []int) (Value, error) {
	a, err := as.lookup(name)
	if err != nil {
		return Value{}, err
	}
	off, err := a.offset(indices)
	if err != nil {
		return Value{}, err
	}
	return a.values[off], nil
}

// Set writes one element, coercing the value to the array's type.
func (as *Arrays) Set(name string, indices []int, val Value) error {
	a, err := as.lookup(name)
	if err != nil {
		return err
	}
	off, err := a.offset(indices)
	if err != nil {
		return err
	}
	val, err = val.Coerce(a.Type)
	if err != nil {
		return err
	}
	if a.Type == StringType && len(val.Str) > as.maxString {
		return faults.StringTooLong()
	}
	a.values[off] = val
	return nil
}
