package state

import (
	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// DataCursor walks the DATA values gathered from the whole program.
type DataCursor struct {
	items []ast.DataItem
	pos   int
}

// Load replaces the value sequence and rewinds.
func (dc *DataCursor) Load(items []ast.DataItem) {
	dc.items = items
	dc.pos = 0
}

// Next returns the next value; running off the end is an Out of DATA fault.
func (dc *DataCursor) Next() (ast.DataItem, error) {
	if dc.pos >= len(dc.items) {
		return ast.DataItem{}, faults.New(faults.RangeFault, faults.CodeOutOfData)
	}
	item := dc.items[dc.pos]
	dc.pos++
	return item, nil
}

// Restore rewinds to the first value.
func (dc *DataCursor) Restore() { dc.pos = 0 }

// RestoreLine moves to the first value on or after line. A line beyond the
// last DATA leaves the cursor exhausted.
func (dc *DataCursor) RestoreLine(line int) {
	dc.pos = len(dc.items)
	for i, item := range dc.items {
		if item.Line >= line {
			dc.pos = i
			return
		}
	}
}

// Remaining returns how many values are left to READ.
func (dc *DataCursor) Remaining() int { return len(dc.items) - dc.pos }

// Value converts a DATA item for a target of type t. String targets take the
// item text as written; numeric targets need a numeric item.
func (dc *DataCursor) Value(item ast.DataItem, t Type) (Value, error) {
	v := item.Value
	if t == StringType {
		return Str(v.Text), nil
	}
	switch v.Kind {
	case ast.DataInteger:
		return Int(v.Int).Coerce(t)
	case ast.DataReal:
		return Real(v.Real).Coerce(t)
	}
	return Value{}, faults.TypeMismatch()
}
