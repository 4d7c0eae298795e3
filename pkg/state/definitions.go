package state

import (
	"sort"

	"github.com/agileandy/bbcbasic/pkg/ast"
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// ProcDef is a procedure: its body starts at Body, the statement after
// DEF PROC.
type ProcDef struct {
	Name   string
	Params []string
	Body   Pos
}

// FnDef is a single-expression function.
type FnDef struct {
	Name   string
	Params []string
	Expr   ast.Expression
	Line   int
}

// Definitions holds the PROC and FN tables. A later definition of the same
// name replaces an earlier one.
type Definitions struct {
	procs map[string]ProcDef
	fns   map[string]FnDef
}

// NewDefinitions creates empty tables.
func NewDefinitions() *Definitions {
	d := &Definitions{}
	d.Clear()
	return d
}

// Clear forgets every definition.
func (d *Definitions) Clear() {
	d.procs = make(map[string]ProcDef)
	d.fns = make(map[string]FnDef)
}

func (d *Definitions) DefineProc(def ProcDef) { d.procs[def.Name] = def }
func (d *Definitions) DefineFn(def FnDef)     { d.fns[def.Name] = def }

// Proc looks a procedure up by name.
func (d *Definitions) Proc(name string) (ProcDef, error) {
	def, ok := d.procs[name]
	if !ok {
		return ProcDef{}, faults.Newf(faults.UndefinedNameFault, faults.CodeNoSuchFnProc, "PROC%s", name)
	}
	return def, nil
}

// Fn looks a function up by name.
func (d *Definitions) Fn(name string) (FnDef, error) {
	def, ok := d.fns[name]
	if !ok {
		return FnDef{}, faults.Newf(faults.UndefinedNameFault, faults.CodeNoSuchFnProc, "FN%s", name)
	}
	return def, nil
}

// ProcNames returns the defined procedure names, sorted.
func (d *Definitions) ProcNames() []string {
	names := make([]string, 0, len(d.procs))
	for name := range d.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FnNames returns the defined function names, sorted.
func (d *Definitions) FnNames() []string {
	names := make([]string, 0, len(d.fns))
	for name := range d.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
