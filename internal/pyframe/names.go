package pyframe

import (
	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// loadName/storeName/deleteName implement LOAD_NAME/STORE_NAME/
// DELETE_NAME's locals -> globals -> builtins chain (spec §4.G), used
// by non-OPTIMIZED code (module-level and class-body execution).
func (f *Frame) loadName(name string) (pytype.Value, error) {
	key := pybuiltin.NewStr(name)
	if f.Locals != nil {
		if v, ok, err := f.Locals.Get(key); err != nil {
			return pytype.Value{}, err
		} else if ok {
			return v, nil
		}
	}
	if v, ok, err := f.Globals.Get(key); err != nil {
		return pytype.Value{}, err
	} else if ok {
		return v, nil
	}
	if f.Builtins != nil {
		if v, ok, err := f.Builtins.Get(key); err != nil {
			return pytype.Value{}, err
		} else if ok {
			return v, nil
		}
	}
	return pytype.Value{}, pyerr.NewNameError("name '%s' is not defined", name)
}

func (f *Frame) storeName(name string, val pytype.Value) error {
	return f.Locals.Set(pybuiltin.NewStr(name), val)
}

func (f *Frame) deleteName(name string) error {
	return f.Locals.Delete(pybuiltin.NewStr(name))
}

// loadGlobal/storeGlobal/deleteGlobal implement LOAD_GLOBAL/
// STORE_GLOBAL/DELETE_GLOBAL's globals -> builtins chain.
func (f *Frame) loadGlobal(name string) (pytype.Value, error) {
	key := pybuiltin.NewStr(name)
	if v, ok, err := f.Globals.Get(key); err != nil {
		return pytype.Value{}, err
	} else if ok {
		return v, nil
	}
	if f.Builtins != nil {
		if v, ok, err := f.Builtins.Get(key); err != nil {
			return pytype.Value{}, err
		} else if ok {
			return v, nil
		}
	}
	return pytype.Value{}, pyerr.NewNameError("name '%s' is not defined", name)
}

func (f *Frame) storeGlobal(name string, val pytype.Value) error {
	return f.Globals.Set(pybuiltin.NewStr(name), val)
}

func (f *Frame) deleteGlobal(name string) error {
	return f.Globals.Delete(pybuiltin.NewStr(name))
}

// loadFast/storeFast/deleteFast implement LOAD_FAST/STORE_FAST/
// DELETE_FAST against fastlocals, honoring the bound[] side channel
// (spec §4.F's "fastlocals may be null").
func (f *Frame) loadFast(idx int) (pytype.Value, error) {
	if !f.Bound[idx] {
		return pytype.Value{}, pyerr.NewUnboundLocalError(
			"local variable '%s' referenced before assignment", f.Code.Varnames[idx])
	}
	return f.FastLocals[idx], nil
}

func (f *Frame) storeFast(idx int, val pytype.Value) {
	f.FastLocals[idx] = val
	f.Bound[idx] = true
}

func (f *Frame) deleteFast(idx int) error {
	if !f.Bound[idx] {
		return pyerr.NewUnboundLocalError(
			"local variable '%s' referenced before assignment", f.Code.Varnames[idx])
	}
	f.FastLocals[idx] = pytype.Value{}
	f.Bound[idx] = false
	return nil
}

// selectCell resolves a LOAD_DEREF-family oparg to its cell (cellvars
// first, then freevars, CPython's unified deref numbering) and
// reports whether it names a free (as opposed to cell) variable.
func (f *Frame) selectCell(idx int) (pytype.Value, bool) {
	if idx < len(f.Cellvars) {
		return f.Cellvars[idx], false
	}
	return f.Freevars[idx-len(f.Cellvars)], true
}

func (f *Frame) derefName(idx int) string {
	if idx < len(f.Code.Cellvars) {
		return f.Code.Cellvars[idx]
	}
	return f.Code.Freevars[idx-len(f.Code.Cellvars)]
}

// loadDeref/storeDeref/deleteDeref implement LOAD_DEREF/STORE_DEREF/
// DELETE_DEREF. Reading an unbound cell is a NameError for a free
// variable but an UnboundLocalError for a cell variable (spec §4.G),
// since the latter is "this function's own local that happens to be
// captured" while the former belongs to an enclosing scope.
func (f *Frame) loadDeref(idx int) (pytype.Value, error) {
	cellV, isFree := f.selectCell(idx)
	cell, _ := pybuiltin.AsCell(cellV)
	if !cell.Bound() {
		name := f.derefName(idx)
		if isFree {
			return pytype.Value{}, pyerr.NewNameError("free variable '%s' referenced before assignment", name)
		}
		return pytype.Value{}, pyerr.NewUnboundLocalError("local variable '%s' referenced before assignment", name)
	}
	return cell.Get()
}

func (f *Frame) storeDeref(idx int, val pytype.Value) {
	cellV, _ := f.selectCell(idx)
	cell, _ := pybuiltin.AsCell(cellV)
	cell.Set(val)
}

func (f *Frame) deleteDeref(idx int) {
	cellV, _ := f.selectCell(idx)
	cell, _ := pybuiltin.AsCell(cellV)
	cell.Clear()
}

// loadClassDeref implements LOAD_CLASSDEREF: in a class body (whose
// frame has a Locals dict even though it also has cells for methods'
// closures), the namespace dict is checked before the cell.
func (f *Frame) loadClassDeref(idx int) (pytype.Value, error) {
	if f.Locals != nil {
		name := f.derefName(idx)
		if v, ok, err := f.Locals.Get(pybuiltin.NewStr(name)); err != nil {
			return pytype.Value{}, err
		} else if ok {
			return v, nil
		}
	}
	return f.loadDeref(idx)
}
