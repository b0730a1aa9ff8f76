package pybuiltin

import (
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// CellObj is the storage a closure shares between an enclosing frame's
// cellvar and a nested frame's freevar (spec §4.E "cell", §4.G
// cellvars/freevars). A cell starts empty (unbound); Get on an
// unbound cell returns an UnboundLocalError. The frame layer's
// LOAD_DEREF checks Bound first and raises NameError for an unbound
// free variable or UnboundLocalError for an unbound cell variable.
type CellObj struct {
	val   pytype.Value
	bound bool
}

func NewCell() pytype.Value {
	return pytype.ObjVal(&CellObj{})
}

// NewCellWith returns a cell already bound to val (used when a
// function's default captures an enclosing value at definition time).
func NewCellWith(val pytype.Value) pytype.Value {
	return pytype.ObjVal(&CellObj{val: val, bound: true})
}

func (c *CellObj) Kind() string { return "cell" }
func (c *CellObj) Repr() string {
	if !c.bound {
		return "<cell [empty]>"
	}
	return "<cell: " + ReprOf(c.val) + ">"
}
func (c *CellObj) RuntimeType() *pytype.Type { return CellType }

func AsCell(v pytype.Value) (*CellObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	c, ok := v.Obj.(*CellObj)
	return c, ok
}

// Get returns the cell's contents, or an UnboundLocalError if it was
// never set (spec §4.G name resolution step 2, cellvar/freevar load).
func (c *CellObj) Get() (pytype.Value, error) {
	if !c.bound {
		return pytype.Value{}, pyerr.NewUnboundLocalError("free variable referenced before assignment")
	}
	return c.val, nil
}

func (c *CellObj) Set(v pytype.Value) {
	c.val = v
	c.bound = true
}

// Clear makes the cell unbound again (backs DELETE_DEREF).
func (c *CellObj) Clear() {
	c.val = pytype.Value{}
	c.bound = false
}

func (c *CellObj) Bound() bool { return c.bound }

func installCellSlots() {
	must(CellType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		c, _ := AsCell(self)
		return NewStr(c.Repr()), nil
	})))
}
