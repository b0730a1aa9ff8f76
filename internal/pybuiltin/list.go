package pybuiltin

import (
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// ListObj is a mutable ordered sequence (spec §4.E "list"). Unlike
// the teacher's persistent-vector/cons List, this list mutates in
// place and is backed by a plain Go slice under a pointer; Extend is
// its only Go-level mutator method. Item read and write by int index
// go through the mapping slots mp_subscript/mp_ass_subscript; the
// sq_item and sq_ass_item slots are not installed on list.
type ListObj struct {
	Elems []pytype.Value
}

func NewList(elems []pytype.Value) pytype.Value {
	cp := make([]pytype.Value, len(elems))
	copy(cp, elems)
	return pytype.ObjVal(&ListObj{Elems: cp})
}

func (l *ListObj) Kind() string { return "list" }
func (l *ListObj) Repr() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = ReprOf(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *ListObj) RuntimeType() *pytype.Type { return ListType }

func AsList(v pytype.Value) (*ListObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	l, ok := v.Obj.(*ListObj)
	return l, ok
}

// Extend appends each element of src (spec §4.E "extend(iterable)
// appends each yielded element"). The CORE has no general iterator
// protocol in scope, so src must itself be a list or tuple.
func (l *ListObj) Extend(src pytype.Value) error {
	switch {
	case src.IsObj():
		if other, ok := AsList(src); ok {
			l.Elems = append(l.Elems, other.Elems...)
			return nil
		}
		if other, ok := AsTuple(src); ok {
			l.Elems = append(l.Elems, other.Elems...)
			return nil
		}
	}
	return pyerr.NewTypeError("list.extend() argument must be a list or tuple")
}

func installListSlots() {
	must(ListType.DefineSlot(pytype.SlotSqLength, pytype.LenOp(func(self pytype.Value) (int64, error) {
		l, _ := AsList(self)
		return int64(len(l.Elems)), nil
	})))
	must(ListType.DefineSlot(pytype.SlotMpSubscript, pytype.ItemGetOp(func(self, key pytype.Value) (pytype.Value, error) {
		l, _ := AsList(self)
		if !key.IsInt() {
			return pytype.Value{}, pyerr.NewTypeError("list indices must be integers")
		}
		i := key.AsInt()
		if i < 0 {
			i += int64(len(l.Elems))
		}
		if i < 0 || i >= int64(len(l.Elems)) {
			return pytype.Value{}, pyerr.NewIndexError("list index out of range")
		}
		return l.Elems[i], nil
	})))
	must(ListType.DefineSlot(pytype.SlotMpAssSubscr, pytype.ItemSetOp(func(self, key, val pytype.Value) error {
		l, _ := AsList(self)
		if !key.IsInt() {
			return pyerr.NewTypeError("list indices must be integers")
		}
		i := key.AsInt()
		if i < 0 {
			i += int64(len(l.Elems))
		}
		if i < 0 || i >= int64(len(l.Elems)) {
			return pyerr.NewIndexError("list assignment index out of range")
		}
		l.Elems[i] = val
		return nil
	})))
	must(ListType.DefineSlot(pytype.SlotAdd, pytype.BinaryOp(func(self, other pytype.Value) (pytype.Value, error) {
		a, aok := AsList(self)
		b, ok := AsList(other)
		if !aok || !ok {
			return NotImplementedVal, nil
		}
		out := make([]pytype.Value, 0, len(a.Elems)+len(b.Elems))
		out = append(out, a.Elems...)
		out = append(out, b.Elems...)
		return NewList(out), nil
	})))
	must(ListType.DefineSlot(pytype.SlotSqRepeat, pytype.RepeatOp(func(self pytype.Value, n int64) (pytype.Value, error) {
		l, _ := AsList(self)
		if n <= 0 {
			return NewList(nil), nil
		}
		out := make([]pytype.Value, 0, int64(len(l.Elems))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, l.Elems...)
		}
		return NewList(out), nil
	})))
	must(ListType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		l, _ := AsList(self)
		return pytype.BoolVal(len(l.Elems) != 0), nil
	})))
	must(ListType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		l, _ := AsList(self)
		return NewStr(l.Repr()), nil
	})))
}
