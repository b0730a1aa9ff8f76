package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// TypeObj lets a *pytype.Type descriptor itself be used as a Python
// value -- spec §4.E "type (as a value)": "when a type is itself
// called as type(v), return the type of v; otherwise ... invoke the
// type's new then ... init." Every TypeObj's RuntimeType is the one
// TypeType descriptor, mirroring CPython's `type(int) is type`.
type TypeObj struct {
	T *pytype.Type
}

func (t *TypeObj) Kind() string             { return "type" }
func (t *TypeObj) Repr() string              { return "<class '" + t.T.Name + "'>" }
func (t *TypeObj) RuntimeType() *pytype.Type { return TypeType }

func AsTypeValue(v pytype.Value) (*pytype.Type, bool) {
	if !v.IsObj() {
		return nil, false
	}
	to, ok := v.Obj.(*TypeObj)
	if !ok {
		return nil, false
	}
	return to.T, true
}

// typeValues memoizes one TypeObj Value per *pytype.Type, so that
// `int is int` (the same type referenced twice) holds under Value.Is,
// which compares Obj pointers for boxed values.
var typeValues = make(map[*pytype.Type]pytype.Value)

// TypeValueOf returns the (cached) Value wrapping t as a callable,
// introspectable type object.
func TypeValueOf(t *pytype.Type) pytype.Value {
	if v, ok := typeValues[t]; ok {
		return v
	}
	v := pytype.ObjVal(&TypeObj{T: t})
	typeValues[t] = v
	return v
}

func installTypeValueSlots() {
	must(TypeType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr(self.Obj.(*TypeObj).Repr()), nil
	})))
}
