package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// None is the unique NoneType value. Per spec §3/§4.A, callers should
// prefer the pytype.NoneVal() constructor directly; this is exposed
// for convenience when an Object (rather than a bare Value) is
// needed, e.g. inside a container.
var None = pytype.NoneVal()

//go:generate go run ../../cmd/slotgen . zz_slots_generated.go

func installNoneSlots() {
	must(NoneType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		return 0, nil
	})))
}

//pyjox:slot NoneType SlotBool
func noneBool(self pytype.Value) (pytype.Value, error) {
	return pytype.BoolVal(false), nil
}

//pyjox:slot NoneType SlotRepr
func noneRepr(self pytype.Value) (pytype.Value, error) {
	return NewStr("None"), nil
}

// notImplementedObj is the boxed Object behind the NotImplemented
// singleton (spec §3 "notImplemented" value variant; §9 "`NotImplemented`
// sentinel"). It must never be observed as the *result* of a Python
// operator by user code -- only the abstract-operations layer (D)
// ever sees it returned from a binary/richcompare slot.
type notImplementedObj struct{}

func (notImplementedObj) Kind() string             { return "NotImplemented" }
func (notImplementedObj) Repr() string              { return "NotImplemented" }
func (notImplementedObj) RuntimeType() *pytype.Type { return NotImplementedType }

// notImplementedSingleton backs the NotImplemented value; identity
// (`is`) comparisons against it must always succeed for the one true
// singleton, per spec §4.A.
var notImplementedSingleton = notImplementedObj{}

// NotImplementedVal is the NotImplemented singleton value.
var NotImplementedVal = pytype.ObjVal(notImplementedSingleton)

// IsNotImplemented reports whether v is the NotImplemented singleton.
func IsNotImplemented(v pytype.Value) bool {
	return v.IsObj() && v.Obj == pytype.Object(notImplementedSingleton)
}

//pyjox:slot NotImplementedType SlotRepr
func notImplementedRepr(self pytype.Value) (pytype.Value, error) {
	return NewStr("NotImplemented"), nil
}

//pyjox:slot NotImplementedType SlotBool
func notImplementedBool(self pytype.Value) (pytype.Value, error) {
	return pytype.BoolVal(true), nil
}
