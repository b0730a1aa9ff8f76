package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// True and False are the two bool singletons (spec §4.A: "MUST ensure
// the small singletons ... True, False are unique").
var (
	True  = pytype.BoolVal(true)
	False = pytype.BoolVal(false)
)

func boolAsInt(v pytype.Value) int64 {
	if v.AsBool() {
		return 1
	}
	return 0
}

// installBoolSlots installs bool's own slots: bitwise ops preserve
// bool-ness when both operands are bool, otherwise delegate to plain
// int arithmetic; bool, repr and str render True/False; new
// truth-tests its argument. Every other slot (add/sub/mul/neg/abs/
// index/richcompare/hash) is inherited from IntType via MRO.
func installBoolSlots() {
	must(BoolType.DefineSlot(pytype.SlotAnd, boolBitwise(func(a, b bool) bool { return a && b }, pytype.SlotAnd)))
	must(BoolType.DefineSlot(pytype.SlotOr, boolBitwise(func(a, b bool) bool { return a || b }, pytype.SlotOr)))
	must(BoolType.DefineSlot(pytype.SlotXor, boolBitwise(func(a, b bool) bool { return a != b }, pytype.SlotXor)))

	must(BoolType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return self, nil
	})))
	must(BoolType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		if self.AsBool() {
			return NewStr("True"), nil
		}
		return NewStr("False"), nil
	})))
	must(BoolType.DefineSlot(pytype.SlotStr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		if self.AsBool() {
			return NewStr("True"), nil
		}
		return NewStr("False"), nil
	})))
	must(BoolType.DefineSlot(pytype.SlotNew, pytype.NewOp(boolNew)))
}

// boolNew implements bool(x), truth-testing x directly via its own
// bool slot (falling back to mp_length/sq_length, spec §4.D isTrue)
// without requiring the abstract-ops layer above this package.
func boolNew(t *pytype.Type, args, kwargs pytype.Value) (pytype.Value, error) {
	tup, _ := AsTuple(args)
	if len(tup.Elems) == 0 {
		return False, nil
	}
	x := tup.Elems[0]
	switch {
	case x.IsNone():
		return False, nil
	case x.IsBool():
		return x, nil
	}
	if op, ok := x.RuntimeType().LookupSlot(pytype.SlotBool).(pytype.UnaryOp); ok {
		r, err := op(x)
		if err == nil && r.IsBool() {
			return r, nil
		}
	}
	if op, ok := x.RuntimeType().LookupSlot(pytype.SlotMpLength).(pytype.LenOp); ok {
		n, err := op(x)
		if err == nil {
			return pytype.BoolVal(n != 0), nil
		}
	}
	if op, ok := x.RuntimeType().LookupSlot(pytype.SlotSqLength).(pytype.LenOp); ok {
		n, err := op(x)
		if err == nil {
			return pytype.BoolVal(n != 0), nil
		}
	}
	return True, nil
}

func boolBitwise(f func(a, b bool) bool, fallback pytype.SlotID) pytype.BinaryOp {
	return func(self, other pytype.Value) (pytype.Value, error) {
		if self.IsBool() && other.IsBool() {
			return pytype.BoolVal(f(self.AsBool(), other.AsBool())), nil
		}
		// Delegate to int: IntType's installed handle reads a bool
		// operand (on either side) as 0/1.
		intOp := IntType.LookupSlot(fallback).(pytype.BinaryOp)
		return intOp(self, other)
	}
}
