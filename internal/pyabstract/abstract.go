// Package pyabstract implements the abstract-operation dispatch
// policies of spec §4.D: the generic algorithms that route a Python
// operation (truth-testing, subscripting, binary arithmetic, rich
// comparison, attribute access, calling) through a Type's slot table,
// independent of any concrete built-in type's representation.
//
// Grounded on the teacher's internal/vm/vm_ops.go, which plays the
// same role for its own trait-dispatch opcodes (OP_TRAIT_OP,
// OP_CALL_TRAIT): a layer that knows how to find and invoke the right
// per-type operation but holds no concrete type logic itself.
package pyabstract

import (
	"reflect"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// IsTrue implements spec §4.D "isTrue(v)".
func IsTrue(v pytype.Value) (bool, error) {
	if v.IsBool() {
		return v.AsBool(), nil
	}
	if v.IsNone() {
		return false, nil
	}
	op := v.RuntimeType().LookupSlot(pytype.SlotBool).(pytype.UnaryOp)
	r, err := op(v)
	if err == nil {
		return r.AsBool(), nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return false, err
	}
	n, err := trySize(v)
	if err == nil {
		return n != 0, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); empty {
		return true, nil
	}
	return false, err
}

// trySize tries mp_length then sq_length, propagating EmptyOp if
// neither is installed (used by IsTrue, which treats "no length
// protocol at all" as true rather than an error).
func trySize(v pytype.Value) (int64, error) {
	t := v.RuntimeType()
	mp := t.LookupSlot(pytype.SlotMpLength).(pytype.LenOp)
	n, err := mp(v)
	if err == nil {
		return n, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return 0, err
	}
	sq := t.LookupSlot(pytype.SlotSqLength).(pytype.LenOp)
	return sq(v)
}

// Size implements spec §4.D "size(o)".
func Size(o pytype.Value) (int64, error) {
	t := o.RuntimeType()
	sq := t.LookupSlot(pytype.SlotSqLength).(pytype.LenOp)
	n, err := sq(o)
	if err == nil {
		return n, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return 0, err
	}
	mp := t.LookupSlot(pytype.SlotMpLength).(pytype.LenOp)
	n, err = mp(o)
	if err == nil {
		return n, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); empty {
		return 0, pyerr.NewTypeError("object of type '%s' has no len()", t.Name)
	}
	return 0, err
}

func hasIndexSlot(v pytype.Value) bool {
	return v.RuntimeType().HasSlot(pytype.SlotIndex)
}

// AsSize implements spec §4.D "asSize(x)", clipping to int64 range
// when the index value overflows (the spec's "no overflow
// exception-constructor supplied" default path -- no operation in
// this CORE asks asSize to raise a specific kind on overflow instead).
func AsSize(x pytype.Value) (int64, error) {
	t := x.RuntimeType()
	if !t.HasSlot(pytype.SlotIndex) {
		return 0, pyerr.NewTypeError("'%s' object cannot be interpreted as an integer", t.Name)
	}
	op := t.LookupSlot(pytype.SlotIndex).(pytype.UnaryOp)
	r, err := op(x)
	if err != nil {
		return 0, err
	}
	if !pybuiltin.IsIntLike(r) {
		return 0, pyerr.NewTypeError("__index__ returned non-int (type %s)", r.RuntimeType().Name)
	}
	big := pybuiltin.IntToBig(r)
	if big.IsInt64() {
		return big.Int64(), nil
	}
	if big.Sign() < 0 {
		return -1 << 63, nil
	}
	return 1<<63 - 1, nil
}

// GetItem implements spec §4.D "getItem(o, key)".
func GetItem(o, key pytype.Value) (pytype.Value, error) {
	t := o.RuntimeType()
	mp := t.LookupSlot(pytype.SlotMpSubscript).(pytype.ItemGetOp)
	r, err := mp(o, key)
	if err == nil {
		return r, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return pytype.Value{}, err
	}
	if !t.HasSlot(pytype.SlotSqItem) {
		return pytype.Value{}, pyerr.NewTypeError("'%s' object is not subscriptable", t.Name)
	}
	if !hasIndexSlot(key) {
		return pytype.Value{}, pyerr.NewTypeError("sequence index must be integer, not '%s'", key.RuntimeType().Name)
	}
	i, err := AsSize(key)
	if err != nil {
		return pytype.Value{}, err
	}
	if i < 0 {
		if n, err := trySize(o); err == nil {
			i += n
		}
	}
	sq := t.LookupSlot(pytype.SlotSqItem).(pytype.ItemGetOp)
	return sq(o, pytype.IntVal(i))
}

// SetItem implements spec §4.D "setItem(o, key, v)", symmetric to
// GetItem using mp_ass_subscript/sq_ass_item.
func SetItem(o, key, val pytype.Value) error {
	t := o.RuntimeType()
	mp := t.LookupSlot(pytype.SlotMpAssSubscr).(pytype.ItemSetOp)
	err := mp(o, key, val)
	if err == nil {
		return nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return err
	}
	if !t.HasSlot(pytype.SlotSqAssItem) {
		return pyerr.NewTypeError("'%s' object does not support item assignment", t.Name)
	}
	if !hasIndexSlot(key) {
		return pyerr.NewTypeError("sequence index must be integer, not '%s'", key.RuntimeType().Name)
	}
	i, err := AsSize(key)
	if err != nil {
		return err
	}
	if i < 0 {
		if n, err := trySize(o); err == nil {
			i += n
		}
	}
	sq := t.LookupSlot(pytype.SlotSqAssItem).(pytype.ItemSetOp)
	return sq(o, pytype.IntVal(i), val)
}

// sameFunc reports whether two BinaryOp values are the exact same
// installed function -- true when a subtype inherits a slot from its
// base via MRO (e.g. bool falling through to IntType's add), which
// spec §4.D step 2 treats the same as "V==W".
func sameFunc(a, b pytype.BinaryOp) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func invokeBinary(op pytype.BinaryOp, a, b pytype.Value) (pytype.Value, error) {
	r, err := op(a, b)
	if err != nil {
		if _, empty := pyerr.AsEmptyOp(err); empty {
			return pybuiltin.NotImplementedVal, nil
		}
		return pytype.Value{}, err
	}
	return r, nil
}

// binaryDispatch implements spec §4.D's binary-arithmetic delegation
// rules (steps 1-4) plus the mul/sq_repeat fallback.
func binaryDispatch(slot pytype.SlotID, symbol string, a, b pytype.Value) (pytype.Value, error) {
	V, W := a.RuntimeType(), b.RuntimeType()
	left := V.LookupSlot(slot).(pytype.BinaryOp)
	right := W.LookupSlot(slot).(pytype.BinaryOp)

	switch {
	case V == W || sameFunc(left, right):
		r, err := invokeBinary(left, a, b)
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
	case W.IsSubTypeOf(V):
		r, err := invokeBinary(right, a, b)
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
		r, err = invokeBinary(left, a, b)
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
	default:
		r, err := invokeBinary(left, a, b)
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
		r, err = invokeBinary(right, a, b)
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
	}

	if slot == pytype.SlotMul {
		if r, ok, err := tryRepeat(a, b); ok {
			return r, err
		}
	}
	return pytype.Value{}, pyerr.NewTypeError("unsupported operand type(s) for %s: '%s' and '%s'", symbol, V.Name, W.Name)
}

// tryRepeat implements the sq_repeat fallback for mul: whichever
// operand is sequence-shaped repeats itself by the other, converted
// via the index protocol.
func tryRepeat(a, b pytype.Value) (pytype.Value, bool, error) {
	if a.RuntimeType().HasSlot(pytype.SlotSqRepeat) && hasIndexSlot(b) {
		n, err := AsSize(b)
		if err != nil {
			return pytype.Value{}, true, err
		}
		op := a.RuntimeType().LookupSlot(pytype.SlotSqRepeat).(pytype.RepeatOp)
		r, err := op(a, n)
		return r, true, err
	}
	if b.RuntimeType().HasSlot(pytype.SlotSqRepeat) && hasIndexSlot(a) {
		n, err := AsSize(a)
		if err != nil {
			return pytype.Value{}, true, err
		}
		op := b.RuntimeType().LookupSlot(pytype.SlotSqRepeat).(pytype.RepeatOp)
		r, err := op(b, n)
		return r, true, err
	}
	return pytype.Value{}, false, nil
}

// Neg implements unary `-v` (UNARY_NEGATIVE), the one unary arithmetic
// slot spec's slot table defines; UNARY_POSITIVE/UNARY_INVERT have no
// corresponding slot (see pyframe's decision note) and are handled
// directly against the built-in numeric types instead of through here.
func Neg(v pytype.Value) (pytype.Value, error) {
	t := v.RuntimeType()
	op := t.LookupSlot(pytype.SlotNeg).(pytype.UnaryOp)
	r, err := op(v)
	if err == nil {
		return r, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); empty {
		return pytype.Value{}, pyerr.NewTypeError("bad operand type for unary -: '%s'", t.Name)
	}
	return pytype.Value{}, err
}

func Add(a, b pytype.Value) (pytype.Value, error) { return binaryDispatch(pytype.SlotAdd, "+", a, b) }
func Sub(a, b pytype.Value) (pytype.Value, error) { return binaryDispatch(pytype.SlotSub, "-", a, b) }
func Mul(a, b pytype.Value) (pytype.Value, error) { return binaryDispatch(pytype.SlotMul, "*", a, b) }
func And(a, b pytype.Value) (pytype.Value, error) { return binaryDispatch(pytype.SlotAnd, "&", a, b) }
func Or(a, b pytype.Value) (pytype.Value, error)  { return binaryDispatch(pytype.SlotOr, "|", a, b) }
func Xor(a, b pytype.Value) (pytype.Value, error) { return binaryDispatch(pytype.SlotXor, "^", a, b) }

func invokeRichCompare(t *pytype.Type, a, b pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
	rc := t.LookupSlot(pytype.SlotRichCompare).(pytype.RichCompareOp)
	r, err := rc(a, b, op)
	if err != nil {
		if _, empty := pyerr.AsEmptyOp(err); empty {
			return pybuiltin.NotImplementedVal, nil
		}
		return pytype.Value{}, err
	}
	return r, nil
}

// RichCompare implements spec §4.D "richCompare(v, w, op)".
func RichCompare(v, w pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
	V, W := v.RuntimeType(), w.RuntimeType()
	triedReverse := false
	if V != W && W.IsSubTypeOf(V) && W.HasSlot(pytype.SlotRichCompare) {
		r, err := invokeRichCompare(W, w, v, op.Swapped())
		triedReverse = true
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
	}
	r, err := invokeRichCompare(V, v, w, op)
	if err != nil {
		return pytype.Value{}, err
	}
	if !pybuiltin.IsNotImplemented(r) {
		return r, nil
	}
	if !triedReverse && W.HasSlot(pytype.SlotRichCompare) {
		r, err = invokeRichCompare(W, w, v, op.Swapped())
		if err != nil {
			return pytype.Value{}, err
		}
		if !pybuiltin.IsNotImplemented(r) {
			return r, nil
		}
	}
	switch op {
	case pytype.CmpEQ:
		return pytype.BoolVal(v.Is(w)), nil
	case pytype.CmpNE:
		return pytype.BoolVal(!v.Is(w)), nil
	}
	return pytype.Value{}, pyerr.NewTypeError("'%s' not supported between instances of '%s' and '%s'", op.String(), V.Name, W.Name)
}

// RichCompareBool implements spec §4.D "richCompareBool(v, w, op)".
func RichCompareBool(v, w pytype.Value, op pytype.CompareOp) (bool, error) {
	if v.Is(w) {
		switch op {
		case pytype.CmpEQ:
			return true, nil
		case pytype.CmpNE:
			return false, nil
		}
	}
	r, err := RichCompare(v, w, op)
	if err != nil {
		return false, err
	}
	return IsTrue(r)
}

func attrName(name pytype.Value) (string, error) {
	s, ok := pybuiltin.AsStrValue(name)
	if !ok {
		return "", pyerr.NewTypeError("attribute name must be string, not '%s'", name.RuntimeType().Name)
	}
	return s, nil
}

// GetAttr implements spec §4.D "getAttr(o, name)".
func GetAttr(o, name pytype.Value) (pytype.Value, error) {
	n, err := attrName(name)
	if err != nil {
		return pytype.Value{}, err
	}
	t := o.RuntimeType()
	ga := t.LookupSlot(pytype.SlotGetAttribute).(pytype.GetAttrOp)
	r, err := ga(o, name)
	if err == nil {
		return r, nil
	}
	if _, empty := pyerr.AsEmptyOp(err); empty {
		err = pyerr.NewAttributeError("'%s' object has no attribute '%s'", t.Name, n)
	}
	if !pyerr.IsKind(err, pyerr.AttributeError) {
		return pytype.Value{}, err
	}
	if t.HasSlot(pytype.SlotGetAttr) {
		fb := t.LookupSlot(pytype.SlotGetAttr).(pytype.GetAttrOp)
		if r2, err2 := fb(o, name); err2 == nil {
			return r2, nil
		}
	}
	return pytype.Value{}, err
}

// SetAttr implements spec §4.D "setAttr".
func SetAttr(o, name, val pytype.Value) error {
	if _, err := attrName(name); err != nil {
		return err
	}
	t := o.RuntimeType()
	op := t.LookupSlot(pytype.SlotSetAttr).(pytype.SetAttrOp)
	err := op(o, name, val)
	if err == nil {
		return nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return err
	}
	if !t.HasSlot(pytype.SlotGetAttribute) && !t.HasSlot(pytype.SlotGetAttr) {
		return pyerr.NewTypeError("'%s' object has no attributes", t.Name)
	}
	return pyerr.NewTypeError("'%s' object attributes are read-only", t.Name)
}

// DelAttr implements spec §4.D "delAttr".
func DelAttr(o, name pytype.Value) error {
	if _, err := attrName(name); err != nil {
		return err
	}
	t := o.RuntimeType()
	op := t.LookupSlot(pytype.SlotDelAttr).(pytype.DelAttrOp)
	err := op(o, name)
	if err == nil {
		return nil
	}
	if _, empty := pyerr.AsEmptyOp(err); !empty {
		return err
	}
	if !t.HasSlot(pytype.SlotGetAttribute) && !t.HasSlot(pytype.SlotGetAttr) {
		return pyerr.NewTypeError("'%s' object has no attributes", t.Name)
	}
	if t.HasSlot(pytype.SlotSetAttr) {
		return pyerr.NewTypeError("'%s' object attribute deletion is not supported", t.Name)
	}
	return pyerr.NewTypeError("'%s' object attributes are read-only", t.Name)
}

// Call implements spec §4.D "call(f, args, kwargs)".
func Call(f, args, kwargs pytype.Value) (pytype.Value, error) {
	t := f.RuntimeType()
	if !t.HasSlot(pytype.SlotCall) {
		return pytype.Value{}, pyerr.NewTypeError("'%s' object is not callable", t.Name)
	}
	if _, ok := pybuiltin.AsTuple(args); !ok {
		return pytype.Value{}, pyerr.Internal("call: args must be a tuple, got %s", args.RuntimeType().Name)
	}
	if !kwargs.IsNone() {
		if _, ok := pybuiltin.AsDict(kwargs); !ok {
			return pytype.Value{}, pyerr.Internal("call: kwargs must be a dict or None, got %s", kwargs.RuntimeType().Name)
		}
	}
	op := t.LookupSlot(pytype.SlotCall).(pytype.CallOp)
	return op(f, args, kwargs)
}
