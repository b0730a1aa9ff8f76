package pybuiltin

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// BigIntObj backs an int value once it has overflowed int64, per
// spec §9's "promote on overflow, never truncate" resolution of the
// open question. Grounded directly on the teacher's
// evaluator.BigInt{Value *big.Int} (internal/evaluator/object_primitives.go).
type BigIntObj struct {
	Value *big.Int
}

func (b *BigIntObj) Kind() string             { return "int" }
func (b *BigIntObj) Repr() string              { return b.Value.String() }
func (b *BigIntObj) RuntimeType() *pytype.Type { return IntType }
func (b *BigIntObj) Hash() uint64 {
	h := uint64(14695981039346656037)
	for _, c := range b.Value.String() {
		h = (h ^ uint64(c)) * 1099511628211
	}
	return h
}

// NewIntFromBig normalizes a *big.Int back to the int64 fast path
// when it fits, else boxes it as a BigIntObj.
func NewIntFromBig(v *big.Int) pytype.Value {
	if v.IsInt64() {
		return pytype.IntVal(v.Int64())
	}
	return pytype.ObjVal(&BigIntObj{Value: v})
}

// IntToBig returns v (an int or bool) as a *big.Int, regardless of
// which representation it currently uses.
func IntToBig(v pytype.Value) *big.Int {
	switch {
	case v.IsInt(), v.IsBool():
		var i int64
		if v.IsBool() {
			if v.AsBool() {
				i = 1
			}
		} else {
			i = v.AsInt()
		}
		return big.NewInt(i)
	case v.IsObj():
		if bi, ok := v.Obj.(*BigIntObj); ok {
			return new(big.Int).Set(bi.Value)
		}
	}
	return big.NewInt(0)
}

// IsIntLike reports whether v is an int, bool, or overflowed BigInt.
func IsIntLike(v pytype.Value) bool {
	if v.IsInt() || v.IsBool() {
		return true
	}
	if v.IsObj() {
		_, ok := v.Obj.(*BigIntObj)
		return ok
	}
	return false
}

func addOverflows(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func subOverflows(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, true
	}
	return diff, false
}

func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, true
	}
	return p, false
}

// intBinary implements one of the three arithmetic binary slots on int
// (add/sub/mul), promoting to BigIntObj on overflow and falling through
// to BigIntObj arithmetic whenever either operand already is one.
func intBinary(
	fast func(a, b int64) (int64, bool),
	big_ func(a, b *big.Int) *big.Int,
) pytype.BinaryOp {
	return func(self, other pytype.Value) (pytype.Value, error) {
		if !IsIntLike(self) || !IsIntLike(other) {
			return NotImplementedVal, nil
		}
		if self.IsInt() && other.IsInt() {
			if r, overflow := fast(self.AsInt(), other.AsInt()); !overflow {
				return pytype.IntVal(r), nil
			}
		}
		return NewIntFromBig(big_(IntToBig(self), IntToBig(other))), nil
	}
}

func installIntSlots() {
	must(IntType.DefineSlot(pytype.SlotAdd, intBinary(addOverflows, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })))
	must(IntType.DefineSlot(pytype.SlotSub, intBinary(subOverflows, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) })))
	must(IntType.DefineSlot(pytype.SlotMul, intBinary(mulOverflows, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) })))

	must(IntType.DefineSlot(pytype.SlotAnd, intBitwise(func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) })))
	must(IntType.DefineSlot(pytype.SlotOr, intBitwise(func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) })))
	must(IntType.DefineSlot(pytype.SlotXor, intBitwise(func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) })))

	must(IntType.DefineSlot(pytype.SlotNeg, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		if self.IsInt() {
			if self.AsInt() != math.MinInt64 {
				return pytype.IntVal(-self.AsInt()), nil
			}
		}
		return NewIntFromBig(new(big.Int).Neg(IntToBig(self))), nil
	})))
	must(IntType.DefineSlot(pytype.SlotAbs, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		if self.IsInt() && self.AsInt() != math.MinInt64 {
			v := self.AsInt()
			if v < 0 {
				v = -v
			}
			return pytype.IntVal(v), nil
		}
		return NewIntFromBig(new(big.Int).Abs(IntToBig(self))), nil
	})))
	must(IntType.DefineSlot(pytype.SlotIndex, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return self, nil
	})))
	must(IntType.DefineSlot(pytype.SlotInt, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return self, nil
	})))
	must(IntType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return pytype.BoolVal(IntToBig(self).Sign() != 0), nil
	})))
	must(IntType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr(intRepr(self)), nil
	})))
	must(IntType.DefineSlot(pytype.SlotStr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr(intRepr(self)), nil
	})))
	must(IntType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		if self.IsInt() {
			return self.AsInt(), nil
		}
		return int64(IntToBig(self).Int64()), nil
	})))
	must(IntType.DefineSlot(pytype.SlotRichCompare, pytype.RichCompareOp(intRichCompare)))
	must(IntType.DefineSlot(pytype.SlotNew, pytype.NewOp(intNew)))
}

// intNew implements spec §4.E "`new` accepts (x) or (x, base) with
// base in {0}∪[2,36]; string→int raises ValueError on invalid literal".
func intNew(t *pytype.Type, args, kwargs pytype.Value) (pytype.Value, error) {
	tup, _ := AsTuple(args)
	switch len(tup.Elems) {
	case 0:
		return pytype.IntVal(0), nil
	case 1:
		x := tup.Elems[0]
		if s, ok := asStr(x); ok {
			return NewInt(s.String(), 10)
		}
		if IsIntLike(x) {
			return x, nil
		}
		if x.IsFloat() {
			return pytype.IntVal(int64(x.AsFloat())), nil
		}
		return pytype.Value{}, pyerr.NewTypeError(
			"int() argument must be a string, a bytes-like object or a number, not '%s'", x.RuntimeType().Name)
	case 2:
		x, baseV := tup.Elems[0], tup.Elems[1]
		s, ok := asStr(x)
		if !ok {
			return pytype.Value{}, pyerr.NewTypeError("int() can't convert non-string with explicit base")
		}
		if !baseV.IsInt() {
			return pytype.Value{}, pyerr.NewTypeError("integer argument expected, got %s", baseV.RuntimeType().Name)
		}
		return NewInt(s.String(), int(baseV.AsInt()))
	default:
		return pytype.Value{}, pyerr.NewTypeError("int() takes at most 2 arguments (%d given)", len(tup.Elems))
	}
}

func intRepr(v pytype.Value) string {
	if v.IsInt() {
		return strconv.FormatInt(v.AsInt(), 10)
	}
	return IntToBig(v).String()
}

func intBitwise(big_ func(a, b *big.Int) *big.Int) pytype.BinaryOp {
	return func(self, other pytype.Value) (pytype.Value, error) {
		if !IsIntLike(self) || !IsIntLike(other) {
			return NotImplementedVal, nil
		}
		return NewIntFromBig(big_(IntToBig(self), IntToBig(other))), nil
	}
}

func intRichCompare(self, other pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
	var cmp int
	switch {
	case self.IsInt() && other.IsInt():
		a, b := self.AsInt(), other.AsInt()
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case IsIntLike(other):
		cmp = IntToBig(self).Cmp(IntToBig(other))
	case other.IsFloat():
		cmp = compareIntFloat(self, other.AsFloat())
	default:
		return NotImplementedVal, nil
	}
	return pytype.BoolVal(compareMatches(cmp, op)), nil
}

func compareMatches(cmp int, op pytype.CompareOp) bool {
	switch op {
	case pytype.CmpLT:
		return cmp < 0
	case pytype.CmpLE:
		return cmp <= 0
	case pytype.CmpEQ:
		return cmp == 0
	case pytype.CmpNE:
		return cmp != 0
	case pytype.CmpGT:
		return cmp > 0
	case pytype.CmpGE:
		return cmp >= 0
	}
	return false
}

func compareIntFloat(i pytype.Value, f float64) int {
	var fi float64
	if i.IsInt() {
		fi = float64(i.AsInt())
	} else {
		bf := new(big.Float).SetInt(IntToBig(i))
		fi, _ = bf.Float64()
	}
	switch {
	case fi < f:
		return -1
	case fi > f:
		return 1
	default:
		return 0
	}
}

// NewInt builds an int value from a parsed literal (spec §4.E int.new).
func NewInt(s string, base int) (pytype.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pytype.Value{}, pyerr.NewValueError("invalid literal for int() with base %d: %q", base, s)
	}
	if base != 0 && (base < 2 || base > 36) {
		return pytype.Value{}, pyerr.NewValueError("int() base must be >= 2 and <= 36, or 0")
	}
	neg := false
	rest := s
	if strings.HasPrefix(rest, "+") {
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	}
	bi, ok := new(big.Int).SetString(rest, base)
	if !ok {
		return pytype.Value{}, pyerr.NewValueError("invalid literal for int() with base %d: %q", base, s)
	}
	if neg {
		bi.Neg(bi)
	}
	return NewIntFromBig(bi), nil
}

// IntFromInt64 is a convenience constructor used throughout the core
// and its tests.
func IntFromInt64(v int64) pytype.Value { return pytype.IntVal(v) }
