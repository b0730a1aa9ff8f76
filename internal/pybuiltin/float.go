package pybuiltin

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

func asFloat(v pytype.Value) (float64, bool) {
	switch {
	case v.IsFloat():
		return v.AsFloat(), true
	case v.IsInt():
		return float64(v.AsInt()), true
	case v.IsBool():
		return boolAsFloat(v), true
	case IsIntLike(v):
		f := new(big.Float).SetInt(IntToBig(v))
		result, _ := f.Float64()
		return result, true
	default:
		return 0, false
	}
}

func boolAsFloat(v pytype.Value) float64 {
	if v.AsBool() {
		return 1
	}
	return 0
}

func floatBinary(f func(a, b float64) float64) pytype.BinaryOp {
	return func(self, other pytype.Value) (pytype.Value, error) {
		a, ok := asFloat(self)
		if !ok {
			return NotImplementedVal, nil
		}
		b, ok := asFloat(other)
		if !ok {
			return NotImplementedVal, nil
		}
		return pytype.FloatVal(f(a, b)), nil
	}
}

func installFloatSlots() {
	must(FloatType.DefineSlot(pytype.SlotAdd, floatBinary(func(a, b float64) float64 { return a + b })))
	must(FloatType.DefineSlot(pytype.SlotSub, floatBinary(func(a, b float64) float64 { return a - b })))
	must(FloatType.DefineSlot(pytype.SlotMul, floatBinary(func(a, b float64) float64 { return a * b })))

	must(FloatType.DefineSlot(pytype.SlotNeg, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return pytype.FloatVal(-self.AsFloat()), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotAbs, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return pytype.FloatVal(math.Abs(self.AsFloat())), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return pytype.BoolVal(self.AsFloat() != 0), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotInt, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return pytype.IntVal(int64(self.AsFloat())), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr(strconv.FormatFloat(self.AsFloat(), 'g', -1, 64)), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotStr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr(strconv.FormatFloat(self.AsFloat(), 'g', -1, 64)), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		bits := int64(math.Float64bits(self.AsFloat()))
		return bits, nil
	})))
	must(FloatType.DefineSlot(pytype.SlotRichCompare, pytype.RichCompareOp(func(self, other pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
		a := self.AsFloat()
		b, ok := asFloat(other)
		if !ok {
			return NotImplementedVal, nil
		}
		var cmp int
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
		return pytype.BoolVal(compareMatches(cmp, op)), nil
	})))
	must(FloatType.DefineSlot(pytype.SlotNew, pytype.NewOp(floatNew)))
}

// floatNew implements float's construction path, mirroring int.new's
// "(x)" shape (spec §4.E "float: host double; defines numeric slots
// with mixed-type handling that accepts int by conversion").
func floatNew(t *pytype.Type, args, kwargs pytype.Value) (pytype.Value, error) {
	tup, _ := AsTuple(args)
	switch len(tup.Elems) {
	case 0:
		return pytype.FloatVal(0), nil
	case 1:
		x := tup.Elems[0]
		if s, ok := asStr(x); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s.String()), 64)
			if err != nil {
				return pytype.Value{}, pyerr.NewValueError("could not convert string to float: %q", s.String())
			}
			return pytype.FloatVal(f), nil
		}
		if f, ok := asFloat(x); ok {
			return pytype.FloatVal(f), nil
		}
		return pytype.Value{}, pyerr.NewTypeError(
			"float() argument must be a string or a number, not '%s'", x.RuntimeType().Name)
	default:
		return pytype.Value{}, pyerr.NewTypeError("float() takes at most 1 argument (%d given)", len(tup.Elems))
	}
}
