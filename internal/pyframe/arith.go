package pyframe

import (
	"math/big"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// trueDivide, floorDivide and modulo back BINARY_TRUE_DIVIDE/
// BINARY_FLOOR_DIVIDE/BINARY_MODULO. Spec's slot table (§4.B) has no
// div/mod slot -- only add/sub/mul/and/or/xor are dispatchable -- so
// these opcodes are implemented directly against the two numeric
// built-ins (int, float) rather than through a generic slot lookup. A
// third-party numeric type could not participate in floor-division
// under this CORE; extending the slot table to add nb_floordivide/
// nb_truedivide/nb_remainder would be the fix, and is out of spec
// scope.
func trueDivide(a, b pytype.Value) (pytype.Value, error) {
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return pytype.Value{}, unsupported("/", a, b)
	}
	if bf == 0 {
		return pytype.Value{}, pyerr.NewValueError("division by zero")
	}
	return pytype.FloatVal(af / bf), nil
}

func floorDivide(a, b pytype.Value) (pytype.Value, error) {
	if pybuiltin.IsIntLike(a) && pybuiltin.IsIntLike(b) {
		bi := pybuiltin.IntToBig(b)
		if bi.Sign() == 0 {
			return pytype.Value{}, pyerr.NewValueError("division by zero")
		}
		q, m := new(big.Int).QuoRem(pybuiltin.IntToBig(a), bi, new(big.Int))
		if m.Sign() != 0 && (m.Sign() < 0) != (bi.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		}
		return pybuiltin.NewIntFromBig(q), nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return pytype.Value{}, unsupported("//", a, b)
	}
	if bf == 0 {
		return pytype.Value{}, pyerr.NewValueError("division by zero")
	}
	return pytype.FloatVal(floorFloat(af / bf)), nil
}

func modulo(a, b pytype.Value) (pytype.Value, error) {
	if pybuiltin.IsIntLike(a) && pybuiltin.IsIntLike(b) {
		bi := pybuiltin.IntToBig(b)
		if bi.Sign() == 0 {
			return pytype.Value{}, pyerr.NewValueError("integer division or modulo by zero")
		}
		m := new(big.Int).Mod(pybuiltin.IntToBig(a), bi)
		// big.Int.Mod is Euclidean: its result is never negative.
		// Python's % takes the sign of the divisor, which matches for a
		// positive divisor; for a negative divisor, adding bi to a
		// non-zero result gives Python's value.
		if m.Sign() != 0 && bi.Sign() < 0 {
			m.Add(m, bi)
		}
		return pybuiltin.NewIntFromBig(m), nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return pytype.Value{}, unsupported("%", a, b)
	}
	if bf == 0 {
		return pytype.Value{}, pyerr.NewValueError("float modulo")
	}
	r := af - bf*floorFloat(af/bf)
	return pytype.FloatVal(r), nil
}

func floorFloat(x float64) float64 {
	i := int64(x)
	if x < 0 && float64(i) != x {
		i--
	}
	return float64(i)
}

func asNumber(v pytype.Value) (float64, bool) {
	switch {
	case v.IsFloat():
		return v.AsFloat(), true
	case pybuiltin.IsIntLike(v):
		bi := pybuiltin.IntToBig(v)
		f, _ := new(big.Float).SetInt(bi).Float64()
		return f, true
	}
	return 0, false
}

func unsupported(symbol string, a, b pytype.Value) error {
	return pyerr.NewTypeError("unsupported operand type(s) for %s: '%s' and '%s'",
		symbol, a.RuntimeType().Name, b.RuntimeType().Name)
}

// unaryPositive and unaryInvert back UNARY_POSITIVE/UNARY_INVERT, the
// two unary opcodes spec §4.G requires that have no corresponding
// slot in §4.B's table (only neg/abs/int/index are dispatchable).
// Implemented directly against int/float/bool, same reasoning as the
// div/mod family above.
func unaryPositive(v pytype.Value) (pytype.Value, error) {
	if v.IsFloat() || pybuiltin.IsIntLike(v) {
		return v, nil
	}
	return pytype.Value{}, pyerr.NewTypeError("bad operand type for unary +: '%s'", v.RuntimeType().Name)
}

func unaryInvert(v pytype.Value) (pytype.Value, error) {
	if !pybuiltin.IsIntLike(v) {
		return pytype.Value{}, pyerr.NewTypeError("bad operand type for unary ~: '%s'", v.RuntimeType().Name)
	}
	return pybuiltin.NewIntFromBig(new(big.Int).Not(pybuiltin.IntToBig(v))), nil
}
