package pybuiltin

import (
	"math/big"
	"testing"

	"github.com/funvibe/pyjox/internal/pytype"
	"github.com/stretchr/testify/require"
)

func init() {
	Register()
}

func callBinary(t *testing.T, typ *pytype.Type, slot pytype.SlotID, a, b pytype.Value) pytype.Value {
	t.Helper()
	op := typ.LookupSlot(slot).(pytype.BinaryOp)
	v, err := op(a, b)
	require.NoError(t, err)
	return v
}

func TestIntArithmeticFastPath(t *testing.T) {
	v := callBinary(t, IntType, pytype.SlotAdd, pytype.IntVal(2), pytype.IntVal(3))
	require.True(t, v.IsInt())
	require.Equal(t, int64(5), v.AsInt())
}

func TestIntArithmeticOverflowPromotesToBigInt(t *testing.T) {
	v := callBinary(t, IntType, pytype.SlotAdd, pytype.IntVal(9223372036854775807), pytype.IntVal(1))
	require.True(t, v.IsObj())
	big, ok := v.Obj.(*BigIntObj)
	require.True(t, ok)
	require.Equal(t, "9223372036854775808", big.Value.String())
}

func TestIntNewFromString(t *testing.T) {
	v, err := NewInt("101", 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.AsInt())
}

func TestIntNewRejectsInvalidLiteral(t *testing.T) {
	_, err := NewInt("not-a-number", 10)
	require.Error(t, err)
}

func TestIntReprRoundTrip(t *testing.T) {
	require.Equal(t, "42", ReprOf(pytype.IntVal(42)))
	require.Equal(t, "-7", ReprOf(pytype.IntVal(-7)))
}

func TestFloatBinaryAdd(t *testing.T) {
	v := callBinary(t, FloatType, pytype.SlotAdd, pytype.FloatVal(1.5), pytype.FloatVal(2.5))
	require.True(t, v.IsFloat())
	require.Equal(t, 4.0, v.AsFloat())
}

func TestBoolIsSubtypeOfInt(t *testing.T) {
	require.True(t, BoolType.IsSubTypeOf(IntType))
	v := callBinary(t, BoolType, pytype.SlotAdd, pytype.BoolVal(true), pytype.IntVal(1))
	require.Equal(t, int64(2), v.AsInt())
}

func TestStrConstructionRoundTripsGoString(t *testing.T) {
	s := NewStr("hello")
	str, ok := AsStrValue(s)
	require.True(t, ok)
	require.Equal(t, "hello", str)
}

func TestBytesConstructionAndIntConversion(t *testing.T) {
	b := NewBytes([]byte{0, 0, 0, 42})
	v := BytesToInt([]byte{0, 0, 0, 42}, false)
	require.Equal(t, int64(42), v.AsInt())
	bo, ok := asBytes(b)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 42}, bo.Data)
}

func TestTupleEquality(t *testing.T) {
	a := NewTuple([]pytype.Value{pytype.IntVal(1), pytype.IntVal(2)})
	b := NewTuple([]pytype.Value{pytype.IntVal(1), pytype.IntVal(2)})
	op := TupleType.LookupSlot(pytype.SlotRichCompare).(pytype.RichCompareOp)
	r, err := op(a, b, pytype.CmpEQ)
	require.NoError(t, err)
	require.True(t, r.AsBool())
}

func TestListExtend(t *testing.T) {
	lv := NewList([]pytype.Value{pytype.IntVal(1)})
	l, ok := AsList(lv)
	require.True(t, ok)
	require.NoError(t, l.Extend(NewTuple([]pytype.Value{pytype.IntVal(2), pytype.IntVal(3)})))
	require.Len(t, l.Elems, 3)
}

func TestDictSetGetDelete(t *testing.T) {
	dv := NewDict()
	d, ok := AsDict(dv)
	require.True(t, ok)

	key := NewStr("k")
	require.NoError(t, d.Set(key, pytype.IntVal(7)))

	v, found, err := d.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(7), v.AsInt())

	require.NoError(t, d.Delete(key))
	_, found, err = d.Get(key)
	require.NoError(t, err)
	require.False(t, found)
}

func TestDictKeysReflectsInsertionOrder(t *testing.T) {
	dv := NewDict()
	d, _ := AsDict(dv)
	require.NoError(t, d.Set(NewStr("a"), pytype.IntVal(1)))
	require.NoError(t, d.Set(NewStr("b"), pytype.IntVal(2)))

	keys := d.Keys()
	require.Len(t, keys, 2)
	s0, _ := AsStrValue(keys[0])
	s1, _ := AsStrValue(keys[1])
	require.Equal(t, "a", s0)
	require.Equal(t, "b", s1)
}

func TestIntToBigRoundTrip(t *testing.T) {
	v := NewIntFromBig(big.NewInt(12345))
	require.True(t, v.IsInt())
	require.Equal(t, int64(12345), IntToBig(v).Int64())
}
