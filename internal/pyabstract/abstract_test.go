package pyabstract_test

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pyabstract"
	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pycall"
	"github.com/funvibe/pyjox/internal/pytype"
	"github.com/stretchr/testify/require"
)

func init() {
	pybuiltin.Register()
	pycall.Wire()
}

func TestIsTrueForContainers(t *testing.T) {
	ok, err := pyabstract.IsTrue(pybuiltin.NewList(nil))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = pyabstract.IsTrue(pybuiltin.NewList([]pytype.Value{pytype.IntVal(1)}))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsTrueForBoolPassesThrough(t *testing.T) {
	ok, err := pyabstract.IsTrue(pytype.BoolVal(false))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddDispatchesBySlot(t *testing.T) {
	r, err := pyabstract.Add(pytype.IntVal(2), pytype.IntVal(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), r.AsInt())
}

func TestAddRejectsIncompatibleTypes(t *testing.T) {
	_, err := pyabstract.Add(pytype.IntVal(1), pybuiltin.NewStr("x"))
	require.Error(t, err)
}

func TestMulSqRepeatFallback(t *testing.T) {
	lst := pybuiltin.NewList([]pytype.Value{pytype.IntVal(1), pytype.IntVal(2)})
	r, err := pyabstract.Mul(lst, pytype.IntVal(3))
	require.NoError(t, err)
	l, ok := pybuiltin.AsList(r)
	require.True(t, ok)
	require.Len(t, l.Elems, 6)
}

func TestRichCompareEqFallsBackToIdentity(t *testing.T) {
	n := pytype.NoneVal()
	r, err := pyabstract.RichCompare(n, n, pytype.CmpEQ)
	require.NoError(t, err)
	require.True(t, r.AsBool())
}

func TestRichCompareBoolShortCircuitsOnIdentity(t *testing.T) {
	s := pybuiltin.NewStr("same")
	ok, err := pyabstract.RichCompareBool(s, s, pytype.CmpEQ)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetItemListPositiveAndNegativeIndex(t *testing.T) {
	lst := pybuiltin.NewList([]pytype.Value{pytype.IntVal(10), pytype.IntVal(20), pytype.IntVal(30)})
	r, err := pyabstract.GetItem(lst, pytype.IntVal(1))
	require.NoError(t, err)
	require.Equal(t, int64(20), r.AsInt())

	r, err = pyabstract.GetItem(lst, pytype.IntVal(-1))
	require.NoError(t, err)
	require.Equal(t, int64(30), r.AsInt())
}

func TestGetItemRejectsNonSubscriptable(t *testing.T) {
	_, err := pyabstract.GetItem(pytype.IntVal(1), pytype.IntVal(0))
	require.Error(t, err)
}

func TestSetItemDict(t *testing.T) {
	dv := pybuiltin.NewDict()
	key := pybuiltin.NewStr("k")
	require.NoError(t, pyabstract.SetItem(dv, key, pytype.IntVal(9)))

	r, err := pyabstract.GetItem(dv, key)
	require.NoError(t, err)
	require.Equal(t, int64(9), r.AsInt())
}

func TestGetAttrOnModule(t *testing.T) {
	mv := pybuiltin.NewModule("m")
	mod, _ := pybuiltin.AsModule(mv)
	mod.Init(map[string]pytype.Value{"x": pytype.IntVal(5)})

	r, err := pyabstract.GetAttr(mv, pybuiltin.NewStr("x"))
	require.NoError(t, err)
	require.Equal(t, int64(5), r.AsInt())

	_, err = pyabstract.GetAttr(mv, pybuiltin.NewStr("missing"))
	require.Error(t, err)
}

func TestSetAttrOnModule(t *testing.T) {
	mv := pybuiltin.NewModule("m")
	require.NoError(t, pyabstract.SetAttr(mv, pybuiltin.NewStr("y"), pytype.IntVal(1)))

	r, err := pyabstract.GetAttr(mv, pybuiltin.NewStr("y"))
	require.NoError(t, err)
	require.Equal(t, int64(1), r.AsInt())
}

func TestCallBuiltinFunction(t *testing.T) {
	fn := pybuiltin.NewBuiltinFunction("id", "", pybuiltin.BuiltinVarargs,
		func(args []pytype.Value, _ *pybuiltin.DictObj) (pytype.Value, error) {
			return args[0], nil
		})
	r, err := pyabstract.Call(fn, pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(99)}), pytype.NoneVal())
	require.NoError(t, err)
	require.Equal(t, int64(99), r.AsInt())
}

func TestCallRejectsNonCallable(t *testing.T) {
	_, err := pyabstract.Call(pytype.IntVal(1), pybuiltin.EmptyTuple(), pytype.NoneVal())
	require.Error(t, err)
}
