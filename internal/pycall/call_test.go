package pycall

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
	"github.com/stretchr/testify/require"
)

func init() {
	pybuiltin.Register()
	Wire()
}

func TestCallBuiltinFunctionRejectsKeywordsWithoutFlag(t *testing.T) {
	fn := pybuiltin.NewBuiltinFunction("f", "", 0, func(args []pytype.Value, kwargs *pybuiltin.DictObj) (pytype.Value, error) {
		return pytype.IntVal(1), nil
	})
	kwargsV := pybuiltin.NewDict()
	kwargs, _ := pybuiltin.AsDict(kwargsV)
	require.NoError(t, kwargs.Set(pybuiltin.NewStr("x"), pytype.IntVal(1)))

	_, err := callBuiltinFunction(fn, pybuiltin.EmptyTuple(), kwargsV)
	require.Error(t, err)
}

func TestCallBuiltinFunctionAcceptsKeywordsWithFlag(t *testing.T) {
	fn := pybuiltin.NewBuiltinFunction("f", "", pybuiltin.BuiltinKeywords, func(args []pytype.Value, kwargs *pybuiltin.DictObj) (pytype.Value, error) {
		v, _, _ := kwargs.Get(pybuiltin.NewStr("x"))
		return v, nil
	})
	kwargsV := pybuiltin.NewDict()
	kwargs, _ := pybuiltin.AsDict(kwargsV)
	require.NoError(t, kwargs.Set(pybuiltin.NewStr("x"), pytype.IntVal(9)))

	r, err := callBuiltinFunction(fn, pybuiltin.EmptyTuple(), kwargsV)
	require.NoError(t, err)
	require.Equal(t, int64(9), r.AsInt())
}

func TestCallTypeEnquiryReturnsArgumentType(t *testing.T) {
	r, err := callType(pybuiltin.TypeValueOf(pybuiltin.TypeType), pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(5)}), pytype.NoneVal())
	require.NoError(t, err)
	require.True(t, r.Is(pybuiltin.TypeValueOf(pybuiltin.IntType)))
}

func TestCallTypeConstructionInvokesNew(t *testing.T) {
	r, err := callType(pybuiltin.TypeValueOf(pybuiltin.IntType), pybuiltin.NewTuple([]pytype.Value{pybuiltin.NewStr("7")}), pytype.NoneVal())
	require.NoError(t, err)
	require.Equal(t, int64(7), r.AsInt())
}

func TestModuleGetAttributeAndSetAttr(t *testing.T) {
	modV := pybuiltin.NewModule("m")
	mod, _ := pybuiltin.AsModule(modV)
	require.NoError(t, mod.Dict.Set(pybuiltin.NewStr("x"), pytype.IntVal(3)))

	v, err := moduleGetAttribute(modV, pybuiltin.NewStr("x"))
	require.NoError(t, err)
	require.Equal(t, int64(3), v.AsInt())

	require.NoError(t, moduleSetAttr(modV, pybuiltin.NewStr("y"), pytype.IntVal(4)))
	y, ok, err := mod.Dict.Get(pybuiltin.NewStr("y"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(4), y.AsInt())
}

func TestModuleGetAttributeMissingRaisesAttributeError(t *testing.T) {
	modV := pybuiltin.NewModule("m")
	_, err := moduleGetAttribute(modV, pybuiltin.NewStr("missing"))
	require.Error(t, err)
	require.True(t, pyerr.IsKind(err, pyerr.AttributeError))
}

func TestDefaultBuiltinsIncludesCoreTypesAndSingletons(t *testing.T) {
	d := DefaultBuiltins()
	names := []string{"None", "True", "False", "NotImplemented", "bool", "int", "float", "str", "bytes", "tuple", "list", "dict", "type"}
	for _, n := range names {
		_, ok, err := d.Get(pybuiltin.NewStr(n))
		require.NoError(t, err)
		require.True(t, ok, "missing builtin %q", n)
	}
}

func TestWireIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		Wire()
		Wire()
	})
}
