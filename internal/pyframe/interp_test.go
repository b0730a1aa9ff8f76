package pyframe_test

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pyabstract"
	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pycall"
	"github.com/funvibe/pyjox/internal/pyframe"
	"github.com/funvibe/pyjox/internal/pytype"
	"github.com/stretchr/testify/require"
)

func init() {
	pybuiltin.Register()
	pycall.Wire()
}

func newGlobals(t *testing.T) *pybuiltin.DictObj {
	t.Helper()
	d, ok := pybuiltin.AsDict(pybuiltin.NewDict())
	require.True(t, ok)
	return d
}

func mustCode(t *testing.T, c pybuiltin.CodeObj) *pybuiltin.CodeObj {
	t.Helper()
	co, err := pybuiltin.NewCode(c)
	require.NoError(t, err)
	return co
}

// ops packs a sequence of (opcode, oparg) ints into the two-bytes-per-
// instruction wordcode format Bytecode uses.
func ops(pairs ...int) []byte {
	b := make([]byte, len(pairs))
	for i, p := range pairs {
		b[i] = byte(p)
	}
	return b
}

// TestRunSimpleIntegerComputation covers spec §8's scenario 1: a
// module-level frame computing 1 + 2 * 3 and storing it by name.
func TestRunSimpleIntegerComputation(t *testing.T) {
	globals := newGlobals(t)
	code := mustCode(t, pybuiltin.CodeObj{
		Name: "<module>",
		Consts: []pytype.Value{
			pytype.IntVal(1), pytype.IntVal(2), pytype.IntVal(3), pytype.NoneVal(),
		},
		Names: []string{"result"},
		Bytecode: ops(
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.LoadConst), 2,
			int(pyframe.BinaryMultiply), 0,
			int(pyframe.BinaryAdd), 0,
			int(pyframe.StoreName), 0,
			int(pyframe.LoadConst), 3,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 3,
	})

	frame, err := pyframe.NewModuleFrame(code, globals)
	require.NoError(t, err)
	_, err = pyframe.Run(frame)
	require.NoError(t, err)

	v, ok, err := globals.Get(pybuiltin.NewStr("result"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), v.AsInt())
}

// TestRunNestedClosureCapturesEnclosingParameter covers spec §8's
// scenario 2: a function whose parameter is also a cellvar, building
// and returning an inner function that closes over it.
func TestRunNestedClosureCapturesEnclosingParameter(t *testing.T) {
	globals := newGlobals(t)

	innerCode := mustCode(t, pybuiltin.CodeObj{
		Name:     "inner",
		Flags:    pybuiltin.CodeOptimized,
		Freevars: []string{"x"},
		Consts:   []pytype.Value{pytype.IntVal(1)},
		Bytecode: ops(
			int(pyframe.LoadDeref), 0,
			int(pyframe.LoadConst), 0,
			int(pyframe.BinaryAdd), 0,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 2,
	})

	outerCode := mustCode(t, pybuiltin.CodeObj{
		Name:      "outer",
		Argcount:  1,
		Nlocals:   1,
		Flags:     pybuiltin.CodeOptimized,
		Varnames:  []string{"x"},
		Cellvars:  []string{"x"},
		Cell2Arg:  map[int]int{0: 0},
		Consts: []pytype.Value{
			pytype.ObjVal(innerCode),
			pybuiltin.NewStr("inner"),
		},
		Bytecode: ops(
			int(pyframe.LoadClosure), 0,
			int(pyframe.BuildTuple), 1,
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.MakeFunction), 0x08,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 3,
	})

	outerFn := pybuiltin.NewFunction(outerCode, globals, "outer", nil)
	innerFn, err := pyabstract.Call(outerFn, pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(10)}), pytype.NoneVal())
	require.NoError(t, err)

	result, err := pyabstract.Call(innerFn, pybuiltin.EmptyTuple(), pytype.NoneVal())
	require.NoError(t, err)
	require.Equal(t, int64(11), result.AsInt())
}

// TestRunStoreGlobalFromFunction covers spec §8's scenario 3: a
// function storing into the module globals dict rather than its own
// fast-locals.
func TestRunStoreGlobalFromFunction(t *testing.T) {
	globals := newGlobals(t)
	code := mustCode(t, pybuiltin.CodeObj{
		Name:    "setter",
		Flags:   pybuiltin.CodeOptimized,
		Names:   []string{"counter"},
		Consts:  []pytype.Value{pytype.IntVal(99), pytype.NoneVal()},
		Bytecode: ops(
			int(pyframe.LoadConst), 0,
			int(pyframe.StoreGlobal), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 1,
	})
	fn := pybuiltin.NewFunction(code, globals, "setter", nil)

	_, err := pyabstract.Call(fn, pybuiltin.EmptyTuple(), pytype.NoneVal())
	require.NoError(t, err)

	v, ok, err := globals.Get(pybuiltin.NewStr("counter"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(99), v.AsInt())
}

// TestRunKeywordAndDefaultBinding covers spec §8's scenario 4: calling
// a function that relies on a default and, separately, overriding that
// default by keyword.
func TestRunKeywordAndDefaultBinding(t *testing.T) {
	globals := newGlobals(t)
	code := mustCode(t, pybuiltin.CodeObj{
		Name:     "add",
		Argcount: 2,
		Nlocals:  2,
		Flags:    pybuiltin.CodeOptimized,
		Varnames: []string{"a", "b"},
		Bytecode: ops(
			int(pyframe.LoadFast), 0,
			int(pyframe.LoadFast), 1,
			int(pyframe.BinaryAdd), 0,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 2,
	})
	fnVal := pybuiltin.NewFunction(code, globals, "add", nil)
	fnObj, ok := pybuiltin.AsFunction(fnVal)
	require.True(t, ok)
	fnObj.Defaults = pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(5)})

	r, err := pyabstract.Call(fnVal, pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(1)}), pytype.NoneVal())
	require.NoError(t, err)
	require.Equal(t, int64(6), r.AsInt())

	kwargsV := pybuiltin.NewDict()
	kwargs, _ := pybuiltin.AsDict(kwargsV)
	require.NoError(t, kwargs.Set(pybuiltin.NewStr("b"), pytype.IntVal(10)))

	r, err = pyabstract.Call(fnVal, pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(1)}), kwargsV)
	require.NoError(t, err)
	require.Equal(t, int64(11), r.AsInt())
}

// TestRunSubscriptDispatch covers spec §8's scenario 5: BINARY_SUBSCR
// and STORE_SUBSCR against a list built at runtime.
func TestRunSubscriptDispatch(t *testing.T) {
	globals := newGlobals(t)
	code := mustCode(t, pybuiltin.CodeObj{
		Name: "<module>",
		Consts: []pytype.Value{
			pytype.IntVal(1), pytype.IntVal(2), pytype.IntVal(3),
			pytype.IntVal(0), pytype.IntVal(99), pytype.IntVal(1),
			pytype.NoneVal(),
		},
		Names: []string{"lst", "first"},
		Bytecode: ops(
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.LoadConst), 2,
			int(pyframe.BuildList), 3,
			int(pyframe.StoreName), 0,
			int(pyframe.LoadName), 0,
			int(pyframe.LoadConst), 3,
			int(pyframe.BinarySubscr), 0,
			int(pyframe.StoreName), 1,
			int(pyframe.LoadConst), 4,
			int(pyframe.LoadName), 0,
			int(pyframe.LoadConst), 5,
			int(pyframe.StoreSubscr), 0,
			int(pyframe.LoadConst), 6,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 3,
	})

	frame, err := pyframe.NewModuleFrame(code, globals)
	require.NoError(t, err)
	_, err = pyframe.Run(frame)
	require.NoError(t, err)

	first, ok, err := globals.Get(pybuiltin.NewStr("first"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), first.AsInt())

	lstV, ok, err := globals.Get(pybuiltin.NewStr("lst"))
	require.NoError(t, err)
	require.True(t, ok)
	lst, ok := pybuiltin.AsList(lstV)
	require.True(t, ok)
	require.Equal(t, int64(99), lst.Elems[1].AsInt())
}

// TestRunDivisionModuloAndInvertHaveNoSlotTableEntry exercises the
// opcodes spec §4.G requires that §4.B's slot table does not cover
// (BINARY_TRUE_DIVIDE/BINARY_FLOOR_DIVIDE/BINARY_MODULO/UNARY_INVERT),
// dispatched directly against int/float rather than through a slot.
func TestRunDivisionModuloAndInvertHaveNoSlotTableEntry(t *testing.T) {
	globals := newGlobals(t)
	code := mustCode(t, pybuiltin.CodeObj{
		Name: "<module>",
		Consts: []pytype.Value{
			pytype.IntVal(7), pytype.IntVal(2), pytype.IntVal(5),
		},
		Names: []string{"truediv", "floordiv", "mod", "inv"},
		Bytecode: ops(
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.BinaryTrueDivide), 0,
			int(pyframe.StoreName), 0,
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.BinaryFloorDivide), 0,
			int(pyframe.StoreName), 1,
			int(pyframe.LoadConst), 0,
			int(pyframe.LoadConst), 1,
			int(pyframe.BinaryModulo), 0,
			int(pyframe.StoreName), 2,
			int(pyframe.LoadConst), 2,
			int(pyframe.UnaryInvert), 0,
			int(pyframe.StoreName), 3,
			int(pyframe.LoadConst), 0,
			int(pyframe.ReturnValue), 0,
		),
		Stacksize: 2,
	})

	frame, err := pyframe.NewModuleFrame(code, globals)
	require.NoError(t, err)
	_, err = pyframe.Run(frame)
	require.NoError(t, err)

	truediv, _, _ := globals.Get(pybuiltin.NewStr("truediv"))
	require.Equal(t, 3.5, truediv.AsFloat())

	floordiv, _, _ := globals.Get(pybuiltin.NewStr("floordiv"))
	require.Equal(t, int64(3), floordiv.AsInt())

	mod, _, _ := globals.Get(pybuiltin.NewStr("mod"))
	require.Equal(t, int64(1), mod.AsInt())

	inv, _, _ := globals.Get(pybuiltin.NewStr("inv"))
	require.Equal(t, int64(-6), inv.AsInt())
}

// TestCallTypeEnquiryVsConstruction covers spec §8's scenario 6:
// calling a type value with one argument queries the argument's own
// type (type(x) is type), while calling a different built-in type
// constructs an instance of it.
func TestCallTypeEnquiryVsConstruction(t *testing.T) {
	typeTypeVal := pybuiltin.TypeValueOf(pybuiltin.TypeType)
	r, err := pyabstract.Call(typeTypeVal, pybuiltin.NewTuple([]pytype.Value{pytype.IntVal(5)}), pytype.NoneVal())
	require.NoError(t, err)
	require.True(t, r.Is(pybuiltin.TypeValueOf(pybuiltin.IntType)))

	intTypeVal := pybuiltin.TypeValueOf(pybuiltin.IntType)
	r, err = pyabstract.Call(intTypeVal, pybuiltin.NewTuple([]pytype.Value{pybuiltin.NewStr("42")}), pytype.NoneVal())
	require.NoError(t, err)
	require.Same(t, pybuiltin.IntType, r.RuntimeType())
	require.Equal(t, int64(42), r.AsInt())
}
