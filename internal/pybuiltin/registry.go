// Package pybuiltin implements the fixed set of built-in Python value
// types of spec §4.E: int, float, bool, str, bytes, tuple, list,
// dict, NoneType, NotImplementedType, cell, code, function,
// builtin_function, module, and frame (frame's descriptor only --
// the Frame struct itself lives in internal/pyframe, which is
// layered above this package).
package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// Built-in type descriptors. Populated by Register at process
// initialization. list, dict, cell and module carry FlagMutable, so
// their slot tables accept DefineSlot after Finish; every other
// built-in type is read-only once finished.
var (
	NoneType            *pytype.Type
	NotImplementedType  *pytype.Type
	BoolType            *pytype.Type
	IntType             *pytype.Type
	FloatType           *pytype.Type
	StrType             *pytype.Type
	BytesType           *pytype.Type
	TupleType           *pytype.Type
	ListType            *pytype.Type
	DictType            *pytype.Type
	CellType            *pytype.Type
	CodeType            *pytype.Type
	FunctionType         *pytype.Type
	BuiltinFunctionType *pytype.Type
	ModuleType          *pytype.Type
	FrameType           *pytype.Type
	TypeType            *pytype.Type
)

// registered guards against Register running twice (idempotent init
// pattern, since several entry points -- tests, cmd/pyjox -- all want
// a fully wired type registry).
var registered bool

// Register constructs every built-in type descriptor and installs
// its slots. It must run before any pybuiltin value is created.
// The `call` slots of FunctionType, BuiltinFunctionType and TypeType,
// and ModuleType's getattribute/setattr slots, are deliberately left
// uninstalled here -- internal/pycall.Wire installs them via
// Type.DefineSlot and then calls Finish on those four types. This mirrors the
// teacher's split between value representation (evaluator.Object)
// and the VM that knows how to invoke one (vm.callValue).
func Register() {
	if registered {
		return
	}
	registered = true

	NoneType = pytype.NewType("NoneType", 0, nil)
	NotImplementedType = pytype.NewType("NotImplementedType", 0, nil)
	IntType = pytype.NewType("int", pytype.FlagBaseType, nil)
	BoolType = pytype.NewType("bool", 0, IntType)
	FloatType = pytype.NewType("float", pytype.FlagBaseType, nil)
	StrType = pytype.NewType("str", pytype.FlagBaseType, nil)
	BytesType = pytype.NewType("bytes", pytype.FlagBaseType, nil)
	TupleType = pytype.NewType("tuple", pytype.FlagBaseType, nil)
	ListType = pytype.NewType("list", pytype.FlagBaseType|pytype.FlagMutable, nil)
	DictType = pytype.NewType("dict", pytype.FlagBaseType|pytype.FlagMutable, nil)
	CellType = pytype.NewType("cell", pytype.FlagMutable, nil)
	CodeType = pytype.NewType("code", 0, nil)
	FunctionType = pytype.NewType("function", 0, nil)
	BuiltinFunctionType = pytype.NewType("builtin_function", 0, nil)
	ModuleType = pytype.NewType("module", pytype.FlagMutable, nil)
	FrameType = pytype.NewType("frame", 0, nil)
	TypeType = pytype.NewType("type", 0, nil)

	pytype.NoneType = NoneType
	pytype.BoolType = BoolType
	pytype.IntType = IntType
	pytype.FloatType = FloatType

	installNoneSlots()
	installGeneratedSlots()
	installIntSlots()
	installBoolSlots()
	installFloatSlots()
	installStrSlots()
	installBytesSlots()
	installTupleSlots()
	installListSlots()
	installDictSlots()
	installCellSlots()
	installCodeSlots()
	installFrameSlots()
	installTypeValueSlots()

	for _, t := range []*pytype.Type{
		NoneType, NotImplementedType, BoolType, IntType, FloatType, StrType,
		BytesType, TupleType, ListType, DictType, CellType, CodeType, FrameType,
	} {
		t.Finish()
	}
	// FunctionType, BuiltinFunctionType, ModuleType, TypeType are
	// finished by pycall.Wire once their `call` (and, for module,
	// `getattribute`) slots are installed.
}

// must panics on programmer error during built-in type construction
// (a slot signature mismatch at startup is a bug, not a Python
// exception -- there is no frame yet to raise one into).
func must(err error) {
	if err != nil {
		panic(err)
	}
}
