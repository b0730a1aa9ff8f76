package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// FunctionObj is a user-defined function (spec §3 "Function"): it
// owns its Code, the globals dict it closes over, its name, its
// closure cells (matching code.Freevars 1:1), and the optional
// defaults/kwdefaults/annotations used by the binder (§4.F).
//
// FunctionType's `call` slot is installed later by pycall.Wire --
// calling a function requires constructing a frame and running the
// interpreter, which live above this package.
type FunctionObj struct {
	Code        *CodeObj
	Globals     *DictObj
	Name        string
	Closure     []pytype.Value // each a cell Value, len == len(Code.Freevars)
	Defaults    pytype.Value   // tuple, may be EmptyTuple()
	KwDefaults  pytype.Value   // dict or zero Value if none
	Annotations pytype.Value   // dict or zero Value if none
}

func NewFunction(code *CodeObj, globals *DictObj, name string, closure []pytype.Value) pytype.Value {
	return pytype.ObjVal(&FunctionObj{
		Code:     code,
		Globals:  globals,
		Name:     name,
		Closure:  closure,
		Defaults: EmptyTuple(),
	})
}

func (f *FunctionObj) Kind() string             { return "function" }
func (f *FunctionObj) Repr() string              { return "<function " + f.Name + ">" }
func (f *FunctionObj) RuntimeType() *pytype.Type { return FunctionType }

func AsFunction(v pytype.Value) (*FunctionObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	fn, ok := v.Obj.(*FunctionObj)
	return fn, ok
}

// BuiltinFlags mirrors spec §3's "Built-in function" Flags set.
type BuiltinFlags uint8

const (
	BuiltinVarargs BuiltinFlags = 1 << iota
	BuiltinKeywords
	BuiltinFastcall
	BuiltinStatic
	BuiltinClass
)

func (f BuiltinFlags) Has(flag BuiltinFlags) bool { return f&flag != 0 }

// BuiltinFunctionObj is a natively-implemented callable (spec §3
// "Built-in function (method definition)", §4.H). Impl is the
// normalized adapter with the Python calling convention -- the
// natural Go implementation it wraps is not itself stored, matching
// spec's "holds ... a normalized adapter reference".
type BuiltinFunctionObj struct {
	Name  string
	Doc   string
	Flags BuiltinFlags
	Impl  func(args []pytype.Value, kwargs *DictObj) (pytype.Value, error)
}

func NewBuiltinFunction(name, doc string, flags BuiltinFlags, impl func([]pytype.Value, *DictObj) (pytype.Value, error)) pytype.Value {
	return pytype.ObjVal(&BuiltinFunctionObj{Name: name, Doc: doc, Flags: flags, Impl: impl})
}

func (b *BuiltinFunctionObj) Kind() string { return "builtin_function" }
func (b *BuiltinFunctionObj) Repr() string {
	return "<built-in function " + b.Name + ">"
}
func (b *BuiltinFunctionObj) RuntimeType() *pytype.Type { return BuiltinFunctionType }

func AsBuiltinFunction(v pytype.Value) (*BuiltinFunctionObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	b, ok := v.Obj.(*BuiltinFunctionObj)
	return b, ok
}

// ModuleObj is a namespace backed by a dict (spec §4.E "module"):
// "namespace backed by a dict; name attribute; init() populates dict
// with the module's exported names."
type ModuleObj struct {
	Name string
	Dict *DictObj
}

func NewModule(name string) pytype.Value {
	d, _ := AsDict(NewDict())
	return pytype.ObjVal(&ModuleObj{Name: name, Dict: d})
}

func (m *ModuleObj) Kind() string             { return "module" }
func (m *ModuleObj) Repr() string              { return "<module '" + m.Name + "'>" }
func (m *ModuleObj) RuntimeType() *pytype.Type { return ModuleType }

func AsModule(v pytype.Value) (*ModuleObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	m, ok := v.Obj.(*ModuleObj)
	return m, ok
}

// Init populates the module dict with its exported names (spec §4.E
// "init() populates dict with the module's exported names"). The
// concrete export set is supplied by the caller (e.g. pyhost's
// _host_rpc module); this just performs the documented mechanics.
func (m *ModuleObj) Init(exports map[string]pytype.Value) {
	for name, val := range exports {
		_ = m.Dict.Set(NewStr(name), val)
	}
	_ = m.Dict.Set(NewStr("__name__"), NewStr(m.Name))
}
