// Package pycall wires the call machinery of spec §4.H onto the
// built-in types that pybuiltin.Register leaves un-finished
// (function, builtin_function, type; plus module's attribute slots)
// and exposes the conventional
// builtins dict a host assembles into a module's `__builtins__`.
//
// Grounded on the teacher's internal/vm/vm_calls.go callValue type
// switch, which plays the same "given a callable Value, dispatch to
// the right invocation strategy" role for funxy's own three callable
// kinds (BuiltinClosure, ObjClosure, VMComposedFunction).
package pycall

import (
	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pyframe"
	"github.com/funvibe/pyjox/internal/pytype"
)

var wired bool

// Wire installs the `call` slot on function/builtin_function/type and
// finishes those three types (plus module, which gets getattribute/
// setattr rather than call). Must run
// once, after pybuiltin.Register, before any call is attempted.
func Wire() {
	if wired {
		return
	}
	wired = true

	must(pybuiltin.FunctionType.DefineSlot(pytype.SlotCall, pytype.CallOp(callFunction)))
	must(pybuiltin.BuiltinFunctionType.DefineSlot(pytype.SlotCall, pytype.CallOp(callBuiltinFunction)))
	must(pybuiltin.TypeType.DefineSlot(pytype.SlotCall, pytype.CallOp(callType)))

	must(pybuiltin.ModuleType.DefineSlot(pytype.SlotGetAttribute, pytype.GetAttrOp(moduleGetAttribute)))
	must(pybuiltin.ModuleType.DefineSlot(pytype.SlotSetAttr, pytype.SetAttrOp(moduleSetAttr)))

	pybuiltin.FunctionType.Finish()
	pybuiltin.BuiltinFunctionType.Finish()
	pybuiltin.ModuleType.Finish()
	pybuiltin.TypeType.Finish()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// callFunction implements spec §4.H's "Python function call": build a
// frame via the argument binder, run the interpreter, return its
// result. All of the actual work lives in pyframe; this is the thin
// adapter that makes a *pybuiltin.FunctionObj satisfy the `call` slot
// signature.
func callFunction(self, args, kwargs pytype.Value) (pytype.Value, error) {
	fn, ok := pybuiltin.AsFunction(self)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callFunction: self is not a function")
	}
	tup, ok := pybuiltin.AsTuple(args)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callFunction: args is not a tuple")
	}
	kw, err := asKwargsDict(kwargs)
	if err != nil {
		return pytype.Value{}, err
	}
	frame, err := pyframe.NewCallFrame(fn, tup.Elems, kw)
	if err != nil {
		return pytype.Value{}, err
	}
	return pyframe.Run(frame)
}

// callBuiltinFunction implements spec §4.H's "Built-in function call":
// the Flags-driven signature-lifting guard runs here; the actual
// arity/type adapting for a fixed-N built-in is the Impl closure's own
// job (registered natively in Go, there is no runtime reflection step
// to perform -- the teacher's callBuiltinClosure plays the analogous
// role for its own BuiltinClosure.Fn).
func callBuiltinFunction(self, args, kwargs pytype.Value) (pytype.Value, error) {
	b, ok := pybuiltin.AsBuiltinFunction(self)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callBuiltinFunction: self is not a builtin_function")
	}
	tup, ok := pybuiltin.AsTuple(args)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callBuiltinFunction: args is not a tuple")
	}
	kw, err := asKwargsDict(kwargs)
	if err != nil {
		return pytype.Value{}, err
	}
	if !b.Flags.Has(pybuiltin.BuiltinKeywords) && kw.Len() > 0 {
		return pytype.Value{}, pyerr.NewTypeError("%s() takes no keyword arguments", b.Name)
	}
	return b.Impl(tup.Elems, kw)
}

// callType implements spec §4.H's "Type construction": the enquiry
// shortcut when the callable is literally the `type` type itself
// (spec §4.E "type (as a value)"), otherwise new()+conditional init().
func callType(self, args, kwargs pytype.Value) (pytype.Value, error) {
	target, ok := pybuiltin.AsTypeValue(self)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callType: self is not a type value")
	}
	tup, ok := pybuiltin.AsTuple(args)
	if !ok {
		return pytype.Value{}, pyerr.Internal("callType: args is not a tuple")
	}
	kw, err := asKwargsDict(kwargs)
	if err != nil {
		return pytype.Value{}, err
	}

	if target == pybuiltin.TypeType && len(tup.Elems) == 1 && kw.Len() == 0 {
		return pybuiltin.TypeValueOf(tup.Elems[0].RuntimeType()), nil
	}

	if !target.HasSlot(pytype.SlotNew) {
		return pytype.Value{}, pyerr.NewTypeError("cannot create '%s' instances", target.Name)
	}
	newOp := target.LookupSlot(pytype.SlotNew).(pytype.NewOp)
	obj, err := newOp(target, args, kwargs)
	if err != nil {
		return pytype.Value{}, err
	}
	ot := obj.RuntimeType()
	if ot.IsSubTypeOf(target) && ot.HasSlot(pytype.SlotInit) {
		initOp := ot.LookupSlot(pytype.SlotInit).(pytype.InitOp)
		if err := initOp(obj, args, kwargs); err != nil {
			return pytype.Value{}, err
		}
	}
	return obj, nil
}

// moduleGetAttribute/moduleSetAttr back `module.name` with the
// module's own dict (spec §4.E "module": "namespace backed by a
// dict"), the one attribute-access pair registry.go's comment deferred
// to this package since a module's dict is itself a pybuiltin type.
func moduleGetAttribute(self, name pytype.Value) (pytype.Value, error) {
	m, ok := pybuiltin.AsModule(self)
	if !ok {
		return pytype.Value{}, pyerr.Internal("moduleGetAttribute: self is not a module")
	}
	v, ok, err := m.Dict.Get(name)
	if err != nil {
		return pytype.Value{}, err
	}
	if !ok {
		attr, _ := pybuiltin.AsStrValue(name)
		return pytype.Value{}, pyerr.NewAttributeError("module '%s' has no attribute '%s'", m.Name, attr)
	}
	return v, nil
}

func moduleSetAttr(self, name, val pytype.Value) error {
	m, ok := pybuiltin.AsModule(self)
	if !ok {
		return pyerr.Internal("moduleSetAttr: self is not a module")
	}
	return m.Dict.Set(name, val)
}

// asKwargsDict normalizes a call's kwargs Value (None or a dict) to a
// non-nil *DictObj, so callees never need to nil-check it.
func asKwargsDict(kwargs pytype.Value) (*pybuiltin.DictObj, error) {
	if kwargs.IsNone() {
		d, _ := pybuiltin.AsDict(pybuiltin.NewDict())
		return d, nil
	}
	d, ok := pybuiltin.AsDict(kwargs)
	if !ok {
		return nil, pyerr.Internal("call: kwargs is neither None nor a dict")
	}
	return d, nil
}

// DefaultBuiltins assembles the conventional builtins dict a host
// installs as a module's `__builtins__` (spec §6 "Environment
// contract"): the singletons plus every built-in type as a callable
// type value. Register and Wire must both have already run.
func DefaultBuiltins() *pybuiltin.DictObj {
	d, _ := pybuiltin.AsDict(pybuiltin.NewDict())
	entries := map[string]pytype.Value{
		"None":             pytype.NoneVal(),
		"NotImplemented":   pybuiltin.NotImplementedVal,
		"True":             pybuiltin.True,
		"False":            pybuiltin.False,
		"bool":             pybuiltin.TypeValueOf(pybuiltin.BoolType),
		"int":              pybuiltin.TypeValueOf(pybuiltin.IntType),
		"float":            pybuiltin.TypeValueOf(pybuiltin.FloatType),
		"str":              pybuiltin.TypeValueOf(pybuiltin.StrType),
		"bytes":            pybuiltin.TypeValueOf(pybuiltin.BytesType),
		"tuple":            pybuiltin.TypeValueOf(pybuiltin.TupleType),
		"list":             pybuiltin.TypeValueOf(pybuiltin.ListType),
		"dict":             pybuiltin.TypeValueOf(pybuiltin.DictType),
		"type":             pybuiltin.TypeValueOf(pybuiltin.TypeType),
	}
	for name, v := range entries {
		_ = d.Set(pybuiltin.NewStr(name), v)
	}
	return d
}
