package pybuiltin

import "github.com/funvibe/pyjox/internal/pytype"

// FrameType is the minimal descriptor for spec §3's "Frame" built-in
// type. The concrete Frame struct (fastlocals, cellvars/freevars,
// valuestack, the interpreter loop itself) lives in internal/pyframe,
// which imports this package for FrameType and the other built-in
// type descriptors it needs to interpret bytecode against -- keeping
// the dependency one-directional (pyframe depends on pybuiltin, never
// the reverse) the same way pycall.Wire installs FunctionType's call
// slot from above rather than pybuiltin depending on pyframe.
func installFrameSlots() {
	must(FrameType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return NewStr("<frame object>"), nil
	})))
}
