package pyframe

import (
	"github.com/google/uuid"

	"github.com/funvibe/pyjox/internal/pybind"
	"github.com/funvibe/pyjox/internal/pybuiltin"
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// MaxFrameDepth bounds the thread-state frame stack, mirroring the
// teacher's VM.MaxFrameCount guard against unbounded recursion (here
// it also protects the Go call stack, since Run recurses through
// pyabstract.Call for every nested Python call). A var, not a const,
// so a host can apply config.RuntimeOptions.MaxFrameDepth at startup.
var MaxFrameDepth = 2000

// Frame is one activation record (spec §3 "Frame"): it owns the
// fast-locals array, the value stack, and the cell/free variable
// arrays, and links to the calling frame for builtins inference and
// tracebacks. Grounded on the teacher's vm.CallFrame (closure, chunk,
// ip, base), widened with the fastlocals/cellvars/freevars/locals
// duality CPython 3.8 frames need that funxy's simpler calling
// convention does not.
type Frame struct {
	Code     *pybuiltin.CodeObj
	Globals  *pybuiltin.DictObj
	Builtins *pybuiltin.DictObj
	Back     *Frame

	FastLocals []pytype.Value
	Bound      []bool
	Cellvars   []pytype.Value // each a cell Value
	Freevars   []pytype.Value // each a cell Value

	ValueStack []pytype.Value
	sp         int

	// Locals is the name->value dict used by LOAD_NAME/STORE_NAME/
	// DELETE_NAME on non-OPTIMIZED code (spec §4.G); nil for ordinary
	// function frames, which use FastLocals exclusively.
	Locals *pybuiltin.DictObj

	ReturnValue pytype.Value

	// TraceID stamps each frame for diagnostics/tracing, SPEC_FULL §2's
	// domain-stack wiring (not part of the Python-visible frame state).
	TraceID string

	ip int
}

// currentFrame is the single-threaded thread state of spec §3
// ("Thread state: pointer to the current top frame"): the CORE is
// explicitly single-threaded (§5), so a package-level pointer plays
// the same role the teacher's VM instance plays for one goroutine.
var currentFrame *Frame

// depth counts frames currently on the thread-state stack.
var depth int

// NewModuleFrame constructs the frame for top-level module execution:
// non-OPTIMIZED code whose Locals dict is the same object as globals
// (CPython's module-scope convention), with no calling frame above it.
func NewModuleFrame(code *pybuiltin.CodeObj, globals *pybuiltin.DictObj) (*Frame, error) {
	builtins, err := inferBuiltins(globals, currentFrame)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		Code:       code,
		Globals:    globals,
		Builtins:   builtins,
		FastLocals: make([]pytype.Value, code.Nlocals),
		Bound:      make([]bool, code.Nlocals),
		Locals:     globals,
		TraceID:    newTraceID(),
	}
	f.Cellvars = allocCells(len(code.Cellvars))
	f.ValueStack = make([]pytype.Value, code.Stacksize)
	return f, nil
}

// NewCallFrame binds args/kwargs against fn's code (spec §4.F) and
// constructs the frame that Run will execute: fast-locals for
// parameters, pre-allocated cells, the function's captured freevars,
// and builtins inferred relative to the current thread-state frame
// (spec §4.G "builtins inference on frame push").
func NewCallFrame(fn *pybuiltin.FunctionObj, args []pytype.Value, kwargs *pybuiltin.DictObj) (*Frame, error) {
	code := fn.Code
	if len(fn.Closure) != len(code.Freevars) {
		return nil, pyerr.Internal("function %q: closure length %d does not match code.freevars length %d",
			fn.Name, len(fn.Closure), len(code.Freevars))
	}

	fastlocals := make([]pytype.Value, code.Nlocals)
	bound := make([]bool, code.Nlocals)

	defaults, _ := pybuiltin.AsTuple(fn.Defaults)
	var defaultVals []pytype.Value
	if defaults != nil {
		defaultVals = defaults.Elems
	}
	var kwdefaults *pybuiltin.DictObj
	if !fn.KwDefaults.IsNone() {
		kwdefaults, _ = pybuiltin.AsDict(fn.KwDefaults)
	}

	if err := pybind.Bind(fastlocals, bound, code, args, kwargs, defaultVals, kwdefaults); err != nil {
		return nil, err
	}

	cells := allocCells(len(code.Cellvars))
	pybind.ApplyCell2Arg(fastlocals, bound, cells, code.Cell2Arg)

	builtins, err := inferBuiltins(fn.Globals, currentFrame)
	if err != nil {
		return nil, err
	}

	f := &Frame{
		Code:       code,
		Globals:    fn.Globals,
		Builtins:   builtins,
		FastLocals: fastlocals,
		Bound:      bound,
		Cellvars:   cells,
		Freevars:   fn.Closure,
		ValueStack: make([]pytype.Value, code.Stacksize),
		TraceID:    newTraceID(),
	}
	if !code.Flags.Has(pybuiltin.CodeOptimized) {
		d, _ := pybuiltin.AsDict(pybuiltin.NewDict())
		f.Locals = d
	}
	return f, nil
}

func allocCells(n int) []pytype.Value {
	cells := make([]pytype.Value, n)
	for i := range cells {
		cells[i] = pybuiltin.NewCell()
	}
	return cells
}

func newTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return id.String()
}

// inferBuiltins implements spec §4.G's builtins-inference-on-push
// rule: a frame inherits its caller's builtins when they share the
// same globals dict (the common case: nested defs in one module),
// otherwise it resolves `__builtins__` out of its own globals.
func inferBuiltins(globals *pybuiltin.DictObj, back *Frame) (*pybuiltin.DictObj, error) {
	if back != nil && back.Globals == globals {
		return back.Builtins, nil
	}
	v, ok, err := globals.Get(pybuiltin.NewStr("__builtins__"))
	if err != nil {
		return nil, err
	}
	if !ok {
		d, _ := pybuiltin.AsDict(pybuiltin.NewDict())
		return d, nil
	}
	if m, ok := pybuiltin.AsModule(v); ok {
		return m.Dict, nil
	}
	if d, ok := pybuiltin.AsDict(v); ok {
		return d, nil
	}
	return nil, pyerr.NewTypeError("__builtins__ must be a module or dict")
}

// push/pop maintain the thread-state frame stack around Run.
func push(f *Frame) error {
	if depth >= MaxFrameDepth {
		return pyerr.NewSystemError("maximum recursion depth exceeded")
	}
	f.Back = currentFrame
	currentFrame = f
	depth++
	return nil
}

func pop() {
	currentFrame = currentFrame.Back
	depth--
}

// Current returns the frame at the top of the thread-state stack, or
// nil if no frame is executing.
func Current() *Frame { return currentFrame }

func (f *Frame) push(v pytype.Value) {
	f.ValueStack[f.sp] = v
	f.sp++
}

func (f *Frame) pop() pytype.Value {
	f.sp--
	v := f.ValueStack[f.sp]
	f.ValueStack[f.sp] = pytype.Value{}
	return v
}

func (f *Frame) top() pytype.Value { return f.ValueStack[f.sp-1] }

func (f *Frame) popN(n int) []pytype.Value {
	out := make([]pytype.Value, n)
	copy(out, f.ValueStack[f.sp-n:f.sp])
	for i := f.sp - n; i < f.sp; i++ {
		f.ValueStack[i] = pytype.Value{}
	}
	f.sp -= n
	return out
}
