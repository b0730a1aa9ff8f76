package pybuiltin

import (
	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// CodeFlags mirrors spec §3's code-object `traits` set.
type CodeFlags uint16

const (
	CodeOptimized CodeFlags = 1 << iota
	CodeNewLocals
	CodeVarargs
	CodeVarKeywords
	CodeNested
	CodeGenerator
	CodeCoroutine
)

func (f CodeFlags) Has(flag CodeFlags) bool { return f&flag != 0 }

// CodeObj is an immutable-after-construction code object (spec §3
// "Code object"). Grounded on the teacher's vm.CodeObject wordcode
// shape, widened to the full CPython 3.8 field set the spec names.
type CodeObj struct {
	Argcount       int
	PosOnlyArgcount int
	KwOnlyArgcount int
	Nlocals        int
	Stacksize      int
	Flags          CodeFlags

	Bytecode []byte // two bytes per instruction: opcode, oparg

	Consts   []pytype.Value
	Names    []string
	Varnames []string
	Cellvars []string
	Freevars []string

	// Cell2Arg maps a cellvars index to the varnames index of the
	// parameter it aliases, for parameters that are also closed over
	// (spec §3 "cell2arg").
	Cell2Arg map[int]int

	Name         string
	Filename     string
	FirstLineNo  int
}

// NewCode validates and constructs a code object. Per spec §3:
// "construction validates that argcount + kwonlyargcount <= nlocals
// and the VARARGS/VARKEYWORDS index positions fit."
func NewCode(c CodeObj) (*CodeObj, error) {
	if c.Argcount+c.KwOnlyArgcount > c.Nlocals {
		return nil, pyerr.Internal("code: argcount+kwonlyargcount (%d) exceeds nlocals (%d)",
			c.Argcount+c.KwOnlyArgcount, c.Nlocals)
	}
	extra := 0
	if c.Flags.Has(CodeVarargs) {
		extra++
	}
	if c.Flags.Has(CodeVarKeywords) {
		extra++
	}
	if c.Argcount+c.KwOnlyArgcount+extra > c.Nlocals {
		return nil, pyerr.Internal("code: VARARGS/VARKEYWORDS index position does not fit in nlocals (%d)", c.Nlocals)
	}
	if len(c.Bytecode)%2 != 0 {
		return nil, pyerr.Internal("code: bytecode length %d is not a multiple of 2", len(c.Bytecode))
	}
	cp := c
	cp.Consts = append([]pytype.Value(nil), c.Consts...)
	cp.Names = append([]string(nil), c.Names...)
	cp.Varnames = append([]string(nil), c.Varnames...)
	cp.Cellvars = append([]string(nil), c.Cellvars...)
	cp.Freevars = append([]string(nil), c.Freevars...)
	cp.Bytecode = append([]byte(nil), c.Bytecode...)
	return &cp, nil
}

func NewCodeValue(c CodeObj) (pytype.Value, error) {
	co, err := NewCode(c)
	if err != nil {
		return pytype.Value{}, err
	}
	return pytype.ObjVal(co), nil
}

func (c *CodeObj) Kind() string { return "code" }
func (c *CodeObj) Repr() string {
	return "<code object " + c.Name + ", file \"" + c.Filename + "\", line " + itoa(c.FirstLineNo) + ">"
}
func (c *CodeObj) RuntimeType() *pytype.Type { return CodeType }

func AsCode(v pytype.Value) (*CodeObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	co, ok := v.Obj.(*CodeObj)
	return co, ok
}

// NameIndex returns the index of name within c.Names, or -1.
func (c *CodeObj) NameIndex(name string) int {
	for i, n := range c.Names {
		if n == name {
			return i
		}
	}
	return -1
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func installCodeSlots() {
	must(CodeType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		c, _ := AsCode(self)
		return NewStr(c.Repr()), nil
	})))
}
