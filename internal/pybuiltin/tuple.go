package pybuiltin

import (
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// TupleObj is an immutable, heterogeneous ordered sequence (spec
// §4.E "tuple"). Grounded directly on teacher's
// Tuple{Elements []Object} shape.
type TupleObj struct {
	Elems []pytype.Value
}

func NewTuple(elems []pytype.Value) pytype.Value {
	cp := make([]pytype.Value, len(elems))
	copy(cp, elems)
	return pytype.ObjVal(&TupleObj{Elems: cp})
}

var emptyTuple = NewTuple(nil)

// EmptyTuple returns the canonical empty tuple, used as the default
// `args` by call machinery when a callable takes none.
func EmptyTuple() pytype.Value { return emptyTuple }

func (t *TupleObj) Kind() string { return "tuple" }
func (t *TupleObj) Repr() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = ReprOf(e)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleObj) RuntimeType() *pytype.Type { return TupleType }

// AsTuple extracts the element slice from a Value known to wrap a
// TupleObj (the call-machinery contract, spec §4.D "call").
func AsTuple(v pytype.Value) (*TupleObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	t, ok := v.Obj.(*TupleObj)
	return t, ok
}

// ReprOf calls an object's repr slot directly; a thin convenience used
// by container Inspect/Repr implementations which need a nested repr
// without pulling in the full abstract-operations package (which
// would create an import cycle -- pyabstract is layered above
// pybuiltin). This is the same direct-dispatch shortcut dict/list/
// tuple Repr use throughout this package.
func ReprOf(v pytype.Value) string {
	op := v.RuntimeType().LookupSlot(pytype.SlotRepr).(pytype.UnaryOp)
	r, err := op(v)
	if err != nil {
		return "<repr error>"
	}
	s, _ := asStr(r)
	if s == nil {
		return "<?>"
	}
	return s.String()
}

func installTupleSlots() {
	must(TupleType.DefineSlot(pytype.SlotSqLength, pytype.LenOp(func(self pytype.Value) (int64, error) {
		t, _ := AsTuple(self)
		return int64(len(t.Elems)), nil
	})))
	must(TupleType.DefineSlot(pytype.SlotMpSubscript, pytype.ItemGetOp(func(self, key pytype.Value) (pytype.Value, error) {
		t, _ := AsTuple(self)
		if !key.IsInt() {
			return pytype.Value{}, pyerr.NewTypeError("tuple indices must be integers")
		}
		i := key.AsInt()
		if i < 0 {
			i += int64(len(t.Elems))
		}
		if i < 0 || i >= int64(len(t.Elems)) {
			return pytype.Value{}, pyerr.NewIndexError("tuple index out of range")
		}
		return t.Elems[i], nil
	})))
	must(TupleType.DefineSlot(pytype.SlotSqRepeat, pytype.RepeatOp(func(self pytype.Value, n int64) (pytype.Value, error) {
		t, _ := AsTuple(self)
		if n <= 0 {
			return EmptyTuple(), nil
		}
		out := make([]pytype.Value, 0, int64(len(t.Elems))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, t.Elems...)
		}
		return NewTuple(out), nil
	})))
	must(TupleType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		t, _ := AsTuple(self)
		return pytype.BoolVal(len(t.Elems) != 0), nil
	})))
	must(TupleType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		t, _ := AsTuple(self)
		return NewStr(t.Repr()), nil
	})))
	must(TupleType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		t, _ := AsTuple(self)
		h := uint64(1)
		for _, e := range t.Elems {
			hashOp := e.RuntimeType().LookupSlot(pytype.SlotHash).(pytype.LenOp)
			eh, err := hashOp(e)
			if err != nil {
				eh = 0
			}
			h = 31*h + uint64(eh)
		}
		return int64(h), nil
	})))
	must(TupleType.DefineSlot(pytype.SlotRichCompare, pytype.RichCompareOp(tupleRichCompare)))
}

func tupleRichCompare(self, other pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
	a, _ := AsTuple(self)
	b, ok := AsTuple(other)
	if !ok {
		return NotImplementedVal, nil
	}
	n := len(a.Elems)
	if len(b.Elems) < n {
		n = len(b.Elems)
	}
	for i := 0; i < n; i++ {
		cmpOp := a.Elems[i].RuntimeType().LookupSlot(pytype.SlotRichCompare).(pytype.RichCompareOp)
		eq, err := cmpOp(a.Elems[i], b.Elems[i], pytype.CmpEQ)
		if err == nil && eq.IsBool() && !eq.AsBool() {
			ltRes, err := cmpOp(a.Elems[i], b.Elems[i], pytype.CmpLT)
			if err == nil && ltRes.IsBool() {
				if ltRes.AsBool() {
					return pytype.BoolVal(op == pytype.CmpLT || op == pytype.CmpLE || op == pytype.CmpNE), nil
				}
				return pytype.BoolVal(op == pytype.CmpGT || op == pytype.CmpGE || op == pytype.CmpNE), nil
			}
		}
	}
	cmp := len(a.Elems) - len(b.Elems)
	return pytype.BoolVal(compareMatches(cmp, op)), nil
}
