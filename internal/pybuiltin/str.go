package pybuiltin

import (
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// StrObj is an immutable sequence of Unicode scalars (spec §4.E
// "str"). Grounded on the teacher's Char-list string heuristic
// (internal/evaluator/object_collections.go List.Inspect), given its
// own first-class representation since spec requires str to be a
// distinct built-in type rather than a list of chars.
type StrObj struct {
	Runes []rune
}

func NewStr(s string) pytype.Value {
	return pytype.ObjVal(&StrObj{Runes: []rune(s)})
}

func (s *StrObj) String() string        { return string(s.Runes) }
func (s *StrObj) Kind() string          { return "str" }
func (s *StrObj) Repr() string          { return "'" + strings.ReplaceAll(s.String(), "'", "\\'") + "'" }
func (s *StrObj) RuntimeType() *pytype.Type { return StrType }

func asStr(v pytype.Value) (*StrObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	s, ok := v.Obj.(*StrObj)
	return s, ok
}

// AsStrValue extracts the Go string from a Value known to wrap a str,
// for callers outside this package (e.g. pyabstract's getAttr/setAttr,
// which must reject non-string attribute names per spec §4.D).
func AsStrValue(v pytype.Value) (string, bool) {
	s, ok := asStr(v)
	if !ok {
		return "", false
	}
	return s.String(), true
}

func installStrSlots() {
	must(StrType.DefineSlot(pytype.SlotAdd, pytype.BinaryOp(func(self, other pytype.Value) (pytype.Value, error) {
		a, aok := asStr(self)
		b, ok := asStr(other)
		if !aok || !ok {
			return NotImplementedVal, nil
		}
		out := make([]rune, 0, len(a.Runes)+len(b.Runes))
		out = append(out, a.Runes...)
		out = append(out, b.Runes...)
		return pytype.ObjVal(&StrObj{Runes: out}), nil
	})))
	must(StrType.DefineSlot(pytype.SlotSqLength, pytype.LenOp(func(self pytype.Value) (int64, error) {
		s, _ := asStr(self)
		return int64(len(s.Runes)), nil
	})))
	must(StrType.DefineSlot(pytype.SlotSqItem, pytype.ItemGetOp(func(self, key pytype.Value) (pytype.Value, error) {
		s, _ := asStr(self)
		i := key.AsInt()
		if i < 0 {
			i += int64(len(s.Runes))
		}
		if i < 0 || i >= int64(len(s.Runes)) {
			return pytype.Value{}, pyerr.NewIndexError("string index out of range")
		}
		return pytype.ObjVal(&StrObj{Runes: []rune{s.Runes[i]}}), nil
	})))
	must(StrType.DefineSlot(pytype.SlotSqRepeat, pytype.RepeatOp(func(self pytype.Value, n int64) (pytype.Value, error) {
		s, _ := asStr(self)
		if n <= 0 {
			return NewStr(""), nil
		}
		out := make([]rune, 0, int64(len(s.Runes))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, s.Runes...)
		}
		return pytype.ObjVal(&StrObj{Runes: out}), nil
	})))
	must(StrType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		s, _ := asStr(self)
		return pytype.BoolVal(len(s.Runes) != 0), nil
	})))
	must(StrType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		s, _ := asStr(self)
		return NewStr(s.Repr()), nil
	})))
	must(StrType.DefineSlot(pytype.SlotStr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		return self, nil
	})))
	must(StrType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		s, _ := asStr(self)
		return int64(fnv64(s.String())), nil
	})))
	must(StrType.DefineSlot(pytype.SlotRichCompare, pytype.RichCompareOp(func(self, other pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
		a, _ := asStr(self)
		b, ok := asStr(other)
		if !ok {
			return NotImplementedVal, nil
		}
		cmp := strings.Compare(a.String(), b.String())
		return pytype.BoolVal(compareMatches(cmp, op)), nil
	})))
	must(StrType.DefineSlot(pytype.SlotNew, pytype.NewOp(strNew)))
}

// strNew implements str(x), dispatching to x's own str/repr slot
// (spec §4.D call/§4.E's implicit str() contract: str of anything
// round-trips through the str slot, falling back to repr).
func strNew(t *pytype.Type, args, kwargs pytype.Value) (pytype.Value, error) {
	tup, _ := AsTuple(args)
	if len(tup.Elems) == 0 {
		return NewStr(""), nil
	}
	if len(tup.Elems) > 1 {
		return pytype.Value{}, pyerr.NewTypeError("str() takes at most 1 argument (%d given)", len(tup.Elems))
	}
	x := tup.Elems[0]
	if !x.RuntimeType().HasSlot(pytype.SlotStr) {
		return NewStr(ReprOf(x)), nil
	}
	op := x.RuntimeType().LookupSlot(pytype.SlotStr).(pytype.UnaryOp)
	r, err := op(x)
	if err != nil {
		return pytype.Value{}, err
	}
	return r, nil
}

func fnv64(s string) uint64 {
	h := uint64(14695981039346656037)
	for _, c := range []byte(s) {
		h = (h ^ uint64(c)) * 1099511628211
	}
	return h
}
