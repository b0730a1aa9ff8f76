package pybuiltin

import (
	"strings"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// MergeMode selects dict.merge's duplicate-key policy (spec §4.E).
type MergeMode int

const (
	MergePut       MergeMode = iota // overwrite existing keys
	MergeIfAbsent                   // keep existing value on collision
	MergeUnique                     // raise KeyError on first duplicate
)

type dictEntry struct {
	key, val pytype.Value
}

// DictObj is an insertion-ordered mapping (spec §4.E "dict"). Keys
// are compared via each key's own hash/richcompare slots (direct
// dispatch, not the reflected/NotImplemented dance of §4.D binary
// ops -- dict key equality is always a direct EQ probe). Grounded on
// the *idea* of the teacher's internal/vm/globals_map.go PersistentMap
// (a HAMT); implemented as a plain slice + hash index instead because
// spec's dict mutates in place and must preserve exact insertion
// order, which an immutable HAMT does not track.
type DictObj struct {
	entries []dictEntry
	index   map[uint64][]int // hash -> indices into entries
}

func NewDict() pytype.Value {
	return pytype.ObjVal(&DictObj{index: make(map[uint64][]int)})
}

func (d *DictObj) Kind() string { return "dict" }
func (d *DictObj) Repr() string {
	parts := make([]string, len(d.entries))
	for i, e := range d.entries {
		parts[i] = ReprOf(e.key) + ": " + ReprOf(e.val)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (d *DictObj) RuntimeType() *pytype.Type { return DictType }

func AsDict(v pytype.Value) (*DictObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	dd, ok := v.Obj.(*DictObj)
	return dd, ok
}

func (d *DictObj) Len() int { return len(d.entries) }

func hashOf(v pytype.Value) (uint64, error) {
	if !v.RuntimeType().HasSlot(pytype.SlotHash) {
		return 0, pyerr.NewTypeError("unhashable type: '%s'", v.RuntimeType().Name)
	}
	op := v.RuntimeType().LookupSlot(pytype.SlotHash).(pytype.LenOp)
	h, err := op(v)
	return uint64(h), err
}

func valuesEqual(a, b pytype.Value) (bool, error) {
	if a.RuntimeType() != b.RuntimeType() {
		// still allow cross richcompare (e.g. int vs float) by trying a's then b's EQ
	}
	op, ok := a.RuntimeType().LookupSlot(pytype.SlotRichCompare).(pytype.RichCompareOp)
	if ok {
		r, err := op(a, b, pytype.CmpEQ)
		if err == nil && r.IsBool() {
			return r.AsBool(), nil
		}
	}
	op2, ok := b.RuntimeType().LookupSlot(pytype.SlotRichCompare).(pytype.RichCompareOp)
	if ok {
		r, err := op2(b, a, pytype.CmpEQ)
		if err == nil && r.IsBool() {
			return r.AsBool(), nil
		}
	}
	return a.Is(b), nil
}

// find returns the entries index for key, or -1.
func (d *DictObj) find(key pytype.Value) (int, error) {
	h, err := hashOf(key)
	if err != nil {
		return -1, err
	}
	for _, idx := range d.index[h] {
		eq, err := valuesEqual(d.entries[idx].key, key)
		if err != nil {
			return -1, err
		}
		if eq {
			return idx, nil
		}
	}
	return -1, nil
}

func (d *DictObj) Get(key pytype.Value) (pytype.Value, bool, error) {
	idx, err := d.find(key)
	if err != nil || idx < 0 {
		return pytype.Value{}, false, err
	}
	return d.entries[idx].val, true, nil
}

// Set inserts or overwrites key->val, preserving insertion order for
// new keys (spec §8 "Dict ordering").
func (d *DictObj) Set(key, val pytype.Value) error {
	idx, err := d.find(key)
	if err != nil {
		return err
	}
	if idx >= 0 {
		d.entries[idx].val = val
		return nil
	}
	h, _ := hashOf(key)
	d.entries = append(d.entries, dictEntry{key: key, val: val})
	d.index[h] = append(d.index[h], len(d.entries)-1)
	return nil
}

func (d *DictObj) Delete(key pytype.Value) error {
	idx, err := d.find(key)
	if err != nil {
		return err
	}
	if idx < 0 {
		return pyerr.NewKeyError("%s", ReprOf(key))
	}
	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
	d.reindex()
	return nil
}

func (d *DictObj) reindex() {
	d.index = make(map[uint64][]int, len(d.entries))
	for i, e := range d.entries {
		h, _ := hashOf(e.key)
		d.index[h] = append(d.index[h], i)
	}
}

// Keys returns an insertion-ordered snapshot of the keys.
func (d *DictObj) Keys() []pytype.Value {
	out := make([]pytype.Value, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.key
	}
	return out
}

// Merge implements spec §4.E dict.merge(src, mode).
func (d *DictObj) Merge(src *DictObj, mode MergeMode) error {
	for _, e := range src.entries {
		idx, err := d.find(e.key)
		if err != nil {
			return err
		}
		switch mode {
		case MergePut:
			if err := d.Set(e.key, e.val); err != nil {
				return err
			}
		case MergeIfAbsent:
			if idx < 0 {
				if err := d.Set(e.key, e.val); err != nil {
					return err
				}
			}
		case MergeUnique:
			if idx >= 0 {
				return pyerr.NewKeyError("duplicate key %s in merge", ReprOf(e.key))
			}
			if err := d.Set(e.key, e.val); err != nil {
				return err
			}
		}
	}
	return nil
}

func installDictSlots() {
	must(DictType.DefineSlot(pytype.SlotMpLength, pytype.LenOp(func(self pytype.Value) (int64, error) {
		d, _ := AsDict(self)
		return int64(len(d.entries)), nil
	})))
	must(DictType.DefineSlot(pytype.SlotMpSubscript, pytype.ItemGetOp(func(self, key pytype.Value) (pytype.Value, error) {
		d, _ := AsDict(self)
		v, ok, err := d.Get(key)
		if err != nil {
			return pytype.Value{}, err
		}
		if !ok {
			return pytype.Value{}, pyerr.NewKeyError("%s", ReprOf(key))
		}
		return v, nil
	})))
	must(DictType.DefineSlot(pytype.SlotMpAssSubscr, pytype.ItemSetOp(func(self, key, val pytype.Value) error {
		d, _ := AsDict(self)
		return d.Set(key, val)
	})))
	must(DictType.DefineSlot(pytype.SlotMpDelItem, pytype.DelItemOp(func(self, key pytype.Value) error {
		d, _ := AsDict(self)
		return d.Delete(key)
	})))
	must(DictType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		d, _ := AsDict(self)
		return pytype.BoolVal(len(d.entries) != 0), nil
	})))
	must(DictType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		d, _ := AsDict(self)
		return NewStr(d.Repr()), nil
	})))
}
