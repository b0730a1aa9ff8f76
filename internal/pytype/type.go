package pytype

import "github.com/funvibe/pyjox/internal/pyerr"

// Flags is a bitset over {BASETYPE, MUTABLE, REMOVABLE}, spec §3.
type Flags uint8

const (
	FlagBaseType Flags = 1 << iota
	FlagMutable
	FlagRemovable
)

func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// Type is the per-type descriptor: name, flags, inheritance, and the
// fixed-width slot array (spec §3 "Type descriptor", §4.C).
type Type struct {
	Name  string
	Flags Flags

	Base  *Type
	Bases []*Type
	MRO   []*Type // starts with self

	slots [numSlots]any
	built bool // true once initial construction has completed (MUTABLE gate)
}

// NewType creates a type with the given name, flags and base. MRO is
// computed as [self, base.MRO...] -- spec scopes multiple inheritance
// out (§3: "single base is the supported case in scope").
func NewType(name string, flags Flags, base *Type) *Type {
	t := &Type{Name: name, Flags: flags, Base: base}
	if base != nil {
		t.Bases = []*Type{base}
		t.MRO = append([]*Type{t}, base.MRO...)
	} else {
		t.MRO = []*Type{t}
	}
	return t
}

// IsSubTypeOf reports whether other appears in this type's MRO.
func (t *Type) IsSubTypeOf(other *Type) bool {
	for _, m := range t.MRO {
		if m == other {
			return true
		}
	}
	return false
}

// DefineSlot installs op for slot id. Permitted only while the type
// is still under construction (built == false) or if FlagMutable is
// set; op's Go type must match the slot's declared signature exactly.
func (t *Type) DefineSlot(id SlotID, op any) error {
	if t.built && !t.Flags.Has(FlagMutable) {
		return pyerr.Internal("cannot redefine slot %q on read-only type %q", id.Name(), t.Name)
	}
	if !signatureMatches(id, op) {
		return pyerr.Internal("slot %q on type %q: operation signature does not match", id.Name(), t.Name)
	}
	t.slots[id] = op
	return nil
}

// Finish marks construction complete; subsequent DefineSlot calls are
// rejected unless the type is MUTABLE.
func (t *Type) Finish() { t.built = true }

// LookupSlot returns the slot's installed operation, searching the
// MRO in order; if no type in the MRO installed it, it returns the
// slot's empty operation, which raises pyerr.EmptyOp when invoked
// (spec §4.B/§4.C).
func (t *Type) LookupSlot(id SlotID) any {
	for _, m := range t.MRO {
		if op := m.slots[id]; op != nil {
			return op
		}
	}
	return emptyOp(id)
}

// HasSlot reports whether any type in the MRO installed id (ignoring
// the synthetic empty operation).
func (t *Type) HasSlot(id SlotID) bool {
	for _, m := range t.MRO {
		if m.slots[id] != nil {
			return true
		}
	}
	return false
}

func signatureMatches(id SlotID, op any) bool {
	switch id {
	case SlotNeg, SlotAbs, SlotInt, SlotIndex, SlotRepr, SlotStr, SlotBool:
		_, ok := op.(UnaryOp)
		return ok
	case SlotHash, SlotSqLength, SlotMpLength:
		_, ok := op.(LenOp)
		return ok
	case SlotAdd, SlotSub, SlotMul, SlotAnd, SlotOr, SlotXor:
		_, ok := op.(BinaryOp)
		return ok
	case SlotRichCompare:
		_, ok := op.(RichCompareOp)
		return ok
	case SlotSqItem, SlotMpSubscript:
		_, ok := op.(ItemGetOp)
		return ok
	case SlotSqAssItem, SlotMpAssSubscr:
		_, ok := op.(ItemSetOp)
		return ok
	case SlotMpDelItem:
		_, ok := op.(DelItemOp)
		return ok
	case SlotSqRepeat:
		_, ok := op.(RepeatOp)
		return ok
	case SlotGetAttribute, SlotGetAttr:
		_, ok := op.(GetAttrOp)
		return ok
	case SlotSetAttr:
		_, ok := op.(SetAttrOp)
		return ok
	case SlotDelAttr:
		_, ok := op.(DelAttrOp)
		return ok
	case SlotCall:
		_, ok := op.(CallOp)
		return ok
	case SlotNew:
		_, ok := op.(NewOp)
		return ok
	case SlotInit:
		_, ok := op.(InitOp)
		return ok
	default:
		return false
	}
}

// emptyOp returns the canonical "not defined" operation for a slot,
// typed so it satisfies signatureMatches for id; invoking it always
// raises pyerr.EmptyOp (spec §3 "Slot", §7).
func emptyOp(id SlotID) any {
	name := id.Name()
	switch id {
	case SlotNeg, SlotAbs, SlotInt, SlotIndex, SlotRepr, SlotStr, SlotBool:
		return UnaryOp(func(self Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotHash, SlotSqLength, SlotMpLength:
		return LenOp(func(self Value) (int64, error) { return 0, pyerr.EmptyOp(name) })
	case SlotAdd, SlotSub, SlotMul, SlotAnd, SlotOr, SlotXor:
		return BinaryOp(func(self, other Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotRichCompare:
		return RichCompareOp(func(self, other Value, op CompareOp) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotSqItem, SlotMpSubscript:
		return ItemGetOp(func(self, key Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotSqAssItem, SlotMpAssSubscr:
		return ItemSetOp(func(self, key, val Value) error { return pyerr.EmptyOp(name) })
	case SlotMpDelItem:
		return DelItemOp(func(self, key Value) error { return pyerr.EmptyOp(name) })
	case SlotSqRepeat:
		return RepeatOp(func(self Value, n int64) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotGetAttribute, SlotGetAttr:
		return GetAttrOp(func(self, attrName Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotSetAttr:
		return SetAttrOp(func(self, attrName, val Value) error { return pyerr.EmptyOp(name) })
	case SlotDelAttr:
		return DelAttrOp(func(self, attrName Value) error { return pyerr.EmptyOp(name) })
	case SlotCall:
		return CallOp(func(self, args, kwargs Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotNew:
		return NewOp(func(t *Type, args, kwargs Value) (Value, error) { return Value{}, pyerr.EmptyOp(name) })
	case SlotInit:
		return InitOp(func(self, args, kwargs Value) error { return pyerr.EmptyOp(name) })
	default:
		return nil
	}
}
