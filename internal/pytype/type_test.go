package pytype

import (
	"testing"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/stretchr/testify/require"
)

func TestLookupSlotReturnsEmptyOpWhenUndefined(t *testing.T) {
	base := NewType("Base", 0, nil)
	base.Finish()

	op := base.LookupSlot(SlotAdd).(BinaryOp)
	_, err := op(ObjVal(nil), ObjVal(nil))
	slot, ok := pyerr.AsEmptyOp(err)
	require.True(t, ok)
	require.Equal(t, "__add__", slot)
}

func TestDefineSlotRejectsWrongSignature(t *testing.T) {
	ty := NewType("Weird", 0, nil)
	err := ty.DefineSlot(SlotAdd, UnaryOp(func(self Value) (Value, error) { return Value{}, nil }))
	require.Error(t, err)
}

func TestDefineSlotRejectsAfterFinishUnlessMutable(t *testing.T) {
	ty := NewType("Frozen", 0, nil)
	ty.Finish()
	err := ty.DefineSlot(SlotAdd, BinaryOp(func(self, other Value) (Value, error) { return Value{}, nil }))
	require.Error(t, err)

	mutable := NewType("Mutable", FlagMutable, nil)
	mutable.Finish()
	err = mutable.DefineSlot(SlotAdd, BinaryOp(func(self, other Value) (Value, error) { return Value{}, nil }))
	require.NoError(t, err)
}

func TestIsSubTypeOf(t *testing.T) {
	base := NewType("Base", FlagBaseType, nil)
	base.Finish()
	derived := NewType("Derived", 0, base)
	derived.Finish()

	require.True(t, derived.IsSubTypeOf(base))
	require.True(t, derived.IsSubTypeOf(derived))
	require.False(t, base.IsSubTypeOf(derived))
}

func TestSlotInheritanceViaMRO(t *testing.T) {
	base := NewType("Base", FlagBaseType, nil)
	require.NoError(t, base.DefineSlot(SlotRepr, UnaryOp(func(self Value) (Value, error) {
		return IntVal(42), nil
	})))
	base.Finish()

	derived := NewType("Derived", 0, base)
	derived.Finish()

	require.True(t, derived.HasSlot(SlotRepr))
	op := derived.LookupSlot(SlotRepr).(UnaryOp)
	v, err := op(Value{})
	require.NoError(t, err)
	require.Equal(t, int64(42), v.AsInt())
}
