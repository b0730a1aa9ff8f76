package pybuiltin

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/funvibe/pyjox/internal/pyerr"
	"github.com/funvibe/pyjox/internal/pytype"
)

// BytesObj is an immutable byte sequence (spec §4.E "bytes").
type BytesObj struct {
	Data []byte
}

func NewBytes(b []byte) pytype.Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return pytype.ObjVal(&BytesObj{Data: cp})
}

func (b *BytesObj) Kind() string             { return "bytes" }
func (b *BytesObj) Repr() string              { return fmt.Sprintf("b%q", b.Data) }
func (b *BytesObj) RuntimeType() *pytype.Type { return BytesType }

func asBytes(v pytype.Value) (*BytesObj, bool) {
	if !v.IsObj() {
		return nil, false
	}
	b, ok := v.Obj.(*BytesObj)
	return b, ok
}

// IntToBytes packs v (int/bool/BigInt) into a fixed-width big-endian
// byte sequence, raising OverflowError if it does not fit -- the
// concrete instance of spec §4.D's asSize overflow-to-exception rule
// applied to a fixed width rather than host-int range.
func IntToBytes(v pytype.Value, width int, signed bool) (pytype.Value, error) {
	bi := IntToBig(v)
	if !signed && bi.Sign() < 0 {
		return pytype.Value{}, pyerr.NewOverflowError("can't convert negative int to unsigned")
	}
	buf := make([]byte, width)
	mag := new(big.Int).Abs(bi)
	magBytes := mag.Bytes()
	if len(magBytes) > width {
		return pytype.Value{}, pyerr.NewOverflowError("int too big to convert")
	}
	if signed && width > 0 {
		lim := new(big.Int).Lsh(big.NewInt(1), uint(8*width-1))
		if bi.Cmp(lim) >= 0 || bi.Cmp(new(big.Int).Neg(lim)) < 0 {
			return pytype.Value{}, pyerr.NewOverflowError("int too big to convert")
		}
	}
	copy(buf[width-len(magBytes):], magBytes)
	if signed && bi.Sign() < 0 {
		// two's complement
		for i := range buf {
			buf[i] = ^buf[i]
		}
		carry := uint16(1)
		for i := width - 1; i >= 0; i-- {
			sum := uint16(buf[i]) + carry
			buf[i] = byte(sum)
			carry = sum >> 8
		}
	}
	return NewBytes(buf), nil
}

// BytesToInt is the inverse of IntToBytes.
func BytesToInt(b []byte, signed bool) pytype.Value {
	if len(b) == 0 {
		return pytype.IntVal(0)
	}
	if signed && b[0]&0x80 != 0 {
		inv := make([]byte, len(b))
		for i, c := range b {
			inv[i] = ^c
		}
		mag := new(big.Int).SetBytes(inv)
		mag.Add(mag, big.NewInt(1))
		mag.Neg(mag)
		return NewIntFromBig(mag)
	}
	return NewIntFromBig(new(big.Int).SetBytes(b))
}

// Uint32BE is a small binary.BigEndian convenience wrapper returning
// v as four big-endian bytes.
func Uint32BE(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func installBytesSlots() {
	must(BytesType.DefineSlot(pytype.SlotAdd, pytype.BinaryOp(func(self, other pytype.Value) (pytype.Value, error) {
		a, aok := asBytes(self)
		b, ok := asBytes(other)
		if !aok || !ok {
			return NotImplementedVal, nil
		}
		out := make([]byte, 0, len(a.Data)+len(b.Data))
		out = append(out, a.Data...)
		out = append(out, b.Data...)
		return NewBytes(out), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotSqLength, pytype.LenOp(func(self pytype.Value) (int64, error) {
		b, _ := asBytes(self)
		return int64(len(b.Data)), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotSqItem, pytype.ItemGetOp(func(self, key pytype.Value) (pytype.Value, error) {
		b, _ := asBytes(self)
		i := key.AsInt()
		if i < 0 {
			i += int64(len(b.Data))
		}
		if i < 0 || i >= int64(len(b.Data)) {
			return pytype.Value{}, pyerr.NewIndexError("index out of range")
		}
		return pytype.IntVal(int64(b.Data[i])), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotBool, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		b, _ := asBytes(self)
		return pytype.BoolVal(len(b.Data) != 0), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotRepr, pytype.UnaryOp(func(self pytype.Value) (pytype.Value, error) {
		b, _ := asBytes(self)
		return NewStr(b.Repr()), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotHash, pytype.LenOp(func(self pytype.Value) (int64, error) {
		b, _ := asBytes(self)
		return int64(fnv64(string(b.Data))), nil
	})))
	must(BytesType.DefineSlot(pytype.SlotRichCompare, pytype.RichCompareOp(func(self, other pytype.Value, op pytype.CompareOp) (pytype.Value, error) {
		a, _ := asBytes(self)
		b, ok := asBytes(other)
		if !ok {
			return NotImplementedVal, nil
		}
		cmp := 0
		switch {
		case string(a.Data) < string(b.Data):
			cmp = -1
		case string(a.Data) > string(b.Data):
			cmp = 1
		}
		return pytype.BoolVal(compareMatches(cmp, op)), nil
	})))
}
