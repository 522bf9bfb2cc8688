package abi

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
)

// Value is one immutable ABI value: a closed variant over the Kind set.
// Construct through the New* helpers; decoding produces them directly.
type Value struct {
	typ Type

	boolVal bool
	numVal  *big.Int // uint/int payload, sign carried by the big.Int
	byteVal []byte   // address/fixed-bytes/bytes/string payload
	elems   []Value  // array/tuple payload
}

// NewBool wraps a boolean.
func NewBool(v bool) Value { return Value{typ: TypeBool, boolVal: v} }

// NewUint wraps an unsigned integer of the given bit width.
func NewUint(bits int, v *big.Int) Value {
	return Value{typ: Type{Kind: KindUint, Bits: bits}, numVal: new(big.Int).Set(v)}
}

// NewUint256 wraps a 256-bit unsigned integer.
func NewUint256(v *uint256.Int) Value {
	return Value{typ: TypeUint256, numVal: v.ToBig()}
}

// NewUint64 wraps v as a uint256 value.
func NewUint64(v uint64) Value {
	return Value{typ: TypeUint256, numVal: new(big.Int).SetUint64(v)}
}

// NewInt wraps a signed integer of the given bit width.
func NewInt(bits int, v *big.Int) Value {
	return Value{typ: Type{Kind: KindInt, Bits: bits}, numVal: new(big.Int).Set(v)}
}

// NewAddress wraps a 160-bit address.
func NewAddress(a common.Address) Value {
	return Value{typ: TypeAddress, byteVal: a.Bytes()}
}

// NewFixedBytes wraps a bytesN value; b must be exactly n bytes.
func NewFixedBytes(n int, b []byte) Value {
	return Value{typ: TypeFixedBytes(n), byteVal: common.CopyBytes(b)}
}

// NewBytes wraps a dynamic byte string.
func NewBytes(b []byte) Value { return Value{typ: TypeBytes, byteVal: common.CopyBytes(b)} }

// NewString wraps a UTF-8 string.
func NewString(s string) Value { return Value{typ: TypeString, byteVal: []byte(s)} }

// NewArray wraps a dynamic array with the given element type.
func NewArray(elem Type, elems ...Value) Value {
	return Value{typ: TypeArray(elem), elems: elems}
}

// NewFixedArray wraps an elem[len(elems)] array.
func NewFixedArray(elem Type, elems ...Value) Value {
	return Value{typ: TypeFixedArray(elem, len(elems)), elems: elems}
}

// NewTuple wraps an ordered group of values.
func NewTuple(elems ...Value) Value {
	components := make([]Type, len(elems))
	for i, e := range elems {
		components[i] = e.typ
	}
	return Value{typ: TypeTuple(components...), elems: elems}
}

// Type returns the value's ABI type.
func (v Value) Type() Type { return v.typ }

// Kind returns the value's shape discriminant.
func (v Value) Kind() Kind { return v.typ.Kind }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.boolVal }

// Big returns the integer payload. The caller must not mutate it.
func (v Value) Big() *big.Int { return v.numVal }

// Uint256 returns the integer payload as a 256-bit word, two's complement
// for negatives.
func (v Value) Uint256() *uint256.Int {
	u, _ := uint256.FromBig(new(big.Int).And(v.numVal, maxWord))
	return u
}

// Address returns the address payload.
func (v Value) Address() common.Address { return common.BytesToAddress(v.byteVal) }

// Bytes returns the byte payload of address, fixed-bytes, bytes and string
// values. The caller must not mutate it.
func (v Value) Bytes() []byte { return v.byteVal }

// Str returns the string payload.
func (v Value) Str() string { return string(v.byteVal) }

// Elems returns the members of array and tuple values.
func (v Value) Elems() []Value { return v.elems }

// typeCheck verifies that v conforms to the declared type want.
func (v Value) typeCheck(want Type) error {
	if v.typ.String() != want.String() {
		return errors.Errorf("abi: have %s, want %s", v.typ, want)
	}
	return nil
}
