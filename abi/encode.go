package abi

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
)

const wordSize = 32

var (
	wordMod = new(big.Int).Lsh(common.Big1, 256)
	maxWord = new(big.Int).Sub(wordMod, common.Big1)
)

// EncodeParameters encodes values as one canonical parameter block: a head
// of 32-byte slots (static values inline, dynamic values as byte offsets
// into the tail) followed by the tail segments in parameter order.
func EncodeParameters(values []Value) ([]byte, error) {
	headSize := 0
	for _, v := range values {
		headSize += v.typ.headSize()
	}
	var head, tail []byte
	for i, v := range values {
		if v.typ.IsDynamic() {
			head = append(head, encodeOffset(headSize+len(tail))...)
			enc, err := encodeDynamic(v)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %d", i)
			}
			tail = append(tail, enc...)
			continue
		}
		enc, err := encodeStatic(v)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d", i)
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

// encodeStatic renders a static value: exactly one word for scalars, the
// concatenated member encodings for static arrays and tuples.
func encodeStatic(v Value) ([]byte, error) {
	switch v.typ.Kind {
	case KindBool:
		word := make([]byte, wordSize)
		if v.boolVal {
			word[wordSize-1] = 1
		}
		return word, nil
	case KindUint:
		if v.numVal.Sign() < 0 {
			return nil, errors.Errorf("abi: negative value for %s", v.typ)
		}
		if v.numVal.BitLen() > v.typ.Bits {
			return nil, errors.Errorf("abi: value overflows %s", v.typ)
		}
		return common.LeftPadBytes(v.numVal.Bytes(), wordSize), nil
	case KindInt:
		bound := new(big.Int).Lsh(common.Big1, uint(v.typ.Bits-1))
		if v.numVal.Cmp(bound) >= 0 || v.numVal.Cmp(new(big.Int).Neg(bound)) < 0 {
			return nil, errors.Errorf("abi: value overflows %s", v.typ)
		}
		// Two's complement: reduce mod 2²⁵⁶, negatives gain 0xFF padding.
		word := new(big.Int).Mod(v.numVal, wordMod)
		return common.LeftPadBytes(word.Bytes(), wordSize), nil
	case KindAddress:
		return common.LeftPadBytes(v.byteVal, wordSize), nil
	case KindFixedBytes:
		if len(v.byteVal) != v.typ.Size {
			return nil, errors.Errorf("abi: bytes%d value holds %d bytes", v.typ.Size, len(v.byteVal))
		}
		return common.RightPadBytes(v.byteVal, wordSize), nil
	case KindArray:
		if len(v.elems) != v.typ.ArrayLen {
			return nil, errors.Errorf("abi: %s value holds %d elements", v.typ, len(v.elems))
		}
		return encodeMembers(v.typ.Elem.String(), v.elems)
	case KindTuple:
		return EncodeParameters(v.elems)
	case KindBytes, KindString:
		return nil, errors.Errorf("abi: %s is not static", v.typ)
	}
	return nil, errors.Errorf("abi: unhandled kind %d", v.typ.Kind)
}

// encodeDynamic renders a dynamic value's tail segment.
func encodeDynamic(v Value) ([]byte, error) {
	switch v.typ.Kind {
	case KindBytes, KindString:
		enc := encodeOffset(len(v.byteVal))
		return append(enc, common.RightPadBytes(v.byteVal, pad32(len(v.byteVal)))...), nil
	case KindArray:
		if v.typ.ArrayLen < 0 {
			body, err := encodeMembers(v.typ.Elem.String(), v.elems)
			if err != nil {
				return nil, err
			}
			return append(encodeOffset(len(v.elems)), body...), nil
		}
		// Fixed array of dynamic elements: no length word.
		if len(v.elems) != v.typ.ArrayLen {
			return nil, errors.Errorf("abi: %s value holds %d elements", v.typ, len(v.elems))
		}
		return encodeMembers(v.typ.Elem.String(), v.elems)
	case KindTuple:
		return EncodeParameters(v.elems)
	case KindBool, KindUint, KindInt, KindAddress, KindFixedBytes:
		return nil, errors.Errorf("abi: %s is not dynamic", v.typ)
	}
	return nil, errors.Errorf("abi: unhandled kind %d", v.typ.Kind)
}

// encodeMembers encodes homogeneous elements as a parameter block, checking
// each against the declared element type.
func encodeMembers(elemType string, elems []Value) ([]byte, error) {
	for i, e := range elems {
		if e.typ.String() != elemType {
			return nil, errors.Errorf("abi: element %d is %s, want %s", i, e.typ, elemType)
		}
	}
	return EncodeParameters(elems)
}

func encodeOffset(n int) []byte {
	return common.LeftPadBytes(new(big.Int).SetInt64(int64(n)).Bytes(), wordSize)
}

func pad32(n int) int {
	return (n + wordSize - 1) / wordSize * wordSize
}
