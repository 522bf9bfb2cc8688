package abi

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
)

// ErrInsufficientData is returned when the buffer ends before the declared
// types are satisfied: a truncated head, an offset past the end, or a tail
// segment shorter than its length word claims.
var ErrInsufficientData = errors.New("abi: insufficient data")

// DecodeParameters decodes one parameter block against the declared types.
// The exact inverse of EncodeParameters for well-formed input.
func DecodeParameters(types []Type, data []byte) ([]Value, error) {
	values, _, err := decodeBlock(types, data, 0)
	return values, err
}

// decodeBlock walks a head starting at base and resolves tail references
// against the same base. Returns the head width consumed.
func decodeBlock(types []Type, data []byte, base int) ([]Value, int, error) {
	values := make([]Value, 0, len(types))
	offset := base
	for i, t := range types {
		v, err := decodeValue(t, data, offset, base)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "parameter %d (%s)", i, t)
		}
		values = append(values, v)
		offset += t.headSize()
	}
	return values, offset - base, nil
}

func decodeValue(t Type, data []byte, offset, base int) (Value, error) {
	if t.IsDynamic() {
		loc, err := readOffset(data, offset)
		if err != nil {
			return Value{}, err
		}
		return decodeDynamic(t, data, base+loc)
	}
	return decodeStatic(t, data, offset)
}

func decodeStatic(t Type, data []byte, offset int) (Value, error) {
	switch t.Kind {
	case KindBool:
		word, err := readWord(data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewBool(word[wordSize-1] != 0), nil
	case KindUint:
		word, err := readWord(data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewUint(t.Bits, new(big.Int).SetBytes(word[:])), nil
	case KindInt:
		word, err := readWord(data, offset)
		if err != nil {
			return Value{}, err
		}
		num := new(big.Int).SetBytes(word[:])
		if word[0]&0x80 != 0 {
			num.Sub(num, wordMod)
		}
		return NewInt(t.Bits, num), nil
	case KindAddress:
		word, err := readWord(data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewAddress(common.BytesToAddress(word[wordSize-common.AddressLength:])), nil
	case KindFixedBytes:
		word, err := readWord(data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewFixedBytes(t.Size, word[:t.Size]), nil
	case KindArray:
		elems, _, err := decodeMembers(*t.Elem, t.ArrayLen, data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewFixedArray(*t.Elem, elems...), nil
	case KindTuple:
		elems, _, err := decodeBlock(t.Components, data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewTuple(elems...), nil
	case KindBytes, KindString:
		return Value{}, errors.Errorf("abi: %s is not static", t)
	}
	return Value{}, errors.Errorf("abi: unhandled kind %d", t.Kind)
}

func decodeDynamic(t Type, data []byte, offset int) (Value, error) {
	switch t.Kind {
	case KindBytes, KindString:
		length, err := readOffset(data, offset)
		if err != nil {
			return Value{}, err
		}
		if offset+wordSize+length > len(data) {
			return Value{}, errors.Wrapf(ErrInsufficientData, "%d content bytes at %d", length, offset+wordSize)
		}
		content := data[offset+wordSize : offset+wordSize+length]
		if t.Kind == KindString {
			return NewString(string(content)), nil
		}
		return NewBytes(content), nil
	case KindArray:
		if t.ArrayLen >= 0 {
			// Fixed array of dynamic elements: a head block, no length word.
			elems, _, err := decodeMembers(*t.Elem, t.ArrayLen, data, offset)
			if err != nil {
				return Value{}, err
			}
			return NewFixedArray(*t.Elem, elems...), nil
		}
		length, err := readOffset(data, offset)
		if err != nil {
			return Value{}, err
		}
		elems, _, err := decodeMembers(*t.Elem, length, data, offset+wordSize)
		if err != nil {
			return Value{}, err
		}
		return NewArray(*t.Elem, elems...), nil
	case KindTuple:
		elems, _, err := decodeBlock(t.Components, data, offset)
		if err != nil {
			return Value{}, err
		}
		return NewTuple(elems...), nil
	case KindBool, KindUint, KindInt, KindAddress, KindFixedBytes:
		return Value{}, errors.Errorf("abi: %s is not dynamic", t)
	}
	return Value{}, errors.Errorf("abi: unhandled kind %d", t.Kind)
}

// decodeMembers decodes count homogeneous elements laid out as a parameter
// block starting at base.
func decodeMembers(elem Type, count int, data []byte, base int) ([]Value, int, error) {
	types := make([]Type, count)
	for i := range types {
		types[i] = elem
	}
	return decodeBlock(types, data, base)
}

// readWord returns the 32 bytes at offset.
func readWord(data []byte, offset int) (word [wordSize]byte, err error) {
	if offset < 0 || offset+wordSize > len(data) {
		return word, errors.Wrapf(ErrInsufficientData, "word at %d, buffer %d", offset, len(data))
	}
	copy(word[:], data[offset:])
	return word, nil
}

// readOffset reads a word constrained to a sane int range, rejecting
// offsets and lengths a real buffer could never satisfy.
func readOffset(data []byte, offset int) (int, error) {
	word, err := readWord(data, offset)
	if err != nil {
		return 0, err
	}
	for _, b := range word[:wordSize-8] {
		if b != 0 {
			return 0, errors.Wrapf(ErrInsufficientData, "oversized offset at %d", offset)
		}
	}
	v := new(big.Int).SetBytes(word[:]).Uint64()
	if v > uint64(len(data)) {
		return 0, errors.Wrapf(ErrInsufficientData, "offset %d past buffer %d", v, len(data))
	}
	return int(v), nil
}
