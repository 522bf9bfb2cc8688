package abi

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
)

// SelectorLength is the calldata method-dispatch prefix width.
const SelectorLength = 4

// ParseSignature splits a canonical signature "name(type1,type2,…)" into the
// method name and its parameter types. Canonical means no spaces and full
// type names (uint256, not uint).
func ParseSignature(signature string) (string, []Type, error) {
	if strings.ContainsAny(signature, " \t") {
		return "", nil, errors.Errorf("abi: non-canonical signature %q", signature)
	}
	open := strings.Index(signature, "(")
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, errors.Errorf("abi: malformed signature %q", signature)
	}
	types, err := ParseTypes(signature[open+1 : len(signature)-1])
	if err != nil {
		return "", nil, err
	}
	return signature[:open], types, nil
}

// Selector returns the 4-byte dispatch prefix: keccak256(signature)[:4].
// The signature string is hashed as given; callers pass the canonical form.
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:SelectorLength]
}

// EncodeCall builds complete calldata for a method invocation: selector
// followed by the encoded parameter block. Values are checked against the
// signature's declared types.
func EncodeCall(signature string, values []Value) ([]byte, error) {
	_, types, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(values) != len(types) {
		return nil, errors.Errorf("abi: %s takes %d arguments, got %d", signature, len(types), len(values))
	}
	for i, v := range values {
		if err := v.typeCheck(types[i]); err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
	}
	params, err := EncodeParameters(values)
	if err != nil {
		return nil, err
	}
	return append(Selector(signature), params...), nil
}

// DecodeCall strips and verifies the selector of calldata built for
// signature, returning the decoded arguments.
func DecodeCall(signature string, data []byte) ([]Value, error) {
	_, types, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(data) < SelectorLength {
		return nil, errors.Wrap(ErrInsufficientData, "missing selector")
	}
	want := Selector(signature)
	if string(data[:SelectorLength]) != string(want) {
		return nil, errors.Errorf("abi: selector mismatch for %s", signature)
	}
	return DecodeParameters(types, data[SelectorLength:])
}

// EncodeWord renders a statically-sized value as its single head word.
// Event topics use this for indexed static parameters.
func EncodeWord(v Value) (common.Hash, error) {
	if v.typ.IsDynamic() {
		return common.Hash{}, errors.Errorf("abi: %s does not fit one word", v.typ)
	}
	if v.typ.headSize() != wordSize {
		return common.Hash{}, errors.Errorf("abi: %s head is %d bytes", v.typ, v.typ.headSize())
	}
	enc, err := encodeStatic(v)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(enc), nil
}
