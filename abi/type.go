// Package abi implements the canonical contract ABI: 32-byte-word head/tail
// encoding of typed values, calldata construction with 4-byte selectors, and
// the inverse decoding of return data. The byte layout matches the Ethereum
// ABI specification exactly so off-host tooling interoperates bit for bit.
package abi

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind discriminates the closed set of ABI value shapes. Every encode and
// decode site switches exhaustively over it.
type Kind uint8

const (
	KindBool Kind = iota
	KindUint
	KindInt
	KindAddress
	KindFixedBytes
	KindBytes
	KindString
	KindArray
	KindTuple
)

// Type describes one ABI type. The zero value is invalid; construct through
// ParseType or the typ* helpers.
type Type struct {
	Kind Kind

	Bits       int    // uint/int width in bits
	Size       int    // fixed-bytes width in bytes
	Elem       *Type  // array element
	ArrayLen   int    // fixed array length, -1 when dynamic
	Components []Type // tuple members
}

// Convenience constructors for the common scalar types.
var (
	TypeBool    = Type{Kind: KindBool}
	TypeUint256 = Type{Kind: KindUint, Bits: 256}
	TypeInt256  = Type{Kind: KindInt, Bits: 256}
	TypeAddress = Type{Kind: KindAddress}
	TypeBytes   = Type{Kind: KindBytes}
	TypeString  = Type{Kind: KindString}
)

// TypeFixedBytes returns the bytesN type.
func TypeFixedBytes(n int) Type { return Type{Kind: KindFixedBytes, Size: n} }

// TypeArray returns the dynamic array type over elem.
func TypeArray(elem Type) Type { return Type{Kind: KindArray, Elem: &elem, ArrayLen: -1} }

// TypeFixedArray returns the elem[n] type.
func TypeFixedArray(elem Type, n int) Type { return Type{Kind: KindArray, Elem: &elem, ArrayLen: n} }

// TypeTuple returns the tuple type over the given components.
func TypeTuple(components ...Type) Type { return Type{Kind: KindTuple, Components: components} }

// ParseType parses a canonical type name: "uint256", "address", "bytes32",
// "bool", "string", "bytes", "intN", element arrays "T[]"/"T[k]" and tuples
// "(T1,T2,…)". The aliases "uint" and "int" canonicalize to 256 bits.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, errors.New("abi: empty type")
	}
	// Array suffixes bind outermost-last; peel the rightmost one.
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open <= 0 {
			return Type{}, errors.Errorf("abi: malformed array type %q", s)
		}
		elem, err := ParseType(s[:open])
		if err != nil {
			return Type{}, err
		}
		dim := s[open+1 : len(s)-1]
		if dim == "" {
			return TypeArray(elem), nil
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n < 0 {
			return Type{}, errors.Errorf("abi: bad array length in %q", s)
		}
		return TypeFixedArray(elem, n), nil
	}
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return Type{}, errors.Errorf("abi: unterminated tuple %q", s)
		}
		parts, err := splitTopLevel(s[1 : len(s)-1])
		if err != nil {
			return Type{}, err
		}
		components := make([]Type, len(parts))
		for i, p := range parts {
			if components[i], err = ParseType(p); err != nil {
				return Type{}, err
			}
		}
		return TypeTuple(components...), nil
	}
	switch {
	case s == "bool":
		return TypeBool, nil
	case s == "address":
		return TypeAddress, nil
	case s == "string":
		return TypeString, nil
	case s == "bytes":
		return TypeBytes, nil
	case s == "uint" || s == "int":
		if s == "uint" {
			return TypeUint256, nil
		}
		return TypeInt256, nil
	case strings.HasPrefix(s, "uint"), strings.HasPrefix(s, "int"):
		body := strings.TrimPrefix(s, "u")
		bits, err := strconv.Atoi(strings.TrimPrefix(body, "int"))
		if err != nil || bits <= 0 || bits > 256 || bits%8 != 0 {
			return Type{}, errors.Errorf("abi: bad integer width %q", s)
		}
		if strings.HasPrefix(s, "uint") {
			return Type{Kind: KindUint, Bits: bits}, nil
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "bytes"))
		if err != nil || n <= 0 || n > 32 {
			return Type{}, errors.Errorf("abi: bad fixed-bytes width %q", s)
		}
		return TypeFixedBytes(n), nil
	}
	return Type{}, errors.Errorf("abi: unsupported type %q", s)
}

// ParseTypes parses a comma-separated canonical type list.
func ParseTypes(list string) ([]Type, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts, err := splitTopLevel(list)
	if err != nil {
		return nil, err
	}
	types := make([]Type, len(parts))
	for i, p := range parts {
		if types[i], err = ParseType(p); err != nil {
			return nil, err
		}
	}
	return types, nil
}

// splitTopLevel splits on commas not nested inside parentheses or brackets.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, errors.Errorf("abi: unbalanced brackets in %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.Errorf("abi: unbalanced brackets in %q", s)
	}
	return append(parts, s[start:]), nil
}

// String renders the canonical type name.
func (t Type) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindUint:
		return "uint" + strconv.Itoa(t.Bits)
	case KindInt:
		return "int" + strconv.Itoa(t.Bits)
	case KindAddress:
		return "address"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		if t.ArrayLen < 0 {
			return t.Elem.String() + "[]"
		}
		return t.Elem.String() + "[" + strconv.Itoa(t.ArrayLen) + "]"
	case KindTuple:
		names := make([]string, len(t.Components))
		for i, c := range t.Components {
			names[i] = c.String()
		}
		return "(" + strings.Join(names, ",") + ")"
	}
	return "<invalid>"
}

// IsDynamic reports whether the type encodes through a tail offset.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString:
		return true
	case KindArray:
		return t.ArrayLen < 0 || t.Elem.IsDynamic()
	case KindTuple:
		for _, c := range t.Components {
			if c.IsDynamic() {
				return true
			}
		}
		return false
	case KindBool, KindUint, KindInt, KindAddress, KindFixedBytes:
		return false
	}
	return false
}

// headSize returns the byte width this type occupies in a head block:
// 32 for dynamic types, the full static encoding width otherwise.
func (t Type) headSize() int {
	if t.IsDynamic() {
		return wordSize
	}
	switch t.Kind {
	case KindArray:
		return t.ArrayLen * t.Elem.headSize()
	case KindTuple:
		size := 0
		for _, c := range t.Components {
			size += c.headSize()
		}
		return size
	default:
		return wordSize
	}
}
