package abi

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
)

func TestSelector(t *testing.T) {
	sig := "transfer(address,uint256)"
	require.Equal(t, crypto.Keccak256([]byte(sig))[:4], Selector(sig))

	// The canonical ERC20 transfer selector is pinned ecosystem-wide.
	require.Equal(t, "a9059cbb", hex.EncodeToString(Selector(sig)))
}

func TestParseSignature(t *testing.T) {
	name, types, err := ParseSignature("transfer(address,uint256)")
	require.NoError(t, err)
	require.Equal(t, "transfer", name)
	require.Len(t, types, 2)
	require.Equal(t, "address", types[0].String())
	require.Equal(t, "uint256", types[1].String())

	name, types, err = ParseSignature("noArgs()")
	require.NoError(t, err)
	require.Equal(t, "noArgs", name)
	require.Empty(t, types)

	_, _, err = ParseSignature("bad signature(uint256)")
	require.Error(t, err)
	_, _, err = ParseSignature("missingParen")
	require.Error(t, err)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in, canonical string
		dynamic       bool
	}{
		{"bool", "bool", false},
		{"uint256", "uint256", false},
		{"uint", "uint256", false},
		{"int128", "int128", false},
		{"address", "address", false},
		{"bytes32", "bytes32", false},
		{"bytes", "bytes", true},
		{"string", "string", true},
		{"uint256[]", "uint256[]", true},
		{"uint8[3]", "uint8[3]", false},
		{"string[2]", "string[2]", true},
		{"(address,uint256)", "(address,uint256)", false},
		{"(string,uint256)[]", "(string,uint256)[]", true},
	}
	for _, tt := range tests {
		typ, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.canonical, typ.String(), tt.in)
		require.Equal(t, tt.dynamic, typ.IsDynamic(), tt.in)
	}

	for _, bad := range []string{"", "uint257", "uint12", "bytes0", "bytes33", "foo", "uint256[", "(address"} {
		_, err := ParseType(bad)
		require.Error(t, err, bad)
	}
}

func TestStaticEncodingWords(t *testing.T) {
	addr := common.HexToAddress("0x00112233445566778899aabbccddeeff00112233")

	tests := []struct {
		value Value
		hex   string
	}{
		{NewBool(true), "0000000000000000000000000000000000000000000000000000000000000001"},
		{NewBool(false), "0000000000000000000000000000000000000000000000000000000000000000"},
		{NewUint64(1000), "00000000000000000000000000000000000000000000000000000000000003e8"},
		{NewInt(256, big.NewInt(-1)), "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"},
		{NewInt(256, big.NewInt(-2)), "fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe"},
		{NewAddress(addr), "00000000000000000000000000112233445566778899aabbccddeeff00112233"},
		{NewFixedBytes(4, []byte{0xde, 0xad, 0xbe, 0xef}), "deadbeef00000000000000000000000000000000000000000000000000000000"},
	}
	for _, tt := range tests {
		enc, err := EncodeParameters([]Value{tt.value})
		require.NoError(t, err)
		require.Equal(t, tt.hex, hex.EncodeToString(enc), "%s", tt.value.Type())
	}
}

func TestHeadTailLayout(t *testing.T) {
	// f(uint256,string): static head word, offset word, then the tail with
	// length-prefixed right-padded content.
	enc, err := EncodeParameters([]Value{NewUint64(1), NewString("Hello")})
	require.NoError(t, err)
	require.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000001"+
			"0000000000000000000000000000000000000000000000000000000000000040"+
			"0000000000000000000000000000000000000000000000000000000000000005"+
			"48656c6c6f000000000000000000000000000000000000000000000000000000",
		hex.EncodeToString(enc))
}

func TestDynamicArrayLayout(t *testing.T) {
	enc, err := EncodeParameters([]Value{
		NewArray(TypeUint256, NewUint64(17), NewUint64(34)),
	})
	require.NoError(t, err)
	require.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000002"+
			"0000000000000000000000000000000000000000000000000000000000000011"+
			"0000000000000000000000000000000000000000000000000000000000000022",
		hex.EncodeToString(enc))
}

func TestRoundTrip(t *testing.T) {
	big2_200 := new(big.Int).Lsh(big.NewInt(1), 200)
	values := []Value{
		NewBool(true),
		NewUint64(0),
		NewUint(256, big2_200),
		NewUint(8, big.NewInt(255)),
		NewInt(256, big.NewInt(-123456789)),
		NewInt(16, big.NewInt(-32768)),
		NewAddress(common.HexToAddress("0xaabbccddeeff00112233445566778899aabbccdd")),
		NewFixedBytes(32, crypto.Keccak256([]byte("x"))),
		NewBytes([]byte{1, 2, 3, 4, 5}),
		NewBytes(nil),
		NewString("hello world"),
		NewString(""),
		NewArray(TypeUint256, NewUint64(1), NewUint64(2), NewUint64(3)),
		NewArray(TypeString, NewString("a"), NewString("bb"), NewString("ccc")),
		NewFixedArray(TypeUint256, NewUint64(7), NewUint64(8)),
		NewTuple(NewAddress(common.HexToAddress("0x01")), NewUint64(9)),
		NewTuple(NewString("nested"), NewArray(TypeUint256, NewUint64(4))),
	}
	for _, v := range values {
		enc, err := EncodeParameters([]Value{v})
		require.NoError(t, err, v.Type())

		dec, err := DecodeParameters([]Type{v.Type()}, enc)
		require.NoError(t, err, v.Type())
		require.Len(t, dec, 1)
		requireValueEqual(t, v, dec[0])

		// Re-encoding a well-formed encoding reproduces it byte for byte.
		enc2, err := EncodeParameters(dec)
		require.NoError(t, err, v.Type())
		require.Equal(t, enc, enc2, v.Type())
	}

	// All of them in one parameter block.
	enc, err := EncodeParameters(values)
	require.NoError(t, err)
	types := make([]Type, len(values))
	for i, v := range values {
		types[i] = v.Type()
	}
	dec, err := DecodeParameters(types, enc)
	require.NoError(t, err)
	require.Len(t, dec, len(values))
	for i := range values {
		requireValueEqual(t, values[i], dec[i])
	}
}

func requireValueEqual(t *testing.T, want, got Value) {
	t.Helper()
	require.Equal(t, want.Type().String(), got.Type().String())
	switch want.Kind() {
	case KindBool:
		require.Equal(t, want.Bool(), got.Bool())
	case KindUint, KindInt:
		require.Zero(t, want.Big().Cmp(got.Big()), "want %s, got %s", want.Big(), got.Big())
	case KindAddress:
		require.Equal(t, want.Address(), got.Address())
	case KindFixedBytes:
		require.Equal(t, want.Bytes(), got.Bytes())
	case KindBytes:
		require.Equal(t, len(want.Bytes()), len(got.Bytes()))
		if len(want.Bytes()) > 0 {
			require.Equal(t, want.Bytes(), got.Bytes())
		}
	case KindString:
		require.Equal(t, want.Str(), got.Str())
	case KindArray, KindTuple:
		require.Equal(t, len(want.Elems()), len(got.Elems()))
		for i := range want.Elems() {
			requireValueEqual(t, want.Elems()[i], got.Elems()[i])
		}
	}
}

func TestDecodeInsufficientData(t *testing.T) {
	// Truncated head.
	_, err := DecodeParameters([]Type{TypeUint256}, make([]byte, 31))
	require.ErrorIs(t, err, ErrInsufficientData)

	// Offset pointing past the buffer.
	enc, err := EncodeParameters([]Value{NewString("hello")})
	require.NoError(t, err)
	_, err = DecodeParameters([]Type{TypeString}, enc[:32])
	require.ErrorIs(t, err, ErrInsufficientData)

	// Length word claiming more content than present.
	_, err = DecodeParameters([]Type{TypeString}, enc[:len(enc)-32])
	require.ErrorIs(t, err, ErrInsufficientData)

	// Array length larger than the remaining buffer can hold.
	enc, err = EncodeParameters([]Value{NewArray(TypeUint256, NewUint64(1), NewUint64(2))})
	require.NoError(t, err)
	_, err = DecodeParameters([]Type{TypeArray(TypeUint256)}, enc[:len(enc)-32])
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestEncodeCall(t *testing.T) {
	to := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	data, err := EncodeCall("transfer(address,uint256)", []Value{NewAddress(to), NewUint64(1000)})
	require.NoError(t, err)

	require.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	require.Len(t, data, 4+64)

	args, err := DecodeCall("transfer(address,uint256)", data)
	require.NoError(t, err)
	require.Equal(t, to, args[0].Address())
	require.Zero(t, args[1].Big().Cmp(big.NewInt(1000)))
}

func TestEncodeCallTypeMismatch(t *testing.T) {
	_, err := EncodeCall("transfer(address,uint256)", []Value{NewUint64(1), NewUint64(2)})
	require.Error(t, err)

	_, err = EncodeCall("transfer(address,uint256)", []Value{NewAddress(common.Address{})})
	require.Error(t, err)
}

func TestEncodeOverflow(t *testing.T) {
	_, err := EncodeParameters([]Value{NewUint(8, big.NewInt(256))})
	require.Error(t, err)

	_, err = EncodeParameters([]Value{NewInt(8, big.NewInt(128))})
	require.Error(t, err)

	_, err = EncodeParameters([]Value{NewUint(256, big.NewInt(-1))})
	require.Error(t, err)
}

func TestEncodeWord(t *testing.T) {
	word, err := EncodeWord(NewUint64(1000))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x03e8"), word)

	_, err = EncodeWord(NewString("nope"))
	require.Error(t, err)
}
