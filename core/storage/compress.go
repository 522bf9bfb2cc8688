package storage

import (
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/params"
)

// Trailing-zero compaction of persisted words. Left-aligned values (hashes,
// right-padded strings, shifted integers) often end in a long zero run; when
// more than half the word is trailing zeroes, the host write shrinks to
// [zeroCount || nonZeroPrefix]. A compressed form is always shorter than 32
// bytes, so the reader distinguishes the two representations by length
// alone. Local optimization only: no on-chain consumer depends on it, and
// readers accept both forms under the same key.

// compressValue returns the persisted representation of value, compacted
// when profitable.
func compressValue(value common.Hash) []byte {
	zeros := 0
	for i := common.HashLength - 1; i >= 0 && value[i] == 0; i-- {
		zeros++
	}
	if zeros <= params.CompressionThreshold {
		return value.Bytes()
	}
	out := make([]byte, 1+common.HashLength-zeros)
	out[0] = byte(zeros)
	copy(out[1:], value[:common.HashLength-zeros])
	return out
}

// decompressValue reconstructs a 32-byte word from either representation.
// nil (absent key) decodes to the zero word.
func decompressValue(raw []byte) (common.Hash, error) {
	switch {
	case len(raw) == 0:
		return common.Hash{}, nil
	case len(raw) == common.HashLength:
		return common.BytesToHash(raw), nil
	case len(raw) > common.HashLength:
		return common.Hash{}, errors.Wrapf(ErrInvalidValueSize, "persisted value is %d bytes", len(raw))
	}
	zeros := int(raw[0])
	if zeros > common.HashLength || len(raw)-1 != common.HashLength-zeros {
		return common.Hash{}, errors.Wrapf(ErrInvalidValueSize, "corrupt compressed value (%d bytes, %d zeros)", len(raw), zeros)
	}
	var value common.Hash
	copy(value[:], raw[1:])
	return value, nil
}
