package storage

import (
	"github.com/holiman/uint256"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
)

// Solidity storage layout rules. These must match what an ABI-aware tool
// computes off-host for the same variable layout, so the formulas follow the
// Solidity specification byte for byte.

// ArrayElementSlot returns the slot of element index of a dynamic array
// rooted at baseSlot: keccak256(pad32(baseSlot)) + index, mod 2²⁵⁶.
func ArrayElementSlot(baseSlot *uint256.Int, index uint64) *uint256.Int {
	base := baseSlot.Bytes32()
	slot := new(uint256.Int).SetBytes32(crypto.Keccak256(base[:]))
	return slot.Add(slot, uint256.NewInt(index))
}

// MappingElementSlot returns the slot of the value stored under key in a
// mapping rooted at baseSlot: keccak256(pad32(key) || pad32(baseSlot)).
func MappingElementSlot(baseSlot *uint256.Int, key common.Hash) *uint256.Int {
	base := baseSlot.Bytes32()
	return new(uint256.Int).SetBytes32(crypto.Keccak256(key[:], base[:]))
}

// ArrayElementSlot is also exposed on Store for callers holding a mapper.
func (s *Store) ArrayElementSlot(baseSlot *uint256.Int, index uint64) *uint256.Int {
	return ArrayElementSlot(baseSlot, index)
}

// MappingElementSlot derives a mapping element slot; see the package-level
// function for the formula.
func (s *Store) MappingElementSlot(baseSlot *uint256.Int, key common.Hash) *uint256.Int {
	return MappingElementSlot(baseSlot, key)
}
