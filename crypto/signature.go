package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btc_ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/solbridge/solbridge/common"
)

// SignatureLength indicates the byte length required to carry a signature
// with recovery id: 64 bytes ECDSA + 1 byte recovery id.
const SignatureLength = 64 + 1

// RecoveryIDOffset points to the V byte in the [R || S || V] layout.
const RecoveryIDOffset = 64

var (
	secp256k1N     = btcec.S256().N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)
)

// Ecrecover returns the uncompressed public key that created the given
// signature over the given 32-byte hash. The signature must be in the
// [R || S || V] format with V in {0, 1}.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := sigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

func sigToPub(hash, sig []byte) (*btcec.PublicKey, error) {
	if len(hash) != common.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly 32 bytes (%d)", len(hash))
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes long", SignatureLength)
	}
	// Convert to btcec input format with 'recovery id' v at the beginning.
	btcsig := make([]byte, SignatureLength)
	btcsig[0] = sig[RecoveryIDOffset] + 27
	copy(btcsig[1:], sig)

	pub, _, err := btc_ecdsa.RecoverCompact(btcsig, hash)
	return pub, err
}

// SigToPub returns the public key that created the given signature.
func SigToPub(hash, sig []byte) (*ecdsa.PublicKey, error) {
	pub, err := sigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

// RecoverAddress runs ecrecover and collapses the recovered public key to the
// Ethereum-style address it controls. This is the identity primitive cross
// chain tooling matches against.
func RecoverAddress(hash, sig []byte) (common.Address, error) {
	pub, err := Ecrecover(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyBytesToAddress(pub), nil
}

// PubkeyToAddress derives the address controlled by p.
func PubkeyToAddress(p ecdsa.PublicKey) common.Address {
	return PubkeyBytesToAddress(marshalPubkey(p))
}

// PubkeyBytesToAddress derives the address for a 65-byte uncompressed
// public key: the low 20 bytes of keccak256 over the 64 coordinate bytes.
func PubkeyBytesToAddress(pub []byte) common.Address {
	return common.BytesToAddress(Keccak256(pub[1:])[12:])
}

func marshalPubkey(p ecdsa.PublicKey) []byte {
	buf := make([]byte, 65)
	buf[0] = 4 // uncompressed point
	p.X.FillBytes(buf[1:33])
	p.Y.FillBytes(buf[33:65])
	return buf
}

// ValidateSignatureValues verifies whether the signature values are valid with
// the given chain rules. The v value is assumed to be either 0 or 1.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r.Cmp(common.Big1) < 0 || s.Cmp(common.Big1) < 0 {
		return false
	}
	// reject upper range of s values (ECDSA malleability)
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	// Frontier: allow s to be in full N range
	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1N) < 0 && (v == 0 || v == 1)
}
