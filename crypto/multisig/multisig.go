// Package multisig checks remote chain header signatures: the algorithm
// dispatch for a single (key, signature) pair and the matching of a
// signature list against a set of keys.
package multisig

import (
	"errors"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/crypto/ed25519"
	"github.com/crosschain/headersync/crypto/secp256k1"
)

var (
	// ErrNotEnoughSignatures is returned when fewer signatures than the
	// required minimum are supplied.
	ErrNotEnoughSignatures = errors.New("not enough signatures")

	// ErrMultiSignatureMismatch is returned when some signature could not be
	// paired with a distinct key it validates against.
	ErrMultiSignatureMismatch = errors.New("multi-signature verification failed")
)

// Verify checks a single signature over data. The dispatch on
// (key algorithm, signature scheme) is:
//
//	ECDSA  x SM3withSM2       secp256k1 (the scheme name is historical)
//	ECDSA  x anything else    false
//	SM2    x SHA512withEDDSA  ed25519
//	SM2    x anything else    false
//	Unknown                   false
//
// Empty data never verifies.
func Verify(pub crypto.PublicKey, data []byte, sig crypto.Signature) bool {
	if len(data) == 0 {
		return false
	}

	switch pub.Algorithm {
	case crypto.AlgorithmECDSA:
		switch sig.Scheme {
		case crypto.SM3withSM2:
			return secp256k1.PubKey(pub.Key).VerifySignature(data, sig.Data)
		case crypto.SchemeUnknown:
			return false
		default:
			// other ECDSA schemes are not supported by the remote chain bridge
			return false
		}
	case crypto.AlgorithmSM2:
		if sig.Scheme == crypto.SHA512withEDDSA {
			return ed25519.PubKey(pub.Key).VerifySignature(data, sig.Data)
		}
		return false
	default:
		return false
	}
}

// VerifyMultiSignature requires at least minSigs signatures and that every
// signature validates against a distinct key. Signatures and keys need not
// be in the same order: each signature takes the first unused key that
// validates it.
func VerifyMultiSignature(data []byte, keys []crypto.PublicKey, minSigs int, sigs []crypto.Signature) error {
	if len(sigs) < minSigs {
		return ErrNotEnoughSignatures
	}

	used := make([]bool, len(keys))

	for _, sig := range sigs {
		valid := false

		for j := range keys {
			if used[j] {
				continue
			}
			if Verify(keys[j], data, sig) {
				used[j] = true
				valid = true
				break
			}
		}

		if !valid {
			return ErrMultiSignatureMismatch
		}
	}

	return nil
}
