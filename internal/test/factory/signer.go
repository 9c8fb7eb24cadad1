package factory

import (
	"fmt"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/crypto/ed25519"
	"github.com/crosschain/headersync/crypto/secp256k1"
	"github.com/crosschain/headersync/types"
)

// Signer is a remote chain consensus participant able to sign headers.
type Signer struct {
	pub  crypto.PublicKey
	sign func([]byte) (crypto.Signature, error)
}

func (s Signer) PublicKey() crypto.PublicKey { return s.pub }

func (s Signer) Sign(msg []byte) crypto.Signature {
	sig, err := s.sign(msg)
	if err != nil {
		panic(fmt.Errorf("could not sign: %w", err))
	}
	return sig
}

func Ed25519Signer(secret string) Signer {
	priv := ed25519.GenPrivKeyFromSecret([]byte(secret))
	return Signer{
		pub: priv.PubKey().PublicKey(),
		sign: func(msg []byte) (crypto.Signature, error) {
			sig, err := priv.Sign(msg)
			return ed25519.ChainSignature(sig), err
		},
	}
}

func Secp256k1Signer(secret string) Signer {
	priv := secp256k1.GenPrivKeyFromSecret([]byte(secret))
	return Signer{
		pub: priv.PubKey().PublicKey(),
		sign: func(msg []byte) (crypto.Signature, error) {
			sig, err := priv.Sign(msg)
			return secp256k1.ChainSignature(sig), err
		},
	}
}

// Signers returns n deterministic signers alternating between secp256k1
// and ed25519 keys. Different prefixes give disjoint sets.
func Signers(prefix string, n int) []Signer {
	signers := make([]Signer, n)
	for i := range signers {
		secret := fmt.Sprintf("%s-%d", prefix, i)
		if i%2 == 0 {
			signers[i] = Secp256k1Signer(secret)
		} else {
			signers[i] = Ed25519Signer(secret)
		}
	}
	return signers
}

func PublicKeys(signers []Signer) []crypto.PublicKey {
	keys := make([]crypto.PublicKey, len(signers))
	for i, s := range signers {
		keys[i] = s.PublicKey()
	}
	return keys
}

func Peers(signers []Signer) []types.PeerConfig {
	return types.PeersFromKeys(PublicKeys(signers))
}
