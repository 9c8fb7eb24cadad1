// Package ed25519 verifies and produces the Ed25519 signatures carried in
// remote chain headers under the SHA512withEDDSA scheme tag.
package ed25519

import (
	crand "crypto/rand"
	"crypto/sha256"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/crosschain/headersync/crypto"
)

const (
	PubKeySize  = ed25519.PublicKeySize
	PrivKeySize = ed25519.PrivateKeySize
	// Size of an Edwards25519 signature. Namely the size of a compressed
	// Edwards25519 point, and a field element. Both of which are 32 bytes.
	SignatureSize = ed25519.SignatureSize
)

// ZIP-215 rules, so every verifier agrees on edge-case signatures.
var verifyOptions = &ed25519.Options{
	Verify: ed25519.VerifyOptionsZIP_215,
}

type PubKey []byte

// PublicKey wraps the key as an SM2 tagged remote chain key, which is how
// the remote chain labels its Ed25519 consensus keys.
func (pubKey PubKey) PublicKey() crypto.PublicKey {
	return crypto.PublicKey{
		Algorithm: crypto.AlgorithmSM2,
		Curve:     crypto.CurveEd25519,
		Key:       append([]byte(nil), pubKey...),
	}
}

func (pubKey PubKey) VerifySignature(msg []byte, sig []byte) bool {
	if len(pubKey) != PubKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.VerifyWithOptions(ed25519.PublicKey(pubKey), msg, sig, verifyOptions)
}

type PrivKey []byte

func GenPrivKey() PrivKey {
	_, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		panic(err)
	}
	return PrivKey(priv)
}

// GenPrivKeyFromSecret derives a key from SHA256(secret). Not for
// production key material.
func GenPrivKeyFromSecret(secret []byte) PrivKey {
	seed := sha256.Sum256(secret)
	return PrivKey(ed25519.NewKeyFromSeed(seed[:]))
}

func (privKey PrivKey) PubKey() PubKey {
	pub := make([]byte, PubKeySize)
	copy(pub, privKey[32:])
	return PubKey(pub)
}

func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(ed25519.PrivateKey(privKey), msg), nil
}

func ChainSignature(sig []byte) crypto.Signature {
	return crypto.Signature{Scheme: crypto.SHA512withEDDSA, Data: sig}
}
