// Package secp256k1 verifies and produces the ECDSA signatures carried in
// remote chain headers under the SM3withSM2 scheme tag.
package secp256k1

import (
	"crypto/sha256"
	"math/big"

	secp256k1 "github.com/btcsuite/btcd/btcec"

	"github.com/crosschain/headersync/crypto"
)

const (
	PrivKeySize   = 32
	PubKeySize    = 33
	SignatureSize = 64
)

// used to reject malleable signatures
// see:
//  - https://github.com/ethereum/go-ethereum/blob/f9401ae011ddf7f8d2d95020b7446c17f8d98dc1/crypto/signature_nocgo.go#L90-L93
//  - https://github.com/ethereum/go-ethereum/blob/f9401ae011ddf7f8d2d95020b7446c17f8d98dc1/crypto/crypto.go#L39
var secp256k1halfN = new(big.Int).Rsh(secp256k1.S256().N, 1)

// PubKey is a SEC1 encoded point, compressed or uncompressed.
type PubKey []byte

// PublicKey wraps the point as an ECDSA tagged remote chain key.
func (pubKey PubKey) PublicKey() crypto.PublicKey {
	return crypto.PublicKey{
		Algorithm: crypto.AlgorithmECDSA,
		Curve:     crypto.CurveSecp256k1,
		Key:       append([]byte(nil), pubKey...),
	}
}

// VerifySignature checks an R || S signature over SHA256(msg).
func (pubKey PubKey) VerifySignature(msg []byte, sigStr []byte) bool {
	if len(sigStr) != SignatureSize {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubKey, secp256k1.S256())
	if err != nil {
		return false
	}
	signature := signatureFromBytes(sigStr)
	// Reject malleable signatures. libsecp256k1 does this check but btcec doesn't.
	if signature.S.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return signature.Verify(crypto.Checksum(msg), pub)
}

// PrivKey is a 32 byte scalar.
type PrivKey []byte

// GenPrivKey generates a new key from the system randomness.
func GenPrivKey() PrivKey {
	priv, err := secp256k1.NewPrivateKey(secp256k1.S256())
	if err != nil {
		panic(err)
	}
	return padKey(priv.D)
}

// GenPrivKeyFromSecret hashes the secret with SHA256 and maps the digest
// onto a valid scalar in [1, N-1]. Not for production key material.
func GenPrivKeyFromSecret(secret []byte) PrivKey {
	one := big.NewInt(1)
	secHash := sha256.Sum256(secret)
	fe := new(big.Int).SetBytes(secHash[:])
	n := new(big.Int).Sub(secp256k1.S256().N, one)
	fe.Mod(fe, n)
	fe.Add(fe, one)
	return padKey(fe)
}

func padKey(d *big.Int) PrivKey {
	b := d.Bytes()
	privKey := make([]byte, PrivKeySize)
	copy(privKey[PrivKeySize-len(b):], b)
	return PrivKey(privKey)
}

// PubKey returns the compressed public point.
func (privKey PrivKey) PubKey() PubKey {
	_, pub := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey)
	return PubKey(pub.SerializeCompressed())
}

// Sign creates an ECDSA signature on curve Secp256k1, using SHA256 on the msg.
// The returned signature will be of the form R || S (in lower-S form).
func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	priv, _ := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey)
	sig, err := priv.Sign(crypto.Checksum(msg))
	if err != nil {
		return nil, err
	}
	return serializeSig(sig), nil
}

// ChainSignature tags sig with the scheme the remote chain uses for
// secp256k1 signatures.
func ChainSignature(sig []byte) crypto.Signature {
	return crypto.Signature{Scheme: crypto.SM3withSM2, Data: sig}
}

func signatureFromBytes(sigStr []byte) *secp256k1.Signature {
	return &secp256k1.Signature{
		R: new(big.Int).SetBytes(sigStr[:32]),
		S: new(big.Int).SetBytes(sigStr[32:64]),
	}
}

// serializeSig pads R and S to 32 bytes each.
func serializeSig(sig *secp256k1.Signature) []byte {
	rBytes := sig.R.Bytes()
	sBytes := sig.S.Bytes()
	sigBytes := make([]byte, SignatureSize)
	copy(sigBytes[32-len(rBytes):32], rBytes)
	copy(sigBytes[64-len(sBytes):64], sBytes)
	return sigBytes
}
