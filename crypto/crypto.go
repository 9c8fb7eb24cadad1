package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeyAlgorithm is the algorithm tag of a remote chain public key.
type KeyAlgorithm byte

const (
	AlgorithmECDSA KeyAlgorithm = 0x12
	AlgorithmSM2   KeyAlgorithm = 0x13
)

// Curve labels carried after the algorithm tag.
const (
	CurveSecp256k1 byte = 0x05
	CurveEd25519   byte = 0x19
)

func (a KeyAlgorithm) String() string {
	switch a {
	case AlgorithmECDSA:
		return "ECDSA"
	case AlgorithmSM2:
		return "SM2"
	default:
		return "Unknown"
	}
}

// SignatureScheme is the scheme tag of a remote chain signature. The
// numbering follows the remote chain; it does not describe the primitive
// used to check the signature (see multisig.Verify).
type SignatureScheme byte

const (
	SHA224withECDSA SignatureScheme = iota
	SHA256withECDSA
	SHA384withECDSA
	SHA512withECDSA
	SHA3_224withECDSA
	SHA3_256withECDSA
	SHA3_384withECDSA
	SHA3_512withECDSA
	RIPEMD160withECDSA
	SM3withSM2
	SHA512withEDDSA

	SchemeUnknown SignatureScheme = 0xFF
)

var schemeNames = map[SignatureScheme]string{
	SHA224withECDSA:    "SHA224withECDSA",
	SHA256withECDSA:    "SHA256withECDSA",
	SHA384withECDSA:    "SHA384withECDSA",
	SHA512withECDSA:    "SHA512withECDSA",
	SHA3_224withECDSA:  "SHA3-224withECDSA",
	SHA3_256withECDSA:  "SHA3-256withECDSA",
	SHA3_384withECDSA:  "SHA3-384withECDSA",
	SHA3_512withECDSA:  "SHA3-512withECDSA",
	RIPEMD160withECDSA: "RIPEMD160withECDSA",
	SM3withSM2:         "SM3withSM2",
	SHA512withEDDSA:    "SHA512withEdDSA",
}

func (s SignatureScheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return "Unknown"
}

var (
	ErrMalformedPublicKey = errors.New("malformed public key")
	ErrMalformedSignature = errors.New("malformed signature")
)

// PublicKey is a consensus participant key as serialized by the remote
// chain: [algorithm][curve][key bytes].
type PublicKey struct {
	Algorithm KeyAlgorithm
	Curve     byte
	Key       []byte
}

// Bytes returns the canonical serialization of the key.
func (pk PublicKey) Bytes() []byte {
	bz := make([]byte, 0, 2+len(pk.Key))
	bz = append(bz, byte(pk.Algorithm), pk.Curve)
	return append(bz, pk.Key...)
}

// ID returns the lowercase hex of the canonical serialization. It is the
// identity used for consensus peer membership.
func (pk PublicKey) ID() string {
	return hex.EncodeToString(pk.Bytes())
}

func (pk PublicKey) Equals(other PublicKey) bool {
	return pk.Algorithm == other.Algorithm &&
		pk.Curve == other.Curve &&
		bytes.Equal(pk.Key, other.Key)
}

// MarshalText encodes the key as its peer identity.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.ID()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := PublicKeyFromID(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

func (pk PublicKey) String() string {
	return fmt.Sprintf("PubKey{%v:%X}", pk.Algorithm, pk.Key)
}

// ParsePublicKey decodes a canonical serialization. Known algorithms are
// checked for a plausible key length; unknown algorithms are kept as-is so
// the serialization round-trips.
func ParsePublicKey(bz []byte) (PublicKey, error) {
	if len(bz) < 2 {
		return PublicKey{}, fmt.Errorf("%w: %d bytes", ErrMalformedPublicKey, len(bz))
	}

	pk := PublicKey{
		Algorithm: KeyAlgorithm(bz[0]),
		Curve:     bz[1],
		Key:       append([]byte(nil), bz[2:]...),
	}

	switch pk.Algorithm {
	case AlgorithmECDSA:
		if n := len(pk.Key); n != 33 && n != 65 {
			return PublicKey{}, fmt.Errorf("%w: ECDSA key of %d bytes", ErrMalformedPublicKey, n)
		}
	case AlgorithmSM2:
		if n := len(pk.Key); n != 32 {
			return PublicKey{}, fmt.Errorf("%w: SM2 key of %d bytes", ErrMalformedPublicKey, n)
		}
	}

	return pk, nil
}

// PublicKeyFromID parses a peer identity produced by PublicKey.ID. The id
// must be the canonical (lowercase) hex form.
func PublicKeyFromID(id string) (PublicKey, error) {
	bz, err := hex.DecodeString(id)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrMalformedPublicKey, err)
	}
	pk, err := ParsePublicKey(bz)
	if err != nil {
		return PublicKey{}, err
	}
	if pk.ID() != id {
		return PublicKey{}, fmt.Errorf("%w: id %q is not canonical", ErrMalformedPublicKey, id)
	}
	return pk, nil
}

// Signature is a remote chain signature: [scheme][signature bytes].
type Signature struct {
	Scheme SignatureScheme
	Data   []byte
}

func (sig Signature) Bytes() []byte {
	bz := make([]byte, 0, 1+len(sig.Data))
	bz = append(bz, byte(sig.Scheme))
	return append(bz, sig.Data...)
}

func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(sig.Bytes())), nil
}

func (sig *Signature) UnmarshalText(text []byte) error {
	bz, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	parsed, err := ParseSignature(bz)
	if err != nil {
		return err
	}
	*sig = parsed
	return nil
}

func (sig Signature) String() string {
	return fmt.Sprintf("Sig{%v:%X}", sig.Scheme, sig.Data)
}

func ParseSignature(bz []byte) (Signature, error) {
	if len(bz) < 1 {
		return Signature{}, ErrMalformedSignature
	}
	return Signature{
		Scheme: SignatureScheme(bz[0]),
		Data:   append([]byte(nil), bz[1:]...),
	}, nil
}
