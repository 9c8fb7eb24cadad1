package types

import (
	"encoding/hex"
	"fmt"

	"github.com/crosschain/headersync/libs/zerocopy"
)

const (
	HashSize    = zerocopy.HashSize
	AddressSize = zerocopy.AddressSize
)

// Hash is a 32 byte digest. It is hex encoded in text and JSON.
type Hash [HashSize]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashFromHex parses a 64 character hex string.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	bz, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(bz) != HashSize {
		return h, fmt.Errorf("invalid hash %q: expected %d bytes, got %d", s, HashSize, len(bz))
	}
	copy(h[:], bz)
	return h, nil
}

// Address is a 20 byte account address of the remote chain.
type Address [AddressSize]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	bz, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", text, err)
	}
	if len(bz) != AddressSize {
		return fmt.Errorf("invalid address %q: expected %d bytes, got %d", text, AddressSize, len(bz))
	}
	copy(a[:], bz)
	return nil
}
