package crypto

import "crypto/sha256"

const (
	// HashSize is the size in bytes of a header digest.
	HashSize = sha256.Size
)

// Checksum returns the SHA256 of the bz.
func Checksum(bz []byte) []byte {
	h := sha256.Sum256(bz)
	return h[:]
}

// DoubleChecksum returns SHA256(SHA256(bz)), the remote chain's block hash
// function.
func DoubleChecksum(bz []byte) [HashSize]byte {
	first := sha256.Sum256(bz)
	return sha256.Sum256(first[:])
}
