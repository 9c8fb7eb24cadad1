package ed25519_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/crypto/ed25519"
)

func TestSignAndValidateEd25519(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	pubKey := privKey.PubKey()

	msg := []byte("header digest")
	sig, err := privKey.Sign(msg)
	require.NoError(t, err)

	assert.True(t, pubKey.VerifySignature(msg, sig))

	// Mutate the signature, just one bit.
	sig[7] ^= byte(0x01)

	assert.False(t, pubKey.VerifySignature(msg, sig))
}

func TestVerifyRejectsBadLengths(t *testing.T) {
	privKey := ed25519.GenPrivKeyFromSecret([]byte("peer"))
	msg := []byte("m")
	sig, err := privKey.Sign(msg)
	require.NoError(t, err)

	assert.False(t, privKey.PubKey()[:31].VerifySignature(msg, sig))
	assert.False(t, privKey.PubKey().VerifySignature(msg, sig[:63]))
}

func TestPublicKeyRoundTrip(t *testing.T) {
	pk := ed25519.GenPrivKeyFromSecret([]byte("peer")).PubKey().PublicKey()
	assert.Equal(t, crypto.AlgorithmSM2, pk.Algorithm)

	parsed, err := crypto.PublicKeyFromID(pk.ID())
	require.NoError(t, err)
	assert.True(t, pk.Equals(parsed))
}
