package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/libs/zerocopy"
)

func drawBytes(t *rapid.T, label string, min, max int) []byte {
	bz := rapid.SliceOfN(rapid.Byte(), min, max).Draw(t, label).([]byte)
	if len(bz) == 0 {
		return nil
	}
	return bz
}

func drawHash(t *rapid.T, label string) (h Hash) {
	copy(h[:], drawBytes(t, label, HashSize, HashSize))
	return h
}

func drawKey(t *rapid.T) crypto.PublicKey {
	if rapid.Bool().Draw(t, "ecdsa").(bool) {
		key := drawBytes(t, "ecdsa key", 33, 33)
		return crypto.PublicKey{Algorithm: crypto.AlgorithmECDSA, Curve: crypto.CurveSecp256k1, Key: key}
	}
	key := drawBytes(t, "ed25519 key", 32, 32)
	return crypto.PublicKey{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: key}
}

func drawChainConfig(t *rapid.T) *ChainConfig {
	cc := &ChainConfig{
		Version:              rapid.Uint32().Draw(t, "version").(uint32),
		View:                 rapid.Uint32().Draw(t, "view").(uint32),
		N:                    rapid.Uint32().Draw(t, "n").(uint32),
		C:                    rapid.Uint32().Draw(t, "c").(uint32),
		BlockMsgDelay:        time.Duration(rapid.Int64().Draw(t, "block delay").(int64)),
		HashMsgDelay:         time.Duration(rapid.Int64().Draw(t, "hash delay").(int64)),
		PeerHandshakeTimeout: time.Duration(rapid.Int64().Draw(t, "handshake").(int64)),
		MaxBlockChangeView:   rapid.Uint32().Draw(t, "max view").(uint32),
	}
	n := rapid.IntRange(0, 5).Draw(t, "peers").(int)
	for i := 0; i < n; i++ {
		cc.Peers = append(cc.Peers, NewPeerConfig(uint32(i+1), drawKey(t)))
	}
	m := rapid.IntRange(0, 5).Draw(t, "pos").(int)
	for i := 0; i < m; i++ {
		cc.PosTable = append(cc.PosTable, rapid.Uint32().Draw(t, "pos entry").(uint32))
	}
	return cc
}

func drawHeader(t *rapid.T) *Header {
	h := &Header{
		Version:          rapid.Uint32().Draw(t, "version").(uint32),
		ChainID:          rapid.Uint64().Draw(t, "chain id").(uint64),
		PrevBlockHash:    drawHash(t, "prev"),
		TransactionsRoot: drawHash(t, "txs"),
		CrossStateRoot:   drawHash(t, "cross"),
		BlockRoot:        drawHash(t, "block root"),
		Timestamp:        rapid.Uint32().Draw(t, "timestamp").(uint32),
		Height:           rapid.Uint32().Draw(t, "height").(uint32),
		ConsensusData:    rapid.Uint64().Draw(t, "consensus data").(uint64),
		BlockHash:        drawHash(t, "block hash"),
	}
	copy(h.NextBookkeeper[:], drawBytes(t, "next", AddressSize, AddressSize))

	if rapid.Bool().Draw(t, "payload").(bool) {
		bi := &VbftBlockInfo{
			Proposer:           rapid.Uint32().Draw(t, "proposer").(uint32),
			VrfValue:           drawBytes(t, "vrf value", 0, 64),
			VrfProof:           drawBytes(t, "vrf proof", 0, 64),
			LastConfigBlockNum: rapid.Uint32().Draw(t, "last config").(uint32),
		}
		if rapid.Bool().Draw(t, "config").(bool) {
			bi.NewChainConfig = drawChainConfig(t)
		}
		h.ConsensusPayload = bi
	}

	n := rapid.IntRange(0, 7).Draw(t, "bookkeepers").(int)
	for i := 0; i < n; i++ {
		h.Bookkeepers = append(h.Bookkeepers, drawKey(t))
	}
	m := rapid.IntRange(0, 7).Draw(t, "sigs").(int)
	for i := 0; i < m; i++ {
		h.SigData = append(h.SigData, crypto.Signature{
			Scheme: crypto.SignatureScheme(rapid.Byte().Draw(t, "scheme").(byte)),
			Data:   drawBytes(t, "sig", 0, 65),
		})
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := drawHeader(t)
		got, err := UnmarshalHeader(h.Marshal())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		assert.Equal(t, h, got)
		assert.Equal(t, h.Hash(), got.Hash())
	})
}

func TestHeaderTruncation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bz := drawHeader(t).Marshal()
		cut := rapid.IntRange(0, len(bz)-1).Draw(t, "cut").(int)
		_, err := UnmarshalHeader(bz[:cut])
		if !errors.Is(err, zerocopy.ErrInputTooShort) {
			t.Fatalf("truncated at %d of %d: got %v", cut, len(bz), err)
		}
	})
}

func TestHeaderTrailingBytes(t *testing.T) {
	h := &Header{ChainID: 1, Height: 2}
	_, err := UnmarshalHeader(append(h.Marshal(), 0))
	require.ErrorIs(t, err, zerocopy.ErrInvalidValue)
}

func TestHeaderInvalidPayloadTag(t *testing.T) {
	h := &Header{ChainID: 1, Height: 2}
	bz := h.Marshal()
	// the payload tag follows the fixed width prefix of the partial encoding
	tagPos := 4 + 8 + 4*HashSize + 4 + 4 + 8
	require.Equal(t, byte(0), bz[tagPos])
	bz[tagPos] = 2

	_, err := UnmarshalHeader(bz)
	require.ErrorIs(t, err, zerocopy.ErrInvalidValue)
}

func TestHeaderInvalidPeerID(t *testing.T) {
	h := &Header{
		ChainID: 1,
		ConsensusPayload: &VbftBlockInfo{
			NewChainConfig: &ChainConfig{Peers: []PeerConfig{{Index: 1, ID: "not-hex"}}},
		},
	}
	_, err := UnmarshalHeader(h.Marshal())
	require.ErrorIs(t, err, zerocopy.ErrInvalidValue)
	require.Error(t, h.ValidateBasic())
}

func TestPartialBytesExcludesSignatures(t *testing.T) {
	h := &Header{Version: 1, ChainID: 7, Height: 100}
	partial := h.PartialBytes()
	hash := h.Hash()

	h.Bookkeepers = []crypto.PublicKey{{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: make([]byte, 32)}}
	h.SigData = []crypto.Signature{{Scheme: crypto.SHA512withEDDSA, Data: []byte{1}}}
	h.BlockHash = Hash{0xff}

	assert.Equal(t, partial, h.PartialBytes())
	assert.Equal(t, hash, h.Hash())
	assert.True(t, bytes.HasPrefix(h.Marshal(), partial))
	assert.Equal(t, Hash(crypto.DoubleChecksum(partial)), hash)
}

func TestPartialBytesLayout(t *testing.T) {
	h := &Header{Version: 1, ChainID: 0x0102, Height: 5}
	bz := h.PartialBytes()
	require.Len(t, bz, 4+8+4*HashSize+4+4+8+1+AddressSize)
	assert.Equal(t, []byte{1, 0, 0, 0}, bz[:4])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, bz[4:12])
}

func TestHeaderEpochHelpers(t *testing.T) {
	h := &Header{Height: EpochHeight * 2}
	assert.False(t, h.IsEpochChange())
	assert.Nil(t, h.NewPeers())
	assert.True(t, h.IsStartOfEpoch())

	h.ConsensusPayload = &VbftBlockInfo{}
	assert.False(t, h.IsEpochChange())

	peers := []PeerConfig{{Index: 1, ID: "12"}}
	h.ConsensusPayload.NewChainConfig = &ChainConfig{Peers: peers}
	assert.True(t, h.IsEpochChange())
	assert.Equal(t, peers, h.NewPeers())

	h.Height++
	assert.False(t, h.IsStartOfEpoch())
}

func TestDuplicateBookkeeper(t *testing.T) {
	a := crypto.PublicKey{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: bytes.Repeat([]byte{1}, 32)}
	b := crypto.PublicKey{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: bytes.Repeat([]byte{2}, 32)}

	h := &Header{Bookkeepers: []crypto.PublicKey{a, b}}
	assert.Empty(t, h.DuplicateBookkeeper())

	h.Bookkeepers = append(h.Bookkeepers, a)
	assert.Equal(t, a.ID(), h.DuplicateBookkeeper())
}

func TestPeersRoundTrip(t *testing.T) {
	keys := []crypto.PublicKey{
		{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: bytes.Repeat([]byte{1}, 32)},
		{Algorithm: crypto.AlgorithmECDSA, Curve: crypto.CurveSecp256k1, Key: append([]byte{2}, bytes.Repeat([]byte{3}, 32)...)},
	}
	peers := PeersFromKeys(keys)
	require.Len(t, peers, 2)
	assert.EqualValues(t, 1, peers[0].Index)
	assert.EqualValues(t, 2, peers[1].Index)

	got, err := UnmarshalPeers(MarshalPeers(peers))
	require.NoError(t, err)
	assert.Equal(t, peers, got)

	pk, err := got[1].PublicKey()
	require.NoError(t, err)
	assert.True(t, keys[1].Equals(pk))

	_, err = UnmarshalPeers(append(MarshalPeers(peers), 0))
	assert.ErrorIs(t, err, zerocopy.ErrInvalidValue)
}

func TestDecodeEmptyAsNil(t *testing.T) {
	h := &Header{
		Height: 3,
		ConsensusPayload: &VbftBlockInfo{
			VrfValue:       []byte{},
			VrfProof:       []byte{},
			NewChainConfig: &ChainConfig{Peers: []PeerConfig{}, PosTable: []uint32{}},
		},
		Bookkeepers: []crypto.PublicKey{},
		SigData:     []crypto.Signature{{Scheme: crypto.SHA512withEDDSA, Data: []byte{}}},
	}
	bz := h.Marshal()

	got, err := UnmarshalHeader(bz)
	require.NoError(t, err)
	assert.Nil(t, got.Bookkeepers)
	assert.Nil(t, got.SigData[0].Data)
	assert.Nil(t, got.ConsensusPayload.VrfValue)
	assert.Nil(t, got.ConsensusPayload.VrfProof)
	assert.Nil(t, got.ConsensusPayload.NewChainConfig.Peers)
	assert.Nil(t, got.ConsensusPayload.NewChainConfig.PosTable)

	assert.Equal(t, bz, got.Marshal())
	assert.Equal(t, h.Hash(), got.Hash())

	peers, err := UnmarshalPeers(MarshalPeers([]PeerConfig{}))
	require.NoError(t, err)
	assert.Nil(t, peers)
}

func TestHeaderJSON(t *testing.T) {
	h := &Header{
		ChainID:     3,
		Height:      9,
		BlockHash:   Hash{0xab},
		Bookkeepers: []crypto.PublicKey{{Algorithm: crypto.AlgorithmSM2, Curve: crypto.CurveEd25519, Key: make([]byte, 32)}},
		SigData:     []crypto.Signature{{Scheme: crypto.SHA512withEDDSA, Data: []byte{1, 2}}},
	}
	bz, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Contains(t, string(bz), `"block_hash":"ab00`)

	var got Header
	require.NoError(t, json.Unmarshal(bz, &got))
	assert.Equal(t, h.Marshal(), got.Marshal())
}

func TestHashFromHex(t *testing.T) {
	h := Hash{1, 2, 3}
	got, err := HashFromHex(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.False(t, got.IsZero())

	_, err = HashFromHex("0102")
	assert.Error(t, err)
	_, err = HashFromHex("zz")
	assert.Error(t, err)
}
