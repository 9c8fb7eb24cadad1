package factory

import (
	"encoding/binary"
	"time"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/types"
)

const DefaultChainID uint64 = 2

// MakeHeader returns an unsigned header with deterministic roots derived from
// the chain id and height.
func MakeHeader(chainID uint64, height uint32) *types.Header {
	var seed [12]byte
	binary.LittleEndian.PutUint64(seed[:8], chainID)
	binary.LittleEndian.PutUint32(seed[8:], height)

	h := &types.Header{
		Version:       0,
		ChainID:       chainID,
		Timestamp:     1600000000 + height,
		Height:        height,
		ConsensusData: uint64(height) * 31,
	}
	h.TransactionsRoot = types.Hash(crypto.DoubleChecksum(append([]byte("txs"), seed[:]...)))
	h.CrossStateRoot = types.Hash(crypto.DoubleChecksum(append([]byte("cross"), seed[:]...)))
	h.BlockRoot = types.Hash(crypto.DoubleChecksum(append([]byte("root"), seed[:]...)))
	if height > 0 {
		binary.LittleEndian.PutUint32(seed[8:], height-1)
		h.PrevBlockHash = types.Hash(crypto.DoubleChecksum(seed[:]))
	}
	return h
}

// WithNewPeers makes h an epoch change announcing peers.
func WithNewPeers(h *types.Header, peers []types.PeerConfig) *types.Header {
	h.ConsensusPayload = &types.VbftBlockInfo{
		Proposer:           1,
		VrfValue:           []byte{0x01, 0x02},
		VrfProof:           []byte{0x03, 0x04},
		LastConfigBlockNum: h.Height,
		NewChainConfig: &types.ChainConfig{
			Version:              1,
			N:                    uint32(len(peers)),
			C:                    uint32(len(peers)) / 3,
			BlockMsgDelay:        10 * time.Second,
			HashMsgDelay:         10 * time.Second,
			PeerHandshakeTimeout: 10 * time.Second,
			Peers:                peers,
			MaxBlockChangeView:   10000,
		},
	}
	return h
}

// SignHeader sets the bookkeepers of h to the signers, signs the header hash
// with each of them and sets the declared block hash.
func SignHeader(h *types.Header, signers []Signer) *types.Header {
	hash := h.Hash()
	h.Bookkeepers = PublicKeys(signers)
	h.SigData = make([]crypto.Signature, len(signers))
	for i, s := range signers {
		h.SigData[i] = s.Sign(hash[:])
	}
	h.BlockHash = hash
	return h
}

// GenesisHeader returns a header signed by signers, whose bookkeepers seed
// the first peer set of the chain.
func GenesisHeader(chainID uint64, height uint32, signers []Signer) *types.Header {
	return SignHeader(MakeHeader(chainID, height), signers)
}

// SignedHeader returns a plain header at height signed by signers.
func SignedHeader(chainID uint64, height uint32, signers []Signer) *types.Header {
	return SignHeader(MakeHeader(chainID, height), signers)
}
