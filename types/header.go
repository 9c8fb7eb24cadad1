package types

import (
	"fmt"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/libs/zerocopy"
)

// EpochHeight is the nominal epoch length of the remote chain. Epoch changes
// are driven by headers carrying a new chain config; the constant is
// informational only.
const EpochHeight = 60000

// Header is a block header of a remote VBFT chain.
//
// Everything up to and including NextBookkeeper is the signed payload (see
// PartialBytes). Bookkeepers, SigData and BlockHash travel with the header
// but are not covered by its hash.
type Header struct {
	Version          uint32         `json:"version"`
	ChainID          uint64         `json:"chain_id"`
	PrevBlockHash    Hash           `json:"prev_block_hash"`
	TransactionsRoot Hash           `json:"transactions_root"`
	CrossStateRoot   Hash           `json:"cross_state_root"`
	BlockRoot        Hash           `json:"block_root"`
	Timestamp        uint32         `json:"timestamp"`
	Height           uint32         `json:"height"`
	ConsensusData    uint64         `json:"consensus_data"`
	ConsensusPayload *VbftBlockInfo `json:"consensus_payload,omitempty"`
	NextBookkeeper   Address        `json:"next_bookkeeper"`

	Bookkeepers []crypto.PublicKey `json:"bookkeepers"`
	SigData     []crypto.Signature `json:"sig_data"`
	BlockHash   Hash               `json:"block_hash"`
}

func (h *Header) encodePartial(sink *zerocopy.Sink) {
	sink.WriteUint32(h.Version)
	sink.WriteUint64(h.ChainID)
	sink.WriteHash(h.PrevBlockHash)
	sink.WriteHash(h.TransactionsRoot)
	sink.WriteHash(h.CrossStateRoot)
	sink.WriteHash(h.BlockRoot)
	sink.WriteUint32(h.Timestamp)
	sink.WriteUint32(h.Height)
	sink.WriteUint64(h.ConsensusData)
	if h.ConsensusPayload != nil {
		sink.WriteBool(true)
		h.ConsensusPayload.encode(sink)
	} else {
		sink.WriteBool(false)
	}
	sink.WriteAddress(h.NextBookkeeper)
}

// PartialBytes returns the signed payload of the header.
func (h *Header) PartialBytes() []byte {
	sink := zerocopy.NewSink(256)
	h.encodePartial(sink)
	return sink.Bytes()
}

// Hash computes SHA256(SHA256(PartialBytes())). It is not necessarily equal
// to the declared BlockHash.
func (h *Header) Hash() Hash {
	return Hash(crypto.DoubleChecksum(h.PartialBytes()))
}

// Marshal returns the full wire encoding of the header.
func (h *Header) Marshal() []byte {
	sink := zerocopy.NewSink(512)
	h.encodePartial(sink)

	sink.WriteVarUint(uint64(len(h.Bookkeepers)))
	for _, pk := range h.Bookkeepers {
		sink.WriteVarBytes(pk.Bytes())
	}
	sink.WriteVarUint(uint64(len(h.SigData)))
	for _, sig := range h.SigData {
		sink.WriteVarBytes(sig.Bytes())
	}
	sink.WriteHash(h.BlockHash)
	return sink.Bytes()
}

// UnmarshalHeader decodes a full header encoding. Errors wrap
// zerocopy.ErrInputTooShort or zerocopy.ErrInvalidValue; trailing bytes are
// rejected.
//
// The encoding does not tell an empty list or byte string from a nil one:
// empty bookkeepers, signatures, peers, pos tables, VRF fields, keys and
// signature data all decode as nil. The decoded header re-encodes to the
// same bytes and has the same hash.
func UnmarshalHeader(bz []byte) (*Header, error) {
	src := zerocopy.NewSource(bz)
	h, err := decodeHeader(src)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if src.Len() != 0 {
		return nil, fmt.Errorf("decode header: %w: %d trailing bytes", zerocopy.ErrInvalidValue, src.Len())
	}
	return h, nil
}

func decodeHeader(src *zerocopy.Source) (*Header, error) {
	h := new(Header)

	var err error
	if h.Version, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	if h.ChainID, err = src.ReadUint64(); err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	roots := []struct {
		name string
		dst  *Hash
	}{
		{"prev block hash", &h.PrevBlockHash},
		{"transactions root", &h.TransactionsRoot},
		{"cross state root", &h.CrossStateRoot},
		{"block root", &h.BlockRoot},
	}
	for _, r := range roots {
		v, err := src.ReadHash()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.name, err)
		}
		*r.dst = v
	}

	if h.Timestamp, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	if h.Height, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if h.ConsensusData, err = src.ReadUint64(); err != nil {
		return nil, fmt.Errorf("consensus data: %w", err)
	}

	present, err := src.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("consensus payload: %w", err)
	}
	if present {
		if h.ConsensusPayload, err = decodeVbftBlockInfo(src); err != nil {
			return nil, fmt.Errorf("consensus payload: %w", err)
		}
	}

	addr, err := src.ReadAddress()
	if err != nil {
		return nil, fmt.Errorf("next bookkeeper: %w", err)
	}
	h.NextBookkeeper = addr

	if h.Bookkeepers, err = decodeBookkeepers(src); err != nil {
		return nil, fmt.Errorf("bookkeepers: %w", err)
	}
	if h.SigData, err = decodeSigData(src); err != nil {
		return nil, fmt.Errorf("sig data: %w", err)
	}

	hash, err := src.ReadHash()
	if err != nil {
		return nil, fmt.Errorf("block hash: %w", err)
	}
	h.BlockHash = hash

	return h, nil
}

func decodeBookkeepers(src *zerocopy.Source) ([]crypto.PublicKey, error) {
	n, err := src.ReadVarUint()
	if err != nil || n == 0 {
		return nil, err
	}
	keys := make([]crypto.PublicKey, 0, capHint(n, src))
	for i := uint64(0); i < n; i++ {
		bz, err := src.ReadVarBytes()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		pk, err := crypto.ParsePublicKey(bz)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w: %v", i, zerocopy.ErrInvalidValue, err)
		}
		keys = append(keys, pk)
	}
	return keys, nil
}

func decodeSigData(src *zerocopy.Source) ([]crypto.Signature, error) {
	n, err := src.ReadVarUint()
	if err != nil || n == 0 {
		return nil, err
	}
	sigs := make([]crypto.Signature, 0, capHint(n, src))
	for i := uint64(0); i < n; i++ {
		bz, err := src.ReadVarBytes()
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		sig, err := crypto.ParseSignature(bz)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w: %v", i, zerocopy.ErrInvalidValue, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// IsEpochChange reports whether the header announces a new consensus
// configuration.
func (h *Header) IsEpochChange() bool {
	return h.ConsensusPayload != nil && h.ConsensusPayload.NewChainConfig != nil
}

// NewPeers returns the peer set announced by the header, or nil if the
// header is not an epoch change.
func (h *Header) NewPeers() []PeerConfig {
	if !h.IsEpochChange() {
		return nil
	}
	return h.ConsensusPayload.NewChainConfig.Peers
}

// IsStartOfEpoch reports whether the height falls on a nominal epoch
// boundary.
func (h *Header) IsStartOfEpoch() bool {
	return h.Height%EpochHeight == 0
}

// ValidateBasic performs stateless checks on a header built in memory.
// Decoded headers already satisfy them.
func (h *Header) ValidateBasic() error {
	for i, pk := range h.Bookkeepers {
		if _, err := crypto.ParsePublicKey(pk.Bytes()); err != nil {
			return fmt.Errorf("bookkeeper %d: %w", i, err)
		}
	}
	for _, p := range h.NewPeers() {
		if err := p.ValidateBasic(); err != nil {
			return fmt.Errorf("new chain config: %w", err)
		}
	}
	return nil
}

// DuplicateBookkeeper returns the identity of the first bookkeeper listed
// more than once, or "" if all are distinct.
func (h *Header) DuplicateBookkeeper() string {
	seen := make(map[string]struct{}, len(h.Bookkeepers))
	for _, pk := range h.Bookkeepers {
		id := pk.ID()
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}

func (h *Header) String() string {
	if h == nil {
		return "nil-Header"
	}
	return fmt.Sprintf("Header{chain:%d height:%d hash:%v epoch_change:%v}",
		h.ChainID, h.Height, h.BlockHash, h.IsEpochChange())
}
