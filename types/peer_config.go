package types

import (
	"errors"
	"fmt"

	"github.com/crosschain/headersync/crypto"
	"github.com/crosschain/headersync/libs/zerocopy"
)

// PeerConfig is a consensus participant of the remote chain. ID is the
// hex identity of the participant's public key and is always derived from
// it (see NewPeerConfig).
type PeerConfig struct {
	Index uint32 `json:"index"`
	ID    string `json:"id"`
}

func NewPeerConfig(index uint32, pk crypto.PublicKey) PeerConfig {
	return PeerConfig{Index: index, ID: pk.ID()}
}

// PeersFromKeys numbers keys from 1 in the given order.
func PeersFromKeys(keys []crypto.PublicKey) []PeerConfig {
	peers := make([]PeerConfig, len(keys))
	for i, pk := range keys {
		peers[i] = NewPeerConfig(uint32(i+1), pk)
	}
	return peers
}

// PublicKey parses the key the ID was derived from.
func (p PeerConfig) PublicKey() (crypto.PublicKey, error) {
	return crypto.PublicKeyFromID(p.ID)
}

// ValidateBasic checks that ID is the canonical identity of a public key.
func (p PeerConfig) ValidateBasic() error {
	if p.ID == "" {
		return errors.New("empty peer id")
	}
	if _, err := p.PublicKey(); err != nil {
		return fmt.Errorf("peer %d: %w", p.Index, err)
	}
	return nil
}

func (p PeerConfig) encode(sink *zerocopy.Sink) {
	sink.WriteUint32(p.Index)
	sink.WriteString(p.ID)
}

func decodePeerConfig(src *zerocopy.Source) (PeerConfig, error) {
	var (
		p   PeerConfig
		err error
	)
	if p.Index, err = src.ReadUint32(); err != nil {
		return p, fmt.Errorf("index: %w", err)
	}
	if p.ID, err = src.ReadString(); err != nil {
		return p, fmt.Errorf("id: %w", err)
	}
	if err := p.ValidateBasic(); err != nil {
		return p, fmt.Errorf("%w: %v", zerocopy.ErrInvalidValue, err)
	}
	return p, nil
}

func encodePeers(sink *zerocopy.Sink, peers []PeerConfig) {
	sink.WriteVarUint(uint64(len(peers)))
	for _, p := range peers {
		p.encode(sink)
	}
}

func decodePeers(src *zerocopy.Source) ([]PeerConfig, error) {
	n, err := src.ReadVarUint()
	if err != nil {
		return nil, fmt.Errorf("peer count: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	peers := make([]PeerConfig, 0, capHint(n, src))
	for i := uint64(0); i < n; i++ {
		p, err := decodePeerConfig(src)
		if err != nil {
			return nil, fmt.Errorf("peer %d: %w", i, err)
		}
		peers = append(peers, p)
	}
	return peers, nil
}

// MarshalPeers encodes a peer list as a var uint count followed by the
// peers.
func MarshalPeers(peers []PeerConfig) []byte {
	sink := new(zerocopy.Sink)
	encodePeers(sink, peers)
	return sink.Bytes()
}

// UnmarshalPeers decodes a list written by MarshalPeers. Trailing bytes are
// rejected and an empty list decodes as nil.
func UnmarshalPeers(bz []byte) ([]PeerConfig, error) {
	src := zerocopy.NewSource(bz)
	peers, err := decodePeers(src)
	if err != nil {
		return nil, err
	}
	if src.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", zerocopy.ErrInvalidValue, src.Len())
	}
	return peers, nil
}

// capHint bounds a slice preallocation by the bytes left in src, so that a
// forged count cannot force a huge allocation.
func capHint(n uint64, src *zerocopy.Source) int {
	if left := uint64(src.Len()); n > left {
		return int(left)
	}
	return int(n)
}
