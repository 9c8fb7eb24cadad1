package types

import (
	"fmt"
	"time"

	"github.com/crosschain/headersync/libs/zerocopy"
)

// ChainConfig is the VBFT consensus configuration announced at an epoch
// boundary. Peers becomes the active consensus peer set from the height of
// the header carrying it.
type ChainConfig struct {
	Version              uint32        `json:"version"`
	View                 uint32        `json:"view"`
	N                    uint32        `json:"n"`
	C                    uint32        `json:"c"`
	BlockMsgDelay        time.Duration `json:"block_msg_delay"`
	HashMsgDelay         time.Duration `json:"hash_msg_delay"`
	PeerHandshakeTimeout time.Duration `json:"peer_handshake_timeout"`
	Peers                []PeerConfig  `json:"peers"`
	PosTable             []uint32      `json:"pos_table"`
	MaxBlockChangeView   uint32        `json:"max_block_change_view"`
}

func (cc *ChainConfig) encode(sink *zerocopy.Sink) {
	sink.WriteUint32(cc.Version)
	sink.WriteUint32(cc.View)
	sink.WriteUint32(cc.N)
	sink.WriteUint32(cc.C)
	sink.WriteUint64(uint64(cc.BlockMsgDelay))
	sink.WriteUint64(uint64(cc.HashMsgDelay))
	sink.WriteUint64(uint64(cc.PeerHandshakeTimeout))
	encodePeers(sink, cc.Peers)
	sink.WriteVarUint(uint64(len(cc.PosTable)))
	for _, pos := range cc.PosTable {
		sink.WriteUint32(pos)
	}
	sink.WriteUint32(cc.MaxBlockChangeView)
}

func decodeChainConfig(src *zerocopy.Source) (*ChainConfig, error) {
	cc := new(ChainConfig)

	var err error
	if cc.Version, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	if cc.View, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	if cc.N, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("n: %w", err)
	}
	if cc.C, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("c: %w", err)
	}

	delays := []*time.Duration{&cc.BlockMsgDelay, &cc.HashMsgDelay, &cc.PeerHandshakeTimeout}
	for _, d := range delays {
		v, err := src.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("delays: %w", err)
		}
		*d = time.Duration(v)
	}

	if cc.Peers, err = decodePeers(src); err != nil {
		return nil, fmt.Errorf("peers: %w", err)
	}

	n, err := src.ReadVarUint()
	if err != nil {
		return nil, fmt.Errorf("pos table: %w", err)
	}
	if n > 0 {
		cc.PosTable = make([]uint32, 0, capHint(n, src))
		for i := uint64(0); i < n; i++ {
			pos, err := src.ReadUint32()
			if err != nil {
				return nil, fmt.Errorf("pos table: %w", err)
			}
			cc.PosTable = append(cc.PosTable, pos)
		}
	}

	if cc.MaxBlockChangeView, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("max block change view: %w", err)
	}
	return cc, nil
}
