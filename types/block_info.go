package types

import (
	"fmt"

	"github.com/crosschain/headersync/libs/zerocopy"
)

// VbftBlockInfo is the consensus payload of a header. Only epoch-changing
// headers carry a NewChainConfig.
type VbftBlockInfo struct {
	Proposer           uint32       `json:"proposer"`
	VrfValue           []byte       `json:"vrf_value"`
	VrfProof           []byte       `json:"vrf_proof"`
	LastConfigBlockNum uint32       `json:"last_config_block_num"`
	NewChainConfig     *ChainConfig `json:"new_chain_config,omitempty"`
}

func (bi *VbftBlockInfo) encode(sink *zerocopy.Sink) {
	sink.WriteUint32(bi.Proposer)
	sink.WriteVarBytes(bi.VrfValue)
	sink.WriteVarBytes(bi.VrfProof)
	sink.WriteUint32(bi.LastConfigBlockNum)
	if bi.NewChainConfig != nil {
		sink.WriteBool(true)
		bi.NewChainConfig.encode(sink)
	} else {
		sink.WriteBool(false)
	}
}

func decodeVbftBlockInfo(src *zerocopy.Source) (*VbftBlockInfo, error) {
	bi := new(VbftBlockInfo)

	var err error
	if bi.Proposer, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("proposer: %w", err)
	}
	if bi.VrfValue, err = readBytesCopy(src); err != nil {
		return nil, fmt.Errorf("vrf value: %w", err)
	}
	if bi.VrfProof, err = readBytesCopy(src); err != nil {
		return nil, fmt.Errorf("vrf proof: %w", err)
	}
	if bi.LastConfigBlockNum, err = src.ReadUint32(); err != nil {
		return nil, fmt.Errorf("last config block num: %w", err)
	}

	present, err := src.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("new chain config: %w", err)
	}
	if present {
		if bi.NewChainConfig, err = decodeChainConfig(src); err != nil {
			return nil, fmt.Errorf("new chain config: %w", err)
		}
	}
	return bi, nil
}

// readBytesCopy reads var bytes into a fresh slice; empty reads as nil.
func readBytesCopy(src *zerocopy.Source) ([]byte, error) {
	bz, err := src.ReadVarBytes()
	if err != nil || len(bz) == 0 {
		return nil, err
	}
	return append([]byte(nil), bz...), nil
}
