package light

import (
	"errors"

	"github.com/crosschain/headersync/crypto/multisig"
	"github.com/crosschain/headersync/types"
)

// Epoch is the consensus peer set of a chain that is active from KeyHeight
// onwards.
type Epoch struct {
	ChainID   uint64
	KeyHeight uint32
	Peers     []types.PeerConfig
}

// VerifyHeader checks that h is signed by at least 2/3 of the peers of
// epoch:
//
//  1. h belongs to epoch's chain and is not below its key height
//  2. no bookkeeper is declared twice
//  3. len(bookkeepers) * 3 >= len(peers) * 2
//  4. every bookkeeper is a peer of epoch
//  5. with strictBlockHash, h.BlockHash equals h.Hash()
//  6. every signature validates h.Hash() against a distinct bookkeeper
//
// VerifyHeader does not touch any store and may be called concurrently.
func VerifyHeader(h *types.Header, epoch Epoch, strictBlockHash bool) error {
	if h == nil {
		return ErrInvalidHeader{Reason: errors.New("nil header")}
	}
	if err := h.ValidateBasic(); err != nil {
		return ErrInvalidHeader{Reason: err}
	}
	if h.ChainID != epoch.ChainID || h.Height < epoch.KeyHeight || len(epoch.Peers) == 0 {
		return ErrNoActiveConsensus{ChainID: h.ChainID, Height: h.Height}
	}

	if id := h.DuplicateBookkeeper(); id != "" {
		return ErrDuplicateBookkeeper{ID: id}
	}

	if len(h.Bookkeepers)*3 < len(epoch.Peers)*2 {
		return ErrInsufficientBookkeepers{Bookkeepers: len(h.Bookkeepers), Peers: len(epoch.Peers)}
	}

	members := make(map[string]struct{}, len(epoch.Peers))
	for _, p := range epoch.Peers {
		members[p.ID] = struct{}{}
	}
	for i, pk := range h.Bookkeepers {
		id := pk.ID()
		if _, ok := members[id]; !ok {
			return ErrUnknownSigner{Index: i, ID: id}
		}
	}

	hash := h.Hash()
	if strictBlockHash && h.BlockHash != hash {
		return ErrBlockHashMismatch{Declared: h.BlockHash, Computed: hash}
	}

	return multisig.VerifyMultiSignature(hash[:], h.Bookkeepers, len(h.Bookkeepers), h.SigData)
}
