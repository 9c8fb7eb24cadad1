package light

import (
	"errors"
	"fmt"

	"github.com/crosschain/headersync/crypto/multisig"
	"github.com/crosschain/headersync/types"
)

var (
	// ErrAlreadyInitialized means a genesis header has already been synced.
	ErrAlreadyInitialized = errors.New("genesis header already initialized")

	// ErrInvalidGenesisHeader means the genesis header carries a consensus
	// payload.
	ErrInvalidGenesisHeader = errors.New("invalid genesis header: consensus payload must be empty")

	// ErrEmptyPeerList means an epoch change (or a genesis header) supplies
	// no consensus peers.
	ErrEmptyPeerList = errors.New("consensus peer list is empty")

	// ErrInsufficientSignatures means fewer signatures than bookkeepers were
	// supplied.
	ErrInsufficientSignatures = multisig.ErrNotEnoughSignatures

	// ErrSignatureMismatch means some signature could not be paired with a
	// distinct bookkeeper it validates against.
	ErrSignatureMismatch = multisig.ErrMultiSignatureMismatch
)

// ErrNoActiveConsensus means no peer set is known for the chain at the
// given height: the chain has no genesis header or the height precedes the
// latest key height.
type ErrNoActiveConsensus struct {
	ChainID uint64
	Height  uint32
}

func (e ErrNoActiveConsensus) Error() string {
	return fmt.Sprintf("no active consensus for chain %d at height %d", e.ChainID, e.Height)
}

// ErrInsufficientBookkeepers means less than 2/3 of the active peers are
// declared as bookkeepers.
type ErrInsufficientBookkeepers struct {
	Bookkeepers int
	Peers       int
}

func (e ErrInsufficientBookkeepers) Error() string {
	return fmt.Sprintf("insufficient bookkeepers: %d of %d peers, need at least 2/3", e.Bookkeepers, e.Peers)
}

// ErrUnknownSigner means a bookkeeper is not a member of the active peer
// set.
type ErrUnknownSigner struct {
	Index int
	ID    string
}

func (e ErrUnknownSigner) Error() string {
	return fmt.Sprintf("bookkeeper #%d (%s) is not a consensus peer", e.Index, e.ID)
}

// ErrDuplicateBookkeeper means the same key is declared more than once.
type ErrDuplicateBookkeeper struct {
	ID string
}

func (e ErrDuplicateBookkeeper) Error() string {
	return fmt.Sprintf("duplicate bookkeeper %s", e.ID)
}

// ErrBlockHashMismatch means the declared block hash differs from the
// computed one.
type ErrBlockHashMismatch struct {
	Declared types.Hash
	Computed types.Hash
}

func (e ErrBlockHashMismatch) Error() string {
	return fmt.Sprintf("declared block hash %v does not match computed %v", e.Declared, e.Computed)
}

// ErrInvalidHeader means the header failed its stateless checks.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

// Unwrap returns underlying reason.
func (e ErrInvalidHeader) Unwrap() error {
	return e.Reason
}

// rejectReason maps a sync error to a short metrics label.
func rejectReason(err error) string {
	var (
		noConsensus  ErrNoActiveConsensus
		insufficient ErrInsufficientBookkeepers
		unknown      ErrUnknownSigner
		duplicate    ErrDuplicateBookkeeper
		hashMismatch ErrBlockHashMismatch
		invalid      ErrInvalidHeader
	)
	switch {
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrInvalidGenesisHeader):
		return "invalid_genesis"
	case errors.Is(err, ErrEmptyPeerList):
		return "empty_peer_list"
	case errors.Is(err, ErrInsufficientSignatures):
		return "insufficient_signatures"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.As(err, &noConsensus):
		return "no_active_consensus"
	case errors.As(err, &insufficient):
		return "insufficient_bookkeepers"
	case errors.As(err, &unknown):
		return "unknown_signer"
	case errors.As(err, &duplicate):
		return "duplicate_bookkeeper"
	case errors.As(err, &hashMismatch):
		return "block_hash_mismatch"
	case errors.As(err, &invalid):
		return "invalid_header"
	default:
		return "internal"
	}
}
