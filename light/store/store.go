package store

import (
	"errors"

	"github.com/crosschain/headersync/types"
)

var (
	// ErrHeaderNotFound is returned when a store does not have the
	// requested header.
	ErrHeaderNotFound = errors.New("header not found")

	// ErrPeersNotFound is returned when a store has no consensus peer set at
	// the requested key height.
	ErrPeersNotFound = errors.New("consensus peers not found")
)

// Update is one atomic change to the store: a header plus, when the header
// starts a new epoch, the peer set that becomes active at its height.
type Update struct {
	Header *types.Header

	// Genesis marks the header as the global genesis header. At most one
	// genesis header is ever stored.
	Genesis bool

	// Peers, when non-nil, is written as the consensus peer set at
	// Header.Height and that height is recorded as a key height of the
	// chain.
	Peers []types.PeerConfig
}

// Store is anything that can persistently store remote chain headers and
// their consensus peer sets.
//
// All lookups are keyed by chain id, except the genesis header which is
// global.
type Store interface {
	// GenesisHeader returns the genesis header or ErrHeaderNotFound.
	GenesisHeader() (*types.Header, error)

	// HeaderByHeight returns the header of the chain at height or
	// ErrHeaderNotFound.
	HeaderByHeight(chainID uint64, height uint32) (*types.Header, error)

	// HeaderByHash returns the header of the chain declaring hash or
	// ErrHeaderNotFound.
	HeaderByHash(chainID uint64, hash types.Hash) (*types.Header, error)

	// HasHeader reports whether a header of the chain is stored at height.
	HasHeader(chainID uint64, height uint32) (bool, error)

	// CurrentHeight returns the height of the header of the chain stored
	// last, 0 if nothing is stored.
	CurrentHeight(chainID uint64) (uint32, error)

	// LastKeyHeight returns the most recent key height of the chain. ok is
	// false if the chain has none.
	LastKeyHeight(chainID uint64) (height uint32, ok bool, err error)

	// KeyHeights returns every key height of the chain in ascending order.
	KeyHeights(chainID uint64) ([]uint32, error)

	// ConsensusPeers returns the peer set recorded at keyHeight or
	// ErrPeersNotFound.
	ConsensusPeers(chainID uint64, keyHeight uint32) ([]types.PeerConfig, error)

	// Apply commits u atomically: either every write is visible afterwards
	// or none is.
	Apply(u Update) error
}
