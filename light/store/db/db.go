package db

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/crosschain/headersync/light/store"
	"github.com/crosschain/headersync/types"
)

const (
	prefixGenesis       = int64(11)
	prefixHeader        = int64(12)
	prefixHash          = int64(13)
	prefixCurrentHeight = int64(14)
	prefixPeers         = int64(15)
)

type dbs struct {
	db dbm.DB

	mtx sync.RWMutex
}

var _ store.Store = (*dbs)(nil)

// New returns a Store that wraps any DB.
//
// Headers are stored in their wire encoding, peer sets with
// types.MarshalPeers.
func New(db dbm.DB) store.Store {
	return &dbs{db: db}
}

// GenesisHeader loads the genesis header.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) GenesisHeader() (*types.Header, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.loadHeader(genesisKey())
}

// HeaderByHeight loads the header of chainID at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) HeaderByHeight(chainID uint64, height uint32) (*types.Header, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.loadHeader(headerKey(chainID, height))
}

// HeaderByHash resolves hash through the hash index and loads the header.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) HeaderByHash(chainID uint64, hash types.Hash) (*types.Header, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	bz, err := s.db.Get(hashKey(chainID, hash))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, store.ErrHeaderNotFound
	}
	height, err := unmarshalHeight(bz)
	if err != nil {
		return nil, err
	}
	return s.loadHeader(headerKey(chainID, height))
}

// HasHeader reports whether a header is stored at height.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) HasHeader(chainID uint64, height uint32) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.db.Has(headerKey(chainID, height))
}

// CurrentHeight returns the highest height stored for chainID.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) CurrentHeight(chainID uint64) (uint32, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.currentHeight(chainID)
}

func (s *dbs) currentHeight(chainID uint64) (uint32, error) {
	bz, err := s.db.Get(currentHeightKey(chainID))
	if err != nil {
		return 0, err
	}
	if len(bz) == 0 {
		return 0, nil
	}
	return unmarshalHeight(bz)
}

// LastKeyHeight returns the most recent key height of chainID.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LastKeyHeight(chainID uint64) (uint32, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	start, end := peersRange(chainID)
	itr, err := s.db.ReverseIterator(start, end)
	if err != nil {
		return 0, false, err
	}
	defer itr.Close()

	if !itr.Valid() {
		return 0, false, itr.Error()
	}
	_, height, err := parsePeersKey(itr.Key())
	if err != nil {
		return 0, false, err
	}
	return height, true, nil
}

// KeyHeights returns all key heights of chainID in ascending order.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) KeyHeights(chainID uint64) ([]uint32, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	start, end := peersRange(chainID)
	itr, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var heights []uint32
	for ; itr.Valid(); itr.Next() {
		_, height, err := parsePeersKey(itr.Key())
		if err != nil {
			return nil, err
		}
		heights = append(heights, height)
	}
	return heights, itr.Error()
}

// ConsensusPeers loads the peer set recorded at keyHeight.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) ConsensusPeers(chainID uint64, keyHeight uint32) ([]types.PeerConfig, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	bz, err := s.db.Get(peersKey(chainID, keyHeight))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, store.ErrPeersNotFound
	}
	return types.UnmarshalPeers(bz)
}

// Apply writes the header, its hash index, the current height and the
// optional peer set in a single batch.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Apply(u store.Update) error {
	if u.Header == nil {
		return errors.New("nil header")
	}
	h := u.Header
	bz := h.Marshal()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if u.Genesis {
		ok, err := s.db.Has(genesisKey())
		if err != nil {
			return err
		}
		if ok {
			return errors.New("genesis header already stored")
		}
	}

	b := s.db.NewBatch()
	defer b.Close()

	if u.Genesis {
		if err := b.Set(genesisKey(), bz); err != nil {
			return err
		}
	}
	if err := b.Set(headerKey(h.ChainID, h.Height), bz); err != nil {
		return err
	}
	if err := b.Set(hashKey(h.ChainID, h.BlockHash), marshalHeight(h.Height)); err != nil {
		return err
	}
	if err := b.Set(currentHeightKey(h.ChainID), marshalHeight(h.Height)); err != nil {
		return err
	}
	if u.Peers != nil {
		if err := b.Set(peersKey(h.ChainID, h.Height), types.MarshalPeers(u.Peers)); err != nil {
			return err
		}
	}

	return b.WriteSync()
}

func (s *dbs) loadHeader(key []byte) (*types.Header, error) {
	bz, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, store.ErrHeaderNotFound
	}
	h, err := types.UnmarshalHeader(bz)
	if err != nil {
		return nil, fmt.Errorf("corrupted header: %w", err)
	}
	return h, nil
}

//---------------------------------- KEY ENCODING -----------------------------------------

func genesisKey() []byte {
	key, err := orderedcode.Append(nil, prefixGenesis)
	if err != nil {
		panic(err)
	}
	return key
}

func headerKey(chainID uint64, height uint32) []byte {
	key, err := orderedcode.Append(nil, prefixHeader, chainID, uint64(height))
	if err != nil {
		panic(err)
	}
	return key
}

func hashKey(chainID uint64, hash types.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixHash, chainID, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func currentHeightKey(chainID uint64) []byte {
	key, err := orderedcode.Append(nil, prefixCurrentHeight, chainID)
	if err != nil {
		panic(err)
	}
	return key
}

func peersKey(chainID uint64, keyHeight uint32) []byte {
	key, err := orderedcode.Append(nil, prefixPeers, chainID, uint64(keyHeight))
	if err != nil {
		panic(err)
	}
	return key
}

// peersRange returns the iterator bounds covering every peer set of
// chainID.
func peersRange(chainID uint64) (start, end []byte) {
	start, err := orderedcode.Append(nil, prefixPeers, chainID)
	if err != nil {
		panic(err)
	}
	end, err = orderedcode.Append(nil, prefixPeers, chainID, orderedcode.Infinity)
	if err != nil {
		panic(err)
	}
	return start, end
}

func parsePeersKey(key []byte) (chainID uint64, height uint32, err error) {
	var (
		prefix int64
		h      uint64
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &chainID, &h)
	if err != nil {
		return 0, 0, err
	}
	if len(remaining) != 0 {
		return 0, 0, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixPeers {
		return 0, 0, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixPeers, prefix)
	}
	return chainID, uint32(h), nil
}

func marshalHeight(height uint32) []byte {
	bz := make([]byte, 4)
	binary.BigEndian.PutUint32(bz, height)
	return bz
}

func unmarshalHeight(bz []byte) (uint32, error) {
	if len(bz) != 4 {
		return 0, fmt.Errorf("invalid height encoding of %d bytes", len(bz))
	}
	return binary.BigEndian.Uint32(bz), nil
}
