package light

import (
	"errors"
	"strconv"
	"sync"

	"github.com/crosschain/headersync/libs/log"
	"github.com/crosschain/headersync/light/store"
	"github.com/crosschain/headersync/types"
)

// EventSink receives a notification for every header the client stores.
type EventSink interface {
	PublishHeaderSynced(types.EventDataHeaderSynced) error
}

// Option sets a parameter for the light client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics the client reports to.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// StrictBlockHash makes verification reject headers whose declared block
// hash differs from the computed one. Off by default, in which case the
// declared hash is stored and indexed as-is.
func StrictBlockHash(strict bool) Option {
	return func(c *Client) {
		c.strictBlockHash = strict
	}
}

// EventBus sets the sink notified of synced headers.
func EventBus(sink EventSink) Option {
	return func(c *Client) {
		c.eventSink = sink
	}
}

// Client tracks the headers and consensus peer sets of remote VBFT chains.
//
// A chain is uninitialized until the (global) genesis header is synced; from
// then on every header of the chain must be signed by at least 2/3 of the
// peer set active at its height. Headers carrying a new chain config switch
// the active peer set from their height onwards.
//
// Sync calls for the same chain are serialized; different chains proceed in
// parallel.
type Client struct {
	store store.Store

	logger          log.Logger
	metrics         *Metrics
	strictBlockHash bool
	eventSink       EventSink

	genesisMtx sync.Mutex

	chainMtx   sync.Mutex
	chainLocks map[uint64]*sync.Mutex
}

// NewClient returns a client backed by s.
//
// See all Option(s) for the additional configuration.
func NewClient(s store.Store, options ...Option) *Client {
	c := &Client{
		store:      s,
		logger:     log.NewNopLogger(),
		metrics:    NopMetrics(),
		chainLocks: make(map[uint64]*sync.Mutex),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

func (c *Client) lockChain(chainID uint64) func() {
	c.chainMtx.Lock()
	mtx, ok := c.chainLocks[chainID]
	if !ok {
		mtx = new(sync.Mutex)
		c.chainLocks[chainID] = mtx
	}
	c.chainMtx.Unlock()

	mtx.Lock()
	return mtx.Unlock
}

// IsInitialized reports whether a genesis header has been synced.
func (c *Client) IsInitialized() (bool, error) {
	_, err := c.store.GenesisHeader()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrHeaderNotFound):
		return false, nil
	default:
		return false, err
	}
}

// SyncGenesisHeader stores h as the genesis header. h must not carry a
// consensus payload; its bookkeepers become the first consensus peer set
// of its chain, active from h.Height.
func (c *Client) SyncGenesisHeader(h *types.Header) error {
	if h == nil {
		return ErrInvalidHeader{Reason: errors.New("nil header")}
	}

	c.genesisMtx.Lock()
	defer c.genesisMtx.Unlock()
	defer c.lockChain(h.ChainID)()

	err := c.syncGenesisHeader(h)
	if err != nil {
		c.reject(h, err)
		return err
	}

	peers := types.PeersFromKeys(h.Bookkeepers)
	c.accept(h, true, len(peers))
	return nil
}

func (c *Client) syncGenesisHeader(h *types.Header) error {
	initialized, err := c.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}

	if h.ConsensusPayload != nil {
		return ErrInvalidGenesisHeader
	}
	if err := h.ValidateBasic(); err != nil {
		return ErrInvalidHeader{Reason: err}
	}
	if len(h.Bookkeepers) == 0 {
		return ErrEmptyPeerList
	}
	if id := h.DuplicateBookkeeper(); id != "" {
		return ErrDuplicateBookkeeper{ID: id}
	}
	if hash := h.Hash(); c.strictBlockHash && h.BlockHash != hash {
		return ErrBlockHashMismatch{Declared: h.BlockHash, Computed: hash}
	}

	return c.store.Apply(store.Update{
		Header:  h,
		Genesis: true,
		Peers:   types.PeersFromKeys(h.Bookkeepers),
	})
}

// SyncBlockHeader verifies h against the peer set active at its height and
// stores it. If h carries a new chain config, its peers become the active
// peer set from h.Height.
//
// Syncing a height that is already stored is a no-op: the header is neither
// verified nor stored again.
func (c *Client) SyncBlockHeader(h *types.Header) error {
	if h == nil {
		return ErrInvalidHeader{Reason: errors.New("nil header")}
	}

	defer c.lockChain(h.ChainID)()

	exists, err := c.store.HasHeader(h.ChainID, h.Height)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Debug("header already synced", "chain", h.ChainID, "height", h.Height)
		return nil
	}

	newPeers, err := c.syncBlockHeader(h)
	if err != nil {
		c.reject(h, err)
		return err
	}

	c.accept(h, false, newPeers)
	return nil
}

// syncBlockHeader returns the size of the new peer set, 0 if h is not an
// epoch change.
func (c *Client) syncBlockHeader(h *types.Header) (int, error) {
	epoch, err := c.ActiveEpoch(h.ChainID, h.Height)
	if err != nil {
		return 0, err
	}
	if err := VerifyHeader(h, epoch, c.strictBlockHash); err != nil {
		return 0, err
	}

	u := store.Update{Header: h}
	if h.IsEpochChange() {
		peers := h.NewPeers()
		if len(peers) == 0 {
			return 0, ErrEmptyPeerList
		}
		u.Peers = peers
	}

	if err := c.store.Apply(u); err != nil {
		return 0, err
	}
	return len(u.Peers), nil
}

// VerifyHeader checks h against the peer set active at its height without
// storing anything.
func (c *Client) VerifyHeader(h *types.Header) error {
	if h == nil {
		return ErrInvalidHeader{Reason: errors.New("nil header")}
	}
	epoch, err := c.ActiveEpoch(h.ChainID, h.Height)
	if err != nil {
		return err
	}
	return VerifyHeader(h, epoch, c.strictBlockHash)
}

// FindKeyHeight returns the key height of the peer set active at height.
// Only the latest key height of the chain is considered: height must not
// precede it.
func (c *Client) FindKeyHeight(chainID uint64, height uint32) (uint32, error) {
	last, ok, err := c.store.LastKeyHeight(chainID)
	if err != nil {
		return 0, err
	}
	if !ok || height < last {
		return 0, ErrNoActiveConsensus{ChainID: chainID, Height: height}
	}
	return last, nil
}

// ActiveEpoch returns the consensus peer set active at height.
func (c *Client) ActiveEpoch(chainID uint64, height uint32) (Epoch, error) {
	keyHeight, err := c.FindKeyHeight(chainID, height)
	if err != nil {
		return Epoch{}, err
	}
	peers, err := c.store.ConsensusPeers(chainID, keyHeight)
	if err != nil {
		if errors.Is(err, store.ErrPeersNotFound) {
			return Epoch{}, ErrNoActiveConsensus{ChainID: chainID, Height: height}
		}
		return Epoch{}, err
	}
	return Epoch{ChainID: chainID, KeyHeight: keyHeight, Peers: peers}, nil
}

// HeaderByHeight returns the stored header or store.ErrHeaderNotFound.
func (c *Client) HeaderByHeight(chainID uint64, height uint32) (*types.Header, error) {
	return c.store.HeaderByHeight(chainID, height)
}

// HeaderByHash returns the stored header declaring hash or
// store.ErrHeaderNotFound.
func (c *Client) HeaderByHash(chainID uint64, hash types.Hash) (*types.Header, error) {
	return c.store.HeaderByHash(chainID, hash)
}

// CurrentHeight returns the height of the header of the chain stored last,
// 0 if none.
func (c *Client) CurrentHeight(chainID uint64) (uint32, error) {
	return c.store.CurrentHeight(chainID)
}

func (c *Client) reject(h *types.Header, err error) {
	chain := strconv.FormatUint(h.ChainID, 10)
	c.metrics.HeadersRejected.With("chain_id", chain, "reason", rejectReason(err)).Add(1)
	c.logger.Error("rejected header", "chain", h.ChainID, "height", h.Height, "err", err)
}

func (c *Client) accept(h *types.Header, genesis bool, newPeers int) {
	chain := strconv.FormatUint(h.ChainID, 10)
	c.metrics.HeadersSynced.With("chain_id", chain).Add(1)
	if height, err := c.store.CurrentHeight(h.ChainID); err == nil {
		c.metrics.Height.With("chain_id", chain).Set(float64(height))
	}
	if newPeers > 0 {
		if !genesis {
			c.metrics.EpochChanges.With("chain_id", chain).Add(1)
		}
		c.metrics.ConsensusPeers.With("chain_id", chain).Set(float64(newPeers))
	}

	c.logger.Info("synced header",
		"chain", h.ChainID,
		"height", h.Height,
		"hash", h.BlockHash,
		"genesis", genesis,
		"epoch_change", newPeers > 0 && !genesis,
	)

	if c.eventSink == nil {
		return
	}
	event := types.EventDataHeaderSynced{
		ChainID:     h.ChainID,
		Height:      h.Height,
		Hash:        h.BlockHash,
		Genesis:     genesis,
		EpochChange: h.IsEpochChange(),
		Header:      h,
	}
	if err := c.eventSink.PublishHeaderSynced(event); err != nil {
		c.logger.Error("failed to publish header synced event", "chain", h.ChainID, "height", h.Height, "err", err)
	}
}
