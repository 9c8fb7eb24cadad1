package types

// EventDataHeaderSynced is published once a header has been verified and
// stored.
type EventDataHeaderSynced struct {
	ChainID     uint64  `json:"chain_id"`
	Height      uint32  `json:"height"`
	Hash        Hash    `json:"hash"`
	Genesis     bool    `json:"genesis"`
	EpochChange bool    `json:"epoch_change"`
	Header      *Header `json:"header"`
}
