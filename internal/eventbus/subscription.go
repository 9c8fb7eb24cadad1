package eventbus

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/crosschain/headersync/types"
)

var (
	// ErrUnsubscribed is returned by Err when a client unsubscribes.
	ErrUnsubscribed = errors.New("client unsubscribed")

	// ErrOutOfCapacity is returned by Err when a client is not pulling messages
	// fast enough. Note the client's subscription will be terminated.
	ErrOutOfCapacity = errors.New("client is not pulling messages fast enough")
)

// A Subscription receives the headers synced for one client. It consists of
// three things:
// 1) channel onto which events are published
// 2) channel which is closed if a client is too slow or choose to unsubscribe
// 3) err indicating the reason for (2)
type Subscription struct {
	id       string
	clientID string
	chainID  *uint64
	blocking bool
	out      chan types.EventDataHeaderSynced

	canceled chan struct{}
	mtx      sync.RWMutex
	err      error
}

func newSubscription(args SubscribeArgs) *Subscription {
	return &Subscription{
		id:       uuid.NewString(),
		clientID: args.ClientID,
		chainID:  args.ChainID,
		blocking: args.Blocking,
		out:      make(chan types.EventDataHeaderSynced, args.Limit),
		canceled: make(chan struct{}),
	}
}

func (s *Subscription) ID() string { return s.id }

// Out returns a channel onto which events are published. Unsubscribing does
// not close the channel to avoid clients from receiving a zero event.
func (s *Subscription) Out() <-chan types.EventDataHeaderSynced { return s.out }

// Canceled returns a channel that's closed when the subscription is
// terminated and supposed to be used in a select statement.
func (s *Subscription) Canceled() <-chan struct{} { return s.canceled }

// Err returns nil if the channel returned by Canceled is not yet closed.
// If the channel is closed, Err returns a non-nil error explaining why:
//   - ErrUnsubscribed if the subscriber choose to unsubscribe,
//   - ErrOutOfCapacity if the subscriber is not pulling messages fast enough
//   and the channel returned by Out became full,
// After Err returns a non-nil error, successive calls to Err return the same
// error.
func (s *Subscription) Err() error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.err
}

// Next blocks until an event is available, the subscription is canceled or
// ctx is done. Events already buffered are delivered before cancellation is
// reported.
func (s *Subscription) Next(ctx context.Context) (types.EventDataHeaderSynced, error) {
	select {
	case e := <-s.out:
		return e, nil
	default:
	}

	select {
	case e := <-s.out:
		return e, nil
	case <-s.canceled:
		return types.EventDataHeaderSynced{}, s.Err()
	case <-ctx.Done():
		return types.EventDataHeaderSynced{}, ctx.Err()
	}
}

func (s *Subscription) matches(data types.EventDataHeaderSynced) bool {
	return s.chainID == nil || *s.chainID == data.ChainID
}

func (s *Subscription) cancel(err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.err != nil {
		return
	}
	s.err = err
	close(s.canceled)
}
