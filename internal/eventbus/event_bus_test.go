package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/crosschain/headersync/internal/eventbus"
	"github.com/crosschain/headersync/internal/test/factory"
	"github.com/crosschain/headersync/libs/log"
	"github.com/crosschain/headersync/light"
	dbs "github.com/crosschain/headersync/light/store/db"
	"github.com/crosschain/headersync/types"
)

func event(chainID uint64, height uint32) types.EventDataHeaderSynced {
	return types.EventDataHeaderSynced{ChainID: chainID, Height: height}
}

func TestEventBusPublish(t *testing.T) {
	bus := eventbus.NewDefault(log.TestingLogger())

	chain := uint64(2)
	all, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "all"})
	require.NoError(t, err)
	filtered, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "filtered", ChainID: &chain})
	require.NoError(t, err)
	assert.Equal(t, 2, bus.NumClients())

	require.NoError(t, bus.PublishHeaderSynced(event(1, 10)))
	require.NoError(t, bus.PublishHeaderSynced(event(2, 11)))

	ctx := context.Background()
	e, err := all.Next(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, e.Height)
	e, err = all.Next(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 11, e.Height)

	e, err = filtered.Next(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 11, e.Height)
	assert.Empty(t, filtered.Out())
}

func TestEventBusSlowSubscriber(t *testing.T) {
	bus := eventbus.NewDefault(log.TestingLogger())

	slow, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "slow", Limit: 1})
	require.NoError(t, err)

	require.NoError(t, bus.PublishHeaderSynced(event(1, 1)))
	require.NoError(t, bus.PublishHeaderSynced(event(1, 2)))

	<-slow.Canceled()
	assert.ErrorIs(t, slow.Err(), eventbus.ErrOutOfCapacity)
	assert.Equal(t, 0, bus.NumClients())

	// the buffered event is still delivered
	e, err := slow.Next(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.Height)
	_, err = slow.Next(context.Background())
	assert.ErrorIs(t, err, eventbus.ErrOutOfCapacity)
}

func TestEventBusBlockingSubscriber(t *testing.T) {
	defer leaktest.Check(t)()

	bus := eventbus.NewDefault(log.TestingLogger())
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "printer", Limit: 1, Blocking: true})
	require.NoError(t, err)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for h := uint32(1); h <= 5; h++ {
			_ = bus.PublishHeaderSynced(event(1, h))
		}
	}()

	ctx := context.Background()
	for h := uint32(1); h <= 5; h++ {
		time.Sleep(time.Millisecond)
		e, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, h, e.Height)
	}
	<-published
	assert.NoError(t, sub.Err())
	assert.Equal(t, 1, bus.NumClients())
}

func TestEventBusBlockingSubscriberUnsubscribe(t *testing.T) {
	defer leaktest.Check(t)()

	bus := eventbus.NewDefault(log.TestingLogger())
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "printer", Limit: 1, Blocking: true})
	require.NoError(t, err)
	require.NoError(t, bus.PublishHeaderSynced(event(1, 1)))

	published := make(chan struct{})
	go func() {
		defer close(published)
		_ = bus.PublishHeaderSynced(event(1, 2))
	}()

	select {
	case <-published:
		t.Fatal("publish did not wait for a full blocking subscriber")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, bus.Unsubscribe(sub.ID()))
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish still blocked after unsubscribe")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	defer leaktest.Check(t)()

	bus := eventbus.NewDefault(log.TestingLogger())
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "client"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		done <- err
	}()

	require.NoError(t, bus.Unsubscribe(sub.ID()))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, eventbus.ErrUnsubscribed)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after unsubscribe")
	}

	assert.ErrorIs(t, bus.Unsubscribe(sub.ID()), eventbus.ErrSubscriptionNotFound)
	assert.ErrorIs(t, bus.UnsubscribeAll("client"), eventbus.ErrSubscriptionNotFound)
}

func TestEventBusUnsubscribeAll(t *testing.T) {
	bus := eventbus.NewDefault(log.TestingLogger())
	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "client"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, bus.NumClients())
	require.NoError(t, bus.UnsubscribeAll("client"))
	assert.Equal(t, 0, bus.NumClients())

	_, err := bus.Subscribe(eventbus.SubscribeArgs{})
	assert.Error(t, err)
}

func TestEventBusNextContext(t *testing.T) {
	defer leaktest.Check(t)()

	bus := eventbus.NewDefault(log.TestingLogger())
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "client"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventBusWithClient(t *testing.T) {
	defer leaktest.Check(t)()

	bus := eventbus.NewDefault(log.TestingLogger())
	sub, err := bus.Subscribe(eventbus.SubscribeArgs{ClientID: "relayer"})
	require.NoError(t, err)

	signers := factory.Signers("bus", 4)
	c := light.NewClient(dbs.New(dbm.NewMemDB()), light.EventBus(bus))
	require.NoError(t, c.SyncGenesisHeader(factory.GenesisHeader(factory.DefaultChainID, 0, signers)))
	h := factory.SignedHeader(factory.DefaultChainID, 1, signers)
	require.NoError(t, c.SyncBlockHeader(h))

	ctx := context.Background()
	e, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.True(t, e.Genesis)

	e, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.Height)
	assert.Equal(t, h.BlockHash, e.Hash)
	assert.Equal(t, h, e.Header)
}
