package eventbus

import (
	"errors"
	"sync"

	"github.com/crosschain/headersync/libs/log"
	"github.com/crosschain/headersync/light"
	"github.com/crosschain/headersync/types"
)

// DefaultCapacity is the buffer size of a subscription when none is given.
const DefaultCapacity = 100

var (
	// ErrSubscriptionNotFound is returned when a client tries to unsubscribe
	// from a subscription that does not exist.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscribeArgs are the parameters of a subscription.
type SubscribeArgs struct {
	ClientID string
	// ChainID restricts the subscription to one chain; nil receives the
	// headers of every chain.
	ChainID *uint64
	// Limit is the capacity of the subscription buffer.
	Limit int
	// Blocking makes publishing wait for room in the buffer instead of
	// dropping the subscription. A blocking subscriber that stops reading
	// must unsubscribe, or it stalls every publisher.
	Blocking bool
}

// EventBus fans synced headers out to subscribers. Publishing does not wait
// for regular subscribers: one whose buffer is full is dropped with
// ErrOutOfCapacity. Blocking subscribers are waited for until they read or
// unsubscribe.
type EventBus struct {
	logger log.Logger

	mtx  sync.RWMutex
	subs map[string]*Subscription
}

var _ light.EventSink = (*EventBus)(nil)

// NewDefault returns a new event bus.
func NewDefault(l log.Logger) *EventBus {
	return &EventBus{
		logger: l.With("module", "eventbus"),
		subs:   make(map[string]*Subscription),
	}
}

// NumClients returns the number of distinct clients with a subscription.
func (b *EventBus) NumClients() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	clients := make(map[string]struct{})
	for _, s := range b.subs {
		clients[s.clientID] = struct{}{}
	}
	return len(clients)
}

// Subscribe registers a new subscription.
func (b *EventBus) Subscribe(args SubscribeArgs) (*Subscription, error) {
	if args.ClientID == "" {
		return nil, errors.New("empty client id")
	}
	if args.Limit < 0 {
		return nil, errors.New("negative subscription limit")
	}
	if args.Limit == 0 {
		args.Limit = DefaultCapacity
	}

	s := newSubscription(args)

	b.mtx.Lock()
	b.subs[s.id] = s
	b.mtx.Unlock()

	b.logger.Debug("subscribed", "client", args.ClientID, "subscription", s.id)
	return s, nil
}

// Unsubscribe terminates the subscription with the given id.
func (b *EventBus) Unsubscribe(id string) error {
	b.mtx.Lock()
	s, ok := b.subs[id]
	delete(b.subs, id)
	b.mtx.Unlock()

	if !ok {
		return ErrSubscriptionNotFound
	}
	s.cancel(ErrUnsubscribed)
	return nil
}

// UnsubscribeAll terminates every subscription of clientID.
func (b *EventBus) UnsubscribeAll(clientID string) error {
	var removed []*Subscription

	b.mtx.Lock()
	for id, s := range b.subs {
		if s.clientID == clientID {
			removed = append(removed, s)
			delete(b.subs, id)
		}
	}
	b.mtx.Unlock()

	if len(removed) == 0 {
		return ErrSubscriptionNotFound
	}
	for _, s := range removed {
		s.cancel(ErrUnsubscribed)
	}
	return nil
}

// PublishHeaderSynced delivers data to every matching subscription.
func (b *EventBus) PublishHeaderSynced(data types.EventDataHeaderSynced) error {
	var matching []*Subscription

	b.mtx.RLock()
	for _, s := range b.subs {
		if s.matches(data) {
			matching = append(matching, s)
		}
	}
	b.mtx.RUnlock()

	var overloaded []*Subscription
	for _, s := range matching {
		if s.blocking {
			select {
			case s.out <- data:
			case <-s.canceled:
			}
			continue
		}
		select {
		case s.out <- data:
		default:
			overloaded = append(overloaded, s)
		}
	}

	if len(overloaded) == 0 {
		return nil
	}

	b.mtx.Lock()
	for _, s := range overloaded {
		delete(b.subs, s.id)
	}
	b.mtx.Unlock()

	for _, s := range overloaded {
		b.logger.Error("dropping slow subscriber", "client", s.clientID, "subscription", s.id)
		s.cancel(ErrOutOfCapacity)
	}
	return nil
}
