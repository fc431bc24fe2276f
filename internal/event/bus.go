package event

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultSubscriberBufferSize = 128

type BusOptions struct {
	Name                 string
	SubscriberBufferSize int
	MaxSubscribers       int
	HistorySize          int
}

// Bus fans events out to subscribers. Delivery is best effort: a subscriber
// whose channel is full loses the event rather than blocking the publisher.
type Bus[T any] struct {
	mu           sync.Mutex
	subscribers  map[uint64]subscription[T]
	nextSubID    uint64
	closed       bool
	closeOnce    sync.Once
	options      BusOptions
	published    atomic.Int64
	dropped      atomic.Int64
	history      []T
	historyNext  int
	historyCount int
}

type subscription[T any] struct {
	id     uint64
	ch     chan T
	filter func(T) bool
}

func NewBus[T any](ctx context.Context, opts BusOptions) *Bus[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.SubscriberBufferSize <= 0 {
		opts.SubscriberBufferSize = defaultSubscriberBufferSize
	}
	bus := &Bus[T]{
		subscribers: make(map[uint64]subscription[T]),
		options:     opts,
	}
	if opts.HistorySize > 0 {
		bus.history = make([]T, opts.HistorySize)
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			bus.Close()
		}()
	}
	return bus
}

func (bus *Bus[T]) Subscribe() (<-chan T, func()) {
	return bus.SubscribeFiltered(nil)
}

func (bus *Bus[T]) SubscribeFiltered(filter func(T) bool) (<-chan T, func()) {
	if bus == nil {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan T, bus.options.SubscriberBufferSize)

	bus.mu.Lock()
	if bus.closed {
		bus.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if bus.options.MaxSubscribers > 0 && len(bus.subscribers) >= bus.options.MaxSubscribers {
		bus.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	bus.nextSubID++
	id := bus.nextSubID
	bus.subscribers[id] = subscription[T]{id: id, ch: ch, filter: filter}
	bus.mu.Unlock()

	cancel := func() {
		bus.removeSubscriber(id)
	}
	return ch, cancel
}

func (bus *Bus[T]) Publish(event T) {
	if bus == nil {
		return
	}

	bus.mu.Lock()
	if bus.closed {
		bus.mu.Unlock()
		return
	}
	bus.appendHistoryLocked(event)
	subscribers := make([]subscription[T], 0, len(bus.subscribers))
	for _, sub := range bus.subscribers {
		subscribers = append(subscribers, sub)
	}
	bus.mu.Unlock()

	bus.published.Add(1)
	for _, sub := range subscribers {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		if !bus.safeSend(sub, event) {
			bus.dropped.Add(1)
		}
	}
}

// safeSend delivers the event unless the subscriber's buffer is full. The
// channel may be closed by a concurrent cancel between the subscriber
// snapshot and the send; that subscriber is removed instead of panicking
// the publisher.
func (bus *Bus[T]) safeSend(sub subscription[T], event T) (delivered bool) {
	defer func() {
		if recover() != nil {
			bus.removeSubscriber(sub.id)
			delivered = false
		}
	}()
	select {
	case sub.ch <- event:
		return true
	default:
		return false
	}
}

func (bus *Bus[T]) Close() {
	if bus == nil {
		return
	}
	bus.closeOnce.Do(func() {
		bus.mu.Lock()
		bus.closed = true
		subscribers := bus.subscribers
		bus.subscribers = make(map[uint64]subscription[T])
		bus.mu.Unlock()

		for _, sub := range subscribers {
			close(sub.ch)
		}
	})
}

// History returns a copy of the retained events in publication order.
func (bus *Bus[T]) History() []T {
	if bus == nil {
		return nil
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.historyCount == 0 {
		return nil
	}
	events := make([]T, 0, bus.historyCount)
	start := bus.historyNext - bus.historyCount
	if start < 0 {
		start += len(bus.history)
	}
	for index := 0; index < bus.historyCount; index++ {
		events = append(events, bus.history[(start+index)%len(bus.history)])
	}
	return events
}

// Stats reports published and dropped event counts.
func (bus *Bus[T]) Stats() (published, dropped int64) {
	if bus == nil {
		return 0, 0
	}
	return bus.published.Load(), bus.dropped.Load()
}

func (bus *Bus[T]) SubscriberCount() int {
	if bus == nil {
		return 0
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return len(bus.subscribers)
}

func (bus *Bus[T]) appendHistoryLocked(event T) {
	if len(bus.history) == 0 {
		return
	}
	bus.history[bus.historyNext] = event
	bus.historyNext = (bus.historyNext + 1) % len(bus.history)
	if bus.historyCount < len(bus.history) {
		bus.historyCount++
	}
}

func (bus *Bus[T]) removeSubscriber(id uint64) {
	if bus == nil {
		return
	}
	var ch chan T
	bus.mu.Lock()
	if existing, ok := bus.subscribers[id]; ok {
		delete(bus.subscribers, id)
		ch = existing.ch
	}
	bus.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}
