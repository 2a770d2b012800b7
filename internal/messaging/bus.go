package messaging

import (
	"context"
	"sync"

	slogctx "github.com/veqryn/slog-context"
)

const subscriberBuffer = 16

// Bus is an in-process Channel.
type Bus struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch chan Message
}

var _ Channel = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{})}
}

// Send never blocks on a slow subscriber; a full subscriber drops the message.
func (b *Bus) Send(ctx context.Context, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subs {
		select {
		case sub.ch <- msg:
		default:
			slogctx.Warn(ctx, "Dropping message for slow subscriber", "operation", msg.Operation)
		}
	}

	return nil
}

func (b *Bus) Subscribe(ctx context.Context) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscriber{ch: make(chan Message, subscriberBuffer)}
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.unsubscribe(sub)
	}()

	return sub.ch, nil
}

func (b *Bus) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Close closes every subscription. Further Send and Subscribe calls fail.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
