// Package messagingvalkey carries messages over ValKey pub/sub so that
// surfaces running in other processes reach the redirect host.
package messagingvalkey

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/messaging"
)

const subscriberBuffer = 16

type Channel struct {
	valkey  valkey.Client
	channel string
}

var _ messaging.Channel = (*Channel)(nil)

func NewChannel(valkeyClient valkey.Client, channel string) *Channel {
	return &Channel{
		valkey:  valkeyClient,
		channel: channel,
	}
}

func (c *Channel) Send(ctx context.Context, msg messaging.Message) error {
	bytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	cmd := c.valkey.B().Publish().Channel(c.channel).Message(valkey.BinaryString(bytes)).Build()
	if err := c.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing publish command: %w", err)
	}

	return nil
}

// Subscribe returns once the subscription is confirmed by the server, so
// messages published afterwards are delivered.
func (c *Channel) Subscribe(ctx context.Context) (<-chan messaging.Message, error) {
	conn, release := c.valkey.Dedicate()

	out := make(chan messaging.Message, subscriberBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	wait := conn.SetPubSubHooks(valkey.PubSubHooks{
		OnMessage: func(m valkey.PubSubMessage) {
			var msg messaging.Message
			if err := json.Unmarshal([]byte(m.Message), &msg); err != nil {
				slogctx.Warn(ctx, "Ignoring undecodable message", "channel", m.Channel, "error", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			select {
			case out <- msg:
			default:
				slogctx.Warn(ctx, "Dropping message for slow subscriber", "operation", msg.Operation)
			}
		},
	})

	if err := conn.Do(ctx, conn.B().Subscribe().Channel(c.channel).Build()).Error(); err != nil {
		release()
		return nil, fmt.Errorf("executing subscribe command: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
		case err := <-wait:
			if err != nil {
				slogctx.Error(ctx, "Subscription terminated", "channel", c.channel, "error", err)
			}
		}

		_ = conn.Do(context.Background(), conn.B().Unsubscribe().Channel(c.channel).Build()).Error()
		release()

		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}
