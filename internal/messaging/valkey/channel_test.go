package messagingvalkey_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/implicit-flow/internal/dbtest/valkeytest"
	"github.com/openkcm/implicit-flow/internal/messaging"
	messagingvalkey "github.com/openkcm/implicit-flow/internal/messaging/valkey"
)

func TestChannel_SendSubscribe(t *testing.T) {
	client := valkeytest.Start(t)
	ctx := t.Context()

	host := messagingvalkey.NewChannel(client, "implicit-flow")
	surface := messagingvalkey.NewChannel(client, "implicit-flow")

	hostCh, err := host.Subscribe(ctx)
	require.NoError(t, err)
	surfaceCh, err := surface.Subscribe(ctx)
	require.NoError(t, err)

	msg := messaging.Message{
		Operation: messaging.OpNavigationFailed,
		URL:       "https://sentinel.local/#id_token=T&state=S",
		Data:      map[string]any{"handle": "h-1"},
	}
	require.NoError(t, surface.Send(ctx, msg))

	for _, ch := range []<-chan messaging.Message{hostCh, surfaceCh} {
		select {
		case got := <-ch:
			assert.Equal(t, msg, got)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestChannel_SubscriptionEndsWithContext(t *testing.T) {
	client := valkeytest.Start(t)
	ctx, cancel := context.WithCancel(t.Context())

	ch, err := messagingvalkey.NewChannel(client, "implicit-flow").Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription was not closed")
	}
}

func TestChannel_IgnoresOtherChannels(t *testing.T) {
	client := valkeytest.Start(t)
	ctx := t.Context()

	ch, err := messagingvalkey.NewChannel(client, "surface-a").Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, messagingvalkey.NewChannel(client, "surface-b").Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn}))

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
