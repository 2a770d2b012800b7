package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/implicit-flow/internal/messaging"
)

func receive(t *testing.T, ch <-chan messaging.Message) messaging.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return messaging.Message{}
	}
}

func TestBus_BroadcastsToAllSubscribers(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()

	first, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	msg := messaging.Message{Operation: messaging.OpLogin, URL: "https://idp.example.com/authorize"}
	require.NoError(t, bus.Send(ctx, msg))

	assert.Equal(t, msg, receive(t, first))
	assert.Equal(t, msg, receive(t, second))
}

func TestBus_SendWithoutSubscribers(t *testing.T) {
	bus := messaging.NewBus()
	require.NoError(t, bus.Send(t.Context(), messaging.Message{Operation: messaging.OpLoggedIn}))
}

func TestBus_UnsubscribeOnContextDone(t *testing.T) {
	bus := messaging.NewBus()
	ctx, cancel := context.WithCancel(t.Context())

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Send(t.Context(), messaging.Message{Operation: messaging.OpLoggedIn}))
}

func TestBus_SlowSubscriberDoesNotBlockSend(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()

	_, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			_ = bus.Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a slow subscriber")
	}
}

func TestBus_Close(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)
	require.ErrorIs(t, bus.Send(ctx, messaging.Message{}), messaging.ErrClosed)
	_, err = bus.Subscribe(ctx)
	require.ErrorIs(t, err, messaging.ErrClosed)
}
