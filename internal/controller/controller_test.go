package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/implicit-flow/internal/controller"
	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/serviceerr"
	"github.com/openkcm/implicit-flow/internal/session"
	"github.com/openkcm/implicit-flow/internal/session/sessionmock"
)

type fakeURLs struct{}

func (fakeURLs) LoginURL() string   { return "https://idp/login" }
func (fakeURLs) RefreshURL() string { return "https://idp/refresh" }

type fakeRenderer struct {
	mu       sync.Mutex
	actions  controller.Actions
	rendered []session.State
	messages []string
}

func (r *fakeRenderer) Setup(actions controller.Actions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = actions
}

func (r *fakeRenderer) Render(state session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, state)
}

func (r *fakeRenderer) ShowMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *fakeRenderer) Rendered() []session.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.State(nil), r.rendered...)
}

func (r *fakeRenderer) Last() session.State {
	rendered := r.Rendered()
	if len(rendered) == 0 {
		return session.State{}
	}
	return rendered[len(rendered)-1]
}

var loggedIn = map[string]string{"token": "T", "exp": "E", "state": "S"}

func newController(kv *sessionmock.KeyValue, bus messaging.Channel) (*controller.Controller, *fakeRenderer) {
	r := &fakeRenderer{}
	return controller.New(session.NewStore(kv), bus, fakeURLs{}, r), r
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   session.State
	}{
		{
			name:   "Logged out",
			values: nil,
			want:   session.State{},
		},
		{
			name:   "Logged in",
			values: loggedIn,
			want:   session.State{LoggedIn: true, Token: session.Some("T"), Expiration: session.Some("E")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, r := newController(sessionmock.NewInMemKeyValue(sessionmock.WithValues(tt.values)), messaging.NewBus())

			require.NoError(t, c.Initialize(t.Context()))
			assert.Equal(t, []session.State{tt.want}, r.Rendered())
			assert.NotNil(t, r.actions.Login)
			assert.NotNil(t, r.actions.Refresh)
			assert.NotNil(t, r.actions.Logout)
			assert.NotNil(t, r.actions.Reload)
		})
	}
}

func TestInitialize_StorageFailure(t *testing.T) {
	c, r := newController(sessionmock.NewInMemKeyValue(sessionmock.WithGetError(errors.New("boom"))), messaging.NewBus())

	err := c.Initialize(t.Context())
	require.ErrorIs(t, err, serviceerr.ErrStorage)
	assert.Empty(t, r.Rendered())
	assert.Empty(t, r.messages, "storage failures are left to the surface")
}

func TestInitialize_SubscribeFailure(t *testing.T) {
	bus := messaging.NewBus()
	bus.Close()
	c, _ := newController(sessionmock.NewInMemKeyValue(), bus)

	require.ErrorIs(t, c.Initialize(t.Context()), messaging.ErrClosed)
}

func TestLoginAndRefreshSendRequests(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()
	host, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	kv := sessionmock.NewInMemKeyValue()
	c, r := newController(kv, bus)
	require.NoError(t, c.Initialize(ctx))

	require.NoError(t, r.actions.Login(ctx))
	require.NoError(t, r.actions.Refresh(ctx))

	assert.Equal(t, messaging.Message{Operation: messaging.OpLogin, URL: "https://idp/login"}, <-host)
	assert.Equal(t, messaging.Message{Operation: messaging.OpRefresh, URL: "https://idp/refresh"}, <-host)
	assert.Equal(t, 0, kv.Writes())
	assert.Len(t, r.Rendered(), 1, "requests do not re-render")
}

func TestLogin_SendFailure(t *testing.T) {
	bus := messaging.NewBus()
	c, _ := newController(sessionmock.NewInMemKeyValue(), bus)
	bus.Close()

	require.ErrorIs(t, c.OnLogin(t.Context()), messaging.ErrClosed)
	require.ErrorIs(t, c.OnRefresh(t.Context()), messaging.ErrClosed)
}

func TestLogout(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()
	others, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	kv := sessionmock.NewInMemKeyValue(sessionmock.WithValues(loggedIn))
	c, r := newController(kv, bus)
	require.NoError(t, c.Initialize(ctx))
	require.True(t, r.Last().LoggedIn)

	require.NoError(t, r.actions.Logout(ctx))

	assert.False(t, r.Last().LoggedIn)
	assert.Empty(t, kv.Snapshot())

	select {
	case msg := <-others:
		t.Fatalf("logout must stay local, got %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLogout_StorageFailure(t *testing.T) {
	kv := sessionmock.NewInMemKeyValue(
		sessionmock.WithValues(loggedIn),
		sessionmock.WithRemoveError(errors.New("boom")),
	)
	c, r := newController(kv, messaging.NewBus())

	require.ErrorIs(t, c.OnLogout(t.Context()), serviceerr.ErrStorage)
	assert.Empty(t, r.Rendered())
}

func TestOnSessionChanged_Idempotent(t *testing.T) {
	ctx := t.Context()
	kv := sessionmock.NewInMemKeyValue(sessionmock.WithValues(loggedIn))
	c, r := newController(kv, messaging.NewBus())

	require.NoError(t, c.OnSessionChanged(ctx))
	require.NoError(t, c.OnSessionChanged(ctx))

	rendered := r.Rendered()
	require.Len(t, rendered, 2)
	assert.Equal(t, rendered[0], rendered[1])
	assert.True(t, rendered[0].LoggedIn)
	assert.Equal(t, 0, kv.Writes())
}

func TestBroadcastUpdatesEverySurface(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	bus := messaging.NewBus()
	kv := sessionmock.NewInMemKeyValue()
	store := session.NewStore(kv)

	first, r1 := newController(kv, bus)
	second, r2 := newController(kv, bus)
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, second.Initialize(ctx))

	require.NoError(t, store.Write(ctx, "T", "E", "S"))
	require.NoError(t, bus.Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn}))
	require.NoError(t, bus.Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn}))

	for _, r := range []*fakeRenderer{r1, r2} {
		require.Eventually(t, func() bool { return len(r.Rendered()) == 3 }, time.Second, 10*time.Millisecond)
		rendered := r.Rendered()
		assert.False(t, rendered[0].LoggedIn)
		assert.True(t, rendered[1].LoggedIn)
		assert.Equal(t, rendered[1], rendered[2])
	}
	assert.Equal(t, 1, kv.Writes())
}

func TestIgnoresOtherOperations(t *testing.T) {
	ctx := t.Context()
	bus := messaging.NewBus()
	c, r := newController(sessionmock.NewInMemKeyValue(), bus)
	require.NoError(t, c.Initialize(ctx))

	require.NoError(t, c.OnLogin(ctx))
	require.NoError(t, bus.Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn}))

	require.Eventually(t, func() bool { return len(r.Rendered()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Same(t, bus, c.Channel())
}
