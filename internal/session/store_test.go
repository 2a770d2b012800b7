package session_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/implicit-flow/internal/serviceerr"
	"github.com/openkcm/implicit-flow/internal/session"
	"github.com/openkcm/implicit-flow/internal/session/sessionmock"
)

func TestStore_Read(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   session.Stored
	}{
		{
			name:   "Never logged in",
			values: nil,
			want:   session.Stored{},
		},
		{
			name:   "Full record",
			values: map[string]string{"token": "T", "exp": "E", "state": "S"},
			want: session.Stored{
				Token:      session.Some("T"),
				Expiration: session.Some("E"),
				State:      session.Some("S"),
			},
		},
		{
			name:   "Empty token stays present",
			values: map[string]string{"token": "", "exp": "E"},
			want: session.Stored{
				Token:      session.Some(""),
				Expiration: session.Some("E"),
			},
		},
		{
			name:   "Unknown keys are ignored",
			values: map[string]string{"other": "x", "state": "S"},
			want:   session.Stored{State: session.Some("S")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore(sessionmock.NewInMemKeyValue(sessionmock.WithValues(tt.values)))

			got, err := store.Read(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Exists(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   bool
	}{
		{name: "Empty store", want: false},
		{name: "Token only", values: map[string]string{"token": "T"}, want: false},
		{name: "Expiration only", values: map[string]string{"exp": "E"}, want: false},
		{name: "Empty token", values: map[string]string{"token": "", "exp": "E"}, want: false},
		{name: "Empty expiration", values: map[string]string{"token": "T", "exp": ""}, want: false},
		{name: "Token and expiration", values: map[string]string{"token": "T", "exp": "E"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewStore(sessionmock.NewInMemKeyValue(sessionmock.WithValues(tt.values)))

			got, err := store.Exists(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_WriteReplacesWholeRecord(t *testing.T) {
	kv := sessionmock.NewInMemKeyValue(sessionmock.WithValues(map[string]string{
		"token": "old", "exp": "old-exp", "state": "old-state",
	}))
	store := session.NewStore(kv)

	require.NoError(t, store.Write(t.Context(), "T", "E", "S"))

	assert.Equal(t, map[string]string{"token": "T", "exp": "E", "state": "S"}, kv.Snapshot())
	assert.Equal(t, 1, kv.Writes(), "Write must be a single store call")
}

func TestStore_Clear(t *testing.T) {
	kv := sessionmock.NewInMemKeyValue(sessionmock.WithValues(map[string]string{
		"token": "T", "exp": "E", "state": "S",
	}))
	store := session.NewStore(kv)

	require.NoError(t, store.Clear(t.Context()))
	assert.Equal(t, 1, kv.Writes(), "Clear must be a single store call")

	exists, err := store.Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)

	stored, err := store.Read(t.Context())
	require.NoError(t, err)
	assert.Equal(t, session.Stored{}, stored)

	state, err := store.State(t.Context())
	require.NoError(t, err)
	assert.False(t, state.LoggedIn)
	assert.False(t, state.Token.Present)
	assert.False(t, state.Expiration.Present)
}

func TestStore_Errors(t *testing.T) {
	backendErr := errors.New("backend down")

	t.Run("Read", func(t *testing.T) {
		store := session.NewStore(sessionmock.NewInMemKeyValue(sessionmock.WithGetError(backendErr)))
		_, err := store.Read(t.Context())
		require.ErrorIs(t, err, serviceerr.ErrStorage)
		require.ErrorIs(t, err, backendErr)

		_, err = store.Exists(t.Context())
		require.ErrorIs(t, err, serviceerr.ErrStorage)

		_, err = store.State(t.Context())
		require.ErrorIs(t, err, serviceerr.ErrStorage)
	})

	t.Run("Write", func(t *testing.T) {
		kv := sessionmock.NewInMemKeyValue(sessionmock.WithSetError(backendErr))
		store := session.NewStore(kv)
		err := store.Write(t.Context(), "T", "E", "S")
		require.ErrorIs(t, err, serviceerr.ErrStorage)
		require.ErrorIs(t, err, backendErr)
		assert.Empty(t, kv.Snapshot())
	})

	t.Run("Clear", func(t *testing.T) {
		store := session.NewStore(sessionmock.NewInMemKeyValue(sessionmock.WithRemoveError(backendErr)))
		err := store.Clear(t.Context())
		require.ErrorIs(t, err, serviceerr.ErrStorage)
		require.ErrorIs(t, err, backendErr)
	})
}

func TestStateFrom(t *testing.T) {
	tests := []struct {
		name   string
		stored session.Stored
		want   session.State
	}{
		{
			name:   "Logged in",
			stored: session.Stored{Token: session.Some("T"), Expiration: session.Some("E"), State: session.Some("S")},
			want:   session.State{LoggedIn: true, Token: session.Some("T"), Expiration: session.Some("E")},
		},
		{
			name:   "Empty token is not coerced to valid",
			stored: session.Stored{Token: session.Some(""), Expiration: session.Some("E")},
			want:   session.State{},
		},
		{
			name:   "Nothing stored",
			stored: session.Stored{},
			want:   session.State{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.StateFrom(tt.stored))
		})
	}
}
