// Package valkeytest starts throwaway ValKey containers for tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
	slogctx "github.com/veqryn/slog-context"
)

const image = "valkey/valkey:8-alpine"

// Start runs a ValKey container for the duration of the test and returns
// a connected client. Container and client are released on cleanup.
func Start(t testing.TB) valkey.Client {
	t.Helper()
	ctx := t.Context()

	valkeyContainer, err := valkeycontainer.Run(ctx, image)
	require.NoError(t, err, "starting ValKey container")

	t.Cleanup(func() {
		if err := valkeyContainer.Terminate(context.Background()); err != nil {
			slogctx.Error(ctx, "Failed to terminate ValKey container", "error", err)
		}
	})

	port, err := valkeyContainer.MappedPort(ctx, nat.Port("6379"))
	require.NoError(t, err, "mapping ValKey port")

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort("localhost", port.Port())},
	})
	require.NoError(t, err, "initialising ValKey client")
	t.Cleanup(client.Close)

	return client
}
