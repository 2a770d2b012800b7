// Package hostenv resolves the capabilities of the environment the session
// coordinator runs in: the key-value storage behind the session store and
// the message channel between surfaces and the interceptor.
package hostenv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/config"
	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/serviceerr"
	"github.com/openkcm/implicit-flow/internal/session"

	kvmemory "github.com/openkcm/implicit-flow/internal/kv/memory"
	kvvalkey "github.com/openkcm/implicit-flow/internal/kv/valkey"
	messagingvalkey "github.com/openkcm/implicit-flow/internal/messaging/valkey"
)

// Host bundles the resolved capabilities. Close releases them.
type Host struct {
	Store   *session.Store
	Channel messaging.Channel
	// Shared reports whether the capabilities outlive the process, so that
	// separate processes observe the same session.
	Shared bool

	closeFn func()
}

func (h *Host) Close() {
	if h.closeFn != nil {
		h.closeFn()
	}
}

// Resolve builds the host capabilities for the configured backend.
func Resolve(ctx context.Context, cfg *config.Config) (*Host, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory, "":
		bus := messaging.NewBus()
		slogctx.Debug(ctx, "Using in-process session backend")

		return &Host{
			Store:   session.NewStore(kvmemory.NewStore()),
			Channel: bus,
			closeFn: bus.Close,
		}, nil
	case config.BackendValKey:
		client, err := valkeyClientFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		slogctx.Debug(ctx, "Using valkey session backend", "prefix", cfg.ValKey.Prefix, "channel", cfg.ValKey.Channel)

		return FromValKey(client, cfg.ValKey), nil
	default:
		return nil, fmt.Errorf("%w: backend %q", serviceerr.ErrUnknownHost, cfg.Session.Backend)
	}
}

// FromValKey wires the session store and message channel onto an existing
// client. The client is closed with the host.
func FromValKey(client valkey.Client, cfg config.ValKey) *Host {
	return &Host{
		Store:   session.NewStore(kvvalkey.NewStore(client, cfg.Prefix)),
		Channel: messagingvalkey.NewChannel(client, cfg.Channel),
		Shared:  true,
		closeFn: client.Close,
	}
}

func valkeyClientFromConfig(cfg *config.Config) (valkey.Client, error) {
	opts, err := config.MakeValKeyOptions(cfg.ValKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load valkey options: %w", err)
	}

	valkeyOpts := valkey.ClientOption{
		InitAddress: []string{opts.Address},
		Username:    opts.User,
		Password:    opts.Password,
	}

	if cfg.ValKey.SecretRef.Type == commoncfg.MTLSSecretType {
		tlsConfig, err := commoncfg.LoadMTLSConfig(&cfg.ValKey.SecretRef.MTLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load valkey mTLS config from secret ref: %w", err)
		}

		valkeyOpts.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, errors.Join(serviceerr.ErrStorage, fmt.Errorf("creating a new valkey client: %w", err))
	}

	return client, nil
}

// ValKeyPinger checks that the configured valkey server answers. The client
// is created on the first ping, so an unreachable server fails the check
// instead of the caller.
type ValKeyPinger struct {
	cfg *config.Config

	mu     sync.Mutex
	client valkey.Client
}

func NewValKeyPinger(cfg *config.Config) *ValKeyPinger {
	return &ValKeyPinger{cfg: cfg}
}

func (p *ValKeyPinger) Ping(ctx context.Context) error {
	client, err := p.connect()
	if err != nil {
		return err
	}

	return Ping(ctx, client)
}

func (p *ValKeyPinger) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

func (p *ValKeyPinger) connect() (valkey.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		client, err := valkeyClientFromConfig(p.cfg)
		if err != nil {
			return nil, err
		}
		p.client = client
	}

	return p.client, nil
}

// Ping sends a PING to the server behind client.
func Ping(ctx context.Context, client valkey.Client) error {
	err := client.Do(ctx, client.B().Ping().Build()).Error()
	if err != nil {
		return errors.Join(serviceerr.ErrStorage, fmt.Errorf("pinging valkey: %w", err))
	}

	return nil
}
