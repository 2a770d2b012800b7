package business

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/authorize"
	"github.com/openkcm/implicit-flow/internal/config"
	"github.com/openkcm/implicit-flow/internal/controller"
	"github.com/openkcm/implicit-flow/internal/hostenv"
	"github.com/openkcm/implicit-flow/internal/interceptor"
	"github.com/openkcm/implicit-flow/internal/navigation"
	"github.com/openkcm/implicit-flow/internal/random"
	"github.com/openkcm/implicit-flow/internal/serviceerr"
	"github.com/openkcm/implicit-flow/internal/ui"
)

// ServeMain hosts the redirect interceptor until ctx is done. With a
// process local backend it also runs an interactive console on stdin.
func ServeMain(ctx context.Context, cfg *config.Config, _ []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	host, err := hostenv.Resolve(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolving host environment: %w", err)
	}
	defer host.Close()

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	browser := navigation.NewBrowserSurface(nil)
	hidden, err := navigation.NewHTTPSurface()
	if err != nil {
		return fmt.Errorf("creating hidden navigation surface: %w", err)
	}
	defer hidden.Shutdown()

	icpt, err := interceptor.New(
		cfg.Auth.RedirectURI,
		host.Store,
		navigation.NewRouter(ctx, browser, hidden),
		host.Channel,
		interceptor.WithDenialHandler(logDenial),
	)
	if err != nil {
		return fmt.Errorf("creating redirect interceptor: %w", err)
	}

	var renderer controller.Renderer = logRenderer{ctx: ctx}
	term := ui.NewTerminal(os.Stdout, cfg.Session.ShowToken)
	if !host.Shared {
		renderer = term
	}

	ctrl := controller.New(host.Store, host.Channel, builder, renderer)

	// errChan is used to capture the first error and stop the other loops.
	errChan := make(chan error, 3)

	var wg sync.WaitGroup

	wg.Go(func() {
		errChan <- icpt.Serve(ctx)
	})

	if err := ctrl.Initialize(ctx); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("initialising session controller: %w", err)
	}

	if cfg.Refresh.Interval > 0 {
		wg.Go(func() {
			errChan <- startRefresher(ctx, ctrl, cfg.Refresh.Interval)
		})
	}

	if !host.Shared {
		lines, closeLines, err := consoleLines(ctx)
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		defer closeLines()

		wg.Go(func() {
			errChan <- runConsole(ctx, lines, term, browser)
		})
	}

	slogctx.Info(ctx, "Serving implicit flow", "redirectURI", cfg.Auth.RedirectURI, "shared", host.Shared)

	if err := <-errChan; err != nil {
		slogctx.Error(ctx, "Shutting down", "error", err)
	}
	cancel()

	wg.Wait()

	return nil
}

func startRefresher(ctx context.Context, ctrl *controller.Controller, interval time.Duration) error {
	c := time.Tick(interval)
	for {
		select {
		case <-c:
			slogctx.Info(ctx, "Triggering silent refresh")
			if err := ctrl.OnRefresh(ctx); err != nil {
				slogctx.Error(ctx, "Failed to request refresh", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func logDenial(ctx context.Context, d interceptor.Denial) {
	err := d.Err()
	slogctx.Warn(ctx, "Provider denied the request", "error", err.Error(), "interactive", err.Interactive())
}

func newBuilder(cfg *config.Config) (*authorize.Builder, error) {
	clientID, err := config.ClientID(cfg.Auth)
	if err != nil {
		return nil, err
	}

	var gen random.Generator = random.Source{}
	if cfg.Auth.LegacyFixedState {
		gen = random.LegacyFixed //nolint:staticcheck
	}

	return authorize.NewBuilder(authorize.Config{
		Authority:   cfg.Auth.Authority,
		Tenant:      cfg.Auth.Tenant,
		ClientID:    clientID,
		Scopes:      cfg.Auth.Scopes,
		RedirectURI: cfg.Auth.RedirectURI,
	}, gen), nil
}

// resolveShared resolves a host whose session other processes can observe.
// Commands that only talk to a running serve process need one.
func resolveShared(ctx context.Context, cfg *config.Config) (*hostenv.Host, error) {
	host, err := hostenv.Resolve(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving host environment: %w", err)
	}

	if !host.Shared {
		host.Close()
		return nil, errors.Join(serviceerr.ErrInvalidConfig,
			fmt.Errorf("backend %q is local to the serve process, use its console instead", cfg.Session.Backend))
	}

	return host, nil
}
