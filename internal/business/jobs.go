package business

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/config"
	"github.com/openkcm/implicit-flow/internal/controller"
	"github.com/openkcm/implicit-flow/internal/hostenv"
	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/ui"
)

var errNoSessionChange = errors.New("no session change")

// cliSession is a terminal surface attached to a running serve process.
type cliSession struct {
	term     *ui.Terminal
	renderer *signalRenderer
	ctrl     *controller.Controller
}

func newCLISession(ctx context.Context, host *hostenv.Host, cfg *config.Config, out io.Writer) (*cliSession, error) {
	builder, err := newBuilder(cfg)
	if err != nil {
		return nil, err
	}

	term := ui.NewTerminal(out, cfg.Session.ShowToken)
	renderer := newSignalRenderer(term)
	ctrl := controller.New(host.Store, host.Channel, builder, renderer)

	if err := ctrl.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialising session controller: %w", err)
	}
	renderer.drain()

	return &cliSession{term: term, renderer: renderer, ctrl: ctrl}, nil
}

// request runs action and waits up to wait for the session to be
// re-rendered.
func (s *cliSession) request(ctx context.Context, action string, wait time.Duration) error {
	if err := s.term.Do(ctx, action); err != nil {
		return err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-s.renderer.rendered:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w within %s", errNoSessionChange, wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func withCLISession(ctx context.Context, cfg *config.Config, fn func(context.Context, *cliSession) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	host, err := resolveShared(ctx, cfg)
	if err != nil {
		return err
	}
	defer host.Close()

	sess, err := newCLISession(ctx, host, cfg, os.Stdout)
	if err != nil {
		return err
	}

	return fn(ctx, sess)
}

// LoginMain asks the serve process for an interactive login and waits for
// the resulting session.
func LoginMain(ctx context.Context, cfg *config.Config, _ []string) error {
	return withCLISession(ctx, cfg, func(ctx context.Context, s *cliSession) error {
		s.term.ShowMessage("Waiting for the login to complete. Run `complete <url>` with the address the browser ends up on.")
		return s.request(ctx, "login", cfg.Refresh.Wait)
	})
}

// RefreshMain asks the serve process for a silent refresh. A refused
// refresh is not an error.
func RefreshMain(ctx context.Context, cfg *config.Config, _ []string) error {
	return withCLISession(ctx, cfg, func(ctx context.Context, s *cliSession) error {
		err := s.request(ctx, "refresh", cfg.Refresh.Wait)
		if errors.Is(err, errNoSessionChange) {
			s.term.ShowMessage("Session unchanged, the provider may require an interactive login.")
			return nil
		}

		return err
	})
}

// LogoutMain clears the stored session. Other surfaces are not notified.
func LogoutMain(ctx context.Context, cfg *config.Config, _ []string) error {
	return withCLISession(ctx, cfg, func(ctx context.Context, s *cliSession) error {
		return s.term.Do(ctx, "logout")
	})
}

// StatusMain renders the stored session.
func StatusMain(ctx context.Context, cfg *config.Config, _ []string) error {
	return withCLISession(ctx, cfg, func(context.Context, *cliSession) error {
		return nil
	})
}

// CompleteMain hands the URL a browser ended up on to the serve process.
func CompleteMain(ctx context.Context, cfg *config.Config, args []string) error {
	host, err := resolveShared(ctx, cfg)
	if err != nil {
		return err
	}
	defer host.Close()

	return complete(ctx, host.Channel, args[0])
}

func complete(ctx context.Context, channel messaging.Channel, rawURL string) error {
	err := channel.Send(ctx, messaging.Message{Operation: messaging.OpNavigationFailed, URL: rawURL})
	if err != nil {
		return fmt.Errorf("sending navigation failure: %w", err)
	}

	slogctx.Debug(ctx, "Handed redirect to the host")

	return nil
}

// ConfigMain prints the effective configuration.
func ConfigMain(_ context.Context, cfg *config.Config, _ []string) error {
	return writeConfig(os.Stdout, cfg)
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}

	_, err = w.Write(out)

	return err
}
