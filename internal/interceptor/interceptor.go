// Package interceptor completes the implicit flow: it watches failed
// navigations for the redirect URI, stores the returned token and tells
// every UI surface about the new session.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-viper/mapstructure/v2"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/navigation"
	"github.com/openkcm/implicit-flow/internal/serviceerr"
	"github.com/openkcm/implicit-flow/internal/session"
)

// ExpirationLayout formats the capture time stored as expiration marker.
const ExpirationLayout = time.RFC3339

// DenialHandler receives provider errors. It is optional; without it a
// denial is only logged at debug level.
type DenialHandler func(ctx context.Context, d Denial)

type Option func(*Interceptor)

func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) { i.now = now }
}

func WithDenialHandler(h DenialHandler) Option {
	return func(i *Interceptor) { i.onDenied = h }
}

type Interceptor struct {
	redirect target
	store    *session.Store
	surface  navigation.Surface
	channel  messaging.Channel
	metrics  *metrics

	now      func() time.Time
	onDenied DenialHandler
}

func New(redirectURI string, store *session.Store, surface navigation.Surface, channel messaging.Channel, opts ...Option) (*Interceptor, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, errors.Join(serviceerr.ErrInvalidConfig, fmt.Errorf("parsing redirect uri: %w", err))
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: redirect uri %q must be absolute", serviceerr.ErrInvalidConfig, redirectURI)
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	i := &Interceptor{
		redirect: targetOf(u),
		store:    store,
		surface:  surface,
		channel:  channel,
		metrics:  m,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}

	return i, nil
}

// Matches reports whether rawURL points at the redirect URI. Query and
// fragment are not compared.
func (i *Interceptor) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return targetOf(u) == i.redirect
}

// Handle runs one redirect attempt for a failed navigation. Only a storage
// failure is returned as error; every other attempt ends in a Result.
func (i *Interceptor) Handle(ctx context.Context, ev navigation.Event) (Result, error) {
	ctx, span := i.metrics.start(ctx, string(ev.Handle))
	defer span.End()

	result, err := i.handle(ctx, ev)
	i.metrics.record(ctx, span, result.Outcome, err)

	return result, err
}

func (i *Interceptor) handle(ctx context.Context, ev navigation.Event) (Result, error) {
	if !i.Matches(ev.URL) {
		return Result{Outcome: OutcomeIgnored}, nil
	}

	ctx = slogctx.With(ctx, "surface", ev.Handle)

	params, ok := ParseFragment(ev.URL)
	if !ok {
		slogctx.Debug(ctx, "Redirect without fragment, abandoning attempt")
		return Result{Outcome: OutcomeAbandoned}, nil
	}

	if code, ok := params["error"]; ok {
		d := Denial{
			Error:       code,
			Description: params["error_description"],
			State:       params["state"],
		}
		slogctx.Debug(ctx, "Provider denied the request", "error", d.Error, "state", d.State)
		if i.onDenied != nil {
			i.onDenied(ctx, d)
		}

		return Result{Outcome: OutcomeDenied, Denial: &d}, nil
	}

	token := params["id_token"]
	if token == "" {
		token = params["access_token"]
	}
	if token == "" {
		slogctx.Debug(ctx, "Redirect carries no token, abandoning attempt")
		return Result{Outcome: OutcomeAbandoned}, nil
	}

	expiration := i.now().Format(ExpirationLayout)
	if err := i.store.Write(ctx, token, expiration, params["state"]); err != nil {
		return Result{Outcome: OutcomeAbandoned}, fmt.Errorf("storing session: %w", err)
	}

	slogctx.Info(ctx, "Session stored", "expiration", expiration)

	if err := i.channel.Send(ctx, messaging.Message{Operation: messaging.OpLoggedIn}); err != nil {
		slogctx.Error(ctx, "Failed to broadcast session change", "error", err)
	}

	if ev.Handle != "" {
		if err := i.surface.Close(ctx, ev.Handle); err != nil {
			slogctx.Warn(ctx, "Failed to close navigation surface", "error", err)
		}
	}

	return Result{Outcome: OutcomeCommitted}, nil
}

// Serve hosts the flow until ctx is done: it opens navigation surfaces for
// login and refresh messages and handles every failed navigation.
func (i *Interceptor) Serve(ctx context.Context) error {
	messages, err := i.channel.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to messages: %w", err)
	}

	events := i.surface.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return messaging.ErrClosed
			}
			i.dispatch(ctx, msg)
		case ev := <-events:
			i.handleLogged(ctx, ev)
		}
	}
}

type navigationFailure struct {
	Handle string `mapstructure:"handle"`
}

func (i *Interceptor) dispatch(ctx context.Context, msg messaging.Message) {
	switch msg.Operation {
	case messaging.OpLogin:
		i.open(ctx, msg.URL, true)
	case messaging.OpRefresh:
		i.open(ctx, msg.URL, false)
	case messaging.OpNavigationFailed:
		var failure navigationFailure
		if err := mapstructure.Decode(msg.Data, &failure); err != nil {
			slogctx.Warn(ctx, "Ignoring malformed navigation failure", "error", err)
			return
		}
		i.handleLogged(ctx, navigation.Event{URL: msg.URL, Handle: navigation.Handle(failure.Handle)})
	case messaging.OpLoggedIn:
	default:
		slogctx.Debug(ctx, "Ignoring message", "operation", msg.Operation)
	}
}

func (i *Interceptor) open(ctx context.Context, rawURL string, visible bool) {
	h, err := i.surface.Open(ctx, rawURL, visible)
	if err != nil {
		slogctx.Error(ctx, "Failed to open navigation surface", "visible", visible, "error", err)
		return
	}

	slogctx.Debug(ctx, "Opened navigation surface", "surface", h, "visible", visible)
}

func (i *Interceptor) handleLogged(ctx context.Context, ev navigation.Event) {
	result, err := i.Handle(ctx, ev)
	if err != nil {
		slogctx.Error(ctx, "Failed to complete login", "error", err)
		return
	}

	slogctx.Debug(ctx, "Handled failed navigation", "outcome", result.Outcome)
}
