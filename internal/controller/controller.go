// Package controller keeps one UI surface in sync with the stored session.
package controller

import (
	"context"
	"fmt"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/session"
)

// Actions are the user actions a Renderer wires to its controls.
type Actions struct {
	Login   func(ctx context.Context) error
	Refresh func(ctx context.Context) error
	Logout  func(ctx context.Context) error
	// Reload re-reads the store and renders again.
	Reload func(ctx context.Context) error
}

// Renderer is the UI of one surface.
type Renderer interface {
	Setup(actions Actions)
	Render(state session.State)
	ShowMessage(message string)
}

// URLs provides the authorization URLs sent with login and refresh requests.
type URLs interface {
	LoginURL() string
	RefreshURL() string
}

// Controller owns the session view of a single surface. Surfaces share
// nothing but the store and the message channel.
type Controller struct {
	store    *session.Store
	channel  messaging.Channel
	urls     URLs
	renderer Renderer
}

func New(store *session.Store, channel messaging.Channel, urls URLs, renderer Renderer) *Controller {
	return &Controller{
		store:    store,
		channel:  channel,
		urls:     urls,
		renderer: renderer,
	}
}

// Channel returns the message channel, for surfaces that want to announce
// more than the controller does (e.g. broadcasting a logout).
func (c *Controller) Channel() messaging.Channel {
	return c.channel
}

// Initialize renders the current state, registers the user actions and
// starts following session changes until ctx is done.
func (c *Controller) Initialize(ctx context.Context) error {
	c.renderer.Setup(Actions{
		Login:   c.OnLogin,
		Refresh: c.OnRefresh,
		Logout:  c.OnLogout,
		Reload:  c.OnSessionChanged,
	})

	if err := c.render(ctx); err != nil {
		return err
	}

	messages, err := c.channel.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to session changes: %w", err)
	}

	go c.listen(ctx, messages)

	return nil
}

func (c *Controller) listen(ctx context.Context, messages <-chan messaging.Message) {
	for msg := range messages {
		if msg.Operation != messaging.OpLoggedIn {
			continue
		}

		if err := c.OnSessionChanged(ctx); err != nil {
			slogctx.Error(ctx, "Failed to refresh session state", "error", err)
		}
	}
}

// OnLogin asks the host to start an interactive login. The result arrives
// as a session change.
func (c *Controller) OnLogin(ctx context.Context) error {
	return c.send(ctx, messaging.OpLogin, c.urls.LoginURL())
}

// OnRefresh asks the host for a silent refresh. A denied refresh changes
// nothing and reports nothing.
func (c *Controller) OnRefresh(ctx context.Context) error {
	return c.send(ctx, messaging.OpRefresh, c.urls.RefreshURL())
}

// OnLogout clears the session and re-renders this surface only.
func (c *Controller) OnLogout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return c.render(ctx)
}

// OnSessionChanged re-reads and re-renders. Safe to call repeatedly.
func (c *Controller) OnSessionChanged(ctx context.Context) error {
	return c.render(ctx)
}

func (c *Controller) send(ctx context.Context, op messaging.Operation, url string) error {
	if err := c.channel.Send(ctx, messaging.Message{Operation: op, URL: url}); err != nil {
		return fmt.Errorf("sending %s request: %w", op, err)
	}

	return nil
}

func (c *Controller) render(ctx context.Context) error {
	state, err := c.store.State(ctx)
	if err != nil {
		return fmt.Errorf("reading session state: %w", err)
	}

	c.renderer.Render(state)

	return nil
}
