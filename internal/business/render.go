package business

import (
	"context"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/controller"
	"github.com/openkcm/implicit-flow/internal/session"
)

// logRenderer renders to the log, for a serve process without a terminal.
type logRenderer struct {
	ctx context.Context //nolint:containedctx
}

func (logRenderer) Setup(controller.Actions) {}

func (r logRenderer) Render(state session.State) {
	slogctx.Info(r.ctx, "Session state", "loggedIn", state.LoggedIn, "expiration", state.Expiration.String)
}

func (r logRenderer) ShowMessage(message string) {
	slogctx.Info(r.ctx, message)
}

// signalRenderer passes every render on and reports it on rendered.
type signalRenderer struct {
	controller.Renderer

	rendered chan session.State
}

func newSignalRenderer(next controller.Renderer) *signalRenderer {
	return &signalRenderer{Renderer: next, rendered: make(chan session.State, 1)}
}

func (r *signalRenderer) Render(state session.State) {
	r.Renderer.Render(state)

	select {
	case r.rendered <- state:
	default:
	}
}

// drain discards a pending render notification.
func (r *signalRenderer) drain() {
	select {
	case <-r.rendered:
	default:
	}
}
