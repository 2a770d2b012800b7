// Package ui renders the session state of a command line surface.
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/implicit-flow/internal/controller"
	"github.com/openkcm/implicit-flow/internal/idtoken"
	"github.com/openkcm/implicit-flow/internal/session"
)

const tokenPreview = 24

// Terminal is a controller.Renderer writing to a terminal.
type Terminal struct {
	out       io.Writer
	showToken bool

	// writeMu keeps a table or message in one piece on out.
	writeMu sync.Mutex

	mu      sync.Mutex
	actions controller.Actions
}

var _ controller.Renderer = (*Terminal)(nil)

// NewTerminal returns a renderer writing to out. The full token is only
// printed when showToken is set.
func NewTerminal(out io.Writer, showToken bool) *Terminal {
	return &Terminal{out: out, showToken: showToken}
}

func (t *Terminal) Setup(actions controller.Actions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions = actions
}

// Do runs the named action registered by the controller.
func (t *Terminal) Do(ctx context.Context, action string) error {
	t.mu.Lock()
	actions := t.actions
	t.mu.Unlock()

	var fn func(context.Context) error
	switch action {
	case "login":
		fn = actions.Login
	case "refresh":
		fn = actions.Refresh
	case "logout":
		fn = actions.Logout
	case "status":
		fn = actions.Reload
	}
	if fn == nil {
		return fmt.Errorf("action %q is not available", action)
	}

	return fn(ctx)
}

func (t *Terminal) Render(state session.State) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Colors: text.Colors{text.Bold}}})

	if !state.LoggedIn {
		tw.AppendRow(table.Row{"Status", "logged out"})
		t.write(tw.Render() + "\n")
		return
	}

	tw.AppendRow(table.Row{"Status", "logged in"})
	tw.AppendRow(table.Row{"Token", t.token(state.Token.String)})
	tw.AppendRow(table.Row{"Captured", state.Expiration.String})

	if claims, err := idtoken.Peek(state.Token.String); err == nil {
		if claims.Subject != "" {
			tw.AppendRow(table.Row{"Subject", claims.Subject})
		}
		if claims.Email != "" {
			tw.AppendRow(table.Row{"Email", claims.Email})
		}
		if !claims.Expiry.IsZero() {
			tw.AppendRow(table.Row{"Token expiry", claims.Expiry.Format("2006-01-02 15:04:05 MST")})
		}
	} else {
		slogctx.Debug(context.Background(), "Token is not a readable JWT", "error", err)
	}

	t.write(tw.Render() + "\n")
}

func (t *Terminal) ShowMessage(message string) {
	t.write(message + "\n")
}

func (t *Terminal) write(s string) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_, _ = io.WriteString(t.out, s)
}

func (t *Terminal) token(raw string) string {
	if t.showToken || len(raw) <= tokenPreview {
		return raw
	}

	return raw[:tokenPreview] + "…"
}
