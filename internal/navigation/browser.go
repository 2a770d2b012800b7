package navigation

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/google/uuid"

	slogctx "github.com/veqryn/slog-context"
)

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// BrowserSurface opens the system browser. The browser cannot tell us about
// the failed navigation to the redirect URI, so the URL left in its address
// bar has to be handed back through Report.
type BrowserSurface struct {
	opener func(string) error
	events chan Event

	mu   sync.Mutex
	open []Handle
}

var _ Surface = (*BrowserSurface)(nil)

// NewBrowserSurface returns a surface using opener, OpenBrowser if nil.
func NewBrowserSurface(opener func(string) error) *BrowserSurface {
	if opener == nil {
		opener = OpenBrowser
	}

	return &BrowserSurface{
		opener: opener,
		events: make(chan Event, eventBuffer),
	}
}

func (s *BrowserSurface) Events() <-chan Event {
	return s.events
}

func (s *BrowserSurface) Open(ctx context.Context, url string, visible bool) (Handle, error) {
	if !visible {
		slogctx.Warn(ctx, "Browser surface cannot navigate hidden, opening a visible window")
	}

	if err := s.opener(url); err != nil {
		return "", err
	}

	h := Handle(uuid.NewString())

	s.mu.Lock()
	s.open = append(s.open, h)
	s.mu.Unlock()

	return h, nil
}

// Close forgets the handle. The browser window itself stays open.
func (s *BrowserSurface) Close(ctx context.Context, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, open := range s.open {
		if open == h {
			s.open = append(s.open[:i], s.open[i+1:]...)
			slogctx.Info(ctx, "Login finished, the browser tab can be closed")
			return nil
		}
	}

	return ErrUnknownHandle
}

// Report emits a failed navigation for url, attributed to the most
// recently opened window.
func (s *BrowserSurface) Report(ctx context.Context, url string) error {
	s.mu.Lock()
	var h Handle
	if n := len(s.open); n > 0 {
		h = s.open[n-1]
	}
	s.mu.Unlock()

	select {
	case s.events <- Event{URL: url, Handle: h}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
