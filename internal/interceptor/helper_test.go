package interceptor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openkcm/implicit-flow/internal/messaging"
	"github.com/openkcm/implicit-flow/internal/navigation"
)

const redirectURI = "https://random.not.existing.url.local.somewhere"

type opened struct {
	URL     string
	Visible bool
}

// fakeSurface records every call. onClose runs inside Close.
type fakeSurface struct {
	mu      sync.Mutex
	opened  []opened
	closed  []navigation.Handle
	events  chan navigation.Event
	onClose func()
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{events: make(chan navigation.Event, 4)}
}

func (s *fakeSurface) Open(_ context.Context, url string, visible bool) (navigation.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, opened{URL: url, Visible: visible})
	return navigation.Handle("h-" + url), nil
}

func (s *fakeSurface) Close(_ context.Context, h navigation.Handle) error {
	if s.onClose != nil {
		s.onClose()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, h)
	return nil
}

func (s *fakeSurface) Events() <-chan navigation.Event {
	return s.events
}

func (s *fakeSurface) Opened() []opened {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]opened(nil), s.opened...)
}

func (s *fakeSurface) Closed() []navigation.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]navigation.Handle(nil), s.closed...)
}

// collect returns every message received on ch within d.
func collect(t *testing.T, ch <-chan messaging.Message, d time.Duration) []messaging.Message {
	t.Helper()
	var out []messaging.Message
	timeout := time.After(d)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-timeout:
			return out
		}
	}
}

func fixedClock() time.Time {
	return time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
}
