package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	slogctx "github.com/veqryn/slog-context"
)

const (
	eventBuffer  = 16
	maxRedirects = 20
)

var errTooManyRedirects = errors.New("stopped after too many redirects")

// HTTPSurface navigates without a user agent window: it follows redirects
// with a persistent cookie jar, like a hidden tab would, and emits an Event
// when a hop fails to connect. It cannot show a login form, so it only
// serves silent refresh against an existing provider session.
type HTTPSurface struct {
	client *http.Client
	events chan Event

	mu     sync.Mutex
	open   map[Handle]context.CancelFunc
	closed bool
}

var _ Surface = (*HTTPSurface)(nil)

type HTTPOption func(*HTTPSurface)

// WithTransport replaces the round tripper used for every hop.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(s *HTTPSurface) { s.client.Transport = rt }
}

func NewHTTPSurface(opts ...HTTPOption) (*HTTPSurface, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	s := &HTTPSurface{
		client: &http.Client{Jar: jar},
		events: make(chan Event, eventBuffer),
		open:   make(map[Handle]context.CancelFunc),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

func (s *HTTPSurface) Events() <-chan Event {
	return s.events
}

// Open starts the navigation in the background and returns immediately.
func (s *HTTPSurface) Open(ctx context.Context, rawURL string, _ bool) (Handle, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing navigation url: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	h := Handle(uuid.NewString())
	navCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.open[h] = cancel

	go s.navigate(navCtx, h, u)

	return h, nil
}

// Close cancels a running navigation. Closing a navigation that already
// ended is a no-op.
func (s *HTTPSurface) Close(_ context.Context, h Handle) error {
	s.release(h)

	return nil
}

func (s *HTTPSurface) release(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.open[h]; ok {
		cancel()
		delete(s.open, h)
	}
}

// Shutdown cancels every navigation. Open fails afterwards.
func (s *HTTPSurface) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for h, cancel := range s.open {
		cancel()
		delete(s.open, h)
	}
}

// navigate runs one navigation. Its handle is released when it ends,
// whether or not it reported a failure.
func (s *HTTPSurface) navigate(ctx context.Context, h Handle, start *url.URL) {
	defer s.release(h)

	current := start

	client := *s.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}

		// Browsers keep the fragment of a Location header; recover it from
		// the raw header rather than trusting the rewritten request URL.
		next := req.URL
		if req.Response != nil {
			if loc := req.Response.Header.Get("Location"); loc != "" {
				if u, err := via[len(via)-1].URL.Parse(loc); err == nil {
					next = u
				}
			}
		}
		current = next

		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, start.String(), nil)
	if err != nil {
		slogctx.Error(ctx, "Creating navigation request", "error", err)
		return
	}

	resp, err := client.Do(req)
	if err == nil {
		_ = resp.Body.Close()
		slogctx.Debug(ctx, "Navigation settled without redirect", "status", resp.StatusCode)
		return
	}

	if ctx.Err() != nil || errors.Is(err, errTooManyRedirects) {
		slogctx.Debug(ctx, "Navigation stopped", "error", err)
		return
	}

	slogctx.Debug(ctx, "Navigation failed", "host", current.Host, "error", err)

	select {
	case s.events <- Event{URL: current.String(), Handle: h}:
	case <-ctx.Done():
	}
}
