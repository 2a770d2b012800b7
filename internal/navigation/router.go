package navigation

import (
	"context"
	"strings"
)

const (
	visiblePrefix = "visible"
	hiddenPrefix  = "hidden"
)

// Router sends visible navigations to one surface and hidden ones to
// another, and merges their events. Router handles carry the name of the
// owning surface, so the router keeps no state per navigation.
type Router struct {
	visible Surface
	hidden  Surface
	events  chan Event
}

var _ Surface = (*Router)(nil)

// NewRouter starts forwarding events of both surfaces until ctx is done.
func NewRouter(ctx context.Context, visible, hidden Surface) *Router {
	r := &Router{
		visible: visible,
		hidden:  hidden,
		events:  make(chan Event, eventBuffer),
	}

	go r.forward(ctx, visiblePrefix, visible.Events())
	go r.forward(ctx, hiddenPrefix, hidden.Events())

	return r
}

func (r *Router) forward(ctx context.Context, prefix string, in <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			if ev.Handle != "" {
				ev.Handle = wrap(prefix, ev.Handle)
			}
			select {
			case r.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *Router) Events() <-chan Event {
	return r.events
}

func (r *Router) Open(ctx context.Context, url string, visible bool) (Handle, error) {
	target, prefix := r.hidden, hiddenPrefix
	if visible {
		target, prefix = r.visible, visiblePrefix
	}

	h, err := target.Open(ctx, url, visible)
	if err != nil {
		return "", err
	}

	return wrap(prefix, h), nil
}

func (r *Router) Close(ctx context.Context, h Handle) error {
	prefix, inner, ok := strings.Cut(string(h), "/")
	if !ok {
		return ErrUnknownHandle
	}

	switch prefix {
	case visiblePrefix:
		return r.visible.Close(ctx, Handle(inner))
	case hiddenPrefix:
		return r.hidden.Close(ctx, Handle(inner))
	default:
		return ErrUnknownHandle
	}
}

func wrap(prefix string, h Handle) Handle {
	return Handle(prefix + "/" + string(h))
}
