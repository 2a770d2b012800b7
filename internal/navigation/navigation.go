// Package navigation opens and closes the surfaces used to drive the
// identity provider redirect and reports navigations that could not
// complete.
package navigation

import (
	"context"
	"errors"
)

var (
	ErrUnknownHandle = errors.New("unknown surface handle")
	ErrClosed        = errors.New("surface closed")
)

// Handle identifies an opened surface.
type Handle string

// Event is emitted when a surface attempts to navigate to an address that
// does not resolve. URL keeps its fragment.
type Event struct {
	URL    string
	Handle Handle
}

type Surface interface {
	// Open starts navigating to url. visible is false for silent refresh.
	Open(ctx context.Context, url string, visible bool) (Handle, error)
	Close(ctx context.Context, h Handle) error
	Events() <-chan Event
}
