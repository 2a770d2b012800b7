// Package messaging carries fire-and-forget messages between the redirect
// host and the UI surfaces.
package messaging

import (
	"context"
	"errors"
)

type Operation string

const (
	OpLogin    Operation = "login"
	OpRefresh  Operation = "refresh"
	OpLoggedIn Operation = "loggedIn"
	// OpNavigationFailed reports a failed navigation observed outside of
	// the host process, e.g. a URL pasted from a browser address bar.
	OpNavigationFailed Operation = "navigationFailed"
)

var ErrClosed = errors.New("channel closed")

type Message struct {
	Operation Operation      `json:"operation"`
	URL       string         `json:"url,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel delivers every sent message to every current subscriber. There
// is no acknowledgement and no ordering across senders.
type Channel interface {
	Send(ctx context.Context, msg Message) error
	// Subscribe returns a stream of messages that is closed when ctx is done.
	Subscribe(ctx context.Context) (<-chan Message, error)
}
