package interceptor

import (
	"net/url"

	"github.com/openkcm/implicit-flow/internal/serviceerr"
)

// Outcome is how one redirect attempt ended.
type Outcome int

const (
	// OutcomeIgnored means the URL was not the redirect URI.
	OutcomeIgnored Outcome = iota
	// OutcomeAbandoned means the redirect carried no usable response.
	OutcomeAbandoned
	// OutcomeDenied means the provider returned an error.
	OutcomeDenied
	// OutcomeCommitted means the token was stored and announced.
	OutcomeCommitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeDenied:
		return "denied"
	case OutcomeCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Denial is the error response of the provider. Values are raw fragment values.
type Denial struct {
	Error       string
	Description string
	State       string
}

// Err converts the denial to a service error with a decoded description.
func (d Denial) Err() *serviceerr.Error {
	description, err := url.QueryUnescape(d.Description)
	if err != nil {
		description = d.Description
	}

	return &serviceerr.Error{
		Err:         serviceerr.Code(d.Error),
		Description: description,
	}
}

// Result describes a handled redirect attempt. Denial is set only for
// OutcomeDenied.
type Result struct {
	Outcome Outcome
	Denial  *Denial
}
