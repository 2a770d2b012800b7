package serviceerr

import "errors"

var (
	ErrStorage       = errors.New("session storage failure")
	ErrUnknownHost   = errors.New("unknown host environment")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Code is an OAuth2 error code as returned by the identity provider
// in the error parameter of the redirect fragment.
type Code string

// RFC6749 section 4.2.2.1 authorization errors.
const (
	CodeInvalidRequest          Code = "invalid_request"
	CodeUnauthorizedClient      Code = "unauthorized_client"
	CodeAccessDenied            Code = "access_denied"
	CodeUnsupportedResponseType Code = "unsupported_response_type"
	CodeInvalidScope            Code = "invalid_scope"
	CodeServerError             Code = "server_error"
	CodeTemporarilyUnavailable  Code = "temporarily_unavailable"
)

// OpenID Connect Core section 3.1.2.6 errors, relevant for prompt=none.
const (
	CodeInteractionRequired      Code = "interaction_required"
	CodeLoginRequired            Code = "login_required"
	CodeAccountSelectionRequired Code = "account_selection_required"
	CodeConsentRequired          Code = "consent_required"
)

// Error is a provider reported error.
type Error struct {
	Err         Code
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return string(e.Err) + ": " + e.Description
}

// Interactive reports whether the error only means that the silent
// request needs user interaction to succeed.
func (e *Error) Interactive() bool {
	switch e.Err {
	case CodeInteractionRequired, CodeLoginRequired, CodeAccountSelectionRequired, CodeConsentRequired:
		return true
	default:
		return false
	}
}
