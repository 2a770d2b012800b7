// Package authorize builds OAuth2 implicit flow authorization request URLs.
package authorize

import (
	"net/url"
	"strings"

	"github.com/openkcm/implicit-flow/internal/random"
)

const (
	ResponseTypeIDToken = "id_token"
	ResponseModeFrag    = "fragment"

	PromptSelectAccount = "select_account"
	PromptNone          = "none"

	tenantPlaceholder = "{tenant}"
)

// Request holds every value that ends up in an authorization URL.
type Request struct {
	Authority    string // Authorization endpoint, may contain {tenant}
	Tenant       string
	ClientID     string
	Scopes       []string
	ResponseType string
	RedirectURI  string
	Prompt       string
	State        string
	Nonce        string
}

// Build returns the authorization URL for r. It does not validate r: an
// unset client id yields a URL the provider will reject with an error.
func Build(r Request) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(r.Authority, tenantPlaceholder, r.Tenant))

	params := [][2]string{
		{"client_id", r.ClientID},
		{"response_type", r.ResponseType},
		{"redirect_uri", r.RedirectURI},
		{"scope", strings.Join(r.Scopes, " ")},
		{"response_mode", ResponseModeFrag},
		{"prompt", r.Prompt},
		{"state", r.State},
		{"nonce", r.Nonce},
	}
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(escape(p[1]))
	}

	return b.String()
}

// escape percent-encodes s the way encodeURIComponent does for the
// characters that matter here: spaces become %20, never '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Config is the per deployment part of a Request.
type Config struct {
	Authority   string
	Tenant      string
	ClientID    string
	Scopes      []string
	RedirectURI string
}

// Builder produces login and refresh URLs with fresh correlation values.
type Builder struct {
	cfg Config
	gen random.Generator
}

// NewBuilder returns a Builder. A nil generator selects random.Source.
func NewBuilder(cfg Config, gen random.Generator) *Builder {
	if gen == nil {
		gen = random.Source{}
	}

	return &Builder{cfg: cfg, gen: gen}
}

// RequestFor returns a request for the given prompt with a new state and nonce.
func (b *Builder) RequestFor(prompt string) Request {
	return Request{
		Authority:    b.cfg.Authority,
		Tenant:       b.cfg.Tenant,
		ClientID:     b.cfg.ClientID,
		Scopes:       b.cfg.Scopes,
		ResponseType: ResponseTypeIDToken,
		RedirectURI:  b.cfg.RedirectURI,
		Prompt:       prompt,
		State:        b.gen.State(),
		Nonce:        b.gen.Nonce(),
	}
}

// LoginURL returns the URL for an interactive login.
func (b *Builder) LoginURL() string {
	return Build(b.RequestFor(PromptSelectAccount))
}

// RefreshURL returns the URL for a silent refresh.
func (b *Builder) RefreshURL() string {
	return Build(b.RequestFor(PromptNone))
}
