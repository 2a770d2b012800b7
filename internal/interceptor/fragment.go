package interceptor

import (
	"net/url"
	"strings"
)

// ParseFragment returns the parameters carried in the fragment of rawURL.
// Segments are split on '&' and then on the first '='; values are kept
// raw, not percent-decoded. ok is false when there is no fragment or it
// is empty.
func ParseFragment(rawURL string) (params map[string]string, ok bool) {
	_, fragment, found := strings.Cut(rawURL, "#")
	if !found || fragment == "" {
		return nil, false
	}

	params = make(map[string]string)
	for segment := range strings.SplitSeq(fragment, "&") {
		if segment == "" {
			continue
		}
		name, value, _ := strings.Cut(segment, "=")
		params[name] = value
	}

	if len(params) == 0 {
		return nil, false
	}

	return params, true
}

// target is the part of a URL that identifies the redirect URI.
type target struct {
	scheme string
	host   string
	path   string
}

func targetOf(u *url.URL) target {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return target{
		scheme: strings.ToLower(u.Scheme),
		host:   strings.ToLower(u.Host),
		path:   path,
	}
}
