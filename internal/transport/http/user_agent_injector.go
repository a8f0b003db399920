package http

import (
	"net/http"

	"github.com/oshokin/odm-grabber/internal/utils"
)

// UserAgentInjector is an http.RoundTripper that presents the configured User-Agent
// on every request that does not already carry one.
type UserAgentInjector struct {
	next              http.RoundTripper
	userAgentProvider utils.UserAgentProvider
}

// NewUserAgentInjector wraps next with User-Agent injection.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider utils.UserAgentProvider) http.RoundTripper {
	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip implements the http.RoundTripper interface.
// The caller's request is cloned before its headers are changed.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(userAgentHeader) != "" {
		return t.next.RoundTrip(req)
	}

	userAgent := t.userAgentProvider.GetUserAgent()
	if userAgent == "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(userAgentHeader, userAgent)

	return t.next.RoundTrip(clone)
}
