package http

import "time"

const (
	// DefaultTimeout bounds waiting for response headers and whole control requests.
	DefaultTimeout = 60 * time.Second

	// userAgentHeader is the HTTP header name for User-Agent.
	userAgentHeader = "User-Agent"

	// licenseHeader carries the whole signed license on part requests.
	licenseHeader = "License"
)
