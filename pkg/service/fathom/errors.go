package fathom

import "errors"

var (
	ErrMissingCredentials  = errors.New("fathom API key is not configured")
	ErrRateLimited         = errors.New("fathom API rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("fathom API is unavailable")
)
