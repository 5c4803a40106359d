package cleaner

import "errors"

// Resolution errors that can be checked with errors.Is. Callers are
// expected to fall back to the original URL on timeout or resolution
// failure; only a malformed URL is surfaced to the user as a rejection.
var (
	// ErrMalformedURL is returned when the input is not a parseable
	// absolute http(s) URL.
	ErrMalformedURL = errors.New("cleaner: not a valid URL")

	// ErrResolutionTimeout is returned when the redirect chain could not
	// be followed within the configured fetch timeout.
	ErrResolutionTimeout = errors.New("cleaner: resolution timed out")

	// ErrResolution is returned on network, DNS or TLS failure, or when
	// the redirect chain exceeds the hop limit.
	ErrResolution = errors.New("cleaner: resolution failed")
)
