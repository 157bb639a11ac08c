package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// upstreamError carries the HTTP status of a failed call to an external
// service so callers can classify it: rate-limited work is retried in place,
// overloaded bulk queries are skipped for the run, anything else counts as a
// transient record error.
type upstreamError struct {
	status int
	url    string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.url)
}

func newUpstreamError(status int, url string) error {
	return &upstreamError{status: status, url: url}
}

// IsRateLimited reports whether err is an HTTP 429 from an upstream service.
func IsRateLimited(err error) bool {
	var ue *upstreamError
	return errors.As(err, &ue) && ue.status == http.StatusTooManyRequests
}

// IsOverloaded reports whether err marks a unit of work the upstream service
// considers too expensive (HTTP 504). Such units are skipped for the rest of
// the run, never retried.
func IsOverloaded(err error) bool {
	var ue *upstreamError
	return errors.As(err, &ue) && ue.status == http.StatusGatewayTimeout
}

// IsTransient reports whether err looks like a timeout or connection failure
// worth counting and moving past.
func IsTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *upstreamError
	return errors.As(err, &ue) && ue.status >= 500 && ue.status != http.StatusGatewayTimeout
}
