package main

import (
	"errors"
	"fmt"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		rateLimited bool
		overloaded  bool
		transient   bool
	}{
		{
			name:        "too many requests",
			err:         newUpstreamError(429, "https://example.test/campsites"),
			rateLimited: true,
		},
		{
			name:       "gateway timeout",
			err:        newUpstreamError(504, "https://example.test/interpreter"),
			overloaded: true,
		},
		{
			name:      "internal server error",
			err:       newUpstreamError(500, "https://example.test/parks"),
			transient: true,
		},
		{
			name:      "bad gateway wrapped",
			err:       fmt.Errorf("fetch parks: %w", newUpstreamError(502, "https://example.test/parks")),
			transient: true,
		},
		{
			name: "not found",
			err:  newUpstreamError(404, "https://example.test/parks"),
		},
		{
			name:      "network timeout",
			err:       fmt.Errorf("query overpass: %w", timeoutErr{}),
			transient: true,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRateLimited(tc.err); got != tc.rateLimited {
				t.Errorf("IsRateLimited = %v, want %v", got, tc.rateLimited)
			}
			if got := IsOverloaded(tc.err); got != tc.overloaded {
				t.Errorf("IsOverloaded = %v, want %v", got, tc.overloaded)
			}
			if got := IsTransient(tc.err); got != tc.transient {
				t.Errorf("IsTransient = %v, want %v", got, tc.transient)
			}
		})
	}
}
