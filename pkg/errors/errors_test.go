package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrNotFound, http.StatusTeapot, "x"), http.StatusTeapot},
		{"wrapped app error", fmt.Errorf("ctx: %w", Invalid("bad %d", 1)), http.StatusBadRequest},
		{"malformed", Malformed("votes", errors.New("eof")), http.StatusInternalServerError},
		{"write failure", WriteFailed("votes", errors.New("disk")), http.StatusServiceUnavailable},
		{"not found sentinel", fmt.Errorf("source: %w", ErrNotFound), http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"upstream", ErrUpstream, http.StatusBadGateway},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := Malformed("trust_levels", errors.New("unexpected token"))
	assert.ErrorIs(t, err, ErrMalformedState)
	assert.Equal(t, "malformed persisted state: document trust_levels: unexpected token", err.Error())
}
