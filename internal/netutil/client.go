package netutil

import (
	"net/http"
	"time"
)

// NewClient returns an http.Client with a hard per-call timeout. All
// outbound calls in this service are synchronous and bounded; there is
// no mid-flight cancellation beyond the timeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
