// Package httpx holds the shared HTTP client for external APIs so every
// outbound call carries the same timeout.
package httpx

import (
	"net/http"
	"sync"
	"time"
)

const defaultExternalTimeout = 90 * time.Second

var (
	mu     sync.RWMutex
	client = &http.Client{Timeout: defaultExternalTimeout}
)

// Configure sets the shared client timeout. Zero or negative keeps the
// default. Returns the timeout actually applied.
func Configure(timeoutSeconds int) time.Duration {
	timeout := defaultExternalTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	mu.Lock()
	client = &http.Client{Timeout: timeout}
	mu.Unlock()
	return timeout
}

// ExternalClient returns the shared client.
func ExternalClient() *http.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}
