// Package httpx holds shared HTTP client construction.
package httpx

import (
	"net/http"
	"time"
)

// NewPooledClient returns an http.Client with connection pooling and a
// tuned transport, shared by every outbound integration.
func NewPooledClient(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}
