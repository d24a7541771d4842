// Package httpclient holds the shared transport used by the REST adapters.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// sharedTransport keeps one idle-connection pool for the Ollama and Qdrant
// clients so repeated embedding and search calls reuse TCP connections.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          32,
	MaxIdleConnsPerHost:   16,
	IdleConnTimeout:       120 * time.Second,
	TLSHandshakeTimeout:   5 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// NewPooledClient returns a client on the shared transport. A zero timeout
// leaves the deadline to the request context, which streaming calls need.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
