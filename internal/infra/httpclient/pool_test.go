package httpclient_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travel-rag/internal/infra/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPooledClient_SharesTransport(t *testing.T) {
	a := httpclient.NewPooledClient(time.Second)
	b := httpclient.NewPooledClient(0)

	assert.Same(t, a.Transport, b.Transport)
	assert.Equal(t, time.Second, a.Timeout)
	assert.Zero(t, b.Timeout)
}

func TestNewPooledClient_Roundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := httpclient.NewPooledClient(time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
