package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionPool_DefaultConfig(t *testing.T) {
	pool := NewConnectionPool(nil)
	defer pool.Close()

	transport, ok := pool.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 20, transport.MaxIdleConns)
	assert.Equal(t, 5, transport.MaxIdleConnsPerHost)
	assert.Equal(t, DefaultConnectionPoolConfig().RequestTimeout, pool.client.Timeout)
}

func TestConnectionPool_RecordsStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pool := NewConnectionPool(DefaultConnectionPoolConfig())
	defer pool.Close()

	for _, path := range []string{"/ok", "/fail"} {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)
		resp, err := pool.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	stats := pool.GetStats()
	assert.EqualValues(t, 2, stats.TotalRequests)
	assert.EqualValues(t, 1, stats.FailedRequests)
	assert.EqualValues(t, 0, stats.ActiveRequests)
	assert.False(t, stats.LastUsed.IsZero())
}
