package utils

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// ConnectionPoolConfig holds configuration for HTTP connection pooling
type ConnectionPoolConfig struct {
	MaxIdleConns          int           // Maximum number of idle connections
	MaxIdleConnsPerHost   int           // Maximum number of idle connections per host
	MaxConnsPerHost       int           // Maximum number of connections per host
	IdleConnTimeout       time.Duration // How long an idle connection is kept alive
	TLSHandshakeTimeout   time.Duration // TLS handshake timeout
	ResponseHeaderTimeout time.Duration // Response header timeout
	DialTimeout           time.Duration // Connection dial timeout
	KeepAlive             time.Duration // TCP keep-alive period
	RequestTimeout        time.Duration // Overall per-request timeout
}

// DefaultConnectionPoolConfig returns a configuration suited to a mobile-style API client:
// few hosts, short-lived requests.
func DefaultConnectionPoolConfig() *ConnectionPoolConfig {
	return &ConnectionPoolConfig{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		RequestTimeout:        15 * time.Second,
	}
}

// ConnectionPoolStats holds statistics about connection pool usage
type ConnectionPoolStats struct {
	ActiveRequests int64     `json:"active_requests"`
	TotalRequests  int64     `json:"total_requests"`
	FailedRequests int64     `json:"failed_requests"`
	AverageLatency float64   `json:"average_latency_ms"`
	TotalLatency   int64     `json:"total_latency_ms"`
	LastUsed       time.Time `json:"last_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConnectionPool wraps an http.Client with a tuned transport and usage statistics.
type ConnectionPool struct {
	client *http.Client
	config *ConnectionPoolConfig

	mu    sync.Mutex
	stats ConnectionPoolStats
}

// NewConnectionPool creates a new connection pool with the given configuration
func NewConnectionPool(config *ConnectionPoolConfig) *ConnectionPool {
	if config == nil {
		config = DefaultConnectionPoolConfig()
	}

	dialer := &net.Dialer{
		Timeout:   config.DialTimeout,
		KeepAlive: config.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}

	now := time.Now()
	return &ConnectionPool{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.RequestTimeout,
		},
		config: config,
		stats:  ConnectionPoolStats{CreatedAt: now, LastUsed: now},
	}
}

// Do executes an HTTP request and records its latency and outcome.
func (cp *ConnectionPool) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	cp.mu.Lock()
	cp.stats.TotalRequests++
	cp.stats.ActiveRequests++
	cp.stats.LastUsed = start
	cp.mu.Unlock()

	resp, err := cp.client.Do(req)

	cp.mu.Lock()
	cp.stats.ActiveRequests--
	cp.stats.TotalLatency += time.Since(start).Milliseconds()
	cp.stats.AverageLatency = float64(cp.stats.TotalLatency) / float64(cp.stats.TotalRequests)
	if err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError) {
		cp.stats.FailedRequests++
	}
	cp.mu.Unlock()

	return resp, err
}

// GetStats returns a copy of the pool statistics.
func (cp *ConnectionPool) GetStats() ConnectionPoolStats {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.stats
}

// Close releases idle keep-alive connections.
func (cp *ConnectionPool) Close() {
	cp.client.CloseIdleConnections()
}
