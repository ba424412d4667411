// Package http provides the pooled, logging transport used for Data API calls.
package http

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	// Default: 20
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int

	// MaxConnsPerHost is the maximum concurrent connections per host.
	// Default: 20
	MaxConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	// Default: 90 seconds
	IdleConnTimeout time.Duration
}

// DefaultTransportConfig returns the defaults for Data API traffic.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewTransport returns a pooled transport that logs every upstream exchange
// at debug level. The API key is never logged.
func NewTransport(cfg TransportConfig) http.RoundTripper {
	return &loggingTransport{
		next: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			MaxConnsPerHost:     cfg.MaxConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			ForceAttemptHTTP2:   true,
		},
	}
}

type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	l := log.WithFields(log.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"duration": time.Since(start),
	})
	if err != nil {
		l.WithError(err).Debug("upstream request failed")
		return nil, err
	}
	l.WithField("status", resp.StatusCode).Debug("upstream request")
	return resp, nil
}
