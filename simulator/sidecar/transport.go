// Package sidecar talks to Substrate API Sidecar style REST gateways, one
// failover transport per chain shared through a pool
package sidecar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "sidecar").Logger()
}

// FailoverConfig controls failover behavior
type FailoverConfig struct {
	// MaxRetries is the number of times to retry a failed request on the current endpoint
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles with each retry)
	RetryDelay time.Duration
	// HealthCheckInterval is how often to check if the primary endpoint is back up
	HealthCheckInterval time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// DefaultFailoverConfig returns the defaults used when the config leaves them out
func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		Timeout:             10 * time.Second,
	}
}

// transport is the failover HTTP connection to the gateways of one chain
type transport struct {
	chain          string
	httpClient     *http.Client
	primaryURL     string
	backupURLs     []string
	currentURL     string
	mu             sync.RWMutex
	healthChecker  *healthChecker
	failoverConfig FailoverConfig
}

// healthChecker periodically checks if the primary endpoint is healthy
type healthChecker struct {
	transport *transport
	stopCh    chan struct{}
	stoppedCh chan struct{}
	once      sync.Once
}

func newTransport(chain string, urls []string, httpClient *http.Client, config FailoverConfig) (*transport, error) {
	valid := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, err := url.ParseRequestURI(u); err != nil {
			log.Warn().Err(err).Str("chain", chain).Str("url", u).Msg("Invalid gateway URL, skipping")
			continue
		}
		valid = append(valid, u)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid gateway endpoint for %s", chain)
	}

	t := &transport{
		chain:          chain,
		httpClient:     httpClient,
		primaryURL:     valid[0],
		backupURLs:     valid[1:],
		currentURL:     valid[0],
		failoverConfig: config,
	}
	if len(t.backupURLs) > 0 && config.HealthCheckInterval > 0 {
		t.healthChecker = &healthChecker{
			transport: t,
			stopCh:    make(chan struct{}),
			stoppedCh: make(chan struct{}),
		}
		go t.healthChecker.run()
	}

	log.Debug().
		Str("chain", chain).
		Str("primary", t.primaryURL).
		Int("backups", len(t.backupURLs)).
		Msg("Gateway transport opened")
	return t, nil
}

func (h *healthChecker) run() {
	defer close(h.stoppedCh)
	ticker := time.NewTicker(h.transport.failoverConfig.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.checkAndRestore()
		}
	}
}

func (h *healthChecker) stop() {
	h.once.Do(func() {
		close(h.stopCh)
		<-h.stoppedCh
	})
}

// checkAndRestore moves back to the primary endpoint once it answers again
func (h *healthChecker) checkAndRestore() {
	t := h.transport
	t.mu.RLock()
	onPrimary := t.currentURL == t.primaryURL
	t.mu.RUnlock()
	if onPrimary {
		return
	}

	if t.isEndpointHealthy(context.Background(), t.primaryURL) {
		t.mu.Lock()
		t.currentURL = t.primaryURL
		t.mu.Unlock()
		log.Info().Str("chain", t.chain).Str("url", t.primaryURL).Msg("Restored primary endpoint")
	}
}

// isEndpointHealthy asks the gateway for its node version
func (t *transport) isEndpointHealthy(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/node/version", nil)
	if err != nil {
		return false
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", endpoint).Msg("Health check failed")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

func (t *transport) getCurrentURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentURL
}

// failover switches to the next healthy endpoint
func (t *transport) failover(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	all := append([]string{t.primaryURL}, t.backupURLs...)
	current := 0
	for i, u := range all {
		if u == t.currentURL {
			current = i
			break
		}
	}

	for i := 1; i < len(all); i++ {
		next := all[(current+i)%len(all)]
		if t.isEndpointHealthy(ctx, next) {
			t.currentURL = next
			log.Info().Str("chain", t.chain).Str("url", next).Msg("Failover to endpoint")
			return true
		}
	}

	log.Warn().Str("chain", t.chain).Str("url", t.currentURL).Msg("All endpoints unhealthy, staying on current")
	return false
}

func (t *transport) close() {
	if t.healthChecker != nil {
		t.healthChecker.stop()
	}
}

// do sends one request with retries on the current endpoint, then one attempt
// after failover
func (t *transport) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error
	retryDelay := t.failoverConfig.RetryDelay

	for attempt := 0; attempt <= t.failoverConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		body, err := t.send(ctx, method, t.getCurrentURL()+path, payload)
		if err == nil {
			return body, nil
		}
		if _, permanent := err.(*statusError); permanent {
			return nil, err
		}
		lastErr = err
	}

	if len(t.backupURLs) > 0 && t.failover(ctx) {
		body, err := t.send(ctx, method, t.getCurrentURL()+path, payload)
		if err != nil {
			return nil, fmt.Errorf("failover request failed: %w (original: %w)", err, lastErr)
		}
		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", t.failoverConfig.MaxRetries+1, lastErr)
}

// statusError is a 4xx answer, retrying it elsewhere does not help
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func (t *transport) send(ctx context.Context, method, fullURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
