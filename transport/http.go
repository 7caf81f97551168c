package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collector defaults.
const (
	DefaultBatchSize  = 50
	DefaultMaxRetries = 3
	DefaultTimeout    = 10 * time.Second
)

// CollectorConfig configures the HTTP relay transport.
type CollectorConfig struct {
	// Endpoint is the collector base URL (required).
	Endpoint string

	// APIKey is sent as the X-API-Key header when set.
	APIKey string

	// BatchSize is the number of calls buffered before Push reports a full
	// batch (default: 50).
	BatchSize int

	// MaxRetries is the maximum number of retry attempts on 5xx errors
	// (default: 3).
	MaxRetries int

	// Timeout is the HTTP request timeout (default: 10s).
	Timeout time.Duration

	// Fallback receives the drained calls when a batch cannot be delivered,
	// letting a spool hold them for a later replay. Optional.
	Fallback Transport

	// OnFlush observes every non-empty flush: the batch size, how long the
	// delivery took, and its error, if any. Optional.
	OnFlush func(calls int, elapsed time.Duration, err error)
}

func (c CollectorConfig) withDefaults() CollectorConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// batchRequest is the request body for the collector endpoint.
type batchRequest struct {
	BatchID string `json:"batch_id"`
	Calls   []Call `json:"calls"`
}

// Collector is a Transport that buffers vendor calls and relays them in
// JSON batches to a collector endpoint, retrying 5xx responses with
// exponential backoff and jitter. Flush must be called to drain the buffer;
// Push never blocks on the network.
type Collector struct {
	cfg    CollectorConfig
	client *http.Client

	mu    sync.Mutex
	calls []Call
}

// NewCollector creates a Collector with the given configuration.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("transport: collector endpoint is required")
	}
	cfg = cfg.withDefaults()
	return &Collector{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		calls:  make([]Call, 0, cfg.BatchSize),
	}, nil
}

// Push buffers the call.
func (c *Collector) Push(call Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Pending returns the number of buffered calls.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// drain atomically swaps and returns all buffered calls.
func (c *Collector) drain() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	calls := c.calls
	c.calls = make([]Call, 0, c.cfg.BatchSize)
	return calls
}

// Flush sends all buffered calls to the collector. Returns nil on success
// or when the buffer is empty. On failure the drained calls are pushed to
// the fallback transport when one is configured; without one they are lost.
func (c *Collector) Flush(ctx context.Context) error {
	calls := c.drain()
	if len(calls) == 0 {
		return nil
	}

	start := time.Now()
	err := c.sendBatch(ctx, calls)
	if err != nil && c.cfg.Fallback != nil {
		for _, call := range calls {
			c.cfg.Fallback.Push(call)
		}
	}
	if c.cfg.OnFlush != nil {
		c.cfg.OnFlush(len(calls), time.Since(start), err)
	}
	return err
}

// FlushLoop periodically flushes until the context is canceled, closing
// done on exit. Flush errors are dropped; the next tick retries.
func (c *Collector) FlushLoop(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Flush(ctx)
		}
	}
}

// sendBatch posts one batch, retrying 5xx responses.
func (c *Collector) sendBatch(ctx context.Context, calls []Call) error {
	body, err := json.Marshal(batchRequest{
		BatchID: uuid.New().String(),
		Calls:   calls,
	})
	if err != nil {
		return fmt.Errorf("transport: marshal batch: %w", err)
	}

	url := c.cfg.Endpoint + "/v1/calls/batch"

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("transport: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("X-API-Key", c.cfg.APIKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("transport: request failed: %w", err)
			continue
		}

		// Read and discard body to enable connection reuse.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("transport: client error: status %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("transport: server error: status %d", resp.StatusCode)
	}

	return lastErr
}

// Backoff bounds for 5xx retries.
const (
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// backoff returns the delay before the given retry attempt: exponential
// from the base, capped, with full jitter.
func backoff(attempt int) time.Duration {
	delay := float64(baseBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	return time.Duration(rand.Float64() * delay)
}
