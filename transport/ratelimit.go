package transport

import (
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Default hit limiter settings, matching the vendor tag's own throttling:
// a burst of 20 hits replenished at 2 per second.
const (
	DefaultHitRate  = 2
	DefaultHitBurst = 20
)

// RateLimited wraps a Transport and throttles hit sends. Configuration
// calls (create, set, require, plugin commands) always pass through; only
// "send" and legacy "_track*" hits consume the limiter, and hits over the
// limit are dropped rather than delayed, the way the vendor tag drops them.
type RateLimited struct {
	next    Transport
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewRateLimited creates a RateLimited transport allowing hitsPerSecond
// with the given burst. Non-positive values fall back to the defaults.
func NewRateLimited(next Transport, hitsPerSecond float64, burst int) *RateLimited {
	if hitsPerSecond <= 0 {
		hitsPerSecond = DefaultHitRate
	}
	if burst <= 0 {
		burst = DefaultHitBurst
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(hitsPerSecond), burst),
	}
}

// Push forwards the call, dropping over-limit hits.
func (t *RateLimited) Push(call Call) {
	if isHit(call.Command) && !t.limiter.Allow() {
		t.dropped.Add(1)
		return
	}
	t.next.Push(call)
}

// Dropped returns the number of hits dropped so far.
func (t *RateLimited) Dropped() int64 {
	return t.dropped.Load()
}

// Ready defers to the wrapped transport.
func (t *RateLimited) Ready() bool {
	if r, ok := t.next.(ReadyReporter); ok {
		return r.Ready()
	}
	return true
}

// isHit reports whether the command produces a vendor hit. The command may
// carry a tracker namespace prefix ("name.send").
func isHit(command string) bool {
	if idx := strings.LastIndex(command, "."); idx >= 0 {
		command = command[idx+1:]
	}
	switch command {
	case "send", "_trackPageview", "_trackEvent", "_trackTrans":
		return true
	}
	return false
}
