// Copyright 2025 Shadow Atlas Contributors
//
// Per-host rate limiting: at least 500ms between requests to the same
// upstream host, so a layer/state fan-out never hammers a single Census or
// municipal ArcGIS endpoint. One limiter instance is shared across all
// providers targeting the same host.

package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultMinSpacing = 500 * time.Millisecond

// HostLimiter enforces a minimum spacing between requests, keyed by host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	spacing  time.Duration
}

// NewHostLimiter builds a limiter enforcing the default 500ms spacing.
func NewHostLimiter() *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		spacing:  defaultMinSpacing,
	}
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.spacing), 1)
		h.limiters[host] = l
	}
	return l
}

// Wait blocks until a request to host is permitted, or ctx is cancelled.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.limiterFor(host).Wait(ctx)
}
