package metar

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
	"github.com/couchcryptid/storm-nowcast-service/internal/observability"
)

// Fetcher is the upstream a CachedSource decorates.
type Fetcher interface {
	LatestObservations(ctx context.Context) ([]domain.StationObservation, error)
}

// CachedSource wraps a Fetcher with a TTL snapshot cache. The METAR cache
// upstream refreshes every few minutes, so hammering it once per analysis
// cycle is wasted traffic when cycles run close together.
type CachedSource struct {
	inner   Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu        sync.Mutex
	snapshot  []domain.StationObservation
	fetchedAt time.Time
}

// NewCachedSource creates a TTL cache decorator around a Fetcher. A nil
// clock uses real time.
func NewCachedSource(inner Fetcher, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{inner: inner, ttl: ttl, clock: clock, metrics: metrics}
}

func (c *CachedSource) LatestObservations(ctx context.Context) ([]domain.StationObservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.snapshot != nil && now.Sub(c.fetchedAt) < c.ttl {
		c.metrics.MetarCache.WithLabelValues("hit").Inc()
		return c.snapshot, nil
	}
	c.metrics.MetarCache.WithLabelValues("miss").Inc()

	obs, err := c.inner.LatestObservations(ctx)
	if err != nil {
		c.metrics.MetarFetches.WithLabelValues("error").Inc()
		// A stale snapshot beats no snapshot while the upstream flakes.
		if c.snapshot != nil {
			return c.snapshot, nil
		}
		return nil, err
	}
	c.metrics.MetarFetches.WithLabelValues("success").Inc()
	c.snapshot = obs
	c.fetchedAt = now
	return obs, nil
}
