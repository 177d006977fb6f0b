package cache

import (
	"time"

	"github.com/zombar/citeaudit/internal/auditor"
	"github.com/zombar/citeaudit/internal/models"
)

// Recorder receives cache hit and miss events
type Recorder interface {
	CacheHit(backend string)
	CacheMiss(backend string)
}

// Instrumented reports hits and misses of the wrapped cache to a Recorder
type Instrumented struct {
	next     auditor.MetricsCache
	backend  string
	recorder Recorder
}

// NewInstrumented wraps next, labelling events with backend
func NewInstrumented(next auditor.MetricsCache, backend string, recorder Recorder) *Instrumented {
	return &Instrumented{next: next, backend: backend, recorder: recorder}
}

// Get looks up key and records whether it hit
func (c *Instrumented) Get(key string) (models.AggregateMetrics, bool) {
	v, ok := c.next.Get(key)
	if ok {
		c.recorder.CacheHit(c.backend)
	} else {
		c.recorder.CacheMiss(c.backend)
	}
	return v, ok
}

// Set stores value in the wrapped cache
func (c *Instrumented) Set(key string, value models.AggregateMetrics, ttl time.Duration) {
	c.next.Set(key, value, ttl)
}
