// Package cache provides MetricsCache backends for the audit engine
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/zombar/citeaudit/internal/models"
)

// DefaultCapacity is used when NewLocal is given a non-positive capacity
const DefaultCapacity = 1024

// Local is an in-process LRU with per-entry TTL. Expired entries are
// dropped when they are next looked up.
type Local struct {
	mu   sync.Mutex
	cap  int
	list *list.List               // front = most recent
	m    map[string]*list.Element // key -> element
	now  func() time.Time
}

type lruEntry struct {
	key   string
	value models.AggregateMetrics
	exp   time.Time
}

// NewLocal creates an LRU holding at most capacity entries
func NewLocal(capacity int) *Local {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Local{
		cap:  capacity,
		list: list.New(),
		m:    make(map[string]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get returns a copy of the entry stored under key
func (l *Local) Get(key string) (models.AggregateMetrics, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.m[key]
	if !ok {
		return models.AggregateMetrics{}, false
	}
	ent := el.Value.(lruEntry)
	if !ent.exp.After(l.now()) {
		l.list.Remove(el)
		delete(l.m, key)
		return models.AggregateMetrics{}, false
	}
	l.list.MoveToFront(el)
	return ent.value.Clone(), true
}

// Set stores a copy of value under key, evicting the least recently used
// entry when full
func (l *Local) Set(key string, value models.AggregateMetrics, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent := lruEntry{key: key, value: value.Clone(), exp: l.now().Add(ttl)}
	if el, ok := l.m[key]; ok {
		el.Value = ent
		l.list.MoveToFront(el)
		return
	}

	l.m[key] = l.list.PushFront(ent)
	if l.list.Len() > l.cap {
		if lru := l.list.Back(); lru != nil {
			delete(l.m, lru.Value.(lruEntry).key)
			l.list.Remove(lru)
		}
	}
}

// Len returns the number of entries, expired ones included
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list.Len()
}

// Noop never stores anything
type Noop struct{}

// Get always misses
func (Noop) Get(string) (models.AggregateMetrics, bool) {
	return models.AggregateMetrics{}, false
}

// Set discards the value
func (Noop) Set(string, models.AggregateMetrics, time.Duration) {}
