package pyscope

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LinesFunc returns the current content of a buffer as lines. The
// Tracker calls it only when the cached hierarchy is stale or missing.
type LinesFunc func() []string

// DefaultCapacity bounds how many buffers a Tracker caches at once.
const DefaultCapacity = 128

// Tracker caches one Hierarchy per buffer, keyed by an externally
// maintained, monotonically increasing change counter. Comparing
// counters is O(1) per lookup; the buffer is only re-read and
// rescanned when the counter moves, so cursor motion over an unchanged
// buffer never repeats the scan.
//
// The backing map is a bounded LRU: a cold buffer pushed out by newer
// ones simply rebuilds on its next lookup. A Tracker is safe for
// concurrent use.
type Tracker struct {
	mu       sync.Mutex
	records  *lru.Cache[string, *trackerRecord]
	rebuilds atomic.Uint64
}

type trackerRecord struct {
	tick int64
	hier *Hierarchy
}

// Option configures a Tracker.
type Option func(*trackerConfig)

type trackerConfig struct {
	capacity int
}

// WithCapacity bounds the number of buffers cached at once. Values
// below 1 keep DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *trackerConfig) {
		if n >= 1 {
			c.capacity = n
		}
	}
}

// NewTracker creates an empty Tracker. No further initialization is
// needed; records appear on first Resolve per buffer.
func NewTracker(opts ...Option) (*Tracker, error) {
	cfg := trackerConfig{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	records, err := lru.New[string, *trackerRecord](cfg.capacity)
	if err != nil {
		return nil, err
	}
	return &Tracker{records: records}, nil
}

// Resolve answers the innermost scope for line in the given buffer.
// The hierarchy cached for buffer is reused as long as tick matches
// the value it was built at; otherwise lines is invoked and the
// buffer rescanned, replacing the old record wholesale.
func (t *Tracker) Resolve(buffer string, tick int64, line int, lines LinesFunc) (Result, bool) {
	return t.hierarchy(buffer, tick, lines).Resolve(line)
}

// Hierarchy returns the cached or freshly built hierarchy for buffer.
// Callers that need more than a single lookup (outlines, navigation)
// use this to avoid rescanning per query.
func (t *Tracker) Hierarchy(buffer string, tick int64, lines LinesFunc) *Hierarchy {
	return t.hierarchy(buffer, tick, lines)
}

func (t *Tracker) hierarchy(buffer string, tick int64, lines LinesFunc) *Hierarchy {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.records.Get(buffer); ok && rec.tick == tick {
		return rec.hier
	}
	h := Scan(lines())
	t.rebuilds.Add(1)
	t.records.Add(buffer, &trackerRecord{tick: tick, hier: h})
	return h
}

// Evict drops the cached record for buffer, typically on buffer close.
// Evicting an unknown buffer is a no-op.
func (t *Tracker) Evict(buffer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records.Remove(buffer)
}

// Len reports how many buffers currently hold a cached hierarchy.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records.Len()
}

// Rebuilds reports how many buffer scans the Tracker has performed.
// Hosts and tests use it to verify that lookups hit the cache.
func (t *Tracker) Rebuilds() uint64 {
	return t.rebuilds.Load()
}
