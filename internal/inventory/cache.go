package inventory

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const defaultRetryDelay = 250 * time.Millisecond

type Collector interface {
	Collect(ctx context.Context) (*Snapshot, error)
}

// Mirror is an optional shared copy of the latest snapshot. It only saves
// collections; failures are logged and otherwise ignored.
type Mirror interface {
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Clear(ctx context.Context) error
}

type Option func(*Cache)

func WithMirror(m Mirror) Option {
	return func(c *Cache) { c.mirror = m }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) { c.retryDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

type entry struct {
	snap *Snapshot
	gen  uint64
}

// Cache holds the most recent snapshot. An entry is valid only while its
// generation matches the cache generation; Invalidate bumps the generation.
type Cache struct {
	collector  Collector
	mirror     Mirror
	retryDelay time.Duration
	now        func() time.Time

	current     atomic.Pointer[entry]
	generation  atomic.Uint64
	collections atomic.Int64

	group     singleflight.Group
	collectMu sync.Mutex
}

func NewCache(collector Collector, opts ...Option) *Cache {
	c := &Cache{
		collector:  collector,
		retryDelay: defaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a snapshot no older than maxAge, collecting a new one if needed.
// Concurrent callers share a single collection. A caller whose ctx ends stops
// waiting, but the collection still completes and populates the cache.
func (c *Cache) Get(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	gen := c.generation.Load()
	if s, ok := c.fresh(gen, maxAge); ok {
		return s, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.refresh(detached, gen, maxAge)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Current returns the held snapshot without collecting. It may be nil or stale.
func (c *Cache) Current() *Snapshot {
	if e := c.current.Load(); e != nil {
		return e.snap
	}
	return nil
}

// Invalidate forces the next Get to collect regardless of maxAge.
func (c *Cache) Invalidate(ctx context.Context) {
	c.generation.Add(1)
	if c.mirror != nil {
		if err := c.mirror.Clear(ctx); err != nil {
			log.Warn("mirror clear failed", "err", err)
		}
	}
}

// Collections reports how many times the collector has been called.
func (c *Cache) Collections() int64 {
	return c.collections.Load()
}

func (c *Cache) fresh(gen uint64, maxAge time.Duration) (*Snapshot, bool) {
	e := c.current.Load()
	if e == nil || e.gen != gen {
		return nil, false
	}
	if e.snap.Age(c.now()) > maxAge {
		return nil, false
	}
	return e.snap, true
}

func (c *Cache) refresh(ctx context.Context, gen uint64, maxAge time.Duration) (*Snapshot, error) {
	c.collectMu.Lock()
	defer c.collectMu.Unlock()

	// a flight for an older generation may have finished while we waited
	if s, ok := c.fresh(c.generation.Load(), maxAge); ok {
		return s, nil
	}

	prev := c.current.Load()
	if c.mirror != nil && (prev == nil || prev.gen == gen) {
		if s := c.loadMirror(ctx, maxAge); s != nil {
			c.store(s, gen)
			return s, nil
		}
	}

	s, err := c.collect(ctx)
	if err != nil {
		return nil, err
	}
	c.store(s, gen)

	if c.mirror != nil && c.generation.Load() == gen {
		if err := c.mirror.Save(ctx, s); err != nil {
			log.Warn("mirror save failed", "err", err)
		}
	}
	return s, nil
}

func (c *Cache) collect(ctx context.Context) (*Snapshot, error) {
	c.collections.Add(1)
	s, err := c.collector.Collect(ctx)
	if err == nil {
		return s, nil
	}
	if !IsTransient(err) {
		return nil, err
	}

	log.Warn("collection failed, retrying", "err", err, "delay", c.retryDelay)
	time.Sleep(c.retryDelay)

	c.collections.Add(1)
	return c.collector.Collect(ctx)
}

func (c *Cache) loadMirror(ctx context.Context, maxAge time.Duration) *Snapshot {
	s, err := c.mirror.Load(ctx)
	if err != nil {
		log.Warn("mirror load failed", "err", err)
		return nil
	}
	if s == nil || s.Age(c.now()) > maxAge {
		return nil
	}
	log.Debug("adopted mirrored snapshot", "records", len(s.Records), "captured", s.CapturedAt)
	return s
}

func (c *Cache) store(s *Snapshot, gen uint64) {
	c.current.Store(&entry{snap: s, gen: gen})
}
