package comfortapi

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// CachedModel wraps a ComfortModel with an in-memory LRU cache keyed by the
// exact input series. Re-analysing the same simulation, or zones that share
// identical conditions, skips the remote call.
type CachedModel struct {
	inner   overheating.ComfortModel
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedModel creates a cache decorator holding up to maxEntries series.
func NewCachedModel(inner overheating.ComfortModel, maxEntries int, metrics *observability.Metrics) *CachedModel {
	return &CachedModel{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedModel) StandardEffectiveTemperature(ctx context.Context, in overheating.ComfortInputs) ([]float64, error) {
	key := cacheKey(in)
	if set, ok := c.cache.get(key); ok {
		c.metrics.ComfortCache.WithLabelValues("hit").Inc()
		return set, nil
	}
	c.metrics.ComfortCache.WithLabelValues("miss").Inc()

	set, err := c.inner.StandardEffectiveTemperature(ctx, in)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, set)
	return set, nil
}

// cacheKey hashes the occupant parameters and every input value bit for bit.
func cacheKey(in overheating.ComfortInputs) [sha256.Size]byte {
	h := sha256.New()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	write(in.Met)
	write(in.Clo)
	write(in.AirSpeed)
	for _, series := range [][]float64{in.DryBulb, in.MeanRadiant, in.RelativeHumidity} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(series)))
		h.Write(buf[:])
		for _, v := range series {
			write(v)
		}
	}
	var key [sha256.Size]byte
	h.Sum(key[:0])
	return key
}

// lruCache is a simple thread-safe LRU cache of SET series. Values are
// copied in and out so callers cannot alias cached slices.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[[sha256.Size]byte]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   [sha256.Size]byte
	value []float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[[sha256.Size]byte]*entry),
	}
}

func (c *lruCache) get(key [sha256.Size]byte) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return append([]float64(nil), e.value...), true
}

func (c *lruCache) put(key [sha256.Size]byte, value []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = append([]float64(nil), value...)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
