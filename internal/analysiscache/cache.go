// Package analysiscache deduplicates and memoizes per-date metrics
// computation. The backtest loop and the HTTP handlers share one cache so a
// simulation re-running the same (date, index, universe) never recomputes,
// and concurrent requests for the same key collapse into a single
// computation.
package analysiscache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stockpick/internal/contracts"
	"stockpick/pkg/logger"
	"stockpick/pkg/redis"
)

// DefaultMaxEntries bounds the in-memory layer. A year-long weekly backtest
// touches ~52 keys per index, so this comfortably covers several concurrent
// multi-year runs.
const DefaultMaxEntries = 512

// Key identifies one cached computation.
type Key struct {
	Date        string
	Index       contracts.Index
	Fingerprint uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%x", k.Date, k.Index, k.Fingerprint)
}

// Fingerprint hashes a symbol universe order-independently. Two calls with
// the same symbols in any order produce the same value.
func Fingerprint(symbols []string) uint64 {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, s := range sorted {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// ComputeFunc produces the metrics map for a key on cache miss.
type ComputeFunc func(ctx context.Context) (map[string]contracts.MetricsRecord, error)

// SnapshotStore loads persisted full-universe analyses, written by the
// nightly refresh job. A lookup miss is an empty map, not an error.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, index contracts.Index, date time.Time) (map[string]contracts.MetricsRecord, error)
}

// Cache is a layered memoization facade: a bounded in-process map in front
// of an optional Redis layer, with persisted snapshots as the warm floor.
// Errors are never cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]map[string]contracts.MetricsRecord
	order   []string
	max     int

	group     singleflight.Group
	remote    *redis.Cache
	snapshots SnapshotStore
	ttl       time.Duration
	logger    *logger.Logger
}

// New creates a cache with the given in-memory bound. remote and snapshots
// may be nil.
func New(max int, remote *redis.Cache, snapshots SnapshotStore, log *logger.Logger) *Cache {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Cache{
		entries:   make(map[string]map[string]contracts.MetricsRecord),
		max:       max,
		remote:    remote,
		snapshots: snapshots,
		ttl:       redis.TTLDaily,
		logger:    log,
	}
}

// GetOrCompute returns the cached metrics for the key, computing them at
// most once even under concurrent callers. The computation result for a
// given key is immutable; callers must not modify the returned map.
func (c *Cache) GetOrCompute(ctx context.Context, date time.Time, index contracts.Index, symbols []string, fn ComputeFunc) (map[string]contracts.MetricsRecord, error) {
	key := Key{
		Date:        date.Format("2006-01-02"),
		Index:       index,
		Fingerprint: Fingerprint(symbols),
	}
	ks := key.String()

	c.mu.Lock()
	if cached, ok := c.entries[ks]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(ks, func() (interface{}, error) {
		if remote, ok := c.loadRemote(ctx, key); ok {
			c.store(ks, remote)
			return remote, nil
		}

		if snap, ok := c.loadSnapshot(ctx, index, date, symbols); ok {
			c.store(ks, snap)
			c.saveRemote(ctx, key, snap)
			return snap, nil
		}

		computed, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.store(ks, computed)
		c.saveRemote(ctx, key, computed)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]contracts.MetricsRecord), nil
}

// store inserts into the in-memory layer, evicting oldest-first past the
// bound.
func (c *Cache) store(key string, records map[string]contracts.MetricsRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = records

	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *Cache) loadRemote(ctx context.Context, key Key) (map[string]contracts.MetricsRecord, bool) {
	if c.remote == nil {
		return nil, false
	}
	var records map[string]contracts.MetricsRecord
	found, err := c.remote.Get(ctx, c.remoteKey(key), &records)
	if err != nil {
		c.logger.WithError(err).Warn("Discarding corrupt cached analysis")
		return nil, false
	}
	return records, found
}

// loadSnapshot serves a persisted analysis when one covers the request.
// The snapshot holds the refresh job's full universe; it is trimmed to the
// requested symbols so the result matches what a fresh computation over
// them would contain.
func (c *Cache) loadSnapshot(ctx context.Context, index contracts.Index, date time.Time, symbols []string) (map[string]contracts.MetricsRecord, bool) {
	if c.snapshots == nil {
		return nil, false
	}
	records, err := c.snapshots.GetSnapshot(ctx, index, date)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to load metrics snapshot")
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	subset := make(map[string]contracts.MetricsRecord, len(symbols))
	for _, symbol := range symbols {
		if rec, ok := records[symbol]; ok {
			subset[symbol] = rec
		}
	}
	if len(subset) == 0 {
		return nil, false
	}

	c.logger.WithFields(map[string]interface{}{
		"index":   index,
		"date":    date.Format("2006-01-02"),
		"records": len(subset),
	}).Debug("Analysis served from snapshot")

	return subset, true
}

func (c *Cache) saveRemote(ctx context.Context, key Key, records map[string]contracts.MetricsRecord) {
	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, c.remoteKey(key), records, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to cache analysis in redis")
	}
}

func (c *Cache) remoteKey(key Key) string {
	return redis.AnalysisKey(string(key.Index), key.Date, fmt.Sprintf("%x", key.Fingerprint))
}

// Len reports the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
