package indicatorengine

import "sync"

// dailySMAKey identifies one symbol's SMA-200 value for one UTC date.
type dailySMAKey struct {
	symbol string
	date   string // YYYY-MM-DD, UTC
}

// dailySMACache holds the most recently computed Daily SMA-200 per symbol,
// keyed by (symbol, date) with no time-based expiration — entries are
// evicted only when a new date's value is cached for the same symbol,
// reproducing spec §4.3 step 1's "in-memory cache... evict on date
// rollover" without the TTL machinery a cross-cycle web cache would need.
type dailySMACache struct {
	mu      sync.Mutex
	entries map[string]dailySMAKey // symbol -> key currently cached
	values  map[dailySMAKey]float64
}

func newDailySMACache() *dailySMACache {
	return &dailySMACache{
		entries: make(map[string]dailySMAKey),
		values:  make(map[dailySMAKey]float64),
	}
}

// Get returns the cached SMA-200 for symbol on date, if present.
func (c *dailySMACache) Get(symbol, date string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dailySMAKey{symbol, date}
	v, ok := c.values[key]
	return v, ok
}

// Set caches value for symbol on date, evicting any stale entry for that
// symbol from a prior date.
func (c *dailySMACache) Set(symbol, date string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dailySMAKey{symbol, date}
	if old, ok := c.entries[symbol]; ok && old != key {
		delete(c.values, old)
	}
	c.entries[symbol] = key
	c.values[key] = value
}
