package event

import (
	"sync"

	"github.com/gregcal/greg/pkg/calendar"
)

// listingCache memoizes expanded occurrence listings per query fingerprint.
// Any stored-event mutation invalidates the whole cache; expansion is cheap
// enough that finer-grained invalidation is not worth tracking.
type listingCache struct {
	mu      sync.RWMutex
	entries map[string][]calendar.Occurrence
}

func newListingCache() *listingCache {
	return &listingCache{entries: make(map[string][]calendar.Occurrence)}
}

func (c *listingCache) get(key string) ([]calendar.Occurrence, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	occurrences, ok := c.entries[key]
	return occurrences, ok
}

func (c *listingCache) put(key string, occurrences []calendar.Occurrence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = occurrences
}

func (c *listingCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]calendar.Occurrence)
}
