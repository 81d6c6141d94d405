// Package bookmarks keeps a short-lived copy of the caller's bookmarked post
// IDs so post lists can show the bookmark state without a request per post.
package bookmarks

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched ID set stays fresh
const DefaultTTL = 60 * time.Second

// Loader fetches the full set of bookmarked post IDs
type Loader func(ctx context.Context) ([]string, error)

// Cache is safe for concurrent use
type Cache struct {
	mu        sync.Mutex
	load      Loader
	ttl       time.Duration
	now       func() time.Time
	ids       map[string]struct{}
	fetchedAt time.Time
	valid     bool
}

func New(load Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{load: load, ttl: ttl, now: time.Now}
}

func (c *Cache) stale() bool {
	return !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl
}

// refresh reloads the set. Callers hold c.mu.
func (c *Cache) refresh(ctx context.Context) error {
	ids, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}
	c.fetchedAt = c.now()
	c.valid = true
	return nil
}

// Has reports whether postID is bookmarked, reloading first when the set is
// stale. A failed reload returns the error and leaves the old set in place.
func (c *Cache) Has(ctx context.Context, postID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale() {
		if err := c.refresh(ctx); err != nil {
			return false, err
		}
	}
	_, ok := c.ids[postID]
	return ok, nil
}

// Apply records the state the server returned for a toggle. It never flips
// locally; the server's boolean wins.
func (c *Cache) Apply(postID string, bookmarked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ids == nil {
		c.ids = make(map[string]struct{})
	}
	if bookmarked {
		c.ids[postID] = struct{}{}
	} else {
		delete(c.ids, postID)
	}
}

// Invalidate forces the next Has to reload
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Clear drops everything, used on logout
func (c *Cache) Clear() {
	c.mu.Lock()
	c.ids = nil
	c.valid = false
	c.mu.Unlock()
}

// Len is the number of cached IDs
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
