package marginalia

import (
	"sync"
	"time"
)

// PostCache is an in-memory cache of post metadata and rendered post pages
// with a TTL.
type PostCache struct {
	mu      sync.RWMutex
	posts   []PostMetadata
	pages   map[string]string
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl, pages: make(map[string]string)}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.pages = make(map[string]string)
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListMetadata()
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []PostMetadata{}
	}
	c.posts = posts
	c.pages = make(map[string]string)
	c.fetched = time.Now()
	return nil
}

// ListMetadata returns the cached listing, most recent first.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ListMetadata() ([]PostMetadata, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.posts, nil
}

// Lookup returns the metadata for slug from the cached listing.
func (c *PostCache) Lookup(slug string) (PostMetadata, bool, error) {
	posts, err := c.ListMetadata()
	if err != nil {
		return PostMetadata{}, false, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, true, nil
		}
	}
	return PostMetadata{}, false, nil
}

// Page returns the rendered page for slug if it was stored since the last
// reload.
func (c *PostCache) Page(slug string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid() {
		return "", false
	}
	html, ok := c.pages[slug]
	return html, ok
}

// StorePage remembers the rendered page for slug until the next reload.
func (c *PostCache) StorePage(slug, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		return
	}
	c.pages[slug] = html
}
