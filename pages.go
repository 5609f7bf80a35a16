package inkpress

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Page is a generated HTML page and the moment it was produced.
type Page struct {
	Status      int
	Body        []byte
	GeneratedAt time.Time
}

// Generator produces the page for a single path.
type Generator func(ctx context.Context) (Page, error)

// DefaultMaxMissing is the default number of not-found pages a PageCache keeps.
const DefaultMaxMissing = 256

// PageCache keeps generated pages keyed by request path. A page older than
// the revalidation interval is regenerated by the next request for it;
// concurrent requests for the same path share one generation.
//
// Pages with a non-200 status are keyed by whatever path a client asked
// for, so at most MaxMissing of them are kept and the oldest is evicted
// first.
type PageCache struct {
	mu      sync.RWMutex
	pages   map[string]Page
	missing []string // non-200 paths, oldest first
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time

	// MaxMissing caps the number of cached non-200 pages.
	MaxMissing int
	// OnError is called when regeneration fails and a stale page is served.
	OnError func(path string, err error)
}

// NewPageCache creates a PageCache. A non-positive ttl keeps pages until
// they are invalidated.
func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{
		pages:      make(map[string]Page),
		ttl:        ttl,
		now:        time.Now,
		MaxMissing: DefaultMaxMissing,
	}
}

func (c *PageCache) fresh(p Page) bool {
	return c.ttl <= 0 || c.now().Sub(p.GeneratedAt) < c.ttl
}

func (c *PageCache) lookup(path string) (Page, bool) {
	c.mu.RLock()
	p, ok := c.pages[path]
	c.mu.RUnlock()
	return p, ok
}

// Get returns the cached page for path, generating it with gen when it is
// missing or stale. If regeneration fails and an older page exists, the
// older page is returned and OnError is notified. A failure with no prior
// page is returned to the caller.
func (c *PageCache) Get(ctx context.Context, path string, gen Generator) (Page, error) {
	if p, ok := c.lookup(path); ok && c.fresh(p) {
		return p, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		if p, ok := c.lookup(path); ok && c.fresh(p) {
			return p, nil
		}
		return c.generate(ctx, path, gen)
	})
	if err != nil {
		if stale, ok := c.lookup(path); ok {
			if c.OnError != nil {
				c.OnError(path, err)
			}
			return stale, nil
		}
		return Page{}, err
	}
	return v.(Page), nil
}

// Refresh generates the page for path unconditionally and stores it.
func (c *PageCache) Refresh(ctx context.Context, path string, gen Generator) (Page, error) {
	v, err, _ := c.group.Do(path, func() (any, error) {
		return c.generate(ctx, path, gen)
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

// generate runs gen detached from the caller's cancellation, since the
// result is shared with every request waiting on the same path.
func (c *PageCache) generate(ctx context.Context, path string, gen Generator) (Page, error) {
	p, err := gen(context.WithoutCancel(ctx))
	if err != nil {
		return Page{}, err
	}
	p.GeneratedAt = c.now()
	c.mu.Lock()
	c.store(path, p)
	c.mu.Unlock()
	return p, nil
}

// store saves p under path and trims the not-found pages. c.mu must be held.
func (c *PageCache) store(path string, p Page) {
	prev, had := c.pages[path]
	c.pages[path] = p
	wasMissing := had && prev.Status != http.StatusOK
	switch {
	case p.Status != http.StatusOK && !wasMissing:
		c.missing = append(c.missing, path)
	case p.Status == http.StatusOK && wasMissing:
		c.forgetMissing(path)
	}
	for len(c.missing) > max(c.MaxMissing, 0) {
		delete(c.pages, c.missing[0])
		c.missing = c.missing[1:]
	}
}

func (c *PageCache) forgetMissing(path string) {
	for i, m := range c.missing {
		if m == path {
			c.missing = append(c.missing[:i], c.missing[i+1:]...)
			return
		}
	}
}

// Invalidate drops the page for path so the next request regenerates it.
func (c *PageCache) Invalidate(path string) {
	c.mu.Lock()
	if p, ok := c.pages[path]; ok && p.Status != http.StatusOK {
		c.forgetMissing(path)
	}
	delete(c.pages, path)
	c.mu.Unlock()
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}
