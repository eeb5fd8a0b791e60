package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/justestif/skate-sessions/internal/db"
)

// DefaultCatalogTTL is how long serve keeps the trick catalog in memory.
// The catalog only changes through catalog import.
const DefaultCatalogTTL = 5 * time.Minute

// catalogCache holds the last catalog read with the time it was fetched.
// Entries older than ttl are refetched on the next read.
type catalogCache struct {
	repo db.TrickRepo
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	tricks    []db.Trick
	fetchedAt time.Time
}

func newCatalogCache(repo db.TrickRepo, ttl time.Duration, now func() time.Time) *catalogCache {
	return &catalogCache{repo: repo, ttl: ttl, now: now}
}

// List returns the cached catalog, reading through to repo when the cache
// is empty or stale. Callers get their own copy.
func (c *catalogCache) List(ctx context.Context) ([]db.Trick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tricks != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return slices.Clone(c.tricks), nil
	}

	tricks, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tricks == nil {
		tricks = []db.Trick{}
	}

	c.tricks = tricks
	c.fetchedAt = c.now()
	return slices.Clone(tricks), nil
}

// Upsert writes through to repo and drops the cached catalog.
func (c *catalogCache) Upsert(ctx context.Context, tricks []db.Trick) (int, error) {
	n, err := c.repo.Upsert(ctx, tricks)

	c.mu.Lock()
	c.tricks = nil
	c.mu.Unlock()

	return n, err
}

var _ db.TrickRepo = (*catalogCache)(nil)
