// internal/cache/users.go
package cache

import (
	"time"

	"hellofeed/internal/models"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map"
)

// UserCache holds profile snapshots for notification hydration so that N
// displayed records don't cost N sender fetches. It is an explicit
// dependency: constructed once and passed into the services that need it,
// never ambient state.
type UserCache struct {
	entries cmap.ConcurrentMap
	ttl     time.Duration
}

type userEntry struct {
	user     models.User
	storedAt time.Time
}

// NewUserCache creates a cache whose entries expire after ttl.
func NewUserCache(ttl time.Duration) *UserCache {
	return &UserCache{
		entries: cmap.New(),
		ttl:     ttl,
	}
}

// Get returns a copy of the cached profile, expiring stale entries on read.
func (c *UserCache) Get(id uuid.UUID) (*models.User, bool) {
	value, ok := c.entries.Get(id.String())
	if !ok {
		return nil, false
	}
	entry := value.(userEntry)
	if time.Since(entry.storedAt) > c.ttl {
		c.entries.Remove(id.String())
		return nil, false
	}
	copied := entry.user
	return &copied, true
}

// Put stores a profile snapshot.
func (c *UserCache) Put(user *models.User) {
	c.entries.Set(user.ID.String(), userEntry{user: *user, storedAt: time.Now()})
}

// Invalidate drops one entry, used after profile edits and deletes.
func (c *UserCache) Invalidate(id uuid.UUID) {
	c.entries.Remove(id.String())
}

// Len reports the number of resident entries, expired or not.
func (c *UserCache) Len() int {
	return c.entries.Count()
}
