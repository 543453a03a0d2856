package schedule

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache keeps schedule snapshots for a TTL so that availability page views
// don't hit the schedule source on every request. It is an explicit
// collaborator injected into the Resolver; mutations to a specialist's
// schedule must call Invalidate.
type Cache struct {
	store *gocache.Cache
}

// NewCache creates a snapshot cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, 2*ttl)}
}

func (c *Cache) get(specialistID string) (*Snapshot, bool) {
	v, ok := c.store.Get(specialistID)
	if !ok {
		return nil, false
	}
	return v.(*Snapshot), true
}

func (c *Cache) set(specialistID string, snap *Snapshot) {
	c.store.SetDefault(specialistID, snap)
}

// Invalidate drops the cached snapshot for a specialist.
func (c *Cache) Invalidate(specialistID string) {
	c.store.Delete(specialistID)
}
