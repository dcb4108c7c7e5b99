package github

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// detailCache deduplicates commit-detail fetches. Entries live for the
// owning client's lifetime and are shared by every branch in the request, so
// a commit reachable from many branches is fetched exactly once.
//
// singleflight collapses concurrent fetches for the same key into one
// outstanding request; the cache is re-checked inside the flight because a
// previous flight may have populated it between the first miss and the call.
type detailCache struct {
	store *gocache.Cache
	group singleflight.Group
}

func newDetailCache() *detailCache {
	return &detailCache{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// getOrFetch returns the cached value for key, or runs fetch exactly once
// system-wide for concurrent callers of the same key and caches its result.
func (c *detailCache) getOrFetch(ctx context.Context, key string, fetch func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have finished while we waited on the group.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.store.Set(key, v, gocache.NoExpiration)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return v, nil
}
