package index

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is how long a loaded *Index is kept warm in memory
// before NewCachingLoader asks the wrapped Loader to rebuild it.
const DefaultCacheTTL = 30 * time.Minute

// NewCachingLoader wraps load with an in-memory TTL cache keyed by
// dbPath; nothing is cached on disk. reindex forces a rebuild and
// re-populates the cache; nocache bypasses the cache entirely in both
// directions. Safe for concurrent use: go-cache.Cache guards its own
// map with an internal mutex.
func NewCachingLoader(load Loader, reindex, nocache bool) Loader {
	if nocache {
		return load
	}

	c := cache.New(DefaultCacheTTL, 2*DefaultCacheTTL)
	return func(dbPath string) (*Index, error) {
		if !reindex {
			if cached, found := c.Get(dbPath); found {
				return cached.(*Index), nil
			}
		}

		idx, err := load(dbPath)
		if err != nil {
			return nil, err
		}
		c.Set(dbPath, idx, cache.DefaultExpiration)
		return idx, nil
	}
}
