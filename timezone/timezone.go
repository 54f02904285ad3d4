package timezone

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Cache resolves IANA zone names and keeps the loaded locations.
type Cache struct {
	mu        sync.Mutex
	locations map[string]*time.Location
}

func NewCache() *Cache {
	return &Cache{locations: make(map[string]*time.Location)}
}

func (c *Cache) Get(timeZone string) (*time.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locations[timeZone]; ok {
		return l, nil
	}
	location, err := load(timeZone)
	if err != nil {
		return nil, err
	}
	c.locations[timeZone] = location
	return location, nil
}

var defaultCache = NewCache()

// Load returns the location for timeZone. An empty name means the process
// local zone.
func Load(timeZone string) (*time.Location, error) {
	return defaultCache.Get(timeZone)
}

func load(timeZone string) (*time.Location, error) {
	if timeZone == "" {
		return time.Local, nil
	}
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load time zone %v", timeZone)
	}
	return location, nil
}
